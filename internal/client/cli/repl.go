package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

const (
	helpSignedOut = "Available commands: ls, view grid|list, search <q>, refresh, upload <paths...>, download <n>, rm <n>, link <n>, signed <n>, login, signup, phone, forgot, reset <link>, oauth, invite <code>, exit"
	helpSignedIn  = "Available commands: ls, view grid|list, search <q>, refresh, upload <paths...>, download <n>, rm <n>, link <n>, signed <n>, invite <code>, whoami, logout, exit"
)

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool

	List(ctx context.Context, args []string) error
	View(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	Refresh(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Link(ctx context.Context, args []string) error
	Signed(ctx context.Context, args []string) error

	Login(ctx context.Context, args []string) error
	Signup(ctx context.Context, args []string) error
	Phone(ctx context.Context, args []string) error
	Forgot(ctx context.Context, args []string) error
	Reset(ctx context.Context, args []string) error
	OAuth(ctx context.Context, args []string) error
	Invite(ctx context.Context, args []string) error
	WhoAmI(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
}

// runREPL reads commands line by line and dispatches them to a until EOF,
// "exit" or "quit". Handlers report their own failures through
// notifications, so returned errors are only printed. Prompts inside
// handlers read from the same reader.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	commands := map[string]func(context.Context, []string) error{
		"ls":       a.List,
		"l":        a.List,
		"view":     a.View,
		"search":   a.Search,
		"refresh":  a.Refresh,
		"upload":   a.Upload,
		"download": a.Download,
		"rm":       a.Remove,
		"link":     a.Link,
		"signed":   a.Signed,
		"login":    a.Login,
		"signup":   a.Signup,
		"phone":    a.Phone,
		"forgot":   a.Forgot,
		"reset":    a.Reset,
		"oauth":    a.OAuth,
		"invite":   a.Invite,
		"whoami":   a.WhoAmI,
		"logout":   a.Logout,
	}

	for {
		printlnFn(fmt.Sprintf("fd %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		fn, ok := commands[cmd]
		if !ok {
			printlnFn("Unknown command:", cmd)
			continue
		}
		if err := fn(ctx, args); err != nil {
			printlnFn("error:", err)
		}
	}
}
