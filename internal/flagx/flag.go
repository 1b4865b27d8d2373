// Package flagx lets several flag sets share one command line: each set
// picks out only the flags it knows, so unknown flags never abort parsing.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// FilterArgs keeps the arguments of args that name one of allowed, along
// with their values. Both "-name value" and "-name=value" forms are kept;
// "--name" is accepted and rewritten to "-name". A separate value is taken
// only when the next argument is not itself a flag. Parsing stops at "--".
func FilterArgs(args []string, allowed []string) []string {
	known := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		known[f] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		arg = normalize(arg)

		name, _, hasValue := strings.Cut(arg, "=")
		if !known[name] {
			continue
		}
		out = append(out, arg)
		if !hasValue && i+1 < len(args) && !isFlag(args[i+1]) {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

func normalize(arg string) string {
	if strings.HasPrefix(arg, "--") && len(arg) > 2 {
		return arg[1:]
	}
	return arg
}

func isFlag(arg string) bool {
	return len(arg) > 1 && arg[0] == '-'
}

// ConfigFileFlag returns the value of -c/-config from os.Args, or "".
func ConfigFileFlag() string {
	return ConfigFile(os.Args[1:])
}

// ConfigFile is ConfigFileFlag over an explicit argument list.
func ConfigFile(argv []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(argv, []string{"-c", "-config"}))

	return path
}
