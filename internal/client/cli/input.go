package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is replaced in tests so the terminal is never touched.
var readPassword = term.ReadPassword

// Indirections replaced in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

// GetSimpleText writes "prompt: " to w and returns the next line from
// reader without surrounding spaces. A final line without a newline still
// counts; an empty stream is io.EOF.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword reads a password from the terminal with echo off.
func GetPassword(w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// argOrPrompt uses the command arguments when given and asks otherwise.
func argOrPrompt(reader *bufio.Reader, w io.Writer, args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	return getSimpleText(reader, prompt, w)
}

// promptDefault shows def in brackets and returns it for an empty answer.
func promptDefault(reader *bufio.Reader, w io.Writer, prompt, def string) (string, error) {
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]", prompt, def)
	}
	v, err := getSimpleText(reader, prompt, w)
	if err != nil {
		return "", err
	}
	if v == "" {
		return def, nil
	}
	return v, nil
}

// newPassword asks for a new password and its confirmation. Comparing
// them is left to the form validation.
func newPassword(w io.Writer) (string, string, error) {
	pw, err := getPassword(w, "New password")
	if err != nil {
		return "", "", err
	}
	again, err := getPassword(w, "Confirm password")
	if err != nil {
		return "", "", err
	}
	return pw, again, nil
}
