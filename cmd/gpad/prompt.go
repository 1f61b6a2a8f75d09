package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// terminalUI answers the management prompts from a line-oriented reader.
// End of input cancels a prompt.
type terminalUI struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

func newTerminalUI(in *bufio.Reader, out io.Writer, assumeYes bool) *terminalUI {
	return &terminalUI{in: in, out: out, assumeYes: assumeYes}
}

func (u *terminalUI) Prompt(title, label string) (string, bool, error) {
	fmt.Fprintf(u.out, "%s\n%s ", title, label)
	line, ok, err := u.readLine()
	if err != nil || !ok {
		fmt.Fprintln(u.out)
		return "", false, err
	}
	return line, true, nil
}

func (u *terminalUI) Confirm(title, message string) (bool, error) {
	if u.assumeYes {
		return true, nil
	}
	fmt.Fprintf(u.out, "%s\n%s [y/N] ", title, message)
	line, ok, err := u.readLine()
	if err != nil || !ok {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (u *terminalUI) readLine() (string, bool, error) {
	line, err := u.in.ReadString('\n')
	if errors.Is(err, io.EOF) {
		if line == "" {
			return "", false, nil
		}
		err = nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimRight(line, "\r\n"), true, nil
}

// readSecret reads a token without echo when stdin is a terminal.
func (u *terminalUI) readSecret(label string) (string, error) {
	fmt.Fprint(u.out, label+" ")
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(u.out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}
	line, _, err := u.readLine()
	return strings.TrimSpace(line), err
}
