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

// prompter reads answers from the user. When input is a terminal,
// passwords are read without echo; otherwise every answer is one line.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	tty *os.File
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.tty = f
	}
	return p
}

// Line prints prompt and returns the next input line without its newline.
// io.EOF is returned only when no input remains at all.
func (p *prompter) Line(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(p.out, prompt)
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Password reads a password, hiding it when input is a terminal.
func (p *prompter) Password(prompt string) (string, error) {
	if p.tty == nil {
		pw, err := p.Line("")
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("no password on input")
		}
		return pw, err
	}
	fmt.Fprint(p.out, prompt)
	b, err := term.ReadPassword(int(p.tty.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

// Confirm asks a yes/no question. Anything but y or yes declines.
func (p *prompter) Confirm(prompt string) bool {
	answer, err := p.Line(prompt + " [y/N] ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
