// Package printer hands rendered documents to the system print service.
package printer

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Printer submits a file for printing.
type Printer interface {
	Print(ctx context.Context, path string) error
}

// Command prints by running an external program with the file path as its
// last argument, e.g. "lp" or "lpr -P office".
type Command struct {
	name string
	args []string
}

// NewCommand parses a print command line.
func NewCommand(commandLine string) (*Command, error) {
	parts := strings.Fields(commandLine)
	if len(parts) == 0 {
		return nil, fmt.Errorf("print command is empty")
	}
	return &Command{name: parts[0], args: parts[1:]}, nil
}

// String returns the command line without the file argument.
func (c *Command) String() string {
	return strings.Join(append([]string{c.name}, c.args...), " ")
}

// Print runs the command and waits for it to finish.
func (c *Command) Print(ctx context.Context, path string) error {
	args := append(append([]string{}, c.args...), path)
	out, err := exec.CommandContext(ctx, c.name, args...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("running %s: %w", c.name, err)
		}
		return fmt.Errorf("running %s: %w: %s", c.name, err, msg)
	}
	return nil
}
