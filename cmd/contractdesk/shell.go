package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/contractdesk/internal/app"
	"github.com/dshills/contractdesk/internal/form"
	"github.com/dshills/contractdesk/internal/repository"
)

const shellHelp = `Commands:
  list                   show all contracts
  search <text>          show contracts whose name or type contains text
  sort <name|type|date>  reorder the list (saved with the next change)
  show <n>               load contract n into the form (password required)
  form                   show the form
  set <field> <value>    set a form field (name, birth-date, passport, phone, type, months, amount)
  clear                  reset the form
  create [path]          save the form as a new contract (password required)
  print [n]              print contract n, or save and print the form
  preview <n>            show how deleting contract n would change storage
  delete <n>             delete contract n after confirmation
  help                   show this help
  quit                   leave the shell
Numbers refer to the last list or search shown.
`

func newShellCmd(g *globalFlags) *cobra.Command {
	var out, format string
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Work with the form and the contract list interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			a, release, err := setup(g, format, cmd.ErrOrStderr())
			if err != nil {
				return fail(err)
			}
			defer release()

			s := &shell{
				app:    a,
				p:      newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()),
				w:      cmd.OutOrStdout(),
				fields: form.Defaults(),
				out:    out,
			}
			return s.run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&out, "out", defaultOut, "Document path used by create and print")
	cmd.Flags().StringVar(&format, "format", "pdf", "Document format: pdf, md or json")
	return cmd
}

// shell is the interactive front end. It owns the form state and the view
// that list numbers refer to.
type shell struct {
	app    *app.App
	p      *prompter
	w      io.Writer
	fields form.Fields
	view   []repository.Hit
	out    string
}

var errQuit = errors.New("quit")

func (s *shell) run(ctx context.Context) error {
	s.view = s.app.Search("")
	writeHits(s.w, s.view)
	for {
		line, err := s.p.Line("contractdesk> ")
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.w)
			return nil
		}
		if err != nil {
			return fail(err)
		}
		if err := s.exec(ctx, strings.TrimSpace(line)); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(s.w, "WARN: %s\n", err)
		}
	}
}

func (s *shell) exec(ctx context.Context, line string) error {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "":
		return nil
	case "help", "?":
		fmt.Fprint(s.w, shellHelp)
	case "quit", "exit":
		return errQuit
	case "list":
		s.refresh("")
	case "search":
		s.refresh(rest)
	case "sort":
		if err := s.app.Sort(rest); err != nil {
			return err
		}
		s.refresh("")
	case "form":
		writeFields(s.w, s.fields)
	case "set":
		field, value, _ := strings.Cut(rest, " ")
		return s.set(field, strings.TrimSpace(value))
	case "clear":
		s.app.Clear(&s.fields)
		fmt.Fprintln(s.w, "Form cleared")
	case "show":
		return s.show(rest)
	case "create":
		return s.create(rest)
	case "print":
		return s.print(ctx, rest)
	case "preview":
		index, err := s.resolve(rest)
		if err != nil {
			return err
		}
		change, err := s.app.DeletePreview(index)
		if err != nil {
			return err
		}
		fmt.Fprint(s.w, change.Preview())
	case "delete":
		return s.delete(rest)
	default:
		return fmt.Errorf("unknown command %q, type help for a list", name)
	}
	return nil
}

func (s *shell) refresh(search string) {
	s.view = s.app.Search(search)
	writeHits(s.w, s.view)
}

// resolve maps a number from the current view to a stored position. A
// number outside the view yields -1, which selects nothing.
func (s *shell) resolve(arg string) (int, error) {
	if arg == "" {
		return 0, repository.ErrNoSelection
	}
	k, err := parseIndex(arg)
	if err != nil {
		return 0, err
	}
	if k < 0 || k >= len(s.view) {
		return -1, nil
	}
	return s.view[k].Index, nil
}

// set changes one field and keeps the old form when the value is rejected.
func (s *shell) set(field, value string) error {
	next := s.fields
	if err := next.Set(field, value); err != nil {
		return err
	}
	if err := form.CheckInput(next); err != nil {
		return err
	}
	s.fields = next
	return nil
}

func (s *shell) show(arg string) error {
	index, err := s.resolve(arg)
	if err != nil {
		return err
	}
	pw, err := s.p.Password("Manager password: ")
	if err != nil {
		return err
	}
	f, err := s.app.Load(index, pw)
	if err != nil {
		return err
	}
	s.fields = f
	writeFields(s.w, f)
	return nil
}

func (s *shell) target(arg string) string {
	if arg != "" {
		return arg
	}
	return s.out
}

func (s *shell) create(arg string) error {
	if err := form.Validate(s.fields); err != nil {
		return err
	}
	pw, err := s.p.Password("Manager password: ")
	if err != nil {
		return err
	}
	out := s.target(arg)
	rec, err := s.app.Create(s.fields, pw, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.w, "Contract saved: %s -> %s\n", rec.Summary(), out)
	s.refresh("")
	return nil
}

func (s *shell) print(ctx context.Context, arg string) error {
	if arg != "" {
		index, err := s.resolve(arg)
		if err != nil {
			return err
		}
		path, err := s.app.PrintRecord(ctx, index, "")
		if err != nil {
			return err
		}
		fmt.Fprintf(s.w, "Sent %s to the printer\n", path)
		return nil
	}

	if err := form.Validate(s.fields); err != nil {
		return err
	}
	pw, err := s.p.Password("Manager password: ")
	if err != nil {
		return err
	}
	rec, err := s.app.PrintForm(ctx, s.fields, pw, s.out)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.w, "Contract saved: %s\nSent %s to the printer\n", rec.Summary(), s.out)
	s.refresh("")
	return nil
}

func (s *shell) delete(arg string) error {
	index, err := s.resolve(arg)
	if err != nil {
		return err
	}
	deleted, err := s.app.Delete(index, s.p.Confirm)
	if err != nil {
		return err
	}
	if !deleted {
		fmt.Fprintln(s.w, "Cancelled")
		return nil
	}
	fmt.Fprintln(s.w, "Contract deleted")
	s.refresh("")
	return nil
}
