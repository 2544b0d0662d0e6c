package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/contractdesk/internal/app"
	"github.com/dshills/contractdesk/internal/credential"
	"github.com/dshills/contractdesk/internal/form"
	"github.com/dshills/contractdesk/internal/logging"
	"github.com/dshills/contractdesk/internal/redact"
	"github.com/dshills/contractdesk/internal/repository"
)

const defaultOut = "contract.pdf"

// formFlags binds one string flag per form field.
type formFlags map[string]*string

var formFlagUsage = map[string]string{
	form.FieldName:      "Client full name",
	form.FieldBirthDate: "Client date of birth (dd.mm.yyyy)",
	form.FieldPassport:  "Passport series and number",
	form.FieldPhone:     "Contact phone",
	form.FieldType:      "Insurance type: Auto, Medical, Property, Life or Travel",
	form.FieldMonths:    "Insurance term in months (1-36)",
	form.FieldAmount:    "Sum insured, a multiple of 10000 (10000-10000000)",
}

func addFormFlags(cmd *cobra.Command) formFlags {
	ff := make(formFlags, len(form.FieldNames))
	for _, name := range form.FieldNames {
		ff[name] = cmd.Flags().String(name, "", formFlagUsage[name])
	}
	return ff
}

// fields starts from the form defaults and applies every flag that was set.
func (ff formFlags) fields(cmd *cobra.Command) (form.Fields, error) {
	f := form.Defaults()
	for _, name := range form.FieldNames {
		if !cmd.Flags().Changed(name) {
			continue
		}
		if err := f.Set(name, *ff[name]); err != nil {
			return form.Fields{}, err
		}
	}
	if err := form.CheckInput(f); err != nil {
		return form.Fields{}, err
	}
	return f, form.Validate(f)
}

// parseIndex converts a 1-based index argument to a list position.
func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, codeError(exitUsage, "invalid index %q: want a list number starting at 1", s)
	}
	return n - 1, nil
}

func newPasswordCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Manage the manager password",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Generate a new key and store the manager password under it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			pw, err := p.Password("New manager password: ")
			if err != nil {
				return fail(err)
			}
			if pw == "" {
				return codeError(exitValidation, "password must not be empty")
			}
			if p.tty != nil {
				again, err := p.Password("Repeat password: ")
				if err != nil {
					return fail(err)
				}
				if again != pw {
					return codeError(exitValidation, "passwords do not match")
				}
			}
			a := &app.App{
				Credentials: credential.NewStore(cfg.KeyFile, cfg.PasswordFile),
				Log:         logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty}, cmd.ErrOrStderr()),
			}
			if err := a.SetPassword(pw); err != nil {
				return fail(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password stored (key %s, password %s)\n", cfg.KeyFile, cfg.PasswordFile)
			return nil
		},
	})
	return cmd
}

func newCreateCmd(g *globalFlags) *cobra.Command {
	var out, format string
	var ff formFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Save a new contract and write its document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			f, err := ff.fields(cmd)
			if err != nil {
				return fail(err)
			}
			a, release, err := setup(g, format, cmd.ErrOrStderr())
			if err != nil {
				return fail(err)
			}
			defer release()

			p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			pw, err := p.Password("Manager password: ")
			if err != nil {
				return fail(err)
			}
			rec, err := a.Create(f, pw, out)
			if err != nil {
				return fail(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Contract saved: %s -> %s (%d total)\n", rec.Summary(), out, a.Repo.Len())
			return nil
		},
	}
	ff = addFormFlags(cmd)
	cmd.Flags().StringVar(&out, "out", defaultOut, "Document output path")
	cmd.Flags().StringVar(&format, "format", "pdf", "Document format: pdf, md or json")
	return cmd
}

func newPrintCmd(g *globalFlags) *cobra.Command {
	var out, format string
	var ff formFlags
	cmd := &cobra.Command{
		Use:   "print [index]",
		Short: "Print a stored contract, or save and print the contract given by flags",
		Long: "With an index, renders the stored contract and sends it to the printer without changing storage.\n" +
			"Without one, the form flags go through the full create path first and the new document is printed.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			var f form.Fields
			index := -1
			if len(args) == 1 {
				i, err := parseIndex(args[0])
				if err != nil {
					return err
				}
				index = i
			} else {
				var err error
				if f, err = ff.fields(cmd); err != nil {
					return fail(err)
				}
			}

			a, release, err := setup(g, format, cmd.ErrOrStderr())
			if err != nil {
				return fail(err)
			}
			defer release()

			if len(args) == 1 {
				path, err := a.PrintRecord(cmd.Context(), index, out)
				if err != nil {
					return fail(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sent %s to the printer\n", path)
				return nil
			}

			p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			pw, err := p.Password("Manager password: ")
			if err != nil {
				return fail(err)
			}
			target := out
			if target == "" {
				target = defaultOut
			}
			rec, err := a.PrintForm(cmd.Context(), f, pw, target)
			if err != nil {
				return fail(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Contract saved: %s\nSent %s to the printer\n", rec.Summary(), target)
			return nil
		},
	}
	ff = addFormFlags(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Document output path (default: temporary file for stored contracts, "+defaultOut+" otherwise)")
	cmd.Flags().StringVar(&format, "format", "pdf", "Document format: pdf, md or json")
	return cmd
}

type listFlags struct {
	search string
	sort   string
	format string
}

func newListCmd(g *globalFlags) *cobra.Command {
	var flags listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored contracts",
		Long:  "Lists stored contracts with their index. --sort changes the display order only; indexes always refer to the stored order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var key repository.SortKey
			if flags.sort != "" {
				k, err := repository.ParseSortKey(flags.sort)
				if err != nil {
					return codeError(exitUsage, "invalid flags: %s", err)
				}
				key = k
			}
			switch flags.format {
			case "table", "json":
			default:
				return codeError(exitUsage, "invalid flags: --format must be table or json, got %q", flags.format)
			}

			a, release, err := setup(g, "pdf", cmd.ErrOrStderr())
			if err != nil {
				return fail(err)
			}
			defer release()

			hits := a.Search(flags.search)
			if key != "" {
				if err := repository.SortHits(hits, key); err != nil {
					return fail(err)
				}
			}
			if flags.format == "json" {
				return writeHitsJSON(cmd.OutOrStdout(), hits)
			}
			writeHits(cmd.OutOrStdout(), hits)
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.search, "search", "", "Show only contracts whose name or type contains this text")
	cmd.Flags().StringVar(&flags.sort, "sort", "", "Display order: name, type or date")
	cmd.Flags().StringVar(&flags.format, "format", "table", "Output format: table or json")
	return cmd
}

func newShowCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <index>",
		Short: "Load a stored contract into the form and print its fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			a, release, err := setup(g, "pdf", cmd.ErrOrStderr())
			if err != nil {
				return fail(err)
			}
			defer release()

			p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			pw, err := p.Password("Manager password: ")
			if err != nil {
				return fail(err)
			}
			f, err := a.Load(index, pw)
			if err != nil {
				return fail(err)
			}
			writeFields(cmd.OutOrStdout(), f)
			return nil
		},
	}
}

func newDeleteCmd(g *globalFlags) *cobra.Command {
	var yes, dryRun, hide bool
	cmd := &cobra.Command{
		Use:   "delete <index>",
		Short: "Permanently delete a stored contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			a, release, err := setup(g, "pdf", cmd.ErrOrStderr())
			if err != nil {
				return fail(err)
			}
			defer release()

			w := cmd.OutOrStdout()
			if dryRun {
				change, err := a.DeletePreview(index)
				if err != nil {
					return fail(err)
				}
				fmt.Fprint(w, maybeRedact(change.Preview(), hide))
				return nil
			}

			confirm := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()).Confirm
			if yes {
				confirm = func(string) bool { return true }
			}
			deleted, err := a.Delete(index, confirm)
			if err != nil {
				return fail(err)
			}
			if deleted {
				fmt.Fprintf(w, "Contract deleted (%d remaining)\n", a.Repo.Len())
			} else {
				fmt.Fprintln(w, "Cancelled")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Delete without asking for confirmation")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the storage change without deleting")
	cmd.Flags().BoolVar(&hide, "redact", false, "Mask passport and phone numbers in the preview")
	return cmd
}

func newMigrateCmd(g *globalFlags) *cobra.Command {
	var dryRun, hide bool
	var patchOut string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite legacy contracts in the current storage format",
		Long: "Persists creation dates for contracts stored without one and replaces legacy\n" +
			"insurance type labels with type names. The preview is taken against the stored file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, release, err := setup(g, "pdf", cmd.ErrOrStderr())
			if err != nil {
				return fail(err)
			}
			defer release()

			n, change, err := a.Migrate(dryRun)
			if err != nil {
				return fail(err)
			}
			w := cmd.OutOrStdout()
			if change.Empty() {
				fmt.Fprintln(w, "Nothing to migrate")
				return nil
			}
			if patchOut != "" {
				if err := os.WriteFile(patchOut, []byte(change.Patch()), 0o644); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "WARN: patch write failed: %s\n", err)
				}
			}
			fmt.Fprint(w, maybeRedact(change.Preview(), hide))
			if dryRun {
				fmt.Fprintf(w, "Would rewrite storage, dating %d contract(s)\n", n)
			} else {
				fmt.Fprintf(w, "Storage rewritten, dated %d contract(s)\n", n)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the change without writing it")
	cmd.Flags().BoolVar(&hide, "redact", false, "Mask passport and phone numbers in the preview")
	cmd.Flags().StringVar(&patchOut, "patch-out", "", "Also write the change in diff-match-patch format to this file")
	return cmd
}

func maybeRedact(preview string, hide bool) string {
	if hide {
		return redact.Redact(preview)
	}
	return preview
}

func writeHits(w io.Writer, hits []repository.Hit) {
	if len(hits) == 0 {
		fmt.Fprintln(w, "No contracts")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tTYPE\tCREATED")
	for _, h := range hits {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", h.Index+1, h.Record.FullName, h.Record.InsuranceType, h.Record.CreationDate)
	}
	_ = tw.Flush()
}

type hitJSON struct {
	Index    int `json:"index"`
	Contract any `json:"contract"`
}

func writeHitsJSON(w io.Writer, hits []repository.Hit) error {
	out := make([]hitJSON, len(hits))
	for i, h := range hits {
		out[i] = hitJSON{Index: h.Index + 1, Contract: h.Record}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding contracts: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeFields(w io.Writer, f form.Fields) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s:\t%s\n", form.FieldName, f.FullName)
	fmt.Fprintf(tw, "%s:\t%s\n", form.FieldBirthDate, f.BirthDate)
	fmt.Fprintf(tw, "%s:\t%s\n", form.FieldPassport, f.PassportID)
	fmt.Fprintf(tw, "%s:\t%s\n", form.FieldPhone, f.Phone)
	fmt.Fprintf(tw, "%s:\t%s\n", form.FieldType, f.InsuranceType)
	fmt.Fprintf(tw, "%s:\t%d\n", form.FieldMonths, f.DurationMonths)
	fmt.Fprintf(tw, "%s:\t%d\n", form.FieldAmount, f.Amount)
	_ = tw.Flush()
}
