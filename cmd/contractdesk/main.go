package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/contractdesk/internal/app"
	"github.com/dshills/contractdesk/internal/config"
	"github.com/dshills/contractdesk/internal/credential"
	"github.com/dshills/contractdesk/internal/form"
	"github.com/dshills/contractdesk/internal/gate"
	"github.com/dshills/contractdesk/internal/logging"
	"github.com/dshills/contractdesk/internal/printer"
	"github.com/dshills/contractdesk/internal/progress"
	"github.com/dshills/contractdesk/internal/render"
	"github.com/dshills/contractdesk/internal/repository"
	"github.com/dshills/contractdesk/internal/storage"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// Exit codes.
const (
	exitOther      = 1
	exitValidation = 2
	exitUsage      = 3
	exitCredential = 4
	exitMismatch   = 5
	exitSelection  = 6
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// codeError returns an exitErr for the given code.
func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// fail maps a handler error onto its exit code.
func fail(err error) error {
	if err == nil {
		return nil
	}
	var ee *exitErr
	if errors.As(err, &ee) {
		return err
	}
	return &exitErr{code: exitCodeFor(err), msg: err.Error()}
}

func exitCodeFor(err error) int {
	var ve *form.ValidationError
	switch {
	case errors.As(err, &ve):
		return exitValidation
	case errors.Is(err, gate.ErrMismatch):
		return exitMismatch
	case errors.Is(err, gate.ErrCredential):
		return exitCredential
	case errors.Is(err, repository.ErrNoSelection):
		return exitSelection
	default:
		return exitOther
	}
}

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	configPath    string
	contractsFile string
	storage       string
	logLevel      string
	verbose       bool
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		// anything cobra returns on its own is a usage problem
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitUsage)
	}
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:           "contractdesk",
		Short:         "Draft, store, print and delete insurance contracts",
		Long:          "contractdesk keeps a local history of insurance contracts, renders each one as a printable document and guards creation behind a manager password.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return codeError(exitUsage, "invalid flags: %s", err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Config file (default "+config.DefaultPath+" when present)")
	pf.StringVar(&g.contractsFile, "contracts", "", "Contracts JSON file, overrides contracts_file")
	pf.StringVar(&g.storage, "storage", "", "Storage backend: json or sqlite")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error or disabled")
	pf.BoolVar(&g.verbose, "verbose", false, "Log processing steps to stderr")

	root.AddCommand(
		newPasswordCmd(&g),
		newCreateCmd(&g),
		newPrintCmd(&g),
		newListCmd(&g),
		newShowCmd(&g),
		newDeleteCmd(&g),
		newMigrateCmd(&g),
		newShellCmd(&g),
	)
	return root
}

// loadConfig resolves the config file, env overrides and flag overrides.
func loadConfig(g *globalFlags) (config.Config, error) {
	path, required := g.configPath, true
	if path == "" {
		path, required = config.DefaultPath, false
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return config.Config{}, codeError(exitUsage, "%s", err)
	}
	if g.contractsFile != "" {
		cfg.ContractsFile = g.contractsFile
	}
	if g.storage != "" {
		cfg.Storage = g.storage
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.verbose && (cfg.LogLevel == "warn" || cfg.LogLevel == "error") {
		cfg.LogLevel = "info"
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, codeError(exitUsage, "invalid config: %s", err)
	}
	return cfg, nil
}

// openStore returns the configured backend and a function releasing it.
func openStore(cfg config.Config) (storage.Store, func(), error) {
	if cfg.Storage == config.StorageSQLite {
		s, err := storage.NewSQLite(cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
	return storage.NewJSONFile(cfg.ContractsFile), func() {}, nil
}

func newRenderer(cfg config.Config, format string) (render.Renderer, error) {
	var opts []render.Option
	if cfg.FontFile != "" {
		opts = append(opts, render.WithFont(cfg.FontFile))
	}
	if cfg.StampFile != "" {
		// #nosec G304 -- path comes from the operator
		data, err := os.ReadFile(cfg.StampFile)
		if err != nil {
			return nil, fmt.Errorf("reading stamp file: %w", err)
		}
		opts = append(opts, render.WithStamp(data))
	}
	return render.NewRenderer(format, opts...)
}

// setup builds the command handlers for one invocation. The returned
// function releases storage and must be called when the command is done.
func setup(g *globalFlags, format string, stderr io.Writer) (*app.App, func(), error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, nil, err
	}
	log := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty}, stderr)

	renderer, err := newRenderer(cfg, format)
	if err != nil {
		return nil, nil, codeError(exitUsage, "%s", err)
	}
	prn, err := printer.NewCommand(cfg.PrintCommand)
	if err != nil {
		return nil, nil, codeError(exitUsage, "%s", err)
	}

	store, release, err := openStore(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening storage: %w", err)
	}
	repo, err := repository.Open(store)
	if err != nil {
		release()
		return nil, nil, err
	}
	if n := repo.Patched(); n > 0 {
		log.Info().Int("records", n).Msg("dated legacy contracts; run migrate to persist")
	}
	log.Debug().Str("storage", cfg.Storage).Int("count", repo.Len()).Msg("contracts loaded")

	creds := credential.NewStore(cfg.KeyFile, cfg.PasswordFile)
	a := &app.App{
		Repo:        repo,
		Store:       store,
		Gate:        gate.New(creds),
		Credentials: creds,
		Renderer:    renderer,
		Printer:     prn,
		Progress:    progress.New(stderr, cfg.ProgressInterval),
		Log:         log,
	}
	return a, release, nil
}

// validateFormat returns an error unless format names a document renderer.
func validateFormat(format string) error {
	switch format {
	case "pdf", "md", "json":
		return nil
	}
	return codeError(exitUsage, "invalid flags: --format must be pdf, md or json, got %q", format)
}
