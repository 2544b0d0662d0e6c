// Package app holds the command handlers behind every user action. Front
// ends (the CLI and the interactive shell) parse input, call a handler and
// report the returned error; handlers never prompt or print on their own.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/contractdesk/internal/contract"
	"github.com/dshills/contractdesk/internal/form"
	"github.com/dshills/contractdesk/internal/gate"
	"github.com/dshills/contractdesk/internal/printer"
	"github.com/dshills/contractdesk/internal/redact"
	"github.com/dshills/contractdesk/internal/render"
	"github.com/dshills/contractdesk/internal/repository"
	"github.com/dshills/contractdesk/internal/storage"
	"github.com/dshills/contractdesk/internal/storediff"
)

// Authorizer checks the manager password.
type Authorizer interface {
	Authorize(candidate string) error
}

// PasswordSetter replaces the stored manager password.
type PasswordSetter interface {
	Init(password string) error
}

// Progress is the cosmetic indicator shown before a save.
type Progress interface {
	Run()
}

// Confirmer asks the user to approve a destructive action.
type Confirmer func(prompt string) bool

// App wires the repository, gate, renderer and printer together.
type App struct {
	Repo        *repository.Repository
	Store       storage.Store
	Gate        Authorizer
	Credentials PasswordSetter
	Renderer    render.Renderer
	Printer     printer.Printer
	Progress    Progress
	Log         zerolog.Logger
	Now         func() time.Time
}

func (a *App) today() contract.Date {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	return contract.DateOf(now())
}

// authorize runs the gate and logs which kind of failure occurred.
func (a *App) authorize(action, password string) error {
	err := a.Gate.Authorize(password)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gate.ErrMismatch):
		a.Log.Warn().Str("action", action).Str("reason", "mismatch").Msg("access denied")
	default:
		a.Log.Warn().Str("action", action).Str("reason", "credential").Err(err).Msg("access denied")
	}
	return err
}

// Create validates f, checks the password, shows progress, writes the
// contract document to out and appends the record. Nothing is stored when
// any step before the append fails.
func (a *App) Create(f form.Fields, password, out string) (contract.Record, error) {
	if err := form.CheckInput(f); err != nil {
		return contract.Record{}, err
	}
	if err := form.Validate(f); err != nil {
		return contract.Record{}, err
	}
	if err := a.authorize("create", password); err != nil {
		return contract.Record{}, err
	}
	if a.Progress != nil {
		a.Progress.Run()
	}

	rec := form.BuildRecord(f, a.today())
	if err := render.RenderToFile(a.Renderer, &rec, out); err != nil {
		return contract.Record{}, err
	}
	a.Log.Debug().Str("path", out).Msg("document rendered")

	if err := a.Repo.Append(rec); err != nil {
		return contract.Record{}, err
	}
	a.Log.Info().
		Str("name", rec.FullName).
		Str("passport", redact.Mask(rec.PassportID)).
		Str("type", string(rec.InsuranceType)).
		Int("count", a.Repo.Len()).
		Msg("contract created")
	return rec, nil
}

// PrintForm saves the form as a new contract and prints the document.
// Printing always goes through the full save path.
func (a *App) PrintForm(ctx context.Context, f form.Fields, password, out string) (contract.Record, error) {
	rec, err := a.Create(f, password, out)
	if err != nil {
		return contract.Record{}, err
	}
	return rec, a.print(ctx, out)
}

// PrintRecord renders the stored contract at index to out and prints it.
// An empty out renders to a temporary file that is removed once the printer
// command returns.
func (a *App) PrintRecord(ctx context.Context, index int, out string) (string, error) {
	rec, err := a.Repo.Get(index)
	if err != nil {
		return "", err
	}
	if out == "" {
		f, err := os.CreateTemp("", "contract-*"+a.Renderer.Ext())
		if err != nil {
			return "", fmt.Errorf("creating temporary document: %w", err)
		}
		out = f.Name()
		_ = f.Close()
		defer os.Remove(out)
	}
	if err := render.RenderToFile(a.Renderer, &rec, out); err != nil {
		return "", err
	}
	return out, a.print(ctx, out)
}

func (a *App) print(ctx context.Context, path string) error {
	if err := a.Printer.Print(ctx, path); err != nil {
		return fmt.Errorf("printing %s: %w", path, err)
	}
	a.Log.Info().Str("path", path).Msg("document sent to printer")
	return nil
}

// Load checks the password and returns the form contents of the contract
// at index.
func (a *App) Load(index int, password string) (form.Fields, error) {
	if err := a.authorize("load", password); err != nil {
		return form.Fields{}, err
	}
	rec, err := a.Repo.Get(index)
	if err != nil {
		return form.Fields{}, err
	}
	return form.FromRecord(rec), nil
}

// Delete removes the contract at index once confirm approves. It reports
// whether anything was deleted.
func (a *App) Delete(index int, confirm Confirmer) (bool, error) {
	rec, err := a.Repo.Get(index)
	if err != nil {
		return false, err
	}
	if confirm != nil && !confirm(fmt.Sprintf("Delete contract %q? This cannot be undone.", rec.Summary())) {
		return false, nil
	}
	if err := a.Repo.Delete(index); err != nil {
		return false, err
	}
	a.Log.Info().Str("name", rec.FullName).Int("count", a.Repo.Len()).Msg("contract deleted")
	return true, nil
}

// DeletePreview returns how storage would change if index were deleted.
func (a *App) DeletePreview(index int) (storediff.Change, error) {
	if _, err := a.Repo.Get(index); err != nil {
		return storediff.Change{}, err
	}
	records := a.Repo.Records()
	before, err := storage.Encode(records)
	if err != nil {
		return storediff.Change{}, err
	}
	after, err := storage.Encode(append(records[:index:index], records[index+1:]...))
	if err != nil {
		return storediff.Change{}, err
	}
	return storediff.Compare(before, after), nil
}

// List returns the current sequence.
func (a *App) List() []contract.Record {
	return a.Repo.Records()
}

// Search returns matching contracts with their list positions.
func (a *App) Search(text string) []repository.Hit {
	return a.Repo.SearchIndexed(text)
}

// Sort reorders the list by key without saving.
func (a *App) Sort(key string) error {
	k, err := repository.ParseSortKey(key)
	if err != nil {
		return err
	}
	return a.Repo.SortBy(k)
}

// Clear resets the form.
func (a *App) Clear(f *form.Fields) {
	form.Clear(f)
}

// SetPassword generates a new key and stores password under it.
func (a *App) SetPassword(password string) error {
	if err := a.Credentials.Init(password); err != nil {
		return err
	}
	a.Log.Info().Msg("manager password updated")
	return nil
}

// Migrate rewrites storage in the current format: legacy records get the
// creation dates assigned on load and legacy type labels become type names.
// The change is taken against the stored bytes, so it shows exactly what the
// rewrite does. With dryRun storage is left alone. It reports how many
// records were dated and the storage change; an empty change means storage
// is already current and nothing is written.
func (a *App) Migrate(dryRun bool) (int, storediff.Change, error) {
	before, err := storage.Snapshot(a.Store)
	if err != nil {
		return 0, storediff.Change{}, fmt.Errorf("loading contracts: %w", err)
	}
	after, err := storage.Encode(a.Repo.Records())
	if err != nil {
		return 0, storediff.Change{}, err
	}
	change := storediff.Compare(before, after)
	patched := a.Repo.Patched()
	if dryRun || change.Empty() {
		return patched, change, nil
	}
	if err := a.Repo.Save(); err != nil {
		return 0, storediff.Change{}, err
	}
	inserted, deleted := change.Stats()
	a.Log.Info().Int("dated", patched).Int("inserted", inserted).Int("deleted", deleted).Msg("contracts migrated")
	return patched, change, nil
}
