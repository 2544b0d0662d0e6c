// Package repository owns the in-memory contract sequence and keeps it in
// step with durable storage. Every mutation rewrites storage in full.
//
// A Repository is not safe for concurrent use; callers drive it from a
// single goroutine.
package repository

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/dshills/contractdesk/internal/contract"
	"github.com/dshills/contractdesk/internal/storage"
)

// ErrNoSelection is returned for an index that selects no contract.
var ErrNoSelection = errors.New("no contract selected")

// SortKey names an ordering for SortBy.
type SortKey string

const (
	SortByName SortKey = "name"
	SortByType SortKey = "type"
	SortByDate SortKey = "date"
)

// ParseSortKey validates a sort key string.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortByName, SortByType, SortByDate:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q: valid keys are name, type, date", s)
}

// Hit is a search result with its position in the current sequence.
type Hit struct {
	Index  int
	Record contract.Record
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the clock used to date legacy records on load.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// Repository is the single source of truth for the contract list.
type Repository struct {
	store   storage.Store
	records []contract.Record
	now     func() time.Time
	patched int
}

// New returns an empty Repository over store. Call Load to read storage.
func New(store storage.Store, opts ...Option) *Repository {
	r := &Repository{store: store, records: []contract.Record{}, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open returns a Repository already loaded from store.
func Open(store storage.Store, opts ...Option) (*Repository, error) {
	r := New(store, opts...)
	if _, err := r.Load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Load replaces the in-memory sequence with the stored one. Records without
// a creation date are given today's date; storage itself is not rewritten.
func (r *Repository) Load() ([]contract.Record, error) {
	records, err := r.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading contracts: %w", err)
	}
	today := contract.DateOf(r.now())
	r.patched = 0
	for i := range records {
		if records[i].CreationDate.IsZero() {
			records[i].CreationDate = today
			r.patched++
		}
	}
	if records == nil {
		records = []contract.Record{}
	}
	r.records = records
	return r.Records(), nil
}

// Patched returns how many legacy records the last Load dated.
func (r *Repository) Patched() int { return r.patched }

// Append adds record at the end and persists the sequence.
func (r *Repository) Append(record contract.Record) error {
	r.records = append(r.records, record)
	return r.Save()
}

// Delete removes the record at index and persists the sequence.
func (r *Repository) Delete(index int) error {
	if err := r.checkIndex(index); err != nil {
		return err
	}
	r.records = slices.Delete(r.records, index, index+1)
	return r.Save()
}

// Save rewrites storage with the in-memory sequence.
func (r *Repository) Save() error {
	if err := r.store.Save(r.Records()); err != nil {
		return fmt.Errorf("saving contracts: %w", err)
	}
	return nil
}

// Get returns the record at index.
func (r *Repository) Get(index int) (contract.Record, error) {
	if err := r.checkIndex(index); err != nil {
		return contract.Record{}, err
	}
	return r.records[index], nil
}

// Len returns the number of records.
func (r *Repository) Len() int { return len(r.records) }

// Records returns a copy of the current sequence.
func (r *Repository) Records() []contract.Record {
	return slices.Clone(r.records)
}

// Search returns the records whose name or insurance type contains text,
// ignoring case. An empty text matches everything.
func (r *Repository) Search(text string) []contract.Record {
	hits := r.SearchIndexed(text)
	out := make([]contract.Record, len(hits))
	for i, h := range hits {
		out[i] = h.Record
	}
	return out
}

// SearchIndexed is Search with each hit's position in the sequence.
func (r *Repository) SearchIndexed(text string) []Hit {
	needle := strings.ToLower(text)
	hits := make([]Hit, 0, len(r.records))
	for i, rec := range r.records {
		if strings.Contains(strings.ToLower(rec.FullName), needle) ||
			strings.Contains(strings.ToLower(string(rec.InsuranceType)), needle) {
			hits = append(hits, Hit{Index: i, Record: rec})
		}
	}
	return hits
}

// SortBy reorders the sequence in place. Equal keys keep their relative order.
// Storage is not touched; the next mutation persists the new order.
func (r *Repository) SortBy(key SortKey) error {
	less, err := lessFunc(key)
	if err != nil {
		return err
	}
	sort.SliceStable(r.records, func(i, j int) bool {
		return less(r.records[i], r.records[j])
	})
	return nil
}

// SortHits orders hits by key without touching the sequence, so each hit
// keeps its stored position.
func SortHits(hits []Hit, key SortKey) error {
	less, err := lessFunc(key)
	if err != nil {
		return err
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return less(hits[i].Record, hits[j].Record)
	})
	return nil
}

func lessFunc(key SortKey) (func(a, b contract.Record) bool, error) {
	switch key {
	case SortByName:
		return func(a, b contract.Record) bool {
			return strings.ToLower(a.FullName) < strings.ToLower(b.FullName)
		}, nil
	case SortByType:
		return func(a, b contract.Record) bool {
			return strings.ToLower(string(a.InsuranceType)) < strings.ToLower(string(b.InsuranceType))
		}, nil
	case SortByDate:
		return func(a, b contract.Record) bool {
			return a.CreationDate.Before(b.CreationDate)
		}, nil
	}
	return nil, fmt.Errorf("unknown sort key %q", key)
}

func (r *Repository) checkIndex(index int) error {
	if index < 0 || index >= len(r.records) {
		return fmt.Errorf("%w: index %d of %d", ErrNoSelection, index, len(r.records))
	}
	return nil
}
