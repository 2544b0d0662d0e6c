// Package storage holds the durable backends for the contract list. Every
// backend rewrites the whole sequence on Save; there is no incremental append.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dshills/contractdesk/internal/contract"
)

// Store persists the full, ordered contract sequence.
type Store interface {
	// Load returns the stored sequence, or an empty one when nothing has
	// been stored yet. Records are returned as stored; missing creation
	// dates are left zero.
	Load() ([]contract.Record, error)
	// Save replaces everything stored with records.
	Save(records []contract.Record) error
}

// JSONFile stores the sequence as one JSON array in a single file.
type JSONFile struct {
	path string
}

// NewJSONFile returns a JSONFile store at path.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the backing file path.
func (s *JSONFile) Path() string { return s.path }

// Load reads the file. A missing file is an empty sequence.
func (s *JSONFile) Load() ([]contract.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []contract.Record{}, nil
		}
		return nil, fmt.Errorf("reading contracts file: %w", err)
	}
	return Decode(data)
}

// Raw returns the file contents exactly as stored. A missing file reads as
// the encoding of an empty sequence.
func (s *JSONFile) Raw() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Encode(nil)
		}
		return nil, fmt.Errorf("reading contracts file: %w", err)
	}
	return data, nil
}

// Snapshot returns the stored sequence as bytes. Stores that keep a file
// return it verbatim; the rest return the encoding of what Load sees.
func Snapshot(s Store) ([]byte, error) {
	if r, ok := s.(interface{ Raw() ([]byte, error) }); ok {
		return r.Raw()
	}
	records, err := s.Load()
	if err != nil {
		return nil, err
	}
	return Encode(records)
}

// Save overwrites the file with records.
func (s *JSONFile) Save(records []contract.Record) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing contracts file: %w", err)
	}
	return nil
}

// Encode renders records as the JSON array written to disk. A nil slice
// encodes as [].
func Encode(records []contract.Record) ([]byte, error) {
	if records == nil {
		records = []contract.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding contracts: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a JSON array of contracts.
func Decode(data []byte) ([]contract.Record, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding contracts: %w", err)
	}
	records := make([]contract.Record, 0, len(raw))
	for i, msg := range raw {
		var r contract.Record
		if err := json.Unmarshal(msg, &r); err != nil {
			return nil, fmt.Errorf("decoding contract[%d]: %w", i, err)
		}
		records = append(records, r)
	}
	return records, nil
}
