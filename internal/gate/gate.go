// Package gate is the local password confirmation guarding contract creation
// and contract loading. It is a soft gate over a symmetrically encrypted
// password: no lockout, no rate limiting, no rotation.
package gate

import (
	"errors"
	"fmt"
)

var (
	// ErrCredential means the stored key or password could not be read or decrypted.
	ErrCredential = errors.New("could not decrypt stored password")
	// ErrMismatch means the candidate password is wrong.
	ErrMismatch = errors.New("password mismatch")
)

// PasswordSource yields the stored password in plain text.
type PasswordSource interface {
	DecryptPassword() (string, error)
}

// Gate compares candidate passwords against the stored one.
type Gate struct {
	src PasswordSource
}

// New returns a Gate backed by src.
func New(src PasswordSource) *Gate {
	return &Gate{src: src}
}

// Verify reports whether candidate equals the stored password. A non-nil
// error wraps ErrCredential and means no comparison took place.
func (g *Gate) Verify(candidate string) (bool, error) {
	stored, err := g.src.DecryptPassword()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrCredential, err)
	}
	return candidate == stored, nil
}

// Authorize returns nil when candidate is correct, ErrMismatch when it is
// wrong, and an ErrCredential-wrapping error when nothing could be compared.
func (g *Gate) Authorize(candidate string) error {
	ok, err := g.Verify(candidate)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMismatch
	}
	return nil
}
