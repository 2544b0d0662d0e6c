// Package credential persists the symmetric key and the encrypted manager
// password that guard contract creation and loading.
//
// The key file holds a base64-encoded 32-byte key. The password file holds
// base64(nonce || secretbox(password)) with a random 24-byte nonce, so
// re-encrypting the same password produces different output.
package credential

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// KeySize is the length of the symmetric key in bytes.
	KeySize   = 32
	nonceSize = 24
)

// ErrCorrupt is returned when the encrypted password cannot be opened with
// the stored key.
var ErrCorrupt = errors.New("encrypted password is corrupt or sealed with a different key")

// Error reports that stored credentials are missing, unreadable or cannot be
// decrypted.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "credential " + e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Store reads and writes the key file and the encrypted password file.
type Store struct {
	KeyPath      string
	PasswordPath string
}

// NewStore returns a Store for the given file paths.
func NewStore(keyPath, passwordPath string) *Store {
	return &Store{KeyPath: keyPath, PasswordPath: passwordPath}
}

// Init generates a fresh key and stores password encrypted under it.
// Any previous key and password are overwritten. Both files are written in
// full before either replaces its predecessor, so a failed write leaves the
// old pair intact.
func (s *Store) Init(password string) error {
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}
	key, err := newKey()
	if err != nil {
		return err
	}
	sealed, err := Seal(key, []byte(password))
	if err != nil {
		return err
	}

	keyTmp, err := writeTemp(s.KeyPath, encodeKey(key))
	if err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}
	defer os.Remove(keyTmp)
	pwTmp, err := writeTemp(s.PasswordPath, encodeSealed(sealed))
	if err != nil {
		return fmt.Errorf("writing password file: %w", err)
	}
	defer os.Remove(pwTmp)

	if err := os.Rename(keyTmp, s.KeyPath); err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}
	if err := os.Rename(pwTmp, s.PasswordPath); err != nil {
		return fmt.Errorf("writing password file: %w", err)
	}
	return nil
}

// GenerateKey writes a new random key to KeyPath.
func (s *Store) GenerateKey() error {
	key, err := newKey()
	if err != nil {
		return err
	}
	if err := replaceFile(s.KeyPath, encodeKey(key)); err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}
	return nil
}

func newKey() (*[KeySize]byte, error) {
	var key [KeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		return nil, fmt.Errorf("could not generate key: %w", err)
	}
	return &key, nil
}

func encodeKey(key *[KeySize]byte) []byte {
	return []byte(base64.StdEncoding.EncodeToString(key[:]) + "\n")
}

func encodeSealed(sealed []byte) []byte {
	return []byte(base64.StdEncoding.EncodeToString(sealed) + "\n")
}

// writeTemp writes data to a new private file next to path and returns its
// name.
func writeTemp(path string, data []byte) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

// replaceFile swaps path for a fully written copy of data.
func replaceFile(path string, data []byte) error {
	tmp, err := writeTemp(path, data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// LoadKey reads and decodes the key file.
func (s *Store) LoadKey() (*[KeySize]byte, error) {
	raw, err := os.ReadFile(s.KeyPath)
	if err != nil {
		return nil, &Error{Op: "read key", Err: err}
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, &Error{Op: "decode key", Err: err}
	}
	if len(decoded) != KeySize {
		return nil, &Error{Op: "decode key", Err: fmt.Errorf("key is %d bytes, want %d", len(decoded), KeySize)}
	}
	var key [KeySize]byte
	copy(key[:], decoded)
	return &key, nil
}

// EncryptPassword seals password with the stored key and writes it to
// PasswordPath.
func (s *Store) EncryptPassword(password string) error {
	key, err := s.LoadKey()
	if err != nil {
		return err
	}
	sealed, err := Seal(key, []byte(password))
	if err != nil {
		return err
	}
	if err := replaceFile(s.PasswordPath, encodeSealed(sealed)); err != nil {
		return fmt.Errorf("writing password file: %w", err)
	}
	return nil
}

// DecryptPassword returns the stored password in plain text. Every failure
// is reported as an *Error.
func (s *Store) DecryptPassword() (string, error) {
	key, err := s.LoadKey()
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(s.PasswordPath)
	if err != nil {
		return "", &Error{Op: "read password", Err: err}
	}
	sealed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return "", &Error{Op: "decode password", Err: err}
	}
	plain, err := Open(key, sealed)
	if err != nil {
		return "", &Error{Op: "decrypt password", Err: err}
	}
	return string(plain), nil
}

// Seal encrypts plaintext under key and prepends a random nonce.
func Seal(key *[KeySize]byte, plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("could not generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, key), nil
}

// Open reverses Seal.
func Open(key *[KeySize]byte, sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrCorrupt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, key)
	if !ok {
		return nil, ErrCorrupt
	}
	return plain, nil
}
