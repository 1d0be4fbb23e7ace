package secret

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Service is the keyring service name secrets are filed under.
const Service = "program-tray"

// Store remembers secrets in the OS keyring, keyed by program id.
type Store struct {
	service string
}

// NewStore creates a keyring-backed store.
func NewStore() *Store {
	return &Store{service: Service}
}

// Get returns the remembered secret for a program. found is false when the
// keyring holds nothing for it.
func (s *Store) Get(programID string) (value string, found bool, err error) {
	value, err = keyring.Get(s.service, programID)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read keyring: %w", err)
	}
	return value, true, nil
}

// Set remembers a secret for a program.
func (s *Store) Set(programID, value string) error {
	if err := keyring.Set(s.service, programID, value); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

// Forget removes the remembered secret. Forgetting a missing secret is not an error.
func (s *Store) Forget(programID string) error {
	err := keyring.Delete(s.service, programID)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete keyring entry: %w", err)
	}
	return nil
}
