package session

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/labamart/labamart/internal/models"
)

var ErrNoSession = errors.New("no active session")

// Store persists the single serialized session object. No order data is
// ever persisted client-side; orders are always re-fetched.
type Store struct {
	path string
}

// NewStore creates new session Store instance
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save writes the session.
func (s *Store) Save(sess models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// Current returns the stored session, or ErrNoSession.
func (s *Store) Current() (*models.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	sess := models.Session{}
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, ErrNoSession
	}
	if sess.Token == "" {
		return nil, ErrNoSession
	}

	return &sess, nil
}

// Clear removes the stored session.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
