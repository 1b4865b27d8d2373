package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/99designs/keyring"
	"github.com/dmitrijs2005/filedeck/internal/identity"
)

const (
	KeyringServiceName = "filedeck"

	sessionItem = "session"
	sidItem     = "sid"
)

var ErrNoSession = errors.New("no stored session")

// SessionStore keeps the signed-in session and the client's session id in
// the OS keychain between runs.
type SessionStore struct {
	ring keyring.Keyring
}

// OpenSessionStore opens the platform keychain, falling back to an
// encrypted file under dir when none is available.
func OpenSessionStore(dir string, password func(string) (string, error)) (*SessionStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: KeyringServiceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.FileBackend,
		},
		FileDir:          dir,
		FilePasswordFunc: password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return NewSessionStore(ring), nil
}

func NewSessionStore(ring keyring.Keyring) *SessionStore {
	return &SessionStore{ring: ring}
}

func (s *SessionStore) Save(session identity.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := s.ring.Set(keyring.Item{Key: sessionItem, Data: data, Label: "FileDeck session"}); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *SessionStore) Load() (identity.Session, error) {
	item, err := s.ring.Get(sessionItem)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return identity.Session{}, ErrNoSession
		}
		return identity.Session{}, fmt.Errorf("failed to read session: %w", err)
	}
	var session identity.Session
	if err := json.Unmarshal(item.Data, &session); err != nil {
		return identity.Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return session, nil
}

func (s *SessionStore) Clear() error {
	err := s.ring.Remove(sessionItem)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// SessionID returns the stored client session id, creating it with newID
// on first use.
func (s *SessionStore) SessionID(newID func() string) (string, error) {
	item, err := s.ring.Get(sidItem)
	if err == nil && len(item.Data) > 0 {
		return string(item.Data), nil
	}
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("failed to read session id: %w", err)
	}
	sid := newID()
	if err := s.ring.Set(keyring.Item{Key: sidItem, Data: []byte(sid)}); err != nil {
		return "", fmt.Errorf("failed to store session id: %w", err)
	}
	return sid, nil
}
