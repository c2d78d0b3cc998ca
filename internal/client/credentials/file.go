package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the session as a JSON file so it survives restarts.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.read()
	if err != nil {
		return Session{}, false
	}
	return session, true
}

func (s *FileStore) Set(session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(session)
}

func (s *FileStore) UpdateAccess(accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.read()
	if err != nil {
		session = Session{}
	}
	session.AccessToken = accessToken
	return s.write(session)
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *FileStore) read() (Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Session{}, err
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, fmt.Errorf("decode session file: %w", err)
	}
	return session, nil
}

func (s *FileStore) write(session Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
