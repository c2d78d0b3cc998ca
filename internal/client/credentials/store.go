// Package credentials holds the client's session tokens.
package credentials

import "sync"

// Session is the client-held token pair. Both fields are opaque strings;
// no expiry is tracked locally, the server's accept/reject decision on
// each call is authoritative.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Store persists the current session. Set writes both tokens together;
// UpdateAccess replaces only the access token after a silent refresh.
type Store interface {
	Get() (Session, bool)
	Set(session Session) error
	UpdateAccess(accessToken string) error
	Clear() error
}

// MemoryStore keeps the session in memory for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	session Session
	present bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.present
}

func (s *MemoryStore) Set(session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	s.present = true
	return nil
}

func (s *MemoryStore) UpdateAccess(accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.AccessToken = accessToken
	s.present = true
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
	s.present = false
	return nil
}
