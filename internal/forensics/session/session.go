// Package session implements the process-wide scan-session store:
// single writer (the orchestrator) per session, many readers (the
// status endpoint), guarded by a single RWMutex over the session table.

package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the closed set of session states.
type Status string

const (
	Pending Status = "pending"
	Running Status = "running"
	Done    Status = "done"
	Error   Status = "error"
)

// Session is one tracked scan's mutable state.
type Session struct {
	ID         string    `json:"session_id"`
	Status     Status    `json:"status"`
	Progress   int       `json:"progress"`
	Filename   string    `json:"filename"`
	SHA256     string    `json:"sha256,omitempty"`
	StoredPath string    `json:"stored_path"`
	ResultPath string    `json:"result_path,omitempty"`
	ErrorMsg   string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store is the in-memory session table.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// NewID generates a fresh "SID-XXXXXXXX" id: a random UUIDv4, its first 8
// hex characters, upper-cased.
func NewID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	hex := strings.ReplaceAll(u.String(), "-", "")
	return "SID-" + strings.ToUpper(hex[:8]), nil
}

// Create registers a new pending session and returns it. The caller owns
// write access to the returned pointer's fields only through Store's
// methods — never mutate it directly once stored.
func (s *Store) Create(id, filename, storedPath, sha256Hex string) *Session {
	sess := &Session{
		ID:         id,
		Status:     Pending,
		Filename:   filename,
		StoredPath: storedPath,
		SHA256:     sha256Hex,
		CreatedAt:  time.Now(),
	}
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return sess
}

// Get returns a copy of the session record, so callers never race with
// the orchestrator's writes.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// SetRunning transitions a session to running. Returns false if the
// session is unknown or not pending.
func (s *Store) SetRunning(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.Status != Pending {
		return false
	}
	sess.Status = Running
	return true
}

// SetProgress updates the running percentage of a session. Intended as
// the single writer path used by the orchestrator's progress callback.
func (s *Store) SetProgress(id string, pct int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.Progress = pct
	}
}

// SetDone marks a session complete and records where its result document
// was written.
func (s *Store) SetDone(id, resultPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.Status = Done
		sess.Progress = 100
		sess.ResultPath = resultPath
	}
}

// SetError marks a session failed. No partial result is ever attached.
func (s *Store) SetError(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.Status = Error
		sess.ErrorMsg = err.Error()
	}
}

// Delete removes a session's record. Callers are responsible for
// removing any stored image/result files separately.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
