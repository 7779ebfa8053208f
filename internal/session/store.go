// Package session keeps the raw payloads uploaded during one user session,
// keyed by app, until they are merged or the session is reset.
package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/insightdelivered/upi-statement-converter/internal/models"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

type session struct {
	payloads map[models.AppID]models.RawPayloads
	touched  time.Time
}

// Store is an in-memory session registry, safe for concurrent use.
// Data is lost on restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// Create opens a new session and returns its id.
func (s *Store) Create() string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = &session{
		payloads: make(map[models.AppID]models.RawPayloads),
		touched:  s.now(),
	}
	return id
}

// Exists reports whether id names a live session.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

// Put merges raw into the payloads already held for app. Roles present in
// raw replace earlier uploads of the same role.
func (s *Store) Put(id string, app models.AppID, raw models.RawPayloads) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	cur := sess.payloads[app]
	cur.Merge(raw)
	sess.payloads[app] = cur
	sess.touched = s.now()
	return nil
}

// Snapshot returns a copy of the session's payloads. RawPayloads holds only
// strings, so copying the map is a deep copy; later Puts do not show through.
func (s *Store) Snapshot(id string) (map[models.AppID]models.RawPayloads, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make(map[models.AppID]models.RawPayloads, len(sess.payloads))
	for app, raw := range sess.payloads {
		out[app] = raw
	}
	return out, nil
}

// Apps lists the apps with payloads in the session, sorted.
func (s *Store) Apps(id string) ([]models.AppID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	apps := make([]models.AppID, 0, len(sess.payloads))
	for app := range sess.payloads {
		apps = append(apps, app)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i] < apps[j] })
	return apps, nil
}

// Reset drops every payload but keeps the session open.
func (s *Store) Reset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.payloads = make(map[models.AppID]models.RawPayloads)
	sess.touched = s.now()
	return nil
}

// Delete closes a session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Prune closes sessions idle for longer than maxAge and returns how many
// were removed.
func (s *Store) Prune(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	n := 0
	for id, sess := range s.sessions {
		if sess.touched.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of open sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
