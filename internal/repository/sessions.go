// Package repository provides typed collections over the storage backend.
// Every mutation writes through: the backing store commits first, then the
// in-memory view is updated, so the two can never diverge.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"pdbench/internal/domain"
	"pdbench/internal/logging"
	"pdbench/internal/ports"
)

// Sessions is the typed session collection plus the persisted
// current-session pointer.
type Sessions struct {
	store ports.Store

	mu      sync.Mutex
	byID    map[string]domain.Session
	current string
}

// NewID returns a fresh opaque entity id.
func NewID() string {
	return uuid.New().String()
}

// LoadSessions loads all sessions from the store and applies the integrity
// pass: sessions with neither images nor runs are discarded, and the
// discards are persisted immediately (self-healing, not just filtering in
// memory). The current-session pointer is resolved against the pruned set;
// a dangling pointer is cleared, never redirected to an arbitrary session.
func LoadSessions(ctx context.Context, store ports.Store) (*Sessions, error) {
	recs, err := store.GetAll(ctx, ports.CollectionSessions)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	s := &Sessions{
		store: store,
		byID:  make(map[string]domain.Session, len(recs)),
	}

	var pruned []string
	for _, rec := range recs {
		var sess domain.Session
		if err := json.Unmarshal(rec.Payload, &sess); err != nil {
			logging.Logger.Warn("discarding unreadable session record",
				"id", rec.ID, "error", err)
			pruned = append(pruned, rec.ID)
			continue
		}
		if !sess.Valid() {
			pruned = append(pruned, sess.ID)
			continue
		}
		s.byID[sess.ID] = sess
	}

	for _, id := range pruned {
		if err := store.Delete(ctx, ports.CollectionSessions, id); err != nil {
			// Pruning is best effort; the session stays out of memory either way
			logging.Logger.Warn("failed to persist session prune", "id", id, "error", err)
		}
	}
	if len(pruned) > 0 {
		logging.Logger.Info("pruned invalid sessions at load", "count", len(pruned))
	}

	current, err := store.GetMeta(ctx, ports.MetaCurrentSession)
	if err != nil {
		return nil, fmt.Errorf("failed to read current session pointer: %w", err)
	}
	if current != "" {
		if _, ok := s.byID[current]; !ok {
			logging.Logger.Info("clearing dangling current session pointer", "id", current)
			if err := store.SetMeta(ctx, ports.MetaCurrentSession, ""); err != nil {
				logging.Logger.Warn("failed to clear current session pointer", "error", err)
			}
			current = ""
		}
	}
	s.current = current

	return s, nil
}

// Get returns the session with the given id.
func (s *Sessions) Get(id string) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	return sess, ok
}

// List returns all sessions ordered by creation time, oldest first.
func (s *Sessions) List() []domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Session, 0, len(s.byID))
	for _, sess := range s.byID {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of sessions.
func (s *Sessions) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Put persists the session, then updates the in-memory view. When the store
// write fails nothing changes in memory.
func (s *Sessions) Put(ctx context.Context, sess domain.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	rec := ports.Record{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
		Payload:   payload,
	}
	if err := s.store.Put(ctx, ports.CollectionSessions, rec); err != nil {
		return fmt.Errorf("failed to persist session %s: %w", sess.ID, err)
	}

	s.mu.Lock()
	s.byID[sess.ID] = sess
	s.mu.Unlock()
	return nil
}

// Delete removes the session. When it was the current one the pointer is
// cleared; no replacement is auto-selected.
func (s *Sessions) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.byID[id]
	wasCurrent := s.current == id
	s.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}

	if err := s.store.Delete(ctx, ports.CollectionSessions, id); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if wasCurrent {
		if err := s.store.SetMeta(ctx, ports.MetaCurrentSession, ""); err != nil {
			return fmt.Errorf("failed to clear current session pointer: %w", err)
		}
	}

	s.mu.Lock()
	delete(s.byID, id)
	if wasCurrent {
		s.current = ""
	}
	s.mu.Unlock()
	return nil
}

// Current returns the currently selected session.
func (s *Sessions) Current() (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == "" {
		return domain.Session{}, false
	}
	sess, ok := s.byID[s.current]
	return sess, ok
}

// CurrentID returns the current session id, or "".
func (s *Sessions) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetCurrent points the selection at an existing session.
func (s *Sessions) SetCurrent(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.byID[id]
	s.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}

	if err := s.store.SetMeta(ctx, ports.MetaCurrentSession, id); err != nil {
		return fmt.Errorf("failed to persist current session pointer: %w", err)
	}

	s.mu.Lock()
	s.current = id
	s.mu.Unlock()
	return nil
}

// ClearCurrent drops the selection.
func (s *Sessions) ClearCurrent(ctx context.Context) error {
	if err := s.store.SetMeta(ctx, ports.MetaCurrentSession, ""); err != nil {
		return fmt.Errorf("failed to clear current session pointer: %w", err)
	}
	s.mu.Lock()
	s.current = ""
	s.mu.Unlock()
	return nil
}
