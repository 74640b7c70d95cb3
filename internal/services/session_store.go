package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"haulpulse/internal/config"
	"haulpulse/internal/dataprocessing"
	"haulpulse/internal/infrastructure"
)

// Session is an uploaded file normalized into a batch.
type Session struct {
	ID        string
	Filename  string
	CreatedAt time.Time
	ExpiresAt time.Time
	Batch     *dataprocessing.Batch
}

// SessionStore keeps sessions in memory, each alive for a sliding TTL.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool

	ttl      time.Duration
	max      int
	interval time.Duration
	now      func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// NewSessionStore creates a store and starts its janitor when cfg sets an interval.
func NewSessionStore(cfg config.SessionConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}

	s := &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      cfg.TTL,
		max:      cfg.MaxSessions,
		interval: cfg.JanitorInterval,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		metrics:  metricsOrNoop(metrics),
		logger:   logger.With(slog.String("component", "session_store")),
	}

	if s.interval > 0 {
		go s.janitor()
	} else {
		close(s.done)
	}
	return s
}

// Put stores a batch under a fresh ID.
func (s *SessionStore) Put(filename string, batch *dataprocessing.Batch) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Session{}, ErrStoreClosed
	}

	now := s.now()
	s.purgeLocked(now)
	if s.max > 0 && len(s.sessions) >= s.max {
		return Session{}, fmt.Errorf("%w: %d sessions", ErrSessionLimit, s.max)
	}

	sess := &Session{
		ID:        uuid.NewString(),
		Filename:  filename,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Batch:     batch,
	}
	s.sessions[sess.ID] = sess
	s.metrics.ActiveSessions.Add(context.Background(), 1)

	return *sess, nil
}

// Get returns the session and extends its lifetime.
func (s *SessionStore) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}

	now := s.now()
	if !now.Before(sess.ExpiresAt) {
		s.removeLocked(id)
		return Session{}, ErrSessionNotFound
	}
	sess.ExpiresAt = now.Add(s.ttl)
	return *sess, nil
}

// Delete removes the session.
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	s.removeLocked(id)
	return nil
}

// Len returns the number of stored sessions, expired ones included until purged.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Purge removes expired sessions and returns how many were removed.
func (s *SessionStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purgeLocked(s.now())
}

// Close stops the janitor and drops every session. It is safe to call twice.
func (s *SessionStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done

		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		for id := range s.sessions {
			s.removeLocked(id)
		}
	})
	return nil
}

func (s *SessionStore) janitor() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.Purge(); n > 0 {
				s.logger.Info("Expired sessions removed",
					slog.Int("count", n),
					slog.Int("remaining", s.Len()))
			}
		}
	}
}

func (s *SessionStore) purgeLocked(now time.Time) int {
	n := 0
	for id, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			s.removeLocked(id)
			n++
		}
	}
	return n
}

func (s *SessionStore) removeLocked(id string) {
	delete(s.sessions, id)
	s.metrics.ActiveSessions.Add(context.Background(), -1)
}
