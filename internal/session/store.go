package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for unknown or expired session IDs
var ErrSessionNotFound = errors.New("session not found")

const (
	// DefaultIdleTTL is how long an untouched session is kept
	DefaultIdleTTL = 30 * time.Minute
	// DefaultSweepInterval is how often idle sessions are collected
	DefaultSweepInterval = time.Minute
)

// Store keeps sessions in memory only; they do not survive a restart.
type Store struct {
	generator InsightGenerator
	quota     int
	idleTTL   time.Duration
	logger    *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Controller
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithQuota sets the per-session question quota
func WithQuota(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.quota = n
		}
	}
}

// WithIdleTTL sets how long idle sessions are retained
func WithIdleTTL(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.idleTTL = d
		}
	}
}

// WithLogger sets the logger passed to every session
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates an empty session store
func NewStore(generator InsightGenerator, opts ...StoreOption) *Store {
	s := &Store{
		generator: generator,
		quota:     DefaultQuota,
		idleTTL:   DefaultIdleTTL,
		logger:    zap.NewNop(),
		sessions:  make(map[uuid.UUID]*Controller),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Quota returns the per-session quota
func (s *Store) Quota() int {
	return s.quota
}

// Create selects and confirms product in a new session. An invalid product
// creates nothing.
func (s *Store) Create(product string) (*Controller, error) {
	c := NewController(uuid.New(), s.generator, s.quota, s.logger)
	if _, err := c.Start(product); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[c.ID()] = c
	s.mu.Unlock()

	s.logger.Info("session_created",
		zap.String("session_id", c.ID().String()),
		zap.String("product", string(c.State().Product)),
	)
	return c, nil
}

// Get returns a session by ID
func (s *Store) Get(id uuid.UUID) (*Controller, error) {
	s.mu.RLock()
	c, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return c, nil
}

// Delete discards a session
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle since before now-idleTTL. Sessions with a
// request in flight are kept.
func (s *Store) Sweep(now time.Time) int {
	cutoff := now.Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, c := range s.sessions {
		if c.LastActive().After(cutoff) || c.State().InFlight {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	return removed
}

// Start runs the idle sweep every interval until ctx is cancelled
func (s *Store) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if n := s.Sweep(now); n > 0 {
				s.logger.Info("sessions_swept", zap.Int("removed", n), zap.Int("remaining", s.Len()))
			}
		}
	}
}
