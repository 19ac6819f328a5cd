package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benvon/twin-insights/internal/insights"
	"github.com/benvon/twin-insights/internal/logger"
	"github.com/benvon/twin-insights/internal/models"
	"github.com/benvon/twin-insights/internal/services/ai"
)

// InsightGenerator answers one research question
type InsightGenerator interface {
	Generate(ctx context.Context, product models.Product, question string) (insights.Result, error)
}

// Controller serialises transitions of one session. The lock is held only
// while a transition is applied, never during the completion call.
type Controller struct {
	id        uuid.UUID
	generator InsightGenerator
	logger    *zap.Logger
	now       func() time.Time

	mu         sync.Mutex
	state      State
	lastActive time.Time
}

// NewController creates an Idle session
func NewController(id uuid.UUID, generator InsightGenerator, quota int, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		id:        id,
		generator: generator,
		logger:    log,
		now:       time.Now,
		state:     NewState(quota),
	}
	c.lastActive = c.now()
	return c
}

// ID returns the session identifier
func (c *Controller) ID() uuid.UUID {
	return c.id
}

// State returns the current snapshot
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastActive is the time of the last transition or read
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func (c *Controller) apply(fn func(State, time.Time) (State, error)) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	next, err := fn(c.state, now)
	c.state = next
	c.lastActive = now
	return next, err
}

// Select chooses a product
func (c *Controller) Select(product string) (State, error) {
	return c.apply(func(s State, _ time.Time) (State, error) {
		return s.Select(product)
	})
}

// Confirm enters the chat for the selected product
func (c *Controller) Confirm() (State, error) {
	return c.apply(func(s State, now time.Time) (State, error) {
		return s.Confirm(now)
	})
}

// Start selects a product and enters the chat in one transition. An invalid
// product leaves the session Idle; a session that is already chatting must be
// Reset first.
func (c *Controller) Start(product string) (State, error) {
	return c.apply(func(s State, now time.Time) (State, error) {
		selected, err := s.Select(product)
		if err != nil {
			return selected, err
		}
		return selected.Confirm(now)
	})
}

// Reset discards the transcript and returns to Idle. A request still in
// flight finishes but its result is dropped, and no new question is accepted
// until it has.
func (c *Controller) Reset() State {
	st, _ := c.apply(func(s State, _ time.Time) (State, error) {
		return s.Reset(), nil
	})
	return st
}

// Submit asks one question and blocks until the answer (or failure notice)
// has been appended. It returns ErrSubmitIgnored without side effects when
// the session cannot accept a question. Generator failures are never
// returned: they become an error-notice message and the quota is refunded.
func (c *Controller) Submit(ctx context.Context, question string) (State, error) {
	started, err := c.apply(func(s State, now time.Time) (State, error) {
		return s.BeginSubmit(question, now)
	})
	if err != nil {
		c.logger.Debug("question_ignored",
			zap.String("session_id", c.id.String()),
			zap.String("phase", string(started.Phase)),
			zap.Bool("in_flight", started.InFlight),
			zap.Error(err),
		)
		return started, err
	}

	ctx = ai.WithSessionID(ctx, c.id.String())
	result, genErr := c.generator.Generate(ctx, started.Product, question)

	final, _ := c.apply(func(s State, now time.Time) (State, error) {
		if genErr != nil {
			return s.Fail(started.Epoch, genErr, now), nil
		}
		return s.Complete(started.Epoch, result, now), nil
	})

	if genErr != nil {
		c.logger.Warn("question_failed",
			zap.String("session_id", c.id.String()),
			zap.String("product", string(started.Product)),
			zap.Int("count", final.Count),
			zap.String("error", logger.SanitizeError(genErr)),
		)
	} else {
		c.logger.Info("question_answered",
			zap.String("session_id", c.id.String()),
			zap.String("product", string(started.Product)),
			zap.Int("count", final.Count),
			zap.Int("quota", final.Quota),
			zap.String("phase", string(final.Phase)),
		)
	}
	return final, nil
}
