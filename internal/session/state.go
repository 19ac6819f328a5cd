// Package session implements the query session state machine: product
// selection, a fixed question quota, one request in flight at a time and the
// resulting chat transcript.
package session

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/benvon/twin-insights/internal/database"
	"github.com/benvon/twin-insights/internal/insights"
	"github.com/benvon/twin-insights/internal/models"
)

// DefaultQuota is the number of questions a session may ask before it must be reset
const DefaultQuota = 10

// Phase is the session's position in the selection → chat lifecycle
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseProductSelected Phase = "product_selected"
	PhaseActive          Phase = "active"
	PhaseQuotaExhausted  Phase = "quota_exhausted"
)

var (
	// ErrSubmitIgnored is returned when a question arrives while the session
	// is not active, its quota is used up, or another question is in flight
	ErrSubmitIgnored = errors.New("submission ignored")
	// ErrInvalidTransition is returned when an operation does not apply to the current phase
	ErrInvalidTransition = errors.New("invalid session transition")
)

// State is an immutable snapshot of a query session. Every transition
// returns a new State; Messages is never modified in place.
type State struct {
	Phase    Phase
	Product  models.Product
	Count    int
	Quota    int
	InFlight bool
	Messages []models.Message
	// Epoch advances on Reset so a completion started before the reset is discarded
	Epoch uint64
}

// NewState returns an Idle session with the given quota
func NewState(quota int) State {
	if quota <= 0 {
		quota = DefaultQuota
	}
	return State{Phase: PhaseIdle, Quota: quota}
}

// Remaining is the number of questions still available
func (s State) Remaining() int {
	return max(s.Quota-s.Count, 0)
}

// CanSubmit reports whether a new question would be accepted
func (s State) CanSubmit() bool {
	return s.Phase == PhaseActive && s.Count < s.Quota && !s.InFlight
}

// Select picks a product. An unknown or missing product leaves the session Idle.
func (s State) Select(raw string) (State, error) {
	if s.Phase != PhaseIdle && s.Phase != PhaseProductSelected {
		return s, fmt.Errorf("%w: select while %s", ErrInvalidTransition, s.Phase)
	}
	product, err := models.ParseProduct(raw)
	if err != nil {
		next := s
		next.Phase = PhaseIdle
		next.Product = ""
		return next, err
	}
	next := s
	next.Phase = PhaseProductSelected
	next.Product = product
	return next, nil
}

// Confirm enters the chat and seeds the welcome message
func (s State) Confirm(now time.Time) (State, error) {
	if s.Phase != PhaseProductSelected {
		return s, fmt.Errorf("%w: confirm while %s", ErrInvalidTransition, s.Phase)
	}
	next := s
	next.Phase = PhaseActive
	next.Count = 0
	next.Messages = []models.Message{newMessage(models.RoleAssistant, WelcomeMessage(s.Product, s.Quota), now)}
	return next, nil
}

// BeginSubmit appends the user's question, charges one unit of quota and
// marks a request in flight
func (s State) BeginSubmit(question string, now time.Time) (State, error) {
	if !s.CanSubmit() {
		return s, ErrSubmitIgnored
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return s, insights.ErrEmptyQuestion
	}
	next := s
	next.Count++
	next.InFlight = true
	next.Messages = appendMessage(s.Messages, newMessage(models.RoleUser, question, now))
	return next, nil
}

// Complete records a successful answer for the request started in epoch.
// A result from before the last Reset only releases the in-flight slot.
func (s State) Complete(epoch uint64, result insights.Result, now time.Time) State {
	if !s.InFlight {
		return s
	}
	if s.Epoch != epoch {
		return s.release()
	}
	next := s
	next.InFlight = false
	next.Messages = appendMessage(s.Messages, resultMessage(result, now))
	if next.Count >= next.Quota {
		next.Phase = PhaseQuotaExhausted
	}
	return next
}

// Fail records a failed request started in epoch and refunds its quota unit
func (s State) Fail(epoch uint64, err error, now time.Time) State {
	if !s.InFlight {
		return s
	}
	if s.Epoch != epoch {
		return s.release()
	}
	next := s
	next.InFlight = false
	next.Count = max(next.Count-1, 0)
	msg := newMessage(models.RoleAssistant, ErrorNotice(s.Product, err), now)
	msg.IsError = true
	next.Messages = appendMessage(s.Messages, msg)
	return next
}

// Reset returns to Idle from any phase. A request still in flight keeps the
// in-flight slot until it finishes, so a session never has two outstanding
// completion calls even across a reset.
func (s State) Reset() State {
	next := NewState(s.Quota)
	next.Epoch = s.Epoch + 1
	next.InFlight = s.InFlight
	return next
}

func (s State) release() State {
	next := s
	next.InFlight = false
	return next
}

// WelcomeMessage is the first assistant message of an active session
func WelcomeMessage(product models.Product, quota int) string {
	return fmt.Sprintf("Welcome! I'm ready to answer your questions about %s using insights from our AI digital twins. "+
		"You can ask up to %d questions in this session. Try one of the suggested questions or ask your own.",
		product.DisplayName(), quota)
}

// ErrorNotice is the assistant message shown when a question could not be answered
func ErrorNotice(product models.Product, err error) string {
	if errors.Is(err, database.ErrNoProfilesAvailable) {
		return fmt.Sprintf("No AI twin profiles are available for %s right now, so I can't answer that yet. "+
			"When profiles are available, twins typically share flavor preferences, purchase frequency, "+
			"price sensitivity, brand loyalty, health considerations and packaging preferences. "+
			"This question did not count against your quota.", product.DisplayName())
	}
	return "Sorry, I encountered an error while generating insights for that question. Please try again; " +
		"this question did not count against your quota."
}

func resultMessage(result insights.Result, now time.Time) models.Message {
	switch r := result.(type) {
	case insights.Structured:
		survey := r.Survey
		msg := newMessage(models.RoleAssistant, insights.Summary(survey), now)
		msg.Survey = &survey
		return msg
	case insights.PlainText:
		return newMessage(models.RoleAssistant, r.Text, now)
	default:
		return newMessage(models.RoleAssistant, "", now)
	}
}

func newMessage(role models.Role, content string, now time.Time) models.Message {
	return models.Message{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		Timestamp: now.UTC(),
	}
}

// appendMessage copies before appending so earlier States keep their transcript
func appendMessage(msgs []models.Message, m models.Message) []models.Message {
	out := slices.Clone(msgs)
	return append(out, m)
}
