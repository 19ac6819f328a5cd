package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/twin-insights/internal/insights"
	"github.com/benvon/twin-insights/internal/models"
	"github.com/benvon/twin-insights/internal/request"
	"github.com/benvon/twin-insights/internal/session"
	"github.com/benvon/twin-insights/internal/validation"
)

// CreateSessionRequest selects the product for a new session
type CreateSessionRequest struct {
	Product string `json:"product" validate:"required,product"`
}

// SelectProductRequest picks a product for a session that was reset
type SelectProductRequest struct {
	Product string `json:"product" validate:"required,product"`
}

// SubmitQuestionRequest is one question asked inside a session
type SubmitQuestionRequest struct {
	Question string `json:"question" validate:"required"`
}

// MessageView is a chat message with chart data for structured answers
type MessageView struct {
	models.Message
	Charts []insights.Chart `json:"charts,omitempty"`
}

// SessionView is the client-facing snapshot of a session
type SessionView struct {
	ID                 uuid.UUID      `json:"id"`
	State              session.Phase  `json:"state"`
	Product            models.Product `json:"product,omitempty"`
	ProductName        string         `json:"product_name,omitempty"`
	Count              int            `json:"count"`
	Quota              int            `json:"quota"`
	Remaining          int            `json:"remaining"`
	InFlight           bool           `json:"in_flight"`
	CanSubmit          bool           `json:"can_submit"`
	Messages           []MessageView  `json:"messages"`
	SuggestedQuestions []string       `json:"suggested_questions,omitempty"`
}

// NewSessionView renders a session state for the API
func NewSessionView(id uuid.UUID, st session.State) SessionView {
	view := SessionView{
		ID:        id,
		State:     st.Phase,
		Product:   st.Product,
		Count:     st.Count,
		Quota:     st.Quota,
		Remaining: st.Remaining(),
		InFlight:  st.InFlight,
		CanSubmit: st.CanSubmit(),
		Messages:  make([]MessageView, 0, len(st.Messages)),
	}
	if st.Product != "" {
		view.ProductName = st.Product.DisplayName()
		view.SuggestedQuestions = st.Product.SuggestedQuestions()
	}
	for _, m := range st.Messages {
		mv := MessageView{Message: m}
		if m.Survey != nil {
			mv.Charts = insights.Charts(*m.Survey)
		}
		view.Messages = append(view.Messages, mv)
	}
	return view
}

// SessionsHandler exposes the session controller over HTTP
type SessionsHandler struct {
	store  *session.Store
	logger *zap.Logger
}

// NewSessionsHandler creates a new sessions handler
func NewSessionsHandler(store *session.Store, log *zap.Logger) *SessionsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionsHandler{store: store, logger: log}
}

// RegisterRoutes registers session routes
func (h *SessionsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/sessions", h.CreateSession).Methods("POST")
	r.HandleFunc("/sessions/{id}", h.GetSession).Methods("GET")
	r.HandleFunc("/sessions/{id}", h.DeleteSession).Methods("DELETE")
	r.HandleFunc("/sessions/{id}/questions", h.SubmitQuestion).Methods("POST")
	r.HandleFunc("/sessions/{id}/product", h.SelectProduct).Methods("POST")
	r.HandleFunc("/sessions/{id}/reset", h.ResetSession).Methods("POST")
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionsHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	c, err := h.store.Create(req.Product)
	if err != nil {
		if errors.Is(err, models.ErrInvalidProduct) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid product selection")
			return
		}
		h.logger.Error("session_create_failed",
			zap.String("request_id", request.RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create session")
		return
	}

	respondJSON(w, http.StatusCreated, NewSessionView(c.ID(), c.State()))
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *SessionsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, NewSessionView(c.ID(), c.State()))
}

// SubmitQuestion handles POST /api/v1/sessions/{id}/questions. The response
// is sent once the answer or failure notice has been appended.
func (h *SessionsHandler) SubmitQuestion(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req SubmitQuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	question, err := validation.ValidateQuestion(req.Question)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	st, err := c.Submit(r.Context(), question)
	switch {
	case errors.Is(err, session.ErrSubmitIgnored):
		msg := "The session is not accepting questions"
		switch {
		case st.InFlight:
			msg = "A question is already being answered"
		case st.Phase == session.PhaseQuotaExhausted:
			msg = "Question quota reached. Reset the session to start over"
		}
		respondJSONError(w, http.StatusConflict, "Conflict", msg)
		return
	case errors.Is(err, insights.ErrEmptyQuestion):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "question is required")
		return
	case err != nil:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to submit question")
		return
	}

	respondJSON(w, http.StatusOK, NewSessionView(c.ID(), st))
}

// SelectProduct handles POST /api/v1/sessions/{id}/product. Only an Idle
// session can choose a product; an active one must be reset first.
func (h *SessionsHandler) SelectProduct(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req SelectProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	st, err := c.Start(req.Product)
	switch {
	case errors.Is(err, models.ErrInvalidProduct):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid product selection")
		return
	case errors.Is(err, session.ErrInvalidTransition):
		respondJSONError(w, http.StatusConflict, "Conflict", "Reset the session before choosing another product")
		return
	case err != nil:
		h.logger.Error("session_select_failed",
			zap.String("request_id", request.RequestIDFromContext(r.Context())),
			zap.String("session_id", c.ID().String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to select product")
		return
	}

	h.logger.Info("session_product_selected",
		zap.String("session_id", c.ID().String()),
		zap.String("product", string(st.Product)),
	)
	respondJSON(w, http.StatusOK, NewSessionView(c.ID(), st))
}

// ResetSession handles POST /api/v1/sessions/{id}/reset
func (h *SessionsHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, NewSessionView(c.ID(), c.Reset()))
}

// DeleteSession handles DELETE /api/v1/sessions/{id}
func (h *SessionsHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid session ID")
		return
	}
	if err := h.store.Delete(id); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionsHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Controller, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid session ID")
		return nil, false
	}
	c, err := h.store.Get(id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Session not found")
		return nil, false
	}
	return c, true
}
