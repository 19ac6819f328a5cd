package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/twin-insights/internal/database"
	"github.com/benvon/twin-insights/internal/insights"
	"github.com/benvon/twin-insights/internal/logger"
	"github.com/benvon/twin-insights/internal/models"
	"github.com/benvon/twin-insights/internal/request"
	"github.com/benvon/twin-insights/internal/services/ai"
	"github.com/benvon/twin-insights/internal/session"
	"github.com/benvon/twin-insights/internal/validation"
)

// QueryRequest is the stateless insight request body
type QueryRequest struct {
	Product  string `json:"product" validate:"required,product"`
	Question string `json:"question" validate:"required"`
}

// QueryResponse carries either a plain-text response or the survey fields
// at the top level, plus pre-computed chart data for structured results.
type QueryResponse struct {
	Kind     string `json:"kind"`
	Response string `json:"response,omitempty"`
	*models.SurveyResult
	Summary string           `json:"summary,omitempty"`
	Charts  []insights.Chart `json:"charts,omitempty"`
}

// NewQueryResponse converts a generator result into its wire form
func NewQueryResponse(result insights.Result) QueryResponse {
	switch r := result.(type) {
	case insights.Structured:
		survey := r.Survey
		return QueryResponse{
			Kind:         "structured",
			SurveyResult: &survey,
			Summary:      insights.Summary(survey),
			Charts:       insights.Charts(survey),
		}
	case insights.PlainText:
		return QueryResponse{Kind: "text", Response: r.Text}
	default:
		return QueryResponse{Kind: "text"}
	}
}

// QueryHandler answers one-off questions without a session
type QueryHandler struct {
	generator session.InsightGenerator
	logger    *zap.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(generator session.InsightGenerator, log *zap.Logger) *QueryHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &QueryHandler{generator: generator, logger: log}
}

// RegisterRoutes registers query routes
func (h *QueryHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/query", h.Query).Methods("POST")
}

// Query handles POST /api/v1/query
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	question, err := validation.ValidateQuestion(req.Question)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	product, err := models.ParseProduct(req.Product)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid product selection")
		return
	}

	result, err := h.generator.Generate(r.Context(), product, question)
	if err != nil {
		status, errType, msg := classifyGenerateError(err, product)
		h.logger.Warn("query_failed",
			zap.String("request_id", request.RequestIDFromContext(r.Context())),
			zap.String("product", string(product)),
			zap.String("question", logger.SanitizeQuestion(question)),
			zap.Int("status", status),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, status, errType, msg)
		return
	}

	respondJSON(w, http.StatusOK, NewQueryResponse(result))
}

// classifyGenerateError maps generator failures onto generic client-facing responses
func classifyGenerateError(err error, product models.Product) (int, string, string) {
	switch {
	case errors.Is(err, models.ErrInvalidProduct):
		return http.StatusBadRequest, "Bad Request", "Invalid product selection"
	case errors.Is(err, insights.ErrEmptyQuestion):
		return http.StatusBadRequest, "Bad Request", "question is required"
	case errors.Is(err, database.ErrNoProfilesAvailable):
		return http.StatusServiceUnavailable, "Service Unavailable", fmt.Sprintf("No AI twin profiles are available for %s right now", product.DisplayName())
	case ai.IsCompletionError(err):
		return http.StatusBadGateway, "Bad Gateway", "The insight service is temporarily unavailable. Please try again."
	default:
		return http.StatusInternalServerError, "Internal Server Error", "Failed to generate insights"
	}
}
