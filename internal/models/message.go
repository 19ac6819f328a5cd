package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a query session's chat history
type Message struct {
	ID        uuid.UUID     `json:"id"`
	Role      Role          `json:"role"`
	Content   string        `json:"content"`
	Timestamp time.Time     `json:"timestamp"`
	Survey    *SurveyResult `json:"survey,omitempty"`
	IsError   bool          `json:"is_error,omitempty"`
}
