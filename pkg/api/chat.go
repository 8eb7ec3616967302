package api

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is a single turn as exchanged with clients and with the
// upstream assistant. Answer is nil for the turn being asked.
type ChatMessage struct {
	Index    int            `json:"index"`
	Question string         `json:"question"`
	Answer   *string        `json:"answer,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type ChatRequest struct {
	SessionId      *uuid.UUID    `json:"sessionId,omitempty"`
	ConversationId *uuid.UUID    `json:"conversationId,omitempty"`
	Messages       []ChatMessage `json:"messages"`
}

type ChatResponse struct {
	Choices        []Choice  `json:"choices"`
	Usage          Usage     `json:"usage"`
	SessionId      uuid.UUID `json:"sessionId"`
	ConversationId uuid.UUID `json:"conversationId"`
}

type HealthResponse struct {
	ModelAvailable bool      `json:"modelAvailable"`
	Healthy        bool      `json:"healthy"`
	Timestamp      time.Time `json:"timestamp"`
}

type ListParams struct {
	Limit  int `schema:"limit"`
	Offset int `schema:"offset"`
}
