package api

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	Id            uuid.UUID      `json:"id"`
	CreationTime  time.Time      `json:"creationTime"`
	Conversations []Conversation `json:"conversations,omitempty"`
}

type Conversation struct {
	Id           uuid.UUID  `json:"id"`
	SessionId    uuid.UUID  `json:"sessionId"`
	Title        string     `json:"title,omitempty"`
	CreationTime time.Time  `json:"creationTime"`
	Questions    []Question `json:"questions,omitempty"`
}

type Question struct {
	Id             uuid.UUID      `json:"id"`
	ConversationId uuid.UUID      `json:"conversationId"`
	Index          int            `json:"index"`
	Content        string         `json:"content"`
	TokenCount     int            `json:"tokenCount"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreationTime   time.Time      `json:"creationTime"`
	Answer         *Answer        `json:"answer,omitempty"`
}

type Answer struct {
	Id           uuid.UUID      `json:"id"`
	QuestionId   uuid.UUID      `json:"questionId"`
	Content      string         `json:"content"`
	TokenCount   int            `json:"tokenCount"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Sources      any            `json:"sources,omitempty"`
	CreationTime time.Time      `json:"creationTime"`
}
