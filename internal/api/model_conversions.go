package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"chat-gateway/internal/database"
	"chat-gateway/pkg/api"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

func metadataOf(raw datatypes.JSON) map[string]any {
	// Stored documents were validated on the way in.
	metadata, _ := database.FromJSON(raw)
	return metadata
}

func convertAnswer(a database.Answer) api.Answer {
	answer := api.Answer{
		Id:           a.Id,
		QuestionId:   a.QuestionId,
		Content:      a.Content,
		TokenCount:   a.TokenCount,
		Metadata:     metadataOf(a.Metadata),
		CreationTime: a.CreationTime,
	}
	if len(a.Sources) > 0 {
		var sources any
		if err := json.Unmarshal(a.Sources, &sources); err == nil {
			answer.Sources = sources
		}
	}
	return answer
}

func convertQuestion(q database.Question) api.Question {
	question := api.Question{
		Id:             q.Id,
		ConversationId: q.ConversationId,
		Index:          q.Index,
		Content:        q.Content,
		TokenCount:     q.TokenCount,
		Metadata:       metadataOf(q.Metadata),
		CreationTime:   q.CreationTime,
	}
	if q.Answer != nil {
		answer := convertAnswer(*q.Answer)
		question.Answer = &answer
	}
	return question
}

func convertConversation(c database.Conversation) api.Conversation {
	questions := make([]api.Question, 0, len(c.Questions))
	for _, q := range c.Questions {
		questions = append(questions, convertQuestion(q))
	}
	return api.Conversation{
		Id:           c.Id,
		SessionId:    c.SessionId,
		Title:        c.Title.String,
		CreationTime: c.CreationTime,
		Questions:    questions,
	}
}

func convertConversations(cs []database.Conversation) []api.Conversation {
	conversations := make([]api.Conversation, 0, len(cs))
	for _, c := range cs {
		conversations = append(conversations, convertConversation(c))
	}
	return conversations
}

func convertSession(s database.Session) api.Session {
	return api.Session{
		Id:            s.Id,
		CreationTime:  s.CreationTime,
		Conversations: convertConversations(s.Conversations),
	}
}

func convertSessions(ss []database.Session) []api.Session {
	sessions := make([]api.Session, 0, len(ss))
	for _, s := range ss {
		sessions = append(sessions, convertSession(s))
	}
	return sessions
}

// The to* functions build new entities from client payloads, assigning ids
// and creation times the client left out.

func newId(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

func newTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func toAnswer(a api.Answer) (database.Answer, error) {
	metadata, err := database.ToJSON(a.Metadata)
	if err != nil {
		return database.Answer{}, CodedError(http.StatusBadRequest, err)
	}

	answer := database.Answer{
		Id:           newId(a.Id),
		QuestionId:   a.QuestionId,
		Content:      a.Content,
		TokenCount:   a.TokenCount,
		Metadata:     metadata,
		CreationTime: newTime(a.CreationTime),
	}
	if a.Sources != nil {
		sources, err := json.Marshal(a.Sources)
		if err != nil {
			return database.Answer{}, CodedErrorf(http.StatusBadRequest, "invalid answer sources: %v", err)
		}
		answer.Sources = datatypes.JSON(sources)
	}
	return answer, nil
}

func toQuestion(q api.Question) (database.Question, error) {
	metadata, err := database.ToJSON(q.Metadata)
	if err != nil {
		return database.Question{}, CodedError(http.StatusBadRequest, err)
	}

	question := database.Question{
		Id:             newId(q.Id),
		ConversationId: q.ConversationId,
		Index:          q.Index,
		Content:        q.Content,
		TokenCount:     q.TokenCount,
		Metadata:       metadata,
		CreationTime:   newTime(q.CreationTime),
	}
	if q.Answer != nil {
		answer, err := toAnswer(*q.Answer)
		if err != nil {
			return database.Question{}, err
		}
		answer.QuestionId = question.Id
		question.Answer = &answer
	}
	return question, nil
}

func toConversation(c api.Conversation) (database.Conversation, error) {
	conversation := database.Conversation{
		Id:           newId(c.Id),
		SessionId:    c.SessionId,
		CreationTime: newTime(c.CreationTime),
	}
	if c.Title != "" {
		conversation.Title = sql.NullString{String: c.Title, Valid: true}
	}

	for i, q := range c.Questions {
		question, err := toQuestion(q)
		if err != nil {
			return database.Conversation{}, err
		}
		question.ConversationId = conversation.Id
		switch question.Index {
		case 0:
			question.Index = i + 1
		case i + 1:
		default:
			return database.Conversation{}, fmt.Errorf("%w: question %d of conversation has index %d", ErrInvalidArgument, i+1, question.Index)
		}
		conversation.Questions = append(conversation.Questions, question)
	}
	return conversation, nil
}

func toSession(s api.Session) (database.Session, error) {
	session := database.Session{
		Id:           newId(s.Id),
		CreationTime: newTime(s.CreationTime),
	}
	for _, c := range s.Conversations {
		conversation, err := toConversation(c)
		if err != nil {
			return database.Session{}, fmt.Errorf("invalid conversation: %w", err)
		}
		conversation.SessionId = session.Id
		session.Conversations = append(session.Conversations, conversation)
	}
	return session, nil
}
