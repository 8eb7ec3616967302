package api

import (
	"context"
	"fmt"
	"net/http"

	"chat-gateway/internal/chat"
	"chat-gateway/internal/database"
	"chat-gateway/internal/repository"
	"chat-gateway/internal/result"
	"chat-gateway/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// EntityService exposes the save chain directly. Creates go through the same
// cascade as chat turns, so posting a session also stores its conversations,
// questions and answers.
type EntityService struct {
	services   *repository.Services
	transactor chat.Transactor
}

func NewEntityService(services *repository.Services, transactor chat.Transactor) *EntityService {
	return &EntityService{services: services, transactor: transactor}
}

func (s *EntityService) AddRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListSessions))
		r.Post("/", RestHandler(s.CreateSession))
		r.Get("/{session_id}", RestHandler(s.GetSession))
		r.Delete("/{session_id}", RestHandler(s.DeleteSession))
	})
	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", RestHandler(s.CreateConversation))
		r.Post("/batch", RestHandler(s.CreateConversations))
		r.Get("/{conversation_id}", RestHandler(s.GetConversation))
		r.Delete("/{conversation_id}", RestHandler(s.DeleteConversation))
	})
	r.Route("/questions", func(r chi.Router) {
		r.Post("/", RestHandler(s.CreateQuestion))
		r.Get("/{question_id}", RestHandler(s.GetQuestion))
		r.Delete("/{question_id}", RestHandler(s.DeleteQuestion))
	})
	r.Route("/answers", func(r chi.Router) {
		r.Post("/", RestHandler(s.CreateAnswer))
		r.Get("/{answer_id}", RestHandler(s.GetAnswer))
		r.Delete("/{answer_id}", RestHandler(s.DeleteAnswer))
	})
}

func getEntity[T any, U any](r *http.Request, param, name string, get func(context.Context, uuid.UUID) result.Result[*T], convert func(T) U) (any, error) {
	id, err := URLParamUUID(r, param)
	if err != nil {
		return nil, err
	}

	res := get(r.Context(), id)
	if res.HasErrors() {
		return FromResult(res)
	}
	if res.Value() == nil {
		return nil, fmt.Errorf("%s %v %w", name, id, ErrNotFound)
	}
	return convert(*res.Value()), nil
}

func deleteEntity(r *http.Request, param string, del func(context.Context, uuid.UUID) result.Result[bool]) (any, error) {
	id, err := URLParamUUID(r, param)
	if err != nil {
		return nil, err
	}

	if _, err := FromResult(del(r.Context(), id)); err != nil {
		return nil, err
	}
	return nil, nil
}

// save runs a save chain in a transaction which is rolled back if the chain
// reports any error.
func (s *EntityService) save(ctx context.Context, fn func(ctx context.Context) result.Result[bool]) error {
	var failed error
	err := s.transactor.InTransaction(ctx, func(ctx context.Context) error {
		_, failed = FromResult(fn(ctx))
		return failed
	})
	if failed != nil {
		return failed
	}
	if err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

func requireId(id uuid.UUID, field string) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: %s is required", ErrInvalidArgument, field)
	}
	return nil
}

func (s *EntityService) ListSessions(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.ListParams](r)
	if err != nil {
		return nil, err
	}
	if params.Limit < 0 || params.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", ErrInvalidArgument)
	}

	res := s.services.Sessions.List(r.Context(), params.Limit, params.Offset)
	if res.HasErrors() {
		return FromResult(res)
	}
	return convertSessions(res.Value()), nil
}

func (s *EntityService) GetSession(r *http.Request) (any, error) {
	return getEntity(r, "session_id", "session", s.services.Sessions.Get, convertSession)
}

func (s *EntityService) DeleteSession(r *http.Request) (any, error) {
	return deleteEntity(r, "session_id", s.services.Sessions.Delete)
}

func (s *EntityService) CreateSession(r *http.Request) (any, error) {
	req, err := ParseRequest[api.Session](r)
	if err != nil {
		return nil, err
	}

	session, err := toSession(req)
	if err != nil {
		return nil, err
	}

	if err := s.save(r.Context(), func(ctx context.Context) result.Result[bool] {
		return s.services.Sessions.Save(ctx, &session)
	}); err != nil {
		return nil, err
	}

	return convertSession(session), nil
}

func (s *EntityService) GetConversation(r *http.Request) (any, error) {
	return getEntity(r, "conversation_id", "conversation", s.services.Conversations.Get, convertConversation)
}

func (s *EntityService) DeleteConversation(r *http.Request) (any, error) {
	return deleteEntity(r, "conversation_id", s.services.Conversations.Delete)
}

func (s *EntityService) CreateConversation(r *http.Request) (any, error) {
	req, err := ParseRequest[api.Conversation](r)
	if err != nil {
		return nil, err
	}
	if err := requireId(req.SessionId, "sessionId"); err != nil {
		return nil, err
	}

	conversation, err := toConversation(req)
	if err != nil {
		return nil, err
	}

	if err := s.save(r.Context(), func(ctx context.Context) result.Result[bool] {
		return s.services.Conversations.Save(ctx, &conversation)
	}); err != nil {
		return nil, err
	}

	return convertConversation(conversation), nil
}

func (s *EntityService) CreateConversations(r *http.Request) (any, error) {
	req, err := ParseRequest[[]api.Conversation](r)
	if err != nil {
		return nil, err
	}

	conversations := make([]*database.Conversation, 0, len(req))
	for i, c := range req {
		if err := requireId(c.SessionId, fmt.Sprintf("conversations[%d].sessionId", i)); err != nil {
			return nil, err
		}
		conversation, err := toConversation(c)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, &conversation)
	}

	if err := s.save(r.Context(), func(ctx context.Context) result.Result[bool] {
		return s.services.Conversations.SaveMultiple(ctx, conversations)
	}); err != nil {
		return nil, err
	}

	out := make([]api.Conversation, 0, len(conversations))
	for _, c := range conversations {
		out = append(out, convertConversation(*c))
	}
	return out, nil
}

func (s *EntityService) GetQuestion(r *http.Request) (any, error) {
	return getEntity(r, "question_id", "question", s.services.Questions.Get, convertQuestion)
}

// DeleteQuestion only removes the last question of a conversation, as chat
// turns number the next question after the ones already stored.
func (s *EntityService) DeleteQuestion(r *http.Request) (any, error) {
	id, err := URLParamUUID(r, "question_id")
	if err != nil {
		return nil, err
	}

	err = s.transactor.InTransaction(r.Context(), func(ctx context.Context) error {
		res := s.services.Questions.Get(ctx, id)
		if res.HasErrors() {
			_, err := FromResult(res)
			return err
		}
		question := res.Value()
		if question == nil {
			return fmt.Errorf("question %v %w", id, ErrNotFound)
		}

		conversation, err := s.conversation(ctx, question.ConversationId)
		if err != nil {
			return err
		}
		if question.Index != len(conversation.Questions) {
			return fmt.Errorf("%w: only the last question of conversation %v can be deleted", ErrInvalidOperation, conversation.Id)
		}

		_, err = FromResult(s.services.Questions.Delete(ctx, id))
		return err
	})
	return nil, err
}

func (s *EntityService) conversation(ctx context.Context, id uuid.UUID) (*database.Conversation, error) {
	res := s.services.Conversations.Get(ctx, id)
	if res.HasErrors() {
		_, err := FromResult(res)
		return nil, err
	}
	if res.Value() == nil {
		return nil, fmt.Errorf("%w: conversation %v does not exist", ErrInvalidArgument, id)
	}
	return res.Value(), nil
}

func (s *EntityService) CreateQuestion(r *http.Request) (any, error) {
	req, err := ParseRequest[api.Question](r)
	if err != nil {
		return nil, err
	}
	if err := requireId(req.ConversationId, "conversationId"); err != nil {
		return nil, err
	}
	if req.Index < 0 {
		return nil, fmt.Errorf("%w: index must not be negative", ErrInvalidArgument)
	}

	question, err := toQuestion(req)
	if err != nil {
		return nil, err
	}

	// A question is appended after the stored ones. Without an index it gets
	// the next one.
	var failed error
	err = s.transactor.InTransaction(r.Context(), func(ctx context.Context) error {
		conversation, err := s.conversation(ctx, question.ConversationId)
		if err != nil {
			failed = err
			return err
		}
		next := len(conversation.Questions) + 1
		if question.Index == 0 {
			question.Index = next
		} else if question.Index != next {
			failed = fmt.Errorf("%w: next question of conversation %v must have index %d", ErrInvalidOperation, conversation.Id, next)
			return failed
		}

		_, failed = FromResult(s.services.Questions.Save(ctx, &question))
		return failed
	})
	if failed != nil {
		return nil, failed
	}
	if err != nil {
		return nil, fmt.Errorf("error committing transaction: %w", err)
	}

	return convertQuestion(question), nil
}

func (s *EntityService) GetAnswer(r *http.Request) (any, error) {
	return getEntity(r, "answer_id", "answer", s.services.Answers.Get, convertAnswer)
}

func (s *EntityService) DeleteAnswer(r *http.Request) (any, error) {
	return deleteEntity(r, "answer_id", s.services.Answers.Delete)
}

func (s *EntityService) CreateAnswer(r *http.Request) (any, error) {
	req, err := ParseRequest[api.Answer](r)
	if err != nil {
		return nil, err
	}
	if err := requireId(req.QuestionId, "questionId"); err != nil {
		return nil, err
	}

	answer, err := toAnswer(req)
	if err != nil {
		return nil, err
	}

	if err := s.save(r.Context(), func(ctx context.Context) result.Result[bool] {
		return s.services.Answers.Save(ctx, &answer)
	}); err != nil {
		return nil, err
	}

	return convertAnswer(answer), nil
}
