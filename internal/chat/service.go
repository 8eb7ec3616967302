package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"chat-gateway/internal/database"
	"chat-gateway/internal/metrics"
	"chat-gateway/internal/proxy"
	"chat-gateway/internal/result"
	"chat-gateway/internal/utils"
	"chat-gateway/pkg/api"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const maxTitleLength = 64

type SessionRepository interface {
	Get(ctx context.Context, id uuid.UUID) result.Result[*database.Session]
	Save(ctx context.Context, session *database.Session) result.Result[bool]
}

type ConversationRepository interface {
	Get(ctx context.Context, id uuid.UUID) result.Result[*database.Conversation]
	Save(ctx context.Context, conversation *database.Conversation) result.Result[bool]
}

type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Options struct {
	ModelConfiguration     api.ModelConfiguration
	IncludeHistory         bool
	MaxLockedConversations int
}

// Service runs a chat turn end to end: validation, health gate, anchor
// resolution, the model call and persistence of the resulting question and
// answer.
type Service struct {
	health        *HealthService
	proxy         proxy.ModelProxy
	sessions      SessionRepository
	conversations ConversationRepository
	transactor    Transactor
	locks         *utils.MutexMap[uuid.UUID]
	opts          Options
}

func NewService(health *HealthService, proxy proxy.ModelProxy, sessions SessionRepository, conversations ConversationRepository, transactor Transactor, opts Options) *Service {
	if opts.MaxLockedConversations <= 0 {
		opts.MaxLockedConversations = 1024
	}
	return &Service{
		health:        health,
		proxy:         proxy,
		sessions:      sessions,
		conversations: conversations,
		transactor:    transactor,
		locks:         utils.NewMutexMap[uuid.UUID](opts.MaxLockedConversations),
		opts:          opts,
	}
}

// anchor is the conversation a turn is appended to. session is only set when
// the session is new and has to be saved along with the conversation. created
// marks a conversation that does not exist in the store yet.
type anchor struct {
	conversation *database.Conversation
	session      *database.Session
	created      bool
}

var errRollback = errors.New("save chain reported errors")

func (s *Service) Chat(ctx context.Context, req api.ChatRequest) result.Result[*api.ChatResponse] {
	if errs := ValidateRequest(req); len(errs) > 0 {
		metrics.ObserveTurn(metrics.OutcomeInvalid)
		return result.Err[*api.ChatResponse](errs...)
	}

	healthy, err := s.health.ModelHealth(ctx)
	if err != nil || !healthy {
		slog.Error("assistant is not available", "healthy", healthy, "error", err)
		metrics.ObserveTurn(metrics.OutcomeUnavailable)
		return result.Err[*api.ChatResponse](result.Wrap(result.Unavailable, err, "assistant is not available"))
	}

	// Turns on the same conversation are serialised so that each one sees
	// the questions saved by the previous one when computing its index.
	if present(req.ConversationId) {
		key := *req.ConversationId
		if err := s.locks.Lock(key); err != nil {
			slog.Error("unable to lock conversation", "conversation_id", key, "error", err)
			metrics.ObserveTurn(metrics.OutcomeUnavailable)
			return result.Err[*api.ChatResponse](result.Wrap(result.Unavailable, err, "too many conversations in progress"))
		}
		defer s.locks.Unlock(key) //nolint:errcheck
	}

	turn, errs := s.resolve(ctx, req)
	if len(errs) > 0 {
		metrics.ObserveTurn(metrics.OutcomePersistenceError)
		return result.Err[*api.ChatResponse](errs...)
	}
	conversation := turn.conversation

	messages := req.Messages
	if s.opts.IncludeHistory && len(conversation.Questions) > 0 {
		messages = mergeHistory(History(conversation), req.Messages)
	}

	start := time.Now()
	modelRes, err := s.proxy.Chat(ctx, api.ModelRequest{Messages: messages, ModelConfiguration: s.opts.ModelConfiguration})
	metrics.ObserveUpstream("chat", start, err)
	if err != nil {
		slog.Error("error calling assistant", "conversation_id", conversation.Id, "session_id", conversation.SessionId, "error", err)
		metrics.ObserveTurn(metrics.OutcomeUpstreamError)
		return result.Err[*api.ChatResponse](result.Wrap(result.Internal, err, "assistant request failed"))
	}

	if errs := ValidateModelResponse(modelRes); len(errs) > 0 {
		slog.Error("discarding turn with invalid model response", "conversation_id", conversation.Id)
		metrics.ObserveTurn(metrics.OutcomeBadModelResponse)
		return result.Err[*api.ChatResponse](errs...)
	}

	question, err := newQuestion(conversation, req.Messages[len(req.Messages)-1], modelRes)
	if err != nil {
		slog.Error("error mapping model response", "conversation_id", conversation.Id, "error", err)
		metrics.ObserveTurn(metrics.OutcomeBadModelResponse)
		return result.Err[*api.ChatResponse](result.Wrap(result.ModelResponse, err, "unable to map model response"))
	}
	conversation.Questions = append(conversation.Questions, *question)
	// Existing conversations are saved without their own columns, so the
	// title is only set on creation.
	if turn.created {
		conversation.Title = sql.NullString{String: title(question.Content), Valid: true}
	}

	if errs := s.persist(ctx, turn); len(errs) > 0 {
		slog.Error("error persisting turn", "question_id", question.Id, "conversation_id", conversation.Id, "session_id", conversation.SessionId, "errors", errs)
		metrics.ObserveTurn(metrics.OutcomePersistenceError)
		return result.Err[*api.ChatResponse](errs...)
	}

	metrics.ObserveTurn(metrics.OutcomeSuccess)
	slog.Info("chat turn completed", "question_id", question.Id, "index", question.Index, "conversation_id", conversation.Id, "session_id", conversation.SessionId)

	return result.Ok(&api.ChatResponse{
		Choices:        modelRes.Choices,
		Usage:          modelRes.Usage,
		SessionId:      conversation.SessionId,
		ConversationId: conversation.Id,
	})
}

func (s *Service) resolve(ctx context.Context, req api.ChatRequest) (*anchor, []result.ErrorDetail) {
	if present(req.ConversationId) {
		res := s.conversations.Get(ctx, *req.ConversationId)
		if res.HasErrors() {
			slog.Error("error loading conversation", "conversation_id", *req.ConversationId, "errors", res.Errors())
			return nil, []result.ErrorDetail{result.Wrap(result.Internal, res.Errors()[0], "unable to load conversation %v", *req.ConversationId)}
		}
		if conversation := res.Value(); conversation != nil {
			if present(req.SessionId) && *req.SessionId != conversation.SessionId {
				slog.Warn("conversation belongs to a different session, using its owner",
					"conversation_id", conversation.Id, "requested_session_id", *req.SessionId, "session_id", conversation.SessionId)
			}
			return &anchor{conversation: conversation}, nil
		}
		slog.Warn("conversation not found, starting a new one", "conversation_id", *req.ConversationId)
	}

	now := time.Now().UTC()
	conversation := &database.Conversation{Id: uuid.New(), CreationTime: now}

	if present(req.SessionId) {
		res := s.sessions.Get(ctx, *req.SessionId)
		if res.HasErrors() {
			slog.Error("error loading session", "session_id", *req.SessionId, "errors", res.Errors())
			return nil, []result.ErrorDetail{result.Wrap(result.Internal, res.Errors()[0], "unable to load session %v", *req.SessionId)}
		}
		if session := res.Value(); session != nil {
			conversation.SessionId = session.Id
			conversation.Session = session
			return &anchor{conversation: conversation, created: true}, nil
		}
		slog.Warn("session not found, starting a new one", "session_id", *req.SessionId)
	}

	session := &database.Session{Id: uuid.New(), CreationTime: now}
	conversation.SessionId = session.Id
	conversation.Session = session
	return &anchor{conversation: conversation, session: session, created: true}, nil
}

// persist saves the turn in one transaction, starting from the session when
// it is new and from the conversation otherwise.
func (s *Service) persist(ctx context.Context, turn *anchor) []result.ErrorDetail {
	var errs []result.ErrorDetail

	err := s.transactor.InTransaction(ctx, func(ctx context.Context) error {
		var res result.Result[bool]
		if turn.session != nil {
			turn.session.Conversations = []database.Conversation{*turn.conversation}
			res = s.sessions.Save(ctx, turn.session)
		} else {
			res = s.conversations.Save(ctx, turn.conversation)
		}

		if res.HasErrors() {
			errs = res.Errors()
			return errRollback
		}
		return nil
	})

	if len(errs) > 0 {
		return errs
	}
	if err != nil {
		return []result.ErrorDetail{result.Wrap(result.Persistence, err, "failed to commit turn for conversation %v", turn.conversation.Id)}
	}
	return nil
}

func newQuestion(conversation *database.Conversation, msg api.ChatMessage, res *api.ModelResponse) (*database.Question, error) {
	now := time.Now().UTC()

	metadata, err := database.ToJSON(msg.Metadata)
	if err != nil {
		return nil, err
	}

	question := &database.Question{
		Id:             uuid.New(),
		ConversationId: conversation.Id,
		Conversation:   conversation,
		Index:          len(conversation.Questions) + 1,
		Content:        msg.Question,
		TokenCount:     res.Usage.PromptTokens,
		Metadata:       metadata,
		CreationTime:   now,
	}

	answerMetadata, err := database.ToJSON(res.Metadata)
	if err != nil {
		return nil, err
	}

	var sources datatypes.JSON
	if raw, ok := res.Metadata["sources"]; ok && raw != nil {
		b, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		sources = datatypes.JSON(b)
	}

	question.Answer = &database.Answer{
		Id:           uuid.New(),
		QuestionId:   question.Id,
		Content:      res.Choices[0].Message.Content,
		TokenCount:   res.Usage.CompletionTokens,
		Metadata:     answerMetadata,
		Sources:      sources,
		CreationTime: now,
	}

	return question, nil
}

func title(question string) string {
	if utf8.RuneCountInString(question) <= maxTitleLength {
		return question
	}
	return string([]rune(question)[:maxTitleLength])
}
