package repository

import (
	"context"

	"chat-gateway/internal/database"
	"chat-gateway/internal/result"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AnswerService struct {
	*entityService[database.Answer]
}

func NewAnswerService(store Store[database.Answer]) *AnswerService {
	return &AnswerService{&entityService[database.Answer]{
		name:  "Answer",
		store: store,
		id:    func(a *database.Answer) uuid.UUID { return a.Id },
	}}
}

type QuestionService struct {
	*entityService[database.Question]
}

func NewQuestionService(store Store[database.Question], answers *AnswerService) *QuestionService {
	return &QuestionService{&entityService[database.Question]{
		name:      "Question",
		store:     store,
		id:        func(q *database.Question) uuid.UUID { return q.Id },
		childName: "Answer",
		children: func(ctx context.Context, questions []*database.Question) result.Result[bool] {
			var all []*database.Answer
			for _, q := range questions {
				if q.Answer == nil {
					continue
				}
				if q.Answer.QuestionId == uuid.Nil {
					q.Answer.QuestionId = q.Id
				}
				all = append(all, q.Answer)
			}
			return answers.SaveMultiple(ctx, all)
		},
	}}
}

type ConversationService struct {
	*entityService[database.Conversation]
}

func NewConversationService(store Store[database.Conversation], questions *QuestionService) *ConversationService {
	return &ConversationService{&entityService[database.Conversation]{
		name:      "Conversation",
		store:     store,
		id:        func(c *database.Conversation) uuid.UUID { return c.Id },
		childName: "Question",
		children: func(ctx context.Context, conversations []*database.Conversation) result.Result[bool] {
			var all []*database.Question
			for _, c := range conversations {
				for i := range c.Questions {
					if c.Questions[i].ConversationId == uuid.Nil {
						c.Questions[i].ConversationId = c.Id
					}
					all = append(all, &c.Questions[i])
				}
			}
			return questions.SaveMultiple(ctx, all)
		},
	}}
}

type SessionService struct {
	*entityService[database.Session]
}

func NewSessionService(store Store[database.Session], conversations *ConversationService) *SessionService {
	return &SessionService{&entityService[database.Session]{
		name:      "Session",
		store:     store,
		id:        func(s *database.Session) uuid.UUID { return s.Id },
		childName: "Conversation",
		children: func(ctx context.Context, sessions []*database.Session) result.Result[bool] {
			var all []*database.Conversation
			for _, s := range sessions {
				for i := range s.Conversations {
					if s.Conversations[i].SessionId == uuid.Nil {
						s.Conversations[i].SessionId = s.Id
					}
					all = append(all, &s.Conversations[i])
				}
			}
			return conversations.SaveMultiple(ctx, all)
		},
	}}
}

// Services is the full save chain wired over gorm stores.
type Services struct {
	Sessions      *SessionService
	Conversations *ConversationService
	Questions     *QuestionService
	Answers       *AnswerService
}

func NewServices(
	sessions Store[database.Session],
	conversations Store[database.Conversation],
	questions Store[database.Question],
	answers Store[database.Answer],
) *Services {
	answerService := NewAnswerService(answers)
	questionService := NewQuestionService(questions, answerService)
	conversationService := NewConversationService(conversations, questionService)
	sessionService := NewSessionService(sessions, conversationService)

	return &Services{
		Sessions:      sessionService,
		Conversations: conversationService,
		Questions:     questionService,
		Answers:       answerService,
	}
}

func NewGormServices(db *gorm.DB) *Services {
	return NewServices(
		database.NewGormStore[database.Session](db, database.PreloadConversations),
		database.NewGormStore[database.Conversation](db, database.PreloadQuestions),
		database.NewGormStore[database.Question](db, database.PreloadAnswer),
		database.NewGormStore[database.Answer](db),
	)
}
