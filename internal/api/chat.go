package api

import (
	"net/http"

	"chat-gateway/internal/chat"
	"chat-gateway/pkg/api"

	"github.com/go-chi/chi/v5"
)

type ChatService struct {
	chat   *chat.Service
	health *chat.HealthService
}

func NewChatService(service *chat.Service, health *chat.HealthService) *ChatService {
	return &ChatService{chat: service, health: health}
}

func (s *ChatService) AddRoutes(r chi.Router) {
	r.Post("/chat", RestHandler(s.Chat))
	r.Route("/health", func(r chi.Router) {
		r.Get("/", RestHandler(s.Health))
		r.Get("/model", RestHandler(s.ModelHealth))
	})
}

func (s *ChatService) Chat(r *http.Request) (any, error) {
	req, err := ParseRequest[api.ChatRequest](r)
	if err != nil {
		return nil, err
	}

	return FromResult(s.chat.Chat(r.Context(), req))
}

func (s *ChatService) Health(r *http.Request) (any, error) {
	return FromResult(s.health.Health(r.Context()))
}

// ModelHealth reports the upstream health body unchanged.
func (s *ChatService) ModelHealth(r *http.Request) (any, error) {
	health, err := s.health.ModelStatus(r.Context())
	if err != nil {
		return nil, err
	}
	return health, nil
}
