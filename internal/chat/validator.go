package chat

import (
	"log/slog"
	"strings"

	"chat-gateway/internal/result"
	"chat-gateway/pkg/api"

	"github.com/google/uuid"
)

// ValidateRequest checks the shape of an inbound chat request. It reports
// every violation it finds rather than stopping at the first one.
func ValidateRequest(req api.ChatRequest) []result.ErrorDetail {
	var errs []result.ErrorDetail

	if !present(req.SessionId) && !present(req.ConversationId) {
		slog.Warn("invalid chat request", "field", "sessionId,conversationId", "reason", "neither is set")
		errs = append(errs, result.NewError(result.Validation, "a session or conversation id is required"))
	}

	if len(req.Messages) == 0 {
		slog.Warn("invalid chat request", "field", "messages", "reason", "empty")
		errs = append(errs, result.NewError(result.Validation, "at least one message is required"))
	}

	for i, msg := range req.Messages {
		if strings.TrimSpace(msg.Question) == "" {
			slog.Warn("invalid chat request", "field", "messages.question", "position", i, "reason", "empty")
			errs = append(errs, result.NewError(result.Validation, "message %d has an empty question", i+1))
		}
	}

	return errs
}

func ValidateModelResponse(res *api.ModelResponse) []result.ErrorDetail {
	if res == nil {
		slog.Warn("invalid model response", "field", "response", "reason", "missing")
		return []result.ErrorDetail{result.NewError(result.ModelResponse, "model response is missing")}
	}
	if len(res.Choices) == 0 {
		slog.Warn("invalid model response", "field", "choices", "reason", "empty")
		return []result.ErrorDetail{result.NewError(result.ModelResponse, "model response has no choices")}
	}
	return nil
}

func present(id *uuid.UUID) bool {
	return id != nil && *id != uuid.Nil
}
