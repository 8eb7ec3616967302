package chat

import (
	"log/slog"

	"chat-gateway/internal/database"
	"chat-gateway/pkg/api"
)

// History rebuilds the persisted turns of a conversation as chat messages and
// links each question back to the conversation.
func History(conversation *database.Conversation) []api.ChatMessage {
	history := make([]api.ChatMessage, 0, len(conversation.Questions))
	for i := range conversation.Questions {
		q := &conversation.Questions[i]
		q.Conversation = conversation

		msg := api.ChatMessage{Index: q.Index, Question: q.Content}
		if q.Answer != nil {
			answer := q.Answer.Content
			msg.Answer = &answer
		}

		metadata, err := database.FromJSON(q.Metadata)
		if err != nil {
			slog.Warn("ignoring unreadable question metadata", "question_id", q.Id, "error", err)
		}
		msg.Metadata = metadata

		history = append(history, msg)
	}
	return history
}

// mergeHistory puts the persisted turns ahead of the inbound messages. Inbound
// messages repeating a persisted index are dropped, except the last one which
// is the question being asked.
func mergeHistory(history, inbound []api.ChatMessage) []api.ChatMessage {
	persisted := make(map[int]bool, len(history))
	for _, msg := range history {
		persisted[msg.Index] = true
	}

	merged := append([]api.ChatMessage{}, history...)
	for i, msg := range inbound {
		if i < len(inbound)-1 && persisted[msg.Index] {
			continue
		}
		merged = append(merged, msg)
	}
	return merged
}
