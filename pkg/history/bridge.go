// Package history converts between the checkpoint store's serializable
// conversation turns and the message structure providers expect. It is a
// pure format adapter; it holds no state.
package history

import (
	"github.com/carlev/thoughts-to-post-agent/pkg/logger"
	"github.com/carlev/thoughts-to-post-agent/pkg/models"
	"github.com/carlev/thoughts-to-post-agent/pkg/providers"
)

// ToProviderMessages maps stored turns to provider messages. An unrecognized
// role in persisted data is skipped with a warning, never fatal.
func ToProviderMessages(turns []models.ConversationTurn) []providers.Message {
	out := make([]providers.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case "human":
			out = append(out, providers.Message{Role: "user", Content: turn.Content})
		case "ai":
			out = append(out, providers.Message{Role: "assistant", Content: turn.Content})
		case "system":
			out = append(out, providers.Message{Role: "system", Content: turn.Content})
		default:
			logger.WarnCF("history", "Unknown role in persisted history, skipping turn", map[string]interface{}{
				"role": turn.Role,
			})
		}
	}
	return out
}

// FromProviderMessages maps provider messages back to serializable turns.
func FromProviderMessages(messages []providers.Message) []models.ConversationTurn {
	out := make([]models.ConversationTurn, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "user":
			out = append(out, models.ConversationTurn{Role: "human", Content: msg.Content})
		case "assistant":
			out = append(out, models.ConversationTurn{Role: "ai", Content: msg.Content})
		case "system":
			out = append(out, models.ConversationTurn{Role: "system", Content: msg.Content})
		default:
			logger.WarnCF("history", "Unknown provider message role, skipping", map[string]interface{}{
				"role": msg.Role,
			})
		}
	}
	return out
}
