package providers

import (
	"log/slog"

	"github.com/codeforge-ai/codeforge/internal/router"
)

// SplitSystem separates the first system message from the conversation.
// Later system messages are dropped.
func SplitSystem(msgs []router.Message, logger *slog.Logger) (system string, rest []router.Message) {
	found := false
	dropped := 0
	rest = make([]router.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role != router.RoleSystem {
			rest = append(rest, m)
			continue
		}
		if found {
			dropped++
			continue
		}
		system, found = m.Content, true
	}
	if dropped > 0 && logger != nil {
		logger.Debug("dropped extra system messages", slog.Int("count", dropped))
	}
	return system, rest
}
