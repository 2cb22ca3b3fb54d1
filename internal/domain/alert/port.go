package alert

import (
	"context"
	"time"

	"github.com/NordCoder/Tgrelay/internal/domain/chat"
)

type Sender interface {
	Send(ctx context.Context, to chat.ID, text string) error
}

// UpdatesReader discovers a chat id from messages users sent to the bot.
// It returns chat.ErrNotConfigured when no inbound message is available.
type UpdatesReader interface {
	DiscoverChatID(ctx context.Context) (chat.ID, error)
}

type Clock interface {
	Now() time.Time
}
