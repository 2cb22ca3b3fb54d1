package repo

import (
	"context"
	"strconv"

	"github.com/NordCoder/Tgrelay/internal/domain/alert"
	"github.com/NordCoder/Tgrelay/internal/domain/chat"
	"github.com/NordCoder/Tgrelay/internal/telegram"
)

var (
	_ alert.Sender        = Sender{}
	_ alert.UpdatesReader = Updates{}
)

type Sender struct {
	C         *telegram.Client
	ParseMode string
}

type Updates struct{ C *telegram.Client }

func (a Sender) Send(ctx context.Context, to chat.ID, text string) error {
	return a.C.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID: to.String(), Text: text, ParseMode: a.ParseMode,
	})
}

// DiscoverChatID picks the chat of the first pending update that carries a
// message. Updates are not acknowledged, so repeated calls see the same one.
func (a Updates) DiscoverChatID(ctx context.Context) (chat.ID, error) {
	ups, err := a.C.GetUpdates(ctx, telegram.GetUpdatesRequest{})
	if err != nil {
		return "", err
	}
	for _, u := range ups {
		if u.Message != nil {
			return chat.ID(strconv.FormatInt(u.Message.Chat.ID, 10)), nil
		}
	}
	return "", chat.ErrNotConfigured
}
