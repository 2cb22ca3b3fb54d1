package chat

import "context"

// Store persists the single destination chat id. Load returns
// ErrNotConfigured when nothing is stored; Clear on an empty store is a no-op.
type Store interface {
	Load(ctx context.Context) (ID, error)
	Save(ctx context.Context, id ID) error
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
