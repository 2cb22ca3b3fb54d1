package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/Tgrelay/internal/domain/chat"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var _ chat.Store = (*ChatStore)(nil)

const chatIDKey = "chat_id"

// ChatStore keeps the chat id in relay_settings; the table is created by
// cmd/migrator.
type ChatStore struct {
	db  *DB
	log *zap.Logger
}

func NewChatStore(db *DB) *ChatStore {
	return &ChatStore{
		db:  db,
		log: zap.L().With(zap.String("component", "store.postgres")),
	}
}

func (r *ChatStore) WithLogger(l *zap.Logger) *ChatStore {
	if l == nil {
		return r
	}
	cp := *r
	cp.log = l.With(zap.String("component", "store.postgres"))
	return &cp
}

const (
	qSettingGet = `
SELECT value
FROM relay_settings
WHERE key = $1;`

	qSettingPut = `
INSERT INTO relay_settings (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE
SET value      = EXCLUDED.value,
    updated_at = EXCLUDED.updated_at;`

	qSettingDel = `
DELETE FROM relay_settings
WHERE key = $1;`
)

func (r *ChatStore) Load(ctx context.Context) (chat.ID, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var v string
	if err := r.db.Pool.QueryRow(ctx, qSettingGet, chatIDKey).Scan(&v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", chat.ErrNotConfigured
		}
		return "", fmt.Errorf("select chat id: %w", err)
	}
	return chat.Parse(v)
}

func (r *ChatStore) Save(ctx context.Context, id chat.ID) error {
	if id.IsZero() {
		return chat.ErrNotConfigured
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, qSettingPut, chatIDKey, id.String()); err != nil {
		return fmt.Errorf("upsert chat id: %w", err)
	}
	r.log.Info("chat id saved", zap.String("chat_id", id.String()))
	return nil
}

func (r *ChatStore) Clear(ctx context.Context) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, qSettingDel, chatIDKey); err != nil {
		return fmt.Errorf("delete chat id: %w", err)
	}
	return nil
}

func (r *ChatStore) Ping(ctx context.Context) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	return r.db.Pool.Ping(ctx)
}

func (r *ChatStore) Close() error {
	r.db.Close()
	return nil
}
