package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/NordCoder/Tgrelay/internal/domain/chat"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

const chatIDKey = "chat_id"

var _ chat.Store = (*ChatStore)(nil)

type Config struct {
	Path        string
	BusyTimeout time.Duration
}

// ChatStore keeps the chat id as one row of the relay_settings table.
type ChatStore struct {
	db  *sql.DB
	log *zap.Logger
}

func Open(ctx context.Context, cfg Config) (*ChatStore, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", busy.Milliseconds())); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: set busy_timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}

	return &ChatStore{
		db:  db,
		log: zap.L().With(zap.String("component", "store.sqlite")),
	}, nil
}

func (s *ChatStore) WithLogger(l *zap.Logger) *ChatStore {
	if l == nil {
		return s
	}
	cp := *s
	cp.log = l.With(zap.String("component", "store.sqlite"))
	return &cp
}

const (
	qSettingGet = `SELECT value FROM relay_settings WHERE key = ?`
	qSettingPut = `
INSERT INTO relay_settings (key, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	qSettingDel = `DELETE FROM relay_settings WHERE key = ?`
)

func (s *ChatStore) Load(ctx context.Context) (chat.ID, error) {
	var v string
	if err := s.db.QueryRowContext(ctx, qSettingGet, chatIDKey).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", chat.ErrNotConfigured
		}
		return "", fmt.Errorf("select chat id: %w", err)
	}
	return chat.Parse(v)
}

func (s *ChatStore) Save(ctx context.Context, id chat.ID) error {
	if id.IsZero() {
		return chat.ErrNotConfigured
	}
	if _, err := s.db.ExecContext(ctx, qSettingPut, chatIDKey, id.String()); err != nil {
		return fmt.Errorf("upsert chat id: %w", err)
	}
	s.log.Info("chat id saved", zap.String("chat_id", id.String()))
	return nil
}

func (s *ChatStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, qSettingDel, chatIDKey); err != nil {
		return fmt.Errorf("delete chat id: %w", err)
	}
	return nil
}

func (s *ChatStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *ChatStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
