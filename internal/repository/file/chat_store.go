package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/NordCoder/Tgrelay/internal/domain/chat"
	"go.uber.org/zap"
)

var _ chat.Store = (*ChatStore)(nil)

// ChatStore keeps the chat id as the whole content of a single text file.
type ChatStore struct {
	path string
	log  *zap.Logger
}

func NewChatStore(path string) (*ChatStore, error) {
	if path == "" {
		return nil, errors.New("file store: path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("file store: create directory %s: %w", dir, err)
		}
	}
	return &ChatStore{
		path: path,
		log:  zap.L().With(zap.String("component", "store.file")),
	}, nil
}

func (s *ChatStore) WithLogger(l *zap.Logger) *ChatStore {
	if l == nil {
		return s
	}
	cp := *s
	cp.log = l.With(zap.String("component", "store.file"), zap.String("path", s.path))
	return &cp
}

func (s *ChatStore) Path() string { return s.path }

func (s *ChatStore) Load(_ context.Context) (chat.ID, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", chat.ErrNotConfigured
		}
		return "", fmt.Errorf("read chat id: %w", err)
	}
	id, err := chat.Parse(string(b))
	if err != nil {
		return "", err
	}
	s.log.Debug("chat id loaded", zap.String("chat_id", id.String()))
	return id, nil
}

func (s *ChatStore) Save(_ context.Context, id chat.ID) error {
	if id.IsZero() {
		return chat.ErrNotConfigured
	}
	if err := os.WriteFile(s.path, []byte(id.String()), 0o600); err != nil {
		return fmt.Errorf("write chat id: %w", err)
	}
	s.log.Info("chat id saved", zap.String("chat_id", id.String()))
	return nil
}

func (s *ChatStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove chat id: %w", err)
	}
	return nil
}

// Ping checks that the directory holding the file is reachable.
func (s *ChatStore) Ping(_ context.Context) error {
	_, err := os.Stat(filepath.Dir(s.path))
	return err
}

func (s *ChatStore) Close() error { return nil }
