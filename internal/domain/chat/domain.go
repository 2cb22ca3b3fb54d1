package chat

import (
	"errors"
	"strings"
)

// ID is an opaque Telegram chat identifier: a numeric id ("-100123...") or a
// channel username ("@name").
type ID string

var ErrNotConfigured = errors.New("chat id not configured")

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

// Parse trims s and returns ErrNotConfigured for blank input.
func Parse(s string) (ID, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", ErrNotConfigured
	}
	return ID(t), nil
}
