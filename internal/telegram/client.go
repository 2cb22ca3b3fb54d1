// Package telegram is a small Bot API client covering what the relay needs:
// sendMessage and getUpdates.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.telegram.org"
	DefaultTimeout = 10 * time.Second

	redacted = "<redacted>"
)

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type Client struct {
	rc    *resty.Client
	token string
	log   *zap.Logger
}

func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log := zap.L().With(zap.String("component", "telegram.client"))

	c := &Client{token: cfg.Token, log: log}
	c.rc = resty.NewWithClient(newHTTPClient(timeout)).
		SetBaseURL(base).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{c: c})
	return c
}

func (c *Client) WithLogger(l *zap.Logger) *Client {
	if l == nil {
		return c
	}
	cp := *c
	cp.log = l.With(zap.String("component", "telegram.client"))
	cp.rc.SetLogger(restyLogger{c: &cp})
	return &cp
}

// SendMessage succeeds only when the Bot API answers HTTP 200.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) error {
	_, err := call[json.RawMessage](ctx, c, "sendMessage", req)
	return err
}

func (c *Client) GetUpdates(ctx context.Context, req GetUpdatesRequest) ([]Update, error) {
	return call[[]Update](ctx, c, "getUpdates", req)
}

func call[T any](ctx context.Context, c *Client, method string, payload any) (T, error) {
	var zero T
	start := time.Now()

	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/bot" + c.token + "/" + method)
	if err != nil {
		c.log.Warn("telegram request failed",
			zap.String("method", method),
			zap.String("error", c.scrub(err.Error())),
		)
		return zero, &TransportError{Method: method, msg: c.scrub(err.Error()), err: err}
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		apiErr := &APIError{Method: method, Status: resp.StatusCode(), Description: http.StatusText(resp.StatusCode())}
		var env APIResponse[json.RawMessage]
		if json.Unmarshal(body, &env) == nil {
			apiErr.Code = env.ErrorCode
			if env.Description != "" {
				apiErr.Description = env.Description
			}
			if env.Parameters != nil {
				apiErr.RetryAfter = env.Parameters.RetryAfter
			}
		}
		c.log.Warn("telegram api error",
			zap.String("method", method),
			zap.Int("status", apiErr.Status),
			zap.Int("error_code", apiErr.Code),
			zap.String("description", apiErr.Description),
			zap.String("kind", apiErr.Kind()),
		)
		return zero, apiErr
	}

	var env APIResponse[T]
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			return zero, fmt.Errorf("telegram: decode %s response: %w", method, err)
		}
	}
	c.log.Debug("telegram request ok",
		zap.String("method", method),
		zap.Duration("elapsed", time.Since(start)),
	)
	return env.Result, nil
}

func (c *Client) scrub(s string) string {
	if c.token == "" {
		return s
	}
	return strings.ReplaceAll(s, c.token, redacted)
}

// TransportError is a failure before any Bot API reply arrived. Its message
// never contains the bot token.
type TransportError struct {
	Method string
	msg    string
	err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("telegram: %s request failed: %s", e.Method, e.msg)
}

func (e *TransportError) Unwrap() error { return e.err }

// Timeout reports whether the request hit its deadline.
func (e *TransportError) Timeout() bool {
	return errors.Is(e.err, context.DeadlineExceeded)
}

// restyLogger routes resty's own messages to zap with the token removed.
type restyLogger struct{ c *Client }

func (l restyLogger) Errorf(format string, v ...any) {
	l.c.log.Error(l.c.scrub(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.c.log.Warn(l.c.scrub(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.c.log.Debug(l.c.scrub(fmt.Sprintf(format, v...)))
}

func methodFromPath(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}
