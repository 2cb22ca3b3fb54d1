package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/NordCoder/Tgrelay/internal/domain/alert"
	"github.com/NordCoder/Tgrelay/internal/domain/chat"
	"github.com/NordCoder/Tgrelay/internal/obs"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type healthResponse struct {
	Status           string    `json:"status"`
	Timestamp        time.Time `json:"timestamp"`
	ChatIDConfigured bool      `json:"chat_id_configured"`
}

type configResponse struct {
	BotToken   string  `json:"bot_token"`
	ChatID     *string `json:"chat_id"`
	Configured bool    `json:"configured"`
}

type result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type configRequest struct {
	ChatID chatIDField `json:"chat_id"`
}

type forwardRequest struct {
	Message string `json:"message"`
}

// chatIDField accepts a chat id sent either as a JSON string or a number.
type chatIDField string

func (f *chatIDField) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = chatIDField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("chat_id must be a string or a number")
	}
	*f = chatIDField(n.String())
	return nil
}

type Controller struct {
	log *zap.Logger
	uc  *Relay
}

func NewController(log *zap.Logger, uc *Relay) *Controller {
	if log == nil {
		log = zap.L()
	}
	return &Controller{log: log.With(zap.String("component", "relay.http")), uc: uc}
}

func (c *Controller) Health(w http.ResponseWriter, r *http.Request) {
	h := c.uc.Health(r.Context())
	writeJSON(w, http.StatusOK, healthResponse{
		Status:           h.Status,
		Timestamp:        h.Timestamp,
		ChatIDConfigured: h.ChatIDConfigured,
	})
}

func (c *Controller) GetConfig(w http.ResponseWriter, r *http.Request) {
	v := c.uc.Config(r.Context())
	resp := configResponse{BotToken: v.BotToken, Configured: v.Configured}
	if v.Configured {
		s := v.ChatID.String()
		resp.ChatID = &s
	}
	writeJSON(w, http.StatusOK, resp)
}

func (c *Controller) SetConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, result{Error: err.Error()})
		return
	}

	err := c.uc.Configure(r.Context(), chat.ID(req.ChatID))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result{Success: true, Message: "Chat ID configured successfully! Test message sent."})
	case errors.Is(err, ErrChatIDRequired):
		writeJSON(w, http.StatusBadRequest, result{Error: "Chat ID is required"})
	case errors.Is(err, ErrTestSendFailed):
		writeJSON(w, http.StatusBadRequest, result{Error: "Failed to send test message. Please verify your chat ID."})
	default:
		obs.WithTrace(r.Context(), c.log).Error("configure", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, result{Error: err.Error()})
	}
}

func (c *Controller) Notify(w http.ResponseWriter, r *http.Request) {
	var req alert.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, result{Error: err.Error()})
		return
	}
	if err := c.uc.Notify(r.Context(), req); err != nil {
		writeJSON(w, http.StatusOK, result{Message: "Failed to send notification"})
		return
	}
	writeJSON(w, http.StatusOK, result{Success: true, Message: "Notification sent"})
}

func (c *Controller) Test(w http.ResponseWriter, r *http.Request) {
	if err := c.uc.SendTest(r.Context()); err != nil {
		writeJSON(w, http.StatusOK, result{Message: "Failed to send test notification"})
		return
	}
	writeJSON(w, http.StatusOK, result{Success: true, Message: "Test notification sent"})
}

func (c *Controller) Reset(w http.ResponseWriter, r *http.Request) {
	if err := c.uc.Reset(r.Context()); err != nil {
		obs.WithTrace(r.Context(), c.log).Error("reset", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, result{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result{Success: true, Message: "Configuration reset successfully"})
}

// Forward relays a raw message body for clients that build their own text.
func (c *Controller) Forward(w http.ResponseWriter, r *http.Request) {
	var req forwardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, result{Error: err.Error()})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, result{Error: "Message is required."})
		return
	}
	if err := c.uc.Forward(r.Context(), req.Message); err != nil {
		writeJSON(w, http.StatusInternalServerError, result{Error: "Failed to send notification."})
		return
	}
	writeJSON(w, http.StatusOK, result{Success: true, Message: "Notification sent successfully."})
}

// decodeJSON leaves dst untouched when the body is empty.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
