package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/NordCoder/Tgrelay/internal/repository/file"
	"github.com/NordCoder/Tgrelay/internal/services/relay/repo"
	"github.com/NordCoder/Tgrelay/internal/telegram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testToken = "123456:ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghij"

// botStub imitates the Bot API endpoints the relay calls.
type botStub struct {
	mu         sync.Mutex
	sent       []telegram.SendMessageRequest
	rejectChat string
	updates    []telegram.Update
}

func (b *botStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/bot"+testToken+"/sendMessage":
		var req telegram.SendMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ChatID == b.rejectChat {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
			return
		}
		b.mu.Lock()
		b.sent = append(b.sent, req)
		b.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"chat":{"id":1,"type":"private"},"date":0}}`))
	case r.URL.Path == "/bot"+testToken+"/getUpdates":
		_ = json.NewEncoder(w).Encode(telegram.APIResponse[[]telegram.Update]{OK: true, Result: b.updates})
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
	}
}

func (b *botStub) messages() []telegram.SendMessageRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]telegram.SendMessageRequest(nil), b.sent...)
}

type harness struct {
	bot       *botStub
	storePath string
	handler   http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	bot := &botStub{rejectChat: "bad-chat"}
	api := httptest.NewServer(bot)
	t.Cleanup(api.Close)

	storePath := filepath.Join(t.TempDir(), "telegram_chat_id.txt")
	store, err := file.NewChatStore(storePath)
	require.NoError(t, err)

	tg := telegram.New(telegram.Config{BaseURL: api.URL, Token: testToken}).WithLogger(zap.NewNop())
	uc := New(Deps{
		Store:   store,
		Out:     repo.Sender{C: tg, ParseMode: "HTML"},
		Updates: repo.Updates{C: tg},
		Log:     zap.NewNop(),
	}, Options{Token: testToken, TokenPrefixLen: 20, Product: "ITAssist HLS Multiviewer"})

	h := NewRouter(zap.NewNop(), NewController(zap.NewNop(), uc), RouterOptions{
		Service:        "relay-test",
		AllowedOrigins: []string{"*"},
		ExposeMetrics:  true,
	})
	return &harness{bot: bot, storePath: storePath, handler: h}
}

func (h *harness) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestHTTP_HealthUnconfigured(t *testing.T) {
	h := newHarness(t)

	rec, body := h.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["chat_id_configured"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestHTTP_GetConfigUnconfigured(t *testing.T) {
	h := newHarness(t)

	rec, body := h.do(t, http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "123456:ABCDEFGHIJKLM...", body["bot_token"])
	assert.Nil(t, body["chat_id"])
	assert.Equal(t, false, body["configured"])
	assert.NotContains(t, rec.Body.String(), testToken)
}

func TestHTTP_ConfigureFlow(t *testing.T) {
	h := newHarness(t)

	rec, body := h.do(t, http.MethodPost, "/config", `{"chat_id": -100123}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Chat ID configured successfully! Test message sent.", body["message"])

	msgs := h.bot.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "-100123", msgs[0].ChatID)
	assert.Equal(t, "HTML", msgs[0].ParseMode)
	assert.Contains(t, msgs[0].Text, "Configuration Test")

	raw, err := os.ReadFile(h.storePath)
	require.NoError(t, err)
	assert.Equal(t, "-100123", string(raw))

	_, body = h.do(t, http.MethodGet, "/config", "")
	assert.Equal(t, "-100123", body["chat_id"])
	assert.Equal(t, true, body["configured"])

	_, body = h.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, true, body["chat_id_configured"])
}

func TestHTTP_ConfigureMissingChatID(t *testing.T) {
	h := newHarness(t)

	for _, payload := range []string{`{}`, `{"chat_id": ""}`, `{"chat_id": null}`, ``} {
		rec, body := h.do(t, http.MethodPost, "/config", payload)
		require.Equal(t, http.StatusBadRequest, rec.Code, payload)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Chat ID is required", body["error"])
	}
	assert.Empty(t, h.bot.messages())
}

func TestHTTP_ConfigureRejectedByProvider(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.storePath, []byte("42"), 0o600))

	rec, body := h.do(t, http.MethodPost, "/config", `{"chat_id": "bad-chat"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Failed to send test message. Please verify your chat ID.", body["error"])

	raw, err := os.ReadFile(h.storePath)
	require.NoError(t, err)
	assert.Equal(t, "42", string(raw))
}

func TestHTTP_NotifyWithStoredChat(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.storePath, []byte("42\n"), 0o600))

	rec, body := h.do(t, http.MethodPost, "/notify",
		`{"message":"Segment timeout","stream_name":"Lobby","error_type":"Stalled"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Notification sent", body["message"])

	msgs := h.bot.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "42", msgs[0].ChatID)
	assert.Contains(t, msgs[0].Text, "<b>Stream:</b> Lobby")
	assert.Contains(t, msgs[0].Text, "<b>Type:</b> Stalled")
	assert.True(t, strings.HasSuffix(msgs[0].Text, "\n\nSegment timeout"))
}

func TestHTTP_NotifyDiscoversChat(t *testing.T) {
	h := newHarness(t)
	h.bot.updates = []telegram.Update{
		{UpdateID: 1},
		{UpdateID: 2, Message: &telegram.Message{MessageID: 5, Chat: telegram.Chat{ID: 777, Type: "private"}, Text: "/start"}},
	}

	rec, body := h.do(t, http.MethodPost, "/notify", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	msgs := h.bot.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "777", msgs[0].ChatID)
	assert.Contains(t, msgs[0].Text, "No message provided")

	raw, err := os.ReadFile(h.storePath)
	require.NoError(t, err)
	assert.Equal(t, "777", string(raw))
}

func TestHTTP_NotifyWithoutDestination(t *testing.T) {
	h := newHarness(t)

	rec, body := h.do(t, http.MethodPost, "/notify", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to send notification", body["message"])
	assert.Empty(t, h.bot.messages())
}

func TestHTTP_NotifyMalformedJSON(t *testing.T) {
	h := newHarness(t)

	rec, body := h.do(t, http.MethodPost, "/notify", `{"message":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
}

func TestHTTP_Test(t *testing.T) {
	h := newHarness(t)

	_, body := h.do(t, http.MethodGet, "/test", "")
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to send test notification", body["message"])

	require.NoError(t, os.WriteFile(h.storePath, []byte("42"), 0o600))
	rec, body := h.do(t, http.MethodGet, "/test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Test notification sent", body["message"])
	require.Len(t, h.bot.messages(), 1)
	assert.Contains(t, h.bot.messages()[0].Text, "ITAssist HLS Multiviewer")
}

func TestHTTP_Reset(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.storePath, []byte("42"), 0o600))

	for i := 0; i < 2; i++ {
		rec, body := h.do(t, http.MethodPost, "/reset", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Configuration reset successfully", body["message"])
	}
	_, err := os.Stat(h.storePath)
	assert.True(t, os.IsNotExist(err))

	_, body := h.do(t, http.MethodGet, "/config", "")
	assert.Equal(t, false, body["configured"])
}

func TestHTTP_Forward(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.storePath, []byte("42"), 0o600))

	rec, body := h.do(t, http.MethodPost, "/api/telegram-notify", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Message is required.", body["error"])

	rec, body = h.do(t, http.MethodPost, "/api/telegram-notify", `{"message":"<i>raw</i>"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Notification sent successfully.", body["message"])
	require.Len(t, h.bot.messages(), 1)
	assert.Equal(t, "<i>raw</i>", h.bot.messages()[0].Text)

	require.NoError(t, os.WriteFile(h.storePath, []byte("bad-chat"), 0o600))
	rec, body = h.do(t, http.MethodPost, "/api/telegram-notify", `{"message":"x"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to send notification.", body["error"])
}

func TestHTTP_NotFoundAndMethodNotAllowed(t *testing.T) {
	h := newHarness(t)

	rec, body := h.do(t, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Endpoint not found", body["error"])

	rec, body = h.do(t, http.MethodDelete, "/config", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method not allowed", body["error"])
}

func TestHTTP_CORSPreflight(t *testing.T) {
	h := newHarness(t)

	for _, path := range []string{"/notify", "/config", "/anything"} {
		rec, _ := h.do(t, http.MethodOptions, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	}

	rec, _ := h.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_AllowList(t *testing.T) {
	h := cors([]string{"https://wall.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://wall.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://wall.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoverJSON(t *testing.T) {
	h := recoverJSON(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notify", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "boom", body["error"])
}

func TestHTTP_MetricsExposed(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodGet, "/health", "")

	rec, _ := h.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{code="200",method="GET",route="/health"}`)
}
