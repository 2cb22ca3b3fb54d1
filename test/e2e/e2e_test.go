//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type cfg struct {
	RelayBase string // http://localhost:3001
	ChatID    string
	WaitUp    time.Duration
}

func loadCfg() cfg {
	return cfg{
		RelayBase: getenv("E2E_RELAY_BASE", "http://localhost:3001"),
		ChatID:    os.Getenv("E2E_CHAT_ID"),
		WaitUp:    mustParseDur(getenv("E2E_WAIT_UP", "30s")),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustParseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}

type result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

type configView struct {
	BotToken   string  `json:"bot_token"`
	ChatID     *string `json:"chat_id"`
	Configured bool    `json:"configured"`
}

type health struct {
	Status           string `json:"status"`
	ChatIDConfigured bool   `json:"chat_id_configured"`
}

func do(t *testing.T, method, url string, in any, out any) int {
	t.Helper()
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	all, _ := io.ReadAll(resp.Body)
	if out != nil {
		require.NoError(t, json.Unmarshal(all, out), "%s %s: %s", method, url, string(all))
	}
	return resp.StatusCode
}

func waitHealthy(t *testing.T, c cfg) {
	t.Helper()
	deadline := time.Now().Add(c.WaitUp)
	for time.Now().Before(deadline) {
		resp, err := http.Get(c.RelayBase + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(time.Second)
	}
	t.Fatalf("relay at %s not healthy after %s", c.RelayBase, c.WaitUp)
}

func Test_ConfigureNotifyReset(t *testing.T) {
	c := loadCfg()
	if c.ChatID == "" {
		t.Skip("E2E_CHAT_ID not set")
	}
	waitHealthy(t, c)

	var r result
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, c.RelayBase+"/reset", nil, &r))
	require.True(t, r.Success)

	var h health
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, c.RelayBase+"/health", nil, &h))
	require.Equal(t, "ok", h.Status)
	require.False(t, h.ChatIDConfigured)

	require.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, c.RelayBase+"/config", map[string]string{}, &r))
	require.Equal(t, "Chat ID is required", r.Error)

	r = result{}
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, c.RelayBase+"/config", map[string]string{"chat_id": c.ChatID}, &r))
	require.True(t, r.Success, r.Error)

	var v configView
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, c.RelayBase+"/config", nil, &v))
	require.True(t, v.Configured)
	require.NotNil(t, v.ChatID)
	require.Equal(t, c.ChatID, *v.ChatID)
	require.Contains(t, v.BotToken, "...")

	r = result{}
	do(t, http.MethodPost, c.RelayBase+"/notify", map[string]string{
		"message":     "e2e alert at " + time.Now().Format(time.RFC3339),
		"stream_name": "e2e",
		"error_type":  "Test",
	}, &r)
	require.True(t, r.Success, r.Message)

	r = result{}
	do(t, http.MethodGet, c.RelayBase+"/test", nil, &r)
	require.True(t, r.Success, r.Message)

	r = result{}
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, c.RelayBase+"/reset", nil, &r))
	require.Equal(t, "Configuration reset successfully", r.Message)
}

func Test_UnknownRoutes(t *testing.T) {
	c := loadCfg()
	waitHealthy(t, c)

	var e map[string]string
	require.Equal(t, http.StatusNotFound, do(t, http.MethodGet, c.RelayBase+"/does-not-exist", nil, &e))
	require.Equal(t, "Endpoint not found", e["error"])

	require.Equal(t, http.StatusMethodNotAllowed, do(t, http.MethodPut, c.RelayBase+"/notify", nil, &e))
	require.Equal(t, "Method not allowed", e["error"])
}
