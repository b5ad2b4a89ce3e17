package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-backend/internal/domain"
)

func TestNotifierSend(t *testing.T) {
	var sent map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"signals","username":"signals_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &sent)
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":5,"chat":{"id":42,"type":"private"},"date":1714564800,"text":"ok"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	n, err := NewNotifier(srv.URL, "123:abc", 42, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "telegram", n.Name())

	err = n.Send(context.Background(), domain.Notification{
		Title: "BUY Signal Detected!",
		Body:  "BTC at $64,123.45 - Confidence 100%",
	})
	require.NoError(t, err)
	require.NotNil(t, sent)
	assert.Equal(t, "42", sent["chat_id"])
	assert.Equal(t, "BUY Signal Detected!\nBTC at $64,123.45 - Confidence 100%", sent["text"])
}

func TestNewNotifierRejectsBadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	_, err := NewNotifier(srv.URL, "bad", 42, 5*time.Second)
	assert.Error(t, err)
}
