package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSender struct {
	name string
	err  error
	sent []string
}

func (s *stubSender) Send(_ context.Context, title, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, title)
	return nil
}

func (s *stubSender) Name() string { return s.name }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyFiltersByEventType(t *testing.T) {
	t.Parallel()

	sender := &stubSender{name: "stub"}
	n := NewNotifier([]Sender{sender}, []string{"arb_opportunity"}, discard())

	require.NoError(t, n.Notify(context.Background(), "arb_opportunity", "hit", "body"))
	require.NoError(t, n.Notify(context.Background(), "breaker", "ignored", "body"))

	assert.Equal(t, []string{"hit"}, sender.sent)
}

func TestNotifyEmptyFilterAllowsEverything(t *testing.T) {
	t.Parallel()

	sender := &stubSender{name: "stub"}
	n := NewNotifier([]Sender{sender}, nil, discard())

	require.NoError(t, n.Notify(context.Background(), "anything", "a", "b"))
	assert.Len(t, sender.sent, 1)
}

func TestDispatchContinuesPastFailingSender(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	bad := &stubSender{name: "bad", err: boom}
	good := &stubSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, discard())

	err := n.NotifyAll(context.Background(), "title", "message")
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Len(t, good.sent, 1)
}

func TestTelegramSenderPostsSendMessage(t *testing.T) {
	t.Parallel()

	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottok-123/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewTelegramSender(srv.URL, "tok-123", "chat-9")
	require.NoError(t, s.Send(context.Background(), "Arb", "spread 3%"))

	assert.Equal(t, "chat-9", got["chat_id"])
	assert.Equal(t, "*Arb*\nspread 3%", got["text"])
}

func TestTelegramSenderSurfacesHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewTelegramSender(srv.URL, "tok", "chat")
	err := s.Send(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestDiscordSenderPostsWebhook(t *testing.T) {
	t.Parallel()

	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	require.NoError(t, s.Send(context.Background(), "Arb", "spread 3%"))
	assert.Equal(t, "**Arb**\nspread 3%", got["content"])
}
