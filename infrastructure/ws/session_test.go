package ws

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func contextWithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

type countingMetrics struct {
	noopMetrics
	dropped int
}

func (m *countingMetrics) IncrFramesDropped() { m.dropped++ }

// serverSession upgrades one connection and returns the server side session
// without starting its pumps.
func serverSession(t *testing.T, options Options, metrics Metrics) *Session {
	t.Helper()
	sessions := make(chan *Session, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		sessions <- newSession("c-1", domain.UserIdentity{ID: "u-1"}, conn, options, metrics, logs.GetLoggerFromLevel(slog.LevelDebug))
	}))
	t.Cleanup(server.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	s := <-sessions
	t.Cleanup(s.Close)
	return s
}

func TestSession_Consume_Drops_When_Buffer_Full(t *testing.T) {
	req := require.New(t)
	options := DefaultOptions()
	options.BufferSize = 1
	metrics := &countingMetrics{}
	s := serverSession(t, options, metrics)

	// Without a write pump the buffer never drains
	req.NoError(s.Consume(context.Background(), event.UserOnlineEvent("a")))
	err := s.Consume(context.Background(), event.UserOnlineEvent("b"))

	req.ErrorIs(err, errors.ErrQueueFull)
	req.Equal(1, metrics.dropped)
}

func TestSession_Consume_After_Close_Is_Noop(t *testing.T) {
	req := require.New(t)
	s := serverSession(t, DefaultOptions(), noopMetrics{})

	s.Close()
	s.Close()

	req.NoError(s.Consume(context.Background(), event.UserOnlineEvent("a")))
}

func TestOriginPolicy(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	request := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	strict := NewOriginPolicy([]string{"https://chat.example.com", "not an origin"}, log)
	req.True(strict.Check(request("https://chat.example.com")))
	req.True(strict.Check(request("")))
	req.False(strict.Check(request("https://other.example.com")))

	open := NewOriginPolicy([]string{"*"}, log)
	req.True(open.Check(request("https://anything.test")))
}

func TestRateLimiter(t *testing.T) {
	req := require.New(t)
	rl := newRateLimiter(2, time.Hour)

	// The bucket starts full and does not refill within the test
	req.True(rl.Allow())
	req.True(rl.Allow())
	req.False(rl.Allow())

	// Invalid settings still admit one frame
	fallback := newRateLimiter(0, 0)
	req.Equal(1, fallback.Burst())
	req.True(fallback.Allow())
}
