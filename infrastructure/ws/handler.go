// Package ws serves the real-time event channel over WebSocket.
package ws

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// EventHandler is the protocol engine the sessions report to.
type EventHandler interface {
	Connect(ctx context.Context, conn contract.Connection)
	Handle(ctx context.Context, conn contract.Connection, in event.Inbound)
	Disconnect(ctx context.Context, conn contract.Connection)
}

// Metrics is fed by every session. MonitoringManager implements it.
type Metrics interface {
	ConnectionOpened()
	ConnectionClosed()
	IncrFramesReceived()
	IncrFramesDropped()
}

type noopMetrics struct{}

func (noopMetrics) ConnectionOpened()   {}
func (noopMetrics) ConnectionClosed()   {}
func (noopMetrics) IncrFramesReceived() {}
func (noopMetrics) IncrFramesDropped()  {}

type Options struct {
	Origins         []string
	MaxMessageSize  int64
	BufferSize      int
	RateLimitBurst  int
	RateLimitRefill time.Duration
	PingPeriod      time.Duration
	PongWait        time.Duration
	WriteWait       time.Duration
}

func DefaultOptions() Options {
	return Options{
		Origins:         []string{"*"},
		MaxMessageSize:  4096,
		BufferSize:      256,
		RateLimitBurst:  20,
		RateLimitRefill: 100 * time.Millisecond,
		PingPeriod:      54 * time.Second,
		PongWait:        60 * time.Second,
		WriteWait:       10 * time.Second,
	}
}

// Handler authenticates the upgrade request, then runs one Session per socket.
type Handler struct {
	router        EventHandler
	authenticator contract.Authenticator
	upgrader      websocket.Upgrader
	options       Options
	metrics       Metrics
	log           *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	wg       sync.WaitGroup
}

func NewHandler(router EventHandler, authenticator contract.Authenticator, options Options, log *slog.Logger) *Handler {
	origins := NewOriginPolicy(options.Origins, log)
	return &Handler{
		router:        router,
		authenticator: authenticator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.Check,
		},
		options:  options,
		metrics:  noopMetrics{},
		log:      log,
		sessions: make(map[string]*Session),
	}
}

func (h *Handler) WithMetrics(m Metrics) *Handler {
	h.metrics = m
	return h
}

// credential reads ?token= first, then the Authorization header.
func credential(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	return auth.BearerToken(r)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authenticator.Authenticate(credential(r))
	if err != nil {
		h.log.Debug("Connection rejected", "remote_addr", r.RemoteAddr, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": errors.ErrInvalidToken.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already replied with an HTTP error
		h.log.Warn("Upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	session := newSession(uuid.NewString(), identity, conn, h.options, h.metrics, h.log)
	h.track(session)
	defer h.untrack(session)

	ctx := context.WithoutCancel(r.Context())
	h.metrics.ConnectionOpened()
	h.router.Connect(ctx, session)

	go session.writePump()
	session.readPump(func(in event.Inbound) {
		h.router.Handle(ctx, session, in)
	})

	h.router.Disconnect(ctx, session)
	session.Close()
	h.metrics.ConnectionClosed()
}

func (h *Handler) track(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.id] = s
	h.wg.Add(1)
}

func (h *Handler) untrack(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s.id)
	h.wg.Done()
}

// Active returns the number of open sessions.
func (h *Handler) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Shutdown closes every session and waits for their disconnect to be
// processed, or for ctx to expire.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	h.log.Info("Closed client sessions", "count", len(sessions))

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
