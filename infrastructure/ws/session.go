package ws

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

var _ contract.Connection = (*Session)(nil)

// Session is one authenticated socket. The read pump runs on the handler
// goroutine; the write pump owns every write to the socket.
type Session struct {
	id       string
	identity domain.UserIdentity
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	once     sync.Once
	limiter  *rate.Limiter
	options  Options
	metrics  Metrics
	log      *slog.Logger
}

func newSession(id string, identity domain.UserIdentity, conn *websocket.Conn, options Options, metrics Metrics, log *slog.Logger) *Session {
	conn.SetReadLimit(options.MaxMessageSize)
	return &Session{
		id:       id,
		identity: identity,
		conn:     conn,
		send:     make(chan []byte, options.BufferSize),
		done:     make(chan struct{}),
		limiter:  newRateLimiter(options.RateLimitBurst, options.RateLimitRefill),
		options:  options,
		metrics:  metrics,
		log:      log.With("conn_id", id, "user_id", identity.ID),
	}
}

// newRateLimiter refills burst tokens over each interval, starting full.
func newRateLimiter(burst int, interval time.Duration) *rate.Limiter {
	if burst <= 0 {
		burst = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return rate.NewLimiter(rate.Every(interval/time.Duration(burst)), burst)
}

func (s *Session) ConnID() string                { return s.id }
func (s *Session) Identity() domain.UserIdentity { return s.identity }

// Consume queues a frame without blocking. A full buffer drops the frame
// for this session only.
func (s *Session) Consume(_ context.Context, e event.Outbound) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	select {
	case <-s.done:
		return nil
	default:
	}
	select {
	case s.send <- payload:
		return nil
	default:
		s.metrics.IncrFramesDropped()
		s.log.Warn("Outbound buffer full, frame dropped", "event", e.Event)
		return errors.ErrQueueFull
	}
}

// Close stops the write pump and closes the socket. Safe to call twice.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// readPump hands every inbound frame to handle until the socket fails.
func (s *Session) readPump(handle func(event.Inbound)) {
	_ = s.conn.SetReadDeadline(time.Now().Add(s.options.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.options.PongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.logReadError(err)
			return
		}
		s.metrics.IncrFramesReceived()

		if !s.limiter.Allow() {
			s.log.Warn("Rate limit exceeded, discarding frame")
			_ = s.Consume(context.Background(), event.ErrorEvent("Rate limit exceeded"))
			continue
		}

		var in event.Inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			s.log.Debug("Malformed frame", "error", err)
			_ = s.Consume(context.Background(), event.ErrorEvent(errors.ErrInvalidPayload.Error()))
			continue
		}
		handle(in)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(s.options.PingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.options.WriteWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case payload := <-s.send:
			if err := s.write(websocket.TextMessage, payload); err != nil {
				s.logWriteError(err)
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.logWriteError(err)
				return
			}
		}
	}
}

func (s *Session) write(messageType int, payload []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.options.WriteWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, payload)
}

func (s *Session) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		s.log.Warn("Frame exceeded maximum size", "max_bytes", s.options.MaxMessageSize)
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived),
		errors.Is(err, io.EOF), isExpectedCloseError(err):
		s.log.Debug("Connection closed", "error", err)
	default:
		s.log.Warn("Read failed", "error", err)
	}
}

func (s *Session) logWriteError(err error) {
	if isExpectedCloseError(err) {
		return
	}
	s.log.Warn("Write failed", "error", err)
}

func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "websocket: close sent") ||
		strings.Contains(msg, "broken pipe")
}
