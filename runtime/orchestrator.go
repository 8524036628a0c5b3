// Package runtime wires live connections to rooms, presence and the
// background notification pipeline. It holds no business rules beyond the
// send_message protocol itself.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/runtime/workers"
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

var _ contract.NotificationQueue = (*Orchestrator)(nil)

// Orchestrator owns the supervised notification workers and the bounded
// queue feeding them.
type Orchestrator struct {
	log           *slog.Logger
	supervisor    contract.ISupervisor
	dispatcher    contract.NotificationDispatcher
	notifications chan domain.Notification
	numNotifiers  int
	sendTimeout   time.Duration
	running       atomic.Bool
	dropped       atomic.Int64
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	dispatcher contract.NotificationDispatcher,
	numNotifiers, bufferSize int, sendTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		log:           log,
		supervisor:    supervisor,
		dispatcher:    dispatcher,
		notifications: make(chan domain.Notification, bufferSize),
		numNotifiers:  numNotifiers,
		sendTimeout:   sendTimeout,
	}
}

// Enqueue never blocks. A full queue drops the notification.
func (o *Orchestrator) Enqueue(n domain.Notification) bool {
	select {
	case o.notifications <- n:
		return true
	default:
		o.dropped.Add(1)
		o.log.Warn("Notification queue full, dropping notification", "title", n.Title)
		return false
	}
}

// Dropped counts notifications lost to a full queue since start.
func (o *Orchestrator) Dropped() int64 { return o.dropped.Load() }

// Pending is the number of notifications waiting for a worker.
func (o *Orchestrator) Pending() int { return len(o.notifications) }

func (o *Orchestrator) IsRunning() bool { return o.running.Load() }

// Start registers the notifier workers and blocks until they all stop.
func (o *Orchestrator) Start(ctx context.Context) {
	for i := 0; i < o.numNotifiers; i++ {
		o.supervisor.Add(workers.NewNotifierWorker(o.dispatcher, o.notifications, o.sendTimeout, o.log))
	}

	o.log.Info("Starting orchestrator and all supervised workers", "notifiers", o.numNotifiers)
	o.running.Store(true)
	defer o.running.Store(false)
	o.supervisor.Run(ctx)
}

// Stop cancels the supervised workers. Queued notifications are abandoned.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
