package workers

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
	"log/slog"
	"time"
)

// NotifierWorker drains queued notifications into a dispatcher.
// Each delivery gets its own deadline so a stuck provider only delays
// the worker that picked it up.
type NotifierWorker struct {
	dispatcher    contract.NotificationDispatcher
	notifications chan domain.Notification
	sendTimeout   time.Duration
	log           *slog.Logger
}

func NewNotifierWorker(dispatcher contract.NotificationDispatcher,
	notifications chan domain.Notification,
	sendTimeout time.Duration, log *slog.Logger) *NotifierWorker {
	return &NotifierWorker{
		dispatcher:    dispatcher,
		notifications: notifications,
		sendTimeout:   sendTimeout,
		log:           log,
	}
}

func (w NotifierWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping notifier worker")
			return nil
		case n, ok := <-w.notifications:
			if !ok {
				w.log.Debug("Notification channel is closed")
				return nil
			}
			w.send(ctx, n)
		}
	}
}

func (w NotifierWorker) send(ctx context.Context, n domain.Notification) {
	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()
	w.dispatcher.Send(sendCtx, n)
}
