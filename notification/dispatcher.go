package notification

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

const androidChannel = "chat_messages"

var (
	_ contract.NotificationDispatcher = (*FCMDispatcher)(nil)
	_ contract.NotificationDispatcher = (*LogDispatcher)(nil)
)

// MessagingClient is the part of the Firebase messaging client we use.
type MessagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMDispatcher delivers notifications through Firebase Cloud Messaging.
// A rejected token is logged and forgotten.
type FCMDispatcher struct {
	client MessagingClient
	log    *slog.Logger
}

func NewFCMDispatcher(client MessagingClient, log *slog.Logger) *FCMDispatcher {
	return &FCMDispatcher{client: client, log: log}
}

func (d *FCMDispatcher) Send(ctx context.Context, n domain.Notification) {
	if n.Token == "" {
		return
	}
	id, err := d.client.Send(ctx, toMessage(n))
	if err != nil {
		d.log.Warn("Failed to send notification", "title", n.Title, "error", err)
		return
	}
	d.log.Debug("Notification sent", "message_id", id)
}

func toMessage(n domain.Notification) *messaging.Message {
	badge := 1
	return &messaging.Message{
		Token:        n.Token,
		Notification: &messaging.Notification{Title: n.Title, Body: n.Body},
		Data:         n.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: androidChannel,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default", Badge: &badge},
			},
		},
	}
}

// LogDispatcher is used when push is disabled.
type LogDispatcher struct {
	log *slog.Logger
}

func NewLogDispatcher(log *slog.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Send(_ context.Context, n domain.Notification) {
	d.log.Debug("Push disabled, notification skipped", "title", n.Title, "type", n.Data["type"])
}

// NewDispatcher returns an FCM dispatcher built from a service account JSON,
// or a LogDispatcher when no credentials are configured.
func NewDispatcher(ctx context.Context, serviceAccountJSON string, log *slog.Logger) (contract.NotificationDispatcher, error) {
	if serviceAccountJSON == "" {
		log.Warn("FIREBASE_SERVICE_ACCOUNT_JSON not set, push notifications disabled")
		return NewLogDispatcher(log), nil
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	if err != nil {
		return nil, fmt.Errorf("firebase init: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	log.Info("Firebase messaging initialized")
	return NewFCMDispatcher(client, log), nil
}
