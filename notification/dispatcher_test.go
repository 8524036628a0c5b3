package notification

import (
	"chat-relay/domain"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type fakeMessaging struct {
	sent []*messaging.Message
	err  error
}

func (f *fakeMessaging) Send(_ context.Context, message *messaging.Message) (string, error) {
	f.sent = append(f.sent, message)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("projects/test/messages/%d", len(f.sent)), nil
}

func TestFCMDispatcher_Send(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	client := &fakeMessaging{}
	dispatcher := NewFCMDispatcher(client, log)

	// When a notification is sent
	dispatcher.Send(context.Background(), domain.Notification{
		Token: "tok",
		Title: "💬 alice",
		Body:  "hi",
		Data:  map[string]string{"type": "dm"},
	})

	// Then the FCM message carries the platform settings
	req.Len(client.sent, 1)
	msg := client.sent[0]
	req.Equal("tok", msg.Token)
	req.Equal("💬 alice", msg.Notification.Title)
	req.Equal("hi", msg.Notification.Body)
	req.Equal("dm", msg.Data["type"])
	req.Equal("high", msg.Android.Priority)
	req.Equal("default", msg.Android.Notification.Sound)
	req.Equal("chat_messages", msg.Android.Notification.ChannelID)
	req.Equal("default", msg.APNS.Payload.Aps.Sound)
	req.Equal(1, *msg.APNS.Payload.Aps.Badge)
}

func TestFCMDispatcher_Swallows_Errors(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	client := &fakeMessaging{err: fmt.Errorf("registration-token-not-registered")}

	// When the provider rejects the token, nothing is raised
	req.NotPanics(func() {
		NewFCMDispatcher(client, log).Send(context.Background(), domain.Notification{Token: "stale"})
	})
	req.Len(client.sent, 1)
}

func TestFCMDispatcher_Skips_Empty_Token(t *testing.T) {
	req := require.New(t)
	client := &fakeMessaging{}

	NewFCMDispatcher(client, logs.GetLoggerFromLevel(slog.LevelDebug)).Send(context.Background(), domain.Notification{})

	req.Empty(client.sent)
}

func TestNewDispatcher_Without_Credentials(t *testing.T) {
	req := require.New(t)

	dispatcher, err := NewDispatcher(context.Background(), "", logs.GetLoggerFromLevel(slog.LevelDebug))

	req.NoError(err)
	req.IsType(&LogDispatcher{}, dispatcher)
}
