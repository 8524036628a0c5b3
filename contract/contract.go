//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives frames for a single live connection.
// Consume must not block on a slow peer.
type EventSink interface {
	Consume(ctx context.Context, e event.Outbound) error
}

// Connection is an authenticated EventSink.
type Connection interface {
	EventSink
	ConnID() string
	Identity() domain.UserIdentity
}

type IPresence interface {
	Add(userID, connID string)
	Remove(userID, connID string)
	IsOnline(userID string) bool
}

type IRegistry interface {
	Connect(conn Connection)
	Disconnect(connID string)
	Subscribe(connID string, roomID domain.RoomID)
	Unsubscribe(connID string, roomID domain.RoomID)
	GetSinksForRoom(roomID domain.RoomID) []Connection
	GetOtherSinks(connID string) []Connection
}

// Authenticator maps an opaque credential to a stable identity.
type Authenticator interface {
	Authenticate(credential string) (domain.UserIdentity, error)
}

type MessageStore interface {
	CreateMessage(msg domain.NewMessage) (domain.PersistedMessage, error)
}

type MembershipStore interface {
	FindMembership(userID, groupID string) (domain.Membership, bool, error)
	FindMembersWithTokens(groupID, excludeUserID string) (domain.GroupAudience, error)
}

type DeviceTokenStore interface {
	GetDeviceToken(userID string) (string, error)
}

// NotificationDispatcher delivers a push. Failures stay inside the dispatcher.
type NotificationDispatcher interface {
	Send(ctx context.Context, n domain.Notification)
}

// NotificationQueue hands notifications over to background dispatch.
// Enqueue returns false when the notification was dropped.
type NotificationQueue interface {
	Enqueue(n domain.Notification) bool
}

type ContentFilter interface {
	Censor(content string) string
}
