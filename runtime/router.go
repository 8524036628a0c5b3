package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/notification"
	"context"
	"encoding/json"
	"log/slog"
)

// Router is the protocol engine behind every live connection.
// Handle runs on the connection's reader goroutine, so events of one
// connection are processed in order.
type Router struct {
	log         *slog.Logger
	presence    contract.IPresence
	registry    contract.IRegistry
	messages    contract.MessageStore
	memberships contract.MembershipStore
	tokens      contract.DeviceTokenStore
	queue       contract.NotificationQueue
	filter      contract.ContentFilter
}

func NewRouter(log *slog.Logger, presence contract.IPresence, registry contract.IRegistry,
	messages contract.MessageStore, memberships contract.MembershipStore,
	tokens contract.DeviceTokenStore, queue contract.NotificationQueue) *Router {
	return &Router{
		log:         log,
		presence:    presence,
		registry:    registry,
		messages:    messages,
		memberships: memberships,
		tokens:      tokens,
		queue:       queue,
	}
}

// WithContentFilter censors message content before it is persisted.
func (r *Router) WithContentFilter(filter contract.ContentFilter) *Router {
	r.filter = filter
	return r
}

// Connect registers an authenticated connection and tells everybody else.
func (r *Router) Connect(ctx context.Context, conn contract.Connection) {
	user := conn.Identity()
	r.registry.Connect(conn)
	r.presence.Add(user.ID, conn.ConnID())
	r.log.Info("Connected", "user_id", user.ID, "username", user.Username, "conn_id", conn.ConnID())

	r.broadcast(ctx, r.registry.GetOtherSinks(conn.ConnID()), event.UserOnlineEvent(user.ID))
}

// Disconnect is safe to call more than once for the same connection.
func (r *Router) Disconnect(ctx context.Context, conn contract.Connection) {
	user := conn.Identity()
	r.presence.Remove(user.ID, conn.ConnID())
	r.registry.Disconnect(conn.ConnID())
	r.log.Info("Disconnected", "user_id", user.ID, "username", user.Username, "conn_id", conn.ConnID())

	r.broadcast(ctx, r.registry.GetOtherSinks(conn.ConnID()), event.UserOfflineEvent(user.ID))
}

// Handle dispatches one inbound frame. Failures are reported to the
// sender as an error event and never close the connection.
func (r *Router) Handle(ctx context.Context, conn contract.Connection, in event.Inbound) {
	var err error
	switch in.Event {
	case event.JoinRoom:
		err = r.withRoom(in, func(room domain.RoomID) { r.JoinRoom(conn, room) })
	case event.LeaveRoom:
		err = r.withRoom(in, func(room domain.RoomID) { r.LeaveRoom(conn, room) })
	case event.Typing, event.StopTyping:
		err = r.withRoom(in, func(room domain.RoomID) { r.Typing(ctx, conn, in.Event, room) })
	case event.SendMessage:
		var payload event.SendMessagePayload
		if err = decode(in.Data, &payload); err == nil {
			err = r.SendMessage(ctx, conn, payload.ToRequest())
		}
	default:
		err = errors.NewValidationError("Unknown event: %s", in.Event)
	}
	if err != nil {
		r.reject(ctx, conn, in.Event, err)
	}
}

func (r *Router) withRoom(in event.Inbound, fn func(room domain.RoomID)) error {
	var payload event.RoomPayload
	if err := decode(in.Data, &payload); err != nil {
		return err
	}
	if payload.Room == "" {
		return nil
	}
	fn(domain.RoomID(payload.Room))
	return nil
}

// JoinRoom subscribes without any membership check.
func (r *Router) JoinRoom(conn contract.Connection, room domain.RoomID) {
	r.registry.Subscribe(conn.ConnID(), room)
	r.log.Debug("Joined room", "user_id", conn.Identity().ID, "room", room)
}

func (r *Router) LeaveRoom(conn contract.Connection, room domain.RoomID) {
	r.registry.Unsubscribe(conn.ConnID(), room)
	r.log.Debug("Left room", "user_id", conn.Identity().ID, "room", room)
}

// Typing relays typing or stop_typing to the room, the sender excluded.
func (r *Router) Typing(ctx context.Context, conn contract.Connection, name string, room domain.RoomID) {
	evt := event.TypingEvent(name, conn.Identity(), room)
	for _, sink := range r.registry.GetSinksForRoom(room) {
		if sink.ConnID() == conn.ConnID() {
			continue
		}
		r.deliver(ctx, sink, evt)
	}
}

// SendMessage validates, authorizes, persists, fans out to the room the
// client named, then queues pushes for offline recipients.
func (r *Router) SendMessage(ctx context.Context, conn contract.Connection, req domain.SendMessageRequest) error {
	cmd, err := domain.ParseCommand(req)
	if err != nil {
		return err
	}
	sender := conn.Identity()
	content := cmd.Text()
	if r.filter != nil {
		content = r.filter.Censor(content)
	}

	msg := domain.NewMessage{Content: content, Sender: sender}
	switch c := cmd.(type) {
	case domain.DirectMessage:
		msg.ReceiverID = c.ReceiverID
	case domain.GroupMessage:
		if err := r.authorize(sender.ID, c.GroupID); err != nil {
			return err
		}
		msg.GroupID = c.GroupID
	}

	saved, err := r.messages.CreateMessage(msg)
	if err != nil {
		return errors.PersistenceError{Op: "create message", Err: err}
	}

	r.broadcast(ctx, r.registry.GetSinksForRoom(cmd.RoomID()), event.NewMessageEvent(saved))

	switch c := cmd.(type) {
	case domain.DirectMessage:
		r.notifyReceiver(saved, c)
	case domain.GroupMessage:
		r.notifyGroup(saved, c)
	}
	return nil
}

func (r *Router) authorize(userID, groupID string) error {
	_, ok, err := r.memberships.FindMembership(userID, groupID)
	if err != nil {
		return errors.PersistenceError{Op: "find membership", Err: err}
	}
	if !ok {
		return errors.AuthorizationError{Message: "Not a group member", Err: errors.ErrNotGroupMember}
	}
	return nil
}

func (r *Router) notifyReceiver(msg domain.PersistedMessage, dm domain.DirectMessage) {
	if r.presence.IsOnline(dm.ReceiverID) {
		return
	}
	token, err := r.tokens.GetDeviceToken(dm.ReceiverID)
	if err != nil {
		r.log.Warn("Unable to resolve device token", "user_id", dm.ReceiverID, "error", err)
		return
	}
	if token == "" {
		return
	}
	r.queue.Enqueue(notification.ForDirectMessage(token, msg, dm.Room))
}

func (r *Router) notifyGroup(msg domain.PersistedMessage, gm domain.GroupMessage) {
	audience, err := r.memberships.FindMembersWithTokens(gm.GroupID, msg.SenderID)
	if err != nil {
		r.log.Warn("Unable to resolve group audience", "group_id", gm.GroupID, "error", err)
		return
	}
	for _, member := range audience.Members {
		if member.DeviceToken == "" || r.presence.IsOnline(member.UserID) {
			continue
		}
		r.queue.Enqueue(notification.ForGroupMessage(member.DeviceToken, audience.GroupName, msg, gm.Room))
	}
}

func (r *Router) reject(ctx context.Context, conn contract.Connection, name string, err error) {
	var (
		validation    errors.ValidationError
		authorization errors.AuthorizationError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &authorization):
		r.log.Debug("Event rejected", "event", name, "user_id", conn.Identity().ID, "error", err)
	default:
		r.log.Error("Event failed", "event", name, "user_id", conn.Identity().ID, "error", err)
	}
	r.deliver(ctx, conn, event.ErrorEvent(errors.ClientMessage(err)))
}

func (r *Router) broadcast(ctx context.Context, sinks []contract.Connection, evt event.Outbound) {
	for _, sink := range sinks {
		r.deliver(ctx, sink, evt)
	}
}

func (r *Router) deliver(ctx context.Context, sink contract.Connection, evt event.Outbound) {
	if err := sink.Consume(ctx, evt); err != nil {
		r.log.Warn("Event not delivered", "event", evt.Event, "conn_id", sink.ConnID(), "error", err)
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.ValidationError{Message: errors.ErrInvalidPayload.Error()}
	}
	return nil
}
