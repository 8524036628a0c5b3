//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	dmMessagePrefix    = "msg:dm:"
	groupMessagePrefix = "msg:group:"
	dmPeerPrefix       = "dmpeer:"
	keySeparator       = ":"
)

const (
	messageFieldID = iota + 1
	messageFieldContent
	messageFieldSenderID
	messageFieldSenderName
	messageFieldReceiverID
	messageFieldGroupID
	messageFieldCreatedAt
)

const (
	peerFieldPeerID = iota + 1
	peerFieldLastMessage
	peerFieldLastAt
)

type IMessageRepository interface {
	CreateMessage(msg domain.NewMessage) (domain.PersistedMessage, error)
	GetDirectMessages(userID, otherUserID string, page, limit int) ([]domain.PersistedMessage, error)
	GetGroupMessages(groupID string, page, limit int) ([]domain.PersistedMessage, error)
	GetRecentPeers(userID string) ([]RecentPeer, error)
}

var (
	_ IMessageRepository    = (*MessageRepository)(nil)
	_ contract.MessageStore = (*MessageRepository)(nil)
)

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log}
}

// RecentPeer is the last DM exchanged with another user.
type RecentPeer struct {
	PeerID      string
	LastMessage string
	LastAt      time.Time
}

// CreateMessage appends a message. The key is
// "msg:{dm:pair|group:id}:{timestamp_padded}:{uuid}" so a prefix scan
// returns a conversation in chronological order; the uuid breaks ties
// between messages stored in the same nanosecond.
// A DM also refreshes the "dmpeer" entry of both participants and requires
// the receiver to exist.
func (m *MessageRepository) CreateMessage(msg domain.NewMessage) (domain.PersistedMessage, error) {
	saved := domain.PersistedMessage{
		ID:         uuid.NewString(),
		Content:    msg.Content,
		SenderID:   msg.Sender.ID,
		ReceiverID: msg.ReceiverID,
		GroupID:    msg.GroupID,
		CreatedAt:  time.Now().UTC(),
		Sender:     msg.Sender,
	}
	if saved.GroupID == "" && saved.ReceiverID == "" {
		return domain.PersistedMessage{}, fmt.Errorf("message %s has neither receiver nor group", saved.ID)
	}
	for _, id := range []string{saved.SenderID, saved.ReceiverID, saved.GroupID} {
		if strings.Contains(id, keySeparator) {
			return domain.PersistedMessage{}, fmt.Errorf("id %q: %w", id, errors.ErrNotFound)
		}
	}

	err := m.db.Update(func(txn *badger.Txn) error {
		if saved.IsDM() {
			if _, err := getUser(txn, saved.ReceiverID); err != nil {
				return err
			}
		}
		if err := txn.Set(messageKey(saved), encodeMessage(saved)); err != nil {
			return err
		}
		if !saved.IsDM() {
			return nil
		}
		last := RecentPeer{LastMessage: saved.Content, LastAt: saved.CreatedAt}
		last.PeerID = saved.ReceiverID
		if err := txn.Set(peerKey(saved.SenderID, saved.ReceiverID), encodePeer(last)); err != nil {
			return err
		}
		last.PeerID = saved.SenderID
		return txn.Set(peerKey(saved.ReceiverID, saved.SenderID), encodePeer(last))
	})
	if err != nil {
		return domain.PersistedMessage{}, err
	}
	m.log.Debug("Message stored", "id", saved.ID, "sender_id", saved.SenderID)
	return saved, nil
}

// GetDirectMessages returns one page of the conversation between two users,
// oldest first. Pages start at 1.
func (m *MessageRepository) GetDirectMessages(userID, otherUserID string, page, limit int) ([]domain.PersistedMessage, error) {
	return m.page(dmMessagePrefix+dmPair(userID, otherUserID)+":", page, limit)
}

func (m *MessageRepository) GetGroupMessages(groupID string, page, limit int) ([]domain.PersistedMessage, error) {
	return m.page(groupMessagePrefix+groupID+":", page, limit)
}

func (m *MessageRepository) page(prefix string, page, limit int) ([]domain.PersistedMessage, error) {
	if page < 1 {
		page = 1
	}
	skip := (page - 1) * limit
	messages := []domain.PersistedMessage{}

	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		seen := 0
		for it.Seek(p); it.ValidForPrefix(p) && len(messages) < limit; it.Next() {
			if seen < skip {
				seen++
				continue
			}
			err := it.Item().Value(func(val []byte) error {
				msg, err := decodeMessage(val)
				if err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return messages, err
}

// GetRecentPeers lists everybody the user exchanged DMs with, most recent first.
func (m *MessageRepository) GetRecentPeers(userID string) ([]RecentPeer, error) {
	var peers []RecentPeer
	err := m.db.View(func(txn *badger.Txn) error {
		return scan(txn, dmPeerPrefix+userID+":", func(_ string, value []byte) error {
			peer, err := decodePeer(value)
			if err != nil {
				return err
			}
			peers = append(peers, peer)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i].LastAt.After(peers[j].LastAt) })
	return peers, nil
}

// dmPair is symmetric in its arguments.
func dmPair(a, b string) string {
	return strings.TrimPrefix(domain.DMRoom(a, b).String(), "dm_")
}

func messageKey(msg domain.PersistedMessage) []byte {
	conversation := groupMessagePrefix + msg.GroupID
	if msg.IsDM() {
		conversation = dmMessagePrefix + dmPair(msg.SenderID, msg.ReceiverID)
	}
	return []byte(fmt.Sprintf("%s:%019d:%s", conversation, msg.CreatedAt.UnixNano(), msg.ID))
}

func peerKey(userID, peerID string) []byte {
	return []byte(dmPeerPrefix + userID + ":" + peerID)
}

func encodeMessage(msg domain.PersistedMessage) []byte {
	return encoder(nil).
		str(messageFieldID, msg.ID).
		str(messageFieldContent, msg.Content).
		str(messageFieldSenderID, msg.SenderID).
		str(messageFieldSenderName, msg.Sender.Username).
		str(messageFieldReceiverID, msg.ReceiverID).
		str(messageFieldGroupID, msg.GroupID).
		time(messageFieldCreatedAt, msg.CreatedAt)
}

func decodeMessage(b []byte) (domain.PersistedMessage, error) {
	r, err := decode(b)
	if err != nil {
		return domain.PersistedMessage{}, err
	}
	return domain.PersistedMessage{
		ID:         r.str(messageFieldID),
		Content:    r.str(messageFieldContent),
		SenderID:   r.str(messageFieldSenderID),
		ReceiverID: r.str(messageFieldReceiverID),
		GroupID:    r.str(messageFieldGroupID),
		CreatedAt:  r.time(messageFieldCreatedAt),
		Sender:     domain.UserIdentity{ID: r.str(messageFieldSenderID), Username: r.str(messageFieldSenderName)},
	}, nil
}

func encodePeer(p RecentPeer) []byte {
	return encoder(nil).
		str(peerFieldPeerID, p.PeerID).
		str(peerFieldLastMessage, p.LastMessage).
		time(peerFieldLastAt, p.LastAt)
}

func decodePeer(b []byte) (RecentPeer, error) {
	r, err := decode(b)
	if err != nil {
		return RecentPeer{}, err
	}
	return RecentPeer{
		PeerID:      r.str(peerFieldPeerID),
		LastMessage: r.str(peerFieldLastMessage),
		LastAt:      r.time(peerFieldLastAt),
	}, nil
}
