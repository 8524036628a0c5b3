// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import "time"

// NewMessage is what the router asks the store to append.
// Exactly one of ReceiverID and GroupID is set.
type NewMessage struct {
	Content    string
	Sender     UserIdentity
	ReceiverID string
	GroupID    string
}

// PersistedMessage is an append-only record. The store assigns ID and CreatedAt.
type PersistedMessage struct {
	ID         string
	Content    string
	SenderID   string
	ReceiverID string
	GroupID    string
	CreatedAt  time.Time
	Sender     UserIdentity
}

func (m PersistedMessage) IsDM() bool { return m.GroupID == "" }
