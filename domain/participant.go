// Package domain contains core concepts of the chat system.
// This file defines the identity attached to a live connection.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// UserIdentity is resolved once by the authentication gate and stays
// immutable for the lifetime of the connection.
type UserIdentity struct {
	ID       string
	Username string
}

// User is the public projection of an account.
type User struct {
	ID        string
	Username  string
	CreatedAt time.Time
}

// Peer is a DM correspondent with the latest exchanged message.
type Peer struct {
	User        User
	LastMessage string
	LastAt      time.Time
}
