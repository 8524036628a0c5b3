package domain

import "time"

type Group struct {
	ID          string
	Name        string
	CreatedByID string
	CreatedAt   time.Time
	Members     []User
}

// Membership authorizes a user to post to and receive a group's fan-out.
type Membership struct {
	UserID   string
	GroupID  string
	JoinedAt time.Time
}

// MemberToken is a group member with the device token registered for push.
// DeviceToken is empty when the member never registered a device.
type MemberToken struct {
	UserID      string
	DeviceToken string
}

// GroupAudience lists who should hear about a group message.
type GroupAudience struct {
	GroupID   string
	GroupName string
	Members   []MemberToken
}
