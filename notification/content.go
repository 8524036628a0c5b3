// Package notification builds and delivers push notifications for
// recipients that are offline when a message is sent.
package notification

import (
	"chat-relay/domain"
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
)

const (
	maxBodyRunes = 240
	ellipsis     = "…"
)

// ForDirectMessage addresses a DM to the receiver's device.
func ForDirectMessage(token string, msg domain.PersistedMessage, room domain.RoomID) domain.Notification {
	return domain.Notification{
		Token: token,
		Title: "💬 " + msg.Sender.Username,
		Body:  truncate(msg.Content),
		Data: map[string]string{
			"type":       domain.KindDM.String(),
			"senderId":   msg.Sender.ID,
			"senderName": msg.Sender.Username,
			"room":       room.String(),
			"lang":       detectLang(msg.Content),
		},
	}
}

// ForGroupMessage addresses a group message to one member's device.
func ForGroupMessage(token, groupName string, msg domain.PersistedMessage, room domain.RoomID) domain.Notification {
	return domain.Notification{
		Token: token,
		Title: "💬 " + groupName,
		Body:  truncate(msg.Sender.Username + ": " + msg.Content),
		Data: map[string]string{
			"type":       domain.KindGroup.String(),
			"groupId":    msg.GroupID,
			"senderName": msg.Sender.Username,
			"room":       room.String(),
			"lang":       detectLang(msg.Content),
		},
	}
}

func truncate(body string) string {
	if utf8.RuneCountInString(body) <= maxBodyRunes {
		return body
	}
	runes := []rune(body)
	return string(runes[:maxBodyRunes-1]) + ellipsis
}

// detectLang returns the ISO 639-1 code of the content, or "und" when
// the detector is not confident.
func detectLang(content string) string {
	if strings.TrimSpace(content) == "" {
		return "und"
	}
	info := whatlanggo.Detect(content)
	if !info.IsReliable() {
		return "und"
	}
	if code := info.Lang.Iso6391(); code != "" {
		return code
	}
	return "und"
}
