package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLoginSucceeded = "auth.login.succeeded"
	EventTypeLoginFailed    = "auth.login.failed"
)

// LoginEvent records one login attempt. UserID is zero when the username did not resolve.
type LoginEvent struct {
	BaseEvent
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username"`
	RemoteIP string `json:"remote_ip,omitempty"`
}

func NewLoginSucceededEvent(userID int64, username, remoteIP string) *LoginEvent {
	return newLoginEvent(EventTypeLoginSucceeded, userID, username, remoteIP)
}

func NewLoginFailedEvent(username, remoteIP string) *LoginEvent {
	return newLoginEvent(EventTypeLoginFailed, 0, username, remoteIP)
}

func newLoginEvent(eventType string, userID int64, username, remoteIP string) *LoginEvent {
	return &LoginEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now().UTC(),
			Data: map[string]interface{}{
				"user_id":   userID,
				"username":  username,
				"remote_ip": remoteIP,
			},
		},
		UserID:   userID,
		Username: username,
		RemoteIP: remoteIP,
	}
}
