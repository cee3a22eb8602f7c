package domain

import "time"

// NotificationChannel selects how a notification is delivered.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
	ChannelPush  NotificationChannel = "push"
	ChannelInApp NotificationChannel = "in_app"
)

// Notification is an in-app notification record.
type Notification struct {
	ID         string
	UserID     string
	Subject    string
	Message    string
	EntityType string
	EntityID   *string
	Read       bool
	CreatedAt  time.Time
}
