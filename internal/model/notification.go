package model

import "time"

// NotificationKind is the toast flavour
type NotificationKind string

const (
	NotificationError   NotificationKind = "error"
	NotificationSuccess NotificationKind = "success"
)

// Notification is a transient, non-blocking message the core triggers but does not display
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	Message     string           `json:"message"`
	Position    string           `json:"position"`
	AutoCloseMS int64            `json:"autoCloseMs"`
	At          time.Time        `json:"at"`
}
