package models

import "time"

// Message statuses. Transitions are strictly forward:
// sent -> delivered -> seen.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusSeen      = "seen"
)

// Message types accepted by the delivery pipeline. For media types the
// body holds a reference URI produced by the upload endpoint.
const (
	TypeText  = "text"
	TypeImage = "image"
	TypeVoice = "voice"
	TypeFile  = "file"
)

// StatusRank orders message statuses so callers can reject backward
// transitions. Unknown statuses rank below "sent".
func StatusRank(status string) int {
	switch status {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusSeen:
		return 3
	}
	return 0
}

// ValidMessageType reports whether t is one of the accepted message types.
func ValidMessageType(t string) bool {
	switch t {
	case TypeText, TypeImage, TypeVoice, TypeFile:
		return true
	}
	return false
}

// Message represents a direct message between two users.
type Message struct {
	ID                int       `db:"id" json:"id"`
	SenderID          int       `db:"sender_id" json:"sender_id"`
	ReceiverID        int       `db:"receiver_id" json:"receiver_id"`
	Body              string    `db:"body" json:"body"`
	MessageType       string    `db:"message_type" json:"message_type"`
	Status            string    `db:"status" json:"status"`
	DeletedBySender   bool      `db:"deleted_by_sender" json:"deleted_by_sender"`
	DeletedByReceiver bool      `db:"deleted_by_receiver" json:"deleted_by_receiver"`
	DeletedForAll     bool      `db:"deleted_for_all" json:"deleted_for_all"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}
