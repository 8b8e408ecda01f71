package models

import "time"

// User is the profile row referenced by the presence and delivery core.
// Accounts are created by the external auth subsystem; this service
// only reads profiles and writes presence columns.
type User struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	AvatarURL    string    `db:"avatar_url" json:"avatar_url,omitempty"`
	IsOnline     bool      `db:"is_online" json:"is_online"`
	LastSeen     time.Time `db:"last_seen" json:"last_seen"`
	LastActiveAt time.Time `db:"last_active_at" json:"last_active_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
