package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for direct messages.
type MessageRepository interface {
	InsertMessage(ctx context.Context, senderID int, receiverID int, body string, messageType string) (models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	UpdateStatus(ctx context.Context, messageID int, status string) error
	MarkAllSeen(ctx context.Context, senderID int, receiverID int) (int64, error)
	ListConversation(ctx context.Context, userID int, peerID int, limit int, offset int) ([]models.Message, error)
	CountUnread(ctx context.Context, receiverID int, senderID int) (int, error)
	SoftDeleteForUser(ctx context.Context, messageID int, isSender bool) error
	DeleteForEveryone(ctx context.Context, messageID int, senderID int) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, sender_id, receiver_id, body, message_type, status, deleted_by_sender, deleted_by_receiver, deleted_for_all, created_at`

// InsertMessage stores a new message with status "sent".
func (r *MessageRepo) InsertMessage(ctx context.Context, senderID int, receiverID int, body string, messageType string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (sender_id, receiver_id, body, message_type, status)
        VALUES ($1, $2, $3, $4, 'sent')
        RETURNING `+messageColumns, senderID, receiverID, body, messageType).
		StructScan(&msg)
	return msg, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// UpdateStatus moves a message's status forward. A backward transition
// updates nothing and is reported as a no-op, not an error.
func (r *MessageRepo) UpdateStatus(ctx context.Context, messageID int, status string) error {
	query := `UPDATE messages SET status=$2 WHERE id=$1
        AND CASE status WHEN 'sent' THEN 1 WHEN 'delivered' THEN 2 WHEN 'seen' THEN 3 ELSE 0 END
          < CASE $2 WHEN 'sent' THEN 1 WHEN 'delivered' THEN 2 WHEN 'seen' THEN 3 ELSE 0 END`
	_, err := r.db.ExecContext(ctx, query, messageID, status)
	return err
}

// MarkAllSeen transitions every non-seen message from sender to
// receiver into "seen" in one statement and returns the row count.
func (r *MessageRepo) MarkAllSeen(ctx context.Context, senderID int, receiverID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET status='seen'
        WHERE sender_id=$1 AND receiver_id=$2 AND status <> 'seen'`, senderID, receiverID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListConversation returns a page of the two-way conversation between
// userID and peerID, oldest first, filtered per-user delete flags.
func (r *MessageRepo) ListConversation(ctx context.Context, userID int, peerID int, limit int, offset int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE ((sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1))
        AND deleted_for_all = FALSE
        AND NOT (sender_id=$1 AND deleted_by_sender = TRUE)
        AND NOT (receiver_id=$1 AND deleted_by_receiver = TRUE)
        ORDER BY created_at ASC
        LIMIT $3 OFFSET $4`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, userID, peerID, limit, offset)
	return msgs, err
}

// CountUnread counts messages from sender to receiver not yet seen.
func (r *MessageRepo) CountUnread(ctx context.Context, receiverID int, senderID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages
        WHERE receiver_id=$1 AND sender_id=$2 AND status <> 'seen' AND deleted_for_all = FALSE`, receiverID, senderID)
	return count, err
}

// SoftDeleteForUser hides a message for one side of the conversation.
func (r *MessageRepo) SoftDeleteForUser(ctx context.Context, messageID int, isSender bool) error {
	if isSender {
		_, err := r.db.ExecContext(ctx, `UPDATE messages SET deleted_by_sender = TRUE WHERE id=$1`, messageID)
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE messages SET deleted_by_receiver = TRUE WHERE id=$1`, messageID)
	return err
}

// DeleteForEveryone marks a message deleted for both parties. Only the
// sender may do this.
func (r *MessageRepo) DeleteForEveryone(ctx context.Context, messageID int, senderID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET deleted_for_all = TRUE WHERE id=$1 AND sender_id=$2`, messageID, senderID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
