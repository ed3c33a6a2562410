package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"messaging/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

// Append assigns the next sequence number for the conversation and inserts
// the message in one transaction. SQLite serializes writers, so the
// max(seq)+1 read cannot race another append; all readers agree on the
// resulting order.
func (r *MessageRepo) Append(ctx context.Context, m *domain.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?
	`, m.ConversationID).Scan(&seq); err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, seq, sender_id, sender_name, content, kind, reply_to_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ConversationID, seq, m.SenderID, m.SenderName, m.Content, m.Kind, m.ReplyToID, now)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE conversations SET updated_at = ? WHERE id = ?
	`, now, m.ConversationID); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	m.ID = id
	m.Seq = seq
	m.CreatedAt = now
	return nil
}

const messageColumns = `id, conversation_id, seq, sender_id, sender_name, content, kind, reply_to_id, created_at, edited_at`

func (r *MessageRepo) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	m := &domain.Message{}
	err := r.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+` FROM messages WHERE id = ?
	`, id).Scan(
		&m.ID,
		&m.ConversationID,
		&m.Seq,
		&m.SenderID,
		&m.SenderName,
		&m.Content,
		&m.Kind,
		&m.ReplyToID,
		&m.CreatedAt,
		&m.EditedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

// ListForConversation returns the full history in append order.
func (r *MessageRepo) ListForConversation(ctx context.Context, conversationID int64) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE conversation_id = ?
		ORDER BY seq ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(
			&m.ID,
			&m.ConversationID,
			&m.Seq,
			&m.SenderID,
			&m.SenderName,
			&m.Content,
			&m.Kind,
			&m.ReplyToID,
			&m.CreatedAt,
			&m.EditedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return res, nil
}

// UpdateContent rewrites the message body and stamps edited_at.
func (r *MessageRepo) UpdateContent(ctx context.Context, m *domain.Message) error {
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, `
		UPDATE messages SET content = ?, edited_at = ? WHERE id = ?
	`, m.Content, now, m.ID); err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	m.EditedAt = &now
	return nil
}
