package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"messaging/internal/domain"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

var _ domain.ConversationRepository = (*ConversationRepo)(nil)

func (r *ConversationRepo) Create(ctx context.Context, c *domain.Conversation, participantIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (kind, name, description, direct_key, created_by, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)
	`, c.Kind, c.Name, c.Description, c.DirectKey, c.CreatedBy, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert conversation: %w", domain.ErrConflict)
		}
		return fmt.Errorf("insert conversation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	for _, uid := range participantIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO conversation_participants (user_id, conversation_id, joined_at)
			VALUES (?, ?, ?)
		`, uid, id, now); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	c.ID = id
	c.IsActive = true
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Participants = participantIDs
	return nil
}

const conversationColumns = `id, kind, name, description, direct_key, created_by, is_active, created_at, updated_at`

func (r *ConversationRepo) scanRow(row *sql.Row) (*domain.Conversation, error) {
	c := &domain.Conversation{}
	err := row.Scan(
		&c.ID,
		&c.Kind,
		&c.Name,
		&c.Description,
		&c.DirectKey,
		&c.CreatedBy,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	return c, nil
}

func (r *ConversationRepo) loadParticipants(ctx context.Context, c *domain.Conversation) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id FROM conversation_participants
		WHERE conversation_id = ?
		ORDER BY user_id ASC
	`, c.ID)
	if err != nil {
		return fmt.Errorf("load participants: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan participant id: %w", err)
		}
		ids = append(ids, id)
	}
	c.Participants = ids
	return rows.Err()
}

func (r *ConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+conversationColumns+` FROM conversations WHERE id = ?
	`, id)
	c, err := r.scanRow(row)
	if err != nil || c == nil {
		return c, err
	}
	if err := r.loadParticipants(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetByDirectKey looks up the active direct conversation for a normalized
// pair key.
func (r *ConversationRepo) GetByDirectKey(ctx context.Context, key string) (*domain.Conversation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE direct_key = ? AND is_active = 1
	`, key)
	c, err := r.scanRow(row)
	if err != nil || c == nil {
		return c, err
	}
	if err := r.loadParticipants(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ConversationRepo) ListForUser(ctx context.Context, userID int64) ([]*domain.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.kind, c.name, c.description, c.direct_key, c.created_by, c.is_active, c.created_at, c.updated_at
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id
		WHERE cp.user_id = ? AND c.is_active = 1
		ORDER BY c.updated_at DESC, c.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var res []*domain.Conversation
	for rows.Next() {
		c := &domain.Conversation{}
		if err := rows.Scan(
			&c.ID,
			&c.Kind,
			&c.Name,
			&c.Description,
			&c.DirectKey,
			&c.CreatedBy,
			&c.IsActive,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	for _, c := range res {
		if err := r.loadParticipants(ctx, c); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Deactivate soft-deletes a conversation. Conversations are never removed;
// this is the only teardown path.
func (r *ConversationRepo) Deactivate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET is_active = 0, updated_at = ? WHERE id = ? AND is_active = 1
	`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("deactivate conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
