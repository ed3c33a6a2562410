package domain

import "time"

// ConversationKind distinguishes two-party conversations from named groups.
type ConversationKind string

const (
	ConversationDirect ConversationKind = "direct"
	ConversationGroup  ConversationKind = "group"
)

// MessageKind is the payload type of a message. Only text messages are
// produced today; system is reserved for membership announcements.
type MessageKind string

const (
	MessageText   MessageKind = "text"
	MessageSystem MessageKind = "system"
)

// Actor is the authenticated identity resolved once per request by the
// identity gate and threaded explicitly through every subsequent call.
type Actor struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// User represents an application user.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	DisplayName    string    `db:"display_name" json:"display_name"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	Role           string    `db:"role" json:"role"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Conversation represents a direct or group conversation.
type Conversation struct {
	ID          int64            `db:"id" json:"id"`
	Kind        ConversationKind `db:"kind" json:"kind"`
	Name        string           `db:"name" json:"name"`
	Description *string          `db:"description" json:"description,omitempty"`
	// DirectKey is the normalized "<min>:<max>" participant pair key, set
	// only for direct conversations. A partial unique index over it makes
	// the check-and-create sequence atomic.
	DirectKey *string   `db:"direct_key" json:"-"`
	CreatedBy int64     `db:"created_by" json:"created_by"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Participants is populated on reads that join the membership table.
	Participants []int64 `json:"participants,omitempty"`
}

// Message represents a single entry in a conversation's append-only log.
type Message struct {
	ID             int64 `db:"id" json:"id"`
	ConversationID int64 `db:"conversation_id" json:"conversation_id"`
	// Seq is the per-conversation append ordinal, strictly increasing with
	// no gaps, assigned at write time.
	Seq        int64       `db:"seq" json:"seq"`
	SenderID   int64       `db:"sender_id" json:"sender_id"`
	SenderName string      `db:"sender_name" json:"sender_name"`
	Content    string      `db:"content" json:"content"`
	Kind       MessageKind `db:"kind" json:"kind"`
	ReplyToID  *int64      `db:"reply_to_id" json:"reply_to_id,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
	EditedAt   *time.Time  `db:"edited_at" json:"edited_at,omitempty"`
}
