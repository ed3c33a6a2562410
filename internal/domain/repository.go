package domain

import "context"

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	ListActive(ctx context.Context, offset, limit int) ([]*User, error)
}

// ConversationRepository defines persistence operations for conversations.
type ConversationRepository interface {
	// Create inserts the conversation together with its participant rows in
	// one transaction. For direct conversations a unique-constraint violation
	// on the pair key must be reported as ErrConflict so the caller can fetch
	// the winner instead of duplicating.
	Create(ctx context.Context, c *Conversation, participantIDs []int64) error
	GetByID(ctx context.Context, id int64) (*Conversation, error)
	GetByDirectKey(ctx context.Context, key string) (*Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]*Conversation, error)
	Deactivate(ctx context.Context, id int64) error
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	// Append assigns the next per-conversation sequence number and persists
	// the message atomically, bumping the conversation's updated_at.
	Append(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id int64) (*Message, error)
	ListForConversation(ctx context.Context, conversationID int64) ([]*Message, error)
	UpdateContent(ctx context.Context, m *Message) error
}

// ParticipantRepository defines operations around conversation membership.
type ParticipantRepository interface {
	ListParticipantIDs(ctx context.Context, conversationID int64) ([]int64, error)
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)
}
