package service

import (
	"context"
	"fmt"
	"strings"

	"messaging/internal/domain"
	"messaging/internal/events"
)

const maxMessageRunes = 5000

// MessageService is the per-conversation append-only message log. It
// enforces sender membership before every append and read.
type MessageService struct {
	conversations domain.ConversationRepository
	participants  domain.ParticipantRepository
	messages      domain.MessageRepository
	users         domain.UserRepository
	publisher     events.Publisher
}

func NewMessageService(
	conversations domain.ConversationRepository,
	participants domain.ParticipantRepository,
	messages domain.MessageRepository,
	users domain.UserRepository,
	publisher events.Publisher,
) *MessageService {
	return &MessageService{
		conversations: conversations,
		participants:  participants,
		messages:      messages,
		users:         users,
		publisher:     publisher,
	}
}

type AppendInput struct {
	ConversationID int64
	Content        string
	ReplyToID      *int64
}

// Append validates, persists, and announces a new message. The sequence
// number is assigned by the store inside the insert transaction, so two
// concurrent appends to the same conversation are serialized and every
// reader observes the same relative order.
func (s *MessageService) Append(ctx context.Context, actorID int64, in AppendInput) (*domain.Message, error) {
	conv, err := s.conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil || !conv.IsActive {
		return nil, domain.ErrNotFound
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, domain.ErrEmptyContent
	}
	if len([]rune(content)) > maxMessageRunes {
		return nil, fmt.Errorf("%w: message content exceeds %d characters", domain.ErrValidation, maxMessageRunes)
	}

	isParticipant, err := s.participants.IsParticipant(ctx, in.ConversationID, actorID)
	if err != nil {
		return nil, fmt.Errorf("check participant: %w", err)
	}
	if !isParticipant {
		return nil, domain.ErrNotAuthorized
	}

	if in.ReplyToID != nil {
		parent, err := s.messages.GetByID(ctx, *in.ReplyToID)
		if err != nil {
			return nil, fmt.Errorf("get reply target: %w", err)
		}
		if parent == nil || parent.ConversationID != in.ConversationID {
			return nil, fmt.Errorf("%w: reply target is not in this conversation", domain.ErrValidation)
		}
	}

	sender, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("get sender: %w", err)
	}
	if sender == nil {
		return nil, domain.ErrInvalidSession
	}

	msg := &domain.Message{
		ConversationID: in.ConversationID,
		SenderID:       actorID,
		// Snapshot of the display name at send time; later renames do not
		// rewrite history.
		SenderName: sender.DisplayName,
		Content:    content,
		Kind:       domain.MessageText,
		ReplyToID:  in.ReplyToID,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, err
	}

	s.publisher.Publish(events.Event{
		Type:          events.TypeMessageCreated,
		TargetUserIDs: conv.Participants,
		Payload:       msg,
	})
	return msg, nil
}

// History returns the conversation's messages in append order. Full
// history; callers page externally if they need to.
func (s *MessageService) History(ctx context.Context, conversationID, actorID int64) ([]*domain.Message, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil || !conv.IsActive {
		return nil, domain.ErrNotFound
	}
	isParticipant, err := s.participants.IsParticipant(ctx, conversationID, actorID)
	if err != nil {
		return nil, fmt.Errorf("check participant: %w", err)
	}
	if !isParticipant {
		return nil, domain.ErrNotAuthorized
	}
	return s.messages.ListForConversation(ctx, conversationID)
}

// Edit rewrites a message's content. Only the sender may edit; edited_at
// records the change.
func (s *MessageService) Edit(ctx context.Context, actorID, messageID int64, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrEmptyContent
	}
	if len([]rune(content)) > maxMessageRunes {
		return nil, fmt.Errorf("%w: message content exceeds %d characters", domain.ErrValidation, maxMessageRunes)
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	if msg == nil {
		return nil, domain.ErrNotFound
	}
	if msg.SenderID != actorID {
		return nil, domain.ErrNotAuthorized
	}

	msg.Content = content
	if err := s.messages.UpdateContent(ctx, msg); err != nil {
		return nil, err
	}

	targets, err := s.participants.ListParticipantIDs(ctx, msg.ConversationID)
	if err == nil {
		s.publisher.Publish(events.Event{
			Type:          events.TypeMessageEdited,
			TargetUserIDs: targets,
			Payload:       msg,
		})
	}
	return msg, nil
}

// ParticipantIDs exposes membership for realtime routing.
func (s *MessageService) ParticipantIDs(ctx context.Context, conversationID int64) ([]int64, error) {
	return s.participants.ListParticipantIDs(ctx, conversationID)
}
