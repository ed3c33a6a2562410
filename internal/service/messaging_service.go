package service

import (
	"context"

	"github.com/samber/lo"

	"messaging/internal/domain"
)

// MessagingService is the thin façade over the conversation directory and
// the message log. Callers hand it an actor already resolved by the
// identity gate; realtime fan-out happens asynchronously through the
// event bus, never on the caller's path.
type MessagingService struct {
	conversations *ConversationService
	messages      *MessageService
}

func NewMessagingService(conversations *ConversationService, messages *MessageService) *MessagingService {
	return &MessagingService{conversations: conversations, messages: messages}
}

func (s *MessagingService) CreateDirectChat(ctx context.Context, actor domain.Actor, targetID int64) (*domain.Conversation, error) {
	return s.conversations.CreateDirect(ctx, actor.UserID, targetID)
}

func (s *MessagingService) CreateGroupChat(ctx context.Context, actor domain.Actor, name string, description *string, participantIDs []int64) (*domain.Conversation, error) {
	return s.conversations.CreateGroup(ctx, actor.UserID, name, description, participantIDs)
}

func (s *MessagingService) SendMessage(ctx context.Context, actor domain.Actor, in AppendInput) (*domain.Message, error) {
	return s.messages.Append(ctx, actor.UserID, in)
}

func (s *MessagingService) ListConversations(ctx context.Context, actor domain.Actor) ([]*domain.Conversation, error) {
	return s.conversations.ListForUser(ctx, actor.UserID)
}

func (s *MessagingService) GetMessages(ctx context.Context, actor domain.Actor, conversationID int64) ([]*domain.Message, error) {
	return s.messages.History(ctx, conversationID, actor.UserID)
}

// PresenceAudience returns the users sharing at least one active
// conversation with the actor. Presence transitions are delivered to this
// set only, never to unrelated users.
func (s *MessagingService) PresenceAudience(ctx context.Context, actor domain.Actor) ([]int64, error) {
	convs, err := s.conversations.ListForUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	var audience []int64
	for _, c := range convs {
		for _, pid := range c.Participants {
			if pid != actor.UserID {
				audience = append(audience, pid)
			}
		}
	}
	return lo.Uniq(audience), nil
}
