package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"messaging/internal/domain"
	"messaging/internal/events"
)

// ConversationService is the conversation directory: it creates,
// deduplicates, and looks up conversations and owns the membership
// invariant.
type ConversationService struct {
	conversations domain.ConversationRepository
	participants  domain.ParticipantRepository
	users         domain.UserRepository
	publisher     events.Publisher
}

func NewConversationService(
	conversations domain.ConversationRepository,
	participants domain.ParticipantRepository,
	users domain.UserRepository,
	publisher events.Publisher,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		participants:  participants,
		users:         users,
		publisher:     publisher,
	}
}

// CreateDirect returns the active direct conversation for the unordered
// pair {actorID, targetID}, creating it if necessary. Creation is
// exactly-once under concurrent callers: the storage layer enforces a
// unique pair key, and a conflict is resolved by fetching the winner.
// No event is emitted on the idempotent path.
func (s *ConversationService) CreateDirect(ctx context.Context, actorID, targetID int64) (*domain.Conversation, error) {
	if targetID <= 0 {
		return nil, domain.ErrInvalidTarget
	}
	if targetID == actorID {
		return nil, domain.ErrSelfConversation
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("look up target user: %w", err)
	}
	if target == nil || !target.IsActive {
		return nil, domain.ErrTargetNotFound
	}

	key := domain.DirectPairKey(actorID, targetID)
	if existing, err := s.conversations.GetByDirectKey(ctx, key); err != nil {
		return nil, fmt.Errorf("find direct conversation: %w", err)
	} else if existing != nil {
		return existing, nil
	}

	conv := &domain.Conversation{
		Kind:      domain.ConversationDirect,
		Name:      target.DisplayName,
		DirectKey: &key,
		CreatedBy: actorID,
	}
	err = s.conversations.Create(ctx, conv, []int64{actorID, targetID})
	if errors.Is(err, domain.ErrConflict) {
		// Lost the race; the other creator's conversation is the result.
		winner, ferr := s.conversations.GetByDirectKey(ctx, key)
		if ferr != nil {
			return nil, fmt.Errorf("fetch conflicting conversation: %w", ferr)
		}
		if winner == nil {
			return nil, err
		}
		return winner, nil
	}
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.Event{
		Type:          events.TypeConversationCreated,
		TargetUserIDs: conv.Participants,
		Payload:       conv,
	})
	return conv, nil
}

// CreateGroup creates a named group conversation. The actor is always a
// member; duplicate participant ids are collapsed. Groups are not subject
// to pair uniqueness.
func (s *ConversationService) CreateGroup(ctx context.Context, actorID int64, name string, description *string, participantIDs []int64) (*domain.Conversation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", domain.ErrValidation)
	}
	if len(participantIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one participant is required", domain.ErrValidation)
	}

	ids := lo.Uniq(append([]int64{actorID}, participantIDs...))
	for _, id := range ids {
		if id == actorID {
			continue
		}
		if id <= 0 {
			return nil, domain.ErrInvalidTarget
		}
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("look up participant %d: %w", id, err)
		}
		if u == nil || !u.IsActive {
			return nil, domain.ErrTargetNotFound
		}
	}

	conv := &domain.Conversation{
		Kind:        domain.ConversationGroup,
		Name:        name,
		Description: description,
		CreatedBy:   actorID,
	}
	if err := s.conversations.Create(ctx, conv, ids); err != nil {
		return nil, err
	}

	s.publisher.Publish(events.Event{
		Type:          events.TypeConversationCreated,
		TargetUserIDs: conv.Participants,
		Payload:       conv,
	})
	return conv, nil
}

// ListForUser returns the actor's conversations, most recently active first.
func (s *ConversationService) ListForUser(ctx context.Context, userID int64) ([]*domain.Conversation, error) {
	return s.conversations.ListForUser(ctx, userID)
}

func (s *ConversationService) GetByID(ctx context.Context, id, actorID int64) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv == nil || !conv.IsActive {
		return nil, domain.ErrNotFound
	}
	isParticipant, err := s.participants.IsParticipant(ctx, id, actorID)
	if err != nil {
		return nil, fmt.Errorf("check participant: %w", err)
	}
	if !isParticipant {
		return nil, domain.ErrNotAuthorized
	}
	return conv, nil
}

// Deactivate soft-deactivates a conversation. Only its creator may do so.
func (s *ConversationService) Deactivate(ctx context.Context, id, actorID int64) error {
	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if conv == nil || !conv.IsActive {
		return domain.ErrNotFound
	}
	if conv.CreatedBy != actorID {
		return domain.ErrNotAuthorized
	}
	return s.conversations.Deactivate(ctx, id)
}
