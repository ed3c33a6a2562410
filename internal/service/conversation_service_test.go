package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"messaging/internal/domain"
	"messaging/internal/events"
	"messaging/internal/service"
)

func newConversationFixture() (*MockConversationRepo, *MockParticipantRepo, *MockUserRepo, *capturePublisher, *service.ConversationService) {
	convRepo := new(MockConversationRepo)
	partRepo := new(MockParticipantRepo)
	userRepo := new(MockUserRepo)
	pub := &capturePublisher{}
	svc := service.NewConversationService(convRepo, partRepo, userRepo, pub)
	return convRepo, partRepo, userRepo, pub, svc
}

func TestCreateDirect(t *testing.T) {
	ctx := context.Background()

	t.Run("MalformedTarget", func(t *testing.T) {
		_, _, _, pub, svc := newConversationFixture()

		_, err := svc.CreateDirect(ctx, 1, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidTarget)

		_, err = svc.CreateDirect(ctx, 1, -7)
		assert.ErrorIs(t, err, domain.ErrInvalidTarget)
		assert.Empty(t, pub.Events())
	})

	t.Run("SelfConversation", func(t *testing.T) {
		_, _, _, pub, svc := newConversationFixture()

		_, err := svc.CreateDirect(ctx, 1, 1)
		assert.ErrorIs(t, err, domain.ErrSelfConversation)
		assert.Empty(t, pub.Events())
	})

	t.Run("TargetNotFound", func(t *testing.T) {
		_, _, userRepo, _, svc := newConversationFixture()
		userRepo.On("GetByID", mock.Anything, int64(999)).Return(nil, nil)

		_, err := svc.CreateDirect(ctx, 1, 999)
		assert.ErrorIs(t, err, domain.ErrTargetNotFound)
	})

	t.Run("IdempotentExisting", func(t *testing.T) {
		convRepo, _, userRepo, pub, svc := newConversationFixture()
		userRepo.On("GetByID", mock.Anything, int64(2)).
			Return(&domain.User{ID: 2, DisplayName: "Jane Smith", IsActive: true}, nil)

		existing := &domain.Conversation{ID: 42, Kind: domain.ConversationDirect, Participants: []int64{1, 2}}
		convRepo.On("GetByDirectKey", mock.Anything, "1:2").Return(existing, nil)

		conv, err := svc.CreateDirect(ctx, 1, 2)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), conv.ID)

		// No duplicate write, no event on the idempotent path.
		convRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, pub.Events())
	})

	t.Run("FreshCreate", func(t *testing.T) {
		convRepo, _, userRepo, pub, svc := newConversationFixture()
		userRepo.On("GetByID", mock.Anything, int64(2)).
			Return(&domain.User{ID: 2, DisplayName: "Jane Smith", IsActive: true}, nil)
		convRepo.On("GetByDirectKey", mock.Anything, "1:2").Return(nil, nil)
		convRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Conversation) bool {
			return c.Kind == domain.ConversationDirect &&
				c.Name == "Jane Smith" &&
				c.CreatedBy == 1 &&
				c.DirectKey != nil && *c.DirectKey == "1:2"
		}), []int64{1, 2}).Run(func(args mock.Arguments) {
			c := args.Get(1).(*domain.Conversation)
			c.ID = 7
			c.IsActive = true
			c.Participants = []int64{1, 2}
		}).Return(nil)

		conv, err := svc.CreateDirect(ctx, 1, 2)
		assert.NoError(t, err)
		assert.Equal(t, int64(7), conv.ID)
		assert.True(t, conv.IsActive)

		evs := pub.Events()
		if assert.Len(t, evs, 1) {
			assert.Equal(t, events.TypeConversationCreated, evs[0].Type)
			assert.ElementsMatch(t, []int64{1, 2}, evs[0].TargetUserIDs)
		}
	})

	t.Run("ConflictResolvedByRefetch", func(t *testing.T) {
		convRepo, _, userRepo, pub, svc := newConversationFixture()
		userRepo.On("GetByID", mock.Anything, int64(2)).
			Return(&domain.User{ID: 2, DisplayName: "Jane Smith", IsActive: true}, nil)

		winner := &domain.Conversation{ID: 13, Kind: domain.ConversationDirect, Participants: []int64{1, 2}}
		convRepo.On("GetByDirectKey", mock.Anything, "1:2").Return(nil, nil).Once()
		convRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(domain.ErrConflict)
		convRepo.On("GetByDirectKey", mock.Anything, "1:2").Return(winner, nil).Once()

		conv, err := svc.CreateDirect(ctx, 1, 2)
		assert.NoError(t, err)
		assert.Equal(t, int64(13), conv.ID)
		assert.Empty(t, pub.Events())
	})

	t.Run("PairKeyIgnoresOrder", func(t *testing.T) {
		convRepo, _, userRepo, _, svc := newConversationFixture()
		userRepo.On("GetByID", mock.Anything, int64(1)).
			Return(&domain.User{ID: 1, DisplayName: "John Doe", IsActive: true}, nil)

		existing := &domain.Conversation{ID: 42, Kind: domain.ConversationDirect}
		convRepo.On("GetByDirectKey", mock.Anything, "1:2").Return(existing, nil)

		conv, err := svc.CreateDirect(ctx, 2, 1)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), conv.ID)
	})
}

func TestCreateGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyName", func(t *testing.T) {
		_, _, _, _, svc := newConversationFixture()
		_, err := svc.CreateGroup(ctx, 1, "   ", nil, []int64{2})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("NoParticipants", func(t *testing.T) {
		_, _, _, _, svc := newConversationFixture()
		_, err := svc.CreateGroup(ctx, 1, "Sprint planning", nil, nil)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("ActorAddedAndDeduplicated", func(t *testing.T) {
		convRepo, _, userRepo, pub, svc := newConversationFixture()
		userRepo.On("GetByID", mock.Anything, int64(2)).
			Return(&domain.User{ID: 2, DisplayName: "Jane Smith", IsActive: true}, nil)
		userRepo.On("GetByID", mock.Anything, int64(3)).
			Return(&domain.User{ID: 3, DisplayName: "Sam Lee", IsActive: true}, nil)

		convRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Conversation) bool {
			return c.Kind == domain.ConversationGroup && c.Name == "Sprint planning" && c.DirectKey == nil
		}), []int64{1, 2, 3}).Run(func(args mock.Arguments) {
			c := args.Get(1).(*domain.Conversation)
			c.ID = 9
			c.Participants = []int64{1, 2, 3}
		}).Return(nil)

		// Actor absent from the list, participant 2 repeated.
		conv, err := svc.CreateGroup(ctx, 1, "Sprint planning", nil, []int64{2, 2, 3})
		assert.NoError(t, err)
		assert.Equal(t, int64(9), conv.ID)

		evs := pub.Events()
		if assert.Len(t, evs, 1) {
			assert.Equal(t, events.TypeConversationCreated, evs[0].Type)
			assert.ElementsMatch(t, []int64{1, 2, 3}, evs[0].TargetUserIDs)
		}
	})

	t.Run("UnknownParticipant", func(t *testing.T) {
		_, _, userRepo, _, svc := newConversationFixture()
		userRepo.On("GetByID", mock.Anything, int64(2)).Return(nil, nil)

		_, err := svc.CreateGroup(ctx, 1, "Sprint planning", nil, []int64{2})
		assert.ErrorIs(t, err, domain.ErrTargetNotFound)
	})
}

func TestDeactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatorOnly", func(t *testing.T) {
		convRepo, _, _, _, svc := newConversationFixture()
		convRepo.On("GetByID", mock.Anything, int64(5)).
			Return(&domain.Conversation{ID: 5, CreatedBy: 1, IsActive: true}, nil)

		err := svc.Deactivate(ctx, 5, 2)
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	})

	t.Run("Success", func(t *testing.T) {
		convRepo, _, _, _, svc := newConversationFixture()
		convRepo.On("GetByID", mock.Anything, int64(5)).
			Return(&domain.Conversation{ID: 5, CreatedBy: 1, IsActive: true}, nil)
		convRepo.On("Deactivate", mock.Anything, int64(5)).Return(nil)

		assert.NoError(t, svc.Deactivate(ctx, 5, 1))
	})
}
