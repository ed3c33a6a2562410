package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"messaging/internal/domain"
	"messaging/internal/service"
)

type directChatRequest struct {
	TargetUserID int64 `json:"target_user_id" validate:"required"`
}

type groupChatRequest struct {
	Name           string  `json:"name" validate:"required,max=100"`
	Description    *string `json:"description"`
	ParticipantIDs []int64 `json:"participant_ids" validate:"required,min=1"`
}

// parseConversationID treats a malformed identifier as a validation error
// rather than silently matching nothing.
func parseConversationID(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "conversationID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed conversation id %q", domain.ErrValidation, idStr)
	}
	return id, nil
}

func handleCreateDirectChat(messaging *service.MessagingService, validate *validator.Validate, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := CurrentActor(r)
		if !ok {
			writeError(w, log, domain.ErrUnauthenticated)
			return
		}
		var req directChatRequest
		if err := decodeAndValidate(r, validate, &req); err != nil {
			writeError(w, log, err)
			return
		}
		conv, err := messaging.CreateDirectChat(r.Context(), actor, req.TargetUserID)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, conv)
	}
}

func handleCreateGroupChat(messaging *service.MessagingService, validate *validator.Validate, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := CurrentActor(r)
		if !ok {
			writeError(w, log, domain.ErrUnauthenticated)
			return
		}
		var req groupChatRequest
		if err := decodeAndValidate(r, validate, &req); err != nil {
			writeError(w, log, err)
			return
		}
		conv, err := messaging.CreateGroupChat(r.Context(), actor, req.Name, req.Description, req.ParticipantIDs)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, conv)
	}
}

func handleListConversations(messaging *service.MessagingService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := CurrentActor(r)
		if !ok {
			writeError(w, log, domain.ErrUnauthenticated)
			return
		}
		convs, err := messaging.ListConversations(r.Context(), actor)
		if err != nil {
			writeError(w, log, err)
			return
		}
		if convs == nil {
			convs = []*domain.Conversation{}
		}
		writeJSON(w, http.StatusOK, convs)
	}
}

func handleGetConversation(convSvc *service.ConversationService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := CurrentActor(r)
		if !ok {
			writeError(w, log, domain.ErrUnauthenticated)
			return
		}
		id, err := parseConversationID(r)
		if err != nil {
			writeError(w, log, err)
			return
		}
		conv, err := convSvc.GetByID(r.Context(), id, actor.UserID)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

func handleDeactivateConversation(convSvc *service.ConversationService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := CurrentActor(r)
		if !ok {
			writeError(w, log, domain.ErrUnauthenticated)
			return
		}
		id, err := parseConversationID(r)
		if err != nil {
			writeError(w, log, err)
			return
		}
		if err := convSvc.Deactivate(r.Context(), id, actor.UserID); err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
	}
}
