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

type messageCreateRequest struct {
	Content   string `json:"content" validate:"required"`
	ReplyToID *int64 `json:"reply_to_id"`
}

type messageEditRequest struct {
	Content string `json:"content" validate:"required"`
}

func handleSendMessage(messaging *service.MessagingService, validate *validator.Validate, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := CurrentActor(r)
		if !ok {
			writeError(w, log, domain.ErrUnauthenticated)
			return
		}
		convID, err := parseConversationID(r)
		if err != nil {
			writeError(w, log, err)
			return
		}
		var req messageCreateRequest
		if err := decodeAndValidate(r, validate, &req); err != nil {
			writeError(w, log, err)
			return
		}
		msg, err := messaging.SendMessage(r.Context(), actor, service.AppendInput{
			ConversationID: convID,
			Content:        req.Content,
			ReplyToID:      req.ReplyToID,
		})
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

func handleGetMessages(messaging *service.MessagingService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := CurrentActor(r)
		if !ok {
			writeError(w, log, domain.ErrUnauthenticated)
			return
		}
		convID, err := parseConversationID(r)
		if err != nil {
			writeError(w, log, err)
			return
		}
		msgs, err := messaging.GetMessages(r.Context(), actor, convID)
		if err != nil {
			writeError(w, log, err)
			return
		}
		if msgs == nil {
			msgs = []*domain.Message{}
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

func handleEditMessage(msgSvc *service.MessageService, validate *validator.Validate, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := CurrentActor(r)
		if !ok {
			writeError(w, log, domain.ErrUnauthenticated)
			return
		}
		idStr := chi.URLParam(r, "messageID")
		msgID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || msgID <= 0 {
			writeError(w, log, fmt.Errorf("%w: malformed message id %q", domain.ErrValidation, idStr))
			return
		}
		var req messageEditRequest
		if err := decodeAndValidate(r, validate, &req); err != nil {
			writeError(w, log, err)
			return
		}
		msg, err := msgSvc.Edit(r.Context(), actor.UserID, msgID, req.Content)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	}
}
