package ws

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"messaging/internal/domain"
	"messaging/internal/events"
	"messaging/internal/identity"
	"messaging/internal/service"
)

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return false }
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

// extractToken pulls the bearer token from the Authorization header or,
// for browser clients that cannot set headers on WebSocket upgrades, from
// the Sec-WebSocket-Protocol list ("bearer, <token>").
func extractToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		if token := strings.TrimSpace(authHeader[len("Bearer "):]); token != "" {
			return token
		}
	}

	protocolHeader := r.Header.Get("Sec-WebSocket-Protocol")
	if protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return ""
}

type inboundFrame struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversation_id"`
	Content        string `json:"content"`
	ReplyToID      *int64 `json:"reply_to_id"`
}

// MakeHandler returns the HTTP handler for the /ws endpoint. It resolves
// the actor through the identity gate, registers the connection with the
// hub, and dispatches inbound frames:
//   - message -> append via the messaging façade (fan-out via the bus)
//   - typing  -> relay to the other participants
func MakeHandler(
	hub *Hub,
	gate *identity.Gate,
	messaging *service.MessagingService,
	messages *service.MessageService,
	publisher events.Publisher,
	allowedOrigins []string,
	log *zap.Logger,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin:  checkOrigin,
		Subprotocols: []string{"bearer"},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		actor, err := gate.ResolveActor(r.Context(), extractToken(r))
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		// Presence transitions go to users sharing a conversation with the
		// actor, never to the whole hub.
		notifyPresence := func(eventType string) {
			audience, err := messaging.PresenceAudience(r.Context(), actor)
			if err != nil {
				log.Debug("presence audience",
					zap.Int64("user_id", actor.UserID), zap.Error(err))
				return
			}
			if len(audience) == 0 {
				return
			}
			publisher.Publish(events.Event{
				Type:          eventType,
				TargetUserIDs: audience,
				Payload:       map[string]any{"user_id": actor.UserID},
			})
		}

		client := NewClient(actor.UserID, conn)
		client.Start()
		if hub.Register(client) {
			notifyPresence(events.TypePresenceOnline)
		}
		defer func() {
			if hub.Unregister(client) {
				notifyPresence(events.TypePresenceOffline)
			}
			client.Close()
		}()

		ctx := r.Context()
		for {
			var frame inboundFrame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}

			switch frame.Type {
			case "message":
				if frame.ConversationID <= 0 {
					sendError(client, "message requires a conversation_id")
					continue
				}
				_, err := messaging.SendMessage(ctx, actor, service.AppendInput{
					ConversationID: frame.ConversationID,
					Content:        frame.Content,
					ReplyToID:      frame.ReplyToID,
				})
				if err != nil {
					log.Debug("ws send message",
						zap.Int64("user_id", actor.UserID), zap.Error(err))
					sendError(client, userFacing(err))
				}

			case "typing":
				if frame.ConversationID <= 0 {
					continue
				}
				participantIDs, err := messages.ParticipantIDs(ctx, frame.ConversationID)
				if err != nil || !containsID(participantIDs, actor.UserID) {
					sendError(client, "not allowed for this conversation")
					continue
				}
				var others []int64
				for _, pid := range participantIDs {
					if pid != actor.UserID {
						others = append(others, pid)
					}
				}
				if len(others) == 0 {
					continue
				}
				publisher.Publish(events.Event{
					Type:          events.TypeTyping,
					TargetUserIDs: others,
					Payload: map[string]any{
						"conversation_id": frame.ConversationID,
						"user_id":         actor.UserID,
					},
				})

			default:
				log.Debug("unknown ws frame",
					zap.String("type", frame.Type), zap.Int64("user_id", actor.UserID))
			}
		}
	}
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// userFacing maps well-known failures to terse client strings; anything
// else gets a generic message so internals never leak over the socket.
func userFacing(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyContent):
		return "message content is empty"
	case errors.Is(err, domain.ErrNotAuthorized):
		return "not a participant in this conversation"
	case errors.Is(err, domain.ErrNotFound):
		return "conversation not found"
	default:
		return "failed to send message"
	}
}

func sendError(c *Client, msg string) {
	payload := fmt.Sprintf(`{"type":"error","payload":{"message":%q}}`, msg)
	c.Enqueue([]byte(payload))
}
