package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"messaging/internal/config"
	"messaging/internal/events"
	"messaging/internal/identity"
	"messaging/internal/service"
	"messaging/internal/ws"
)

// Deps bundles everything the router wires together.
type Deps struct {
	Config        *config.Config
	Gate          *identity.Gate
	Hub           *ws.Hub
	Publisher     events.Publisher
	Auth          *service.AuthService
	Users         *service.UserService
	Conversations *service.ConversationService
	Messages      *service.MessageService
	Messaging     *service.MessagingService
	Log           *zap.Logger
}

// NewRouter constructs the main HTTP router and wires routes and middleware.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	validate := validator.New()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handleRegister(d.Auth, validate, d.Log))
			r.Post("/login", handleLogin(d.Auth, validate, d.Log))
		})

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Gate, d.Log))

			r.Get("/auth/me", handleMe(d.Users, d.Log))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", handleListUsers(d.Users, d.Log))
				r.Get("/online", handleListOnlineUsers(d.Hub))
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Post("/direct", handleCreateDirectChat(d.Messaging, validate, d.Log))
				r.Post("/group", handleCreateGroupChat(d.Messaging, validate, d.Log))
				r.Get("/", handleListConversations(d.Messaging, d.Log))
				r.Get("/{conversationID}", handleGetConversation(d.Conversations, d.Log))
				r.Delete("/{conversationID}", handleDeactivateConversation(d.Conversations, d.Log))
				r.Get("/{conversationID}/messages", handleGetMessages(d.Messaging, d.Log))
				r.Post("/{conversationID}/messages", handleSendMessage(d.Messaging, validate, d.Log))
			})

			r.Patch("/messages/{messageID}", handleEditMessage(d.Messages, validate, d.Log))
		})
	})

	r.Get("/ws", ws.MakeHandler(d.Hub, d.Gate, d.Messaging, d.Messages, d.Publisher, d.Config.CORSOrigins, d.Log))

	return r
}
