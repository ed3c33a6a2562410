package domain

import "errors"

// Sentinel errors for the application. Handlers map these to HTTP status
// codes with errors.Is; lower layers wrap them with context via %w.
var (
	// ErrUnauthenticated means no session token was attached to the request.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrInvalidSession means a token was present but carried no resolvable
	// user identity (bad signature, expired, unknown or inactive subject).
	ErrInvalidSession = errors.New("invalid session")
	// ErrNotAuthorized means the actor is authenticated but not a member of
	// the conversation being acted on.
	ErrNotAuthorized = errors.New("not a conversation participant")

	ErrValidation       = errors.New("invalid input")
	ErrInvalidTarget    = errors.New("malformed target user id")
	ErrSelfConversation = errors.New("cannot create conversation with yourself")
	ErrTargetNotFound   = errors.New("target user not found")
	ErrEmptyContent     = errors.New("message content is empty")

	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource already exists")
	// ErrStorage is surfaced when the persistence layer is unavailable;
	// callers may retry the whole operation.
	ErrStorage = errors.New("storage failure")
)
