package service

import (
	"context"
	"fmt"
	"strings"

	"messaging/internal/domain"
	"messaging/internal/security"
)

// AuthService handles registration and login for the identity subsystem
// the gate resolves actors against.
type AuthService struct {
	users  domain.UserRepository
	tokens *security.TokenService
	hash   *security.PasswordHasher
}

func NewAuthService(users domain.UserRepository, tokens *security.TokenService, hash *security.PasswordHasher) *AuthService {
	return &AuthService{users: users, tokens: tokens, hash: hash}
}

type RegisterInput struct {
	Username    string
	DisplayName string
	Password    string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(strings.ToLower(in.Username))
	if username == "" || len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: username and a password of at least 8 characters are required", domain.ErrValidation)
	}
	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = username
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrConflict
	}

	hashed, err := s.hash.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:       username,
		DisplayName:    displayName,
		HashedPassword: hashed,
		Role:           "member",
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(strings.ToLower(username)))
	if err != nil {
		return "", nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || !user.IsActive {
		return "", nil, domain.ErrUnauthenticated
	}
	if err := s.hash.Verify(password, user.HashedPassword); err != nil {
		return "", nil, domain.ErrUnauthenticated
	}

	token, err := s.tokens.CreateForUser(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("create token: %w", err)
	}
	return token, user, nil
}
