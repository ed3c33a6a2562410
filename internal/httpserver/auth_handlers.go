package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"messaging/internal/domain"
	"messaging/internal/service"
)

type registerRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	DisplayName string `json:"display_name" validate:"max=100"`
	Password    string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *domain.User `json:"user"`
}

func decodeAndValidate(r *http.Request, validate *validator.Validate, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body", domain.ErrValidation)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func handleRegister(authSvc *service.AuthService, validate *validator.Validate, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeAndValidate(r, validate, &req); err != nil {
			writeError(w, log, err)
			return
		}
		user, err := authSvc.Register(r.Context(), service.RegisterInput{
			Username:    req.Username,
			DisplayName: req.DisplayName,
			Password:    req.Password,
		})
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	}
}

func handleLogin(authSvc *service.AuthService, validate *validator.Validate, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeAndValidate(r, validate, &req); err != nil {
			writeError(w, log, err)
			return
		}
		token, user, err := authSvc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{
			AccessToken: token,
			TokenType:   "bearer",
			User:        user,
		})
	}
}

func handleMe(userSvc *service.UserService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := CurrentActor(r)
		if !ok {
			writeError(w, log, domain.ErrUnauthenticated)
			return
		}
		user, err := userSvc.GetByID(r.Context(), actor.UserID)
		if err != nil {
			writeError(w, log, err)
			return
		}
		if user == nil {
			writeError(w, log, domain.ErrNotFound)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}
