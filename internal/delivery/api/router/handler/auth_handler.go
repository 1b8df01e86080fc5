// Package handler contains the HTTP handlers for the API.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"credgate/internal/delivery/api/response"
	"credgate/internal/delivery/api/validator"
	domainerrors "credgate/internal/domain/errors"
	"credgate/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	AuthUC usecase.AuthUsecase
	Logger *slog.Logger
}

// AuthHandler holds dependencies for credential handlers
type AuthHandler struct {
	uc     usecase.AuthUsecase
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		uc:     params.AuthUC,
		logger: params.Logger,
	}
}

// CredentialRequest is the body of /register and /signin, sent as a form or as JSON.
type CredentialRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=255"`
	Password string `json:"password" form:"password" validate:"maxbytes=1024"`
}

// RegisterResponse is returned after a successful registration
type RegisterResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// SignInResponse carries the issued bearer token
type SignInResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// UsersResponse lists registered usernames
type UsersResponse struct {
	Usernames []string `json:"usernames"`
}

// Register handles user registration. No token is issued.
func (h *AuthHandler) Register(c echo.Context) error {
	var req CredentialRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, domainerrors.ErrValidationFailed.ErrorCode(), "Invalid registration input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequestWithDetails(c,
			domainerrors.ErrValidationFailed.ErrorCode(),
			domainerrors.ErrValidationFailed.Message(),
			validator.Details(err),
		)
	}

	output, err := h.uc.Register(c.Request().Context(), &usecase.RegisterInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, RegisterResponse{
		ID:        output.User.ID,
		Username:  output.User.Username,
		CreatedAt: output.User.CreatedAt,
	})
}

// SignIn verifies credentials and returns a bearer token.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req CredentialRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, domainerrors.ErrValidationFailed.ErrorCode(), "Invalid sign-in input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequestWithDetails(c,
			domainerrors.ErrValidationFailed.ErrorCode(),
			domainerrors.ErrValidationFailed.Message(),
			validator.Details(err),
		)
	}

	output, err := h.uc.SignIn(c.Request().Context(), &usecase.SignInInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")

	return response.Success(c, http.StatusOK, SignInResponse{
		AccessToken: output.AccessToken,
		TokenType:   output.TokenType,
		ExpiresIn:   output.ExpiresIn,
	})
}

// ListUsers returns every registered username.
func (h *AuthHandler) ListUsers(c echo.Context) error {
	usernames, err := h.uc.ListUsernames(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, UsersResponse{Usernames: usernames})
}
