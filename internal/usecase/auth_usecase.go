// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"credgate/internal/domain/entity"
)

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "Bearer"

// --- Input DTOs ---

// RegisterInput defines the data required to register a new user.
type RegisterInput struct {
	Username string
	Password string
}

// SignInInput defines the credentials submitted for sign-in.
type SignInInput struct {
	Username string
	Password string
}

// --- Output DTOs ---

// RegisterOutput returns the newly created user. No token is issued on registration.
type RegisterOutput struct {
	User *entity.User
}

// SignInOutput returns the issued bearer token.
type SignInOutput struct {
	AccessToken string
	TokenType   string
	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int
}

// AuthUsecase defines the credential verification and token issuance operations.
// This is the contract that the delivery layer depends on.
type AuthUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)
	SignIn(ctx context.Context, input *SignInInput) (*SignInOutput, error)
	ListUsernames(ctx context.Context) ([]string, error)
}
