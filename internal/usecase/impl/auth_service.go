// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"credgate/config"
	deliverycontext "credgate/internal/delivery/context"
	"credgate/internal/domain/entity"
	domainerrors "credgate/internal/domain/errors"
	"credgate/internal/domain/repository"
	"credgate/internal/domain/service"
	"credgate/internal/usecase"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
)

const (
	tracerName             = "credgate/internal/usecase"
	defaultTokenTTLMinutes = 60

	// decoyPassword only seeds the hash verified when a username is unknown.
	decoyPassword = "credgate-decoy-password"
)

// Sign-in outcomes recorded on spans and in logs.
const (
	outcomeIssued          = "issued"
	outcomeUnknownUser     = "unknown_user"
	outcomeWrongPassword   = "wrong_password"
	outcomeLocked          = "locked"
	outcomeMalformedHash   = "malformed_hash"
	outcomeStoreFailure    = "store_failure"
	outcomeInternalFailure = "internal_failure"
)

const (
	attributeSignInOutcome  = "credgate.signin.outcome"
	attributeRemainingTries = "credgate.signin.remaining_attempts"
)

// authService implements the AuthUsecase interface.
type authService struct {
	userRepo        repository.UserRepository
	hasher          service.PasswordHasher
	tokenService    service.TokenService
	throttle        service.LoginThrottle
	tracer          trace.Tracer
	tokenTTLMinutes int
	logger          *slog.Logger
	now             func() time.Time

	decoyOnce sync.Once
	decoyHash string
	decoyErr  error
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	UserRepo       repository.UserRepository
	Hasher         service.PasswordHasher
	TokenService   service.TokenService
	Throttle       service.LoginThrottle
	TracerProvider trace.TracerProvider `optional:"true"`
	Config         *config.Config
	Logger         *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return newAuthService(params)
}

func newAuthService(params AuthServiceParams) *authService {
	ttl := defaultTokenTTLMinutes
	if params.Config != nil && params.Config.Token.TTLMinutes > 0 {
		ttl = params.Config.Token.TTLMinutes
	}

	tp := params.TracerProvider
	if tp == nil {
		tp = noop.NewTracerProvider()
	}

	return &authService{
		userRepo:        params.UserRepo,
		hasher:          params.Hasher,
		tokenService:    params.TokenService,
		throttle:        params.Throttle,
		tracer:          tp.Tracer(tracerName),
		tokenTTLMinutes: ttl,
		logger:          params.Logger,
		now:             time.Now,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register hashes the password and stores a new user.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	ctx, span := srv.tracer.Start(ctx, "AuthService.Register")
	defer span.End()

	if strings.TrimSpace(input.Username) == "" {
		srv.log(ctx).Warn("Registration rejected: empty username")

		return nil, domainerrors.ErrValidationFailed.WrapMessage("username must not be empty")
	}

	srv.log(ctx).Info("Starting registration", slog.String("username", input.Username))

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))
		markFailed(span, err)

		return nil, domainerrors.ErrPasswordHashFailed.WrapMessage("failed to hash password during registration")
	}

	now := srv.now().UTC()
	user := &entity.User{
		Username:     input.Username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := srv.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			srv.log(ctx).Info("Registration rejected: username taken", slog.String("username", input.Username))

			return nil, domainerrors.ErrUserAlreadyExists.WrapMessage("username already registered")
		}

		srv.log(ctx).Error("Failed to create user", slog.String("username", input.Username), slog.Any("error", err))
		markFailed(span, err)

		return nil, domainerrors.NewStoreError(err, "failed to create user")
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", user.ID))

	return &usecase.RegisterOutput{User: user}, nil
}

// SignIn verifies the submitted credentials and issues a token.
// Unknown usernames and wrong passwords return the same error after the same amount of hashing work.
func (srv *authService) SignIn(ctx context.Context, input *usecase.SignInInput) (*usecase.SignInOutput, error) {
	ctx, span := srv.tracer.Start(ctx, "AuthService.SignIn")
	defer span.End()

	logger := srv.log(ctx).With(slog.String("username", input.Username))

	// Claimed before lookup and hashing; concurrent sign-ins count against the same limit.
	attempt, err := srv.throttle.Acquire(ctx, input.Username)
	if err != nil {
		logger.Error("Login throttle check failed", slog.Any("error", err))
		recordOutcome(span, outcomeInternalFailure)
		markFailed(span, err)

		return nil, domainerrors.ErrInternalError.WrapMessage("login throttle check failed")
	}
	if attempt.Locked() {
		logger.Warn("Sign-in rejected: locked out", slog.Duration("retryAfter", attempt.RetryAfter))
		recordOutcome(span, outcomeLocked)

		return nil, domainerrors.NewTooManyAttemptsError(attempt.RetryAfter)
	}
	if attempt.Remaining >= 0 {
		span.SetAttributes(attribute.Int(attributeRemainingTries, attempt.Remaining))
	}

	user, err := srv.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.verifyDecoy(ctx, input.Password)

			return nil, rejectCredentials(span, logger, outcomeUnknownUser)
		}

		logger.Error("Failed to look up user", slog.Any("error", err))
		recordOutcome(span, outcomeStoreFailure)
		markFailed(span, err)

		return nil, domainerrors.NewStoreError(err, "failed to find user by username")
	}

	ok, err := srv.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		markFailed(span, err)

		if errors.Is(err, service.ErrMalformedHash) {
			logger.Error("Stored password hash is malformed", slog.Any("userID", user.ID), slog.Any("error", err))
			recordOutcome(span, outcomeMalformedHash)

			return nil, domainerrors.ErrCredentialIntegrity.WrapMessage("stored password hash is malformed")
		}

		logger.Error("Failed to verify password", slog.Any("error", err))
		recordOutcome(span, outcomeInternalFailure)

		return nil, domainerrors.ErrPasswordHashFailed.WrapMessage("failed to verify password")
	}
	if !ok {
		return nil, rejectCredentials(span, logger, outcomeWrongPassword)
	}

	token, err := srv.tokenService.Issue(user.Username, srv.tokenTTLMinutes)
	if err != nil {
		logger.Error("Failed to issue token", slog.Any("error", err))
		recordOutcome(span, outcomeInternalFailure)
		markFailed(span, err)

		return nil, domainerrors.ErrTokenSigningFailed.WrapMessage("failed to issue token")
	}

	if err := srv.throttle.Reset(ctx, input.Username); err != nil {
		logger.Warn("Failed to reset login throttle", slog.Any("error", err))
	}

	logger.Info("Sign-in succeeded")
	recordOutcome(span, outcomeIssued)

	return &usecase.SignInOutput{
		AccessToken: token,
		TokenType:   usecase.TokenTypeBearer,
		ExpiresIn:   srv.tokenTTLMinutes * 60,
	}, nil
}

// ListUsernames returns every registered username in ascending order.
func (srv *authService) ListUsernames(ctx context.Context) ([]string, error) {
	ctx, span := srv.tracer.Start(ctx, "AuthService.ListUsernames")
	defer span.End()

	usernames, err := srv.userRepo.ListUsernames(ctx)
	if err != nil {
		srv.log(ctx).Error("Failed to list usernames", slog.Any("error", err))
		markFailed(span, err)

		return nil, domainerrors.NewStoreError(err, "failed to list usernames")
	}

	return usernames, nil
}

// rejectCredentials returns the single error shared by both rejection reasons.
// The reason only reaches server logs and spans.
func rejectCredentials(span trace.Span, logger *slog.Logger, reason string) error {
	recordOutcome(span, reason)
	logger.Info("Sign-in rejected", slog.String("reason", reason))

	return domainerrors.ErrInvalidCredentials
}

// verifyDecoy spends one verification on a fixed hash so unknown usernames cost the same as wrong passwords.
func (srv *authService) verifyDecoy(ctx context.Context, password string) {
	srv.decoyOnce.Do(func() {
		srv.decoyHash, srv.decoyErr = srv.hasher.Hash(decoyPassword)
	})
	if srv.decoyErr != nil {
		srv.log(ctx).Error("Failed to prepare decoy hash", slog.Any("error", srv.decoyErr))

		return
	}

	_, _ = srv.hasher.Verify(password, srv.decoyHash)
}

func recordOutcome(span trace.Span, outcome string) {
	span.SetAttributes(attribute.String(attributeSignInOutcome, outcome))
}

func markFailed(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
