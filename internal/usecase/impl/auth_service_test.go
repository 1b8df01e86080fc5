package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"credgate/config"
	"credgate/internal/domain/entity"
	domainerrors "credgate/internal/domain/errors"
	"credgate/internal/domain/repository"
	"credgate/internal/domain/service"
	mockRepo "credgate/internal/mocks/repository"
	mockSvc "credgate/internal/mocks/service"
	"credgate/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// authServiceFixtures holds all test dependencies for auth service tests.
type authServiceFixtures struct {
	service      *authService
	userRepo     *mockRepo.MockUserRepository
	hasher       *mockSvc.MockPasswordHasher
	tokenService *mockSvc.MockTokenService
	throttle     *mockSvc.MockLoginThrottle
	spans        *tracetest.SpanRecorder
}

func createTestAuthService(t *testing.T, cfg *config.Config) authServiceFixtures {
	userRepo := mockRepo.NewMockUserRepository(t)
	hasher := mockSvc.NewMockPasswordHasher(t)
	tokenService := mockSvc.NewMockTokenService(t)
	throttle := mockSvc.NewMockLoginThrottle(t)
	spans := tracetest.NewSpanRecorder()

	srv := newAuthService(AuthServiceParams{
		UserRepo:       userRepo,
		Hasher:         hasher,
		TokenService:   tokenService,
		Throttle:       throttle,
		TracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)),
		Config:         cfg,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	srv.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	return authServiceFixtures{
		service:      srv,
		userRepo:     userRepo,
		hasher:       hasher,
		tokenService: tokenService,
		throttle:     throttle,
		spans:        spans,
	}
}

func storedUser(username string) *entity.User {
	return &entity.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: "stored_hash",
	}
}

func lastSpanOutcome(t *testing.T, spans *tracetest.SpanRecorder) string {
	t.Helper()

	ended := spans.Ended()
	require.NotEmpty(t, ended)
	for _, kv := range ended[len(ended)-1].Attributes() {
		if kv.Key == attribute.Key(attributeSignInOutcome) {
			return kv.Value.AsString()
		}
	}

	return ""
}

func TestAuthService_Register_Success(t *testing.T) {
	fx := createTestAuthService(t, nil)

	fx.hasher.EXPECT().Hash("Secret123").Return("hashed_password", nil)
	fx.userRepo.EXPECT().
		Create(mock.Anything, mock.MatchedBy(func(u *entity.User) bool {
			return u.Username == "bob" &&
				u.PasswordHash == "hashed_password" &&
				!u.CreatedAt.IsZero() &&
				u.CreatedAt.Equal(u.UpdatedAt)
		})).
		Run(func(ctx context.Context, user *entity.User) {
			user.ID = uuid.New()
		}).
		Return(nil)

	output, err := fx.service.Register(context.Background(), &usecase.RegisterInput{Username: "bob", Password: "Secret123"})

	require.NoError(t, err)
	require.NotNil(t, output)
	assert.Equal(t, "bob", output.User.Username)
	assert.NotEqual(t, uuid.Nil, output.User.ID)
}

func TestAuthService_Register_EmptyUsername(t *testing.T) {
	fx := createTestAuthService(t, nil)

	for _, username := range []string{"", "   "} {
		output, err := fx.service.Register(context.Background(), &usecase.RegisterInput{Username: username, Password: "x"})

		assert.Nil(t, output)
		assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
	}
}

func TestAuthService_Register_Errors(t *testing.T) {
	tests := []struct {
		name      string
		hashErr   error
		createErr error
		wantErr   error
		notErr    error
	}{
		{
			name:      "duplicate username",
			createErr: repository.ErrDuplicateUsername,
			wantErr:   domainerrors.ErrUserAlreadyExists,
			notErr:    domainerrors.ErrStoreFailure,
		},
		{
			name:      "store fault",
			createErr: errors.New("connection refused"),
			wantErr:   domainerrors.ErrStoreFailure,
			notErr:    domainerrors.ErrUserAlreadyExists,
		},
		{
			name:    "hashing failure",
			hashErr: service.ErrHashingFailed,
			wantErr: domainerrors.ErrPasswordHashFailed,
			notErr:  domainerrors.ErrStoreFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestAuthService(t, nil)

			if tt.hashErr != nil {
				fx.hasher.EXPECT().Hash("pw").Return("", tt.hashErr)
			} else {
				fx.hasher.EXPECT().Hash("pw").Return("hashed", nil)
				fx.userRepo.EXPECT().Create(mock.Anything, mock.Anything).Return(tt.createErr)
			}

			output, err := fx.service.Register(context.Background(), &usecase.RegisterInput{Username: "bob", Password: "pw"})

			assert.Nil(t, output)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NotErrorIs(t, err, tt.notErr)
		})
	}
}

func TestAuthService_SignIn_Success(t *testing.T) {
	fx := createTestAuthService(t, nil)
	user := storedUser("bob")

	fx.throttle.EXPECT().Acquire(mock.Anything, "bob").Return(service.LoginAttempt{Remaining: 4}, nil)
	fx.userRepo.EXPECT().FindByUsername(mock.Anything, "bob").Return(user, nil)
	fx.hasher.EXPECT().Verify("Secret123", user.PasswordHash).Return(true, nil)
	fx.tokenService.EXPECT().Issue("bob", 60).Return("header.claims.signature", nil)
	fx.throttle.EXPECT().Reset(mock.Anything, "bob").Return(nil)

	output, err := fx.service.SignIn(context.Background(), &usecase.SignInInput{Username: "bob", Password: "Secret123"})

	require.NoError(t, err)
	assert.Equal(t, "header.claims.signature", output.AccessToken)
	assert.Equal(t, usecase.TokenTypeBearer, output.TokenType)
	assert.Equal(t, 3600, output.ExpiresIn)
	assert.Equal(t, outcomeIssued, lastSpanOutcome(t, fx.spans))
}

func TestAuthService_SignIn_ConfiguredTTL(t *testing.T) {
	cfg := &config.Config{}
	cfg.Token.TTLMinutes = 15
	fx := createTestAuthService(t, cfg)
	user := storedUser("bob")

	fx.throttle.EXPECT().Acquire(mock.Anything, "bob").Return(service.LoginAttempt{Remaining: 4}, nil)
	fx.userRepo.EXPECT().FindByUsername(mock.Anything, "bob").Return(user, nil)
	fx.hasher.EXPECT().Verify("pw", user.PasswordHash).Return(true, nil)
	fx.tokenService.EXPECT().Issue("bob", 15).Return("t", nil)
	fx.throttle.EXPECT().Reset(mock.Anything, "bob").Return(errors.New("redis down"))

	output, err := fx.service.SignIn(context.Background(), &usecase.SignInInput{Username: "bob", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, 900, output.ExpiresIn)
}

func TestAuthService_SignIn_UnknownUserAndWrongPasswordAreIndistinguishable(t *testing.T) {
	fx := createTestAuthService(t, nil)
	user := storedUser("bob")

	// Unknown user: the decoy hash is built once and verified on every miss.
	fx.throttle.EXPECT().Acquire(mock.Anything, "ghost").Return(service.LoginAttempt{Remaining: 4}, nil).Twice()
	fx.userRepo.EXPECT().FindByUsername(mock.Anything, "ghost").Return(nil, repository.ErrUserNotFound).Twice()
	fx.hasher.EXPECT().Hash(decoyPassword).Return("decoy_hash", nil).Once()
	fx.hasher.EXPECT().Verify("pw", "decoy_hash").Return(false, nil).Twice()

	// Known user, wrong password.
	fx.throttle.EXPECT().Acquire(mock.Anything, "bob").Return(service.LoginAttempt{Remaining: 4}, nil)
	fx.userRepo.EXPECT().FindByUsername(mock.Anything, "bob").Return(user, nil)
	fx.hasher.EXPECT().Verify("pw", user.PasswordHash).Return(false, nil)

	ctx := context.Background()
	_, unknownErr := fx.service.SignIn(ctx, &usecase.SignInInput{Username: "ghost", Password: "pw"})
	assert.Equal(t, outcomeUnknownUser, lastSpanOutcome(t, fx.spans))
	_, unknownAgainErr := fx.service.SignIn(ctx, &usecase.SignInInput{Username: "ghost", Password: "pw"})
	_, wrongErr := fx.service.SignIn(ctx, &usecase.SignInInput{Username: "bob", Password: "pw"})
	assert.Equal(t, outcomeWrongPassword, lastSpanOutcome(t, fx.spans))

	assert.ErrorIs(t, unknownErr, domainerrors.ErrInvalidCredentials)
	assert.Same(t, unknownErr, wrongErr)
	assert.Same(t, unknownAgainErr, wrongErr)
	assert.NotErrorIs(t, wrongErr, domainerrors.ErrStoreFailure)
}

func TestAuthService_SignIn_StoreFaultIsNotInvalidCredentials(t *testing.T) {
	fx := createTestAuthService(t, nil)

	fx.throttle.EXPECT().Acquire(mock.Anything, "bob").Return(service.LoginAttempt{Remaining: 4}, nil)
	fx.userRepo.EXPECT().FindByUsername(mock.Anything, "bob").Return(nil, context.DeadlineExceeded)

	output, err := fx.service.SignIn(context.Background(), &usecase.SignInInput{Username: "bob", Password: "pw"})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrStoreFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	assert.Equal(t, outcomeStoreFailure, lastSpanOutcome(t, fx.spans))
}

func TestAuthService_SignIn_MalformedStoredHash(t *testing.T) {
	fx := createTestAuthService(t, nil)
	user := storedUser("bob")

	fx.throttle.EXPECT().Acquire(mock.Anything, "bob").Return(service.LoginAttempt{Remaining: 4}, nil)
	fx.userRepo.EXPECT().FindByUsername(mock.Anything, "bob").Return(user, nil)
	fx.hasher.EXPECT().Verify("pw", user.PasswordHash).Return(false, errors.Wrap(service.ErrMalformedHash, "bad variant"))

	_, err := fx.service.SignIn(context.Background(), &usecase.SignInInput{Username: "bob", Password: "pw"})

	assert.ErrorIs(t, err, domainerrors.ErrCredentialIntegrity)
	assert.NotErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	assert.Equal(t, outcomeMalformedHash, lastSpanOutcome(t, fx.spans))
}

func TestAuthService_SignIn_Locked(t *testing.T) {
	fx := createTestAuthService(t, nil)

	fx.throttle.EXPECT().Acquire(mock.Anything, "bob").Return(service.LoginAttempt{RetryAfter: 90 * time.Second}, nil)

	_, err := fx.service.SignIn(context.Background(), &usecase.SignInInput{Username: "bob", Password: "Secret123"})

	assert.ErrorIs(t, err, domainerrors.ErrTooManyAttempts)
	var lockErr *domainerrors.TooManyAttemptsError
	require.ErrorAs(t, err, &lockErr)
	assert.Equal(t, 90*time.Second, lockErr.RetryAfter)
	assert.Equal(t, outcomeLocked, lastSpanOutcome(t, fx.spans))
}

func TestAuthService_SignIn_ThrottleFault(t *testing.T) {
	fx := createTestAuthService(t, nil)

	fx.throttle.EXPECT().Acquire(mock.Anything, "bob").Return(service.LoginAttempt{}, errors.New("redis down"))

	_, err := fx.service.SignIn(context.Background(), &usecase.SignInInput{Username: "bob", Password: "pw"})

	assert.ErrorIs(t, err, domainerrors.ErrInternalError)
	assert.NotErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_SignIn_RecordsRemainingAttempts(t *testing.T) {
	fx := createTestAuthService(t, nil)
	user := storedUser("bob")

	fx.throttle.EXPECT().Acquire(mock.Anything, "bob").Return(service.LoginAttempt{Remaining: 2}, nil)
	fx.userRepo.EXPECT().FindByUsername(mock.Anything, "bob").Return(user, nil)
	fx.hasher.EXPECT().Verify("wrong", user.PasswordHash).Return(false, nil)

	_, err := fx.service.SignIn(context.Background(), &usecase.SignInInput{Username: "bob", Password: "wrong"})
	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	ended := fx.spans.Ended()
	require.NotEmpty(t, ended)
	assert.Contains(t, ended[len(ended)-1].Attributes(), attribute.Int(attributeRemainingTries, 2))
}

func TestAuthService_SignIn_SigningFailure(t *testing.T) {
	fx := createTestAuthService(t, nil)
	user := storedUser("bob")

	fx.throttle.EXPECT().Acquire(mock.Anything, "bob").Return(service.LoginAttempt{Remaining: 4}, nil)
	fx.userRepo.EXPECT().FindByUsername(mock.Anything, "bob").Return(user, nil)
	fx.hasher.EXPECT().Verify("pw", user.PasswordHash).Return(true, nil)
	fx.tokenService.EXPECT().Issue("bob", 60).Return("", service.ErrSigningFailed)

	_, err := fx.service.SignIn(context.Background(), &usecase.SignInInput{Username: "bob", Password: "pw"})

	assert.ErrorIs(t, err, domainerrors.ErrTokenSigningFailed)
}

func TestAuthService_ListUsernames(t *testing.T) {
	fx := createTestAuthService(t, nil)

	fx.userRepo.EXPECT().ListUsernames(mock.Anything).Return([]string{"alice", "bob"}, nil).Once()
	fx.userRepo.EXPECT().ListUsernames(mock.Anything).Return(nil, errors.New("timeout")).Once()

	names, err := fx.service.ListUsernames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, names)

	_, err = fx.service.ListUsernames(context.Background())
	assert.ErrorIs(t, err, domainerrors.ErrStoreFailure)
}

func TestNewAuthService_Defaults(t *testing.T) {
	srv := newAuthService(AuthServiceParams{Config: &config.Config{}})

	assert.Equal(t, defaultTokenTTLMinutes, srv.tokenTTLMinutes)
	assert.NotNil(t, srv.tracer)
}
