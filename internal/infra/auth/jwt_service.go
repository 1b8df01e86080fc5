package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"credgate/config"
	"credgate/internal/domain/entity"
	"credgate/internal/domain/service"
)

// minSigningKeyLength matches the HS384 output size.
const minSigningKeyLength = 48

// jwtService is a concrete implementation of the TokenService interface using HS384-signed JWTs.
type jwtService struct {
	secret []byte
	now    func() time.Time
}

// NewJWTService is the constructor for jwtService.
// The signing secret is copied once at construction and never changes afterwards.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	svc, err := newJWTServiceWithClock(cfg.SecretKey.Signing, time.Now)
	if err != nil {
		return nil, err
	}

	return svc, nil
}

func newJWTServiceWithClock(secret string, now func() time.Time) (*jwtService, error) {
	if len(secret) < minSigningKeyLength {
		return nil, errors.Wrapf(service.ErrInvalidSigningKey,
			"secret must be at least %d bytes, got %d", minSigningKeyLength, len(secret))
	}

	return &jwtService{
		secret: []byte(secret),
		now:    now,
	}, nil
}

// Issue signs {"user_name","iat","exp"} for subject. Timestamps are unix seconds encoded as strings.
func (s *jwtService) Issue(subject string, ttlMinutes int) (string, error) {
	if ttlMinutes <= 0 {
		return "", errors.Wrapf(service.ErrSigningFailed, "ttl must be positive, got %d minutes", ttlMinutes)
	}

	issuedAt := s.now().Truncate(time.Second)
	claims := newWireClaims(entity.TokenClaims{
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(time.Duration(ttlMinutes) * time.Minute),
	})

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(service.ErrSigningFailed, err.Error())
	}

	return signed, nil
}

// wireClaims is the JSON claim set. Field order is the serialized order.
type wireClaims struct {
	UserName  string `json:"user_name"`
	IssuedAt  string `json:"iat"`
	ExpiresAt string `json:"exp"`
}

var _ jwt.Claims = wireClaims{}

func newWireClaims(c entity.TokenClaims) wireClaims {
	return wireClaims{
		UserName:  c.Subject,
		IssuedAt:  strconv.FormatInt(c.IssuedAt.Unix(), 10),
		ExpiresAt: strconv.FormatInt(c.ExpiresAt.Unix(), 10),
	}
}

// The registered-claim getters only satisfy jwt.Claims for signing.
// Issued tokens are never parsed here.
func (wireClaims) GetExpirationTime() (*jwt.NumericDate, error) { return nil, nil }
func (wireClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return nil, nil }
func (wireClaims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (wireClaims) GetIssuer() (string, error)                   { return "", nil }
func (wireClaims) GetSubject() (string, error)                  { return "", nil }
func (wireClaims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }
