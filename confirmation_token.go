package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	// ConfirmationAudience scopes tokens to email confirmation only
	ConfirmationAudience = "email_confirmation"
	// DefaultConfirmationTTL is how long a confirmation token stays valid
	DefaultConfirmationTTL = 24 * time.Hour
	// DefaultTokenIssuer is used when no issuer is configured
	DefaultTokenIssuer = "go-accounts"
)

// ConfirmationClaims are the claims carried by a confirmation token
type ConfirmationClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Stamp string `json:"stm"`
}

// ConfirmationTokenService signs and verifies confirmation tokens with HMAC
type ConfirmationTokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
	logger     Logger
}

// ConfirmationTokenOption customizes the token service
type ConfirmationTokenOption func(*ConfirmationTokenService)

// WithTokenClock injects a custom clock (useful for tests)
func WithTokenClock(clock func() time.Time) ConfirmationTokenOption {
	return func(s *ConfirmationTokenService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithTokenLogger overrides the logger
func WithTokenLogger(logger Logger) ConfirmationTokenOption {
	return func(s *ConfirmationTokenService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewConfirmationTokenService creates a token service. An empty issuer or a
// non-positive ttl fall back to defaults.
func NewConfirmationTokenService(signingKey []byte, issuer string, ttl time.Duration, opts ...ConfirmationTokenOption) *ConfirmationTokenService {
	if issuer == "" {
		issuer = DefaultTokenIssuer
	}
	if ttl <= 0 {
		ttl = DefaultConfirmationTTL
	}

	s := &ConfirmationTokenService{
		signingKey: signingKey,
		issuer:     issuer,
		ttl:        ttl,
		now:        time.Now,
		logger:     defLogger("accounts.confirmation_tokens"),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// NewConfirmationTokenServiceFromConfig builds the service from Config
func NewConfirmationTokenServiceFromConfig(cfg Config, opts ...ConfirmationTokenOption) *ConfirmationTokenService {
	return NewConfirmationTokenService(
		[]byte(cfg.GetTokenSigningKey()),
		cfg.GetTokenIssuer(),
		cfg.GetTokenTTL(),
		opts...,
	)
}

// Issue creates a token bound to the account id, email and security stamp
func (s *ConfirmationTokenService) Issue(account *Account) (string, error) {
	if account == nil || account.ID == uuid.Nil {
		return "", errors.New("account is required to issue a token", errors.CategoryBadInput)
	}

	if len(s.signingKey) == 0 {
		return "", errors.New("confirmation token signing key is empty", errors.CategoryInternal)
	}

	now := s.now()
	claims := &ConfirmationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   account.ID.String(),
			Audience:  jwt.ClaimStrings{ConfirmationAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email: NormalizeEmail(account.Email),
		Stamp: account.SecurityStamp,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign confirmation token")
	}

	return signed, nil
}

// Verify reports whether token was issued for account and is still fresh
func (s *ConfirmationTokenService) Verify(account *Account, token string) bool {
	claims, err := s.Parse(token)
	if err != nil {
		s.logger.Debug("confirmation token rejected", "error", err)
		return false
	}

	if account == nil {
		return false
	}

	if claims.Subject != account.ID.String() {
		return false
	}

	if claims.Email != NormalizeEmail(account.Email) {
		return false
	}

	return claims.Stamp != "" && claims.Stamp == account.SecurityStamp
}

// Parse validates signature, issuer, audience and freshness of token
func (s *ConfirmationTokenService) Parse(raw string) (*ConfirmationClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &ConfirmationClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(ConfirmationAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	if err != nil {
		return nil, normalizeTokenError(err)
	}

	claims, ok := token.Claims.(*ConfirmationClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

func normalizeTokenError(err error) error {
	clone := ErrTokenMalformed.Clone()
	if errors.Is(err, jwt.ErrTokenExpired) {
		clone = ErrTokenExpired.Clone()
	}

	if clone == nil {
		return err
	}

	clone.Source = err
	return clone.WithMetadata(map[string]any{
		"cause": err.Error(),
	})
}

var _ ConfirmationTokens = (*ConfirmationTokenService)(nil)
