package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenPurpose binds a token to a single declared use-case.
type TokenPurpose string

const (
	// TokenPurposeResetPassword scopes tokens minted for password resets.
	TokenPurposeResetPassword TokenPurpose = "reset_password"
	// TokenPurposeVerifyEmail scopes tokens minted for account verification.
	TokenPurposeVerifyEmail TokenPurpose = "verify_email"
)

// DefaultTokenMaxAge is how long a purpose token stays valid after issuance.
const DefaultTokenMaxAge = 24 * time.Hour

// purposeClaims is the wire payload: the email travels as the subject and the
// purpose rides along so a decoded token is self-describing.
type purposeClaims struct {
	jwt.RegisteredClaims
	Purpose string `json:"pps,omitempty"`
}

// TokenCodec creates and verifies purpose-scoped, time-bound, tamper-evident
// tokens over an email address. Tokens are stateless: validity is purely a
// function of signature and elapsed time, so a consumed token remains valid
// until natural expiry.
type TokenCodec struct {
	keys   map[TokenPurpose][]byte
	maxAge time.Duration
	now    func() time.Time
	logger Logger
}

// TokenCodecOption customizes codec construction.
type TokenCodecOption func(*TokenCodec)

// WithTokenMaxAge overrides the 24h default.
func WithTokenMaxAge(maxAge time.Duration) TokenCodecOption {
	return func(tc *TokenCodec) {
		if maxAge > 0 {
			tc.maxAge = maxAge
		}
	}
}

// WithTokenClock injects a custom clock (useful for tests).
func WithTokenClock(clock func() time.Time) TokenCodecOption {
	return func(tc *TokenCodec) {
		if clock != nil {
			tc.now = clock
		}
	}
}

// WithTokenLogger overrides the logger used by the codec.
func WithTokenLogger(logger Logger) TokenCodecOption {
	return func(tc *TokenCodec) {
		if logger != nil {
			tc.logger = logger
		}
	}
}

// NewTokenCodec derives one signing key per purpose from the secret and the
// purpose salt. A missing secret or salt is a configuration failure surfaced
// at startup, never per request.
func NewTokenCodec(secret []byte, salts map[TokenPurpose]string, opts ...TokenCodecOption) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, goerrors.Wrap(ErrTokenConfig, goerrors.CategoryInternal, "signing secret is required")
	}

	required := []TokenPurpose{TokenPurposeResetPassword, TokenPurposeVerifyEmail}
	keys := make(map[TokenPurpose][]byte, len(salts))

	for _, purpose := range required {
		salt, ok := salts[purpose]
		if !ok || salt == "" {
			return nil, goerrors.Wrap(ErrTokenConfig, goerrors.CategoryInternal, "missing token salt").
				WithMetadata(map[string]any{"purpose": string(purpose)})
		}
	}

	for purpose, salt := range salts {
		if salt == "" {
			return nil, goerrors.Wrap(ErrTokenConfig, goerrors.CategoryInternal, "empty token salt").
				WithMetadata(map[string]any{"purpose": string(purpose)})
		}
		keys[purpose] = deriveKey(secret, salt)
	}

	tc := &TokenCodec{
		keys:   keys,
		maxAge: DefaultTokenMaxAge,
		now:    time.Now,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(tc)
		}
	}

	return tc, nil
}

// NewTokenCodecFromConfig builds a codec from the shared Config surface.
func NewTokenCodecFromConfig(cfg Config, opts ...TokenCodecOption) (*TokenCodec, error) {
	if cfg.GetTokenMaxAge() > 0 {
		opts = append(opts, WithTokenMaxAge(time.Duration(cfg.GetTokenMaxAge())*time.Hour))
	}
	return NewTokenCodec([]byte(cfg.GetSigningKey()), map[TokenPurpose]string{
		TokenPurposeResetPassword: cfg.GetPasswordResetSalt(),
		TokenPurposeVerifyEmail:   cfg.GetVerifyEmailSalt(),
	}, opts...)
}

// MaxAge returns the configured validity window.
func (tc *TokenCodec) MaxAge() time.Duration {
	return tc.maxAge
}

// Issue produces an opaque, URL-safe token encoding the email plus its
// issuance timestamp, signed with the purpose-specific key.
func (tc *TokenCodec) Issue(email string, purpose TokenPurpose) (string, error) {
	key, ok := tc.keys[purpose]
	if !ok {
		return "", goerrors.Wrap(ErrTokenConfig, goerrors.CategoryInternal, "no salt registered for purpose").
			WithMetadata(map[string]any{"purpose": string(purpose)})
	}

	now := tc.now()
	claims := &purposeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  NormalizeEmail(email),
			IssuedAt: jwt.NewNumericDate(now),
			ID:       uuid.NewString(),
		},
		Purpose: string(purpose),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(key)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign purpose token")
	}

	return signed, nil
}

// Verify recomputes the signature and checks elapsed time, returning the
// embedded email. Tampering, cross-purpose replay, and malformed payloads all
// collapse into ErrTokenInvalid; only age is reported as ErrTokenExpired.
// Verification failure is data, not an exceptional condition.
func (tc *TokenCodec) Verify(tokenString string, purpose TokenPurpose) (string, error) {
	key, ok := tc.keys[purpose]
	if !ok {
		return "", goerrors.Wrap(ErrTokenConfig, goerrors.CategoryInternal, "no salt registered for purpose").
			WithMetadata(map[string]any{"purpose": string(purpose)})
	}

	token, err := jwt.ParseWithClaims(tokenString, &purposeClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			tc.logger.Error("TokenCodec verify encountered unexpected signing method: %v", t.Header["alg"])
			return nil, ErrTokenInvalid
		}
		return key, nil
	})

	if err != nil {
		tc.logger.Debug("TokenCodec verify rejected %s token: %v", purpose, err)
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(*purposeClaims)
	if !ok || !token.Valid {
		return "", ErrTokenInvalid
	}

	if claims.Purpose != string(purpose) {
		return "", ErrTokenInvalid
	}

	if claims.IssuedAt == nil {
		return "", ErrTokenInvalid
	}

	// expiry is issued_at + max_age < now, on the wall clock
	if tc.now().After(claims.IssuedAt.Time.Add(tc.maxAge)) {
		return "", ErrTokenExpired
	}

	return claims.RegisteredClaims.Subject, nil
}

// deriveKey binds the shared secret to a purpose salt so that signatures for
// one purpose never validate for another.
func deriveKey(secret []byte, salt string) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(salt))
	return mac.Sum(nil)
}
