package identity

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeTokenExpired marks tokens past their max age.
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenInvalid marks tampered, malformed, or wrong-purpose tokens.
	TextCodeTokenInvalid = "TOKEN_INVALID"
	// TextCodeDuplicateEmail marks a registration that lost the uniqueness race.
	TextCodeDuplicateEmail = "DUPLICATE_EMAIL"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrMismatchedHashAndPassword is the generic credential failure. It is shared
// by "unknown email" and "wrong password" so callers cannot enumerate accounts.
var ErrMismatchedHashAndPassword = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before they reach bcrypt.
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired is returned when a purpose token is past its max age.
var ErrTokenExpired = goerrors.New("token has expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenInvalid covers tampered signatures, malformed payloads, and
// cross-purpose replay. The three causes are deliberately not distinguished.
var ErrTokenInvalid = goerrors.New("invalid or expired token", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenConfig is a startup failure: missing signing secret or purpose salt.
var ErrTokenConfig = goerrors.New("token codec is not configured", goerrors.CategoryInternal).
	WithCode(goerrors.CodeInternal)

// ErrUnableToDecodeSession unable to decode the session JWT from the cookie
var ErrUnableToDecodeSession = goerrors.New("unable to decode session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)
