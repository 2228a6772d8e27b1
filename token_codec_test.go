package identity_test

import (
	"strings"
	"testing"
	"time"

	identity "github.com/clientease/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T, opts ...identity.TokenCodecOption) *identity.TokenCodec {
	t.Helper()

	codec, err := identity.NewTokenCodec([]byte("test-secret"), map[identity.TokenPurpose]string{
		identity.TokenPurposeResetPassword: "reset-salt",
		identity.TokenPurposeVerifyEmail:   "verify-salt",
	}, opts...)
	require.NoError(t, err)

	return codec
}

func TestNewTokenCodecConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		secret []byte
		salts  map[identity.TokenPurpose]string
	}{
		{
			name:   "missing secret",
			secret: nil,
			salts: map[identity.TokenPurpose]string{
				identity.TokenPurposeResetPassword: "a",
				identity.TokenPurposeVerifyEmail:   "b",
			},
		},
		{
			name:   "missing reset salt",
			secret: []byte("secret"),
			salts: map[identity.TokenPurpose]string{
				identity.TokenPurposeVerifyEmail: "b",
			},
		},
		{
			name:   "empty verify salt",
			secret: []byte("secret"),
			salts: map[identity.TokenPurpose]string{
				identity.TokenPurposeResetPassword: "a",
				identity.TokenPurposeVerifyEmail:   "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := identity.NewTokenCodec(tt.secret, tt.salts)
			require.Error(t, err)
			assert.Nil(t, codec)
			assert.ErrorIs(t, err, identity.ErrTokenConfig)
		})
	}
}

func TestTokenCodecRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.Issue("Ada@Example.com", identity.TokenPurposeResetPassword)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	email, err := codec.Verify(token, identity.TokenPurposeResetPassword)
	require.NoError(t, err)

	// email is normalized on issue
	assert.Equal(t, "ada@example.com", email)
}

func TestTokenCodecPurposeIsolation(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.Issue("ada@example.com", identity.TokenPurposeResetPassword)
	require.NoError(t, err)

	_, err = codec.Verify(token, identity.TokenPurposeVerifyEmail)
	assert.ErrorIs(t, err, identity.ErrTokenInvalid)
}

func TestTokenCodecTamperedTokenRejected(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.Issue("ada@example.com", identity.TokenPurposeVerifyEmail)
	require.NoError(t, err)

	// flip a character in the payload segment
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	parts[1] = string(payload)

	_, err = codec.Verify(strings.Join(parts, "."), identity.TokenPurposeVerifyEmail)
	assert.ErrorIs(t, err, identity.ErrTokenInvalid)
}

func TestTokenCodecGarbageRejected(t *testing.T) {
	codec := newTestCodec(t)

	for _, raw := range []string{"", "garbage", "a.b.c", "aaaa.bbbb.cccc"} {
		_, err := codec.Verify(raw, identity.TokenPurposeResetPassword)
		assert.ErrorIs(t, err, identity.ErrTokenInvalid, "token %q", raw)
	}
}

func TestTokenCodecExpiry(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := issuedAt

	codec := newTestCodec(t, identity.WithTokenClock(func() time.Time {
		return current
	}))

	token, err := codec.Issue("ada@example.com", identity.TokenPurposeResetPassword)
	require.NoError(t, err)

	t.Run("valid just inside the window", func(t *testing.T) {
		current = issuedAt.Add(24*time.Hour - time.Second)
		_, err := codec.Verify(token, identity.TokenPurposeResetPassword)
		assert.NoError(t, err)
	})

	t.Run("expired past the window", func(t *testing.T) {
		current = issuedAt.Add(24*time.Hour + time.Second)
		_, err := codec.Verify(token, identity.TokenPurposeResetPassword)
		assert.ErrorIs(t, err, identity.ErrTokenExpired)
	})
}

func TestTokenCodecCustomMaxAge(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := issuedAt

	codec := newTestCodec(t,
		identity.WithTokenMaxAge(time.Hour),
		identity.WithTokenClock(func() time.Time { return current }),
	)

	token, err := codec.Issue("ada@example.com", identity.TokenPurposeVerifyEmail)
	require.NoError(t, err)

	current = issuedAt.Add(2 * time.Hour)
	_, err = codec.Verify(token, identity.TokenPurposeVerifyEmail)
	assert.ErrorIs(t, err, identity.ErrTokenExpired)
}

func TestTokenCodecStatelessReplay(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.Issue("ada@example.com", identity.TokenPurposeResetPassword)
	require.NoError(t, err)

	// tokens carry no server-side state; verifying twice succeeds twice
	for i := 0; i < 2; i++ {
		email, err := codec.Verify(token, identity.TokenPurposeResetPassword)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", email)
	}
}

func TestTokenCodecDifferentSecretsDoNotCrossValidate(t *testing.T) {
	codec := newTestCodec(t)

	other, err := identity.NewTokenCodec([]byte("another-secret"), map[identity.TokenPurpose]string{
		identity.TokenPurposeResetPassword: "reset-salt",
		identity.TokenPurposeVerifyEmail:   "verify-salt",
	})
	require.NoError(t, err)

	token, err := codec.Issue("ada@example.com", identity.TokenPurposeResetPassword)
	require.NoError(t, err)

	_, err = other.Verify(token, identity.TokenPurposeResetPassword)
	assert.ErrorIs(t, err, identity.ErrTokenInvalid)
}

func TestNewTokenCodecFromConfig(t *testing.T) {
	cfg := newMockConfig()

	codec, err := identity.NewTokenCodecFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, codec.MaxAge())

	token, err := codec.Issue("ada@example.com", identity.TokenPurposeVerifyEmail)
	require.NoError(t, err)

	email, err := codec.Verify(token, identity.TokenPurposeVerifyEmail)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", email)
}
