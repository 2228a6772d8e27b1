package identity_test

import (
	"testing"
	"time"

	identity "github.com/clientease/go-identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSessionObject(t *testing.T) {
	userID := uuid.New().String()
	now := time.Now()

	session := &identity.SessionObject{
		UserID:         userID,
		Role:           "member",
		Verified:       true,
		Audience:       []string{"web"},
		Issuer:         "clientease",
		IssuedAt:       &now,
		ExpirationDate: &now,
	}

	assert.Equal(t, userID, session.GetUserID())

	userUUID, err := session.GetUserUUID()
	assert.NoError(t, err)
	assert.Equal(t, userID, userUUID.String())

	assert.Equal(t, []string{"web"}, session.GetAudience())
	assert.Equal(t, "clientease", session.GetIssuer())
	assert.Equal(t, &now, session.GetIssuedAt())
	assert.True(t, session.GetEmailVerified())

	stringRep := session.String()
	assert.Contains(t, stringRep, userID)
	assert.Contains(t, stringRep, "clientease")
	assert.Contains(t, stringRep, "verified=true")
}

func TestSessionObjectGetUserUUIDInvalid(t *testing.T) {
	session := &identity.SessionObject{UserID: "not-a-uuid"}

	_, err := session.GetUserUUID()
	assert.Error(t, err)
}
