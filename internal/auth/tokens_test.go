package auth

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/robertarktes/event-marketplace/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", 24*time.Hour)
	id := uuid.New()

	token, exp, err := m.Issue(id, domain.RoleVendor)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), exp, 5*time.Second)

	p, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, p.UserID)
	assert.Equal(t, domain.RoleVendor, p.Role)
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager("secret", 24*time.Hour)
	issuedAt := time.Now().Add(-25 * time.Hour)
	m.now = func() time.Time { return issuedAt }
	token, _, err := m.Issue(uuid.New(), domain.RoleAttendee)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(token)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("a", time.Hour).Issue(uuid.New(), domain.RoleOrganizer)
	require.NoError(t, err)

	_, err = NewTokenManager("b", time.Hour).Verify(token)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestTokenManager_RejectsUnsignedAndForeignRoles(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		ID:               uuid.NewString(),
		Role:             domain.RoleOrganizer,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Verify(unsigned)
	assert.Error(t, err)

	admin, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:               uuid.NewString(),
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.Verify(admin)
	assert.Error(t, err)
}
