package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/storebox-portal/internal/model"
)

const testSecret = "test-secret"

func issueToken(t *testing.T, secret string, userID, role string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(expiresIn).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseValidToken(t *testing.T) {
	userID := uuid.New()
	parser := NewParser(testSecret)

	principal, err := parser.Parse(issueToken(t, testSecret, userID.String(), "ADMIN", time.Hour))
	require.NoError(t, err)
	assert.Equal(t, userID, principal.UserID)
	assert.Equal(t, model.RoleAdmin, principal.Role)
}

func TestParseDefaultsToCustomerRole(t *testing.T) {
	parser := NewParser(testSecret)

	principal, err := parser.Parse(issueToken(t, testSecret, uuid.NewString(), "something_else", time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, principal.Role)
}

func TestParseRejectsBadTokens(t *testing.T) {
	parser := NewParser(testSecret)

	testCases := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: issueToken(t, "other-secret", uuid.NewString(), "CUSTOMER", time.Hour)},
		{name: "expired", token: issueToken(t, testSecret, uuid.NewString(), "CUSTOMER", -time.Hour)},
		{name: "bad user id claim", token: issueToken(t, testSecret, "42", "CUSTOMER", time.Hour)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parser.Parse(tc.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
