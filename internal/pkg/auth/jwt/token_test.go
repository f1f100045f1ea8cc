package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	payload := &Payload{ID: 7, Username: "alice"}

	token, err := GenerateToken(payload, "secret", SessionTokenExpiration)
	require.NoError(t, err)

	parsed, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(7), parsed.ID)
	assert.Equal(t, "alice", parsed.Username)
	assert.Equal(t, TokenIssuer, parsed.Issuer)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: 7, Username: "alice"}, "secret", SessionTokenExpiration)
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: 7, Username: "alice"}, "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, "secret")
	assert.Error(t, err)
}
