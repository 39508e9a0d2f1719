package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beanstand/internal/errs"
	"beanstand/internal/model"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager([]byte("test-secret"))
	u := model.User{ID: 1, Email: "admin@example.com", Role: model.RoleAdmin}

	token, err := tm.Generate(u)
	require.NoError(t, err)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Subject)
	assert.Equal(t, model.RoleAdmin, claims.Role)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	u := model.User{ID: 1, Email: "admin@example.com", Role: model.RoleAdmin}
	token, err := NewTokenManager([]byte("secret-a")).Generate(u)
	require.NoError(t, err)

	_, err = NewTokenManager([]byte("secret-b")).Validate(token)
	assert.Equal(t, errs.KindAuthorization, errs.KindOf(err))
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewTokenManager([]byte("secret")).Validate("not-a-token")
	assert.Equal(t, errs.KindAuthorization, errs.KindOf(err))
}

func TestExpiredTokenRejected(t *testing.T) {
	tm := NewTokenManager([]byte("secret"))
	tm.ttl = -time.Minute
	token, err := tm.Generate(model.User{Email: "sato@example.com", Role: model.RoleCustomer})
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.Equal(t, errs.KindAuthorization, errs.KindOf(err))
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("kohi-dev")
	require.NoError(t, err)
	require.NotEqual(t, "kohi-dev", hash)

	assert.NoError(t, CheckPassword(hash, "kohi-dev"))
	err = CheckPassword(hash, "wrong")
	assert.Equal(t, errs.KindAuthorization, errs.KindOf(err))
}
