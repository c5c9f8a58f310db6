package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/mcpower/monash-timetabler/pkg/errors"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService("secret", "timetabler")
	token, expiresAt, err := svc.Issue("enr-1", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "enr-1", claims.Subject)
	assert.Equal(t, "timetabler", claims.Issuer)
}

func TestTokenServiceRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenService("one", "").Issue("enr-1", time.Hour)
	require.NoError(t, err)

	_, err = NewTokenService("two", "").Validate(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestTokenServiceRejectsExpired(t *testing.T) {
	svc := NewTokenService("secret", "")
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.Issue("enr-1", time.Hour)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(token)
	require.Error(t, err)
}

func TestTokenServiceRejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: "enr-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenService("secret", "").Validate(token)
	require.Error(t, err)
}

func TestTokenServiceRequiresSubject(t *testing.T) {
	_, _, err := NewTokenService("secret", "").Issue("", time.Hour)
	require.Error(t, err)
}
