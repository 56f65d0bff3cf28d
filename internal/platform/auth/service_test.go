package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeCredentialStore struct{ cred *Credentials }

func (f *fakeCredentialStore) GetByEmail(_ context.Context, email string) (*Credentials, error) {
	if f.cred != nil && f.cred.Email == email {
		return f.cred, nil
	}
	return nil, nil
}

func testService(t *testing.T, password string, active bool) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &Service{
		store: &fakeCredentialStore{cred: &Credentials{
			MemberID:     42,
			Email:        "ada@example.com",
			PasswordHash: string(hash),
			Role:         "librarian",
			IsActive:     active,
		}},
		secret: []byte("test-secret"),
		ttl:    time.Hour,
	}
}

func TestLoginIssuesToken(t *testing.T) {
	svc := testService(t, "supersecret", true)

	tokenStr, err := svc.Login(context.Background(), "  Ada@Example.COM ", "supersecret")
	require.NoError(t, err)

	token, err := jwt.Parse(tokenStr, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "42", claims["sub"])
	assert.Equal(t, "librarian", claims["role"])
}

func TestLoginFailures(t *testing.T) {
	svc := testService(t, "supersecret", true)
	ctx := context.Background()

	_, err := svc.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrAuthFailed)

	_, err = svc.Login(ctx, "nobody@example.com", "supersecret")
	assert.ErrorIs(t, err, ErrAuthFailed)

	inactive := testService(t, "supersecret", false)
	_, err = inactive.Login(ctx, "ada@example.com", "supersecret")
	assert.ErrorIs(t, err, ErrAuthFailed)
}
