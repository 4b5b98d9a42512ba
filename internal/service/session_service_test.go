package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yar-app/yar-api/internal/models"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
)

func TestSessionServiceListMarksCurrent(t *testing.T) {
	alice := hashedUser(t, "u1", "alice", "password1")
	f := newAuthFixture(t, openPolicy(), alice)
	ctx := context.Background()

	first, err := f.svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "password1"})
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "password1", DeviceType: models.DeviceMobile})
	require.NoError(t, err)

	svc := NewSessionService(f.sessions, f.svc)
	sessions, err := svc.List(ctx, alice, first.RefreshToken)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	current := 0
	for _, s := range sessions {
		if s.Current {
			current++
			assert.Equal(t, models.DeviceDesktop, s.DeviceType)
		}
	}
	assert.Equal(t, 1, current)

	_, err = svc.List(ctx, alice, "")
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestSessionServiceRevokeRequiresOwner(t *testing.T) {
	alice := hashedUser(t, "u1", "alice", "password1")
	bob := hashedUser(t, "u2", "bob", "password2")
	f := newAuthFixture(t, openPolicy(), alice, bob)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "password1"})
	require.NoError(t, err)
	record, err := f.svc.ResolveSession(ctx, pair.RefreshToken)
	require.NoError(t, err)

	svc := NewSessionService(f.sessions, f.svc)
	assert.ErrorIs(t, svc.Revoke(ctx, bob, record.ID), appErrors.ErrInvalidCredentials)
	assert.ErrorIs(t, svc.Revoke(ctx, alice, "missing"), appErrors.ErrInvalidCredentials)
	assert.Equal(t, 1, f.sessions.count())

	require.NoError(t, svc.Revoke(ctx, alice, record.ID))
	assert.Equal(t, 0, f.sessions.count())
}

func TestSessionServiceRevokeAll(t *testing.T) {
	alice := hashedUser(t, "u1", "alice", "password1")
	bob := hashedUser(t, "u2", "bob", "password2")
	f := newAuthFixture(t, openPolicy(), alice, bob)
	ctx := context.Background()

	for _, name := range []string{"alice", "alice", "bob"} {
		password := "password1"
		if name == "bob" {
			password = "password2"
		}
		_, err := f.svc.Login(ctx, models.LoginRequest{Username: name, Password: password})
		require.NoError(t, err)
	}

	svc := NewSessionService(f.sessions, f.svc)
	require.NoError(t, svc.RevokeAll(ctx, alice))
	assert.Equal(t, 1, f.sessions.count())
}
