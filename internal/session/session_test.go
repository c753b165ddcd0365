package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront-state/internal/auth"
	"github.com/example/storefront-state/internal/infrastructure/storage"
	"github.com/example/storefront-state/internal/infrastructure/storage/mocks"
)

func signToken(t *testing.T, userID string, expiresAt time.Time) string {
	t.Helper()

	claims := auth.Claims{
		UserID: userID,
		Email:  userID + "@example.com",
		Role:   "USER",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Subject:   userID,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return signed
}

func TestManager_SetToken(t *testing.T) {
	ctx := context.Background()
	adapter := mocks.NewMockAdapter()
	m := NewManager(ctx, adapter, auth.NewInspector())

	tokenString := signToken(t, "user-1", time.Now().Add(time.Hour))
	require.NoError(t, m.SetToken(ctx, tokenString))

	assert.Equal(t, tokenString, m.Token())
	assert.True(t, m.Valid(time.Now()))

	identity, ok := m.Identity()
	require.True(t, ok)
	assert.Equal(t, "user-1", identity.ID)
	assert.Equal(t, "user-1@example.com", identity.Email)

	// both slots were persisted
	stored, ok := adapter.Stored(storage.SlotAuthToken)
	require.True(t, ok)
	assert.Equal(t, tokenString, string(stored))
	_, ok = adapter.Stored(storage.SlotUserInfo)
	assert.True(t, ok)
}

func TestManager_SetToken_RejectsMalformed(t *testing.T) {
	ctx := context.Background()
	m := NewManager(ctx, mocks.NewMockAdapter(), auth.NewInspector())

	err := m.SetToken(ctx, "not-a-token")

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
	assert.Empty(t, m.Token())
}

func TestManager_HydratesFromStorage(t *testing.T) {
	ctx := context.Background()
	adapter := mocks.NewMockAdapter()
	tokenString := signToken(t, "user-1", time.Now().Add(time.Hour))
	adapter.Seed(storage.SlotAuthToken, []byte(tokenString))
	adapter.Seed(storage.SlotUserInfo, []byte(`{"id":"user-1","email":"user-1@example.com"}`))

	m := NewManager(ctx, adapter, auth.NewInspector())

	assert.Equal(t, tokenString, m.Token())
	identity, ok := m.Identity()
	require.True(t, ok)
	assert.Equal(t, "user-1", identity.ID)
}

func TestManager_CorruptIdentityDegradesToAnonymous(t *testing.T) {
	ctx := context.Background()
	adapter := mocks.NewMockAdapter()
	adapter.Seed(storage.SlotUserInfo, []byte("{broken"))

	m := NewManager(ctx, adapter, auth.NewInspector())

	_, ok := m.Identity()
	assert.False(t, ok)
}

func TestManager_Logout(t *testing.T) {
	ctx := context.Background()
	adapter := mocks.NewMockAdapter()
	m := NewManager(ctx, adapter, auth.NewInspector())
	require.NoError(t, m.SetToken(ctx, signToken(t, "user-1", time.Now().Add(time.Hour))))
	m.MarkExpired()

	m.Logout(ctx)

	assert.Empty(t, m.Token())
	assert.False(t, m.Expired())
	_, ok := m.Identity()
	assert.False(t, ok)

	_, ok = adapter.Stored(storage.SlotAuthToken)
	assert.False(t, ok)
	_, ok = adapter.Stored(storage.SlotUserInfo)
	assert.False(t, ok)
}

func TestManager_ExpiredFlagClearedByNewLogin(t *testing.T) {
	ctx := context.Background()
	m := NewManager(ctx, mocks.NewMockAdapter(), auth.NewInspector())

	m.MarkExpired()
	assert.True(t, m.Expired())

	require.NoError(t, m.SetToken(ctx, signToken(t, "user-2", time.Now().Add(time.Hour))))
	assert.False(t, m.Expired())
}

func TestManager_WatchdogIntegration(t *testing.T) {
	ctx := context.Background()
	m := NewManager(ctx, mocks.NewMockAdapter(), auth.NewInspector())

	// a token that expires almost immediately
	require.NoError(t, m.SetToken(ctx, signToken(t, "user-1", time.Now().Add(30*time.Millisecond))))

	expired := make(chan struct{})
	w := NewWatchdog(5*time.Millisecond,
		func() (bool, bool) {
			token := m.Token()
			return token != "", m.Valid(time.Now())
		},
		func() {
			m.MarkExpired()
			close(expired)
		},
	)
	defer w.Stop()
	require.True(t, w.Arm())

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("watchdog did not fire")
	}
	assert.True(t, m.Expired())
}
