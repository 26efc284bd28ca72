package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRefreshToken_Active(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	revoked := now.Add(-time.Minute)

	tests := []struct {
		name string
		tok  RefreshToken
		want bool
	}{
		{"active", RefreshToken{ExpiresAt: now.Add(time.Hour)}, true},
		{"expired", RefreshToken{ExpiresAt: now.Add(-time.Second)}, false},
		{"expires_exactly_now", RefreshToken{ExpiresAt: now}, false},
		{"revoked", RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.tok.Active(now))
		})
	}
}

func TestUserIdentifier_Empty(t *testing.T) {
	require.True(t, UserIdentifier{}.Empty())
	require.True(t, UserIdentifier{UserID: -1}.Empty())
	require.False(t, UserIdentifier{Email: "alice@example.com"}.Empty())
	require.False(t, UserIdentifier{Username: "alice"}.Empty())
	require.False(t, UserIdentifier{UserID: 7}.Empty())
}
