package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g, err := NewGenerator(2 * time.Hour)
	require.NoError(t, err)
	g.WithClock(func() time.Time { return now })

	userID := uuid.New()
	a, err := g.Generate(userID, true)
	require.NoError(t, err)
	require.Equal(t, userID, a.UserID)
	require.Len(t, a.Token, 43)
	require.True(t, a.RememberMe)
	require.Equal(t, now.Add(2*time.Hour), a.Expires)

	b, err := g.Generate(userID, false)
	require.NoError(t, err)
	require.NotEqual(t, a.Token, b.Token)
	require.False(t, b.RememberMe)

	c, err := g.GenerateFor(userID, time.Minute, false)
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Minute), c.Expires)
}

func TestInvalidDuration(t *testing.T) {
	_, err := NewGenerator(0)
	require.ErrorIs(t, err, ErrInvalidDuration)

	g, err := NewGenerator(time.Hour)
	require.NoError(t, err)
	_, err = g.GenerateFor(uuid.New(), -time.Second, false)
	require.ErrorIs(t, err, ErrInvalidDuration)
}
