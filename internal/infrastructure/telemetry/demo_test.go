package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoProvider_Deterministic(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)

	a, err := NewDemoProvider(7, 10000).Get(ctx, "alice", date)
	require.NoError(t, err)
	b, err := NewDemoProvider(7, 10000).Get(ctx, "alice", date.Add(-15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, a, b, "same trader and day must give identical telemetry")

	c, err := NewDemoProvider(7, 10000).Get(ctx, "bob", date)
	require.NoError(t, err)
	d, err := NewDemoProvider(8, 10000).Get(ctx, "alice", date)
	require.NoError(t, err)
	assert.False(t, *a == *c && *a == *d, "different keys should not all collide")
}

func TestDemoProvider_RangeCoversEveryDay(t *testing.T) {
	p := NewDemoProvider(1, 0)
	start := time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	days, err := p.GetRange(context.Background(), "alice", start, end)
	require.NoError(t, err)
	require.Len(t, days, 5) // leap year: 27, 28, 29 Feb, 1, 2 Mar

	for i, d := range days {
		assert.Equal(t, start.AddDate(0, 0, i), d.Date)
		single, err := p.Get(context.Background(), "alice", d.Date)
		require.NoError(t, err)
		assert.Equal(t, single, d)
		assert.GreaterOrEqual(t, d.TradesCount, 0)
		assert.Greater(t, d.EquityOpen, 0.0)
	}

	empty, err := p.GetRange(context.Background(), "alice", end, start)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDemoProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDemoProvider(1, 0).Get(ctx, "alice", time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
