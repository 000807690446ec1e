package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestBuildEmpty(t *testing.T) {
	assert.Nil(t, Build(0, nil))
	assert.Nil(t, Build(0, []Config{{EventCount: 0, EventDur: 1}}))
}

func TestBuildSingleDelay(t *testing.T) {
	l := Build(200*time.Millisecond, nil)
	require.NotNil(t, l)
	assert.Equal(t, rate.Every(200*time.Millisecond), l.Limit())
}

func TestMultiLimiterUsesSlowestRate(t *testing.T) {
	l := Build(100*time.Millisecond, []Config{{EventCount: 1, EventDur: 2}})
	m, ok := l.(*MultiLimiter)
	require.True(t, ok)
	assert.Equal(t, Per(1, 2*time.Second), m.Limit())
}

func TestDelayLimiterSpacesRequests(t *testing.T) {
	l := NewDelayLimiter(50 * time.Millisecond)
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	// 首个请求不等待，后两个各等待约 50ms
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestWaitHonoursCancel(t *testing.T) {
	l := NewDelayLimiter(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, l.Wait(ctx))
	cancel()
	assert.Error(t, l.Wait(ctx))
}
