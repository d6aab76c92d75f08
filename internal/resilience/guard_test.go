package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const origin = "https://example.org"

func failN(g *Guard, n int) {
	for i := 0; i < n; i++ {
		g.Report(origin, false)
	}
}

func TestOpensAfterThreshold(t *testing.T) {
	g := NewGuard(3, time.Minute)

	failN(g, 2)
	assert.NoError(t, g.Allow(origin))

	g.Report(origin, false)
	assert.ErrorIs(t, g.Allow(origin), ErrOriginOpen)
	assert.Equal(t, 3, g.Failures(origin))
}

func TestSuccessResetsFailures(t *testing.T) {
	g := NewGuard(3, time.Minute)

	failN(g, 2)
	g.Report(origin, true)
	assert.Equal(t, 0, g.Failures(origin))

	failN(g, 2)
	assert.NoError(t, g.Allow(origin))
}

func TestSingleProbeAfterCooldown(t *testing.T) {
	g := NewGuard(2, 10*time.Millisecond)

	failN(g, 2)
	require.ErrorIs(t, g.Allow(origin), ErrOriginOpen)

	time.Sleep(20 * time.Millisecond)
	assert.NoError(t, g.Allow(origin))
	assert.ErrorIs(t, g.Allow(origin), ErrOriginOpen)
}

func TestProbeSuccessCloses(t *testing.T) {
	g := NewGuard(2, 10*time.Millisecond)

	failN(g, 2)
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, g.Allow(origin))

	g.Report(origin, true)
	assert.NoError(t, g.Allow(origin))
	assert.Equal(t, 0, g.Failures(origin))
}

func TestProbeFailureReopens(t *testing.T) {
	g := NewGuard(2, 10*time.Millisecond)

	failN(g, 2)
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, g.Allow(origin))

	g.Report(origin, false)
	assert.ErrorIs(t, g.Allow(origin), ErrOriginOpen)
}

func TestOriginsAreIndependent(t *testing.T) {
	g := NewGuard(2, time.Minute)

	failN(g, 2)
	assert.ErrorIs(t, g.Allow(origin), ErrOriginOpen)
	assert.NoError(t, g.Allow("https://other.example"))
}

func TestDefaults(t *testing.T) {
	g := NewGuard(0, 0)
	assert.Equal(t, 5, g.threshold)
	assert.Equal(t, 30*time.Second, g.cooldown)
}
