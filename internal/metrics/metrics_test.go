package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsAreIndependent(t *testing.T) {
	t.Parallel()

	a := NewCollector("")
	b := NewCollector("")
	a.CacheHit()
	a.CacheHit()
	a.CacheMiss()

	assert.Equal(t, Snapshot{CacheHits: 2, CacheMisses: 1}, a.Snapshot())
	assert.Equal(t, Snapshot{}, b.Snapshot())
	assert.InDelta(t, 2.0/3.0, a.Snapshot().HitRate(), 1e-9)
}

func TestNilCollectorIsNoop(t *testing.T) {
	t.Parallel()

	var c *Collector
	c.CacheHit()
	c.CacheMiss()
	c.CacheSweep(3)
	c.EstimatorCall("estimate", "ok", time.Second)
	assert.Equal(t, Snapshot{}, c.Snapshot())
	assert.Zero(t, c.EstimatorCalls("estimate", "ok"))
}

func TestEstimatorCallsAndTextfile(t *testing.T) {
	t.Parallel()

	c := NewCollector("points")
	c.EstimatorCall("estimate", "ok", 120*time.Millisecond)
	c.EstimatorCall("estimate", "schema_error", 80*time.Millisecond)
	c.CacheSweep(4)
	assert.Equal(t, 1, c.EstimatorCalls("estimate", "ok"))
	assert.Equal(t, 4, c.Snapshot().CacheSwept)

	path := filepath.Join(t.TempDir(), "points.prom")
	require.NoError(t, c.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.True(t, strings.Contains(out, `points_estimator_requests_total{operation="estimate",outcome="ok"} 1`), out)
	assert.True(t, strings.Contains(out, "points_cache_swept_total 4"), out)
}
