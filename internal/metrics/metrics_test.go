package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemorySinkRecords(t *testing.T) {
	sink := NewInMemorySink()

	sink.Record("GET", "/api/products", 200, 12*time.Millisecond)
	sink.Record("GET", "/api/products", 200, 8*time.Millisecond)
	sink.Record("POST", "/api/orders", 400, 4*time.Millisecond)
	sink.Record("GET", "/api/orders/:id", 404, 2*time.Millisecond)

	snap := sink.Snapshot()
	assert.Equal(t, int64(4), snap.TotalRequests)
	assert.Equal(t, int64(2), snap.SuccessfulRequests)
	assert.Equal(t, int64(2), snap.FailedRequests)
	assert.Equal(t, int64(2), snap.RequestsByEndpoint["GET /api/products"])
	assert.Equal(t, int64(1), snap.ErrorsByStatus[400])
	assert.Equal(t, int64(1), snap.ErrorsByStatus[404])
	assert.Greater(t, snap.AvgResponseMs, 0.0)
}

func TestSnapshotIsACopy(t *testing.T) {
	sink := NewInMemorySink()
	sink.Record("GET", "/api/products", 200, time.Millisecond)

	snap := sink.Snapshot()
	snap.RequestsByEndpoint["GET /api/products"] = 99

	assert.Equal(t, int64(1), sink.Snapshot().RequestsByEndpoint["GET /api/products"])
}

func TestSinkIsConcurrencySafe(t *testing.T) {
	sink := NewInMemorySink()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sink.Record("GET", "/api/products", 200, time.Millisecond)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(2000), sink.Snapshot().TotalRequests)
}
