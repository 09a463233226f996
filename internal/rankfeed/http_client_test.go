package rankfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weeklyPayload = `{
	"week": "2025-W31",
	"totalPool": "1000",
	"normalizationFactor": "1/10",
	"rankedBuilders": [
		{"builderId": "builder-1", "rank": 1, "activityScore": 100},
		{"builderId": "builder-2", "rank": 2, "activityScore": 75}
	]
}`

func TestWeeklyRankedBuilders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weeks/2025-W31/ranked-builders", r.URL.Path)
		w.Write([]byte(weeklyPayload))
	}))
	defer srv.Close()

	alloc, err := NewHTTPClient(srv.URL).WeeklyRankedBuilders(context.Background(), "2025-W31")
	require.NoError(t, err)

	assert.Equal(t, "2025-W31", alloc.Week)
	assert.Equal(t, int64(1000), alloc.TotalPool.Int64())
	assert.Equal(t, "1/10", alloc.NormalizationFactor.String())
	require.Len(t, alloc.RankedBuilders, 2)
	assert.Equal(t, "builder-1", alloc.RankedBuilders[0].BuilderID)
	assert.Equal(t, 1, alloc.RankedBuilders[0].Rank)
	assert.Equal(t, int64(100), alloc.RankedBuilders[0].ActivityScore)
}

func TestWeeklyRankedBuilders_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(weeklyPayload))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, WithMaxRetries(5))
	client.retryDelay = time.Millisecond

	alloc, err := client.WeeklyRankedBuilders(context.Background(), "2025-W31")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), alloc.TotalPool.Int64())
	assert.Equal(t, int32(3), calls.Load())
}

func TestWeeklyRankedBuilders_ExhaustedRetriesFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, WithMaxRetries(1))
	client.retryDelay = time.Millisecond

	_, err := client.WeeklyRankedBuilders(context.Background(), "2025-W31")
	assert.ErrorContains(t, err, "max retries exceeded")
}

func TestWeeklyRankedBuilders_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL).WeeklyRankedBuilders(context.Background(), "2025-W31")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWeeklyRankedBuilders_InvalidAmounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"week": "2025-W31", "totalPool": "not-a-number"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL).WeeklyRankedBuilders(context.Background(), "2025-W31")
	assert.ErrorContains(t, err, "invalid total pool")
}
