package jobqueue

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-scoring/internal/platform/logging"
	"github.com/riskibarqy/fantasy-scoring/internal/platform/resilience"
	"github.com/stretchr/testify/require"
)

func newTestPublisher(t *testing.T, baseURL string, breaker resilience.CircuitBreakerConfig) *QStashPublisher {
	t.Helper()
	p, err := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:          baseURL,
		Token:            "qstash-token",
		TargetBaseURL:    "https://scoring.example.com/",
		Retries:          2,
		InternalJobToken: "job-secret",
		CircuitBreaker:   breaker,
	}, logging.NewNop())
	require.NoError(t, err)
	return p
}

func TestQStashPublisher_Enqueue(t *testing.T) {
	var gotPath, gotBody string
	var gotHeader http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeader = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	p := newTestPublisher(t, srv.URL, resilience.CircuitBreakerConfig{})
	payload := map[string]any{"gameweek": 3, "run_id": "run-1"}
	err := p.Enqueue(context.Background(), "v1/internal/rankings/recompute", payload, 90*time.Second, "rankings-gw-3")
	require.NoError(t, err)

	require.Equal(t, "/v2/publish/https://scoring.example.com/v1/internal/rankings/recompute", gotPath)
	require.Equal(t, "Bearer qstash-token", gotHeader.Get("Authorization"))
	require.Equal(t, "2", gotHeader.Get("Upstash-Retries"))
	require.Equal(t, "90s", gotHeader.Get("Upstash-Delay"))
	require.Equal(t, "rankings-gw-3", gotHeader.Get("Upstash-Deduplication-Id"))
	require.Equal(t, "job-secret", gotHeader.Get("Upstash-Forward-X-Internal-Job-Token"))
	require.JSONEq(t, `{"gameweek":3,"run_id":"run-1"}`, gotBody)
}

func TestQStashPublisher_RejectsEmptyPath(t *testing.T) {
	p := newTestPublisher(t, "https://qstash.example.com", resilience.CircuitBreakerConfig{})
	err := p.Enqueue(context.Background(), "  /", nil, 0, "")
	require.True(t, errors.Is(err, ErrInvalidJobPath), "got %v", err)
}

func TestQStashPublisher_BreakerOpensOnTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := newTestPublisher(t, srv.URL, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	for i := 0; i < 2; i++ {
		err := p.Enqueue(context.Background(), "/jobs", nil, 0, "")
		require.Error(t, err)
		require.True(t, isTransient(err), "got %v", err)
	}

	err := p.Enqueue(context.Background(), "/jobs", nil, 0, "")
	require.True(t, errors.Is(err, resilience.ErrCircuitOpen), "got %v", err)
	require.Equal(t, int32(2), calls.Load())
}

func TestQStashPublisher_ClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad destination", http.StatusBadRequest)
	}))
	defer srv.Close()

	p := newTestPublisher(t, srv.URL, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1})
	for i := 0; i < 3; i++ {
		err := p.Enqueue(context.Background(), "/jobs", nil, 0, "")
		require.Error(t, err)
		require.False(t, isTransient(err))
		require.True(t, strings.Contains(err.Error(), "status=400"), "got %v", err)
	}
	require.Equal(t, resilience.CircuitStateClosed, p.breaker.State())
}

func TestNewQStashPublisher_ValidatesConfig(t *testing.T) {
	_, err := NewQStashPublisher(QStashPublisherConfig{BaseURL: "ftp://qstash", Token: "t", TargetBaseURL: "https://x"}, nil)
	require.Error(t, err)

	_, err = NewQStashPublisher(QStashPublisherConfig{BaseURL: "https://qstash", Token: "t", TargetBaseURL: ""}, nil)
	require.Error(t, err)

	_, err = NewQStashPublisher(QStashPublisherConfig{BaseURL: "https://qstash", TargetBaseURL: "https://x"}, nil)
	require.Error(t, err)
}

func TestFormatDelayAndDescribeHeaders(t *testing.T) {
	require.Equal(t, "0s", formatDelay(-time.Second))
	require.Equal(t, "2s", formatDelay(1600*time.Millisecond))

	h := make(http.Header)
	h.Set("Upstash-Delay", "5s")
	h.Set("Upstash-Forward-X-Internal-Job-Token", "secret")
	require.Equal(t, "Upstash-Delay=5s Upstash-Forward-X-Internal-Job-Token=***", describeHeaders(h))
}
