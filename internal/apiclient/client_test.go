package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/blaxing-console/internal/domain"
	"go.uber.org/zap"
)

func TestClientAttachesHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		assert.Equal(t, "/api/agents/list", r.URL.Path)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/", domain.HeaderConfig{
		Mode:         domain.ModeStaging,
		APIKey:       "k-1",
		BaseOverride: "http://staging.local",
	}, zap.NewNop())

	var out []domain.Agent
	require.NoError(t, c.Get(context.Background(), "agents.list", "/agents/list", nil, &out))

	assert.Equal(t, "staging", got.Get(domain.HeaderSource))
	assert.Equal(t, "k-1", got.Get(domain.HeaderAPIKey))
	assert.Equal(t, "http://staging.local", got.Get(domain.HeaderBase))
}

func TestClientBaseOverrideOnlyInStaging(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	c := New(srv.URL, domain.HeaderConfig{Mode: domain.ModeProd, BaseOverride: "http://ignored"}, zap.NewNop())
	require.NoError(t, c.Get(context.Background(), "config", "/config", nil, nil))

	assert.Equal(t, "prod", got.Get(domain.HeaderSource))
	assert.Empty(t, got.Get(domain.HeaderBase))
	assert.Empty(t, got.Get(domain.HeaderAPIKey))
}

func TestSetHeadersDoesNotTouchInFlightRequests(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	modes := make(chan string, 2)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		modes <- r.Header.Get(domain.HeaderSource)
		if r.URL.Path == "/slow" {
			close(arrived)
			<-release
		}
	}))
	defer srv.Close()

	c := New(srv.URL, domain.HeaderConfig{Mode: domain.ModeMock}, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- c.Get(context.Background(), "slow", "/slow", nil, nil) }()

	<-arrived
	c.SetHeaders(domain.HeaderConfig{Mode: domain.ModeProd})
	require.NoError(t, c.Get(context.Background(), "fast", "/fast", nil, nil))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, "mock", <-modes)
	assert.Equal(t, "prod", <-modes)
	assert.Equal(t, domain.ModeProd, c.Headers().Mode)
}

func TestClientSurfacesBackendDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Agent not found"})
	}))
	defer srv.Close()

	c := New(srv.URL, domain.DefaultHeaders(), zap.NewNop())
	err := c.Post(context.Background(), "agents.activate", "/agents/ghost/activate", nil, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	msg, ok := DetailMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Agent not found", msg)
}

func TestExtractDetailFallsBackToText(t *testing.T) {
	assert.Equal(t, "boom", extractDetail([]byte(`{"error":"boom"}`)))
	assert.Equal(t, "plain failure", extractDetail([]byte("  plain failure \n")))
	assert.Len(t, extractDetail([]byte(string(make([]byte, 1000)))), maxErrorBody)
}

func TestClientTimeoutCeiling(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := New(srv.URL, domain.DefaultHeaders(), zap.NewNop(), WithTimeout(50*time.Millisecond), WithMetrics(m))

	err := c.Get(context.Background(), "agents.list", "/agents/list", nil, nil)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorTotal.WithLabelValues("agents.list", "timeout")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
}

func TestClientDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := New(srv.URL, domain.DefaultHeaders(), zap.NewNop())
	var out domain.Agent
	err := c.Get(context.Background(), "agents.status", "/agents/x/status", nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestNewDefaultsTimeout(t *testing.T) {
	c := New("http://x", domain.DefaultHeaders(), zap.NewNop(), WithHTTPClient(&http.Client{}))
	assert.Equal(t, DefaultTimeout, c.http.Timeout)
	assert.Equal(t, "http://x", c.BaseURL())
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	detail := strings.Repeat("ж", maxErrorBody) // 2 байта на руну
	got := extractDetail([]byte("x" + detail))
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, maxErrorBody-1, len(got))

	list := extractDetail([]byte(`{"detail":["x` + detail + `"]}`))
	assert.True(t, utf8.ValidString(list))
	assert.LessOrEqual(t, len(list), maxErrorBody)
}

func TestWithHTTPClientDoesNotTouchCallerClient(t *testing.T) {
	shared := &http.Client{}
	c := New("http://x", domain.DefaultHeaders(), zap.NewNop(), WithHTTPClient(shared), WithTimeout(time.Second))

	assert.Equal(t, time.Second, c.http.Timeout)
	assert.Zero(t, shared.Timeout)
	assert.NotSame(t, shared, c.http)
}
