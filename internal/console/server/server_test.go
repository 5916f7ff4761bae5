package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/blaxing-console/internal/apiclient"
	"github.com/xela07ax/blaxing-console/internal/dashboard"
	"github.com/xela07ax/blaxing-console/internal/domain"
	"github.com/xela07ax/blaxing-console/internal/journal"
	"github.com/xela07ax/blaxing-console/internal/mockbackend"
	"github.com/xela07ax/blaxing-console/internal/resource"
	"github.com/xela07ax/blaxing-console/internal/state"
	"go.uber.org/zap"
)

func newConsole(t *testing.T, opts Options, backend mockbackend.Options) *httptest.Server {
	t.Helper()
	b := mockbackend.New(backend, zap.NewNop())
	api := httptest.NewServer(b.Handler())
	t.Cleanup(api.Close)

	headers := domain.HeaderConfig{Mode: domain.ModeMock, APIKey: backend.APIKey}
	reg := prometheus.NewRegistry()
	c := apiclient.New(api.URL+"/api", headers, zap.NewNop(),
		apiclient.WithTimeout(2*time.Second), apiclient.WithMetrics(apiclient.NewMetrics(reg)))
	d := dashboard.New(c, resource.New(c), state.NewStore(headers, 0), zap.NewNop(),
		dashboard.WithPollInterval(time.Hour))
	require.NoError(t, d.Mount(context.Background()))
	t.Cleanup(func() {
		d.Unmount()
		d.Wait()
	})

	opts.Gatherer = reg
	srv := httptest.NewServer(NewConsoleServer(d, opts, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func noticeOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	n, ok := body["notice"].(map[string]any)
	require.True(t, ok, "response has no notice: %v", body)
	return n
}

func TestStateMasksKeyAndHidesURLs(t *testing.T) {
	srv := newConsole(t, Options{HideWebhookURLs: true}, mockbackend.Options{
		APIKey:   "console-secret",
		Bindings: domain.WorkflowBindings{domain.FlowActivation: "http://n8n.local/webhook/on"},
	})

	resp, body := call(t, http.MethodGet, srv.URL+"/api/state", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	headers := body["headers"].(map[string]any)
	assert.Equal(t, "****cret", headers["api_key"])
	bindings := body["bindings"].(map[string]any)
	assert.Equal(t, "(hidden)", bindings[domain.FlowActivation])
	assert.Len(t, body["agents"], len(mockbackend.SeedAgents))
}

func TestActivateRoundTrip(t *testing.T) {
	srv := newConsole(t, Options{}, mockbackend.Options{})

	resp, body := call(t, http.MethodPost, srv.URL+"/api/agents/sniper/activate", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", noticeOf(t, body)["level"])

	_, snap := call(t, http.MethodGet, srv.URL+"/api/state", "")
	agents := snap["agents"].([]any)
	first := agents[0].(map[string]any)
	assert.Equal(t, "sniper", first["agent_id"])
	assert.Equal(t, "active", first["state"])
}

func TestBackendErrorIsBadGateway(t *testing.T) {
	srv := newConsole(t, Options{}, mockbackend.Options{})

	resp, body := call(t, http.MethodPost, srv.URL+"/api/agents/ghost/activate", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	n := noticeOf(t, body)
	assert.Equal(t, "error", n["level"])
	assert.NotEmpty(t, n["message"])
}

func TestValidationIsUnprocessable(t *testing.T) {
	srv := newConsole(t, Options{}, mockbackend.Options{})

	resp, body := call(t, http.MethodPost, srv.URL+"/api/n8n/trigger/activation_flow", `{"payload":"not json"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Invalid JSON", noticeOf(t, body)["message"])

	resp, _ = call(t, http.MethodPut, srv.URL+"/api/headers", `{"mode":"chaos"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = call(t, http.MethodPost, srv.URL+"/api/agents/register", `{"agent_id":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSwitchHeaders(t *testing.T) {
	srv := newConsole(t, Options{}, mockbackend.Options{})

	resp, body := call(t, http.MethodPut, srv.URL+"/api/headers", `{"mode":"staging","base_override":"http://am.staging"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Source switched to staging", noticeOf(t, body)["message"])

	_, snap := call(t, http.MethodGet, srv.URL+"/api/state", "")
	assert.Equal(t, "staging", snap["headers"].(map[string]any)["mode"])
}

func TestActionsAreRateLimited(t *testing.T) {
	srv := newConsole(t, Options{ActionsPerSecond: 0.001, Burst: 1}, mockbackend.Options{})

	resp, _ := call(t, http.MethodPost, srv.URL+"/api/refresh", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := call(t, http.MethodPost, srv.URL+"/api/refresh", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body["detail"], "too many")

	// Чтение состояния лимитом не ограничено
	resp, _ = call(t, http.MethodGet, srv.URL+"/api/state", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsExposed(t *testing.T) {
	srv := newConsole(t, Options{}, mockbackend.Options{})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

type fakeReader struct {
	limit int
}

func (f *fakeReader) Recent(_ context.Context, limit int) ([]journal.Entry, error) {
	f.limit = limit
	return []journal.Entry{{ID: "e1", Action: "activate", AgentID: "sniper", Level: "success"}}, nil
}

func TestJournalEndpoint(t *testing.T) {
	reader := &fakeReader{}
	srv := newConsole(t, Options{Journal: reader}, mockbackend.Options{})

	resp, err := http.Get(srv.URL + "/api/journal?limit=9999")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []journal.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "sniper", entries[0].AgentID)
	assert.Equal(t, 500, reader.limit)

	bad, _ := call(t, http.MethodGet, srv.URL+"/api/journal?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestJournalEndpointHiddenWithoutReader(t *testing.T) {
	srv := newConsole(t, Options{}, mockbackend.Options{})

	resp, _ := call(t, http.MethodGet, srv.URL+"/api/journal", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
