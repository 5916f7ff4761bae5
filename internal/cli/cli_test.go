package cli

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/blaxing-console/internal/domain"
	"github.com/xela07ax/blaxing-console/internal/mockbackend"
	"go.uber.org/zap"
)

func runRootCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	root := NewRootCmd()
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err := root.ExecuteC()
	return strings.TrimSpace(buf.String()), err
}

func newBackend(t *testing.T, opts mockbackend.Options) (*mockbackend.Backend, string) {
	t.Helper()
	b := mockbackend.New(opts, zap.NewNop())
	srv := httptest.NewServer(b.Handler())
	t.Cleanup(srv.Close)
	return b, srv.URL + "/api"
}

func TestVersion(t *testing.T) {
	out, err := runRootCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "blaxctl "+version, out)
}

func TestAgentsListJSON(t *testing.T) {
	_, base := newBackend(t, mockbackend.Options{})

	out, err := runRootCommand(t, "--base", base, "--json", "agents", "list")
	require.NoError(t, err)

	var agents []domain.Agent
	require.NoError(t, json.Unmarshal([]byte(out), &agents))
	require.Len(t, agents, len(mockbackend.SeedAgents))
	assert.Equal(t, domain.StateSleep, agents[0].State)
}

func TestAgentsActivate(t *testing.T) {
	b, base := newBackend(t, mockbackend.Options{})

	out, err := runRootCommand(t, "--base", base, "agents", "activate", "crystal")
	require.NoError(t, err)
	assert.Contains(t, out, "crystal activated")

	a, err := b.Agent("crystal")
	require.NoError(t, err)
	assert.Equal(t, domain.StateActive, a.State)
}

func TestBackendDetailIsShown(t *testing.T) {
	_, base := newBackend(t, mockbackend.Options{})

	_, err := runRootCommand(t, "--base", base, "agents", "activate", "ghost")
	require.Error(t, err)
	assert.Equal(t, "agent not found", err.Error())
}

func TestBulkDryRun(t *testing.T) {
	_, base := newBackend(t, mockbackend.Options{DryRun: true})

	out, err := runRootCommand(t, "--base", base, "agents", "activate-all")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry-run")
}

func TestRegisterValidatesBeforeCall(t *testing.T) {
	_, err := runRootCommand(t, "--base", "http://127.0.0.1:1/api", "agents", "register", "--id", "nova")
	require.ErrorIs(t, err, domain.ErrRequired)

	_, err = runRootCommand(t, "--base", "http://127.0.0.1:1/api", "agents", "register", "--id", "nova", "--image", "x", "--env", "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KEY=VALUE")
}

func TestTriggerRejectsInvalidPayload(t *testing.T) {
	_, err := runRootCommand(t, "--base", "http://127.0.0.1:1/api", "n8n", "trigger", "activation_flow", "--payload", "{nope")
	require.ErrorIs(t, err, domain.ErrInvalidJSON)
}

func TestUnknownModeRejected(t *testing.T) {
	_, err := runRootCommand(t, "--base", "http://127.0.0.1:1/api", "--mode", "chaos", "agents", "list")
	require.ErrorIs(t, err, domain.ErrUnknownMode)
}

func TestHooksSetAndGet(t *testing.T) {
	_, base := newBackend(t, mockbackend.Options{})

	_, err := runRootCommand(t, "--base", base, "hooks", "set", "activation_flow=http://n8n.local/webhook/on")
	require.NoError(t, err)

	out, err := runRootCommand(t, "--base", base, "--json", "hooks", "get")
	require.NoError(t, err)
	var b domain.WorkflowBindings
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Equal(t, "http://n8n.local/webhook/on", b[domain.FlowActivation])
	assert.False(t, b.Bound(domain.FlowDeactivation))
}

func TestDiagnoseUnreachable(t *testing.T) {
	_, base := newBackend(t, mockbackend.Options{})

	out, err := runRootCommand(t, "--base", base, "n8n", "diagnose", "http://127.0.0.1:1/webhook")
	require.NoError(t, err)
	assert.Contains(t, out, "error")
	assert.Contains(t, out, "hint:")
}

func TestBuilderRoundTrip(t *testing.T) {
	_, base := newBackend(t, mockbackend.Options{})

	out, err := runRootCommand(t, "--base", base, "--json", "builder", "create", "--name", "Atlas", "--role", "analyst")
	require.NoError(t, err)
	var created domain.BuilderAgent
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.NotEmpty(t, created.ID)

	out, err = runRootCommand(t, "--base", base, "builder", "ask", created.ID, "status?")
	require.NoError(t, err)
	assert.Contains(t, out, "Atlas")
}
