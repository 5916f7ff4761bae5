package state

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/blaxing-console/internal/domain"
)

func seed() Agents {
	return ReplaceAll([]domain.Agent{
		{ID: "sniper", State: domain.StateActive, Uptime: 120},
		{ID: "crystal", State: domain.StateSleep},
		{ID: "sonia", State: "weird", Uptime: -5},
	})
}

func TestReplaceAllNormalizes(t *testing.T) {
	a := seed()

	require.Equal(t, 3, a.Len())
	assert.Equal(t, []string{"sniper", "crystal", "sonia"}, a.Order)
	s, _ := a.Get("sonia")
	assert.Equal(t, domain.StateUnknown, s.State)
	assert.Zero(t, s.Uptime)
}

func TestReplaceAllDropsDuplicates(t *testing.T) {
	a := ReplaceAll([]domain.Agent{
		{ID: "sniper", State: domain.StateSleep},
		{ID: "sniper", State: domain.StateActive},
		{ID: ""},
	})

	assert.Equal(t, []string{"sniper"}, a.Order)
	got, _ := a.Get("sniper")
	assert.Equal(t, domain.StateActive, got.State)
}

func TestApplyActivatedKeepsUptime(t *testing.T) {
	a := ReplaceAll([]domain.Agent{{ID: "crystal", State: domain.StateSleep, Uptime: 7}})

	out := ApplyActivated(a, "crystal")

	got, _ := out.Get("crystal")
	assert.Equal(t, domain.StateActive, got.State)
	assert.Equal(t, int64(7), got.Uptime)
}

func TestApplyDeactivatedZeroesUptime(t *testing.T) {
	out := ApplyDeactivated(seed(), "sniper")

	got, _ := out.Get("sniper")
	assert.Equal(t, domain.StateSleep, got.State)
	assert.Zero(t, got.Uptime)
}

func TestApplyStatusOverwrites(t *testing.T) {
	out := ApplyStatus(seed(), "crystal", domain.StateActive, 42)

	got, _ := out.Get("crystal")
	assert.Equal(t, domain.StateActive, got.State)
	assert.Equal(t, int64(42), got.Uptime)
}

func TestReducersDoNotMutateInput(t *testing.T) {
	in := seed()

	_ = ApplyDeactivated(in, "sniper")
	_ = ApplyStatus(in, "crystal", domain.StateActive, 3)

	sniper, _ := in.Get("sniper")
	assert.Equal(t, domain.StateActive, sniper.State)
	assert.Equal(t, int64(120), sniper.Uptime)
	crystal, _ := in.Get("crystal")
	assert.Equal(t, domain.StateSleep, crystal.State)
}

func TestReducersIgnoreUnknownID(t *testing.T) {
	in := seed()

	out := ApplyActivated(in, "ghost")
	out = ApplyDeactivated(out, "ghost")
	out = ApplyStatus(out, "ghost", domain.StateActive, 1)

	assert.Equal(t, in.List(), out.List())
	_, ok := out.Get("ghost")
	assert.False(t, ok)
}

func TestStoreSnapshotIsDetached(t *testing.T) {
	s := NewStore(domain.DefaultHeaders(), 10)
	s.ReplaceAgents([]domain.Agent{{ID: "sniper", State: domain.StateSleep}})
	s.SetBindings(domain.WorkflowBindings{domain.FlowActivation: "http://a"})

	snap := s.Snapshot()
	snap.Agents[0].State = domain.StateActive
	snap.Bindings[domain.FlowActivation] = "http://changed"

	got, _ := s.Agent("sniper")
	assert.Equal(t, domain.StateSleep, got.State)
	assert.Equal(t, "http://a", s.Bindings()[domain.FlowActivation])
}

func TestStoreActivityIsBounded(t *testing.T) {
	s := NewStore(domain.DefaultHeaders(), 3)
	for i := 0; i < 5; i++ {
		s.AppendActivity(fmt.Sprintf("line %d", i))
	}

	assert.Equal(t, []string{"line 2", "line 3", "line 4"}, s.Snapshot().Activity)
}

func TestStoreNoticesAreBounded(t *testing.T) {
	s := NewStore(domain.DefaultHeaders(), 0)
	for i := 0; i < maxNotices+5; i++ {
		s.PushNotice(domain.NoticeInfo, fmt.Sprintf("n%d", i))
	}

	notices := s.Snapshot().Notices
	require.Len(t, notices, maxNotices)
	assert.Equal(t, "n5", notices[0].Message)
}

func TestStoreConcurrentMutations(t *testing.T) {
	s := NewStore(domain.DefaultHeaders(), 0)
	s.ReplaceAgents([]domain.Agent{{ID: "sniper", State: domain.StateSleep}})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.Mutate(func(a Agents) Agents { return ApplyActivated(a, "sniper") })
			} else {
				_ = s.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	got, _ := s.Agent("sniper")
	assert.Equal(t, domain.StateActive, got.State)
}

func TestStoreFlowUnboundNeedsLoadedBindings(t *testing.T) {
	s := NewStore(domain.DefaultHeaders(), 0)

	// Привязки еще не читались: про флоу ничего не известно
	assert.False(t, s.FlowUnbound(domain.FlowActivation))

	s.SetBindings(domain.WorkflowBindings{domain.FlowActivation: "", domain.FlowDeactivation: "http://off"})
	assert.True(t, s.FlowUnbound(domain.FlowActivation))
	assert.False(t, s.FlowUnbound(domain.FlowDeactivation))
}

func TestStoreSwitchModeDropsModeData(t *testing.T) {
	s := NewStore(domain.DefaultHeaders(), 0)
	s.ReplaceAgents([]domain.Agent{{ID: "sniper", State: domain.StateActive, Uptime: 42}})
	s.SetAudit([]domain.AuditEntry{{Action: "activate", AgentID: "sniper"}})
	s.SetBackendConfig(domain.BackendConfig{HasKey: true})
	s.SetBindings(domain.WorkflowBindings{domain.FlowActivation: "http://mock-only/webhook"})
	s.SetFlows([]domain.FlowBinding{{Flow: "nightly", URL: "http://mock-only/nightly"}})
	s.SetDiagnostics(domain.DiagnosticsResult{Status: domain.DiagnosticsOK})
	s.AppendActivity("activate: sniper activated")

	prod := domain.HeaderConfig{Mode: domain.ModeProd, APIKey: "k"}
	s.SwitchMode(prod)

	snap := s.Snapshot()
	assert.Equal(t, prod, snap.Headers)
	assert.Empty(t, snap.Agents)
	assert.Empty(t, snap.Audit)
	assert.Nil(t, snap.BackendConfig)
	assert.Empty(t, snap.Bindings)
	assert.Empty(t, snap.Flows)
	assert.Nil(t, snap.Diagnostics)
	assert.False(t, s.FlowUnbound(domain.FlowActivation))
	assert.Equal(t, []string{"activate: sniper activated"}, snap.Activity)
}
