// Package mockbackend: in-memory реализация REST-поверхности бэкенда Blaxing.
// Используется как режим mock для локальной разработки и как стенд в тестах.
package mockbackend

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/blaxing-console/internal/domain"
	"go.uber.org/zap"
)

// SeedAgents агенты, с которыми стартует бэкенд. Все спят.
var SeedAgents = []string{"sniper", "crystal", "sonia", "corerouter"}

const (
	defaultAuditLimit = 50
	maxAudit          = 500
)

var (
	errAgentNotFound  = errors.New("agent not found")
	errAgentExists    = errors.New("agent already exists")
	errFlowNotBound   = errors.New("flow not configured")
	errBuilderMissing = errors.New("builder agent not found")
)

type Options struct {
	DryRun           bool          // аналог EMERGENT_DRY_RUN: bulk и notify ничего не меняют
	APIKey           string        // если задан, запросы без совпадающего X-API-KEY получают 401
	AgentManagerBase string        // отображается в GET /config
	N8nWebhookBase   string        // отображается в GET /config
	WebhookTimeout   time.Duration // потолок на вызов вебхука
	Bindings         domain.WorkflowBindings
	Clock            func() time.Time
}

type agentRecord struct {
	agent domain.Agent
	since time.Time // момент активации, для uptime
}

type Backend struct {
	mu sync.RWMutex

	agents   map[string]*agentRecord
	order    []string
	audit    []domain.AuditEntry
	bindings domain.WorkflowBindings
	flows    map[string]string
	flowIdx  []string
	builder  []domain.BuilderAgent

	opts   Options
	hooks  *webhookCaller
	logger *zap.Logger
	now    func() time.Time
}

func New(opts Options, logger *zap.Logger) *Backend {
	if opts.WebhookTimeout <= 0 {
		opts.WebhookTimeout = 10 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	b := &Backend{
		agents:   make(map[string]*agentRecord),
		bindings: domain.WorkflowBindings{},
		flows:    make(map[string]string),
		opts:     opts,
		logger:   logger.Named("mock-backend"),
		now:      opts.Clock,
	}
	b.hooks = newWebhookCaller(&http.Client{Timeout: opts.WebhookTimeout})

	for _, id := range SeedAgents {
		b.agents[id] = &agentRecord{agent: domain.Agent{ID: id, Name: id, State: domain.StateSleep}}
		b.order = append(b.order, id)
	}
	for _, flow := range []string{domain.FlowActivation, domain.FlowDeactivation, domain.FlowStatusChange} {
		b.bindings[flow] = ""
	}
	for k, v := range opts.Bindings {
		b.bindings[k] = v
	}
	return b
}

// SetDryRun переключает dry-run на лету, см. PUT /admin/dry-run.
func (b *Backend) SetDryRun(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opts.DryRun = v
}

func (b *Backend) dryRun() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.opts.DryRun
}

// ListAgents отдает агентов в порядке регистрации с актуальным uptime.
func (b *Backend) ListAgents() []domain.Agent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.Agent, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.view(b.agents[id]))
	}
	return out
}

func (b *Backend) Agent(id string) (domain.Agent, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.agents[id]
	if !ok {
		return domain.Agent{}, errAgentNotFound
	}
	return b.view(rec), nil
}

func (b *Backend) Register(req domain.RegisterAgentRequest) (domain.Agent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.agents[req.AgentID]; ok {
		b.record("register", req.AgentID, false, http.StatusConflict)
		return domain.Agent{}, errAgentExists
	}
	name := req.Name
	if name == "" {
		name = req.AgentID
	}
	rec := &agentRecord{agent: domain.Agent{ID: req.AgentID, Name: name, Image: req.Image, State: domain.StateSleep}}
	b.agents[req.AgentID] = rec
	b.order = append(b.order, req.AgentID)
	b.record("register", req.AgentID, true, 0)
	return b.view(rec), nil
}

// Activate повторная активация не сбрасывает uptime.
func (b *Backend) Activate(id string) (domain.Agent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.agents[id]
	if !ok {
		b.record("activate", id, false, http.StatusNotFound)
		return domain.Agent{}, errAgentNotFound
	}
	if rec.agent.State != domain.StateActive {
		rec.agent.State = domain.StateActive
		rec.since = b.now()
	}
	b.record("activate", id, true, 0)
	return b.view(rec), nil
}

func (b *Backend) Deactivate(id string) (domain.Agent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.agents[id]
	if !ok {
		b.record("deactivate", id, false, http.StatusNotFound)
		return domain.Agent{}, errAgentNotFound
	}
	rec.agent.State = domain.StateSleep
	rec.since = time.Time{}
	b.record("deactivate", id, true, 0)
	return b.view(rec), nil
}

// SetAll переводит всех агентов разом. В dry-run ничего не меняет.
func (b *Backend) SetAll(active bool) domain.BulkResult {
	action := "deactivate_all"
	if active {
		action = "activate_all"
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.opts.DryRun {
		b.record(action, "", true, 0)
		return domain.BulkResult{DryRun: true, Status: "skipped"}
	}
	now := b.now()
	for _, rec := range b.agents {
		switch {
		case active && rec.agent.State != domain.StateActive:
			rec.agent.State = domain.StateActive
			rec.since = now
		case !active:
			rec.agent.State = domain.StateSleep
			rec.since = time.Time{}
		}
	}
	b.record(action, "", true, 0)
	return domain.BulkResult{Status: "ok"}
}

// Audit новые записи первыми.
func (b *Backend) Audit(limit int) []domain.AuditEntry {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.AuditEntry, 0, limit)
	for i := len(b.audit) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, b.audit[i])
	}
	return out
}

func (b *Backend) Config() domain.BackendConfig {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return domain.BackendConfig{
		HasKey:           b.opts.APIKey != "",
		DryRun:           b.opts.DryRun,
		AgentManagerBase: b.opts.AgentManagerBase,
		N8nWebhookBase:   b.opts.N8nWebhookBase,
	}
}

func (b *Backend) Bindings() domain.WorkflowBindings {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bindings.Clone()
}

// SaveBindings мержит присланные привязки поверх текущих.
func (b *Backend) SaveBindings(in domain.WorkflowBindings) domain.WorkflowBindings {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k, v := range in {
		b.bindings[k] = v
	}
	b.record("hooks_config", "", true, 0)
	return b.bindings.Clone()
}

func (b *Backend) bindingURL(flow string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.bindings.Bound(flow) {
		return b.bindings[flow], nil
	}
	if u, ok := b.flows[flow]; ok && u != "" {
		return u, nil
	}
	return "", errFlowNotBound
}

func (b *Backend) Flows() []domain.FlowBinding {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.FlowBinding, 0, len(b.flowIdx))
	for _, name := range b.flowIdx {
		out = append(out, domain.FlowBinding{Flow: name, URL: b.flows[name]})
	}
	return out
}

func (b *Backend) UpsertFlow(f domain.FlowBinding) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.flows[f.Flow]; !ok {
		b.flowIdx = append(b.flowIdx, f.Flow)
	}
	b.flows[f.Flow] = f.URL
	b.record("flow_upsert", "", true, 0)
}

func (b *Backend) flowURL(name string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	u, ok := b.flows[name]
	if !ok || u == "" {
		return "", errFlowNotBound
	}
	return u, nil
}

func (b *Backend) BuilderAgents() []domain.BuilderAgent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]domain.BuilderAgent{}, b.builder...)
}

func (b *Backend) CreateBuilderAgent(in domain.BuilderAgent) domain.BuilderAgent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	b.builder = append(b.builder, in)
	return in
}

func (b *Backend) builderAgent(id string) (domain.BuilderAgent, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, a := range b.builder {
		if a.ID == id || a.Name == id {
			return a, nil
		}
	}
	return domain.BuilderAgent{}, errBuilderMissing
}

// Record пишет событие в аудит снаружи (триггеры вебхуков).
func (b *Backend) Record(action, agentID string, ok bool, upstream int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(action, agentID, ok, upstream)
}

// record вызывается под b.mu.
func (b *Backend) record(action, agentID string, ok bool, upstream int) {
	b.audit = append(b.audit, domain.AuditEntry{
		Timestamp:      b.now().UTC(),
		Action:         action,
		AgentID:        agentID,
		Success:        ok,
		UpstreamStatus: upstream,
	})
	if over := len(b.audit) - maxAudit; over > 0 {
		b.audit = append([]domain.AuditEntry(nil), b.audit[over:]...)
	}
}

// view вызывается под b.mu.
func (b *Backend) view(rec *agentRecord) domain.Agent {
	a := rec.agent
	if a.State == domain.StateActive && !rec.since.IsZero() {
		a.Uptime = int64(b.now().Sub(rec.since).Seconds())
	}
	return a
}
