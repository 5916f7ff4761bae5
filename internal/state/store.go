// Package state: состояние одной сессии дашборда.
// Все мутации идут через Store под мьютексом, рендер читает Snapshot.
package state

import (
	"sync"
	"time"

	"github.com/xela07ax/blaxing-console/internal/domain"
)

const (
	defaultActivityLines = 200
	maxNotices           = 20
)

// Snapshot неизменяемая копия состояния для отрисовки.
type Snapshot struct {
	Agents        []domain.Agent            `json:"agents"`
	Audit         []domain.AuditEntry       `json:"audit"`
	Loading       bool                      `json:"loading"`
	Headers       domain.HeaderConfig       `json:"headers"`
	BackendConfig *domain.BackendConfig     `json:"backend_config,omitempty"`
	Bindings      domain.WorkflowBindings   `json:"bindings"`
	Flows         []domain.FlowBinding      `json:"flows"`
	Diagnostics   *domain.DiagnosticsResult `json:"diagnostics,omitempty"`
	Activity      []string                  `json:"activity"`
	Notices       []domain.Notice           `json:"notices"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

type Store struct {
	mu sync.RWMutex

	agents        Agents
	audit         []domain.AuditEntry
	loading       bool
	headers       domain.HeaderConfig
	backendConfig *domain.BackendConfig
	bindings      domain.WorkflowBindings
	bindingsKnown bool // false, пока hooks config ни разу не загружен в текущем режиме
	flows         []domain.FlowBinding
	diagnostics   *domain.DiagnosticsResult

	activity      []string // кольцо фиксированного размера
	activityLimit int
	notices       []domain.Notice
	updatedAt     time.Time

	now func() time.Time
}

func NewStore(headers domain.HeaderConfig, activityLines int) *Store {
	if activityLines <= 0 {
		activityLines = defaultActivityLines
	}
	return &Store{
		agents:        NewAgents(),
		audit:         []domain.AuditEntry{},
		headers:       headers,
		bindings:      domain.WorkflowBindings{},
		flows:         []domain.FlowBinding{},
		activityLimit: activityLines,
		now:           time.Now,
	}
}

// Mutate применяет чистый редьюсер к коллекции агентов.
func (s *Store) Mutate(fn func(Agents) Agents) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents = fn(s.agents)
	s.touch()
}

func (s *Store) ReplaceAgents(list []domain.Agent) {
	s.Mutate(func(Agents) Agents { return ReplaceAll(list) })
}

func (s *Store) Agent(id string) (domain.Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agents.Get(id)
}

func (s *Store) SetAudit(items []domain.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append([]domain.AuditEntry(nil), items...)
	s.touch()
}

// SetLoading простой флаг без счетчика: первый завершившийся refresh его снимает.
func (s *Store) SetLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) SetHeaders(h domain.HeaderConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headers = h
	s.touch()
}

// SwitchMode ставит новую конфигурацию заголовков и сбрасывает все,
// что было загружено в прежнем режиме. Журнал действий и уведомления остаются.
func (s *Store) SwitchMode(h domain.HeaderConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headers = h
	s.agents = NewAgents()
	s.audit = []domain.AuditEntry{}
	s.backendConfig = nil
	s.bindings = domain.WorkflowBindings{}
	s.bindingsKnown = false
	s.flows = []domain.FlowBinding{}
	s.diagnostics = nil
	s.touch()
}

func (s *Store) Headers() domain.HeaderConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.headers
}

func (s *Store) SetBackendConfig(c domain.BackendConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backendConfig = &c
	s.touch()
}

func (s *Store) SetBindings(b domain.WorkflowBindings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings = b.Clone()
	if s.bindings == nil {
		s.bindings = domain.WorkflowBindings{}
	}
	s.bindingsKnown = true
	s.touch()
}

// FlowUnbound true, только если привязки загружены и URL для flow пуст.
// Незагруженные привязки ничего не говорят: решение остается за бэкендом.
func (s *Store) FlowUnbound(flow string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bindingsKnown && !s.bindings.Bound(flow)
}

func (s *Store) Bindings() domain.WorkflowBindings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bindings.Clone()
}

func (s *Store) SetFlows(f []domain.FlowBinding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows = append([]domain.FlowBinding{}, f...)
	s.touch()
}

func (s *Store) SetDiagnostics(d domain.DiagnosticsResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagnostics = &d
	s.touch()
}

// AppendActivity добавляет строку в журнал действий, старые строки вытесняются.
func (s *Store) AppendActivity(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append(s.activity, line)
	if over := len(s.activity) - s.activityLimit; over > 0 {
		s.activity = append([]string(nil), s.activity[over:]...)
	}
}

func (s *Store) PushNotice(level domain.NoticeLevel, msg string) domain.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := domain.Notice{Level: level, Message: msg, At: s.now()}
	s.notices = append(s.notices, n)
	if over := len(s.notices) - maxNotices; over > 0 {
		s.notices = append([]domain.Notice(nil), s.notices[over:]...)
	}
	return n
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Agents:    s.agents.List(),
		Audit:     append([]domain.AuditEntry{}, s.audit...),
		Loading:   s.loading,
		Headers:   s.headers,
		Bindings:  s.bindings.Clone(),
		Flows:     append([]domain.FlowBinding{}, s.flows...),
		Activity:  append([]string{}, s.activity...),
		Notices:   append([]domain.Notice{}, s.notices...),
		UpdatedAt: s.updatedAt,
	}
	if s.backendConfig != nil {
		c := *s.backendConfig
		snap.BackendConfig = &c
	}
	if s.diagnostics != nil {
		d := *s.diagnostics
		snap.Diagnostics = &d
	}
	return snap
}

func (s *Store) touch() { s.updatedAt = s.now() }
