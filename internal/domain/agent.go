package domain

// AgentState жизненный цикл агента глазами дашборда.
type AgentState string

const (
	StateActive  AgentState = "active"  // Агент запущен менеджером
	StateSleep   AgentState = "sleep"   // Остановлен, uptime обнулен
	StateUnknown AgentState = "unknown" // Сервер еще ничего не сообщил
)

// NormalizeState приводит произвольную строку от бэкенда к известному состоянию.
func NormalizeState(s string) AgentState {
	switch AgentState(s) {
	case StateActive, StateSleep:
		return AgentState(s)
	default:
		return StateUnknown
	}
}

type Agent struct {
	ID     string     `json:"agent_id"` // Уникальный идентификатор (например, "sniper")
	Name   string     `json:"name,omitempty"`
	State  AgentState `json:"state"`
	Uptime int64      `json:"uptime"` // Секунды, всегда >= 0
	Image  string     `json:"image,omitempty"`
}

// RegisterAgentRequest тело POST /agents/register.
type RegisterAgentRequest struct {
	AgentID string            `json:"agent_id"`
	Name    string            `json:"name,omitempty"`
	Image   string            `json:"image"`
	Env     map[string]string `json:"env,omitempty"`
}

// BulkResult ответ activate-all / deactivate-all.
// DryRun == true означает, что апстрим ничего не менял.
type BulkResult struct {
	DryRun  bool   `json:"dry_run,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}
