package journal

import "time"

// Entry одна строка журнала действий сессии дашборда.
type Entry struct {
	ID        string    `json:"id"`         // UUID записи
	SessionID string    `json:"session_id"` // Какая сессия дашборда писала
	Mode      string    `json:"mode"`       // mock / prod / staging на момент действия
	Action    string    `json:"action"`     // activate, refresh, notify ...
	AgentID   string    `json:"agent_id,omitempty"`
	Level     string    `json:"level"` // success / info / error
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
