package domain

import "encoding/json"

// DiagnosticsStatus итог пробы вебхука.
type DiagnosticsStatus string

const (
	DiagnosticsOK    DiagnosticsStatus = "ok"
	DiagnosticsError DiagnosticsStatus = "error"
)

// DiagnosticsResult живет до следующей пробы и нигде не сохраняется.
type DiagnosticsResult struct {
	Flow      string            `json:"flow,omitempty"` // Заполняется клиентом для отображения
	Status    DiagnosticsStatus `json:"status"`
	HTTPCode  int               `json:"http_code"`
	LatencyMs int64             `json:"latency_ms"`
	Hint      string            `json:"hint"`
	Details   string            `json:"details"`
}

func (d DiagnosticsResult) OK() bool { return d.Status == DiagnosticsOK }

// DiagnosticsRequest тело POST /n8n/diagnostics.
type DiagnosticsRequest struct {
	URL     string          `json:"url"`
	Payload json.RawMessage `json:"payload"`
}
