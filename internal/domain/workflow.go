package domain

import "strings"

// Стандартные роли флоу. Допускаются и произвольные ключи (например, "trade_alerts_flow").
const (
	FlowActivation   = "activation_flow"
	FlowDeactivation = "deactivation_flow"
	FlowStatusChange = "status_change_flow"
)

// WorkflowBindings роль флоу -> URL вебхука. Пустой URL означает "не задано".
type WorkflowBindings map[string]string

// Bound сообщает, можно ли триггерить флоу.
func (b WorkflowBindings) Bound(flow string) bool {
	return strings.TrimSpace(b[flow]) != ""
}

// Clone нужен, чтобы снапшот стора не делил мапу с рабочим состоянием.
func (b WorkflowBindings) Clone() WorkflowBindings {
	if b == nil {
		return nil
	}
	out := make(WorkflowBindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// FlowBinding именованный n8n флоу.
type FlowBinding struct {
	Flow string `json:"flow"`
	URL  string `json:"url"`
}

type FlowList struct {
	Flows []FlowBinding `json:"flows"`
}

// NotifyRequest тело POST /hooks/notify.
type NotifyRequest struct {
	Flow  string         `json:"flow"`
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// NotifyResult либо подтверждение доставки, либо dry_run.
type NotifyResult struct {
	DryRun bool   `json:"dry_run,omitempty"`
	Status string `json:"status,omitempty"`
	Code   int    `json:"code,omitempty"`
}

// TriggerResult эхо апстрима, бэкенд возвращает его как есть.
type TriggerResult map[string]any
