package domain

import "time"

// AuditEntry неизменяемая запись аудита бэкенда. Клиент только читает.
type AuditEntry struct {
	Timestamp      time.Time `json:"ts"`
	Action         string    `json:"action"`
	AgentID        string    `json:"agent_id,omitempty"`
	Success        bool      `json:"success"`
	UpstreamStatus int       `json:"upstream_status,omitempty"`
}

type AuditPage struct {
	Items []AuditEntry `json:"items"`
}

// BackendConfig ответ GET /config.
type BackendConfig struct {
	HasKey           bool   `json:"hasKey"`
	DryRun           bool   `json:"dryRun"`
	AgentManagerBase string `json:"agentManagerBase"`
	N8nWebhookBase   string `json:"n8nWebhookBase"`
}
