// Package signal: межсессионные сигналы "данные изменились" через Redis Pub/Sub.
// Сессия, изменившая агентов, публикует сигнал; остальные сессии того же режима делают Refresh.
package signal

import (
	"encoding/json"
	"fmt"

	"github.com/xela07ax/blaxing-console/internal/infra"
)

type Kind string

const (
	KindAgents Kind = "agents"
	KindFlows  Kind = "flows"
)

type Signal struct {
	Kind      Kind   `json:"kind"`
	SessionID string `json:"session_id"` // Кто изменил: свои сигналы игнорируются
	Mode      string `json:"mode"`
	Action    string `json:"action"`
	AgentID   string `json:"agent_id,omitempty"`
}

// Channel канал для сигнала, изолированный по режиму.
func Channel(kind Kind, mode string) string {
	base := infra.RedisChanAgentsChanged
	if kind == KindFlows {
		base = infra.RedisChanFlowsChanged
	}
	return infra.ModeChannel(base, mode)
}

func Encode(s Signal) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("signal: encode: %w", err)
	}
	return string(raw), nil
}

func Decode(payload string) (Signal, error) {
	var s Signal
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return Signal{}, fmt.Errorf("signal: decode: %w", err)
	}
	if s.Kind != KindAgents && s.Kind != KindFlows {
		return Signal{}, fmt.Errorf("signal: unknown kind %q", s.Kind)
	}
	return s, nil
}
