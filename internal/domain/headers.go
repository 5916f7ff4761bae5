package domain

import (
	"fmt"
	"strings"
)

// Mode профиль маршрутизации, выбираемый заголовком x-blaxing-source.
type Mode string

const (
	ModeMock    Mode = "mock"
	ModeProd    Mode = "prod"
	ModeStaging Mode = "staging"
)

// Имена заголовков, которые ожидает бэкенд.
const (
	HeaderSource = "x-blaxing-source"
	HeaderAPIKey = "X-API-KEY"
	HeaderBase   = "x-blaxing-base"
)

// HeaderConfig единственная активная конфигурация заголовков сессии.
type HeaderConfig struct {
	Mode         Mode   `json:"mode" mapstructure:"mode"`
	APIKey       string `json:"api_key,omitempty" mapstructure:"api_key"`
	BaseOverride string `json:"base_override,omitempty" mapstructure:"base_override"` // Только для staging
}

// DefaultHeaders режим mock без ключа.
func DefaultHeaders() HeaderConfig {
	return HeaderConfig{Mode: ModeMock}
}

func (h HeaderConfig) Validate() error {
	switch h.Mode {
	case ModeMock, ModeProd, ModeStaging:
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnknownMode, h.Mode)
	}
}

// Headers рендерит конфигурацию в набор HTTP-заголовков.
// x-blaxing-base отправляется только в staging.
func (h HeaderConfig) Headers() map[string]string {
	out := map[string]string{HeaderSource: string(h.Mode)}
	if key := strings.TrimSpace(h.APIKey); key != "" {
		out[HeaderAPIKey] = key
	}
	if h.Mode == ModeStaging {
		if base := strings.TrimSpace(h.BaseOverride); base != "" {
			out[HeaderBase] = base
		}
	}
	return out
}

// Equal сравнивает конфигурации по значимым полям.
func (h HeaderConfig) Equal(o HeaderConfig) bool {
	hh, oh := h.Headers(), o.Headers()
	if len(hh) != len(oh) {
		return false
	}
	for k, v := range hh {
		if oh[k] != v {
			return false
		}
	}
	return true
}
