// Package resource: тонкие обертки над REST-поверхностью бэкенда.
// Каждая функция: типизированный вход, клиентская валидация, ровно один HTTP-вызов.
package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/xela07ax/blaxing-console/internal/domain"
)

// Caller то, что нам нужно от транспорта. Реализуется apiclient.Client.
type Caller interface {
	Get(ctx context.Context, op, path string, query url.Values, out any) error
	Post(ctx context.Context, op, path string, in, out any) error
}

// Resources собирает все группы операций вокруг одного клиента.
type Resources struct {
	Agents  *Agents
	System  *System
	Hooks   *Hooks
	N8n     *N8n
	Flows   *Flows
	Builder *Builder
}

func New(c Caller) *Resources {
	return &Resources{
		Agents:  &Agents{c: c},
		System:  &System{c: c},
		Hooks:   &Hooks{c: c},
		N8n:     &N8n{c: c},
		Flows:   &Flows{c: c},
		Builder: &Builder{c: c},
	}
}

// Required пустое идентифицирующее поле блокирует вызов.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s: %w", field, domain.ErrRequired)
	}
	return nil
}

// ParsePayload разбирает payload, введенный текстом.
// Пустой текст — это {}, битый JSON — ErrInvalidJSON до любого сетевого вызова.
func ParsePayload(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid([]byte(text)) {
		return nil, domain.ErrInvalidJSON
	}
	return json.RawMessage(text), nil
}

func escape(segment string) string {
	return url.PathEscape(strings.TrimSpace(segment))
}

// payloadBody общий конверт {"payload": ...} для триггеров.
type payloadBody struct {
	Payload json.RawMessage `json:"payload"`
}
