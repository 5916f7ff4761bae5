package resource

import (
	"context"
	"strings"

	"github.com/xela07ax/blaxing-console/internal/domain"
)

// N8n прямые триггеры вебхуков и диагностика.
type N8n struct {
	c Caller
}

// TriggerFlow POST /n8n/trigger/{flow}.
func (n *N8n) TriggerFlow(ctx context.Context, flow, payloadText string) (domain.TriggerResult, error) {
	if err := Required("flow", flow); err != nil {
		return nil, err
	}
	payload, err := ParsePayload(payloadText)
	if err != nil {
		return nil, err
	}
	out := domain.TriggerResult{}
	if err := n.c.Post(ctx, "n8n.trigger", "/n8n/trigger/"+escape(flow), payloadBody{Payload: payload}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type triggerURLBody struct {
	URL string `json:"url"`
	payloadBody
}

// TriggerURL POST /n8n/trigger-url. Пустой URL блокирует вызов.
func (n *N8n) TriggerURL(ctx context.Context, url, payloadText string) (domain.TriggerResult, error) {
	if err := Required("url", url); err != nil {
		return nil, err
	}
	payload, err := ParsePayload(payloadText)
	if err != nil {
		return nil, err
	}
	out := domain.TriggerResult{}
	body := triggerURLBody{URL: strings.TrimSpace(url), payloadBody: payloadBody{Payload: payload}}
	if err := n.c.Post(ctx, "n8n.trigger_url", "/n8n/trigger-url", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Diagnose POST /n8n/diagnostics. Эндпоинт сам сообщает об ошибке внутри 200-ответа,
// поэтому ошибка здесь — только если саму пробу не удалось отправить.
func (n *N8n) Diagnose(ctx context.Context, url, payloadText string) (*domain.DiagnosticsResult, error) {
	if err := Required("url", url); err != nil {
		return nil, err
	}
	payload, err := ParsePayload(payloadText)
	if err != nil {
		return nil, err
	}
	var out domain.DiagnosticsResult
	req := domain.DiagnosticsRequest{URL: strings.TrimSpace(url), Payload: payload}
	if err := n.c.Post(ctx, "n8n.diagnostics", "/n8n/diagnostics", req, &out); err != nil {
		return nil, err
	}
	if out.Status == "" {
		out.Status = domain.DiagnosticsError
	}
	if out.LatencyMs < 0 {
		out.LatencyMs = 0
	}
	return &out, nil
}
