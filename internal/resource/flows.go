package resource

import (
	"context"
	"strings"

	"github.com/xela07ax/blaxing-console/internal/domain"
)

// Flows именованные привязки n8n флоу, хранятся на бэкенде.
type Flows struct {
	c Caller
}

func (f *Flows) List(ctx context.Context) ([]domain.FlowBinding, error) {
	var out domain.FlowList
	if err := f.c.Get(ctx, "flows.list", "/n8n/flows/list", nil, &out); err != nil {
		return nil, err
	}
	if out.Flows == nil {
		return []domain.FlowBinding{}, nil
	}
	return out.Flows, nil
}

// Upsert POST /n8n/flows/upsert. Пустой URL не отправляем.
func (f *Flows) Upsert(ctx context.Context, flow, url string) error {
	if err := Required("flow", flow); err != nil {
		return err
	}
	if err := Required("url", url); err != nil {
		return err
	}
	b := domain.FlowBinding{Flow: strings.TrimSpace(flow), URL: strings.TrimSpace(url)}
	return f.c.Post(ctx, "flows.upsert", "/n8n/flows/upsert", b, nil)
}

// Trigger POST /n8n/flows/trigger/{flow}, URL берется бэкендом из сохраненной привязки.
func (f *Flows) Trigger(ctx context.Context, flow, payloadText string) (domain.TriggerResult, error) {
	if err := Required("flow", flow); err != nil {
		return nil, err
	}
	payload, err := ParsePayload(payloadText)
	if err != nil {
		return nil, err
	}
	out := domain.TriggerResult{}
	if err := f.c.Post(ctx, "flows.trigger", "/n8n/flows/trigger/"+escape(flow), payloadBody{Payload: payload}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
