package resource

import (
	"context"

	"github.com/xela07ax/blaxing-console/internal/domain"
)

// Hooks привязки ролей флоу к вебхукам и тестовые уведомления.
type Hooks struct {
	c Caller
}

func (h *Hooks) Get(ctx context.Context) (domain.WorkflowBindings, error) {
	out := domain.WorkflowBindings{}
	if err := h.c.Get(ctx, "hooks.get", "/hooks/config", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Save POST /hooks/config. Если бэкенд не вернул тело, считаем сохраненным то, что отправили.
func (h *Hooks) Save(ctx context.Context, b domain.WorkflowBindings) (domain.WorkflowBindings, error) {
	out := domain.WorkflowBindings{}
	if err := h.c.Post(ctx, "hooks.save", "/hooks/config", b, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return b.Clone(), nil
	}
	return out, nil
}

type NotifyInput struct {
	Flow  string
	Event string
	Data  map[string]any
}

// Notify POST /hooks/notify. Результат — подтверждение либо dry_run.
func (h *Hooks) Notify(ctx context.Context, in NotifyInput) (*domain.NotifyResult, error) {
	if err := Required("flow", in.Flow); err != nil {
		return nil, err
	}
	if err := Required("event", in.Event); err != nil {
		return nil, err
	}
	data := in.Data
	if data == nil {
		data = map[string]any{}
	}
	var out domain.NotifyResult
	req := domain.NotifyRequest{Flow: in.Flow, Event: in.Event, Data: data}
	if err := h.c.Post(ctx, "hooks.notify", "/hooks/notify", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
