package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/xela07ax/blaxing-console/internal/domain"
	"github.com/xela07ax/blaxing-console/internal/resource"
	"github.com/xela07ax/blaxing-console/internal/signal"
	"github.com/xela07ax/blaxing-console/internal/state"
	"go.uber.org/zap"
)

// SaveBindings сохраняет привязки ролей флоу и кладет в стор то, что подтвердил бэкенд.
func (d *Dashboard) SaveBindings(ctx context.Context, b domain.WorkflowBindings) (Outcome, error) {
	saved, err := d.res.Hooks.Save(ctx, b)
	if err != nil {
		return d.fail("hooks_save", "", "Saving workflow bindings failed", err)
	}
	d.apply(func(s *state.Store) { s.SetBindings(saved) })
	d.publish(signal.KindFlows, "hooks_save", "")
	return d.outcome("hooks_save", "", domain.NoticeSuccess, "Workflow bindings saved", saved), nil
}

// Notify шлет тестовое уведомление. Флоу, заведомо без URL, отсекается до вызова.
func (d *Dashboard) Notify(ctx context.Context, in resource.NotifyInput) (Outcome, error) {
	if err := resource.Required("flow", in.Flow); err != nil {
		return d.fail("notify", "", "Notification failed", err)
	}
	if d.store.FlowUnbound(in.Flow) {
		err := fmt.Errorf("%s: webhook url %w", in.Flow, domain.ErrRequired)
		return d.fail("notify", "", "Notification failed", err)
	}

	res, err := d.res.Hooks.Notify(ctx, in)
	if err != nil {
		return d.fail("notify", "", "Notification failed", err)
	}
	if res.DryRun {
		return d.outcome("notify", "", domain.NoticeInfo, fmt.Sprintf("Dry-run: %s not delivered", in.Flow), res), nil
	}
	return d.outcome("notify", "", domain.NoticeSuccess, fmt.Sprintf("%s notified", in.Flow), res), nil
}

// TriggerFlow прямой триггер n8n флоу по имени.
func (d *Dashboard) TriggerFlow(ctx context.Context, flow, payload string) (Outcome, error) {
	out, err := d.res.N8n.TriggerFlow(ctx, flow, payload)
	if err != nil {
		return d.fail("trigger", "", "Trigger failed", err)
	}
	return d.triggered("trigger", flow, out), nil
}

// TriggerURL триггер по абсолютному URL.
func (d *Dashboard) TriggerURL(ctx context.Context, url, payload string) (Outcome, error) {
	out, err := d.res.N8n.TriggerURL(ctx, url, payload)
	if err != nil {
		return d.fail("trigger_url", "", "Trigger failed", err)
	}
	return d.triggered("trigger_url", url, out), nil
}

// TriggerNamedFlow триггер сохраненного флоу, URL знает бэкенд.
func (d *Dashboard) TriggerNamedFlow(ctx context.Context, flow, payload string) (Outcome, error) {
	out, err := d.res.Flows.Trigger(ctx, flow, payload)
	if err != nil {
		return d.fail("flow_trigger", "", "Flow trigger failed", err)
	}
	return d.triggered("flow_trigger", flow, out), nil
}

func (d *Dashboard) triggered(action, target string, out domain.TriggerResult) Outcome {
	if dry, _ := out["dry_run"].(bool); dry {
		return d.outcome(action, "", domain.NoticeInfo, fmt.Sprintf("Dry-run: %s not called", target), out)
	}
	return d.outcome(action, "", domain.NoticeSuccess, fmt.Sprintf("%s triggered", target), out)
}

// Diagnose пробует вебхук. Результат пробы кладется в стор при любом статусе.
// flow подпись для отображения, может быть пустой.
func (d *Dashboard) Diagnose(ctx context.Context, flow, url, payload string) (Outcome, error) {
	res, err := d.res.N8n.Diagnose(ctx, url, payload)
	if err != nil {
		return d.fail("diagnostics", "", "Diagnostics failed", err)
	}
	res.Flow = flow
	if res.Flow == "" {
		res.Flow = strings.TrimSpace(url)
	}
	d.apply(func(s *state.Store) { s.SetDiagnostics(*res) })

	msg := fmt.Sprintf("%s: %s", res.Flow, res.Status)
	if res.HTTPCode > 0 {
		msg = fmt.Sprintf("%s: %s (%d, %dms)", res.Flow, res.Status, res.HTTPCode, res.LatencyMs)
	}
	level := domain.NoticeSuccess
	if !res.OK() {
		level = domain.NoticeError
	}
	return d.outcome("diagnostics", "", level, msg, res), nil
}

// UpsertFlow сохраняет именованный флоу и перечитывает список.
func (d *Dashboard) UpsertFlow(ctx context.Context, flow, url string) (Outcome, error) {
	if err := d.res.Flows.Upsert(ctx, flow, url); err != nil {
		return d.fail("flow_upsert", "", "Saving flow failed", err)
	}
	flows, err := d.res.Flows.List(ctx)
	if err != nil {
		d.logger.Warn("flows list fetch failed after upsert", zap.Error(err))
	} else {
		d.apply(func(s *state.Store) { s.SetFlows(flows) })
	}
	d.publish(signal.KindFlows, "flow_upsert", "")
	return d.outcome("flow_upsert", "", domain.NoticeSuccess, fmt.Sprintf("%s saved", flow), flows), nil
}

func (d *Dashboard) BuilderList(ctx context.Context) (Outcome, error) {
	agents, err := d.res.Builder.List(ctx)
	if err != nil {
		return d.fail("builder_list", "", "Loading builder agents failed", err)
	}
	return Outcome{Data: agents}, nil
}

func (d *Dashboard) BuilderCreate(ctx context.Context, in domain.BuilderAgent) (Outcome, error) {
	agent, err := d.res.Builder.Create(ctx, in)
	if err != nil {
		return d.fail("builder_create", "", "Creating builder agent failed", err)
	}
	return d.outcome("builder_create", agent.ID, domain.NoticeSuccess, fmt.Sprintf("%s created", agent.Name), agent), nil
}

func (d *Dashboard) BuilderAsk(ctx context.Context, agentID, prompt string) (Outcome, error) {
	answer, err := d.res.Builder.Ask(ctx, agentID, prompt)
	if err != nil {
		return d.fail("builder_ask", agentID, "Ask failed", err)
	}
	return d.outcome("builder_ask", agentID, domain.NoticeSuccess, "Answer received", domain.AskResponse{Response: answer}), nil
}
