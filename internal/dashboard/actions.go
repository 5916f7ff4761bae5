package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/xela07ax/blaxing-console/internal/domain"
	"github.com/xela07ax/blaxing-console/internal/resource"
	"github.com/xela07ax/blaxing-console/internal/signal"
	"github.com/xela07ax/blaxing-console/internal/state"
)

// Activate оптимистичное обновление одной карточки: state=active, uptime как был.
func (d *Dashboard) Activate(ctx context.Context, id string) (Outcome, error) {
	agent, err := d.res.Agents.Activate(ctx, id)
	if err != nil {
		return d.fail("activate", id, "Activation failed", err)
	}
	d.apply(func(s *state.Store) {
		s.Mutate(func(a state.Agents) state.Agents { return state.ApplyActivated(a, agent.ID) })
	})
	d.publish(signal.KindAgents, "activate", agent.ID)
	return d.outcome("activate", agent.ID, domain.NoticeSuccess, fmt.Sprintf("%s activated", agent.ID), agent), nil
}

// Deactivate state=sleep, uptime=0.
func (d *Dashboard) Deactivate(ctx context.Context, id string) (Outcome, error) {
	agent, err := d.res.Agents.Deactivate(ctx, id)
	if err != nil {
		return d.fail("deactivate", id, "Deactivation failed", err)
	}
	d.apply(func(s *state.Store) {
		s.Mutate(func(a state.Agents) state.Agents { return state.ApplyDeactivated(a, agent.ID) })
	})
	d.publish(signal.KindAgents, "deactivate", agent.ID)
	return d.outcome("deactivate", agent.ID, domain.NoticeSuccess, fmt.Sprintf("%s deactivated", agent.ID), agent), nil
}

// Status ответ сервера авторитетен: перезаписываем state и uptime.
func (d *Dashboard) Status(ctx context.Context, id string) (Outcome, error) {
	agent, err := d.res.Agents.Status(ctx, id)
	if err != nil {
		return d.fail("status", id, "Status check failed", err)
	}
	d.apply(func(s *state.Store) {
		s.Mutate(func(a state.Agents) state.Agents {
			return state.ApplyStatus(a, agent.ID, agent.State, agent.Uptime)
		})
	})
	msg := fmt.Sprintf("%s is %s (uptime %ds)", agent.ID, agent.State, agent.Uptime)
	return d.outcome("status", agent.ID, domain.NoticeSuccess, msg, agent), nil
}

func (d *Dashboard) ActivateAll(ctx context.Context) (Outcome, error) {
	return d.bulk(ctx, "activate_all", true)
}

func (d *Dashboard) DeactivateAll(ctx context.Context) (Outcome, error) {
	return d.bulk(ctx, "deactivate_all", false)
}

// bulk: dry-run не трогает стор и дает info-уведомление, иначе полный Refresh.
// Оптимистично обновлять весь набор нельзя: затронутые агенты неизвестны.
func (d *Dashboard) bulk(ctx context.Context, action string, activate bool) (Outcome, error) {
	call := d.res.Agents.DeactivateAll
	generic := "Deactivate all failed"
	if activate {
		call = d.res.Agents.ActivateAll
		generic = "Activate all failed"
	}

	res, err := call(ctx)
	if err != nil {
		return d.fail(action, "", generic, err)
	}
	if res.DryRun {
		return d.outcome(action, "", domain.NoticeInfo, "Dry-run: no agents were changed", res), nil
	}

	d.publish(signal.KindAgents, action, "")
	_ = d.Refresh(ctx)
	msg := "All agents activated"
	if !activate {
		msg = "All agents deactivated"
	}
	return d.outcome(action, "", domain.NoticeSuccess, msg, res), nil
}

// Register агента создает сервер, поэтому после успеха перечитываем список.
func (d *Dashboard) Register(ctx context.Context, in resource.RegisterInput) (Outcome, error) {
	agent, err := d.res.Agents.Register(ctx, in)
	if err != nil {
		return d.fail("register", in.AgentID, "Registration failed", err)
	}
	id := agent.ID
	if id == "" {
		id = strings.TrimSpace(in.AgentID)
	}
	d.publish(signal.KindAgents, "register", id)
	_ = d.Refresh(ctx)
	return d.outcome("register", id, domain.NoticeSuccess, fmt.Sprintf("%s registered", id), agent), nil
}
