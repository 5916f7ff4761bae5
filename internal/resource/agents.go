package resource

import (
	"context"
	"strings"

	"github.com/xela07ax/blaxing-console/internal/domain"
)

type Agents struct {
	c Caller
}

// RegisterInput структурная форма регистрации (вместо prompt-диалогов).
type RegisterInput struct {
	AgentID string
	Name    string
	Image   string
	Env     map[string]string
}

func (in RegisterInput) Validate() error {
	if err := Required("agent_id", in.AgentID); err != nil {
		return err
	}
	return Required("image", in.Image)
}

// List GET /agents/list. Порядок сохраняется как у бэкенда.
func (a *Agents) List(ctx context.Context) ([]domain.Agent, error) {
	var agents []domain.Agent
	if err := a.c.Get(ctx, "agents.list", "/agents/list", nil, &agents); err != nil {
		return nil, err
	}
	for i := range agents {
		agents[i].State = domain.NormalizeState(string(agents[i].State))
	}
	return agents, nil
}

func (a *Agents) Register(ctx context.Context, in RegisterInput) (*domain.Agent, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	req := domain.RegisterAgentRequest{
		AgentID: strings.TrimSpace(in.AgentID),
		Name:    in.Name,
		Image:   strings.TrimSpace(in.Image),
		Env:     in.Env,
	}
	var out domain.Agent
	if err := a.c.Post(ctx, "agents.register", "/agents/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Agents) Activate(ctx context.Context, id string) (*domain.Agent, error) {
	return a.action(ctx, "agents.activate", id, "activate")
}

func (a *Agents) Deactivate(ctx context.Context, id string) (*domain.Agent, error) {
	return a.action(ctx, "agents.deactivate", id, "deactivate")
}

// Status GET /agents/{id}/status, свежие state и uptime.
func (a *Agents) Status(ctx context.Context, id string) (*domain.Agent, error) {
	if err := Required("agent_id", id); err != nil {
		return nil, err
	}
	var out domain.Agent
	if err := a.c.Get(ctx, "agents.status", "/agents/"+escape(id)+"/status", nil, &out); err != nil {
		return nil, err
	}
	return normalized(out, id), nil
}

func (a *Agents) ActivateAll(ctx context.Context) (*domain.BulkResult, error) {
	return a.bulk(ctx, "agents.activate_all", "/agents/activate-all")
}

func (a *Agents) DeactivateAll(ctx context.Context) (*domain.BulkResult, error) {
	return a.bulk(ctx, "agents.deactivate_all", "/agents/deactivate-all")
}

func (a *Agents) action(ctx context.Context, op, id, verb string) (*domain.Agent, error) {
	if err := Required("agent_id", id); err != nil {
		return nil, err
	}
	var out domain.Agent
	if err := a.c.Post(ctx, op, "/agents/"+escape(id)+"/"+verb, nil, &out); err != nil {
		return nil, err
	}
	return normalized(out, id), nil
}

func (a *Agents) bulk(ctx context.Context, op, path string) (*domain.BulkResult, error) {
	var out domain.BulkResult
	if err := a.c.Post(ctx, op, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// normalized бэкенд иногда не возвращает agent_id в ответе на действие.
func normalized(a domain.Agent, id string) *domain.Agent {
	if a.ID == "" {
		a.ID = strings.TrimSpace(id)
	}
	a.State = domain.NormalizeState(string(a.State))
	return &a
}
