package resource

import (
	"context"
	"encoding/json"

	"github.com/xela07ax/blaxing-console/internal/domain"
)

// Builder под-ресурс конструктора агентов.
type Builder struct {
	c Caller
}

// List терпит не-массив в ответе: в этом случае список пуст.
func (b *Builder) List(ctx context.Context) ([]domain.BuilderAgent, error) {
	var raw json.RawMessage
	if err := b.c.Get(ctx, "builder.list", "/agent-builder/list", nil, &raw); err != nil {
		return nil, err
	}
	agents := []domain.BuilderAgent{}
	if err := json.Unmarshal(raw, &agents); err != nil {
		return []domain.BuilderAgent{}, nil
	}
	return agents, nil
}

func (b *Builder) Create(ctx context.Context, in domain.BuilderAgent) (*domain.BuilderAgent, error) {
	if err := Required("name", in.Name); err != nil {
		return nil, err
	}
	var out domain.BuilderAgent
	if err := b.c.Post(ctx, "builder.create", "/agent-builder/create", in, &out); err != nil {
		return nil, err
	}
	if out.Name == "" {
		out = in
	}
	return &out, nil
}

func (b *Builder) Ask(ctx context.Context, agentID, prompt string) (string, error) {
	if err := Required("agent", agentID); err != nil {
		return "", err
	}
	if err := Required("prompt", prompt); err != nil {
		return "", err
	}
	var out domain.AskResponse
	if err := b.c.Post(ctx, "builder.ask", "/agent-builder/ask", domain.AskRequest{AgentID: agentID, Prompt: prompt}, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}
