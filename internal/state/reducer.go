package state

import "github.com/xela07ax/blaxing-console/internal/domain"

// Редьюсеры чистые: на вход коллекция, на выход новая коллекция. Вход не мутируется.
// Неизвестный id игнорируется, создать агента можно только через ReplaceAll.

// Agents коллекция агентов: мапа по id плюс порядок, в котором их отдал бэкенд.
type Agents struct {
	ByID  map[string]domain.Agent
	Order []string
}

func NewAgents() Agents {
	return Agents{ByID: map[string]domain.Agent{}, Order: []string{}}
}

// List отдает агентов в серверном порядке.
func (a Agents) List() []domain.Agent {
	out := make([]domain.Agent, 0, len(a.Order))
	for _, id := range a.Order {
		if ag, ok := a.ByID[id]; ok {
			out = append(out, ag)
		}
	}
	return out
}

func (a Agents) Get(id string) (domain.Agent, bool) {
	ag, ok := a.ByID[id]
	return ag, ok
}

func (a Agents) Len() int { return len(a.Order) }

func (a Agents) clone() Agents {
	out := Agents{ByID: make(map[string]domain.Agent, len(a.ByID)), Order: make([]string, len(a.Order))}
	for k, v := range a.ByID {
		out.ByID[k] = v
	}
	copy(out.Order, a.Order)
	return out
}

// ApplyActivated агент поднят: state=active, uptime не трогаем.
func ApplyActivated(a Agents, id string) Agents {
	return update(a, id, func(ag *domain.Agent) {
		ag.State = domain.StateActive
	})
}

// ApplyDeactivated агент остановлен: state=sleep, uptime=0.
func ApplyDeactivated(a Agents, id string) Agents {
	return update(a, id, func(ag *domain.Agent) {
		ag.State = domain.StateSleep
		ag.Uptime = 0
	})
}

// ApplyStatus перезаписывает state и uptime из ответа status.
func ApplyStatus(a Agents, id string, st domain.AgentState, uptime int64) Agents {
	return update(a, id, func(ag *domain.Agent) {
		ag.State = domain.NormalizeState(string(st))
		if uptime < 0 {
			uptime = 0
		}
		ag.Uptime = uptime
	})
}

// ReplaceAll полная замена коллекции результатом list. Дубли id схлопываются, побеждает последний.
func ReplaceAll(list []domain.Agent) Agents {
	out := Agents{ByID: make(map[string]domain.Agent, len(list)), Order: make([]string, 0, len(list))}
	for _, ag := range list {
		if ag.ID == "" {
			continue
		}
		ag.State = domain.NormalizeState(string(ag.State))
		if ag.Uptime < 0 {
			ag.Uptime = 0
		}
		if _, seen := out.ByID[ag.ID]; !seen {
			out.Order = append(out.Order, ag.ID)
		}
		out.ByID[ag.ID] = ag
	}
	return out
}

func update(a Agents, id string, fn func(*domain.Agent)) Agents {
	ag, ok := a.ByID[id]
	if !ok {
		return a
	}
	out := a.clone()
	fn(&ag)
	out.ByID[id] = ag
	return out
}
