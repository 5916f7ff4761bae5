package domain

// BuilderAgent агент из конструктора (agent-builder).
type BuilderAgent struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Personality string `json:"personality"`
	Mission     string `json:"mission"`
}

type AskRequest struct {
	AgentID string `json:"agent_id"`
	Prompt  string `json:"prompt"`
}

type AskResponse struct {
	Response string `json:"response"`
}
