package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/blaxing-console/internal/domain"
	"github.com/xela07ax/blaxing-console/internal/resource"
	"go.uber.org/zap"
)

type AgentHandler struct {
	dash   Dashboard
	logger *zap.Logger
}

func NewAgentHandler(d Dashboard, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{dash: d, logger: logger.Named("agents")}
}

// Activate POST /api/agents/{id}/activate
func (h *AgentHandler) Activate(w http.ResponseWriter, r *http.Request) {
	out, err := h.dash.Activate(r.Context(), chi.URLParam(r, "id"))
	writeOutcome(w, h.logger, out, err)
}

func (h *AgentHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	out, err := h.dash.Deactivate(r.Context(), chi.URLParam(r, "id"))
	writeOutcome(w, h.logger, out, err)
}

func (h *AgentHandler) Status(w http.ResponseWriter, r *http.Request) {
	out, err := h.dash.Status(r.Context(), chi.URLParam(r, "id"))
	writeOutcome(w, h.logger, out, err)
}

func (h *AgentHandler) ActivateAll(w http.ResponseWriter, r *http.Request) {
	out, err := h.dash.ActivateAll(r.Context())
	writeOutcome(w, h.logger, out, err)
}

func (h *AgentHandler) DeactivateAll(w http.ResponseWriter, r *http.Request) {
	out, err := h.dash.DeactivateAll(r.Context())
	writeOutcome(w, h.logger, out, err)
}

// Register POST /api/agents/register, тело как у бэкенда.
func (h *AgentHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterAgentRequest
	if err := decode(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out, err := h.dash.Register(r.Context(), resource.RegisterInput{
		AgentID: req.AgentID,
		Name:    req.Name,
		Image:   req.Image,
		Env:     req.Env,
	})
	writeOutcome(w, h.logger, out, err)
}
