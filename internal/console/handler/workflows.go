package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/blaxing-console/internal/domain"
	"github.com/xela07ax/blaxing-console/internal/resource"
	"go.uber.org/zap"
)

// payloadRequest текст полезной нагрузки как в поле ввода. Разбор JSON делает дашборд.
type payloadRequest struct {
	Flow    string `json:"flow"`
	URL     string `json:"url"`
	Payload string `json:"payload"`
}

type WorkflowHandler struct {
	dash   Dashboard
	logger *zap.Logger
}

func NewWorkflowHandler(d Dashboard, logger *zap.Logger) *WorkflowHandler {
	return &WorkflowHandler{dash: d, logger: logger.Named("workflows")}
}

// SaveBindings POST /api/hooks/config
func (h *WorkflowHandler) SaveBindings(w http.ResponseWriter, r *http.Request) {
	var req domain.WorkflowBindings
	if err := decode(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out, err := h.dash.SaveBindings(r.Context(), req)
	writeOutcome(w, h.logger, out, err)
}

// Notify POST /api/hooks/notify
func (h *WorkflowHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var req domain.NotifyRequest
	if err := decode(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out, err := h.dash.Notify(r.Context(), resource.NotifyInput{Flow: req.Flow, Event: req.Event, Data: req.Data})
	writeOutcome(w, h.logger, out, err)
}

// TriggerFlow POST /api/n8n/trigger/{flow}
func (h *WorkflowHandler) TriggerFlow(w http.ResponseWriter, r *http.Request) {
	req, ok := h.payload(w, r)
	if !ok {
		return
	}
	out, err := h.dash.TriggerFlow(r.Context(), chi.URLParam(r, "flow"), req.Payload)
	writeOutcome(w, h.logger, out, err)
}

// TriggerURL POST /api/n8n/trigger-url
func (h *WorkflowHandler) TriggerURL(w http.ResponseWriter, r *http.Request) {
	req, ok := h.payload(w, r)
	if !ok {
		return
	}
	out, err := h.dash.TriggerURL(r.Context(), req.URL, req.Payload)
	writeOutcome(w, h.logger, out, err)
}

// Diagnose POST /api/n8n/diagnostics. Проба с ответом "error" все равно 200.
func (h *WorkflowHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	req, ok := h.payload(w, r)
	if !ok {
		return
	}
	out, err := h.dash.Diagnose(r.Context(), req.Flow, req.URL, req.Payload)
	writeOutcome(w, h.logger, out, err)
}

// UpsertFlow POST /api/n8n/flows/upsert
func (h *WorkflowHandler) UpsertFlow(w http.ResponseWriter, r *http.Request) {
	var req domain.FlowBinding
	if err := decode(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out, err := h.dash.UpsertFlow(r.Context(), req.Flow, req.URL)
	writeOutcome(w, h.logger, out, err)
}

// TriggerNamedFlow POST /api/n8n/flows/trigger/{flow}
func (h *WorkflowHandler) TriggerNamedFlow(w http.ResponseWriter, r *http.Request) {
	req, ok := h.payload(w, r)
	if !ok {
		return
	}
	out, err := h.dash.TriggerNamedFlow(r.Context(), chi.URLParam(r, "flow"), req.Payload)
	writeOutcome(w, h.logger, out, err)
}

func (h *WorkflowHandler) BuilderList(w http.ResponseWriter, r *http.Request) {
	out, err := h.dash.BuilderList(r.Context())
	writeOutcome(w, h.logger, out, err)
}

func (h *WorkflowHandler) BuilderCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.BuilderAgent
	if err := decode(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out, err := h.dash.BuilderCreate(r.Context(), req)
	writeOutcome(w, h.logger, out, err)
}

func (h *WorkflowHandler) BuilderAsk(w http.ResponseWriter, r *http.Request) {
	var req domain.AskRequest
	if err := decode(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out, err := h.dash.BuilderAsk(r.Context(), req.AgentID, req.Prompt)
	writeOutcome(w, h.logger, out, err)
}

func (h *WorkflowHandler) payload(w http.ResponseWriter, r *http.Request) (payloadRequest, bool) {
	var req payloadRequest
	if err := decode(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	return req, true
}
