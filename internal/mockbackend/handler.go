package mockbackend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/blaxing-console/internal/domain"
	"go.uber.org/zap"
)

// Handler собирает роутер. Все маршруты живут под /api, как у настоящего бэкенда.
func (b *Backend) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(b.sourceLogger)
		r.Use(b.apiKeyGuard)

		r.Get("/config", b.handleConfig)
		r.Get("/audit", b.handleAudit)

		r.Route("/agents", func(r chi.Router) {
			r.Get("/list", b.handleList)
			r.Post("/register", b.handleRegister)
			r.Post("/activate-all", b.handleBulk(true))
			r.Post("/deactivate-all", b.handleBulk(false))
			r.Route("/{id}", func(r chi.Router) {
				r.Post("/activate", b.handleActivate)
				r.Post("/deactivate", b.handleDeactivate)
				r.Get("/status", b.handleStatus)
			})
		})

		r.Route("/hooks", func(r chi.Router) {
			r.Get("/config", b.handleHooksGet)
			r.Post("/config", b.handleHooksSave)
			r.Post("/notify", b.handleNotify)
		})

		r.Route("/n8n", func(r chi.Router) {
			r.Post("/trigger/{flow}", b.handleTriggerFlow)
			r.Post("/trigger-url", b.handleTriggerURL)
			r.Post("/diagnostics", b.handleDiagnostics)
			r.Get("/flows/list", b.handleFlowsList)
			r.Post("/flows/upsert", b.handleFlowsUpsert)
			r.Post("/flows/trigger/{flow}", b.handleFlowsTrigger)
		})

		r.Route("/agent-builder", func(r chi.Router) {
			r.Get("/list", b.handleBuilderList)
			r.Post("/create", b.handleBuilderCreate)
			r.Post("/ask", b.handleBuilderAsk)
		})
	})

	// Ручка стенда, бэкенд Blaxing ее не имеет
	r.With(b.apiKeyGuard).Put("/admin/dry-run", b.handleDryRun)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func (b *Backend) sourceLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("source", r.Header.Get(domain.HeaderSource)))
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) apiKeyGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.RLock()
		want := b.opts.APIKey
		b.mu.RUnlock()
		if want != "" && r.Header.Get(domain.HeaderAPIKey) != want {
			writeDetail(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.Config())
}

func (b *Backend) handleDryRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DryRun bool `json:"dry_run"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b.SetDryRun(req.DryRun)
	writeJSON(w, http.StatusOK, b.Config())
}

func (b *Backend) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, http.StatusOK, domain.AuditPage{Items: b.Audit(limit)})
}

func (b *Backend) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.ListAgents())
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.AgentID) == "" || strings.TrimSpace(req.Image) == "" {
		writeDetail(w, http.StatusBadRequest, "agent_id and image are required")
		return
	}
	agent, err := b.Register(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (b *Backend) handleActivate(w http.ResponseWriter, r *http.Request) {
	agent, err := b.Activate(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (b *Backend) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	agent, err := b.Deactivate(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (b *Backend) handleStatus(w http.ResponseWriter, r *http.Request) {
	agent, err := b.Agent(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (b *Backend) handleBulk(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, b.SetAll(active))
	}
}

func (b *Backend) handleHooksGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.Bindings())
}

func (b *Backend) handleHooksSave(w http.ResponseWriter, r *http.Request) {
	in := domain.WorkflowBindings{}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, b.SaveBindings(in))
}

// handleNotify уведомление по роли флоу. В dry-run апстрим не вызывается.
func (b *Backend) handleNotify(w http.ResponseWriter, r *http.Request) {
	var req domain.NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	url, err := b.bindingURL(req.Flow)
	if err != nil {
		writeError(w, err)
		return
	}
	if b.dryRun() {
		b.Record("notify", "", true, 0)
		writeJSON(w, http.StatusOK, domain.NotifyResult{DryRun: true})
		return
	}
	reply, err := b.hooks.post(r.Context(), url, map[string]any{"event": req.Event, "data": req.Data})
	if err != nil {
		b.Record("notify", "", false, 0)
		writeDetail(w, http.StatusBadGateway, err.Error())
		return
	}
	ok := reply.Code < 400
	b.Record("notify", "", ok, reply.Code)
	if !ok {
		writeDetail(w, http.StatusBadGateway, "upstream returned "+strconv.Itoa(reply.Code))
		return
	}
	writeJSON(w, http.StatusOK, domain.NotifyResult{Status: "sent", Code: reply.Code})
}

type triggerBody struct {
	URL     string          `json:"url,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

func (b *Backend) handleTriggerFlow(w http.ResponseWriter, r *http.Request) {
	flow := chi.URLParam(r, "flow")
	url, err := b.bindingURL(flow)
	if err != nil {
		writeError(w, err)
		return
	}
	b.trigger(w, r, "trigger:"+flow, url)
}

func (b *Backend) handleTriggerURL(w http.ResponseWriter, r *http.Request) {
	b.trigger(w, r, "trigger_url", "")
}

func (b *Backend) handleFlowsTrigger(w http.ResponseWriter, r *http.Request) {
	flow := chi.URLParam(r, "flow")
	url, err := b.flowURL(flow)
	if err != nil {
		writeError(w, err)
		return
	}
	b.trigger(w, r, "flow_trigger:"+flow, url)
}

// trigger пересылает payload на вебхук. Пустой url берется из тела запроса.
func (b *Backend) trigger(w http.ResponseWriter, r *http.Request, action, url string) {
	var body triggerBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if url == "" {
		url = strings.TrimSpace(body.URL)
	}
	if url == "" {
		writeDetail(w, http.StatusBadRequest, "url is required")
		return
	}
	if len(body.Payload) == 0 {
		body.Payload = json.RawMessage(`{}`)
	}
	if b.dryRun() {
		b.Record(action, "", true, 0)
		writeJSON(w, http.StatusOK, domain.TriggerResult{"dry_run": true, "payload": body.Payload})
		return
	}

	reply, err := b.hooks.post(r.Context(), url, body.Payload)
	if err != nil {
		b.Record(action, "", false, 0)
		writeDetail(w, http.StatusBadGateway, err.Error())
		return
	}
	b.Record(action, "", reply.Code < 400, reply.Code)
	if reply.Code >= 400 {
		writeDetail(w, http.StatusBadGateway, "upstream returned "+strconv.Itoa(reply.Code))
		return
	}
	writeJSON(w, http.StatusOK, reply.result())
}

func (b *Backend) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	var req domain.DiagnosticsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeDetail(w, http.StatusBadRequest, "url is required")
		return
	}
	res := b.hooks.diagnose(r.Context(), req.URL, req.Payload)
	b.Record("diagnostics", "", res.OK(), res.HTTPCode)
	writeJSON(w, http.StatusOK, res)
}

func (b *Backend) handleFlowsList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.FlowList{Flows: b.Flows()})
}

func (b *Backend) handleFlowsUpsert(w http.ResponseWriter, r *http.Request) {
	var f domain.FlowBinding
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(f.Flow) == "" || strings.TrimSpace(f.URL) == "" {
		writeDetail(w, http.StatusBadRequest, "flow and url are required")
		return
	}
	b.UpsertFlow(f)
	writeJSON(w, http.StatusOK, f)
}

func (b *Backend) handleBuilderList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.BuilderAgents())
}

func (b *Backend) handleBuilderCreate(w http.ResponseWriter, r *http.Request) {
	var in domain.BuilderAgent
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		writeDetail(w, http.StatusBadRequest, "name is required")
		return
	}
	writeJSON(w, http.StatusOK, b.CreateBuilderAgent(in))
}

// handleBuilderAsk детерминированный ответ вместо LLM.
func (b *Backend) handleBuilderAsk(w http.ResponseWriter, r *http.Request) {
	var req domain.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	agent, err := b.builderAgent(req.AgentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.AskResponse{Response: agent.Name + " (" + agent.Role + "): " + req.Prompt})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// writeDetail отвечает в формате FastAPI: {"detail": "..."}.
func writeDetail(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"detail": msg})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errAgentNotFound), errors.Is(err, errFlowNotBound), errors.Is(err, errBuilderMissing):
		writeDetail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errAgentExists):
		writeDetail(w, http.StatusConflict, err.Error())
	default:
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}
