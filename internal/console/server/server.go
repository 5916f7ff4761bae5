package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xela07ax/blaxing-console/internal/console/handler"
	"github.com/xela07ax/blaxing-console/internal/journal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type ConsoleServer struct {
	router   *chi.Mux
	logger   *zap.Logger
	gatherer prometheus.Gatherer
	limiter  *rate.Limiter

	viewHandler     *handler.ViewHandler     // /api/state, /api/refresh, /api/headers
	agentHandler    *handler.AgentHandler    // /api/agents
	workflowHandler *handler.WorkflowHandler // /api/hooks, /api/n8n, /api/agent-builder
	journalHandler  *handler.JournalHandler  // /api/journal, только если журнал читаемый
}

type Options struct {
	HideWebhookURLs  bool
	ActionsPerSecond float64 // <= 0: без ограничения
	Burst            int
	Gatherer         prometheus.Gatherer // nil: /metrics не публикуется
	Journal          journal.Reader      // nil: /api/journal не публикуется
}

// NewConsoleServer собирает HTTP-поверхность одной сессии дашборда.
func NewConsoleServer(dash handler.Dashboard, opts Options, logger *zap.Logger) *ConsoleServer {
	logger = logger.Named("console-api")
	s := &ConsoleServer{
		router:          chi.NewRouter(),
		logger:          logger,
		gatherer:        opts.Gatherer,
		viewHandler:     handler.NewViewHandler(dash, opts.HideWebhookURLs, logger),
		agentHandler:    handler.NewAgentHandler(dash, logger),
		workflowHandler: handler.NewWorkflowHandler(dash, logger),
	}
	if opts.Journal != nil {
		s.journalHandler = handler.NewJournalHandler(opts.Journal, logger)
	}
	if opts.ActionsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.ActionsPerSecond), burst)
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		// Чтение состояния не лимитируется: это локальный стор
		r.Get("/state", s.viewHandler.GetState)
		if s.journalHandler != nil {
			r.Get("/journal", s.journalHandler.Recent)
		}

		// Все, что ходит в бэкенд, идет через лимитер
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)

			r.Post("/refresh", s.viewHandler.Refresh)
			r.Put("/headers", s.viewHandler.SetHeaders)

			r.Route("/agents", func(r chi.Router) {
				r.Post("/register", s.agentHandler.Register)
				r.Post("/activate-all", s.agentHandler.ActivateAll)
				r.Post("/deactivate-all", s.agentHandler.DeactivateAll)
				r.Route("/{id}", func(r chi.Router) {
					r.Post("/activate", s.agentHandler.Activate)
					r.Post("/deactivate", s.agentHandler.Deactivate)
					r.Get("/status", s.agentHandler.Status)
				})
			})

			r.Route("/hooks", func(r chi.Router) {
				r.Post("/config", s.workflowHandler.SaveBindings)
				r.Post("/notify", s.workflowHandler.Notify)
			})

			r.Route("/n8n", func(r chi.Router) {
				r.Post("/trigger/{flow}", s.workflowHandler.TriggerFlow)
				r.Post("/trigger-url", s.workflowHandler.TriggerURL)
				r.Post("/diagnostics", s.workflowHandler.Diagnose)
				r.Post("/flows/upsert", s.workflowHandler.UpsertFlow)
				r.Post("/flows/trigger/{flow}", s.workflowHandler.TriggerNamedFlow)
			})

			r.Route("/agent-builder", func(r chi.Router) {
				r.Get("/list", s.workflowHandler.BuilderList)
				r.Post("/create", s.workflowHandler.BuilderCreate)
				r.Post("/ask", s.workflowHandler.BuilderAsk)
			})
		})
	})
}

// rateLimit отклоняет действия сверх лимита, не ставя их в очередь.
func (s *ConsoleServer) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"detail":"too many actions, slow down"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *ConsoleServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
