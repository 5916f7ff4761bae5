package handler

import (
	"net/http"

	"github.com/xela07ax/blaxing-console/internal/dashboard"
	"github.com/xela07ax/blaxing-console/internal/domain"
	"github.com/xela07ax/blaxing-console/internal/state"
	"go.uber.org/zap"
)

const hiddenURL = "(hidden)"

// ViewHandler отдает состояние сессии и управляет источником данных.
type ViewHandler struct {
	dash     Dashboard
	hideURLs bool
	logger   *zap.Logger
}

func NewViewHandler(d Dashboard, hideURLs bool, logger *zap.Logger) *ViewHandler {
	return &ViewHandler{dash: d, hideURLs: hideURLs, logger: logger.Named("view")}
}

// GetState GET /api/state. Ключ API всегда маскируется.
func (h *ViewHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Present(h.dash.Snapshot(), h.hideURLs))
}

// Refresh ручное обновление, тот же путь, что у поллера.
func (h *ViewHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.dash.Refresh(r.Context()); err != nil {
		writeDetail(w, http.StatusBadGateway, dashboard.Describe(err, "Refresh failed"))
		return
	}
	writeJSON(w, http.StatusOK, Present(h.dash.Snapshot(), h.hideURLs))
}

// SetHeaders PUT /api/headers.
func (h *ViewHandler) SetHeaders(w http.ResponseWriter, r *http.Request) {
	var req domain.HeaderConfig
	if err := decode(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out, err := h.dash.SetHeaders(r.Context(), req)
	if err != nil && !dashboard.IsValidation(err) {
		// Заголовки применены, упал только перезапрос данных
		writeJSON(w, http.StatusOK, out)
		return
	}
	writeOutcome(w, h.logger, out, err)
}

// Present готовит снапшот к отдаче наружу.
// hideURLs скрывает адреса вебхуков только при отображении, это не граница безопасности.
func Present(s state.Snapshot, hideURLs bool) state.Snapshot {
	s.Headers.APIKey = MaskKey(s.Headers.APIKey)
	if !hideURLs {
		return s
	}
	for k, v := range s.Bindings {
		if v != "" {
			s.Bindings[k] = hiddenURL
		}
	}
	for i := range s.Flows {
		s.Flows[i].URL = hiddenURL
	}
	if s.BackendConfig != nil && s.BackendConfig.N8nWebhookBase != "" {
		s.BackendConfig.N8nWebhookBase = hiddenURL
	}
	return s
}

// MaskKey оставляет видимыми только последние четыре символа.
func MaskKey(key string) string {
	r := []rune(key)
	switch {
	case len(r) == 0:
		return ""
	case len(r) <= 4:
		return "****"
	default:
		return "****" + string(r[len(r)-4:])
	}
}
