package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/xela07ax/blaxing-console/internal/dashboard"
	"github.com/xela07ax/blaxing-console/internal/domain"
	"github.com/xela07ax/blaxing-console/internal/resource"
	"github.com/xela07ax/blaxing-console/internal/state"
	"go.uber.org/zap"
)

// Dashboard то, что консоли нужно от сессии дашборда.
type Dashboard interface {
	Snapshot() state.Snapshot
	Refresh(ctx context.Context) error
	SetHeaders(ctx context.Context, h domain.HeaderConfig) (dashboard.Outcome, error)

	Activate(ctx context.Context, id string) (dashboard.Outcome, error)
	Deactivate(ctx context.Context, id string) (dashboard.Outcome, error)
	Status(ctx context.Context, id string) (dashboard.Outcome, error)
	ActivateAll(ctx context.Context) (dashboard.Outcome, error)
	DeactivateAll(ctx context.Context) (dashboard.Outcome, error)
	Register(ctx context.Context, in resource.RegisterInput) (dashboard.Outcome, error)

	SaveBindings(ctx context.Context, b domain.WorkflowBindings) (dashboard.Outcome, error)
	Notify(ctx context.Context, in resource.NotifyInput) (dashboard.Outcome, error)
	TriggerFlow(ctx context.Context, flow, payload string) (dashboard.Outcome, error)
	TriggerURL(ctx context.Context, url, payload string) (dashboard.Outcome, error)
	TriggerNamedFlow(ctx context.Context, flow, payload string) (dashboard.Outcome, error)
	Diagnose(ctx context.Context, flow, url, payload string) (dashboard.Outcome, error)
	UpsertFlow(ctx context.Context, flow, url string) (dashboard.Outcome, error)

	BuilderList(ctx context.Context) (dashboard.Outcome, error)
	BuilderCreate(ctx context.Context, in domain.BuilderAgent) (dashboard.Outcome, error)
	BuilderAsk(ctx context.Context, agentID, prompt string) (dashboard.Outcome, error)
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// decode разбирает тело запроса. Пустое тело допустимо, dst остается нулевым.
func decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeOutcome отдает результат действия. Статус ответа зависит только от ошибки:
// валидация — 422, все остальное пришло от бэкенда — 502.
func writeOutcome(w http.ResponseWriter, logger *zap.Logger, out dashboard.Outcome, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, out)
	case dashboard.IsValidation(err):
		writeJSON(w, http.StatusUnprocessableEntity, out)
	default:
		logger.Debug("action failed", zap.String("notice", out.Notice.Message), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, out)
	}
}
