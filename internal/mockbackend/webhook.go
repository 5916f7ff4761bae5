package mockbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xela07ax/blaxing-console/internal/domain"
)

const maxUpstreamText = 400

// webhookCaller исходящие вызовы n8n вебхуков.
type webhookCaller struct {
	http *http.Client
}

func newWebhookCaller(hc *http.Client) *webhookCaller {
	return &webhookCaller{http: hc}
}

type upstreamReply struct {
	Code    int
	Body    []byte
	Latency time.Duration
}

// post отправляет JSON на вебхук. Ошибка — только транспортная.
func (w *webhookCaller) post(ctx context.Context, url string, body any) (*upstreamReply, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("webhook: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := w.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook: %w", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	return &upstreamReply{Code: resp.StatusCode, Body: data, Latency: time.Since(start)}, nil
}

// result превращает ответ апстрима в эхо для клиента.
func (r *upstreamReply) result() domain.TriggerResult {
	out := domain.TriggerResult{}
	if err := json.Unmarshal(r.Body, &out); err != nil || len(out) == 0 {
		out = domain.TriggerResult{"status": r.Code}
		if text := strings.TrimSpace(string(r.Body)); text != "" {
			out["text"] = clip(text)
		}
	}
	return out
}

// diagnose проба вебхука. Всегда возвращает результат, даже если апстрим недоступен.
func (w *webhookCaller) diagnose(ctx context.Context, url string, payload json.RawMessage) domain.DiagnosticsResult {
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	reply, err := w.post(ctx, url, payload)
	if err != nil {
		return domain.DiagnosticsResult{
			Status:  domain.DiagnosticsError,
			Hint:    "webhook unreachable: check the n8n host and that the workflow is active",
			Details: clip(err.Error()),
		}
	}
	res := domain.DiagnosticsResult{
		HTTPCode:  reply.Code,
		LatencyMs: reply.Latency.Milliseconds(),
		Hint:      hintFor(reply.Code),
		Details:   clip(strings.TrimSpace(string(reply.Body))),
		Status:    domain.DiagnosticsError,
	}
	if reply.Code >= 200 && reply.Code < 300 {
		res.Status = domain.DiagnosticsOK
	}
	return res
}

func hintFor(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "webhook reachable"
	case code == http.StatusNotFound:
		return "webhook not registered: activate the workflow or use the production URL"
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return "webhook rejected credentials: check header auth on the n8n node"
	case code == http.StatusMethodNotAllowed:
		return "webhook expects another HTTP method: set it to POST"
	case code >= 500:
		return "n8n workflow failed: inspect the execution log"
	default:
		return fmt.Sprintf("unexpected status %d", code)
	}
}

func clip(s string) string {
	if len(s) <= maxUpstreamText {
		return s
	}
	return s[:maxUpstreamText]
}
