// Package apiclient: единая точка транспорта консоли к бэкенду.
// Все вызовы идут через один Client; заголовки (режим, ключ, base override)
// можно подменить на лету без пересоздания клиента.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/xela07ax/blaxing-console/internal/domain"
	"go.uber.org/zap"
)

// DefaultTimeout потолок на любой запрос. Ретраев нет.
const DefaultTimeout = 20 * time.Second

// maxErrorBody сколько байт тела ошибки мы готовы показать пользователю.
const maxErrorBody = 400

type Client struct {
	baseURL string
	http    *http.Client
	headers atomic.Pointer[domain.HeaderConfig]
	metrics *Metrics
	logger  *zap.Logger
}

type Option func(*Client)

// WithHTTPClient подставляет свой транспорт (тесты, прокси).
// Клиент копируется: таймаут меняется только у копии, нулевой заменяется на DefaultTimeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.http = &cp
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New фабрика клиента. Результат — чистая функция от (baseURL, headers).
func New(baseURL string, headers domain.HeaderConfig, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  logger.Named("apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Timeout == 0 {
		c.http.Timeout = DefaultTimeout
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}
	h := headers
	c.headers.Store(&h)
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Headers возвращает копию активной конфигурации.
func (c *Client) Headers() domain.HeaderConfig {
	return *c.headers.Load()
}

// SetHeaders атомарно подменяет заголовки. Запросы, уже ушедшие в сеть,
// держат свой снапшот и не меняются.
func (c *Client) SetHeaders(h domain.HeaderConfig) {
	c.headers.Store(&h)
	c.logger.Info("headers replaced", zap.String("mode", string(h.Mode)), zap.Bool("has_key", h.APIKey != ""))
}

func (c *Client) Get(ctx context.Context, op, path string, query url.Values, out any) error {
	return c.Do(ctx, op, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, op, path string, in, out any) error {
	return c.Do(ctx, op, http.MethodPost, path, nil, in, out)
}

// Do выполняет ровно один HTTP-запрос и разбирает тело в out.
// op логическое имя операции для метрик и логов.
func (c *Client) Do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	start := time.Now()
	c.metrics.InFlight.Inc()
	defer c.metrics.InFlight.Dec()

	req, err := c.newRequest(ctx, method, path, query, in)
	if err != nil {
		return fmt.Errorf("apiclient: %s: %w", op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		kind := "transport"
		if IsTimeout(err) {
			kind = "timeout"
		}
		c.observe(op, "error", kind, start)
		c.logger.Warn("request failed", zap.String("op", op), zap.String("kind", kind), zap.Error(err))
		return fmt.Errorf("apiclient: %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(op, strconv.Itoa(resp.StatusCode), "transport", start)
		return fmt.Errorf("apiclient: %s: read body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Op: op, StatusCode: resp.StatusCode, Detail: extractDetail(body)}
		c.observe(op, strconv.Itoa(resp.StatusCode), "backend", start)
		c.logger.Warn("backend rejected request",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", apiErr.Detail))
		return apiErr
	}

	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			c.observe(op, strconv.Itoa(resp.StatusCode), "decode", start)
			return fmt.Errorf("apiclient: %s: decode response: %w", op, err)
		}
	}

	c.observe(op, strconv.Itoa(resp.StatusCode), "", start)
	c.logger.Debug("request done",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, in any) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Снапшот заголовков берется один раз на запрос
	for k, v := range c.Headers().Headers() {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) observe(op, status, errKind string, start time.Time) {
	c.metrics.RequestDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	if errKind != "" {
		c.metrics.ErrorTotal.WithLabelValues(op, errKind).Inc()
	}
}
