// Package dashboard связывает состояние сессии, ресурсы бэкенда и уведомления.
//
// Все чтения агентов и аудита идут через Refresh: его вызывают ручное обновление,
// поллер и межсессионные сигналы. Действия пользователя применяют к стору чистые
// редьюсеры из пакета state и всегда оставляют ровно одно уведомление.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/blaxing-console/internal/apiclient"
	"github.com/xela07ax/blaxing-console/internal/domain"
	"github.com/xela07ax/blaxing-console/internal/journal"
	"github.com/xela07ax/blaxing-console/internal/resource"
	"github.com/xela07ax/blaxing-console/internal/signal"
	"github.com/xela07ax/blaxing-console/internal/state"
	"go.uber.org/zap"
)

const (
	DefaultPollInterval = 30 * time.Second
	defaultAuditLimit   = 50
)

// HeaderSwapper клиент, умеющий менять заголовки на лету.
type HeaderSwapper interface {
	Headers() domain.HeaderConfig
	SetHeaders(h domain.HeaderConfig)
}

// Publisher рассылает сигналы другим сессиям.
type Publisher interface {
	Publish(ctx context.Context, s signal.Signal)
}

// SignalSource подписка на сигналы одного режима.
type SignalSource interface {
	Run(ctx context.Context, onReconnect func(), onSignal func(signal.Signal))
}

// Outcome итог действия пользователя: уведомление и, если есть, данные ответа.
type Outcome struct {
	Notice domain.Notice `json:"notice"`
	Data   any           `json:"data,omitempty"`
}

type Dashboard struct {
	client  HeaderSwapper
	res     *resource.Resources
	store   *state.Store
	journal journal.Recorder
	pub     Publisher
	signals func(mode string) SignalSource

	sessionID    string
	pollInterval time.Duration
	auditLimit   int
	logger       *zap.Logger

	mounted atomic.Bool
	mu      sync.Mutex // защищает runCtx и cancel-функции
	runCtx  context.Context
	stop    context.CancelFunc
	unsub   context.CancelFunc
	wg      sync.WaitGroup
}

type Option func(*Dashboard)

func WithPollInterval(d time.Duration) Option {
	return func(db *Dashboard) {
		if d > 0 {
			db.pollInterval = d
		}
	}
}

func WithAuditLimit(n int) Option {
	return func(db *Dashboard) {
		if n > 0 {
			db.auditLimit = n
		}
	}
}

func WithJournal(j journal.Recorder) Option {
	return func(db *Dashboard) { db.journal = j }
}

// WithSignals включает межсессионные сигналы. source создает подписку под текущий режим.
func WithSignals(pub Publisher, source func(mode string) SignalSource) Option {
	return func(db *Dashboard) {
		db.pub = pub
		db.signals = source
	}
}

func WithSessionID(id string) Option {
	return func(db *Dashboard) {
		if id != "" {
			db.sessionID = id
		}
	}
}

func New(client HeaderSwapper, res *resource.Resources, store *state.Store, logger *zap.Logger, opts ...Option) *Dashboard {
	d := &Dashboard{
		client:       client,
		res:          res,
		store:        store,
		journal:      journal.Nop{},
		pub:          signal.Nop{},
		sessionID:    uuid.NewString(),
		pollInterval: DefaultPollInterval,
		auditLimit:   defaultAuditLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logger.Named("dashboard").With(zap.String("session", d.sessionID))
	return d
}

func (d *Dashboard) SessionID() string { return d.sessionID }

func (d *Dashboard) Mounted() bool { return d.mounted.Load() }

func (d *Dashboard) Snapshot() state.Snapshot { return d.store.Snapshot() }

// apply выполняет запись в стор, только пока дашборд смонтирован.
// Ответы, пришедшие после Unmount, молча отбрасываются.
func (d *Dashboard) apply(fn func(s *state.Store)) bool {
	if !d.mounted.Load() {
		return false
	}
	fn(d.store)
	return true
}

// outcome фиксирует результат действия: уведомление, строка журнала, запись в журнал.
func (d *Dashboard) outcome(action, agentID string, level domain.NoticeLevel, msg string, data any) Outcome {
	n := domain.Notice{Level: level, Message: msg, At: time.Now()}
	d.apply(func(s *state.Store) {
		n = s.PushNotice(level, msg)
		s.AppendActivity(fmt.Sprintf("[%s] %s: %s", n.At.Format("15:04:05"), action, msg))
	})
	d.journal.Record(journal.Entry{
		SessionID: d.sessionID,
		Mode:      string(d.client.Headers().Mode),
		Action:    action,
		AgentID:   agentID,
		Level:     string(level),
		Message:   msg,
		Timestamp: n.At,
	})
	return Outcome{Notice: n, Data: data}
}

// fail единая обработка ошибки действия: стор не меняется, уведомление об ошибке.
func (d *Dashboard) fail(action, agentID, generic string, err error) (Outcome, error) {
	msg := Describe(err, generic)
	d.logger.Warn("action failed",
		zap.String("action", action),
		zap.String("agent_id", agentID),
		zap.Error(err))
	return d.outcome(action, agentID, domain.NoticeError, msg, nil), err
}

func (d *Dashboard) publish(kind signal.Kind, action, agentID string) {
	d.pub.Publish(context.Background(), signal.Signal{
		Kind:      kind,
		SessionID: d.sessionID,
		Mode:      string(d.client.Headers().Mode),
		Action:    action,
		AgentID:   agentID,
	})
}

// Describe превращает ошибку в текст уведомления.
// Порядок: клиентская валидация, detail бэкенда, таймаут, общий текст.
func Describe(err error, generic string) string {
	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, domain.ErrInvalidJSON):
		return domain.ErrInvalidJSON.Error()
	case errors.Is(err, domain.ErrRequired), errors.Is(err, domain.ErrUnknownMode):
		return err.Error()
	case errors.As(err, &apiErr) && apiErr.Detail != "":
		return apiErr.Detail
	case apiclient.IsTimeout(err):
		return generic + ": request timed out"
	default:
		return generic
	}
}

// IsValidation ошибка возникла до сетевого вызова.
func IsValidation(err error) bool {
	return errors.Is(err, domain.ErrRequired) ||
		errors.Is(err, domain.ErrInvalidJSON) ||
		errors.Is(err, domain.ErrUnknownMode)
}
