package signal

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// redisPublisher кусок redis.Client, нужный для публикации.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Publisher best-effort публикация. Redis лежит: дашборд продолжает работать,
// предохранитель перестает дергать Redis на время Timeout.
type Publisher struct {
	rdb     redisPublisher
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	logger  *zap.Logger
}

func NewPublisher(rdb redisPublisher, logger *zap.Logger) *Publisher {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "signal-publisher",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &Publisher{
		rdb:     rdb,
		cb:      cb,
		timeout: 2 * time.Second,
		logger:  logger.Named("signal-pub"),
	}
}

// Publish не возвращает ошибку наружу: сигнал — подсказка, а не гарантия.
func (p *Publisher) Publish(ctx context.Context, s Signal) {
	payload, err := Encode(s)
	if err != nil {
		p.logger.Error("encode failed", zap.Error(err))
		return
	}
	channel := Channel(s.Kind, s.Mode)

	_, err = p.cb.Execute(func() (interface{}, error) {
		pctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		return nil, p.rdb.Publish(pctx, channel, payload).Err()
	})
	if err != nil {
		p.logger.Warn("publish skipped",
			zap.String("chan", channel),
			zap.String("breaker", p.cb.State().String()),
			zap.Error(err))
	}
}

// State для метрик и тестов.
func (p *Publisher) State() gobreaker.State {
	return p.cb.State()
}

// Nop публикатор для сессий без Redis.
type Nop struct{}

func (Nop) Publish(context.Context, Signal) {}
