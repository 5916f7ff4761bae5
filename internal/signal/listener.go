package signal

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	subscribeAttempts = 5
	maxBackoff        = 30 * time.Second
)

// Listener "живучая" подписка на сигналы своего режима.
type Listener struct {
	rdb       *redis.Client
	sessionID string
	mode      string
	logger    *zap.Logger
}

func NewListener(rdb *redis.Client, sessionID, mode string, logger *zap.Logger) *Listener {
	return &Listener{
		rdb:       rdb,
		sessionID: sessionID,
		mode:      mode,
		logger:    logger.Named("signal-sub").With(zap.String("mode", mode)),
	}
}

// Run блокируется до отмены ctx.
// onReconnect вызывается после каждой успешной подписки: пока нас не было, сигналы могли потеряться.
func (l *Listener) Run(ctx context.Context, onReconnect func(), onSignal func(Signal)) {
	channels := []string{Channel(KindAgents, l.mode), Channel(KindFlows, l.mode)}

	for ctx.Err() == nil {
		var pubsub *redis.PubSub

		// 1. Подписка с экспоненциальным бэкоффом
		err := retry.New(
			retry.Context(ctx),
			retry.Attempts(subscribeAttempts),
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				if d := retry.BackOffDelay(n, err, config); d < maxBackoff {
					return d
				}
				return maxBackoff
			}),
		).Do(func() error {
			ps := l.rdb.Subscribe(ctx, channels...)
			if _, err := ps.Receive(ctx); err != nil {
				ps.Close()
				return fmt.Errorf("subscribe: %w", err)
			}
			pubsub = ps
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Error("failed to subscribe, backing off", zap.Strings("chan", channels), zap.Error(err))
			sleep(ctx, maxBackoff)
			continue
		}

		// 2. Досинхронизация после (пере)подключения
		onReconnect()

		// 3. Чтение до закрытия канала
		l.consume(ctx, pubsub.Channel(), onSignal)
		pubsub.Close()
		sleep(ctx, time.Second)
	}
}

func (l *Listener) consume(ctx context.Context, ch <-chan *redis.Message, onSignal func(Signal)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				l.logger.Warn("channel closed, resubscribing")
				return
			}
			if s, ok := l.accept(msg.Payload); ok {
				onSignal(s)
			}
		}
	}
}

// accept разбирает сигнал и отбрасывает собственные и чужого режима.
func (l *Listener) accept(payload string) (Signal, bool) {
	s, err := Decode(payload)
	if err != nil {
		l.logger.Error("invalid signal", zap.String("payload", payload), zap.Error(err))
		return Signal{}, false
	}
	if s.SessionID == l.sessionID || s.Mode != l.mode {
		return Signal{}, false
	}
	return s, true
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
