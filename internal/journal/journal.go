package journal

/*
Журнал действий дашборда.

Запись не блокирует вызывающего: события уходят в буферизованный канал,
фоновый воркер копит их и сбрасывает пачкой в хранилище по таймеру
или при достижении размера пачки. Stop закрывает вход и дожидается
финального сброса.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultBuffer    = 1024
	defaultBatchSize = 50
	flushEvery       = 500 * time.Millisecond
)

// Storage куда физически уходит журнал.
type Storage interface {
	WriteBatch(ctx context.Context, entries []Entry) error
}

// Reader отдает последние записи, новые первыми.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// Recorder то, что нужно дашборду.
type Recorder interface {
	Record(e Entry)
}

type Journal struct {
	ch        chan Entry
	repo      Storage
	batchSize int
	logger    *zap.Logger
	wg        sync.WaitGroup
	closed    atomic.Bool
	mu        sync.RWMutex // держится на время отправки в канал, Stop берет его на запись
}

func New(repo Storage, logger *zap.Logger) *Journal {
	return &Journal{
		ch:        make(chan Entry, defaultBuffer),
		repo:      repo,
		batchSize: defaultBatchSize,
		logger:    logger.With(zap.String("mod", "journal")),
	}
}

func (j *Journal) Start() {
	j.wg.Add(1)
	go j.worker()
}

// Stop запирает вход и ждет, пока воркер все допишет.
func (j *Journal) Stop() {
	j.mu.Lock()
	if j.closed.Swap(true) {
		j.mu.Unlock()
		return
	}
	close(j.ch)
	j.mu.Unlock()

	j.wg.Wait()
	j.logger.Info("journal stopped")
}

func (j *Journal) Record(e Entry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed.Load() {
		j.logger.Warn("journal entry dropped: journal is stopped", zap.String("action", e.Action))
		return
	}

	// Переполнение не должно тормозить дашборд
	select {
	case j.ch <- e:
	default:
		j.logger.Error("journal_buffer_overflow",
			zap.String("action", e.Action),
			zap.String("agent_id", e.AgentID))
	}
}

func (j *Journal) worker() {
	defer j.wg.Done()

	batch := make([]Entry, 0, j.batchSize)
	ticker := time.NewTicker(flushEvery)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Background: к моменту финального сброса контекст приложения уже отменен
		if err := j.repo.WriteBatch(context.Background(), batch); err != nil {
			j.logger.Error("journal flush failed", zap.Int("size", len(batch)), zap.Error(err))
		}
		batch = make([]Entry, 0, j.batchSize)
	}

	for {
		select {
		case e, ok := <-j.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, e)
			if len(batch) >= j.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// LogStorage пишет журнал в zap. Используется, когда база не настроена.
type LogStorage struct {
	logger *zap.Logger
}

func NewLogStorage(logger *zap.Logger) *LogStorage {
	return &LogStorage{logger: logger.Named("journal")}
}

func (s *LogStorage) WriteBatch(_ context.Context, entries []Entry) error {
	for _, e := range entries {
		s.logger.Info(e.Message,
			zap.String("action", e.Action),
			zap.String("agent_id", e.AgentID),
			zap.String("level", e.Level),
			zap.String("mode", e.Mode),
			zap.String("session_id", e.SessionID),
			zap.Time("at", e.Timestamp))
	}
	return nil
}

// Nop журнал-заглушка для тестов и CLI.
type Nop struct{}

func (Nop) Record(Entry) {}
