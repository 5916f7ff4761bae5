package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStorage struct {
	mu      sync.Mutex
	batches [][]Entry
	fail    bool
}

func (m *memStorage) WriteBatch(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("db down")
	}
	m.batches = append(m.batches, append([]Entry(nil), entries...))
	return nil
}

func (m *memStorage) all() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

func TestStopFlushesEverything(t *testing.T) {
	repo := &memStorage{}
	j := New(repo, zap.NewNop())
	j.Start()

	for i := 0; i < 120; i++ {
		j.Record(Entry{Action: "refresh", Level: "info"})
	}
	j.Stop()

	entries := repo.all()
	require.Len(t, entries, 120)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestBatchesAreBounded(t *testing.T) {
	repo := &memStorage{}
	j := New(repo, zap.NewNop())
	j.Start()
	for i := 0; i < 3*defaultBatchSize; i++ {
		j.Record(Entry{Action: "activate"})
	}
	j.Stop()

	for _, b := range repo.batches {
		assert.LessOrEqual(t, len(b), defaultBatchSize)
	}
}

func TestTickerFlushes(t *testing.T) {
	repo := &memStorage{}
	j := New(repo, zap.NewNop())
	j.Start()
	defer j.Stop()

	j.Record(Entry{Action: "notify"})

	assert.Eventually(t, func() bool { return len(repo.all()) == 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestRecordAfterStopIsDropped(t *testing.T) {
	repo := &memStorage{}
	j := New(repo, zap.NewNop())
	j.Start()
	j.Stop()
	j.Stop()

	assert.NotPanics(t, func() { j.Record(Entry{Action: "late"}) })
	assert.Empty(t, repo.all())
}

func TestFlushErrorDoesNotStopWorker(t *testing.T) {
	repo := &memStorage{fail: true}
	j := New(repo, zap.NewNop())
	j.Start()
	j.Record(Entry{Action: "a"})
	time.Sleep(2 * flushEvery)

	repo.mu.Lock()
	repo.fail = false
	repo.mu.Unlock()
	j.Record(Entry{Action: "b"})
	j.Stop()

	entries := repo.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].Action)
}
