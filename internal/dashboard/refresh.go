package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xela07ax/blaxing-console/internal/domain"
	"github.com/xela07ax/blaxing-console/internal/signal"
	"github.com/xela07ax/blaxing-console/internal/state"
	"go.uber.org/zap"
)

// Refresh перечитывает агентов и хвост аудита параллельно.
// Флаг loading — простой булев: перекрывающиеся обновления могут снять его раньше времени.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.apply(func(s *state.Store) { s.SetLoading(true) })
	defer d.apply(func(s *state.Store) { s.SetLoading(false) })

	var wg sync.WaitGroup
	var agentsErr, auditErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		agents, err := d.res.Agents.List(ctx)
		if err != nil {
			agentsErr = err
			return
		}
		d.apply(func(s *state.Store) { s.ReplaceAgents(agents) })
	}()
	go func() {
		defer wg.Done()
		items, err := d.res.System.Audit(ctx, d.auditLimit)
		if err != nil {
			auditErr = err
			return
		}
		d.apply(func(s *state.Store) { s.SetAudit(items) })
	}()
	wg.Wait()

	if agentsErr != nil {
		d.fail("refresh_agents", "", "Failed to load agents", agentsErr)
	}
	if auditErr != nil {
		d.fail("refresh_audit", "", "Failed to load audit", auditErr)
	}
	return errors.Join(agentsErr, auditErr)
}

// RefreshAux перечитывает конфиг бэкенда, привязки хуков и список флоу.
// Ошибки здесь только логируются: эти панели второстепенны.
func (d *Dashboard) RefreshAux(ctx context.Context) {
	if cfg, err := d.res.System.Config(ctx); err != nil {
		d.logger.Warn("backend config fetch failed", zap.Error(err))
	} else {
		d.apply(func(s *state.Store) { s.SetBackendConfig(*cfg) })
	}

	if b, err := d.res.Hooks.Get(ctx); err != nil {
		d.logger.Warn("hooks config fetch failed", zap.Error(err))
	} else {
		d.apply(func(s *state.Store) { s.SetBindings(b) })
	}

	if flows, err := d.res.Flows.List(ctx); err != nil {
		d.logger.Warn("flows list fetch failed", zap.Error(err))
	} else {
		d.apply(func(s *state.Store) { s.SetFlows(flows) })
	}
}

// Mount аналог монтирования экрана: первичная загрузка, затем поллинг.
// Первая загрузка синхронная, поллер и подписка на сигналы работают в фоне.
func (d *Dashboard) Mount(ctx context.Context) error {
	if d.mounted.Swap(true) {
		return errors.New("dashboard: already mounted")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.runCtx, d.stop = runCtx, cancel
	d.mu.Unlock()

	err := d.Refresh(ctx)
	d.RefreshAux(ctx)

	d.wg.Add(1)
	go d.poll(runCtx)
	d.subscribe(runCtx, d.client.Headers().Mode)

	d.logger.Info("dashboard mounted", zap.Duration("poll", d.pollInterval))
	return err
}

// Unmount останавливает таймер и подписку. Запросы в полете не прерываются,
// но их результаты уже не попадут в стор.
func (d *Dashboard) Unmount() {
	if !d.mounted.Swap(false) {
		return
	}
	d.mu.Lock()
	if d.stop != nil {
		d.stop()
		d.stop, d.runCtx = nil, nil
	}
	if d.unsub != nil {
		d.unsub()
		d.unsub = nil
	}
	d.mu.Unlock()
	d.logger.Info("dashboard unmounted")
}

// Wait дожидается фоновых горутин. Для завершения процесса и тестов.
func (d *Dashboard) Wait() {
	d.wg.Wait()
}

func (d *Dashboard) poll(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Отмена Unmount не должна обрывать запрос, только таймер
			if err := d.Refresh(context.WithoutCancel(ctx)); err != nil {
				d.logger.Debug("poll refresh failed", zap.Error(err))
			}
		}
	}
}

// subscribe (пере)запускает подписку на сигналы под режим mode.
func (d *Dashboard) subscribe(parent context.Context, mode domain.Mode) {
	if d.signals == nil {
		return
	}
	src := d.signals(string(mode))
	if src == nil {
		return
	}

	ctx, cancel := context.WithCancel(parent)
	d.mu.Lock()
	if d.unsub != nil {
		d.unsub()
	}
	d.unsub = cancel
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		src.Run(ctx,
			func() { _ = d.Refresh(context.WithoutCancel(ctx)) },
			func(s signal.Signal) { d.onSignal(ctx, s) })
	}()
}

func (d *Dashboard) onSignal(ctx context.Context, s signal.Signal) {
	d.logger.Debug("signal received", zap.String("kind", string(s.Kind)), zap.String("action", s.Action))
	ctx = context.WithoutCancel(ctx)
	switch s.Kind {
	case signal.KindAgents:
		_ = d.Refresh(ctx)
	case signal.KindFlows:
		d.RefreshAux(ctx)
	}
}

// SetHeaders меняет режим и ключ на лету и перечитывает все режимо-зависимые данные.
func (d *Dashboard) SetHeaders(ctx context.Context, h domain.HeaderConfig) (Outcome, error) {
	if err := h.Validate(); err != nil {
		return d.fail("set_headers", "", "Invalid header configuration", err)
	}
	prev := d.client.Headers()
	d.client.SetHeaders(h)
	// Стор и клиент всегда в одном режиме, поэтому запись идет мимо apply.
	if prev.Equal(h) {
		d.store.SetHeaders(h)
	} else {
		d.store.SwitchMode(h)
	}

	if prev.Mode != h.Mode {
		d.mu.Lock()
		runCtx := d.runCtx
		d.mu.Unlock()
		if runCtx != nil {
			d.subscribe(runCtx, h.Mode)
		}
	}

	refreshErr := d.Refresh(ctx)
	d.RefreshAux(ctx)

	out := d.outcome("set_headers", "", domain.NoticeSuccess, fmt.Sprintf("Source switched to %s", h.Mode), nil)
	return out, refreshErr
}
