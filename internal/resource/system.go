package resource

import (
	"context"
	"net/url"
	"strconv"

	"github.com/xela07ax/blaxing-console/internal/domain"
)

// System служебные ресурсы: конфиг бэкенда и хвост аудита.
type System struct {
	c Caller
}

func (s *System) Config(ctx context.Context) (*domain.BackendConfig, error) {
	var out domain.BackendConfig
	if err := s.c.Get(ctx, "config", "/config", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Audit GET /audit?limit=N. limit <= 0 оставляет выбор бэкенду.
func (s *System) Audit(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	var q url.Values
	if limit > 0 {
		q = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	var page domain.AuditPage
	if err := s.c.Get(ctx, "audit", "/audit", q, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		return []domain.AuditEntry{}, nil
	}
	return page.Items, nil
}
