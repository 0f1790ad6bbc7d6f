package health

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// OutboxStatsReader отдаёт статистику backlog outbox.
type OutboxStatsReader interface {
	Stats(ctx context.Context) (domain.OutboxStats, error)
}

// OutboxBacklogChecker переводит сервис в degraded, когда события заказов
// слишком долго не доставляются брокеру.
type OutboxBacklogChecker struct {
	repo   OutboxStatsReader
	maxAge time.Duration
	now    func() time.Time
}

// NewOutboxBacklogChecker создаёт проверку возраста самого старого pending-события.
func NewOutboxBacklogChecker(repo OutboxStatsReader, maxAge time.Duration) *OutboxBacklogChecker {
	return &OutboxBacklogChecker{repo: repo, maxAge: maxAge, now: time.Now}
}

// Check выполняет проверку
func (c *OutboxBacklogChecker) Check(ctx context.Context) Check {
	start := time.Now()
	check := Check{Name: "outbox", Status: StatusHealthy}

	stats, err := c.repo.Stats(ctx)
	switch {
	case err != nil:
		check.Status = StatusUnhealthy
		check.Message = err.Error()
	case stats.PendingCount > 0 && c.now().Sub(stats.OldestPendingAt) > c.maxAge:
		check.Status = StatusDegraded
		check.Message = fmt.Sprintf("%d pending events, oldest since %s", stats.PendingCount, stats.OldestPendingAt.Format(time.RFC3339))
	}
	check.DurationMs = time.Since(start).Milliseconds()
	return check
}
