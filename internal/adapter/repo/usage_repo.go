package repo

import (
	"context"
	"time"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/sqlinline"
)

// UsageCounterPG implements domain.UsageCounter with one row per UTC day.
type UsageCounterPG struct {
	db infra.SQLExecutor
}

func NewUsageCounter(db infra.SQLExecutor) *UsageCounterPG {
	return &UsageCounterPG{db: db}
}

// Consume takes one unit atomically. The conditional upsert returns no row
// once the ceiling is reached, so concurrent callers cannot overshoot.
func (u *UsageCounterPG) Consume(ctx context.Context, day time.Time, ceiling int) (bool, error) {
	if ceiling <= 0 {
		return false, nil
	}
	var used int
	err := u.db.QueryRow(ctx, sqlinline.QConsumeDailyUsage, dayString(day), ceiling).Scan(&used)
	if infra.IsNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (u *UsageCounterPG) Count(ctx context.Context, day time.Time) (int, error) {
	var used int
	if err := u.db.QueryRow(ctx, sqlinline.QCountDailyUsage, dayString(day)).Scan(&used); err != nil {
		return 0, err
	}
	return used, nil
}

var _ domain.UsageCounter = (*UsageCounterPG)(nil)
