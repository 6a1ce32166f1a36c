package wallet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"earnplay-core/pkg/calendar"
	"earnplay-core/pkg/db/option"
	"earnplay-core/pkg/db/pagination"
	"earnplay-core/pkg/errutil"
)

// ListEarnings pages through the audit trail, newest first.
func (s *Service) ListEarnings(ctx context.Context, accountID string, page pagination.Pagination) ([]*Earning, *pagination.PageInfo, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
		option.WithLimit(limit + 1),
	}

	if page.Cursor != "" {
		cursor, err := pagination.DecodeCursor(page.Cursor)
		if err != nil {
			return nil, nil, errutil.BadRequest("invalid cursor")
		}
		before, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, nil, errutil.BadRequest("invalid cursor")
		}
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.LT,
			Value:    before,
		}))
	}

	rows, err := s.earnings.Find(ctx, &Earning{AccountID: accountID}, opts...)
	if err != nil {
		return nil, nil, err
	}

	rows, info := pagination.BuildCursorPageInfo(rows, limit, func(e *Earning) string {
		next, _ := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: e.CreatedAt.Format(time.RFC3339Nano),
			ID:        e.ID,
		})
		return next
	})

	return rows, info, nil
}

// Stats aggregates gross reward inflows for the dashboard. Withdrawal
// entries are excluded so a payout does not shrink "earned today". Day
// and month windows follow the configured reward timezone.
func (s *Service) Stats(ctx context.Context, accountID string) (*EarningStats, error) {
	now := s.now()

	today, err := s.sumSince(ctx, accountID, calendar.StartOfDay(now, s.loc))
	if err != nil {
		return nil, err
	}
	month, err := s.sumSince(ctx, accountID, calendar.StartOfMonth(now, s.loc))
	if err != nil {
		return nil, err
	}
	total, err := s.sumSince(ctx, accountID, time.Time{})
	if err != nil {
		return nil, err
	}

	return &EarningStats{Today: today, ThisMonth: month, Total: total}, nil
}

func (s *Service) sumSince(ctx context.Context, accountID string, since time.Time) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}

	tx := s.db.WithContext(ctx).
		Model(&Earning{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("account_id = ?", accountID).
		Where("source <> ?", SourceWithdrawal)
	if !since.IsZero() {
		tx = tx.Where("created_at >= ?", since)
	}

	if err := tx.Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}

	return row.Total, nil
}
