// Package repository persists per-principal usage counters. The conditional
// increment is a single UPDATE statement so concurrent consumers of one
// principal serialize on the row inside the database, never in Go code.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entitlementdomain "github.com/pabloguineab/debugcv-sub002/internal/entitlement/domain"
	"github.com/pabloguineab/debugcv-sub002/internal/quota"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// counterColumns whitelists the physical column per period-capped action.
// Column names are interpolated into SQL and must never come from input.
var counterColumns = map[entitlementdomain.Action]string{
	entitlementdomain.ActionDownloadResume:      "download_resume_count",
	entitlementdomain.ActionDownloadCoverLetter: "download_cover_letter_count",
	entitlementdomain.ActionATSScan:             "ats_scan_count",
}

// UsageRepository is the gorm-backed usage store.
type UsageRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUsageRepository(db *gorm.DB, log *zap.Logger) *UsageRepository {
	return &UsageRepository{
		db:  db,
		log: log.Named("entitlement.usage_repository"),
	}
}

var _ entitlementdomain.UsageRepository = (*UsageRepository)(nil)

// Read returns the stored usage record, or nil when the principal has never
// performed a metered action.
func (r *UsageRepository) Read(ctx context.Context, principal string) (*entitlementdomain.UsageRecord, error) {
	var record entitlementdomain.UsageRecord
	err := r.db.WithContext(ctx).
		Where("principal = ?", principal).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", entitlementdomain.ErrStoreUnavailable, err)
	}
	return &record, nil
}

// AtomicIncrement performs the rollover-aware conditional increment.
//
// The UPDATE carries the whole contract in one statement: when the stored
// period_key still matches now's calendar month the target counter is
// incremented, otherwise every counter is reset and the target becomes 1; the
// WHERE clause admits the row only while the normalized pre-value is below
// limit. RowsAffected == 0 therefore means the quota is exhausted for this
// month. The row is created lazily before the update.
func (r *UsageRepository) AtomicIncrement(
	ctx context.Context,
	principal string,
	action entitlementdomain.Action,
	limit int64,
	now time.Time,
) (entitlementdomain.IncrementResult, error) {
	column, ok := counterColumns[action]
	if !ok {
		return entitlementdomain.IncrementResult{}, entitlementdomain.ErrNotMetered
	}
	if limit <= 0 {
		return entitlementdomain.IncrementResult{Allowed: false}, nil
	}

	if err := r.ensureRecord(ctx, principal, now); err != nil {
		return entitlementdomain.IncrementResult{}, err
	}

	var others []string
	for _, other := range counterColumns {
		if other != column {
			others = append(others, other)
		}
	}

	// RETURNING hands back the committed counter from the same statement,
	// so the reported value can never drift from what the increment wrote.
	query := fmt.Sprintf(`
		UPDATE usage_records
		SET %[1]s = CASE WHEN period_key = @pk THEN %[1]s + 1 ELSE 1 END,
		    %[2]s = CASE WHEN period_key = @pk THEN %[2]s ELSE 0 END,
		    %[3]s = CASE WHEN period_key = @pk THEN %[3]s ELSE 0 END,
		    period_start = CASE WHEN period_key = @pk THEN period_start ELSE @now END,
		    period_key = @pk,
		    updated_at = @now
		WHERE principal = @principal
		  AND (CASE WHEN period_key = @pk THEN %[1]s ELSE 0 END) < @limit
		RETURNING %[1]s`,
		column, others[0], others[1],
	)

	var newValue int64
	result := r.db.WithContext(ctx).Raw(query,
		sql.Named("pk", quota.PeriodKey(now)),
		sql.Named("now", now.UTC()),
		sql.Named("principal", principal),
		sql.Named("limit", limit),
	).Scan(&newValue)
	if result.Error != nil {
		return entitlementdomain.IncrementResult{}, fmt.Errorf("%w: %v", entitlementdomain.ErrStoreUnavailable, result.Error)
	}

	if result.RowsAffected == 0 {
		return entitlementdomain.IncrementResult{Allowed: false, NewValue: limit}, nil
	}
	return entitlementdomain.IncrementResult{Allowed: true, NewValue: newValue}, nil
}

func (r *UsageRepository) ensureRecord(ctx context.Context, principal string, now time.Time) error {
	err := r.db.WithContext(ctx).Exec(
		`INSERT INTO usage_records
		 (principal, download_resume_count, download_cover_letter_count, ats_scan_count,
		  period_key, period_start, created_at, updated_at)
		 VALUES (?, 0, 0, 0, ?, ?, ?, ?)
		 ON CONFLICT (principal) DO NOTHING`,
		principal,
		quota.PeriodKey(now),
		now.UTC(),
		now.UTC(),
		now.UTC(),
	).Error
	if err != nil {
		return fmt.Errorf("%w: %v", entitlementdomain.ErrStoreUnavailable, err)
	}
	return nil
}

