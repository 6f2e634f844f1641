// Package seed bootstraps demo data for non-production environments.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/pabloguineab/debugcv-sub002/internal/quota"
	"gorm.io/gorm"
)

const demoPrincipal = "demo@debugcv.dev"

// EnsureDemoPrincipal creates a zeroed usage record for the demo account so
// local environments have a row to inspect. Production never calls this.
func EnsureDemoPrincipal(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	now := time.Now().UTC()
	ctx := context.Background()
	return db.WithContext(ctx).Exec(
		`INSERT INTO usage_records
		 (principal, download_resume_count, download_cover_letter_count, ats_scan_count,
		  period_key, period_start, created_at, updated_at)
		 VALUES (?, 0, 0, 0, ?, ?, ?, ?)
		 ON CONFLICT (principal) DO NOTHING`,
		demoPrincipal,
		quota.PeriodKey(now),
		now,
		now,
		now,
	).Error
}
