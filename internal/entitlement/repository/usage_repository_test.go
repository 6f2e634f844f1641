package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	entitlementdomain "github.com/pabloguineab/debugcv-sub002/internal/entitlement/domain"
	"github.com/pabloguineab/debugcv-sub002/internal/migration"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUsageTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// One connection keeps the in-memory database alive and serializes
	// writes the way a real database row lock would.
	sqlDB.SetMaxOpenConns(1)
	if err := migration.RunMigrations(sqlDB); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}

func TestReadMissingRecordReturnsNil(t *testing.T) {
	repo := NewUsageRepository(setupUsageTestDB(t), zap.NewNop())

	record, err := repo.Read(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil record, got %+v", record)
	}
}

func TestAtomicIncrementCreatesRecordLazily(t *testing.T) {
	repo := NewUsageRepository(setupUsageTestDB(t), zap.NewNop())
	now := time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC)

	result, err := repo.AtomicIncrement(context.Background(), "new@example.com", entitlementdomain.ActionATSScan, 3, now)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if !result.Allowed || result.NewValue != 1 {
		t.Fatalf("expected allowed with count 1, got %+v", result)
	}

	record, err := repo.Read(context.Background(), "new@example.com")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if record == nil || record.ATSScanCount != 1 || record.PeriodKey != "2024-01" {
		t.Fatalf("unexpected stored record %+v", record)
	}
}

func TestAtomicIncrementStopsAtLimit(t *testing.T) {
	repo := NewUsageRepository(setupUsageTestDB(t), zap.NewNop())
	now := time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		result, err := repo.AtomicIncrement(ctx, "free@example.com", entitlementdomain.ActionATSScan, 3, now)
		if err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
		if !result.Allowed || result.NewValue != i {
			t.Fatalf("increment %d: got %+v", i, result)
		}
	}

	result, err := repo.AtomicIncrement(ctx, "free@example.com", entitlementdomain.ActionATSScan, 3, now)
	if err != nil {
		t.Fatalf("increment over limit: %v", err)
	}
	if result.Allowed {
		t.Fatalf("expected denial at limit, got %+v", result)
	}

	record, err := repo.Read(ctx, "free@example.com")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if record.ATSScanCount != 3 {
		t.Fatalf("counter exceeded limit: %d", record.ATSScanCount)
	}
}

func TestAtomicIncrementRollsOverExhaustedPeriod(t *testing.T) {
	repo := NewUsageRepository(setupUsageTestDB(t), zap.NewNop())
	ctx := context.Background()
	january := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := repo.AtomicIncrement(ctx, "user@example.com", entitlementdomain.ActionATSScan, 3, january); err != nil {
			t.Fatalf("january increment: %v", err)
		}
	}

	february := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	result, err := repo.AtomicIncrement(ctx, "user@example.com", entitlementdomain.ActionATSScan, 3, february)
	if err != nil {
		t.Fatalf("february increment: %v", err)
	}
	if !result.Allowed || result.NewValue != 1 {
		t.Fatalf("expected rollover to count 1, got %+v", result)
	}

	record, err := repo.Read(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if record.PeriodKey != "2024-02" {
		t.Fatalf("PeriodKey = %q, want 2024-02", record.PeriodKey)
	}
	if !record.PeriodStart.Equal(february) {
		t.Fatalf("PeriodStart = %v, want %v", record.PeriodStart, february)
	}
}

func TestAtomicIncrementRolloverResetsAllCounters(t *testing.T) {
	repo := NewUsageRepository(setupUsageTestDB(t), zap.NewNop())
	ctx := context.Background()
	january := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	if _, err := repo.AtomicIncrement(ctx, "user@example.com", entitlementdomain.ActionDownloadResume, 1, january); err != nil {
		t.Fatalf("january download: %v", err)
	}
	if _, err := repo.AtomicIncrement(ctx, "user@example.com", entitlementdomain.ActionATSScan, 3, january); err != nil {
		t.Fatalf("january scan: %v", err)
	}

	february := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	if _, err := repo.AtomicIncrement(ctx, "user@example.com", entitlementdomain.ActionDownloadCoverLetter, 1, february); err != nil {
		t.Fatalf("february increment: %v", err)
	}

	record, err := repo.Read(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if record.DownloadResumeCount != 0 || record.ATSScanCount != 0 {
		t.Fatalf("stale counters survived rollover: %+v", record)
	}
	if record.DownloadCoverLetterCount != 1 {
		t.Fatalf("target counter = %d, want 1", record.DownloadCoverLetterCount)
	}
}

func TestAtomicIncrementConcurrentCallsNeverExceedLimit(t *testing.T) {
	repo := NewUsageRepository(setupUsageTestDB(t), zap.NewNop())
	now := time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC)

	const limit = int64(3)
	const callers = 6

	var wg sync.WaitGroup
	allowed := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := repo.AtomicIncrement(context.Background(), "race@example.com", entitlementdomain.ActionATSScan, limit, now)
			if err != nil {
				t.Errorf("increment: %v", err)
				return
			}
			allowed <- result.Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	var granted int64
	for ok := range allowed {
		if ok {
			granted++
		}
	}
	if granted != limit {
		t.Fatalf("granted %d units, want exactly %d", granted, limit)
	}

	record, err := repo.Read(context.Background(), "race@example.com")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if record.ATSScanCount != limit {
		t.Fatalf("counter = %d, want %d", record.ATSScanCount, limit)
	}
}

func TestAtomicIncrementReportsCommittedCount(t *testing.T) {
	repo := NewUsageRepository(setupUsageTestDB(t), zap.NewNop())
	ctx := context.Background()
	now := time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC)

	for i := int64(1); i <= 3; i++ {
		result, err := repo.AtomicIncrement(ctx, "user@example.com", entitlementdomain.ActionATSScan, 3, now)
		if err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
		record, err := repo.Read(ctx, "user@example.com")
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if result.NewValue != record.ATSScanCount {
			t.Fatalf("increment %d: reported %d, stored %d", i, result.NewValue, record.ATSScanCount)
		}
	}
}

func TestAtomicIncrementRejectsLifetimeActions(t *testing.T) {
	repo := NewUsageRepository(setupUsageTestDB(t), zap.NewNop())

	_, err := repo.AtomicIncrement(context.Background(), "user@example.com", entitlementdomain.ActionCreateResume, 3, time.Now())
	if err != entitlementdomain.ErrNotMetered {
		t.Fatalf("expected action_not_metered, got %v", err)
	}
}
