package quota

import (
	"time"

	entitlementdomain "github.com/pabloguineab/debugcv-sub002/internal/entitlement/domain"
)

const periodKeyLayout = "2006-01"

// PeriodKey returns the UTC calendar-month key counters are scoped to.
func PeriodKey(t time.Time) string {
	return t.UTC().Format(periodKeyLayout)
}

// SamePeriod reports whether two instants fall in the same UTC calendar month.
func SamePeriod(a, b time.Time) bool {
	return PeriodKey(a) == PeriodKey(b)
}

// Normalize applies the monthly rollover to a stored usage record. Within the
// record's own month it returns the record unchanged; once the month has
// passed it returns a record with every period counter zeroed and the period
// restarted at now. Pure and deterministic: the read path (CheckAllowed) and
// the write path (AtomicIncrement) both derive their rollover from this
// definition, so they can never disagree about whether a reset happened.
func Normalize(record entitlementdomain.UsageRecord, now time.Time) entitlementdomain.UsageRecord {
	key := record.PeriodKey
	if key == "" {
		key = PeriodKey(record.PeriodStart)
	}
	if key == PeriodKey(now) {
		record.PeriodKey = key
		return record
	}
	record.DownloadResumeCount = 0
	record.DownloadCoverLetterCount = 0
	record.ATSScanCount = 0
	record.PeriodKey = PeriodKey(now)
	record.PeriodStart = now.UTC()
	return record
}
