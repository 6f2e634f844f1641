package domain

import (
	"context"
	"time"

	plandomain "github.com/pabloguineab/debugcv-sub002/internal/plan/domain"
)

// Decision is the outcome of an entitlement check or consume call. Remaining
// is -1 when the tier is unlimited for the action.
type Decision struct {
	Allowed   bool            `json:"allowed"`
	Tier      plandomain.Tier `json:"tier"`
	Remaining int64           `json:"remaining"`
}

// Service is the entitlement engine consumed by business actions.
type Service interface {
	// CheckAllowed is the advisory pre-check used for UI gating. It never
	// mutates usage state.
	CheckAllowed(ctx context.Context, principal string, action Action) (Decision, error)

	// TryConsume is the binding atomic gate for period-capped actions: it
	// folds check and record into one linearizable store operation. A
	// denied decision is a policy outcome, not an error.
	TryConsume(ctx context.Context, principal string, action Action) (Decision, error)
}

// IncrementResult reports the outcome of a conditional increment.
type IncrementResult struct {
	Allowed  bool
	NewValue int64
}

// UsageRepository persists per-principal usage counters.
//
// AtomicIncrement must behave as a single linearizable read-modify-write: it
// normalizes the stored period against now, increments the action's counter
// by one, and refuses the whole operation when the normalized pre-value has
// already reached limit. Concurrent calls for one principal serialize on the
// underlying row.
type UsageRepository interface {
	Read(ctx context.Context, principal string) (*UsageRecord, error)
	AtomicIncrement(ctx context.Context, principal string, action Action, limit int64, now time.Time) (IncrementResult, error)
}
