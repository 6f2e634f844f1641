// Package domain contains the metered action catalog and usage persistence
// contracts for the entitlement engine.
package domain

import (
	"errors"
	"strings"
	"time"
)

// Action is a metered business action.
type Action string

const (
	// Lifetime-capped creation actions. Their usage is the cardinality of
	// the principal's owned resource collection, not a counter.
	ActionCreateResume      Action = "create_resume"
	ActionCreateCoverLetter Action = "create_cover_letter"

	// Period-capped metered actions. Their usage is a counter that resets
	// every calendar month.
	ActionDownloadResume      Action = "download_resume"
	ActionDownloadCoverLetter Action = "download_cover_letter"
	ActionATSScan             Action = "ats_scan"
)

// Actions lists every metered action. Policy validation iterates this set, so
// a new action without a policy entry fails startup instead of a request.
var Actions = []Action{
	ActionCreateResume,
	ActionCreateCoverLetter,
	ActionDownloadResume,
	ActionDownloadCoverLetter,
	ActionATSScan,
}

var ErrUnknownAction = errors.New("unknown_action")

// ParseAction normalizes and validates a wire-format action name.
func ParseAction(value string) (Action, error) {
	action := Action(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Actions {
		if action == known {
			return action, nil
		}
	}
	return "", ErrUnknownAction
}

// Lifetime reports whether the action is capped by owned-resource count
// rather than a monthly counter.
func (a Action) Lifetime() bool {
	return a == ActionCreateResume || a == ActionCreateCoverLetter
}

func (a Action) String() string { return string(a) }

// UsageRecord is the single mutable row this engine owns per principal.
// PeriodKey is the UTC calendar month ("2006-01") the counters belong to; a
// record whose key differs from the current month is logically zero.
type UsageRecord struct {
	Principal                string    `gorm:"primaryKey;type:text" json:"principal"`
	DownloadResumeCount      int64     `gorm:"not null;default:0" json:"download_resume_count"`
	DownloadCoverLetterCount int64     `gorm:"not null;default:0" json:"download_cover_letter_count"`
	ATSScanCount             int64     `gorm:"column:ats_scan_count;not null;default:0" json:"ats_scan_count"`
	PeriodKey                string    `gorm:"type:text;not null" json:"period_key"`
	PeriodStart              time.Time `gorm:"not null" json:"period_start"`
	CreatedAt                time.Time `gorm:"not null" json:"-"`
	UpdatedAt                time.Time `gorm:"not null" json:"-"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "usage_records" }

// CounterFor returns the stored counter for a period-capped action. Lifetime
// actions have no counter and always return 0.
func (r UsageRecord) CounterFor(action Action) int64 {
	switch action {
	case ActionDownloadResume:
		return r.DownloadResumeCount
	case ActionDownloadCoverLetter:
		return r.DownloadCoverLetterCount
	case ActionATSScan:
		return r.ATSScanCount
	default:
		return 0
	}
}
