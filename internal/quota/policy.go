// Package quota holds the static plan limits table and the calendar-month
// rollover rules shared by every read and write path of the entitlement
// engine.
package quota

import (
	"errors"
	"fmt"

	entitlementdomain "github.com/pabloguineab/debugcv-sub002/internal/entitlement/domain"
	plandomain "github.com/pabloguineab/debugcv-sub002/internal/plan/domain"
)

// Unlimited marks a (tier, action) pair with no cap.
const Unlimited int64 = -1

var ErrPolicyMisconfigured = errors.New("policy_misconfigured")

// Policy maps (tier, action) to a limit. The table is immutable configuration
// built once at startup; it is never mutated at request time.
type Policy struct {
	limits map[plandomain.Tier]map[entitlementdomain.Action]int64
}

// DefaultPolicy returns the shipped plan limits: free accounts get three
// resumes and three cover letters for the lifetime of the account, one resume
// download, one cover letter download and three ATS scans per calendar month.
// Pro accounts are unlimited everywhere.
func DefaultPolicy() Policy {
	return Policy{limits: map[plandomain.Tier]map[entitlementdomain.Action]int64{
		plandomain.TierFree: {
			entitlementdomain.ActionCreateResume:        3,
			entitlementdomain.ActionCreateCoverLetter:   3,
			entitlementdomain.ActionDownloadResume:      1,
			entitlementdomain.ActionDownloadCoverLetter: 1,
			entitlementdomain.ActionATSScan:             3,
		},
		plandomain.TierPro: {
			entitlementdomain.ActionCreateResume:        Unlimited,
			entitlementdomain.ActionCreateCoverLetter:   Unlimited,
			entitlementdomain.ActionDownloadResume:      Unlimited,
			entitlementdomain.ActionDownloadCoverLetter: Unlimited,
			entitlementdomain.ActionATSScan:             Unlimited,
		},
	}}
}

// LimitFor returns the limit for a tier and action. A missing pair is a
// programming defect surfaced as ErrPolicyMisconfigured; Validate catches it
// at startup so request paths never see it.
func (p Policy) LimitFor(tier plandomain.Tier, action entitlementdomain.Action) (int64, error) {
	actions, ok := p.limits[tier]
	if !ok {
		return 0, fmt.Errorf("%w: tier %q", ErrPolicyMisconfigured, tier)
	}
	limit, ok := actions[action]
	if !ok {
		return 0, fmt.Errorf("%w: tier %q action %q", ErrPolicyMisconfigured, tier, action)
	}
	if limit < 0 && limit != Unlimited {
		return 0, fmt.Errorf("%w: tier %q action %q limit %d", ErrPolicyMisconfigured, tier, action, limit)
	}
	return limit, nil
}

// Validate checks the table is exhaustive over every tier and action. It runs
// from an fx startup hook; a failure aborts boot.
func (p Policy) Validate() error {
	for _, tier := range []plandomain.Tier{plandomain.TierFree, plandomain.TierPro} {
		for _, action := range entitlementdomain.Actions {
			if _, err := p.LimitFor(tier, action); err != nil {
				return err
			}
		}
	}
	return nil
}
