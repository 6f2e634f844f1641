// Package domain defines plan tiers and the billing collaborator contracts.
package domain

import "context"

// Tier is the subscription tier a principal currently holds. Tiers are never
// persisted by this service; they are derived from the billing provider on
// demand.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// BillingGateway reports whether a principal has an active paid subscription
// with the external billing provider.
type BillingGateway interface {
	HasActiveSubscription(ctx context.Context, principal string) (bool, error)
}

// Oracle resolves the effective plan tier for a principal. Resolve never
// fails: any gateway error resolves to TierFree so entitlement decisions can
// always complete.
type Oracle interface {
	Resolve(ctx context.Context, principal string) Tier
}
