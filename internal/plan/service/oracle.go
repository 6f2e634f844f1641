// Package service resolves plan tiers from the billing gateway with an
// optional short-TTL cache and fail-safe semantics.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/pabloguineab/debugcv-sub002/internal/cache"
	"github.com/pabloguineab/debugcv-sub002/internal/config"
	plandomain "github.com/pabloguineab/debugcv-sub002/internal/plan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type OracleParam struct {
	fx.In

	Log     *zap.Logger
	Config  config.Config
	Gateway plandomain.BillingGateway
}

// Oracle answers tier lookups. Gateway failures resolve to the free tier:
// entitlement decisions must always complete, and an unreachable billing
// provider must never grant unlimited usage.
type Oracle struct {
	log     *zap.Logger
	gateway plandomain.BillingGateway
	tiers   cache.Cache[string, plandomain.Tier]
	ttl     time.Duration
}

// NewOracle constructs the plan oracle. With a zero TTL the cache is a no-op
// and every resolve hits the gateway, so cancellation downgrades converge on
// the next request; with a positive TTL the staleness window equals the TTL.
func NewOracle(p OracleParam) plandomain.Oracle {
	var tiers cache.Cache[string, plandomain.Tier] = cache.Noop[string, plandomain.Tier]{}
	if p.Config.PlanCacheTTL > 0 {
		tiers = cache.NewTTLCache[string, plandomain.Tier]()
	}
	return &Oracle{
		log:     p.Log.Named("plan.oracle"),
		gateway: p.Gateway,
		tiers:   tiers,
		ttl:     p.Config.PlanCacheTTL,
	}
}

// Resolve returns the principal's effective tier. It never returns an error;
// any gateway failure is logged and resolved as free.
func (o *Oracle) Resolve(ctx context.Context, principal string) plandomain.Tier {
	principal = strings.ToLower(strings.TrimSpace(principal))
	if principal == "" {
		return plandomain.TierFree
	}

	if tier, ok := o.tiers.Get(principal); ok {
		return tier
	}

	active, err := o.gateway.HasActiveSubscription(ctx, principal)
	if err != nil {
		// Fail safe: an unreachable billing provider downgrades, it
		// never upgrades. Not cached so recovery is immediate.
		o.log.Warn("billing lookup failed, resolving tier as free",
			zap.String("principal", principal),
			zap.Error(err),
		)
		return plandomain.TierFree
	}

	tier := plandomain.TierFree
	if active {
		tier = plandomain.TierPro
	}
	o.tiers.Set(principal, tier, o.ttl)
	return tier
}
