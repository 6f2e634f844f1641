package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pabloguineab/debugcv-sub002/internal/cache"
	plandomain "github.com/pabloguineab/debugcv-sub002/internal/plan/domain"
	"go.uber.org/zap"
)

type fakeGateway struct {
	active bool
	err    error
	calls  int
}

func (g *fakeGateway) HasActiveSubscription(ctx context.Context, principal string) (bool, error) {
	g.calls++
	return g.active, g.err
}

func newTestOracle(gateway *fakeGateway, ttl time.Duration) *Oracle {
	var tiers cache.Cache[string, plandomain.Tier] = cache.Noop[string, plandomain.Tier]{}
	if ttl > 0 {
		tiers = cache.NewTTLCache[string, plandomain.Tier]()
	}
	return &Oracle{
		log:     zap.NewNop(),
		gateway: gateway,
		tiers:   tiers,
		ttl:     ttl,
	}
}

func TestResolveActiveSubscriptionIsPro(t *testing.T) {
	oracle := newTestOracle(&fakeGateway{active: true}, 0)

	if tier := oracle.Resolve(context.Background(), "pro@example.com"); tier != plandomain.TierPro {
		t.Fatalf("expected pro, got %s", tier)
	}
}

func TestResolveNoSubscriptionIsFree(t *testing.T) {
	oracle := newTestOracle(&fakeGateway{active: false}, 0)

	if tier := oracle.Resolve(context.Background(), "free@example.com"); tier != plandomain.TierFree {
		t.Fatalf("expected free, got %s", tier)
	}
}

func TestResolveGatewayFailureFailsSafeToFree(t *testing.T) {
	gateway := &fakeGateway{active: true, err: errors.New("billing provider timeout")}
	oracle := newTestOracle(gateway, time.Minute)

	if tier := oracle.Resolve(context.Background(), "pro@example.com"); tier != plandomain.TierFree {
		t.Fatalf("expected free on gateway failure, got %s", tier)
	}

	// Failures are not cached so recovery is immediate.
	gateway.err = nil
	if tier := oracle.Resolve(context.Background(), "pro@example.com"); tier != plandomain.TierPro {
		t.Fatalf("expected pro after gateway recovery, got %s", tier)
	}
}

func TestResolveCachesWithinTTL(t *testing.T) {
	gateway := &fakeGateway{active: true}
	oracle := newTestOracle(gateway, time.Minute)

	oracle.Resolve(context.Background(), "pro@example.com")
	oracle.Resolve(context.Background(), "pro@example.com")

	if gateway.calls != 1 {
		t.Fatalf("expected 1 gateway call with warm cache, got %d", gateway.calls)
	}
}

func TestResolveWithoutCacheSeesDowngradeImmediately(t *testing.T) {
	gateway := &fakeGateway{active: true}
	oracle := newTestOracle(gateway, 0)

	if tier := oracle.Resolve(context.Background(), "user@example.com"); tier != plandomain.TierPro {
		t.Fatalf("expected pro, got %s", tier)
	}

	gateway.active = false
	if tier := oracle.Resolve(context.Background(), "user@example.com"); tier != plandomain.TierFree {
		t.Fatalf("expected free after cancellation, got %s", tier)
	}
}

func TestResolveEmptyPrincipalIsFree(t *testing.T) {
	gateway := &fakeGateway{active: true}
	oracle := newTestOracle(gateway, time.Minute)

	if tier := oracle.Resolve(context.Background(), "  "); tier != plandomain.TierFree {
		t.Fatalf("expected free for empty principal, got %s", tier)
	}
	if gateway.calls != 0 {
		t.Fatalf("expected no gateway call, got %d", gateway.calls)
	}
}
