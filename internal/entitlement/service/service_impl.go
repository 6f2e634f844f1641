// Package service implements the entitlement engine: the advisory check and
// the binding atomic consume every metered business action goes through.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/pabloguineab/debugcv-sub002/internal/clock"
	entitlementdomain "github.com/pabloguineab/debugcv-sub002/internal/entitlement/domain"
	"github.com/pabloguineab/debugcv-sub002/internal/events"
	"github.com/pabloguineab/debugcv-sub002/internal/observability/metrics"
	plandomain "github.com/pabloguineab/debugcv-sub002/internal/plan/domain"
	"github.com/pabloguineab/debugcv-sub002/internal/quota"
	resourcedomain "github.com/pabloguineab/debugcv-sub002/internal/resource/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	Oracle    plandomain.Oracle
	Policy    quota.Policy
	UsageRepo entitlementdomain.UsageRepository
	Resources resourcedomain.Repository
	Outbox    *events.Outbox           `optional:"true"`
	Metrics   *metrics.DecisionMetrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	clock     clock.Clock
	oracle    plandomain.Oracle
	policy    quota.Policy
	usagerepo entitlementdomain.UsageRepository
	resources resourcedomain.Repository
	outbox    *events.Outbox
	metrics   *metrics.DecisionMetrics
}

func NewService(p ServiceParam) entitlementdomain.Service {
	return &Service{
		log:       p.Log.Named("entitlement.service"),
		clock:     p.Clock,
		oracle:    p.Oracle,
		policy:    p.Policy,
		usagerepo: p.UsageRepo,
		resources: p.Resources,
		outbox:    p.Outbox,
		metrics:   p.Metrics,
	}
}

// CheckAllowed answers "may this principal perform this action now" without
// consuming quota. Pro tiers short-circuit before any store access. Store
// read failures deny: an unreachable store must not hand out unmetered work.
func (s *Service) CheckAllowed(ctx context.Context, principal string, action entitlementdomain.Action) (entitlementdomain.Decision, error) {
	principal = normalizePrincipal(principal)
	if principal == "" {
		return entitlementdomain.Decision{}, entitlementdomain.ErrInvalidPrincipal
	}

	tier := s.oracle.Resolve(ctx, principal)
	limit, err := s.policy.LimitFor(tier, action)
	if err != nil {
		return entitlementdomain.Decision{}, err
	}
	if limit == quota.Unlimited {
		return s.decide(principal, action, entitlementdomain.Decision{Allowed: true, Tier: tier, Remaining: -1}), nil
	}

	if action.Lifetime() {
		count, err := s.resources.CountOwned(ctx, principal, resourceKindFor(action))
		if err != nil {
			s.log.Warn("resource count failed, denying check",
				zap.String("principal", principal),
				zap.String("action", action.String()),
				zap.Error(err),
			)
			return s.decide(principal, action, entitlementdomain.Decision{Allowed: false, Tier: tier}), nil
		}
		return s.decide(principal, action, entitlementdomain.Decision{
			Allowed:   count < limit,
			Tier:      tier,
			Remaining: remaining(limit, count),
		}), nil
	}

	record, err := s.usagerepo.Read(ctx, principal)
	if err != nil {
		s.log.Warn("usage read failed, denying check",
			zap.String("principal", principal),
			zap.String("action", action.String()),
			zap.Error(err),
		)
		return s.decide(principal, action, entitlementdomain.Decision{Allowed: false, Tier: tier}), nil
	}

	now := s.clock.Now()
	var used int64
	if record != nil {
		used = quota.Normalize(*record, now).CounterFor(action)
	}
	return s.decide(principal, action, entitlementdomain.Decision{
		Allowed:   used < limit,
		Tier:      tier,
		Remaining: remaining(limit, used),
	}), nil
}

// TryConsume is the single gating primitive for period-capped actions: one
// linearizable conditional increment decides and records in the same step.
// Lifetime creation actions are not consumed here; the resource store's
// capped insert is their gate.
func (s *Service) TryConsume(ctx context.Context, principal string, action entitlementdomain.Action) (entitlementdomain.Decision, error) {
	principal = normalizePrincipal(principal)
	if principal == "" {
		return entitlementdomain.Decision{}, entitlementdomain.ErrInvalidPrincipal
	}
	if action.Lifetime() {
		return entitlementdomain.Decision{}, entitlementdomain.ErrNotMetered
	}

	start := time.Now()
	defer func() {
		s.metrics.RecordConsume(action.String(), time.Since(start))
	}()

	tier := s.oracle.Resolve(ctx, principal)
	limit, err := s.policy.LimitFor(tier, action)
	if err != nil {
		return entitlementdomain.Decision{}, err
	}
	if limit == quota.Unlimited {
		// Pro never touches the usage store and never fails here.
		return s.decide(principal, action, entitlementdomain.Decision{Allowed: true, Tier: tier, Remaining: -1}), nil
	}

	now := s.clock.Now()
	result, err := s.usagerepo.AtomicIncrement(ctx, principal, action, limit, now)
	if err != nil {
		// Fail closed: the caller must not perform the metered work on
		// an ambiguous result.
		s.log.Warn("atomic increment failed, denying consume",
			zap.String("principal", principal),
			zap.String("action", action.String()),
			zap.Error(err),
		)
		return s.decide(principal, action, entitlementdomain.Decision{Allowed: false, Tier: tier}), nil
	}

	decision := entitlementdomain.Decision{
		Allowed:   result.Allowed,
		Tier:      tier,
		Remaining: remaining(limit, result.NewValue),
	}
	s.publishDecision(ctx, principal, action, tier, limit, result, now)
	return s.decide(principal, action, decision), nil
}

func (s *Service) publishDecision(
	ctx context.Context,
	principal string,
	action entitlementdomain.Action,
	tier plandomain.Tier,
	limit int64,
	result entitlementdomain.IncrementResult,
	now time.Time,
) {
	if s.outbox == nil {
		return
	}
	eventType := events.EventUsageConsumed
	dedupe := ""
	if !result.Allowed {
		eventType = events.EventQuotaExceeded
		// One upgrade nudge per action per period.
		dedupe = "quota_exceeded:" + action.String() + ":" + quota.PeriodKey(now)
	}
	payload := events.UsagePayload{
		Principal: principal,
		Action:    action.String(),
		Tier:      string(tier),
		NewCount:  result.NewValue,
		Limit:     limit,
		PeriodKey: quota.PeriodKey(now),
	}
	if err := s.outbox.Publish(ctx, events.Event{
		Principal: principal,
		Type:      eventType,
		Payload:   payload.ToMap(),
		DedupeKey: dedupe,
	}); err != nil {
		s.log.Warn("publish entitlement event failed",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func (s *Service) decide(principal string, action entitlementdomain.Action, decision entitlementdomain.Decision) entitlementdomain.Decision {
	s.metrics.RecordDecision(action.String(), string(decision.Tier), decision.Allowed)
	if !decision.Allowed {
		s.log.Debug("entitlement denied",
			zap.String("principal", principal),
			zap.String("action", action.String()),
			zap.String("tier", string(decision.Tier)),
		)
	}
	return decision
}

func resourceKindFor(action entitlementdomain.Action) resourcedomain.Kind {
	if action == entitlementdomain.ActionCreateCoverLetter {
		return resourcedomain.KindCoverLetter
	}
	return resourcedomain.KindResume
}

func remaining(limit, used int64) int64 {
	if left := limit - used; left > 0 {
		return left
	}
	return 0
}

func normalizePrincipal(principal string) string {
	return strings.ToLower(strings.TrimSpace(principal))
}
