// Package stripegateway implements the billing gateway against Stripe.
// Principals are identified by their verified email, which is also the Stripe
// customer email.
package stripegateway

import (
	"context"
	"fmt"

	plandomain "github.com/pabloguineab/debugcv-sub002/internal/plan/domain"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/subscription"
)

// Gateway looks up subscription state in Stripe.
type Gateway struct{}

// New wires the Stripe API key and returns the gateway. An empty key is
// allowed for local development; lookups then fail and the oracle resolves
// every principal as free.
func New(secretKey string) *Gateway {
	stripe.Key = secretKey
	return &Gateway{}
}

// HasActiveSubscription reports whether any Stripe customer with the
// principal's email holds an active or trialing subscription. Every Stripe
// error is surfaced so the oracle can apply its fail-safe downgrade.
func (g *Gateway) HasActiveSubscription(ctx context.Context, principal string) (bool, error) {
	if stripe.Key == "" {
		return false, fmt.Errorf("%w: stripe key not configured", plandomain.ErrOracleUnavailable)
	}

	custParams := &stripe.CustomerListParams{Email: stripe.String(principal)}
	custParams.Context = ctx
	custParams.Limit = stripe.Int64(10)

	customers := customer.List(custParams)
	for customers.Next() {
		active, err := g.customerHasActiveSubscription(ctx, customers.Customer().ID)
		if err != nil {
			return false, err
		}
		if active {
			return true, nil
		}
	}
	if err := customers.Err(); err != nil {
		return false, fmt.Errorf("%w: %v", plandomain.ErrOracleUnavailable, err)
	}
	return false, nil
}

func (g *Gateway) customerHasActiveSubscription(ctx context.Context, customerID string) (bool, error) {
	subParams := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	subParams.Context = ctx

	subs := subscription.List(subParams)
	for subs.Next() {
		switch subs.Subscription().Status {
		case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
			return true, nil
		}
	}
	if err := subs.Err(); err != nil {
		return false, fmt.Errorf("%w: %v", plandomain.ErrOracleUnavailable, err)
	}
	return false, nil
}
