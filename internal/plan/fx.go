package plan

import (
	"github.com/pabloguineab/debugcv-sub002/internal/config"
	plandomain "github.com/pabloguineab/debugcv-sub002/internal/plan/domain"
	"github.com/pabloguineab/debugcv-sub002/internal/plan/service"
	"github.com/pabloguineab/debugcv-sub002/internal/plan/stripegateway"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.oracle",
	fx.Provide(func(cfg config.Config) plandomain.BillingGateway {
		return stripegateway.New(cfg.Stripe.SecretKey)
	}),
	fx.Provide(service.NewOracle),
)
