package entitlement

import (
	entitlementdomain "github.com/pabloguineab/debugcv-sub002/internal/entitlement/domain"
	"github.com/pabloguineab/debugcv-sub002/internal/entitlement/repository"
	"github.com/pabloguineab/debugcv-sub002/internal/entitlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("entitlement.service",
	fx.Provide(func(r *repository.UsageRepository) entitlementdomain.UsageRepository { return r }),
	fx.Provide(repository.NewUsageRepository),
	fx.Provide(service.NewService),
)
