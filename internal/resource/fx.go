package resource

import (
	resourcedomain "github.com/pabloguineab/debugcv-sub002/internal/resource/domain"
	"github.com/pabloguineab/debugcv-sub002/internal/resource/repository"
	"github.com/pabloguineab/debugcv-sub002/internal/resource/service"
	"go.uber.org/fx"
)

var Module = fx.Module("resource.service",
	fx.Provide(func(r *repository.Repository) resourcedomain.Repository { return r }),
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
