package beverage

import (
	"github.com/smallbiznis/corpsledger/internal/beverage/repository"
	"github.com/smallbiznis/corpsledger/internal/beverage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("beverage.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
