package reconcile

import (
	"github.com/smallbiznis/corpsledger/internal/reconcile/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reconcile.service",
	fx.Provide(service.New),
)
