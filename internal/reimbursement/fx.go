package reimbursement

import (
	"github.com/smallbiznis/corpsledger/internal/reimbursement/repository"
	"github.com/smallbiznis/corpsledger/internal/reimbursement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reimbursement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
