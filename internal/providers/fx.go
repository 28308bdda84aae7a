package providers

import (
	"github.com/smallbiznis/corpsledger/internal/providers/email"
	"github.com/smallbiznis/corpsledger/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
