package providers

import (
	"github.com/rolodexhq/rolodex/internal/providers/email"
	"github.com/rolodexhq/rolodex/internal/providers/storage"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	storage.Module,
)
