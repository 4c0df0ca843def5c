package contact

import (
	"github.com/rolodexhq/rolodex/internal/contact/repository"
	"github.com/rolodexhq/rolodex/internal/contact/service"
	"go.uber.org/fx"
)

var Module = fx.Module("contact.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
