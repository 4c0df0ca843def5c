package user

import (
	"github.com/rolodexhq/rolodex/internal/user/repository"
	"github.com/rolodexhq/rolodex/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
