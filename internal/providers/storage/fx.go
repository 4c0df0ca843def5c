package storage

import (
	"github.com/rolodexhq/rolodex/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.storage",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) Provider {
	return NewLocal(cfg.AvatarDir, cfg.PublicURL)
}
