package migration

import (
	"github.com/rolodexhq/rolodex/internal/config"
	contactdomain "github.com/rolodexhq/rolodex/internal/contact/domain"
	userdomain "github.com/rolodexhq/rolodex/internal/user/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// SQL migrations target postgres; other dialects are for local
		// development and lean on the model definitions instead.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(&userdomain.User{}, &contactdomain.Contact{})
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
