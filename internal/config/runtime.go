package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RuntimeConfig holds tunables that can change without a restart.
type RuntimeConfig struct {
	UserCacheTTLSeconds  int     `mapstructure:"userCacheTTLSeconds"`
	BirthdayWindowDays   int     `mapstructure:"birthdayWindowDays"`
	ProfileRateLimit     float64 `mapstructure:"profileRateLimit"`
	ProfileRateBurst     int     `mapstructure:"profileRateBurst"`
	ContactsDefaultLimit int     `mapstructure:"contactsDefaultLimit"`
	ContactsMaxLimit     int     `mapstructure:"contactsMaxLimit"`
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		UserCacheTTLSeconds:  900,
		BirthdayWindowDays:   7,
		ProfileRateLimit:     5.0 / 60.0,
		ProfileRateBurst:     5,
		ContactsDefaultLimit: 20,
		ContactsMaxLimit:     100,
	}
}

func (c RuntimeConfig) UserCacheTTL() time.Duration {
	return time.Duration(c.UserCacheTTLSeconds) * time.Second
}

// RuntimeConfigHolder serves the current tunables and hot-reloads them
// from rolodex.yml when the file changes.
type RuntimeConfigHolder struct {
	current atomic.Value // holds RuntimeConfig
}

func NewRuntimeConfigHolder() (*RuntimeConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("rolodex")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/rolodex")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ROLODEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRuntimeConfig()
	v.SetDefault("runtime.userCacheTTLSeconds", defaults.UserCacheTTLSeconds)
	v.SetDefault("runtime.birthdayWindowDays", defaults.BirthdayWindowDays)
	v.SetDefault("runtime.profileRateLimit", defaults.ProfileRateLimit)
	v.SetDefault("runtime.profileRateBurst", defaults.ProfileRateBurst)
	v.SetDefault("runtime.contactsDefaultLimit", defaults.ContactsDefaultLimit)
	v.SetDefault("runtime.contactsMaxLimit", defaults.ContactsMaxLimit)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg RuntimeConfig
	if err := v.UnmarshalKey("runtime", &cfg); err != nil {
		return nil, err
	}
	if err := validateRuntimeConfig(cfg); err != nil {
		return nil, err
	}

	holder := &RuntimeConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RuntimeConfig
		if err := v.UnmarshalKey("runtime", &updated); err != nil {
			log.Printf("[runtime-config] reload failed: %v", err)
			return
		}
		if err := validateRuntimeConfig(updated); err != nil {
			log.Printf("[runtime-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[runtime-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *RuntimeConfigHolder) Current() RuntimeConfig {
	if h == nil {
		return DefaultRuntimeConfig()
	}
	cfg, ok := h.current.Load().(RuntimeConfig)
	if !ok {
		return DefaultRuntimeConfig()
	}
	return cfg
}

func validateRuntimeConfig(cfg RuntimeConfig) error {
	if cfg.UserCacheTTLSeconds < 0 {
		return errors.New("userCacheTTLSeconds must not be negative")
	}
	if cfg.BirthdayWindowDays < 1 || cfg.BirthdayWindowDays > 365 {
		return errors.New("birthdayWindowDays must be within [1, 365]")
	}
	if cfg.ProfileRateLimit <= 0 || cfg.ProfileRateBurst <= 0 {
		return errors.New("profile rate limit and burst must be positive")
	}
	if cfg.ContactsDefaultLimit < 1 || cfg.ContactsMaxLimit < cfg.ContactsDefaultLimit {
		return errors.New("contacts limits are inconsistent")
	}
	return nil
}
