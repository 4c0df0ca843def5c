// Package auth wires the credential codec and the password-reset issuer.
package auth

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/rolodexhq/rolodex/internal/auth/reset"
	"github.com/rolodexhq/rolodex/internal/auth/token"
	"github.com/rolodexhq/rolodex/internal/cache"
	"github.com/rolodexhq/rolodex/internal/clock"
	"github.com/rolodexhq/rolodex/internal/config"
)

var Module = fx.Module("auth",
	fx.Provide(newCodec, newResetIssuer),
)

func newCodec(cfg config.Config, clk clock.Clock) *token.Codec {
	return token.NewCodec(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.VerificationTTL, clk)
}

func newResetIssuer(cfg config.Config, store cache.Store, clk clock.Clock, log *zap.Logger) *reset.Issuer {
	return reset.NewIssuer(cfg.PasswordResetSecret, cfg.PasswordResetWindow, store, clk, log)
}
