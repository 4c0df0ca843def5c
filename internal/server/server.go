package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rolodexhq/rolodex/internal/cache"
	"github.com/rolodexhq/rolodex/internal/config"
	"github.com/rolodexhq/rolodex/internal/contact"
	contactdomain "github.com/rolodexhq/rolodex/internal/contact/domain"
	"github.com/rolodexhq/rolodex/internal/metrics"
	"github.com/rolodexhq/rolodex/internal/providers"
	"github.com/rolodexhq/rolodex/internal/ratelimit"
	"github.com/rolodexhq/rolodex/internal/user"
	userdomain "github.com/rolodexhq/rolodex/internal/user/domain"
)

var Module = fx.Module("http.server",
	metrics.Module,
	cache.Module,
	providers.Module,
	ratelimit.Module,
	user.Module,
	contact.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, log *zap.Logger, m *metrics.Metrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(m.Middleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": cfg.AppVersion,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static("/avatars", cfg.AvatarDir)

	return r
}

func registerGin(cfg config.Config, log *zap.Logger, m *metrics.Metrics) *gin.Engine {
	return NewEngine(cfg, log, m)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	runtime        *config.RuntimeConfigHolder
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	usersvc        userdomain.Service
	contactsvc     contactdomain.Service
	profileLimiter *ratelimit.ProfileLimiter
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Runtime        *config.RuntimeConfigHolder
	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	Usersvc        userdomain.Service
	Contactsvc     contactdomain.Service
	ProfileLimiter *ratelimit.ProfileLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		runtime:        p.Runtime,
		db:             p.DB,
		log:            p.Log.Named("server"),
		genID:          p.GenID,
		usersvc:        p.Usersvc,
		contactsvc:     p.Contactsvc,
		profileLimiter: p.ProfileLimiter,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", s.Register)
	auth.GET("/verify", s.VerifyEmail)
	auth.POST("/login", s.Login)
	auth.POST("/resend-verification", s.ResendVerification)
	auth.POST("/request-password-reset", s.RequestPasswordReset)
	auth.GET("/reset-password", s.ValidateResetToken)
	auth.POST("/reset-password", s.ResetPassword)

	users := api.Group("/users", s.AuthRequired())
	users.GET("/me", VerifiedRequired(), s.RateLimitProfile(), s.Me)
	users.PATCH("/me/avatar", VerifiedRequired(), RequireRole(userdomain.RoleAdmin), s.UpdateAvatar)
	users.PATCH("/:id/role", VerifiedRequired(), RequireRole(userdomain.RoleAdmin), s.UpdateRole)

	contacts := api.Group("/contacts", s.AuthRequired(), VerifiedRequired())
	contacts.POST("", s.CreateContact)
	contacts.GET("", s.ListContacts)
	contacts.GET("/upcoming-birthdays", s.UpcomingBirthdays)
	contacts.GET("/:id", s.GetContact)
	contacts.PUT("/:id", s.ReplaceContact)
	contacts.PATCH("/:id", s.UpdateContact)
	contacts.DELETE("/:id", s.DeleteContact)
}
