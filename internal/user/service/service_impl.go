package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rolodexhq/rolodex/internal/auth/password"
	"github.com/rolodexhq/rolodex/internal/auth/reset"
	"github.com/rolodexhq/rolodex/internal/auth/token"
	"github.com/rolodexhq/rolodex/internal/cache"
	"github.com/rolodexhq/rolodex/internal/clock"
	"github.com/rolodexhq/rolodex/internal/config"
	"github.com/rolodexhq/rolodex/internal/providers/email"
	"github.com/rolodexhq/rolodex/internal/providers/storage"
	"github.com/rolodexhq/rolodex/internal/user/domain"
	"github.com/rolodexhq/rolodex/pkg/db"
)

type Params struct {
	fx.In

	Config  config.Config
	Runtime *config.RuntimeConfigHolder
	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Tokens  *token.Codec
	Reset   *reset.Issuer
	Cache   cache.Store `optional:"true"`
	Email   email.Provider
	Storage storage.Provider
}

type Service struct {
	cfg     config.Config
	runtime *config.RuntimeConfigHolder
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	tokens  *token.Codec
	reset   *reset.Issuer
	cache   cache.Store
	email   email.Provider
	storage storage.Provider
}

func New(p Params) domain.Service {
	return &Service{
		cfg:     p.Config,
		runtime: p.Runtime,
		db:      p.DB,
		log:     p.Log.Named("user.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		tokens:  p.Tokens,
		reset:   p.Reset,
		cache:   p.Cache,
		email:   p.Email,
		storage: p.Storage,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	addr := strings.ToLower(strings.TrimSpace(req.Email))
	if addr == "" || !strings.Contains(addr, "@") {
		return nil, domain.ErrInvalidEmail
	}
	if len(req.Password) < 8 || len(req.Password) > 100 {
		return nil, domain.ErrInvalidPassword
	}

	exists, err := s.repo.ExistsByEmail(ctx, s.db, addr)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrEmailTaken
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           s.genID.Generate(),
		Email:        addr,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		IsActive:     true,
		IsVerified:   false,
		Role:         domain.RoleUser,
		Metadata:     datatypes.JSONMap{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, user)
	})
	if err != nil {
		// The pre-check races with concurrent registrations; the unique
		// index is the authority.
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}

	s.sendVerificationMail(user.Email)

	s.log.Info("user registered", zap.Int64("user_id", int64(user.ID)))
	return user, nil
}

func (s *Service) Authenticate(ctx context.Context, addr, pw string) (*domain.User, string, error) {
	user, err := s.repo.FindByEmail(ctx, s.db, strings.TrimSpace(addr))
	if err != nil {
		return nil, "", err
	}
	if user == nil || !password.Verify(pw, user.PasswordHash) {
		return nil, "", domain.ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, "", domain.ErrNotVerified
	}
	if !user.IsActive {
		return nil, "", domain.ErrInactive
	}

	access, err := s.tokens.IssueAccess(int64(user.ID), user.Email)
	if err != nil {
		return nil, "", err
	}
	return user, access, nil
}

func (s *Service) VerifyEmail(ctx context.Context, raw string) error {
	addr, ok := s.tokens.VerifyEmailVerification(raw)
	if !ok {
		return domain.ErrInvalidToken
	}

	user, err := s.repo.FindByEmail(ctx, s.db, addr)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrInvalidToken
	}
	if user.IsVerified {
		return nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.UpdateFields(ctx, tx, user.ID, map[string]any{
			"is_verified": true,
			"updated_at":  s.clock.Now(),
		})
	})
	if err != nil {
		return err
	}

	s.invalidateSnapshot(ctx, user.ID)
	s.log.Info("email verified", zap.Int64("user_id", int64(user.ID)))
	return nil
}

func (s *Service) ResendVerification(ctx context.Context, addr string) error {
	user, err := s.repo.FindByEmail(ctx, s.db, strings.TrimSpace(addr))
	if err != nil {
		return err
	}
	if user == nil || user.IsVerified {
		// Same outcome as the happy path so callers cannot probe for
		// registered addresses.
		return nil
	}
	s.sendVerificationMail(user.Email)
	return nil
}

func (s *Service) RequestPasswordReset(ctx context.Context, addr string) error {
	user, err := s.repo.FindByEmail(ctx, s.db, strings.TrimSpace(addr))
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	tok, _, err := s.reset.Create(ctx, int64(user.ID), user.Email)
	if err != nil {
		return err
	}

	to := user.Email
	go func() {
		subject, body := email.PasswordResetMessage(s.cfg.PublicURL, tok)
		sendCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.email.Send(sendCtx, []string{to}, subject, body); err != nil {
			s.log.Warn("failed to send password reset email", zap.Error(err))
		}
	}()
	return nil
}

func (s *Service) ValidateResetToken(ctx context.Context, raw string) error {
	if _, ok := s.reset.Validate(ctx, raw); !ok {
		return domain.ErrInvalidToken
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, raw, newPassword string) error {
	if len(newPassword) < 8 || len(newPassword) > 100 {
		return domain.ErrInvalidPassword
	}

	payload, ok := s.reset.Validate(ctx, raw)
	if !ok {
		return domain.ErrInvalidToken
	}

	user, err := s.repo.FindByID(ctx, s.db, snowflake.ID(payload.Sub))
	if err != nil {
		return err
	}
	if user == nil || !strings.EqualFold(user.Email, payload.Email) {
		return domain.ErrInvalidToken
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.UpdateFields(ctx, tx, user.ID, map[string]any{
			"password_hash": hash,
			"updated_at":    s.clock.Now(),
		})
	})
	if err != nil {
		return err
	}

	s.reset.Invalidate(ctx, payload.JTI)
	s.invalidateSnapshot(ctx, user.ID)
	s.log.Info("password reset", zap.Int64("user_id", int64(user.ID)))
	return nil
}

// Resolve turns a bearer token into a principal. The cached snapshot is
// consulted first: an inactive snapshot rejects the request without touching
// the store, an active one still triggers an authoritative store fetch so a
// hit can never resurrect a deleted or deactivated account.
func (s *Service) Resolve(ctx context.Context, rawToken string) (*domain.User, error) {
	claims, ok := s.tokens.DecodeAccess(rawToken)
	if !ok || claims.UserID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	id := snowflake.ID(claims.UserID)

	if s.cache != nil {
		if raw, hit := s.cache.GetJSON(ctx, cache.UserKey(int64(id))); hit {
			var snap domain.Snapshot
			if err := json.Unmarshal(raw, &snap); err != nil || snap.ID != id {
				// Corrupt entry: drop it and fall through to the store.
				s.cache.Delete(ctx, cache.UserKey(int64(id)))
			} else {
				if !snap.IsActive {
					return nil, domain.ErrUnauthenticated
				}
				user, err := s.repo.FindByID(ctx, s.db, id)
				if err != nil {
					return nil, err
				}
				if user == nil {
					s.cache.Delete(ctx, cache.UserKey(int64(id)))
					return nil, domain.ErrUnauthenticated
				}
				if !user.IsActive {
					return nil, domain.ErrUnauthenticated
				}
				return user, nil
			}
		}
	}

	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, domain.ErrUnauthenticated
	}

	if s.cache != nil {
		ttl := s.runtime.Current().UserCacheTTL()
		s.cache.SetJSON(ctx, cache.UserKey(int64(id)), domain.SnapshotOf(user), ttl)
	}
	return user, nil
}

func (s *Service) UpdateAvatar(ctx context.Context, user *domain.User, content []byte, contentType string) (*domain.User, error) {
	ext := extensionFor(contentType)
	name := fmt.Sprintf("%d-%s%s", user.ID, uuid.NewString(), ext)

	url, err := s.storage.Save(ctx, name, contentType, content)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.UpdateFields(ctx, tx, user.ID, map[string]any{
			"avatar_url": url,
			"updated_at": s.clock.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSnapshot(ctx, user.ID)

	updated := *user
	updated.AvatarURL = url
	return &updated, nil
}

func (s *Service) UpdateRole(ctx context.Context, id snowflake.ID, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.UpdateFields(ctx, tx, id, map[string]any{
			"role":       role,
			"updated_at": s.clock.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSnapshot(ctx, id)

	user.Role = role
	s.log.Info("role updated",
		zap.Int64("user_id", int64(id)),
		zap.String("role", string(role)))
	return user, nil
}

// invalidateSnapshot drops the cached profile before a mutation reports
// success so stale authorization state cannot outlive the change.
func (s *Service) invalidateSnapshot(ctx context.Context, id snowflake.ID) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(ctx, cache.UserKey(int64(id)))
}

func (s *Service) sendVerificationMail(addr string) {
	tok, err := s.tokens.IssueEmailVerification(addr)
	if err != nil {
		s.log.Warn("failed to issue verification token", zap.Error(err))
		return
	}
	go func() {
		subject, body := email.VerificationMessage(s.cfg.PublicURL, tok)
		sendCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.email.Send(sendCtx, []string{addr}, subject, body); err != nil {
			s.log.Warn("failed to send verification email", zap.Error(err))
		}
	}()
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
