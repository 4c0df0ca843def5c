package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rolodexhq/rolodex/internal/clock"
	"github.com/rolodexhq/rolodex/internal/config"
	"github.com/rolodexhq/rolodex/internal/contact/birthday"
	"github.com/rolodexhq/rolodex/internal/contact/domain"
	"github.com/rolodexhq/rolodex/pkg/db"
)

type Params struct {
	fx.In

	Runtime *config.RuntimeConfigHolder
	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
}

type Service struct {
	runtime *config.RuntimeConfigHolder
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		runtime: p.Runtime,
		db:      p.DB,
		log:     p.Log.Named("contact.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, ownerID snowflake.ID, req domain.CreateContactRequest) (*domain.Contact, error) {
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	if first == "" || last == "" {
		return nil, domain.ErrInvalidName
	}
	addr := strings.ToLower(strings.TrimSpace(req.Email))
	if addr == "" || !strings.Contains(addr, "@") {
		return nil, domain.ErrInvalidEmail
	}

	now := s.clock.Now()
	contact := &domain.Contact{
		ID:        s.genID.Generate(),
		UserID:    ownerID,
		FirstName: first,
		LastName:  last,
		Email:     addr,
		Phone:     strings.TrimSpace(req.Phone),
		Birthday:  req.Birthday,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, contact)
	})
	if err != nil {
		// Contact emails are unique across all owners, not per owner.
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	return contact, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id snowflake.ID) (*domain.Contact, error) {
	contact, err := s.repo.FindByID(ctx, s.db, ownerID, id)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		// Foreign-owned contacts look identical to absent ones.
		return nil, domain.ErrNotFound
	}
	return contact, nil
}

func (s *Service) List(ctx context.Context, ownerID snowflake.ID, req domain.ListContactsRequest) (domain.ListContactsResponse, error) {
	runtime := s.runtime.Current()
	page := req.Page.Clamp(runtime.ContactsDefaultLimit, runtime.ContactsMaxLimit)

	items, total, err := s.repo.List(ctx, s.db, ownerID, req.Filter, page)
	if err != nil {
		return domain.ListContactsResponse{}, err
	}
	return domain.ListContactsResponse{Items: items, Total: total}, nil
}

func (s *Service) Replace(ctx context.Context, ownerID, id snowflake.ID, req domain.CreateContactRequest) (*domain.Contact, error) {
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	if first == "" || last == "" {
		return nil, domain.ErrInvalidName
	}
	addr := strings.ToLower(strings.TrimSpace(req.Email))
	if addr == "" || !strings.Contains(addr, "@") {
		return nil, domain.ErrInvalidEmail
	}

	contact, err := s.repo.FindByID(ctx, s.db, ownerID, id)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, domain.ErrNotFound
	}

	contact.FirstName = first
	contact.LastName = last
	contact.Email = addr
	contact.Phone = strings.TrimSpace(req.Phone)
	contact.Birthday = req.Birthday
	contact.Notes = req.Notes
	contact.UpdatedAt = s.clock.Now()

	if err := s.save(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *Service) Update(ctx context.Context, ownerID, id snowflake.ID, req domain.UpdateContactRequest) (*domain.Contact, error) {
	contact, err := s.repo.FindByID(ctx, s.db, ownerID, id)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, domain.ErrNotFound
	}

	if req.FirstName != nil {
		first := strings.TrimSpace(*req.FirstName)
		if first == "" {
			return nil, domain.ErrInvalidName
		}
		contact.FirstName = first
	}
	if req.LastName != nil {
		last := strings.TrimSpace(*req.LastName)
		if last == "" {
			return nil, domain.ErrInvalidName
		}
		contact.LastName = last
	}
	if req.Email != nil {
		addr := strings.ToLower(strings.TrimSpace(*req.Email))
		if addr == "" || !strings.Contains(addr, "@") {
			return nil, domain.ErrInvalidEmail
		}
		contact.Email = addr
	}
	if req.Phone != nil {
		contact.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Birthday != nil {
		contact.Birthday = *req.Birthday
	}
	if req.Notes != nil {
		contact.Notes = *req.Notes
	}
	contact.UpdatedAt = s.clock.Now()

	if err := s.save(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id snowflake.ID) error {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		deleted, err = s.repo.Delete(ctx, tx, ownerID, id)
		return err
	})
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) UpcomingBirthdays(ctx context.Context, ownerID snowflake.ID, days int) ([]domain.UpcomingBirthday, error) {
	all, err := s.repo.ListAll(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}

	contacts := all[:0:0]
	for _, c := range all {
		if !c.Birthday.IsZero() {
			contacts = append(contacts, c)
		}
	}

	projected := birthday.Upcoming(contacts, func(c *domain.Contact) time.Time {
		return c.Birthday
	}, s.clock.Now(), days)

	out := make([]domain.UpcomingBirthday, 0, len(projected))
	for _, p := range projected {
		out = append(out, domain.UpcomingBirthday{Contact: p.Item, Next: p.Next})
	}
	return out, nil
}

func (s *Service) save(ctx context.Context, contact *domain.Contact) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Save(ctx, tx, contact)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}
