package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/rolodexhq/rolodex/internal/contact/domain"
	"github.com/rolodexhq/rolodex/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, contact *domain.Contact) error {
	return db.WithContext(ctx).Create(contact).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (*domain.Contact, error) {
	var contact domain.Contact
	err := db.WithContext(ctx).
		Where("user_id = ? AND id = ?", ownerID, id).
		First(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Contact, int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("user_id = ?", ownerID)

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := contains(q)
		stmt = stmt.Where(
			"lower(first_name) LIKE ? OR lower(last_name) LIKE ? OR lower(email) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.FirstName != "" {
		stmt = stmt.Where("lower(first_name) LIKE ?", contains(filter.FirstName))
	}
	if filter.LastName != "" {
		stmt = stmt.Where("lower(last_name) LIKE ?", contains(filter.LastName))
	}
	if filter.Email != "" {
		stmt = stmt.Where("lower(email) LIKE ?", contains(filter.Email))
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contacts []*domain.Contact
	err := page.Apply(stmt).
		Order("id asc").
		Find(&contacts).Error
	if err != nil {
		return nil, 0, err
	}
	return contacts, total, nil
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]*domain.Contact, error) {
	var contacts []*domain.Contact
	err := db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("id asc").
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, contact *domain.Contact) error {
	return db.WithContext(ctx).Save(contact).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).
		Where("user_id = ? AND id = ?", ownerID, id).
		Delete(&domain.Contact{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func contains(term string) string {
	return "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
}
