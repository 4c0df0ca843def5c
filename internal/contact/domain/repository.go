package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/rolodexhq/rolodex/pkg/db/pagination"
)

// ListFilter narrows a contact listing. Query is an OR-match across first
// name, last name and email; the field filters combine with AND. All matches
// are case-insensitive substring matches.
type ListFilter struct {
	Query     string
	FirstName string
	LastName  string
	Email     string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, contact *Contact) error
	FindByID(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (*Contact, error)
	List(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, filter ListFilter, page pagination.Pagination) ([]*Contact, int64, error)
	ListAll(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]*Contact, error)
	Save(ctx context.Context, db *gorm.DB, contact *Contact) error
	Delete(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (bool, error)
}
