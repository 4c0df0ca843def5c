package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/rolodexhq/rolodex/pkg/db/pagination"
)

var (
	ErrEmailTaken   = errors.New("contact email already in use")
	ErrNotFound     = errors.New("contact not found")
	ErrInvalidName  = errors.New("first and last name are required")
	ErrInvalidEmail = errors.New("invalid contact email")
)

type CreateContactRequest struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Birthday  time.Time
	Notes     string
}

// UpdateContactRequest carries a partial update; nil fields stay untouched.
type UpdateContactRequest struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Birthday  *time.Time
	Notes     *string
}

type ListContactsRequest struct {
	Filter ListFilter
	Page   pagination.Pagination
}

type ListContactsResponse struct {
	Items []*Contact
	Total int64
}

// UpcomingBirthday pairs a contact with its next birthday occurrence.
type UpcomingBirthday struct {
	Contact *Contact
	Next    time.Time
}

type Service interface {
	Create(ctx context.Context, ownerID snowflake.ID, req CreateContactRequest) (*Contact, error)
	Get(ctx context.Context, ownerID, id snowflake.ID) (*Contact, error)
	List(ctx context.Context, ownerID snowflake.ID, req ListContactsRequest) (ListContactsResponse, error)
	Replace(ctx context.Context, ownerID, id snowflake.ID, req CreateContactRequest) (*Contact, error)
	Update(ctx context.Context, ownerID, id snowflake.ID, req UpdateContactRequest) (*Contact, error)
	Delete(ctx context.Context, ownerID, id snowflake.ID) error
	UpcomingBirthdays(ctx context.Context, ownerID snowflake.ID, days int) ([]UpcomingBirthday, error)
}
