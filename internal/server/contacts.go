package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	contactdomain "github.com/rolodexhq/rolodex/internal/contact/domain"
	"github.com/rolodexhq/rolodex/pkg/db/pagination"
)

const dateLayout = "2006-01-02"

type ContactRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Birthday  string `json:"birthday"`
	Notes     string `json:"notes"`
}

type ContactPatchRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Birthday  *string `json:"birthday"`
	Notes     *string `json:"notes"`
}

type listContactsQuery struct {
	Query     string `form:"q"`
	FirstName string `form:"first_name"`
	LastName  string `form:"last_name"`
	Email     string `form:"email"`
	pagination.Pagination
}

func (s *Server) CreateContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	birthday, err := parseBirthday(req.Birthday)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	created, err := s.contactsvc.Create(c.Request.Context(), CurrentUser(c).ID, contactdomain.CreateContactRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Birthday:  birthday,
		Notes:     req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) GetContact(c *gin.Context) {
	id, ok := contactID(c)
	if !ok {
		return
	}

	contact, err := s.contactsvc.Get(c.Request.Context(), CurrentUser(c).ID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (s *Server) ListContacts(c *gin.Context) {
	var query listContactsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	res, err := s.contactsvc.List(c.Request.Context(), CurrentUser(c).ID, contactdomain.ListContactsRequest{
		Filter: contactdomain.ListFilter{
			Query:     query.Query,
			FirstName: query.FirstName,
			LastName:  query.LastName,
			Email:     query.Email,
		},
		Page: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items := res.Items
	if items == nil {
		items = []*contactdomain.Contact{}
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": res.Total,
	})
}

func (s *Server) ReplaceContact(c *gin.Context) {
	id, ok := contactID(c)
	if !ok {
		return
	}

	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	birthday, err := parseBirthday(req.Birthday)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	updated, err := s.contactsvc.Replace(c.Request.Context(), CurrentUser(c).ID, id, contactdomain.CreateContactRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Birthday:  birthday,
		Notes:     req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) UpdateContact(c *gin.Context) {
	id, ok := contactID(c)
	if !ok {
		return
	}

	var req ContactPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	patch := contactdomain.UpdateContactRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Notes:     req.Notes,
	}
	if req.Birthday != nil {
		birthday, err := parseBirthday(*req.Birthday)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		patch.Birthday = &birthday
	}

	updated, err := s.contactsvc.Update(c.Request.Context(), CurrentUser(c).ID, id, patch)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) DeleteContact(c *gin.Context) {
	id, ok := contactID(c)
	if !ok {
		return
	}

	if err := s.contactsvc.Delete(c.Request.Context(), CurrentUser(c).ID, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contact deleted successfully"})
}

func (s *Server) UpcomingBirthdays(c *gin.Context) {
	days := s.runtime.Current().BirthdayWindowDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			AbortWithError(c, newValidationError("days", "out_of_range", "days must be between 1 and 365"))
			return
		}
		days = parsed
	}

	upcoming, err := s.contactsvc.UpcomingBirthdays(c.Request.Context(), CurrentUser(c).ID, days)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	type entry struct {
		*contactdomain.Contact
		NextBirthday string `json:"next_birthday"`
	}
	items := make([]entry, 0, len(upcoming))
	for _, u := range upcoming {
		items = append(items, entry{
			Contact:      u.Contact,
			NextBirthday: u.Next.Format(dateLayout),
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func contactID(c *gin.Context) (snowflake.ID, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return 0, false
	}
	return snowflake.ID(id), true
}

func parseBirthday(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, newValidationError("birthday", "invalid_date", "birthday must be formatted YYYY-MM-DD")
	}
	return parsed, nil
}
