package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	userdomain "github.com/rolodexhq/rolodex/internal/user/domain"
)

const maxAvatarBytes = 5 << 20 // 5 MB

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

func (s *Server) Me(c *gin.Context) {
	c.JSON(http.StatusOK, CurrentUser(c))
}

func (s *Server) UpdateAvatar(c *gin.Context) {
	principal := CurrentUser(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "missing_file", "avatar file is required"))
		return
	}
	defer file.Close()

	if header.Size > maxAvatarBytes {
		AbortWithError(c, newValidationError("file", "too_large", "avatar must be at most 5 MB"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		AbortWithError(c, newValidationError("file", "unsupported_type", "avatar must be an image"))
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		AbortWithError(c, ErrInternal)
		return
	}
	if len(content) > maxAvatarBytes {
		AbortWithError(c, newValidationError("file", "too_large", "avatar must be at most 5 MB"))
		return
	}

	updated, err := s.usersvc.UpdateAvatar(c.Request.Context(), principal, content, contentType)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) UpdateRole(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.usersvc.UpdateRole(c.Request.Context(), snowflake.ID(id), userdomain.Role(req.Role))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
