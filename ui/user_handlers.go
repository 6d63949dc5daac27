package ui

import (
	"net/http"

	apperrors "worklog/internal/errors"
	"worklog/models"
	"worklog/ui/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) handleCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Actor(c))
}

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.users.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (s *Server) handleCreateUser(c *gin.Context) {
	actor := middleware.Actor(c)
	if actor == nil || !actor.IsAdmin {
		writeError(c, apperrors.Unauthorized("only administrators can create users"))
		return
	}

	var input struct {
		Email    string `json:"email" binding:"required"`
		Username string `json:"username" binding:"required"`
		IsAdmin  bool   `json:"is_admin"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := &models.User{
		ID:       uuid.New(),
		Email:    input.Email,
		Username: input.Username,
		IsAdmin:  input.IsAdmin,
		IsActive: true,
	}
	if err := s.users.Create(c.Request.Context(), user); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}
