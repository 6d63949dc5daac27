package ui

import (
	"net/http"

	"worklog/app"
	"worklog/models"
	"worklog/ui/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type createActivityRequest struct {
	CategoryID  uuid.UUID  `json:"category_id" binding:"required"`
	Description string     `json:"description"`
	UserID      *uuid.UUID `json:"user_id"`
}

func (s *Server) handleCreateActivity(c *gin.Context) {
	actor := middleware.Actor(c)

	var req createActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Admins may log on behalf of another user; everyone else logs for
	// themselves.
	owner := actor.ID
	if req.UserID != nil {
		owner = *req.UserID
	}

	activity, err := s.activities.Create(c.Request.Context(), actor, app.CreateActivityRequest{
		UserID:      owner,
		CategoryID:  req.CategoryID,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, activity)
}

func (s *Server) handleListActivities(c *gin.Context) {
	actor := middleware.Actor(c)

	owner := actor.ID
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be a UUID"})
			return
		}
		owner = id
	}

	activities, err := s.activities.List(c.Request.Context(), actor, owner, models.ActivityStatus(c.Query("status")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

func (s *Server) handleActivityDetail(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	detail, err := s.activities.Detail(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) handleStartActivity(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	activity, err := s.activities.Start(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}

// handleStartExclusive is the timer-button semantics: starting here pauses
// everything else the user has running.
func (s *Server) handleStartExclusive(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	activity, err := s.activities.StartExclusive(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}

func (s *Server) handlePauseActivity(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	activity, err := s.activities.Pause(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}

func (s *Server) handleCompleteActivity(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	activity, err := s.activities.Complete(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}
