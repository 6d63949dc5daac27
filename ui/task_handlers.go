package ui

import (
	"net/http"

	"worklog/app"
	"worklog/models"
	"worklog/ui/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) handleCreateTask(c *gin.Context) {
	var input app.CreateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := s.tasks.Create(c.Request.Context(), middleware.Actor(c), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) handleAssignedTasks(c *gin.Context) {
	tasks, err := s.tasks.ListAssigned(c.Request.Context(), middleware.Actor(c), models.TaskStatus(c.Query("status")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (s *Server) handleCreatedTasks(c *gin.Context) {
	tasks, err := s.tasks.ListCreated(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (s *Server) handleTaskDetail(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	task, err := s.tasks.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleBeginTask(c *gin.Context) {
	s.taskTransition(c, func(actor *models.User, id uuid.UUID) (*models.Task, error) {
		return s.tasks.Begin(c.Request.Context(), actor, id)
	})
}

func (s *Server) handleSubmitTask(c *gin.Context) {
	s.taskTransition(c, func(actor *models.User, id uuid.UUID) (*models.Task, error) {
		return s.tasks.Submit(c.Request.Context(), actor, id)
	})
}

func (s *Server) handleApproveTask(c *gin.Context) {
	note, ok := reviewNote(c)
	if !ok {
		return
	}
	s.taskTransition(c, func(actor *models.User, id uuid.UUID) (*models.Task, error) {
		return s.tasks.Approve(c.Request.Context(), actor, id, note)
	})
}

func (s *Server) handleRejectTask(c *gin.Context) {
	note, ok := reviewNote(c)
	if !ok {
		return
	}
	s.taskTransition(c, func(actor *models.User, id uuid.UUID) (*models.Task, error) {
		return s.tasks.Reject(c.Request.Context(), actor, id, note)
	})
}

func (s *Server) taskTransition(c *gin.Context, fn func(*models.User, uuid.UUID) (*models.Task, error)) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	task, err := fn(middleware.Actor(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// reviewNote reads the optional review note body of an approve/reject call.
func reviewNote(c *gin.Context) (string, bool) {
	if c.Request.ContentLength == 0 {
		return "", true
	}
	var body struct {
		Note string `json:"note"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return body.Note, true
}
