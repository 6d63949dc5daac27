package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"worklog/internal/errors"
	"worklog/models"
	"worklog/ports"

	"github.com/google/uuid"
)

// CreateTaskInput carries the fields accepted when creating a task.
type CreateTaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CategoryID  *uuid.UUID `json:"category_id"`
	AssigneeID  uuid.UUID  `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
}

// TaskService runs the task approval workflow. Assignees move a task through
// pending, in_progress and submitted; the creator (or an admin) approves or
// rejects it.
type TaskService struct {
	tasks      ports.TaskRepository
	users      ports.UserRepository
	categories ports.CategoryRepository
	clock      ports.Clock
}

// NewTaskService creates a task service
func NewTaskService(tasks ports.TaskRepository, users ports.UserRepository, categories ports.CategoryRepository, clock ports.Clock) *TaskService {
	return &TaskService{
		tasks:      tasks,
		users:      users,
		categories: categories,
		clock:      clock,
	}
}

// Create inserts a new pending task assigned by the actor
func (s *TaskService) Create(ctx context.Context, actor *models.User, input CreateTaskInput) (*models.Task, error) {
	if actor == nil {
		return nil, errors.Unauthorized("no acting user")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.InvalidInput("task title is required")
	}
	if input.AssigneeID == uuid.Nil {
		return nil, errors.InvalidInput("assignee is required")
	}
	if _, err := s.users.GetByID(ctx, input.AssigneeID); err != nil {
		return nil, errors.Wrap(err, "resolving assignee")
	}
	if input.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *input.CategoryID); err != nil {
			return nil, errors.Wrap(err, "resolving category")
		}
	}

	task := &models.Task{
		ID:          uuid.New(),
		Title:       title,
		Description: input.Description,
		CategoryID:  input.CategoryID,
		CreatorID:   actor.ID,
		AssigneeID:  input.AssigneeID,
		DueDate:     input.DueDate,
		Status:      models.TaskPending,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Begin moves a pending task to in_progress. Only the assignee can begin.
func (s *TaskService) Begin(ctx context.Context, actor *models.User, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.loadForAssignee(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskPending {
		return nil, errors.PreconditionFailed(fmt.Sprintf("cannot begin a %s task", task.Status))
	}
	task.Status = models.TaskInProgress
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Submit hands a pending or in-progress task to the creator for review. Only
// the assignee can submit.
func (s *TaskService) Submit(ctx context.Context, actor *models.User, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.loadForAssignee(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskPending && task.Status != models.TaskInProgress {
		return nil, errors.PreconditionFailed(fmt.Sprintf("cannot submit a %s task", task.Status))
	}
	now := s.clock.Now()
	task.Status = models.TaskSubmitted
	task.SubmittedAt = &now
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Approve accepts a submitted task. Only the creator or an admin can review.
func (s *TaskService) Approve(ctx context.Context, actor *models.User, taskID uuid.UUID, note string) (*models.Task, error) {
	return s.review(ctx, actor, taskID, models.TaskApproved, note)
}

// Reject returns a submitted task with a review note. Only the creator or an
// admin can review.
func (s *TaskService) Reject(ctx context.Context, actor *models.User, taskID uuid.UUID, note string) (*models.Task, error) {
	return s.review(ctx, actor, taskID, models.TaskRejected, note)
}

// Get retrieves a task visible to the actor
func (s *TaskService) Get(ctx context.Context, actor *models.User, taskID uuid.UUID) (*models.Task, error) {
	if actor == nil {
		return nil, errors.Unauthorized("no acting user")
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && actor.ID != task.CreatorID && actor.ID != task.AssigneeID {
		return nil, errors.Unauthorized("task belongs to another user")
	}
	return task, nil
}

// ListAssigned returns the actor's assigned tasks, optionally filtered by status
func (s *TaskService) ListAssigned(ctx context.Context, actor *models.User, status models.TaskStatus) ([]*models.Task, error) {
	if actor == nil {
		return nil, errors.Unauthorized("no acting user")
	}
	if status != "" {
		switch status {
		case models.TaskPending, models.TaskInProgress, models.TaskSubmitted, models.TaskApproved, models.TaskRejected:
		default:
			return nil, errors.InvalidInput(fmt.Sprintf("unknown task status %q", status))
		}
	}
	return s.tasks.ListByAssignee(ctx, actor.ID, status)
}

// ListCreated returns the tasks the actor has assigned to others
func (s *TaskService) ListCreated(ctx context.Context, actor *models.User) ([]*models.Task, error) {
	if actor == nil {
		return nil, errors.Unauthorized("no acting user")
	}
	return s.tasks.ListByCreator(ctx, actor.ID)
}

func (s *TaskService) loadForAssignee(ctx context.Context, actor *models.User, taskID uuid.UUID) (*models.Task, error) {
	if actor == nil {
		return nil, errors.Unauthorized("no acting user")
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if actor.ID != task.AssigneeID {
		return nil, errors.Unauthorized("task is assigned to another user")
	}
	return task, nil
}

func (s *TaskService) review(ctx context.Context, actor *models.User, taskID uuid.UUID, verdict models.TaskStatus, note string) (*models.Task, error) {
	if actor == nil {
		return nil, errors.Unauthorized("no acting user")
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && actor.ID != task.CreatorID {
		return nil, errors.Unauthorized("only the task creator can review it")
	}
	if task.Status != models.TaskSubmitted {
		return nil, errors.PreconditionFailed(fmt.Sprintf("cannot review a %s task", task.Status))
	}
	now := s.clock.Now()
	task.Status = verdict
	task.ReviewNote = strings.TrimSpace(note)
	task.ReviewedAt = &now
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}
