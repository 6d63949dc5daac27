package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents where a task sits in the approval workflow
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskSubmitted  TaskStatus = "submitted"
	TaskApproved   TaskStatus = "approved"
	TaskRejected   TaskStatus = "rejected"
)

// Task is a manager-assigned unit of work that moves through an approval
// workflow: pending/in_progress -> submitted -> approved|rejected.
type Task struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty" db:"category_id"`
	CreatorID   uuid.UUID  `json:"creator_id" db:"creator_id"`
	AssigneeID  uuid.UUID  `json:"assignee_id" db:"assignee_id"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	Status      TaskStatus `json:"status" db:"status"`
	ReviewNote  string     `json:"review_note" db:"review_note"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty" db:"submitted_at"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
