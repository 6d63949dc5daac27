package models

import (
	"time"

	"github.com/google/uuid"
)

// Department groups work roles and categories under a short uppercase code
// (e.g. "ENG", "QA") used as the prefix of generated category codes.
type Department struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code" db:"code"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ActivityCategory is a hierarchical classification node. ParentID forms a
// tree over the flat table; cycles are rejected at write time. Code is
// globally unique and never regenerated once assigned.
type ActivityCategory struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	ParentID     *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty" db:"department_id"`
	Code         string     `json:"code" db:"code"`
	Name         string     `json:"name" db:"name"`

	// StandardTime is a budgeted duration in minutes used for reporting
	// comparisons only; the lifecycle never enforces it.
	StandardTime *float64 `json:"standard_time,omitempty" db:"standard_time"`

	Definition        string `json:"definition" db:"definition"`
	ReferenceProtocol string `json:"reference_protocol" db:"reference_protocol"`
	Objective         string `json:"objective" db:"objective"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// WorkRole is an access-control grouping that gates which categories its
// members may log activities against.
type WorkRole struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty" db:"department_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
