package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityStatus represents the lifecycle state of an activity timer
type ActivityStatus string

const (
	ActivityStarted   ActivityStatus = "started"
	ActivityPaused    ActivityStatus = "paused"
	ActivityCompleted ActivityStatus = "completed"
)

// Valid reports whether the status is one of the known lifecycle states
func (s ActivityStatus) Valid() bool {
	switch s {
	case ActivityStarted, ActivityPaused, ActivityCompleted:
		return true
	}
	return false
}

// Activity represents one unit of tracked work owned by a user
type Activity struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	UserID      uuid.UUID      `json:"user_id" db:"user_id"`
	CategoryID  uuid.UUID      `json:"category_id" db:"category_id"`
	Description string         `json:"description" db:"description"`
	Status      ActivityStatus `json:"status" db:"status"`
	StartedAt   *time.Time     `json:"started_at,omitempty" db:"started_at"`
	EndedAt     *time.Time     `json:"ended_at,omitempty" db:"ended_at"`

	// DurationMinutes is the sum of closed session durations as of the last
	// recomputation. An open session is only folded in when a recomputation
	// runs; reads that need a live figure recompute instead of trusting this.
	DurationMinutes float64 `json:"duration_minutes" db:"duration_minutes"`

	Count     int       `json:"count" db:"count"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ActivitySession is one contiguous interval of active work under an activity.
// DurationMinutes stays nil until the session is closed.
type ActivitySession struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	ActivityID      uuid.UUID  `json:"activity_id" db:"activity_id"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	DurationMinutes *float64   `json:"duration_minutes,omitempty" db:"duration_minutes"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// Open reports whether the session has not been closed yet
func (s *ActivitySession) Open() bool {
	return s.EndedAt == nil
}
