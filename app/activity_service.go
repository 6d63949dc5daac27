package app

import (
	"context"
	"time"

	"worklog/domain/timing"
	"worklog/internal/errors"
	"worklog/models"
	"worklog/ports"

	"github.com/google/uuid"
)

// ActivityService drives the activity lifecycle state machine. Every
// transition runs inside a transaction holding a row lock on the activity, so
// two concurrent pause/complete calls cannot both close the same session.
type ActivityService struct {
	activities ports.ActivityRepository
	sessions   ports.SessionRepository
	categories ports.CategoryRepository
	roles      ports.WorkRoleRepository
	tx         ports.Transactor
	clock      ports.Clock
}

// NewActivityService creates an activity lifecycle service
func NewActivityService(
	activities ports.ActivityRepository,
	sessions ports.SessionRepository,
	categories ports.CategoryRepository,
	roles ports.WorkRoleRepository,
	tx ports.Transactor,
	clock ports.Clock,
) *ActivityService {
	return &ActivityService{
		activities: activities,
		sessions:   sessions,
		categories: categories,
		roles:      roles,
		tx:         tx,
		clock:      clock,
	}
}

// CreateActivityRequest defines inputs for starting a new tracked activity
type CreateActivityRequest struct {
	UserID      uuid.UUID
	CategoryID  uuid.UUID
	Description string
}

// ActivityDetail is the read view of an activity: its sessions plus a live
// duration recomputed at read time (an open session is never served from the
// stored total).
type ActivityDetail struct {
	Activity            *models.Activity          `json:"activity"`
	Sessions            []*models.ActivitySession `json:"sessions"`
	LiveDurationMinutes float64                   `json:"live_duration_minutes"`
	LiveDurationDisplay string                    `json:"live_duration_display"`
}

// Create begins tracking a new activity. There is no not-started state: the
// activity is created in started with an open session.
func (s *ActivityService) Create(ctx context.Context, actor *models.User, req CreateActivityRequest) (*models.Activity, error) {
	if !actor.CanManage(req.UserID) {
		return nil, errors.Unauthorized("only the owner or an admin may create this activity")
	}

	if _, err := s.categories.GetByID(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	// Non-admins may only log against categories assigned to one of their
	// work roles.
	if !actor.IsAdmin {
		allowed, err := s.roles.UserHasCategory(ctx, req.UserID, req.CategoryID)
		if err != nil {
			return nil, errors.Wrap(err, "category access check failed")
		}
		if !allowed {
			return nil, errors.Unauthorized("category is not assigned to any of your work roles")
		}
	}

	now := s.clock.Now()
	activity := &models.Activity{
		ID:          uuid.New(),
		UserID:      req.UserID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Status:      models.ActivityStarted,
		StartedAt:   &now,
		Count:       1,
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.activities.Create(ctx, activity); err != nil {
			return err
		}
		return s.openSession(ctx, activity.ID, now)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create activity")
	}

	return activity, nil
}

// Start resumes a paused activity, opening a fresh session. Starting an
// activity that is already started with an open session is a no-op: a second
// open session would corrupt the duration math. Completed activities cannot
// be restarted.
func (s *ActivityService) Start(ctx context.Context, actor *models.User, activityID uuid.UUID) (*models.Activity, error) {
	var activity *models.Activity
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.activities.GetByIDForUpdate(ctx, activityID)
		if err != nil {
			return err
		}
		if !actor.CanManage(a.UserID) {
			return errors.Unauthorized("only the owner or an admin may start this activity")
		}
		if err := s.startLocked(ctx, a); err != nil {
			return err
		}
		activity = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activity, nil
}

// Pause closes the open session, folds it into the total duration and parks
// the activity.
func (s *ActivityService) Pause(ctx context.Context, actor *models.User, activityID uuid.UUID) (*models.Activity, error) {
	var activity *models.Activity
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.activities.GetByIDForUpdate(ctx, activityID)
		if err != nil {
			return err
		}
		if !actor.CanManage(a.UserID) {
			return errors.Unauthorized("only the owner or an admin may pause this activity")
		}
		if err := s.pauseLocked(ctx, a); err != nil {
			return err
		}
		activity = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activity, nil
}

// Complete closes the open session when one is running, recomputes the total
// duration and moves the activity to its terminal state.
func (s *ActivityService) Complete(ctx context.Context, actor *models.User, activityID uuid.UUID) (*models.Activity, error) {
	var activity *models.Activity
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.activities.GetByIDForUpdate(ctx, activityID)
		if err != nil {
			return err
		}
		if !actor.CanManage(a.UserID) {
			return errors.Unauthorized("only the owner or an admin may complete this activity")
		}

		if a.Status == models.ActivityCompleted {
			return errors.PreconditionFailed("activity is already completed")
		}

		now := s.clock.Now()
		if a.Status == models.ActivityStarted {
			open, err := s.sessions.FindOpenByActivity(ctx, a.ID)
			if err != nil {
				return err
			}
			if open == nil {
				return errors.PreconditionFailed("started activity has no open session")
			}
			if err := s.closeSession(ctx, open, now); err != nil {
				return err
			}
		}

		if err := s.recomputeTotalLocked(ctx, a, now); err != nil {
			return err
		}
		a.Status = models.ActivityCompleted
		a.EndedAt = &now
		if err := s.activities.Update(ctx, a); err != nil {
			return err
		}
		activity = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activity, nil
}

// StartExclusive pauses every other started activity of the same user, then
// starts this one, all in a single transaction. Afterwards at most one
// activity per user is running. The user's started rows are locked in id
// order so two racing exclusive starts serialize instead of deadlocking.
func (s *ActivityService) StartExclusive(ctx context.Context, actor *models.User, activityID uuid.UUID) (*models.Activity, error) {
	// The owner never changes, so an unlocked read is safe here; locks are
	// taken inside the transaction below.
	probe, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(probe.UserID) {
		return nil, errors.Unauthorized("only the owner or an admin may start this activity")
	}

	var activity *models.Activity
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		started, err := s.activities.ListStartedByUserForUpdate(ctx, probe.UserID)
		if err != nil {
			return err
		}
		for _, other := range started {
			if other.ID == activityID {
				continue
			}
			if err := s.pauseLocked(ctx, other); err != nil {
				return err
			}
		}

		a, err := s.activities.GetByIDForUpdate(ctx, activityID)
		if err != nil {
			return err
		}
		if err := s.startLocked(ctx, a); err != nil {
			return err
		}
		activity = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activity, nil
}

// RecalculateAllDurations re-derives every closed session's duration from its
// stored timestamps, then recomputes the activity total. This is the manual
// repair path for data anomalies, not part of the normal flow.
func (s *ActivityService) RecalculateAllDurations(ctx context.Context, actor *models.User, activityID uuid.UUID) (*models.Activity, error) {
	var activity *models.Activity
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.activities.GetByIDForUpdate(ctx, activityID)
		if err != nil {
			return err
		}
		if !actor.CanManage(a.UserID) {
			return errors.Unauthorized("only the owner or an admin may recalculate this activity")
		}

		sessions, err := s.sessions.ListByActivity(ctx, a.ID)
		if err != nil {
			return err
		}
		for _, sess := range sessions {
			if sess.EndedAt == nil {
				continue
			}
			elapsed := timing.ElapsedMinutes(sess.StartedAt, *sess.EndedAt)
			if elapsed < 0 {
				return errors.Invariant("stored session ends before it starts")
			}
			d := timing.Round2(elapsed)
			sess.DurationMinutes = &d
			if err := s.sessions.Update(ctx, sess); err != nil {
				return err
			}
		}

		if err := s.recomputeTotalLocked(ctx, a, s.clock.Now()); err != nil {
			return err
		}
		if err := s.activities.Update(ctx, a); err != nil {
			return err
		}
		activity = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activity, nil
}

// Detail returns the activity with its sessions and a live duration computed
// at read time.
func (s *ActivityService) Detail(ctx context.Context, actor *models.User, activityID uuid.UUID) (*ActivityDetail, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(activity.UserID) {
		return nil, errors.Unauthorized("only the owner or an admin may view this activity")
	}

	sessions, err := s.sessions.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var total float64
	for _, sess := range sessions {
		if sess.EndedAt != nil {
			if sess.DurationMinutes != nil {
				total += *sess.DurationMinutes
			}
		} else {
			total += timing.ElapsedMinutes(sess.StartedAt, now)
		}
	}
	if total < 0 {
		total = 0
	}
	live := timing.Round2(total)

	return &ActivityDetail{
		Activity:            activity,
		Sessions:            sessions,
		LiveDurationMinutes: live,
		LiveDurationDisplay: timing.FormatMinutes(live),
	}, nil
}

// List returns the user's activities, optionally filtered by status
func (s *ActivityService) List(ctx context.Context, actor *models.User, userID uuid.UUID, status models.ActivityStatus) ([]*models.Activity, error) {
	if !actor.CanManage(userID) {
		return nil, errors.Unauthorized("only the owner or an admin may list these activities")
	}
	if status != "" && !status.Valid() {
		return nil, errors.InvalidInput("unknown activity status filter")
	}
	return s.activities.ListByUser(ctx, userID, status)
}

// startLocked performs the start transition on a locked activity row.
func (s *ActivityService) startLocked(ctx context.Context, a *models.Activity) error {
	if a.Status == models.ActivityCompleted {
		return errors.PreconditionFailed("completed activity cannot be restarted")
	}

	open, err := s.sessions.FindOpenByActivity(ctx, a.ID)
	if err != nil {
		return err
	}
	if a.Status == models.ActivityStarted && open != nil {
		// Already running; restarting is a no-op.
		return nil
	}

	now := s.clock.Now()
	a.Status = models.ActivityStarted
	a.StartedAt = &now
	a.EndedAt = nil
	if err := s.openSession(ctx, a.ID, now); err != nil {
		return err
	}
	return s.activities.Update(ctx, a)
}

// pauseLocked performs the pause transition on a locked activity row.
func (s *ActivityService) pauseLocked(ctx context.Context, a *models.Activity) error {
	if a.Status != models.ActivityStarted {
		return errors.PreconditionFailed("activity is not started")
	}

	open, err := s.sessions.FindOpenByActivity(ctx, a.ID)
	if err != nil {
		return err
	}
	if open == nil {
		return errors.PreconditionFailed("started activity has no open session")
	}

	now := s.clock.Now()
	if err := s.closeSession(ctx, open, now); err != nil {
		return err
	}
	if err := s.recomputeTotalLocked(ctx, a, now); err != nil {
		return err
	}
	a.Status = models.ActivityPaused
	a.EndedAt = &now
	return s.activities.Update(ctx, a)
}

// closeSession finalizes one session: ended_at set, duration derived from the
// stored start and rounded to two decimals.
func (s *ActivityService) closeSession(ctx context.Context, sess *models.ActivitySession, endedAt time.Time) error {
	if sess.StartedAt.IsZero() {
		return errors.PreconditionFailed("session has no start time")
	}
	elapsed := timing.ElapsedMinutes(sess.StartedAt, endedAt)
	if elapsed < 0 {
		return errors.Invariant("session would end before it started")
	}
	d := timing.Round2(elapsed)
	sess.EndedAt = &endedAt
	sess.DurationMinutes = &d
	return s.sessions.Update(ctx, sess)
}

// recomputeTotalLocked sets the activity's total duration to the sum of
// closed session durations plus the live elapsed time of an open session,
// clamped at zero and rounded to two decimals. The caller persists.
func (s *ActivityService) recomputeTotalLocked(ctx context.Context, a *models.Activity, now time.Time) error {
	total, err := s.sessions.SumClosedDurations(ctx, a.ID)
	if err != nil {
		return err
	}
	open, err := s.sessions.FindOpenByActivity(ctx, a.ID)
	if err != nil {
		return err
	}
	if open != nil {
		total += timing.ElapsedMinutes(open.StartedAt, now)
	}
	if total < 0 {
		total = 0
	}
	a.DurationMinutes = timing.Round2(total)
	return nil
}

func (s *ActivityService) openSession(ctx context.Context, activityID uuid.UUID, startedAt time.Time) error {
	return s.sessions.Create(ctx, &models.ActivitySession{
		ID:         uuid.New(),
		ActivityID: activityID,
		StartedAt:  startedAt,
	})
}
