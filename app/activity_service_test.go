package app

import (
	"context"
	"testing"
	"time"

	apperrors "worklog/internal/errors"
	"worklog/internal/testkit"
	"worklog/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type activityFixture struct {
	clock      *testkit.Clock
	activities *testkit.ActivityRepo
	sessions   *testkit.SessionRepo
	categories *testkit.CategoryRepo
	roles      *testkit.WorkRoleRepo
	svc        *ActivityService
	admin      *models.User
	category   *models.ActivityCategory
}

func newActivityFixture(t *testing.T) *activityFixture {
	t.Helper()
	clock := testkit.NewClock()
	activities := testkit.NewActivityRepo()
	sessions := testkit.NewSessionRepo(activities)
	categories := testkit.NewCategoryRepo()
	roles := testkit.NewWorkRoleRepo()

	category := &models.ActivityCategory{ID: uuid.New(), Code: "GEN_TEST", Name: "Testing"}
	require.NoError(t, categories.Create(context.Background(), category))

	return &activityFixture{
		clock:      clock,
		activities: activities,
		sessions:   sessions,
		categories: categories,
		roles:      roles,
		svc:        NewActivityService(activities, sessions, categories, roles, testkit.NoopTx{}, clock),
		admin:      &models.User{ID: uuid.New(), Username: "admin", IsAdmin: true},
		category:   category,
	}
}

func (f *activityFixture) create(t *testing.T, owner uuid.UUID) *models.Activity {
	t.Helper()
	activity, err := f.svc.Create(context.Background(), f.admin, CreateActivityRequest{
		UserID:      owner,
		CategoryID:  f.category.ID,
		Description: "bench work",
	})
	require.NoError(t, err)
	return activity
}

func (f *activityFixture) openSessions(t *testing.T, activityID uuid.UUID) int {
	t.Helper()
	sessions, err := f.sessions.ListByActivity(context.Background(), activityID)
	require.NoError(t, err)
	open := 0
	for _, s := range sessions {
		if s.Open() {
			open++
		}
	}
	return open
}

func TestCreateStartsTimerImmediately(t *testing.T) {
	f := newActivityFixture(t)

	activity := f.create(t, f.admin.ID)

	assert.Equal(t, models.ActivityStarted, activity.Status)
	require.NotNil(t, activity.StartedAt)
	assert.Equal(t, f.clock.Now(), *activity.StartedAt)
	assert.Equal(t, 1, f.openSessions(t, activity.ID))
}

func TestCreateRequiresRoleCategoryForNonAdmins(t *testing.T) {
	f := newActivityFixture(t)
	worker := &models.User{ID: uuid.New(), Username: "worker"}

	_, err := f.svc.Create(context.Background(), worker, CreateActivityRequest{
		UserID:     worker.ID,
		CategoryID: f.category.ID,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	role := &models.WorkRole{ID: uuid.New(), Name: "Technician"}
	require.NoError(t, f.roles.Create(context.Background(), role))
	require.NoError(t, f.roles.AssignCategory(context.Background(), role.ID, f.category.ID))
	f.roles.AddMember(worker.ID, role.ID)

	_, err = f.svc.Create(context.Background(), worker, CreateActivityRequest{
		UserID:     worker.ID,
		CategoryID: f.category.ID,
	})
	require.NoError(t, err)
}

func TestPauseFoldsSessionIntoTotal(t *testing.T) {
	f := newActivityFixture(t)
	activity := f.create(t, f.admin.ID)

	f.clock.Advance(30 * time.Minute)
	paused, err := f.svc.Pause(context.Background(), f.admin, activity.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ActivityPaused, paused.Status)
	assert.InDelta(t, 30.0, paused.DurationMinutes, 1e-9)
	assert.Equal(t, 0, f.openSessions(t, activity.ID))

	sessions, err := f.sessions.ListByActivity(context.Background(), activity.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.NotNil(t, sessions[0].DurationMinutes)
	assert.InDelta(t, 30.0, *sessions[0].DurationMinutes, 1e-9)
}

func TestPauseRequiresStarted(t *testing.T) {
	f := newActivityFixture(t)
	activity := f.create(t, f.admin.ID)

	f.clock.Advance(time.Minute)
	_, err := f.svc.Pause(context.Background(), f.admin, activity.ID)
	require.NoError(t, err)

	_, err = f.svc.Pause(context.Background(), f.admin, activity.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePreconditionFailed))
}

func TestPausedGapsAreNotCounted(t *testing.T) {
	f := newActivityFixture(t)
	activity := f.create(t, f.admin.ID)

	f.clock.Advance(10 * time.Minute)
	_, err := f.svc.Pause(context.Background(), f.admin, activity.ID)
	require.NoError(t, err)

	// Idle time while paused must not contribute to the total.
	f.clock.Advance(5 * time.Minute)
	_, err = f.svc.Start(context.Background(), f.admin, activity.ID)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	paused, err := f.svc.Pause(context.Background(), f.admin, activity.ID)
	require.NoError(t, err)

	assert.InDelta(t, 20.0, paused.DurationMinutes, 1e-9)
}

func TestStartOnRunningActivityIsNoOp(t *testing.T) {
	f := newActivityFixture(t)
	activity := f.create(t, f.admin.ID)

	f.clock.Advance(time.Minute)
	restarted, err := f.svc.Start(context.Background(), f.admin, activity.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ActivityStarted, restarted.Status)
	assert.Equal(t, 1, f.openSessions(t, activity.ID))
}

func TestCompleteClosesOpenSession(t *testing.T) {
	f := newActivityFixture(t)
	activity := f.create(t, f.admin.ID)

	f.clock.Advance(15 * time.Minute)
	completed, err := f.svc.Complete(context.Background(), f.admin, activity.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ActivityCompleted, completed.Status)
	assert.InDelta(t, 15.0, completed.DurationMinutes, 1e-9)
	require.NotNil(t, completed.EndedAt)
	assert.Equal(t, f.clock.Now(), *completed.EndedAt)
	assert.Equal(t, 0, f.openSessions(t, activity.ID))
}

func TestCompletedActivityIsTerminal(t *testing.T) {
	f := newActivityFixture(t)
	activity := f.create(t, f.admin.ID)

	f.clock.Advance(time.Minute)
	_, err := f.svc.Complete(context.Background(), f.admin, activity.ID)
	require.NoError(t, err)

	_, err = f.svc.Start(context.Background(), f.admin, activity.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePreconditionFailed))

	_, err = f.svc.Complete(context.Background(), f.admin, activity.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePreconditionFailed))
}

func TestSessionsRoundBeforeTheTotalDoes(t *testing.T) {
	f := newActivityFixture(t)
	activity := f.create(t, f.admin.ID)

	// Two 10-second sessions: each rounds to 0.17 on close, so the total is
	// 0.34, not the 0.33 a single rounding of 20 seconds would give.
	f.clock.Advance(10 * time.Second)
	_, err := f.svc.Pause(context.Background(), f.admin, activity.ID)
	require.NoError(t, err)

	_, err = f.svc.Start(context.Background(), f.admin, activity.ID)
	require.NoError(t, err)
	f.clock.Advance(10 * time.Second)
	paused, err := f.svc.Pause(context.Background(), f.admin, activity.ID)
	require.NoError(t, err)

	assert.InDelta(t, 0.34, paused.DurationMinutes, 1e-9)
}

func TestStartExclusivePausesOtherRunningActivities(t *testing.T) {
	f := newActivityFixture(t)
	first := f.create(t, f.admin.ID)
	second := f.create(t, f.admin.ID)

	f.clock.Advance(20 * time.Minute)
	started, err := f.svc.StartExclusive(context.Background(), f.admin, second.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ActivityStarted, started.Status)
	assert.Equal(t, 1, f.openSessions(t, second.ID))

	other, err := f.activities.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityPaused, other.Status)
	assert.InDelta(t, 20.0, other.DurationMinutes, 1e-9)
	assert.Equal(t, 0, f.openSessions(t, first.ID))
}

func TestStartExclusiveResumesPausedTarget(t *testing.T) {
	f := newActivityFixture(t)
	target := f.create(t, f.admin.ID)
	f.clock.Advance(5 * time.Minute)
	_, err := f.svc.Pause(context.Background(), f.admin, target.ID)
	require.NoError(t, err)

	other := f.create(t, f.admin.ID)

	f.clock.Advance(5 * time.Minute)
	started, err := f.svc.StartExclusive(context.Background(), f.admin, target.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityStarted, started.Status)
	assert.Equal(t, 1, f.openSessions(t, target.ID))

	paused, err := f.activities.GetByID(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityPaused, paused.Status)
}

func TestRecalculateRepairsCorruptedSessionDurations(t *testing.T) {
	f := newActivityFixture(t)
	activity := f.create(t, f.admin.ID)

	f.clock.Advance(10 * time.Minute)
	_, err := f.svc.Pause(context.Background(), f.admin, activity.ID)
	require.NoError(t, err)

	// Corrupt the stored duration; timestamps stay intact.
	stored, err := f.sessions.ListByActivity(context.Background(), activity.ID)
	require.NoError(t, err)
	bogus := 999.0
	stored[0].DurationMinutes = &bogus
	require.NoError(t, f.sessions.Update(context.Background(), stored[0]))

	repaired, err := f.svc.RecalculateAllDurations(context.Background(), f.admin, activity.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, repaired.DurationMinutes, 1e-9)

	sessions, err := f.sessions.ListByActivity(context.Background(), activity.ID)
	require.NoError(t, err)
	require.NotNil(t, sessions[0].DurationMinutes)
	assert.InDelta(t, 10.0, *sessions[0].DurationMinutes, 1e-9)
}

func TestDetailComputesLiveDuration(t *testing.T) {
	f := newActivityFixture(t)
	activity := f.create(t, f.admin.ID)

	f.clock.Advance(90 * time.Minute)
	detail, err := f.svc.Detail(context.Background(), f.admin, activity.ID)
	require.NoError(t, err)

	// The stored total has not been recomputed yet; the live figure has.
	assert.InDelta(t, 0.0, detail.Activity.DurationMinutes, 1e-9)
	assert.InDelta(t, 90.0, detail.LiveDurationMinutes, 1e-9)
	assert.Equal(t, "1h 30m", detail.LiveDurationDisplay)
}

func TestLifecycleRejectsNonOwners(t *testing.T) {
	f := newActivityFixture(t)
	activity := f.create(t, f.admin.ID)
	stranger := &models.User{ID: uuid.New(), Username: "stranger"}

	_, err := f.svc.Pause(context.Background(), stranger, activity.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	_, err = f.svc.StartExclusive(context.Background(), stranger, activity.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	_, err = f.svc.Detail(context.Background(), stranger, activity.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestListValidatesStatusFilter(t *testing.T) {
	f := newActivityFixture(t)
	f.create(t, f.admin.ID)

	_, err := f.svc.List(context.Background(), f.admin, f.admin.ID, "sleeping")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	activities, err := f.svc.List(context.Background(), f.admin, f.admin.ID, models.ActivityStarted)
	require.NoError(t, err)
	assert.Len(t, activities, 1)
}
