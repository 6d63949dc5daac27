package app

import (
	"context"
	"testing"

	apperrors "worklog/internal/errors"
	"worklog/internal/testkit"
	"worklog/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taskFixture struct {
	tasks    *testkit.TaskRepo
	users    *testkit.UserRepo
	clock    *testkit.Clock
	svc      *TaskService
	manager  *models.User
	assignee *models.User
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	tasks := testkit.NewTaskRepo()
	users := testkit.NewUserRepo()
	clock := testkit.NewClock()

	manager := &models.User{ID: uuid.New(), Username: "manager"}
	assignee := &models.User{ID: uuid.New(), Username: "worker"}
	require.NoError(t, users.Create(context.Background(), manager))
	require.NoError(t, users.Create(context.Background(), assignee))

	return &taskFixture{
		tasks:    tasks,
		users:    users,
		clock:    clock,
		svc:      NewTaskService(tasks, users, testkit.NewCategoryRepo(), clock),
		manager:  manager,
		assignee: assignee,
	}
}

func (f *taskFixture) create(t *testing.T) *models.Task {
	t.Helper()
	task, err := f.svc.Create(context.Background(), f.manager, CreateTaskInput{
		Title:      "Calibrate the flow meters",
		AssigneeID: f.assignee.ID,
	})
	require.NoError(t, err)
	return task
}

func TestTaskApprovalWorkflow(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.create(t)
	assert.Equal(t, models.TaskPending, task.Status)

	task, err := f.svc.Begin(ctx, f.assignee, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskInProgress, task.Status)

	task, err = f.svc.Submit(ctx, f.assignee, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskSubmitted, task.Status)
	require.NotNil(t, task.SubmittedAt)

	task, err = f.svc.Approve(ctx, f.manager, task.ID, "looks good")
	require.NoError(t, err)
	assert.Equal(t, models.TaskApproved, task.Status)
	assert.Equal(t, "looks good", task.ReviewNote)
	require.NotNil(t, task.ReviewedAt)
}

func TestTaskSubmitStraightFromPending(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t)

	task, err := f.svc.Submit(context.Background(), f.assignee, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskSubmitted, task.Status)
}

func TestTaskRejectReturnsNote(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.create(t)

	_, err := f.svc.Submit(ctx, f.assignee, task.ID)
	require.NoError(t, err)

	task, err = f.svc.Reject(ctx, f.manager, task.ID, "rework the readings")
	require.NoError(t, err)
	assert.Equal(t, models.TaskRejected, task.Status)
	assert.Equal(t, "rework the readings", task.ReviewNote)
}

func TestTaskOnlyAssigneeCanProgress(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t)

	_, err := f.svc.Begin(context.Background(), f.manager, task.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	_, err = f.svc.Submit(context.Background(), f.manager, task.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestTaskOnlyCreatorOrAdminCanReview(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.create(t)
	_, err := f.svc.Submit(ctx, f.assignee, task.ID)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, f.assignee, task.ID, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	admin := &models.User{ID: uuid.New(), Username: "admin", IsAdmin: true}
	_, err = f.svc.Approve(ctx, admin, task.ID, "")
	require.NoError(t, err)
}

func TestTaskReviewRequiresSubmitted(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t)

	_, err := f.svc.Approve(context.Background(), f.manager, task.ID, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePreconditionFailed))
}

func TestTaskCreateValidatesAssignee(t *testing.T) {
	f := newTaskFixture(t)

	_, err := f.svc.Create(context.Background(), f.manager, CreateTaskInput{
		Title:      "Orphan task",
		AssigneeID: uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestTaskListsSplitByRole(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	f.create(t)
	f.create(t)

	assigned, err := f.svc.ListAssigned(ctx, f.assignee, "")
	require.NoError(t, err)
	assert.Len(t, assigned, 2)

	created, err := f.svc.ListCreated(ctx, f.manager)
	require.NoError(t, err)
	assert.Len(t, created, 2)

	assigned, err = f.svc.ListAssigned(ctx, f.manager, "")
	require.NoError(t, err)
	assert.Empty(t, assigned)
}
