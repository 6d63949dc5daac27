// Package testkit provides in-memory implementations of the repository ports
// for tests. The stores hold values, not pointers, so tests only observe
// state that went through Create/Update, the way a real database would.
package testkit

import (
	"context"
	"fmt"
	"sort"
	"time"

	apperrors "worklog/internal/errors"
	"worklog/models"

	"github.com/google/uuid"
)

// Clock is a manually advanced clock for deterministic duration math.
type Clock struct {
	now time.Time
}

// NewClock starts a clock at a fixed instant
func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time { return c.now }

func (c *Clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// NoopTx runs the function directly; the in-memory stores need no isolation.
type NoopTx struct{}

func (NoopTx) InTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// ActivityRepo is an in-memory ActivityRepository.
type ActivityRepo struct {
	byID map[uuid.UUID]models.Activity
}

// NewActivityRepo creates an empty in-memory activity repository
func NewActivityRepo() *ActivityRepo {
	return &ActivityRepo{byID: make(map[uuid.UUID]models.Activity)}
}

func (r *ActivityRepo) Create(_ context.Context, a *models.Activity) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.byID[a.ID] = *a
	return nil
}

func (r *ActivityRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Activity, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("activity")
	}
	out := a
	return &out, nil
}

func (r *ActivityRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	return r.GetByID(ctx, id)
}

func (r *ActivityRepo) ListStartedByUserForUpdate(_ context.Context, userID uuid.UUID) ([]*models.Activity, error) {
	var out []*models.Activity
	for _, a := range r.byID {
		if a.UserID == userID && a.Status == models.ActivityStarted {
			item := a
			out = append(out, &item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r *ActivityRepo) Update(_ context.Context, a *models.Activity) error {
	if _, ok := r.byID[a.ID]; !ok {
		return apperrors.NotFound("activity")
	}
	r.byID[a.ID] = *a
	return nil
}

func (r *ActivityRepo) ListByUser(_ context.Context, userID uuid.UUID, status models.ActivityStatus) ([]*models.Activity, error) {
	var out []*models.Activity
	for _, a := range r.byID {
		if a.UserID != userID {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		item := a
		out = append(out, &item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// SessionRepo is an in-memory SessionRepository. ClosedDurationsByCategory
// resolves activities through the paired activity repo.
type SessionRepo struct {
	sessions   []models.ActivitySession
	activities *ActivityRepo
}

// NewSessionRepo creates an empty in-memory session repository
func NewSessionRepo(activities *ActivityRepo) *SessionRepo {
	return &SessionRepo{activities: activities}
}

func (r *SessionRepo) Create(_ context.Context, s *models.ActivitySession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sessions = append(r.sessions, *s)
	return nil
}

func (r *SessionRepo) FindOpenByActivity(_ context.Context, activityID uuid.UUID) (*models.ActivitySession, error) {
	var open *models.ActivitySession
	for i := range r.sessions {
		s := r.sessions[i]
		if s.ActivityID != activityID || s.EndedAt != nil {
			continue
		}
		if open == nil || s.StartedAt.Before(open.StartedAt) {
			item := s
			open = &item
		}
	}
	return open, nil
}

func (r *SessionRepo) Update(_ context.Context, s *models.ActivitySession) error {
	for i := range r.sessions {
		if r.sessions[i].ID == s.ID {
			r.sessions[i] = *s
			return nil
		}
	}
	return apperrors.NotFound("session")
}

func (r *SessionRepo) ListByActivity(_ context.Context, activityID uuid.UUID) ([]*models.ActivitySession, error) {
	var out []*models.ActivitySession
	for i := range r.sessions {
		if r.sessions[i].ActivityID == activityID {
			item := r.sessions[i]
			out = append(out, &item)
		}
	}
	return out, nil
}

func (r *SessionRepo) SumClosedDurations(_ context.Context, activityID uuid.UUID) (float64, error) {
	var total float64
	for i := range r.sessions {
		s := r.sessions[i]
		if s.ActivityID == activityID && s.EndedAt != nil && s.DurationMinutes != nil {
			total += *s.DurationMinutes
		}
	}
	return total, nil
}

func (r *SessionRepo) ClosedDurationsByCategory(_ context.Context, categoryID uuid.UUID) ([]float64, error) {
	var out []float64
	for i := range r.sessions {
		s := r.sessions[i]
		if s.EndedAt == nil || s.DurationMinutes == nil {
			continue
		}
		a, ok := r.activities.byID[s.ActivityID]
		if ok && a.CategoryID == categoryID {
			out = append(out, *s.DurationMinutes)
		}
	}
	return out, nil
}

// CategoryRepo is an in-memory CategoryRepository. It enforces code
// uniqueness the way the postgres adapter does, returning a DUPLICATE error
// on collision.
type CategoryRepo struct {
	byID   map[uuid.UUID]models.ActivityCategory
	byCode map[string]uuid.UUID
}

// NewCategoryRepo creates an empty in-memory category repository
func NewCategoryRepo() *CategoryRepo {
	return &CategoryRepo{
		byID:   make(map[uuid.UUID]models.ActivityCategory),
		byCode: make(map[string]uuid.UUID),
	}
}

func (r *CategoryRepo) Create(_ context.Context, c *models.ActivityCategory) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if _, taken := r.byCode[c.Code]; taken {
		return apperrors.Duplicate(fmt.Sprintf("category code %s already exists", c.Code))
	}
	r.byID[c.ID] = *c
	r.byCode[c.Code] = c.ID
	return nil
}

func (r *CategoryRepo) Update(_ context.Context, c *models.ActivityCategory) error {
	if _, ok := r.byID[c.ID]; !ok {
		return apperrors.NotFound("category")
	}
	r.byID[c.ID] = *c
	return nil
}

func (r *CategoryRepo) GetByID(_ context.Context, id uuid.UUID) (*models.ActivityCategory, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("category")
	}
	out := c
	return &out, nil
}

func (r *CategoryRepo) GetByCode(ctx context.Context, code string) (*models.ActivityCategory, error) {
	id, ok := r.byCode[code]
	if !ok {
		return nil, apperrors.NotFound("category")
	}
	return r.GetByID(ctx, id)
}

func (r *CategoryRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	_, ok := r.byCode[code]
	return ok, nil
}

func (r *CategoryRepo) CountChildren(_ context.Context, parentID uuid.UUID) (int, error) {
	count := 0
	for _, c := range r.byID {
		if c.ParentID != nil && *c.ParentID == parentID {
			count++
		}
	}
	return count, nil
}

func (r *CategoryRepo) CountTopLevel(_ context.Context, departmentID *uuid.UUID) (int, error) {
	count := 0
	for _, c := range r.byID {
		if c.ParentID != nil {
			continue
		}
		switch {
		case departmentID == nil && c.DepartmentID == nil:
			count++
		case departmentID != nil && c.DepartmentID != nil && *c.DepartmentID == *departmentID:
			count++
		}
	}
	return count, nil
}

func (r *CategoryRepo) List(_ context.Context) ([]*models.ActivityCategory, error) {
	var out []*models.ActivityCategory
	for _, c := range r.byID {
		item := c
		out = append(out, &item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// DepartmentRepo is an in-memory DepartmentRepository.
type DepartmentRepo struct {
	byID map[uuid.UUID]models.Department
}

// NewDepartmentRepo creates an empty in-memory department repository
func NewDepartmentRepo() *DepartmentRepo {
	return &DepartmentRepo{byID: make(map[uuid.UUID]models.Department)}
}

func (r *DepartmentRepo) Create(_ context.Context, d *models.Department) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	r.byID[d.ID] = *d
	return nil
}

func (r *DepartmentRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Department, error) {
	d, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("department")
	}
	out := d
	return &out, nil
}

func (r *DepartmentRepo) GetByName(_ context.Context, name string) (*models.Department, error) {
	for _, d := range r.byID {
		if d.Name == name {
			out := d
			return &out, nil
		}
	}
	return nil, apperrors.NotFound("department")
}

func (r *DepartmentRepo) List(_ context.Context) ([]*models.Department, error) {
	var out []*models.Department
	for _, d := range r.byID {
		item := d
		out = append(out, &item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type roleAssignment struct {
	roleID     uuid.UUID
	categoryID uuid.UUID
}

// WorkRoleRepo is an in-memory WorkRoleRepository with a helper for user
// membership, which in production lives in the user_work_roles table.
type WorkRoleRepo struct {
	byID        map[uuid.UUID]models.WorkRole
	assignments map[roleAssignment]bool
	userRoles   map[uuid.UUID][]uuid.UUID
}

// NewWorkRoleRepo creates an empty in-memory work role repository
func NewWorkRoleRepo() *WorkRoleRepo {
	return &WorkRoleRepo{
		byID:        make(map[uuid.UUID]models.WorkRole),
		assignments: make(map[roleAssignment]bool),
		userRoles:   make(map[uuid.UUID][]uuid.UUID),
	}
}

func (r *WorkRoleRepo) Create(_ context.Context, role *models.WorkRole) error {
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	r.byID[role.ID] = *role
	return nil
}

func (r *WorkRoleRepo) GetByName(_ context.Context, name string) (*models.WorkRole, error) {
	for _, role := range r.byID {
		if role.Name == name {
			out := role
			return &out, nil
		}
	}
	return nil, apperrors.NotFound("work role")
}

func (r *WorkRoleRepo) List(_ context.Context) ([]*models.WorkRole, error) {
	var out []*models.WorkRole
	for _, role := range r.byID {
		item := role
		out = append(out, &item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *WorkRoleRepo) AssignCategory(_ context.Context, roleID, categoryID uuid.UUID) error {
	r.assignments[roleAssignment{roleID, categoryID}] = true
	return nil
}

func (r *WorkRoleRepo) UserHasCategory(_ context.Context, userID, categoryID uuid.UUID) (bool, error) {
	for _, roleID := range r.userRoles[userID] {
		if r.assignments[roleAssignment{roleID, categoryID}] {
			return true, nil
		}
	}
	return false, nil
}

// AddMember enrolls a user in a work role
func (r *WorkRoleRepo) AddMember(userID, roleID uuid.UUID) {
	r.userRoles[userID] = append(r.userRoles[userID], roleID)
}

// UserRepo is an in-memory UserRepository.
type UserRepo struct {
	byID map[uuid.UUID]models.User
}

// NewUserRepo creates an empty in-memory user repository
func NewUserRepo() *UserRepo {
	return &UserRepo{byID: make(map[uuid.UUID]models.User)}
}

func (r *UserRepo) GetOrCreateDefaultUser(_ context.Context) (*models.User, error) {
	for _, u := range r.byID {
		if u.IsAdmin {
			out := u
			return &out, nil
		}
	}
	admin := models.User{ID: uuid.New(), Email: "admin@worklog.local", Username: "admin", IsAdmin: true, IsActive: true}
	r.byID[admin.ID] = admin
	return &admin, nil
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	out := u
	return &out, nil
}

func (r *UserRepo) Create(_ context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.byID[u.ID] = *u
	return nil
}

func (r *UserRepo) List(_ context.Context) ([]*models.User, error) {
	var out []*models.User
	for _, u := range r.byID {
		item := u
		out = append(out, &item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// TaskRepo is an in-memory TaskRepository.
type TaskRepo struct {
	byID map[uuid.UUID]models.Task
}

// NewTaskRepo creates an empty in-memory task repository
func NewTaskRepo() *TaskRepo {
	return &TaskRepo{byID: make(map[uuid.UUID]models.Task)}
}

func (r *TaskRepo) Create(_ context.Context, t *models.Task) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.byID[t.ID] = *t
	return nil
}

func (r *TaskRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("task")
	}
	out := t
	return &out, nil
}

func (r *TaskRepo) Update(_ context.Context, t *models.Task) error {
	if _, ok := r.byID[t.ID]; !ok {
		return apperrors.NotFound("task")
	}
	r.byID[t.ID] = *t
	return nil
}

func (r *TaskRepo) ListByAssignee(_ context.Context, assigneeID uuid.UUID, status models.TaskStatus) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range r.byID {
		if t.AssigneeID != assigneeID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		item := t
		out = append(out, &item)
	}
	return out, nil
}

func (r *TaskRepo) ListByCreator(_ context.Context, creatorID uuid.UUID) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range r.byID {
		if t.CreatorID == creatorID {
			item := t
			out = append(out, &item)
		}
	}
	return out, nil
}
