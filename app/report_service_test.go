package app

import (
	"context"
	"testing"

	"worklog/internal/testkit"
	"worklog/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reportFixture struct {
	activities *testkit.ActivityRepo
	sessions   *testkit.SessionRepo
	categories *testkit.CategoryRepo
	clock      *testkit.Clock
	svc        *ReportService
}

func newReportFixture() *reportFixture {
	activities := testkit.NewActivityRepo()
	sessions := testkit.NewSessionRepo(activities)
	categories := testkit.NewCategoryRepo()
	return &reportFixture{
		activities: activities,
		sessions:   sessions,
		categories: categories,
		clock:      testkit.NewClock(),
		svc:        NewReportService(categories, sessions),
	}
}

func (f *reportFixture) category(t *testing.T, code string, standardTime *float64) *models.ActivityCategory {
	t.Helper()
	c := &models.ActivityCategory{ID: uuid.New(), Code: code, Name: code, StandardTime: standardTime}
	require.NoError(t, f.categories.Create(context.Background(), c))
	return c
}

func (f *reportFixture) closedSessions(t *testing.T, categoryID uuid.UUID, durations ...float64) {
	t.Helper()
	ctx := context.Background()
	activity := &models.Activity{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		CategoryID: categoryID,
		Status:     models.ActivityCompleted,
	}
	require.NoError(t, f.activities.Create(ctx, activity))
	for _, minutes := range durations {
		start := f.clock.Now()
		end := start.Add(1)
		d := minutes
		require.NoError(t, f.sessions.Create(ctx, &models.ActivitySession{
			ID:              uuid.New(),
			ActivityID:      activity.ID,
			StartedAt:       start,
			EndedAt:         &end,
			DurationMinutes: &d,
		}))
	}
}

func TestCategorySummaryAggregates(t *testing.T) {
	f := newReportFixture()
	standard := 30.0
	category := f.category(t, "QA_CAL", &standard)
	f.closedSessions(t, category.ID, 20, 25, 35)

	report, err := f.svc.CategorySummary(context.Background(), category.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, report.SessionCount)
	assert.InDelta(t, 80.0, report.TotalMinutes, 1e-9)
	assert.Equal(t, "1h 20m", report.TotalDisplay)
	assert.InDelta(t, 26.67, report.MeanMinutes, 1e-9)
	assert.InDelta(t, 25.0, report.Median, 1e-9)
	require.NotNil(t, report.ConsistencyScore)
	assert.Greater(t, *report.ConsistencyScore, 0.5)
	assert.Less(t, *report.ConsistencyScore, 1.0)
}

func TestCategorySummaryWithoutSessions(t *testing.T) {
	f := newReportFixture()
	category := f.category(t, "QA_EMPTY", nil)

	report, err := f.svc.CategorySummary(context.Background(), category.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, report.SessionCount)
	assert.Zero(t, report.TotalMinutes)
	assert.Equal(t, "0m", report.TotalDisplay)
	assert.Nil(t, report.ConsistencyScore)
}

func TestConsistencyScoreNeedsSpreadAndStandardTime(t *testing.T) {
	f := newReportFixture()
	standard := 30.0

	single := f.category(t, "QA_ONE", &standard)
	f.closedSessions(t, single.ID, 20)

	noStandard := f.category(t, "QA_FREE", nil)
	f.closedSessions(t, noStandard.ID, 20, 25, 35)

	flat := f.category(t, "QA_FLAT", &standard)
	f.closedSessions(t, flat.ID, 25, 25, 25)

	for _, id := range []uuid.UUID{single.ID, noStandard.ID, flat.ID} {
		report, err := f.svc.CategorySummary(context.Background(), id)
		require.NoError(t, err)
		assert.Nil(t, report.ConsistencyScore)
	}
}

func TestCategorySummariesCoverAllCategories(t *testing.T) {
	f := newReportFixture()
	first := f.category(t, "A_ONE", nil)
	second := f.category(t, "B_TWO", nil)
	f.closedSessions(t, first.ID, 10, 20)
	f.closedSessions(t, second.ID, 5)

	reports, err := f.svc.CategorySummaries(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)

	// Sorted by code.
	assert.Equal(t, "A_ONE", reports[0].Code)
	assert.InDelta(t, 30.0, reports[0].TotalMinutes, 1e-9)
	assert.Equal(t, "B_TWO", reports[1].Code)
	assert.InDelta(t, 5.0, reports[1].TotalMinutes, 1e-9)
}
