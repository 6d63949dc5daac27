package app

import (
	"context"
	"sort"
	"sync"

	"worklog/domain/timing"
	"worklog/internal/errors"
	"worklog/models"
	"worklog/ports"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"
)

// reportConcurrency caps the fan-out of per-category aggregation queries.
const reportConcurrency = 4

// CategoryReport summarizes the closed session durations recorded against a
// category. All figures are minutes.
type CategoryReport struct {
	CategoryID   uuid.UUID `json:"category_id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	SessionCount int       `json:"session_count"`
	TotalMinutes float64   `json:"total_minutes"`
	TotalDisplay string    `json:"total_display"`
	MeanMinutes  float64   `json:"mean_minutes"`
	Median       float64   `json:"median_minutes"`
	P90          float64   `json:"p90_minutes"`
	StdDev       float64   `json:"stddev_minutes"`

	// ConsistencyScore is the probability that a session finishes within the
	// category's standard time, under a normal fit of the observed durations.
	// Nil when there is no standard time or not enough data to fit.
	ConsistencyScore *float64 `json:"consistency_score,omitempty"`
}

// ReportService aggregates session durations per category.
type ReportService struct {
	categories ports.CategoryRepository
	sessions   ports.SessionRepository
}

// NewReportService creates a report service
func NewReportService(categories ports.CategoryRepository, sessions ports.SessionRepository) *ReportService {
	return &ReportService{
		categories: categories,
		sessions:   sessions,
	}
}

// CategorySummaries builds a report row per category, fanning the aggregation
// queries out with bounded concurrency. Categories with no closed sessions
// are included with zeroed figures.
func (s *ReportService) CategorySummaries(ctx context.Context) ([]*CategoryReport, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing categories")
	}

	var mu sync.Mutex
	reports := make([]*CategoryReport, 0, len(categories))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(reportConcurrency)
	for _, category := range categories {
		category := category
		g.Go(func() error {
			report, err := s.summarize(ctx, category)
			if err != nil {
				return err
			}
			mu.Lock()
			reports = append(reports, report)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].Code < reports[j].Code })
	return reports, nil
}

// CategorySummary builds the report row for a single category.
func (s *ReportService) CategorySummary(ctx context.Context, categoryID uuid.UUID) (*CategoryReport, error) {
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, category)
}

func (s *ReportService) summarize(ctx context.Context, category *models.ActivityCategory) (*CategoryReport, error) {
	durations, err := s.sessions.ClosedDurationsByCategory(ctx, category.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "loading durations for category %s", category.Code)
	}

	report := &CategoryReport{
		CategoryID:   category.ID,
		Code:         category.Code,
		Name:         category.Name,
		SessionCount: len(durations),
		TotalDisplay: timing.FormatMinutes(0),
	}
	if len(durations) == 0 {
		return report, nil
	}

	data := stats.Float64Data(durations)
	total, err := data.Sum()
	if err != nil {
		return nil, errors.Wrapf(err, "aggregating category %s", category.Code)
	}
	mean, err := data.Mean()
	if err != nil {
		return nil, errors.Wrapf(err, "aggregating category %s", category.Code)
	}
	median, err := data.Median()
	if err != nil {
		return nil, errors.Wrapf(err, "aggregating category %s", category.Code)
	}
	p90, err := data.Percentile(90)
	if err != nil {
		// Percentile needs more than one sample; fall back to the sole value.
		p90 = durations[0]
	}
	sd, err := data.StandardDeviation()
	if err != nil {
		return nil, errors.Wrapf(err, "aggregating category %s", category.Code)
	}

	report.TotalMinutes = timing.Round2(total)
	report.TotalDisplay = timing.FormatMinutes(total)
	report.MeanMinutes = timing.Round2(mean)
	report.Median = timing.Round2(median)
	report.P90 = timing.Round2(p90)
	report.StdDev = timing.Round2(sd)
	report.ConsistencyScore = consistencyScore(category.StandardTime, mean, sd, len(durations))

	return report, nil
}

// consistencyScore fits a normal distribution to the observed durations and
// returns P(duration <= standard time). A degenerate fit (under two samples
// or zero spread) yields nil.
func consistencyScore(standardTime *float64, mean, sd float64, n int) *float64 {
	if standardTime == nil || n < 2 || sd <= 0 {
		return nil
	}
	dist := distuv.Normal{Mu: mean, Sigma: sd}
	score := dist.CDF(*standardTime)
	return &score
}
