package dashboard

import (
	"context"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
)

type RepositoryAPI interface {
	CountTotal(ctx context.Context) (int64, error)
	CountOpen(ctx context.Context) (int64, error)
	CountBy(ctx context.Context, column string) ([]Count, error)
	Resolutions(ctx context.Context) ([]Resolution, error)
	StationReport(ctx context.Context, from, to *time.Time) ([]StationReport, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	summary := &Summary{GeneratedAt: s.now().UTC()}

	var err error
	if summary.Total, err = s.repo.CountTotal(ctx); err != nil {
		return nil, s.fail("count tickets", err)
	}
	if summary.OpenBacklog, err = s.repo.CountOpen(ctx); err != nil {
		return nil, s.fail("count open tickets", err)
	}
	if summary.ByStatus, err = s.repo.CountBy(ctx, ColumnStatus); err != nil {
		return nil, s.fail("count by status", err)
	}
	if summary.ByIssueType, err = s.repo.CountBy(ctx, ColumnIssueType); err != nil {
		return nil, s.fail("count by issue type", err)
	}
	if summary.ByProvince, err = s.repo.CountBy(ctx, ColumnProvince); err != nil {
		return nil, s.fail("count by province", err)
	}

	resolutions, err := s.repo.Resolutions(ctx)
	if err != nil {
		return nil, s.fail("load resolutions", err)
	}
	summary.ClosedCount = int64(len(resolutions))
	summary.AvgResolutionHours = AverageHours(resolutions)
	return summary, nil
}

// Report counts tickets per station for tickets opened inside the window.
// A nil bound leaves that side open.
func (s *Service) Report(ctx context.Context, from, to *time.Time) (*Report, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, errors.NewValidationFieldError("open_to", "open_to must not be before open_from", errors.ErrCodeInvalidDate)
	}

	rows, err := s.repo.StationReport(ctx, from, to)
	if err != nil {
		return nil, s.fail("build station report", err)
	}

	report := &Report{OpenFrom: from, OpenTo: to, Stations: rows}
	if report.Stations == nil {
		report.Stations = []StationReport{}
	}
	for _, r := range rows {
		report.Total += r.Total
		report.Closed += r.Closed
	}
	return report, nil
}

// Digest is the text of the daily Telegram summary.
func (s *Service) Digest(ctx context.Context) (string, error) {
	summary, err := s.Summary(ctx)
	if err != nil {
		return "", err
	}
	return FormatDigest(summary), nil
}

func (s *Service) fail(op string, err error) error {
	s.logger.Error("dashboard query failed", "op", op, "error", err)
	return errors.NewInternalError("Failed to build dashboard", err)
}
