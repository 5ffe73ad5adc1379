package service

import (
	"context"
	"time"

	"maliyet-backend/internal/repository"

	"github.com/sirupsen/logrus"
)

// QualityReport wraps the integrity counters with an overall verdict.
type QualityReport struct {
	Status     string                   `json:"status"`
	IssueCount int64                    `json:"issue_count"`
	Checks     repository.QualityChecks `json:"checks"`
}

type QualityService interface {
	Report(ctx context.Context) (*QualityReport, error)
	Stats(ctx context.Context) (*repository.CatalogStats, error)
}

type qualityService struct {
	quality repository.QualityRepository
	log     *logrus.Logger
}

func NewQualityService(quality repository.QualityRepository, log *logrus.Logger) QualityService {
	return &qualityService{quality: quality, log: log}
}

func (s *qualityService) Report(ctx context.Context) (*QualityReport, error) {
	checks, err := s.quality.Checks(ctx)
	if err != nil {
		return nil, err
	}
	report := &QualityReport{
		Status:     "ok",
		IssueCount: checks.IssueCount(),
		Checks:     checks,
	}
	if report.IssueCount > 0 {
		report.Status = "warning"
	}
	return report, nil
}

func (s *qualityService) Stats(ctx context.Context) (*repository.CatalogStats, error) {
	started := time.Now()
	stats, err := s.quality.Stats(ctx)
	if err != nil {
		return nil, err
	}
	s.log.WithField("duration_ms", time.Since(started).Milliseconds()).Info("stats computed")
	return &stats, nil
}
