// Package storage persists summary reports.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/tenderlens/internal/models"
)

// ErrNotFound is returned when a report ID does not exist.
var ErrNotFound = errors.New("report not found")

// Storage defines report persistence operations.
type Storage interface {
	// SaveReport inserts or replaces the report with report.ID. CreatedAt of an existing
	// report is preserved; UpdatedAt is set to now.
	SaveReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, id string) (*models.Report, error)
	// ListReports returns reports, most recently updated first.
	ListReports(ctx context.Context, offset, limit int) ([]*models.Report, error)
	DeleteReport(ctx context.Context, id string) error
	CountReports(ctx context.Context) (int64, error)

	Close() error
}
