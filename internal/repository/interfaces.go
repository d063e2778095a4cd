package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/informer/internal/models"
)

// RunRepository defines the interface for run-registry data access
type RunRepository interface {
	Save(ctx context.Context, run *models.RunRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.RunRecord, error)
	GetLatest(ctx context.Context, limit int) ([]*models.RunRecord, error)
	GetByMode(ctx context.Context, mode string, limit int) ([]*models.RunRecord, error)
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.RunRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
