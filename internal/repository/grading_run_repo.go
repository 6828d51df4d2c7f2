package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nbgrade/nbgrade-api/internal/models"
)

// GradingRunRepository defines data operations for persisted grading runs.
type GradingRunRepository interface {
	Create(ctx context.Context, run *models.GradingRun) error
	List(ctx context.Context, limit int) ([]models.GradingRun, error)
}

type gradingRunRepository struct {
	db *gorm.DB
}

// NewGradingRunRepository instantiates the repository.
func NewGradingRunRepository(db *gorm.DB) GradingRunRepository {
	return &gradingRunRepository{db: db}
}

func (r *gradingRunRepository) Create(ctx context.Context, run *models.GradingRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *gradingRunRepository) List(ctx context.Context, limit int) ([]models.GradingRun, error) {
	if limit <= 0 {
		limit = 50
	}

	var runs []models.GradingRun
	if err := r.db.WithContext(ctx).
		Model(&models.GradingRun{}).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}

	return runs, nil
}
