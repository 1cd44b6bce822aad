package repository

import (
	"context"
	"errors"
	"fmt"

	"golang-goodnews/internal/entity"
	"golang-goodnews/internal/news/dto"

	"gorm.io/gorm"
)

// RefreshRunRepository defines the data operations for refresh run history.
type RefreshRunRepository interface {
	Create(ctx context.Context, run *entity.RefreshRun) error
	Update(ctx context.Context, run *entity.RefreshRun) error
	FindByID(ctx context.Context, id uint) (*entity.RefreshRun, error)
	FindRecent(ctx context.Context, limit int) ([]entity.RefreshRun, error)
}

// NewRefreshRunRepository creates a new GORM-based refresh run repository.
func NewRefreshRunRepository(db *gorm.DB) RefreshRunRepository {
	return &refreshRunRepository{db: db}
}

type refreshRunRepository struct {
	db *gorm.DB
}

func (r *refreshRunRepository) Create(ctx context.Context, run *entity.RefreshRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Update overwrites every column of an existing run.
func (r *refreshRunRepository) Update(ctx context.Context, run *entity.RefreshRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *refreshRunRepository) FindByID(ctx context.Context, id uint) (*entity.RefreshRun, error) {
	var run entity.RefreshRun
	if err := r.db.WithContext(ctx).First(&run, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, dto.ErrRefreshRunNotFound
		}
		return nil, fmt.Errorf("failed to find refresh run: %w", err)
	}
	return &run, nil
}

// FindRecent returns the latest runs, newest first.
func (r *refreshRunRepository) FindRecent(ctx context.Context, limit int) ([]entity.RefreshRun, error) {
	var runs []entity.RefreshRun
	if err := r.db.WithContext(ctx).Order("started_at desc").Order("id desc").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list refresh runs: %w", err)
	}
	return runs, nil
}

type unavailableRefreshRunRepository struct{}

// NewUnavailableRefreshRunRepository is used when the database cannot be reached at startup.
func NewUnavailableRefreshRunRepository() RefreshRunRepository {
	return unavailableRefreshRunRepository{}
}

func (unavailableRefreshRunRepository) Create(context.Context, *entity.RefreshRun) error {
	return dto.ErrRepositoryUnavailable
}

func (unavailableRefreshRunRepository) Update(context.Context, *entity.RefreshRun) error {
	return dto.ErrRepositoryUnavailable
}

func (unavailableRefreshRunRepository) FindByID(context.Context, uint) (*entity.RefreshRun, error) {
	return nil, dto.ErrRepositoryUnavailable
}

func (unavailableRefreshRunRepository) FindRecent(context.Context, int) ([]entity.RefreshRun, error) {
	return nil, dto.ErrRepositoryUnavailable
}
