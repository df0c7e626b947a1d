package ingest

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"planner/models"
)

// Repository is the persistence the pipeline needs. Every call commits on
// its own.
type Repository interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	CreateIngestion(ctx context.Context, ing *models.PDFIngestion) error
	SaveIngestion(ctx context.Context, ing *models.PDFIngestion) error
	CreateTask(ctx context.Context, task *models.Task) error
	GetIngestion(ctx context.Context, id string) (*models.PDFIngestion, error)
}

// GormRepository implements Repository on a gorm connection.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) UserExists(ctx context.Context, userID string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepository) CreateIngestion(ctx context.Context, ing *models.PDFIngestion) error {
	return r.db.WithContext(ctx).Omit("User", "Tasks").Create(ing).Error
}

func (r *GormRepository) SaveIngestion(ctx context.Context, ing *models.PDFIngestion) error {
	return r.db.WithContext(ctx).Omit("User", "Tasks").Save(ing).Error
}

func (r *GormRepository) CreateTask(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit("User").Create(task).Error
}

func (r *GormRepository) GetIngestion(ctx context.Context, id string) (*models.PDFIngestion, error) {
	var ing models.PDFIngestion
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

// FailedIngestions lists a user's failed ingestions that were not retried
// yet, oldest first.
func (r *GormRepository) FailedIngestions(ctx context.Context, userID string) ([]models.PDFIngestion, error) {
	var out []models.PDFIngestion
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND retried_by_id IS NULL", userID, models.IngestionFailed).
		Order("created_at").
		Find(&out).Error
	return out, err
}

// MarkRetried records that retriedBy re-ran the ingestion id.
func (r *GormRepository) MarkRetried(ctx context.Context, id, retriedBy string) error {
	return r.db.WithContext(ctx).
		Model(&models.PDFIngestion{}).
		Where("id = ?", id).
		Update("retried_by_id", retriedBy).Error
}
