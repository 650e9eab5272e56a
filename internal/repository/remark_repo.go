package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/fitness-tracker-api/internal/models"
)

// RemarkRepository persists remarks left on student histories.
type RemarkRepository interface {
	Create(ctx context.Context, remark *models.Remark) error
	ListByStudent(ctx context.Context, studentID uint) ([]models.Remark, error)
}

type remarkRepository struct {
	db *gorm.DB
}

// NewRemarkRepository constructs the remark repository.
func NewRemarkRepository(db *gorm.DB) RemarkRepository {
	return &remarkRepository{db: db}
}

func (r *remarkRepository) Create(ctx context.Context, remark *models.Remark) error {
	return r.db.WithContext(ctx).Omit("Student", "FitnessTest", "Author").Create(remark).Error
}

func (r *remarkRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Remark, error) {
	var remarks []models.Remark
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Find(&remarks).Error
	if err != nil {
		return nil, err
	}

	return remarks, nil
}
