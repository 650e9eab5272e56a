package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/fitness-tracker-api/internal/models"
)

// StudentRepository provides access to student profiles.
type StudentRepository interface {
	CreateWithUser(ctx context.Context, user *models.User, profile *models.StudentProfile) error
	GetByID(ctx context.Context, id uint) (models.StudentProfile, error)
	GetByUserID(ctx context.Context, userID uint) (models.StudentProfile, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

// CreateWithUser inserts the login identity and its profile atomically.
func (r *studentRepository) CreateWithUser(ctx context.Context, user *models.User, profile *models.StudentProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		profile.UserID = user.ID
		return tx.Omit("User").Create(profile).Error
	})
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.StudentProfile, error) {
	var student models.StudentProfile
	if err := r.db.WithContext(ctx).Preload("User").First(&student, id).Error; err != nil {
		return models.StudentProfile{}, err
	}

	return student, nil
}

func (r *studentRepository) GetByUserID(ctx context.Context, userID uint) (models.StudentProfile, error) {
	var student models.StudentProfile
	if err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&student).Error; err != nil {
		return models.StudentProfile{}, err
	}

	return student, nil
}
