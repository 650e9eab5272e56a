package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/fitness-tracker-api/internal/models"
)

// Sort keys accepted by AdminStudentFilter.Sort.
const (
	StudentSortNewest     = "newest"
	StudentSortOldest     = "oldest"
	StudentSortName       = "name"
	StudentSortLastUpdate = "last_update"
)

var studentSortColumns = map[string]string{
	StudentSortNewest:     "student_profiles.created_at DESC, student_profiles.id DESC",
	StudentSortOldest:     "student_profiles.created_at ASC, student_profiles.id ASC",
	StudentSortName:       "student_profiles.full_name ASC, student_profiles.id ASC",
	StudentSortLastUpdate: "student_profiles.last_update DESC, student_profiles.id DESC",
}

// AdminStudentFilter defines filters for listing students from the admin panel.
type AdminStudentFilter struct {
	Search   string
	Section  string
	Sort     string
	Page     int
	PageSize int
}

// AdminStudentRepository exposes persistence helpers for admin student operations.
type AdminStudentRepository interface {
	List(ctx context.Context, filter AdminStudentFilter) ([]models.StudentProfile, int64, error)
	ListBySection(ctx context.Context, section string) ([]models.StudentProfile, error)
	GetByID(ctx context.Context, id uint) (models.StudentProfile, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.StudentProfile, error)
	Delete(ctx context.Context, id uint) error
}

type adminStudentRepository struct {
	db *gorm.DB
}

// NewAdminStudentRepository constructs the admin student repository.
func NewAdminStudentRepository(db *gorm.DB) AdminStudentRepository {
	return &adminStudentRepository{db: db}
}

func (r *adminStudentRepository) List(ctx context.Context, filter AdminStudentFilter) ([]models.StudentProfile, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.StudentProfile{}).
		Joins("JOIN users ON users.id = student_profiles.user_id")

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(student_profiles.full_name) LIKE ? OR LOWER(users.username) LIKE ?", like, like)
	}

	if filter.Section != "" {
		query = query.Where("student_profiles.section = ?", filter.Section)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := studentSortColumns[filter.Sort]
	if !ok {
		order = studentSortColumns[StudentSortNewest]
	}
	query = paginate(query.Order(order), filter.Page, filter.PageSize)

	var students []models.StudentProfile
	if err := query.Preload("User").Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *adminStudentRepository) ListBySection(ctx context.Context, section string) ([]models.StudentProfile, error) {
	var students []models.StudentProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("section = ?", section).
		Order("full_name ASC, id ASC").
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}

func (r *adminStudentRepository) GetByID(ctx context.Context, id uint) (models.StudentProfile, error) {
	var student models.StudentProfile
	if err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&student).Error; err != nil {
		return models.StudentProfile{}, err
	}

	return student, nil
}

func (r *adminStudentRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.StudentProfile, error) {
	tx := r.db.WithContext(ctx).Model(&models.StudentProfile{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		return models.StudentProfile{}, tx.Error
	}
	if tx.RowsAffected == 0 {
		return models.StudentProfile{}, gorm.ErrRecordNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete removes the student together with the owning account and every dependent row.
func (r *adminStudentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student models.StudentProfile
		if err := tx.Where("id = ?", id).First(&student).Error; err != nil {
			return err
		}

		if err := tx.Where("student_id = ?", id).Delete(&models.Remark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("student_id = ?", id).Delete(&models.FitnessTestEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.StudentProfile{}, id).Error; err != nil {
			return err
		}

		return tx.Delete(&models.User{}, student.UserID).Error
	})
}
