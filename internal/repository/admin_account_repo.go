package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/fitness-tracker-api/internal/models"
)

// AdminAccountRepository stores back-office operator credentials.
type AdminAccountRepository interface {
	GetByUsername(ctx context.Context, username string) (models.AdminAccount, error)
	Upsert(ctx context.Context, username, passwordHash string) (models.AdminAccount, error)
}

type adminAccountRepository struct {
	db *gorm.DB
}

// NewAdminAccountRepository constructs the admin account repository.
func NewAdminAccountRepository(db *gorm.DB) AdminAccountRepository {
	return &adminAccountRepository{db: db}
}

func (r *adminAccountRepository) GetByUsername(ctx context.Context, username string) (models.AdminAccount, error) {
	var account models.AdminAccount
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&account).Error; err != nil {
		return models.AdminAccount{}, err
	}
	return account, nil
}

func (r *adminAccountRepository) Upsert(ctx context.Context, username, passwordHash string) (models.AdminAccount, error) {
	var account models.AdminAccount
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("username = ?", username).First(&account).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			account = models.AdminAccount{Username: username, PasswordHash: passwordHash}
			return tx.Create(&account).Error
		case err != nil:
			return err
		}

		account.PasswordHash = passwordHash
		return tx.Model(&account).Update("password_hash", passwordHash).Error
	})
	if err != nil {
		return models.AdminAccount{}, err
	}
	return account, nil
}
