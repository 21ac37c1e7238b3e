package postgres

import (
	"context"

	"github.com/cpns-tryout/exam-service/internal/models"
	"github.com/cpns-tryout/exam-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (u UserPostgreSQL) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Upsert refreshes the local mirror of the Casdoor identity on every
// authenticated request.
func (u UserPostgreSQL) Upsert(ctx context.Context, user *models.User) error {
	return u.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"full_name", "email", "is_admin", "last_login_at", "updated_at"}),
		}).
		Create(user).Error
}
