package repositories

import (
	"context"

	"github.com/SAP-F-2025/course-service/internal/models"
	"gorm.io/gorm"
)

// ProfileRepository stores the local user profiles
type ProfileRepository interface {
	Create(ctx context.Context, tx *gorm.DB, profile *models.Profile) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Profile, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.Profile, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.Profile, error)
	Update(ctx context.Context, tx *gorm.DB, profile *models.Profile) error
	UpdateRole(ctx context.Context, tx *gorm.DB, id string, role models.UserRole) error

	List(ctx context.Context, tx *gorm.DB, filters ProfileFilters) ([]*models.Profile, int64, error)
}
