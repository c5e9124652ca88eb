package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"gorm.io/gorm"
)

type ProfilePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewProfilePostgreSQL(db *gorm.DB) repositories.ProfileRepository {
	return &ProfilePostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (p *ProfilePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}

func (p *ProfilePostgreSQL) Create(ctx context.Context, tx *gorm.DB, profile *models.Profile) error {
	return p.getDB(tx).WithContext(ctx).Create(profile).Error
}

func (p *ProfilePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := p.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (p *ProfilePostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.Profile, error) {
	var profile models.Profile
	if err := p.getDB(tx).WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (p *ProfilePostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.Profile, error) {
	var profiles []*models.Profile
	if len(ids) == 0 {
		return profiles, nil
	}
	if err := p.getDB(tx).WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	return profiles, nil
}

func (p *ProfilePostgreSQL) Update(ctx context.Context, tx *gorm.DB, profile *models.Profile) error {
	return p.getDB(tx).WithContext(ctx).Save(profile).Error
}

func (p *ProfilePostgreSQL) UpdateRole(ctx context.Context, tx *gorm.DB, id string, role models.UserRole) error {
	result := p.getDB(tx).WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (p *ProfilePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ProfileFilters) ([]*models.Profile, int64, error) {
	db := p.getDB(tx)
	var profiles []*models.Profile
	var total int64

	query := db.WithContext(ctx).Model(&models.Profile{})
	if q := strings.TrimSpace(filters.Query); q != "" {
		like := containsPattern(q)
		query = query.Where(`(LOWER(full_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`, like, like)
	}
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count profiles: %w", err)
	}

	query = p.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset, "created_at")
	if err := query.Find(&profiles).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, total, nil
}
