package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/internal/validator"
	"gorm.io/gorm"
)

type profileService struct {
	repo        repositories.Repository
	db          *gorm.DB
	logger      *slog.Logger
	validator   *validator.Validator
	adminEmails map[string]struct{}
}

func NewProfileService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, adminEmails []string) ProfileService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			admins[email] = struct{}{}
		}
	}
	return &profileService{
		repo:        repo,
		db:          db,
		logger:      logger,
		validator:   validator,
		adminEmails: admins,
	}
}

// initialRole is admin for configured bootstrap emails, student otherwise
func (s *profileService) initialRole(email string) models.UserRole {
	if _, ok := s.adminEmails[email]; ok {
		return models.RoleAdmin
	}
	return models.RoleStudent
}

// EnsureProfile returns the stored profile for identity, creating one on
// first sight. Claims never override the stored role.
func (s *profileService) EnsureProfile(ctx context.Context, identity *Identity) (*models.Profile, error) {
	if identity == nil || identity.ID == "" {
		return nil, NewValidationError("sub", "identity has no subject", nil)
	}

	profile, err := s.repo.Profile().GetByID(ctx, s.db, identity.ID)
	if err == nil {
		return profile, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, translateStoreError(err, "get profile", ResourceProfile, identity.ID)
	}

	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return nil, NewValidationError("email", "identity has no email", nil)
	}

	profile = &models.Profile{
		ID:        identity.ID,
		Email:     email,
		FullName:  displayName(identity.FullName, email),
		Role:      s.initialRole(email),
		AvatarURL: trimmedOrNil(identity.AvatarURL),
	}

	s.logger.Info("Creating profile", "user_id", profile.ID, "email", profile.Email, "role", profile.Role)
	if err := s.repo.Profile().Create(ctx, s.db, profile); err != nil {
		if !repositories.IsDuplicateKeyError(err) {
			return nil, translateStoreError(err, "create profile", ResourceProfile, identity.ID)
		}
		// A concurrent first request may have created it already
		existing, getErr := s.repo.Profile().GetByID(ctx, s.db, identity.ID)
		if getErr != nil {
			return nil, NewConflictError(ResourceProfile, "email is already registered to another user")
		}
		return existing, nil
	}

	s.logger.Info("Profile created successfully", "user_id", profile.ID)
	return profile, nil
}

func (s *profileService) GetProfile(ctx context.Context, actor Actor, id string) (*models.Profile, error) {
	if err := requireOwnerOrAdmin(actor, id, ResourceProfile, id, "read"); err != nil {
		return nil, err
	}
	profile, err := s.repo.Profile().GetByID(ctx, s.db, id)
	if err != nil {
		return nil, translateStoreError(err, "get profile", ResourceProfile, id)
	}
	return profile, nil
}

func (s *profileService) UpdateMyProfile(ctx context.Context, actor Actor, req *UpdateProfileRequest) (*models.Profile, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var profile *models.Profile
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		profile, err = s.repo.Profile().GetByID(ctx, tx, actor.UserID)
		if err != nil {
			return err
		}
		if req.FullName != nil {
			profile.FullName = strings.TrimSpace(*req.FullName)
		}
		if req.AvatarURL != nil {
			profile.AvatarURL = trimmedOrNil(req.AvatarURL)
		}
		return s.repo.Profile().Update(ctx, tx, profile)
	})
	if err != nil {
		return nil, translateStoreError(err, "update profile", ResourceProfile, actor.UserID)
	}
	return profile, nil
}

// SetRole changes another user's role. Admins cannot change their own.
func (s *profileService) SetRole(ctx context.Context, actor Actor, userID string, req *SetRoleRequest) (*models.Profile, error) {
	s.logger.Info("Changing user role", "actor_id", actor.UserID, "user_id", userID, "role", req.Role)

	if err := requireAdmin(actor, ResourceProfile, userID, "set_role"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if userID == actor.UserID {
		return nil, NewBusinessRuleError("self_role_change", "admins cannot change their own role", map[string]interface{}{
			"user_id": userID,
		})
	}

	var profile *models.Profile
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Profile().UpdateRole(ctx, tx, userID, req.Role); err != nil {
			return err
		}
		var err error
		profile, err = s.repo.Profile().GetByID(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, translateStoreError(err, "set role", ResourceProfile, userID)
	}

	s.logger.Info("User role changed successfully", "user_id", userID, "role", profile.Role)
	return profile, nil
}

func (s *profileService) ListProfiles(ctx context.Context, actor Actor, req *ProfileListRequest) (*models.PaginatedResponse, error) {
	if err := requireAdmin(actor, ResourceProfile, "", "list"); err != nil {
		return nil, err
	}

	page, size, offset := normalizePage(req.Page, req.Size, DefaultPageSize)
	filters := repositories.ProfileFilters{
		Query:  strings.TrimSpace(req.Query),
		Limit:  size,
		Offset: offset,
	}
	if req.Role != "" {
		role := models.UserRole(req.Role)
		if !role.IsValid() {
			return nil, NewValidationError("role", "must be student or admin", req.Role)
		}
		filters.Role = &role
	}

	profiles, total, err := s.repo.Profile().List(ctx, s.db, filters)
	if err != nil {
		return nil, translateStoreError(err, "list profiles", ResourceProfile, "")
	}
	return models.NewPaginatedResponse(profiles, len(profiles), total, page, size), nil
}

func (s *profileService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return runInTx(ctx, s.db, fn)
}

// displayName falls back to the local part of the email
func displayName(fullName, email string) string {
	if name := strings.TrimSpace(fullName); name != "" {
		return name
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
