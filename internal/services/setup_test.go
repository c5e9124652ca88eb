package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/internal/storage"
	"github.com/SAP-F-2025/course-service/internal/testutil"
	"github.com/SAP-F-2025/course-service/internal/validator"
)

type testEnv struct {
	db        *gorm.DB
	repo      repositories.Repository
	publisher *events.MockEventPublisher
	manager   ServiceManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	repo := testutil.NewRepository(db, nil)
	publisher := events.NewMockEventPublisher(testutil.Logger())

	manager := NewServiceManager(ServiceDependencies{
		DB:          db,
		Repo:        repo,
		Logger:      testutil.Logger(),
		Validator:   validator.New(),
		Publisher:   publisher,
		Attachments: storage.NewLocalStore(t.TempDir()),
	}, ServiceManagerConfig{})
	if err := manager.Initialize(context.Background()); err != nil {
		t.Fatalf("Failed to initialize service manager: %v", err)
	}

	return &testEnv{db: db, repo: repo, publisher: publisher, manager: manager}
}

func actorFor(profile *models.Profile) Actor {
	return Actor{UserID: profile.ID, Role: profile.Role}
}

func expectPermissionError(t *testing.T, err error) {
	t.Helper()
	var permErr *PermissionError
	if !errors.As(err, &permErr) {
		t.Fatalf("Expected permission error, got %v", err)
	}
}

func expectValidationError(t *testing.T, err error, field string) {
	t.Helper()
	var validationErrs ValidationErrors
	if !errors.As(err, &validationErrs) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	for _, fe := range validationErrs {
		if fe.Field == field {
			return
		}
	}
	t.Fatalf("Expected validation error on %s, got %v", field, validationErrs)
}

func expectBusinessRule(t *testing.T, err error, rule string) {
	t.Helper()
	var businessErr *BusinessRuleError
	if !errors.As(err, &businessErr) {
		t.Fatalf("Expected business rule error, got %v", err)
	}
	if businessErr.Rule != rule {
		t.Fatalf("Expected rule %s, got %s", rule, businessErr.Rule)
	}
}
