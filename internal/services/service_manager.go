package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/internal/storage"
	"github.com/SAP-F-2025/course-service/internal/validator"
	"gorm.io/gorm"
)

// ServiceManager owns every domain service and their shared dependencies
type ServiceManager interface {
	Initialize(ctx context.Context) error

	Catalog() CatalogService
	Enrollment() EnrollmentService
	Submission() SubmissionService
	Quiz() QuizService
	Profile() ProfileService
	Report() ReportService

	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	CatalogPageSize int
	HealthTimeout   time.Duration
	AdminEmails     []string
}

// ServiceDependencies are the collaborators shared by all services
type ServiceDependencies struct {
	DB          *gorm.DB
	Repo        repositories.Repository
	Logger      *slog.Logger
	Validator   *validator.Validator
	Publisher   events.EventPublisher
	Attachments storage.AttachmentStore
}

type serviceManager struct {
	deps   ServiceDependencies
	config ServiceManagerConfig

	catalogService    CatalogService
	enrollmentService EnrollmentService
	submissionService SubmissionService
	quizService       QuizService
	profileService    ProfileService
	reportService     ReportService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(deps ServiceDependencies, config ServiceManagerConfig) ServiceManager {
	if config.CatalogPageSize <= 0 {
		config.CatalogPageSize = DefaultCatalogPageSize
	}
	if config.HealthTimeout <= 0 {
		config.HealthTimeout = 5 * time.Second
	}
	return &serviceManager{deps: deps, config: config}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.deps.DB == nil || sm.deps.Repo == nil {
		return fmt.Errorf("service manager requires a database and a repository")
	}
	if sm.deps.Logger == nil {
		sm.deps.Logger = slog.Default()
	}
	if sm.deps.Validator == nil {
		sm.deps.Validator = validator.New()
	}

	sm.deps.Logger.Info("Initializing service manager")

	d := sm.deps
	sm.catalogService = NewCatalogService(d.Repo, d.DB, d.Logger, d.Validator, d.Publisher, sm.config.CatalogPageSize)
	sm.enrollmentService = NewEnrollmentService(d.Repo, d.DB, d.Logger, d.Validator, d.Publisher)
	sm.submissionService = NewSubmissionService(d.Repo, d.DB, d.Logger, d.Validator, d.Publisher, d.Attachments)
	sm.quizService = NewQuizService(d.Repo, d.DB, d.Logger, d.Validator, d.Publisher)
	sm.profileService = NewProfileService(d.Repo, d.DB, d.Logger, d.Validator, sm.config.AdminEmails)
	sm.reportService = NewReportService(d.Repo, d.DB, d.Logger)

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")
	return nil
}

func (sm *serviceManager) mustBeReady() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

func (sm *serviceManager) Catalog() CatalogService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.catalogService
}

func (sm *serviceManager) Enrollment() EnrollmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.enrollmentService
}

func (sm *serviceManager) Submission() SubmissionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.submissionService
}

func (sm *serviceManager) Quiz() QuizService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.quizService
}

func (sm *serviceManager) Profile() ProfileService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.profileService
}

func (sm *serviceManager) Report() ReportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.reportService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	ctx, cancel := context.WithTimeout(ctx, sm.config.HealthTimeout)
	defer cancel()

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

// Shutdown closes the event publisher, then the repository
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	var firstErr error
	if sm.deps.Publisher != nil {
		if err := sm.deps.Publisher.Close(); err != nil {
			sm.deps.Logger.Error("Failed to close event publisher", "error", err)
			firstErr = err
		}
	}
	if err := sm.deps.Repo.Close(); err != nil {
		sm.deps.Logger.Error("Failed to close repository", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")
	return firstErr
}
