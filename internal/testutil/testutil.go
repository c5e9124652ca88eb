// Package testutil wires an in-memory SQLite database and fixtures for tests
// that exercise the real gorm repositories.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/course-service/pkg"
)

// Logger discards everything
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewDB opens a private in-memory database with foreign keys enforced and the
// full schema migrated. A single connection keeps every query on the same
// memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := pkg.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

// NewRedis starts a miniredis server that lives for the test
func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// NewRepository builds the production repository on db. redisClient may be nil.
func NewRepository(db *gorm.DB, redisClient *redis.Client) repositories.Repository {
	return postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db, RedisClient: redisClient})
}

// ===== FIXTURES =====

func CreateProfile(t *testing.T, db *gorm.DB, role models.UserRole) *models.Profile {
	t.Helper()

	id := uuid.NewString()
	profile := &models.Profile{
		ID:       id,
		Email:    id[:8] + "@example.com",
		FullName: "User " + id[:8],
		Role:     role,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("Failed to create profile: %v", err)
	}
	return profile
}

func CreateCourse(t *testing.T, db *gorm.DB, createdBy string, published bool) *models.Course {
	t.Helper()

	id := uuid.NewString()
	course := &models.Course{
		ID:             id,
		Slug:           "course-" + id[:8],
		Title:          "Course " + id[:8],
		Description:    "Test course",
		InstructorName: "Ada Lovelace",
		Level:          models.LevelBeginner,
		IsPublished:    published,
		CreatedBy:      createdBy,
	}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("Failed to create course: %v", err)
	}
	return course
}

func CreateLesson(t *testing.T, db *gorm.DB, courseID string, orderIndex int, freePreview bool) *models.Lesson {
	t.Helper()

	lesson := &models.Lesson{
		CourseID:        courseID,
		Title:           fmt.Sprintf("Lesson %d", orderIndex),
		VideoURL:        fmt.Sprintf("https://videos.example.com/%s/%d.mp4", courseID, orderIndex),
		OrderIndex:      orderIndex,
		DurationMinutes: 10,
		IsFreePreview:   freePreview,
	}
	if err := db.Create(lesson).Error; err != nil {
		t.Fatalf("Failed to create lesson: %v", err)
	}
	return lesson
}

func CreateBatch(t *testing.T, db *gorm.DB, courseID string) *models.Batch {
	t.Helper()

	batch := &models.Batch{
		CourseID:  courseID,
		Name:      "Spring cohort",
		StartDate: time.Now().UTC().AddDate(0, 0, 7),
	}
	if err := db.Create(batch).Error; err != nil {
		t.Fatalf("Failed to create batch: %v", err)
	}
	return batch
}

func CreateEnrollment(t *testing.T, db *gorm.DB, userID, courseID string) *models.Enrollment {
	t.Helper()

	enrollment := &models.Enrollment{
		UserID:   userID,
		CourseID: courseID,
		Status:   models.EnrollmentActive,
	}
	if err := db.Create(enrollment).Error; err != nil {
		t.Fatalf("Failed to create enrollment: %v", err)
	}
	return enrollment
}

func CreateAssignment(t *testing.T, db *gorm.DB, courseID string, maxScore int) *models.Assignment {
	t.Helper()

	assignment := &models.Assignment{
		CourseID:    courseID,
		Title:       "Essay",
		Description: "Write an essay",
		MaxScore:    maxScore,
	}
	if err := db.Create(assignment).Error; err != nil {
		t.Fatalf("Failed to create assignment: %v", err)
	}
	return assignment
}
