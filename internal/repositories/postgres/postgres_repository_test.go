package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/internal/testutil"
)

func expectCached(t *testing.T, mr *miniredis.Miniredis, key string) {
	t.Helper()
	if !mr.Exists(key) {
		t.Fatalf("Key %s was never cached", key)
	}
}

func TestCourseReadsAreCached(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	mr, client := testutil.NewRedis(t)
	repo := testutil.NewRepository(db, client)

	admin := testutil.CreateProfile(t, db, models.RoleAdmin)
	course := testutil.CreateCourse(t, db, admin.ID, true)
	testutil.CreateLesson(t, db, course.ID, 0, false)

	got, err := repo.Course().GetByID(ctx, nil, course.ID)
	if err != nil {
		t.Fatalf("Failed to get course: %v", err)
	}
	if got.LessonCount != 1 {
		t.Fatalf("Expected lesson count 1, got %d", got.LessonCount)
	}
	expectCached(t, mr, "course:id:"+course.ID)

	t.Run("reads inside a transaction bypass the cache", func(t *testing.T) {
		tx := db.Begin()
		defer tx.Rollback()
		if _, err := repo.Course().GetBySlug(ctx, tx, course.Slug); err != nil {
			t.Fatalf("Failed to read with tx: %v", err)
		}
		if mr.Exists("course:slug:" + course.Slug) {
			t.Fatalf("Transactional read must not populate the cache")
		}
	})

	t.Run("update invalidates", func(t *testing.T) {
		got.Title = "Renamed"
		got.Category = nil
		if err := repo.Course().Update(ctx, nil, got); err != nil {
			t.Fatalf("Failed to update course: %v", err)
		}
		if mr.Exists("course:id:" + course.ID) {
			t.Fatalf("Expected cached course to be invalidated")
		}
		fresh, err := repo.Course().GetByID(ctx, nil, course.ID)
		if err != nil {
			t.Fatalf("Failed to get course: %v", err)
		}
		if fresh.Title != "Renamed" {
			t.Fatalf("Expected fresh title, got %q", fresh.Title)
		}
	})

	t.Run("health", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Fatalf("Ping failed: %v", err)
		}
	})
}

func TestTransactionalInvalidationWaitsForCommit(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	mr, client := testutil.NewRedis(t)
	repo := testutil.NewRepository(db, client)

	admin := testutil.CreateProfile(t, db, models.RoleAdmin)
	course := testutil.CreateCourse(t, db, admin.ID, true)
	lesson := testutil.CreateLesson(t, db, course.ID, 0, false)

	load := func() *models.Course {
		t.Helper()
		got, err := repo.Course().GetByID(ctx, nil, course.ID)
		if err != nil {
			t.Fatalf("Failed to get course: %v", err)
		}
		if _, err := repo.Lesson().GetByCourse(ctx, nil, course.ID); err != nil {
			t.Fatalf("Failed to get lessons: %v", err)
		}
		return got
	}
	cached := load()
	expectCached(t, mr, "course:id:"+course.ID)
	expectCached(t, mr, "lesson:course:"+course.ID)

	t.Run("rolled back writes leave the cache alone", func(t *testing.T) {
		boom := errors.New("boom")
		err := repo.WithTransaction(ctx, func(tx repositories.Repository) error {
			cached.IsPublished = false
			cached.Category = nil
			if err := tx.Course().Update(ctx, nil, cached); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Expected the callback error, got %v", err)
		}
		expectCached(t, mr, "course:id:"+course.ID)
	})

	t.Run("committed writes invalidate after commit", func(t *testing.T) {
		err := repo.WithTransaction(ctx, func(tx repositories.Repository) error {
			cached.IsPublished = false
			cached.Category = nil
			if err := tx.Course().Update(ctx, nil, cached); err != nil {
				return err
			}
			if err := tx.Lesson().Delete(ctx, nil, lesson.ID); err != nil {
				return err
			}
			// until the commit the cache must keep the committed state
			if !mr.Exists("course:id:" + course.ID) {
				t.Errorf("Course cache was dropped before the commit")
			}
			// reads inside the transaction see uncommitted rows and skip the cache
			inside, err := tx.Course().GetByID(ctx, nil, course.ID)
			if err != nil {
				return err
			}
			if inside.IsPublished || inside.LessonCount != 0 {
				t.Errorf("Expected uncommitted state inside the transaction, got %+v", inside)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Transaction failed: %v", err)
		}

		for _, key := range []string{"course:id:" + course.ID, "lesson:course:" + course.ID} {
			if mr.Exists(key) {
				t.Fatalf("Expected %s to be invalidated after commit", key)
			}
		}

		fresh := load()
		if fresh.IsPublished || fresh.LessonCount != 0 {
			t.Fatalf("Expected the committed state, got %+v", fresh)
		}
	})
}

func TestWithTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := testutil.NewRepository(db, nil)

	boom := errors.New("boom")
	err := repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Category().Create(ctx, nil, &models.Category{Name: "Data", Slug: "data"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected the callback error, got %v", err)
	}

	exists, err := repo.Category().ExistsBySlug(ctx, nil, "data", "")
	if err != nil {
		t.Fatalf("Failed to check slug: %v", err)
	}
	if exists {
		t.Fatalf("Rolled back category must not exist")
	}
}

func TestStoreErrorsAreRecognisable(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := testutil.NewRepository(db, nil)

	if err := repo.Category().Create(ctx, nil, &models.Category{Name: "Design", Slug: "design"}); err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}
	err := repo.Category().Create(ctx, nil, &models.Category{Name: "Design again", Slug: "design"})
	if !repositories.IsDuplicateKeyError(err) {
		t.Fatalf("Expected duplicate key error, got %v", err)
	}

	_, err = repo.Course().GetByID(ctx, nil, "missing")
	if !repositories.IsNotFoundError(err) {
		t.Fatalf("Expected not found error, got %v", err)
	}
}

func TestCourseSearchFilters(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := testutil.NewRepository(db, nil)

	admin := testutil.CreateProfile(t, db, models.RoleAdmin)
	courses := []*models.Course{
		testutil.CreateCourse(t, db, admin.ID, true),
		testutil.CreateCourse(t, db, admin.ID, true),
		testutil.CreateCourse(t, db, admin.ID, false),
	}
	prices := []float64{30, 10, 20}
	for i, course := range courses {
		if err := db.Model(course).Update("price", prices[i]).Error; err != nil {
			t.Fatalf("Failed to set price: %v", err)
		}
	}

	published := true
	found, total, err := repo.Course().Search(ctx, nil, repositories.CourseFilters{
		Published: &published,
		SortBy:    "price",
		SortOrder: "asc",
		Limit:     10,
	})
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if total != 2 || len(found) != 2 {
		t.Fatalf("Expected 2 published courses, got %d/%d", len(found), total)
	}
	if found[0].ID != courses[1].ID {
		t.Fatalf("Expected cheapest course first, got %s", found[0].ID)
	}

	found, _, err = repo.Course().Search(ctx, nil, repositories.CourseFilters{Term: "ADA LOVE", Limit: 10})
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(found) != 3 {
		t.Fatalf("Expected instructor match on every course, got %d", len(found))
	}

	if err := db.Model(courses[0]).Update("tags", datatypes.JSONSlice[string]{"R&D", "<go>"}).Error; err != nil {
		t.Fatalf("Failed to set tags: %v", err)
	}
	tagSearches := []struct {
		term string
		want int64
	}{
		{"r&d", 1},
		{"<GO>", 1},
		{"r&", 0},
	}
	for _, tt := range tagSearches {
		found, total, err := repo.Course().Search(ctx, nil, repositories.CourseFilters{Term: tt.term, Limit: 10})
		if err != nil {
			t.Fatalf("Failed to search %q: %v", tt.term, err)
		}
		if total != tt.want {
			t.Fatalf("Search %q matched %d courses, want %d", tt.term, total, tt.want)
		}
		if tt.want == 1 && found[0].ID != courses[0].ID {
			t.Fatalf("Search %q matched %s", tt.term, found[0].ID)
		}
	}
}
