package services

import (
	"context"
	"testing"
	"time"

	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/testutil"
)

func TestCategories(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Catalog()

	admin := testutil.CreateProfile(t, env.db, models.RoleAdmin)
	student := testutil.CreateProfile(t, env.db, models.RoleStudent)

	category, err := svc.CreateCategory(ctx, actorFor(admin), &CreateCategoryRequest{Name: " Web Development "})
	if err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}
	if category.Name != "Web Development" || category.Slug != "web-development" {
		t.Fatalf("Unexpected category: %+v", category)
	}

	t.Run("duplicate slug", func(t *testing.T) {
		_, err := svc.CreateCategory(ctx, actorFor(admin), &CreateCategoryRequest{Name: "web development"})
		if !IsConflict(err) {
			t.Fatalf("Expected conflict, got %v", err)
		}
	})

	t.Run("students cannot manage categories", func(t *testing.T) {
		_, err := svc.CreateCategory(ctx, actorFor(student), &CreateCategoryRequest{Name: "Mine"})
		expectPermissionError(t, err)
	})

	t.Run("name needs a letter or digit", func(t *testing.T) {
		_, err := svc.CreateCategory(ctx, actorFor(admin), &CreateCategoryRequest{Name: "!!!"})
		expectValidationError(t, err, "name")
	})

	t.Run("rename updates the slug", func(t *testing.T) {
		name := "Frontend"
		updated, err := svc.UpdateCategory(ctx, actorFor(admin), category.ID, &UpdateCategoryRequest{Name: &name})
		if err != nil {
			t.Fatalf("Failed to update category: %v", err)
		}
		if updated.Slug != "frontend" {
			t.Fatalf("Expected slug frontend, got %s", updated.Slug)
		}
	})

	t.Run("delete detaches courses", func(t *testing.T) {
		course, err := svc.CreateCourse(ctx, actorFor(admin), &CreateCourseRequest{
			Title:          "React Basics",
			InstructorName: "Dan",
			Level:          models.LevelBeginner,
			CategoryID:     &category.ID,
		})
		if err != nil {
			t.Fatalf("Failed to create course: %v", err)
		}

		if err := svc.DeleteCategory(ctx, actorFor(admin), category.ID); err != nil {
			t.Fatalf("Failed to delete category: %v", err)
		}

		detached, err := svc.GetCourse(ctx, actorFor(admin), course.ID)
		if err != nil {
			t.Fatalf("Failed to get course: %v", err)
		}
		if detached.CategoryID != nil {
			t.Fatalf("Expected course without category, got %v", *detached.CategoryID)
		}

		categories, err := svc.ListCategories(ctx)
		if err != nil {
			t.Fatalf("Failed to list categories: %v", err)
		}
		if len(categories) != 0 {
			t.Fatalf("Expected no categories, got %d", len(categories))
		}
	})
}

func TestCreateCourse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Catalog()

	admin := testutil.CreateProfile(t, env.db, models.RoleAdmin)
	missing := "00000000-0000-0000-0000-000000000000"

	course, err := svc.CreateCourse(ctx, actorFor(admin), &CreateCourseRequest{
		Title:          "Go for Gophers!",
		InstructorName: " Rob ",
		Price:          49.5,
		Level:          models.LevelIntermediate,
		Tags:           []string{"go", " Go ", "backend"},
		IsPublished:    true,
	})
	if err != nil {
		t.Fatalf("Failed to create course: %v", err)
	}
	if course.Slug != "go-for-gophers" || course.InstructorName != "Rob" || course.CreatedBy != admin.ID {
		t.Fatalf("Unexpected course: %+v", course.Course)
	}
	if len(course.Tags) != 2 {
		t.Fatalf("Expected deduplicated tags, got %v", course.Tags)
	}
	if !course.CanEdit {
		t.Fatalf("Admin should be able to edit")
	}

	tests := []struct {
		name  string
		req   CreateCourseRequest
		check func(t *testing.T, err error)
	}{
		{
			name: "same title conflicts",
			req:  CreateCourseRequest{Title: "Go for gophers", InstructorName: "Rob", Level: models.LevelBeginner},
			check: func(t *testing.T, err error) {
				if !IsConflict(err) {
					t.Fatalf("Expected conflict, got %v", err)
				}
			},
		},
		{
			name: "unknown category",
			req:  CreateCourseRequest{Title: "Orphan", InstructorName: "Rob", Level: models.LevelBeginner, CategoryID: &missing},
			check: func(t *testing.T, err error) {
				expectValidationError(t, err, "category_id")
			},
		},
		{
			name: "invalid level",
			req:  CreateCourseRequest{Title: "Levels", InstructorName: "Rob", Level: "expert"},
			check: func(t *testing.T, err error) {
				expectValidationError(t, err, "level")
			},
		},
		{
			name: "negative price",
			req:  CreateCourseRequest{Title: "Refunds", InstructorName: "Rob", Level: models.LevelBeginner, Price: -1},
			check: func(t *testing.T, err error) {
				expectValidationError(t, err, "price")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCourse(ctx, actorFor(admin), &tt.req)
			tt.check(t, err)
		})
	}

	t.Run("update keeps slug unique", func(t *testing.T) {
		other, err := svc.CreateCourse(ctx, actorFor(admin), &CreateCourseRequest{Title: "Rust", InstructorName: "Ferris", Level: models.LevelAdvanced})
		if err != nil {
			t.Fatalf("Failed to create course: %v", err)
		}
		title := "Go for Gophers"
		_, err = svc.UpdateCourse(ctx, actorFor(admin), other.ID, &UpdateCourseRequest{Title: &title})
		if !IsConflict(err) {
			t.Fatalf("Expected conflict, got %v", err)
		}

		title = "Rust in Action"
		price := 10.0
		updated, err := svc.UpdateCourse(ctx, actorFor(admin), other.ID, &UpdateCourseRequest{Title: &title, Price: &price})
		if err != nil {
			t.Fatalf("Failed to update course: %v", err)
		}
		if updated.Slug != "rust-in-action" || updated.Price != 10 {
			t.Fatalf("Unexpected course: %+v", updated.Course)
		}

		bySlug, err := svc.GetCourseBySlug(ctx, actorFor(admin), "rust-in-action")
		if err != nil {
			t.Fatalf("Failed to get by slug: %v", err)
		}
		if bySlug.ID != other.ID {
			t.Fatalf("Slug resolved to %s, want %s", bySlug.ID, other.ID)
		}
	})
}

func TestSearchCourses(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Catalog()

	admin := testutil.CreateProfile(t, env.db, models.RoleAdmin)
	student := testutil.CreateProfile(t, env.db, models.RoleStudent)
	category, err := svc.CreateCategory(ctx, actorFor(admin), &CreateCategoryRequest{Name: "Data"})
	if err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}

	seed := []CreateCourseRequest{
		{Title: "Alpha SQL", InstructorName: "Edgar", Price: 30, Level: models.LevelBeginner, CategoryID: &category.ID, Tags: []string{"databases"}, IsPublished: true},
		{Title: "Beta Python", InstructorName: "Guido", Price: 10, Level: models.LevelIntermediate, CategoryID: &category.ID, IsPublished: true},
		{Title: "Gamma Go", InstructorName: "Rob", Price: 20, Level: models.LevelAdvanced, Tags: []string{"concurrency"}, IsPublished: true},
		{Title: "Delta Draft", InstructorName: "Rob", Price: 5, Level: models.LevelBeginner, IsPublished: false},
	}
	for i := range seed {
		if _, err := svc.CreateCourse(ctx, actorFor(admin), &seed[i]); err != nil {
			t.Fatalf("Failed to seed course %s: %v", seed[i].Title, err)
		}
	}

	published := false
	tests := []struct {
		name      string
		actor     Actor
		req       CourseSearchRequest
		wantTotal int64
		wantFirst string
	}{
		{"students see published only", actorFor(student), CourseSearchRequest{}, 3, "Alpha SQL"},
		{"anonymous sees published only", Actor{}, CourseSearchRequest{}, 3, "Alpha SQL"},
		{"admins see everything", actorFor(admin), CourseSearchRequest{}, 4, "Alpha SQL"},
		{"admins can filter drafts", actorFor(admin), CourseSearchRequest{Published: &published}, 1, "Delta Draft"},
		{"students cannot see drafts", actorFor(student), CourseSearchRequest{Published: &published}, 3, "Alpha SQL"},
		{"term matches title", Actor{}, CourseSearchRequest{Term: "python"}, 1, "Beta Python"},
		{"term matches instructor", Actor{}, CourseSearchRequest{Term: "ROB"}, 1, "Gamma Go"},
		{"term matches tag", Actor{}, CourseSearchRequest{Term: "concurrency"}, 1, "Gamma Go"},
		{"term is not a wildcard", Actor{}, CourseSearchRequest{Term: "%"}, 0, ""},
		{"category filter", Actor{}, CourseSearchRequest{Category: category.ID}, 2, "Alpha SQL"},
		{"category all", Actor{}, CourseSearchRequest{Category: "all"}, 3, "Alpha SQL"},
		{"level filter", Actor{}, CourseSearchRequest{Level: "Advanced"}, 1, "Gamma Go"},
		{"level all", Actor{}, CourseSearchRequest{Level: "all"}, 3, "Alpha SQL"},
		{"price ascending", Actor{}, CourseSearchRequest{Sort: "price_asc"}, 3, "Beta Python"},
		{"price descending", Actor{}, CourseSearchRequest{Sort: "price-high"}, 3, "Alpha SQL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			page, err := svc.SearchCourses(ctx, tt.actor, &req)
			if err != nil {
				t.Fatalf("Failed to search: %v", err)
			}
			if page.TotalCount != tt.wantTotal {
				t.Fatalf("Expected %d results, got %d", tt.wantTotal, page.TotalCount)
			}
			content := page.Content.([]*CourseResponse)
			if tt.wantFirst == "" {
				if len(content) != 0 {
					t.Fatalf("Expected no content, got %d", len(content))
				}
				return
			}
			if len(content) == 0 || content[0].Title != tt.wantFirst {
				t.Fatalf("Expected first result %q, got %+v", tt.wantFirst, content)
			}
		})
	}

	t.Run("invalid options", func(t *testing.T) {
		_, err := svc.SearchCourses(ctx, Actor{}, &CourseSearchRequest{Level: "expert"})
		expectValidationError(t, err, "level")
		_, err = svc.SearchCourses(ctx, Actor{}, &CourseSearchRequest{Sort: "popularity"})
		expectValidationError(t, err, "sort")
	})

	t.Run("default page size", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			testutil.CreateCourse(t, env.db, admin.ID, true)
		}
		page, err := svc.SearchCourses(ctx, Actor{}, &CourseSearchRequest{})
		if err != nil {
			t.Fatalf("Failed to search: %v", err)
		}
		if page.Size != DefaultCatalogPageSize || page.NumberOfElements != DefaultCatalogPageSize || page.TotalPages != 2 {
			t.Fatalf("Unexpected page: size=%d elements=%d pages=%d", page.Size, page.NumberOfElements, page.TotalPages)
		}
	})

	t.Run("pages partition the result set", func(t *testing.T) {
		first, err := svc.SearchCourses(ctx, actorFor(student), &CourseSearchRequest{Page: 1})
		if err != nil {
			t.Fatalf("Failed to search: %v", err)
		}
		total := first.TotalCount

		seen := make(map[string]bool)
		for number := 1; number <= first.TotalPages+1; number++ {
			page, err := svc.SearchCourses(ctx, actorFor(student), &CourseSearchRequest{Page: number})
			if err != nil {
				t.Fatalf("Failed to search page %d: %v", number, err)
			}
			if page.TotalCount != total {
				t.Fatalf("Page %d reports total %d, first page reported %d", number, page.TotalCount, total)
			}
			if page.Size != DefaultCatalogPageSize {
				t.Fatalf("Page %d has size %d", number, page.Size)
			}
			for _, course := range page.Content.([]*CourseResponse) {
				if seen[course.ID] {
					t.Fatalf("Course %s appears on more than one page", course.ID)
				}
				if !course.IsPublished {
					t.Fatalf("Draft %s leaked into the catalog", course.ID)
				}
				seen[course.ID] = true
			}
		}
		if int64(len(seen)) != total {
			t.Fatalf("Pages cover %d courses, total_count is %d", len(seen), total)
		}
	})

	t.Run("enrollment flag", func(t *testing.T) {
		first, err := svc.SearchCourses(ctx, actorFor(student), &CourseSearchRequest{Term: "alpha"})
		if err != nil {
			t.Fatalf("Failed to search: %v", err)
		}
		course := first.Content.([]*CourseResponse)[0]
		testutil.CreateEnrollment(t, env.db, student.ID, course.ID)

		again, err := svc.SearchCourses(ctx, actorFor(student), &CourseSearchRequest{Term: "alpha"})
		if err != nil {
			t.Fatalf("Failed to search: %v", err)
		}
		if !again.Content.([]*CourseResponse)[0].IsEnrolled {
			t.Fatalf("Expected is_enrolled after enrolling")
		}
	})
}

func TestLessonVisibility(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Catalog()

	admin := testutil.CreateProfile(t, env.db, models.RoleAdmin)
	enrolled := testutil.CreateProfile(t, env.db, models.RoleStudent)
	visitor := testutil.CreateProfile(t, env.db, models.RoleStudent)
	course := testutil.CreateCourse(t, env.db, admin.ID, true)
	draft := testutil.CreateCourse(t, env.db, admin.ID, false)
	testutil.CreateLesson(t, env.db, course.ID, 1, true)
	paid := testutil.CreateLesson(t, env.db, course.ID, 2, false)
	testutil.CreateEnrollment(t, env.db, enrolled.ID, course.ID)

	tests := []struct {
		name       string
		actor      Actor
		wantLocked bool
	}{
		{"admin", actorFor(admin), false},
		{"enrolled learner", actorFor(enrolled), false},
		{"visitor", actorFor(visitor), true},
		{"anonymous", Actor{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response, err := svc.GetCourse(ctx, tt.actor, course.ID)
			if err != nil {
				t.Fatalf("Failed to get course: %v", err)
			}
			if len(response.Lessons) != 2 {
				t.Fatalf("Expected 2 lessons, got %d", len(response.Lessons))
			}
			if response.Lessons[0].Locked || response.Lessons[0].VideoURL == "" {
				t.Fatalf("Free preview must stay playable")
			}
			locked := response.Lessons[1]
			if locked.Locked != tt.wantLocked || (locked.VideoURL == "") != tt.wantLocked {
				t.Fatalf("locked=%v video=%q, want locked=%v", locked.Locked, locked.VideoURL, tt.wantLocked)
			}

			lesson, err := svc.GetLesson(ctx, tt.actor, paid.ID)
			if err != nil {
				t.Fatalf("Failed to get lesson: %v", err)
			}
			if lesson.Locked != tt.wantLocked {
				t.Fatalf("GetLesson locked=%v, want %v", lesson.Locked, tt.wantLocked)
			}
		})
	}

	// The stored lesson keeps its video after a locked read
	stored, err := svc.GetLesson(ctx, actorFor(admin), paid.ID)
	if err != nil || stored.VideoURL == "" {
		t.Fatalf("Locked read leaked into storage: %v %+v", err, stored)
	}

	t.Run("drafts are hidden", func(t *testing.T) {
		if _, err := svc.GetCourse(ctx, actorFor(visitor), draft.ID); !IsNotFound(err) {
			t.Fatalf("Expected not found, got %v", err)
		}
		if _, err := svc.GetCourseBySlug(ctx, Actor{}, draft.Slug); !IsNotFound(err) {
			t.Fatalf("Expected not found by slug, got %v", err)
		}
		if _, err := svc.ListLessons(ctx, actorFor(visitor), draft.ID); !IsNotFound(err) {
			t.Fatalf("Expected not found for lessons, got %v", err)
		}
		if _, err := svc.GetCourse(ctx, actorFor(admin), draft.ID); err != nil {
			t.Fatalf("Admins must see drafts: %v", err)
		}
	})

}

func TestLessonChangesRecomputeProgress(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	catalog := env.manager.Catalog()
	enrollments := env.manager.Enrollment()

	admin := testutil.CreateProfile(t, env.db, models.RoleAdmin)
	student := testutil.CreateProfile(t, env.db, models.RoleStudent)
	course := testutil.CreateCourse(t, env.db, admin.ID, true)
	first := testutil.CreateLesson(t, env.db, course.ID, 1, false)
	second := testutil.CreateLesson(t, env.db, course.ID, 2, false)
	third := testutil.CreateLesson(t, env.db, course.ID, 3, false)
	enrollment := testutil.CreateEnrollment(t, env.db, student.ID, course.ID)

	for _, lesson := range []*models.Lesson{first, second} {
		if _, err := enrollments.ToggleLessonComplete(ctx, actorFor(student), lesson.ID); err != nil {
			t.Fatalf("Failed to toggle: %v", err)
		}
	}

	current := func() *models.Enrollment {
		t.Helper()
		got, err := enrollments.GetEnrollment(ctx, actorFor(student), enrollment.ID)
		if err != nil {
			t.Fatalf("Failed to get enrollment: %v", err)
		}
		return got
	}
	if got := current().ProgressPercentage; got != 67 {
		t.Fatalf("Expected 67%%, got %d", got)
	}

	if err := catalog.DeleteLesson(ctx, actorFor(admin), third.ID); err != nil {
		t.Fatalf("Failed to delete lesson: %v", err)
	}
	after := current()
	if after.ProgressPercentage != 100 || after.Status != models.EnrollmentCompleted || after.CompletedAt == nil {
		t.Fatalf("Expected completion after deleting the last open lesson: %+v", after)
	}
	if got := len(env.publisher.EventsOfType(events.TopicEnrollmentCompleted)); got != 1 {
		t.Fatalf("Expected 1 completion event, got %d", got)
	}

	if err := catalog.DeleteLesson(ctx, actorFor(admin), first.ID); err != nil {
		t.Fatalf("Failed to delete lesson: %v", err)
	}
	var rows int64
	if err := env.db.Model(&models.LessonProgress{}).Where("lesson_id = ?", first.ID).Count(&rows).Error; err != nil {
		t.Fatalf("Failed to count progress: %v", err)
	}
	if rows != 0 {
		t.Fatalf("Expected progress rows of the deleted lesson to be gone, found %d", rows)
	}

	if _, err := catalog.CreateLesson(ctx, actorFor(admin), course.ID, &CreateLessonRequest{Title: "Bonus", OrderIndex: 9}); err != nil {
		t.Fatalf("Failed to create lesson: %v", err)
	}
	after = current()
	if after.ProgressPercentage != 50 || after.Status != models.EnrollmentCompleted {
		t.Fatalf("Adding a lesson lowers progress but keeps completion: %+v", after)
	}

	t.Run("order index is unique per course", func(t *testing.T) {
		_, err := catalog.CreateLesson(ctx, actorFor(admin), course.ID, &CreateLessonRequest{Title: "Clash", OrderIndex: 2})
		if !IsConflict(err) {
			t.Fatalf("Expected conflict, got %v", err)
		}
	})
}

func TestBatches(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Catalog()

	admin := testutil.CreateProfile(t, env.db, models.RoleAdmin)
	course := testutil.CreateCourse(t, env.db, admin.ID, true)
	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	before := start.AddDate(0, 0, -1)

	_, err := svc.CreateBatch(ctx, actorFor(admin), course.ID, &CreateBatchRequest{Name: "Winter", StartDate: start, EndDate: &before})
	expectValidationError(t, err, "end_date")

	batch, err := svc.CreateBatch(ctx, actorFor(admin), course.ID, &CreateBatchRequest{Name: "Winter", StartDate: start})
	if err != nil {
		t.Fatalf("Failed to create batch: %v", err)
	}

	_, err = svc.UpdateBatch(ctx, actorFor(admin), batch.ID, &UpdateBatchRequest{EndDate: &before})
	expectValidationError(t, err, "end_date")

	batches, err := svc.ListBatches(ctx, Actor{}, course.ID)
	if err != nil {
		t.Fatalf("Failed to list batches: %v", err)
	}
	if len(batches) != 1 {
		t.Fatalf("Expected 1 batch, got %d", len(batches))
	}

	if _, err := svc.CreateBatch(ctx, actorFor(admin), "missing", &CreateBatchRequest{Name: "Ghost", StartDate: start}); !IsNotFound(err) {
		t.Fatalf("Expected not found, got %v", err)
	}
}

func TestDeleteCourseRemovesDependents(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Catalog()

	admin := testutil.CreateProfile(t, env.db, models.RoleAdmin)
	student := testutil.CreateProfile(t, env.db, models.RoleStudent)
	course := testutil.CreateCourse(t, env.db, admin.ID, true)
	lesson := testutil.CreateLesson(t, env.db, course.ID, 1, false)
	testutil.CreateBatch(t, env.db, course.ID)
	testutil.CreateAssignment(t, env.db, course.ID, 10)
	testutil.CreateEnrollment(t, env.db, student.ID, course.ID)
	if _, err := env.manager.Enrollment().ToggleLessonComplete(ctx, actorFor(student), lesson.ID); err != nil {
		t.Fatalf("Failed to toggle: %v", err)
	}

	expectPermissionError(t, svc.DeleteCourse(ctx, actorFor(student), course.ID))

	unchanged, err := svc.GetCourse(ctx, actorFor(admin), course.ID)
	if err != nil {
		t.Fatalf("Rejected delete removed the course: %v", err)
	}
	if unchanged.Title != course.Title || unchanged.LessonCount != 1 {
		t.Fatalf("Rejected delete changed the course: %+v", unchanged)
	}
	dependents := []struct {
		model  interface{}
		column string
		id     string
	}{
		{&models.Lesson{}, "course_id", course.ID},
		{&models.Batch{}, "course_id", course.ID},
		{&models.Assignment{}, "course_id", course.ID},
		{&models.Enrollment{}, "course_id", course.ID},
		{&models.LessonProgress{}, "lesson_id", lesson.ID},
	}
	for _, d := range dependents {
		var count int64
		if err := env.db.Model(d.model).Where(d.column+" = ?", d.id).Count(&count).Error; err != nil {
			t.Fatalf("Failed to count %T: %v", d.model, err)
		}
		if count != 1 {
			t.Fatalf("Rejected delete touched %T rows: %d left", d.model, count)
		}
	}

	if err := svc.DeleteCourse(ctx, actorFor(admin), course.ID); err != nil {
		t.Fatalf("Failed to delete course: %v", err)
	}

	for _, model := range []interface{}{&models.Lesson{}, &models.Batch{}, &models.Assignment{}, &models.Enrollment{}, &models.LessonProgress{}} {
		var count int64
		if err := env.db.Model(model).Count(&count).Error; err != nil {
			t.Fatalf("Failed to count %T: %v", model, err)
		}
		if count != 0 {
			t.Fatalf("Expected no %T rows, found %d", model, count)
		}
	}

	if _, err := svc.GetCourse(ctx, actorFor(admin), course.ID); !IsNotFound(err) {
		t.Fatalf("Expected not found, got %v", err)
	}
}

func TestUnpublishingEvictsCachedCourse(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	mr, client := testutil.NewRedis(t)
	manager := NewServiceManager(ServiceDependencies{
		DB:        db,
		Repo:      testutil.NewRepository(db, client),
		Logger:    testutil.Logger(),
		Publisher: events.NewMockEventPublisher(testutil.Logger()),
	}, ServiceManagerConfig{})
	if err := manager.Initialize(ctx); err != nil {
		t.Fatalf("Failed to initialize service manager: %v", err)
	}
	svc := manager.Catalog()

	admin := testutil.CreateProfile(t, db, models.RoleAdmin)
	student := testutil.CreateProfile(t, db, models.RoleStudent)
	course := testutil.CreateCourse(t, db, admin.ID, true)

	if _, err := svc.GetCourse(ctx, actorFor(student), course.ID); err != nil {
		t.Fatalf("Failed to get course: %v", err)
	}
	if !mr.Exists("course:id:" + course.ID) {
		t.Fatalf("Expected the published course to be cached")
	}

	published := false
	if _, err := svc.UpdateCourse(ctx, actorFor(admin), course.ID, &UpdateCourseRequest{IsPublished: &published}); err != nil {
		t.Fatalf("Failed to unpublish: %v", err)
	}

	if _, err := svc.GetCourse(ctx, actorFor(student), course.ID); !IsNotFound(err) {
		t.Fatalf("Expected unpublished course to be hidden, got %v", err)
	}
	if _, err := svc.GetCourseBySlug(ctx, actorFor(student), course.Slug); !IsNotFound(err) {
		t.Fatalf("Expected unpublished course to be hidden by slug, got %v", err)
	}
}
