package services

import (
	"context"
	"testing"

	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/testutil"
)

func TestEnroll(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Enrollment()

	admin := testutil.CreateProfile(t, env.db, models.RoleAdmin)
	student := testutil.CreateProfile(t, env.db, models.RoleStudent)
	course := testutil.CreateCourse(t, env.db, admin.ID, true)
	draft := testutil.CreateCourse(t, env.db, admin.ID, false)
	otherCourse := testutil.CreateCourse(t, env.db, admin.ID, true)
	batch := testutil.CreateBatch(t, env.db, course.ID)
	foreignBatch := testutil.CreateBatch(t, env.db, otherCourse.ID)

	t.Run("creates an active enrollment", func(t *testing.T) {
		enrollment, err := svc.Enroll(ctx, actorFor(student), &EnrollRequest{CourseID: course.ID, BatchID: &batch.ID})
		if err != nil {
			t.Fatalf("Failed to enroll: %v", err)
		}
		if enrollment.Status != models.EnrollmentActive || enrollment.ProgressPercentage != 0 {
			t.Fatalf("Unexpected enrollment state: %+v", enrollment)
		}
		if enrollment.BatchID == nil || *enrollment.BatchID != batch.ID {
			t.Fatalf("Expected batch %s, got %v", batch.ID, enrollment.BatchID)
		}

		created := env.publisher.EventsOfType(events.TopicEnrollmentCreated)
		if len(created) != 1 {
			t.Fatalf("Expected 1 enrollment.created event, got %d", len(created))
		}
		payload := created[0].Data.(events.EnrollmentEvent)
		if payload.EnrollmentID != enrollment.ID || payload.UserID != student.ID {
			t.Fatalf("Unexpected event payload: %+v", payload)
		}
	})

	t.Run("second enrollment conflicts", func(t *testing.T) {
		_, err := svc.Enroll(ctx, actorFor(student), &EnrollRequest{CourseID: course.ID})
		if !IsConflict(err) {
			t.Fatalf("Expected conflict, got %v", err)
		}
	})

	t.Run("unpublished course is hidden", func(t *testing.T) {
		_, err := svc.Enroll(ctx, actorFor(student), &EnrollRequest{CourseID: draft.ID})
		if !IsNotFound(err) {
			t.Fatalf("Expected not found, got %v", err)
		}
	})

	t.Run("batch must belong to the course", func(t *testing.T) {
		_, err := svc.Enroll(ctx, actorFor(student), &EnrollRequest{CourseID: otherCourse.ID, BatchID: &foreignBatch.ID})
		if err != nil {
			t.Fatalf("Failed to enroll with own batch: %v", err)
		}

		other := testutil.CreateProfile(t, env.db, models.RoleStudent)
		_, err = svc.Enroll(ctx, actorFor(other), &EnrollRequest{CourseID: course.ID, BatchID: &foreignBatch.ID})
		expectValidationError(t, err, "batch_id")
	})

	t.Run("anonymous callers cannot enroll", func(t *testing.T) {
		_, err := svc.Enroll(ctx, Actor{}, &EnrollRequest{CourseID: course.ID})
		expectPermissionError(t, err)
	})

	t.Run("course id is required", func(t *testing.T) {
		_, err := svc.Enroll(ctx, actorFor(student), &EnrollRequest{})
		expectValidationError(t, err, "course_id")
	})
}

func TestToggleLessonComplete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Enrollment()

	admin := testutil.CreateProfile(t, env.db, models.RoleAdmin)
	student := testutil.CreateProfile(t, env.db, models.RoleStudent)
	course := testutil.CreateCourse(t, env.db, admin.ID, true)
	first := testutil.CreateLesson(t, env.db, course.ID, 1, true)
	second := testutil.CreateLesson(t, env.db, course.ID, 2, false)
	testutil.CreateEnrollment(t, env.db, student.ID, course.ID)
	actor := actorFor(student)

	steps := []struct {
		name          string
		lessonID      string
		wantCompleted bool
		wantPercent   int
		wantStatus    models.EnrollmentStatus
	}{
		{"complete first lesson", first.ID, true, 50, models.EnrollmentActive},
		{"undo first lesson", first.ID, false, 0, models.EnrollmentActive},
		{"complete first again", first.ID, true, 50, models.EnrollmentActive},
		{"complete second finishes course", second.ID, true, 100, models.EnrollmentCompleted},
		{"undo keeps completed status", second.ID, false, 50, models.EnrollmentCompleted},
	}

	for _, step := range steps {
		result, err := svc.ToggleLessonComplete(ctx, actor, step.lessonID)
		if err != nil {
			t.Fatalf("%s: failed to toggle: %v", step.name, err)
		}
		if result.Progress.Completed != step.wantCompleted {
			t.Fatalf("%s: completed = %v, want %v", step.name, result.Progress.Completed, step.wantCompleted)
		}
		if step.wantCompleted && result.Progress.CompletedAt == nil {
			t.Fatalf("%s: completed_at not set", step.name)
		}
		if !step.wantCompleted && result.Progress.CompletedAt != nil {
			t.Fatalf("%s: completed_at not cleared", step.name)
		}
		if result.Enrollment.ProgressPercentage != step.wantPercent {
			t.Fatalf("%s: progress = %d, want %d", step.name, result.Enrollment.ProgressPercentage, step.wantPercent)
		}
		if result.Enrollment.Status != step.wantStatus {
			t.Fatalf("%s: status = %s, want %s", step.name, result.Enrollment.Status, step.wantStatus)
		}
	}

	completed := env.publisher.EventsOfType(events.TopicEnrollmentCompleted)
	if len(completed) != 1 {
		t.Fatalf("Expected exactly 1 enrollment.completed event, got %d", len(completed))
	}

	t.Run("requires enrollment", func(t *testing.T) {
		outsider := testutil.CreateProfile(t, env.db, models.RoleStudent)
		_, err := svc.ToggleLessonComplete(ctx, actorFor(outsider), first.ID)
		expectBusinessRule(t, err, "enrollment_required")
	})

	t.Run("unknown lesson", func(t *testing.T) {
		_, err := svc.ToggleLessonComplete(ctx, actor, "missing")
		if !IsNotFound(err) {
			t.Fatalf("Expected not found, got %v", err)
		}
	})
}

func TestRecomputeProgress(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Enrollment()

	admin := testutil.CreateProfile(t, env.db, models.RoleAdmin)
	student := testutil.CreateProfile(t, env.db, models.RoleStudent)
	course := testutil.CreateCourse(t, env.db, admin.ID, true)
	lessons := []*models.Lesson{
		testutil.CreateLesson(t, env.db, course.ID, 1, false),
		testutil.CreateLesson(t, env.db, course.ID, 2, false),
		testutil.CreateLesson(t, env.db, course.ID, 3, false),
	}
	enrollment := testutil.CreateEnrollment(t, env.db, student.ID, course.ID)

	// Progress written behind the service's back
	if err := env.db.Create(&models.LessonProgress{UserID: student.ID, LessonID: lessons[0].ID, Completed: true}).Error; err != nil {
		t.Fatalf("Failed to seed progress: %v", err)
	}

	got, err := svc.RecomputeProgress(ctx, actorFor(student), enrollment.ID)
	if err != nil {
		t.Fatalf("Failed to recompute: %v", err)
	}
	if got.ProgressPercentage != 33 {
		t.Fatalf("Expected 33%%, got %d", got.ProgressPercentage)
	}

	t.Run("admin may recompute", func(t *testing.T) {
		if _, err := svc.RecomputeProgress(ctx, actorFor(admin), enrollment.ID); err != nil {
			t.Fatalf("Failed to recompute as admin: %v", err)
		}
	})

	t.Run("other learners may not", func(t *testing.T) {
		other := testutil.CreateProfile(t, env.db, models.RoleStudent)
		_, err := svc.RecomputeProgress(ctx, actorFor(other), enrollment.ID)
		expectPermissionError(t, err)
	})
}

func TestRecordWatchTime(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Enrollment()

	admin := testutil.CreateProfile(t, env.db, models.RoleAdmin)
	student := testutil.CreateProfile(t, env.db, models.RoleStudent)
	course := testutil.CreateCourse(t, env.db, admin.ID, true)
	lesson := testutil.CreateLesson(t, env.db, course.ID, 1, false)
	testutil.CreateEnrollment(t, env.db, student.ID, course.ID)
	actor := actorFor(student)

	reports := []struct {
		seconds int
		want    int
	}{
		{120, 120},
		{60, 120},
		{300, 300},
	}
	for _, r := range reports {
		progress, err := svc.RecordWatchTime(ctx, actor, lesson.ID, &WatchTimeRequest{Seconds: r.seconds})
		if err != nil {
			t.Fatalf("Failed to record %d seconds: %v", r.seconds, err)
		}
		if progress.WatchTimeSeconds != r.want {
			t.Fatalf("After %d seconds got %d, want %d", r.seconds, progress.WatchTimeSeconds, r.want)
		}
		if progress.Completed {
			t.Fatalf("Watch time must not complete the lesson")
		}
	}

	_, err := svc.RecordWatchTime(ctx, actor, lesson.ID, &WatchTimeRequest{Seconds: -1})
	expectValidationError(t, err, "seconds")
}

func TestDropEnrollment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Enrollment()

	admin := testutil.CreateProfile(t, env.db, models.RoleAdmin)
	student := testutil.CreateProfile(t, env.db, models.RoleStudent)
	course := testutil.CreateCourse(t, env.db, admin.ID, true)
	enrollment := testutil.CreateEnrollment(t, env.db, student.ID, course.ID)

	t.Run("admins cannot drop for a learner", func(t *testing.T) {
		_, err := svc.DropEnrollment(ctx, actorFor(admin), enrollment.ID)
		expectPermissionError(t, err)
	})

	t.Run("owner drops", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			dropped, err := svc.DropEnrollment(ctx, actorFor(student), enrollment.ID)
			if err != nil {
				t.Fatalf("Failed to drop (call %d): %v", i+1, err)
			}
			if dropped.Status != models.EnrollmentDropped {
				t.Fatalf("Expected dropped, got %s", dropped.Status)
			}
		}
	})

	t.Run("completed enrollment stays", func(t *testing.T) {
		finisher := testutil.CreateProfile(t, env.db, models.RoleStudent)
		done := testutil.CreateEnrollment(t, env.db, finisher.ID, course.ID)
		if err := env.db.Model(done).Update("status", models.EnrollmentCompleted).Error; err != nil {
			t.Fatalf("Failed to complete enrollment: %v", err)
		}
		_, err := svc.DropEnrollment(ctx, actorFor(finisher), done.ID)
		expectBusinessRule(t, err, "enrollment_completed")
	})
}

func TestCourseProgressAndDashboard(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Enrollment()

	admin := testutil.CreateProfile(t, env.db, models.RoleAdmin)
	student := testutil.CreateProfile(t, env.db, models.RoleStudent)
	first := testutil.CreateCourse(t, env.db, admin.ID, true)
	second := testutil.CreateCourse(t, env.db, admin.ID, true)
	lesson := testutil.CreateLesson(t, env.db, first.ID, 1, false)
	testutil.CreateLesson(t, env.db, first.ID, 2, false)
	testutil.CreateEnrollment(t, env.db, student.ID, first.ID)
	testutil.CreateEnrollment(t, env.db, student.ID, second.ID)
	actor := actorFor(student)

	if _, err := svc.ToggleLessonComplete(ctx, actor, lesson.ID); err != nil {
		t.Fatalf("Failed to toggle: %v", err)
	}

	progress, err := svc.GetCourseProgress(ctx, actor, first.ID)
	if err != nil {
		t.Fatalf("Failed to get course progress: %v", err)
	}
	if progress.TotalLessons != 2 || progress.CompletedLessons != 1 {
		t.Fatalf("Expected 1 of 2 lessons, got %d of %d", progress.CompletedLessons, progress.TotalLessons)
	}
	if progress.Lessons[0].Progress == nil || progress.Lessons[1].Progress != nil {
		t.Fatalf("Progress rows not attached to the right lessons")
	}

	if _, err := svc.GetCourseProgress(ctx, Actor{UserID: admin.ID, Role: models.RoleAdmin}, first.ID); !IsNotFound(err) {
		t.Fatalf("Expected not found without enrollment, got %v", err)
	}

	dashboard, err := svc.GetDashboard(ctx, actor)
	if err != nil {
		t.Fatalf("Failed to get dashboard: %v", err)
	}
	if dashboard.TotalEnrollments != 2 || dashboard.ActiveEnrollments != 2 {
		t.Fatalf("Unexpected counts: %+v", dashboard)
	}
	// (50 + 0) / 2
	if dashboard.AverageProgress != 25 {
		t.Fatalf("Expected average 25, got %d", dashboard.AverageProgress)
	}
	if len(dashboard.Enrollments) != 2 {
		t.Fatalf("Expected 2 enrollments, got %d", len(dashboard.Enrollments))
	}
}

func TestListEnrollments(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.manager.Enrollment()

	admin := testutil.CreateProfile(t, env.db, models.RoleAdmin)
	student := testutil.CreateProfile(t, env.db, models.RoleStudent)
	course := testutil.CreateCourse(t, env.db, admin.ID, true)
	for i := 0; i < 3; i++ {
		learner := testutil.CreateProfile(t, env.db, models.RoleStudent)
		testutil.CreateEnrollment(t, env.db, learner.ID, course.ID)
	}
	testutil.CreateEnrollment(t, env.db, student.ID, course.ID)

	page, err := svc.ListEnrollments(ctx, actorFor(admin), &EnrollmentListRequest{CourseID: course.ID, Size: 2})
	if err != nil {
		t.Fatalf("Failed to list enrollments: %v", err)
	}
	if page.TotalCount != 4 || page.NumberOfElements != 2 || page.TotalPages != 2 {
		t.Fatalf("Unexpected page: %+v", page)
	}

	if _, err := svc.ListEnrollments(ctx, actorFor(student), &EnrollmentListRequest{}); err == nil {
		t.Fatalf("Expected students to be rejected")
	}

	_, err = svc.ListEnrollments(ctx, actorFor(admin), &EnrollmentListRequest{Status: "paused"})
	expectValidationError(t, err, "status")

	mine, err := svc.ListMyEnrollments(ctx, actorFor(student), 1, 10)
	if err != nil {
		t.Fatalf("Failed to list own enrollments: %v", err)
	}
	if mine.TotalCount != 1 {
		t.Fatalf("Expected 1 own enrollment, got %d", mine.TotalCount)
	}
}
