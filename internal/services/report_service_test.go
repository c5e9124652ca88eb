package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/testutil"
)

type gradebookFixture struct {
	env        *testEnv
	admin      *models.Profile
	alice      *models.Profile
	bob        *models.Profile
	course     *models.Course
	quiz       *models.Quiz
	assignment *models.Assignment
}

func newGradebookFixture(t *testing.T) *gradebookFixture {
	t.Helper()

	env := newTestEnv(t)
	f := &gradebookFixture{
		env:   env,
		admin: testutil.CreateProfile(t, env.db, models.RoleAdmin),
		alice: testutil.CreateProfile(t, env.db, models.RoleStudent),
		bob:   testutil.CreateProfile(t, env.db, models.RoleStudent),
	}
	f.course = testutil.CreateCourse(t, env.db, f.admin.ID, true)
	testutil.CreateEnrollment(t, env.db, f.alice.ID, f.course.ID)
	testutil.CreateEnrollment(t, env.db, f.bob.ID, f.course.ID)

	f.quiz = &models.Quiz{ID: uuid.NewString(), CourseID: f.course.ID, Title: "Basics", PassingScore: 70}
	if err := env.db.Create(f.quiz).Error; err != nil {
		t.Fatalf("Failed to create quiz: %v", err)
	}
	f.assignment = testutil.CreateAssignment(t, env.db, f.course.ID, 50)

	now := time.Now().UTC()
	for _, percentage := range []int{40, 90, 75} {
		attempt := &models.QuizAttempt{
			QuizID:      f.quiz.ID,
			UserID:      f.alice.ID,
			Score:       percentage,
			TotalPoints: 100,
			Percentage:  percentage,
			Passed:      percentage >= 70,
			CompletedAt: now,
		}
		if err := env.db.Create(attempt).Error; err != nil {
			t.Fatalf("Failed to create attempt: %v", err)
		}
	}

	score := 42
	reviewer := f.admin.ID
	submissions := []*models.AssignmentSubmission{
		{AssignmentID: f.assignment.ID, UserID: f.alice.ID, Score: &score, SubmittedAt: now, ReviewedAt: &now, ReviewedBy: &reviewer},
		{AssignmentID: f.assignment.ID, UserID: f.bob.ID, SubmissionText: strPtr("pending"), SubmittedAt: now},
	}
	for _, submission := range submissions {
		if err := env.db.Create(submission).Error; err != nil {
			t.Fatalf("Failed to create submission: %v", err)
		}
	}
	return f
}

func TestGetGradebook(t *testing.T) {
	ctx := context.Background()
	f := newGradebookFixture(t)
	svc := f.env.manager.Report()

	rows, err := svc.GetGradebook(ctx, actorFor(f.admin), f.course.ID)
	if err != nil {
		t.Fatalf("Failed to get gradebook: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}

	byUser := make(map[string]*models.GradebookRow, len(rows))
	for _, row := range rows {
		byUser[row.UserID] = row
	}

	alice := byUser[f.alice.ID]
	if alice == nil {
		t.Fatalf("Missing row for %s", f.alice.ID)
	}
	if alice.Email != f.alice.Email || alice.FullName != f.alice.FullName {
		t.Fatalf("Unexpected identity on row: %+v", alice)
	}
	if got := alice.QuizBest[f.quiz.ID]; got != 90 {
		t.Fatalf("Expected best quiz percentage 90, got %d", got)
	}
	if got := alice.AssignmentScores[f.assignment.ID]; got != 42 {
		t.Fatalf("Expected assignment score 42, got %d", got)
	}

	bob := byUser[f.bob.ID]
	if bob == nil {
		t.Fatalf("Missing row for %s", f.bob.ID)
	}
	if bob.QuizBest == nil || bob.AssignmentScores == nil {
		t.Fatalf("Expected empty maps, got %+v", bob)
	}
	if _, ok := bob.AssignmentScores[f.assignment.ID]; ok {
		t.Fatalf("Unreviewed submission must not appear in the gradebook")
	}
	if len(bob.QuizBest) != 0 {
		t.Fatalf("Expected no quiz results for bob, got %v", bob.QuizBest)
	}
}

func TestGradebookAccess(t *testing.T) {
	ctx := context.Background()
	f := newGradebookFixture(t)
	svc := f.env.manager.Report()

	_, err := svc.GetGradebook(ctx, actorFor(f.alice), f.course.ID)
	expectPermissionError(t, err)

	_, err = svc.ExportGradebook(ctx, actorFor(f.bob), f.course.ID)
	expectPermissionError(t, err)

	_, err = svc.GetGradebook(ctx, actorFor(f.admin), uuid.NewString())
	if !IsNotFound(err) {
		t.Fatalf("Expected not found, got %v", err)
	}
}

func TestExportGradebook(t *testing.T) {
	ctx := context.Background()
	f := newGradebookFixture(t)
	svc := f.env.manager.Report()

	export, err := svc.ExportGradebook(ctx, actorFor(f.admin), f.course.ID)
	if err != nil {
		t.Fatalf("Failed to export gradebook: %v", err)
	}

	wantName := "gradebook-" + f.course.Slug + "-"
	if !strings.HasPrefix(export.FileName, wantName) || !strings.HasSuffix(export.FileName, ".xlsx") {
		t.Fatalf("Unexpected file name %q", export.FileName)
	}

	book, err := excelize.OpenReader(bytes.NewReader(export.Data))
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer book.Close()

	rows, err := book.GetRows("Gradebook")
	if err != nil {
		t.Fatalf("Failed to read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header and 2 rows, got %d", len(rows))
	}

	wantHeader := []string{"Student", "Email", "Status", "Progress %", "Enrolled At", "Quiz: Basics", "Assignment: Essay (/50)"}
	if strings.Join(rows[0], "|") != strings.Join(wantHeader, "|") {
		t.Fatalf("Unexpected header %v", rows[0])
	}

	found := false
	for _, row := range rows[1:] {
		if len(row) > 1 && row[1] == f.alice.Email {
			found = true
			if len(row) < 7 || row[5] != "90" || row[6] != "42" {
				t.Fatalf("Unexpected row for alice: %v", row)
			}
		}
	}
	if !found {
		t.Fatalf("Row for %s not exported", f.alice.Email)
	}
}
