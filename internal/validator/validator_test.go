package validator

import (
	"testing"
	"time"

	"github.com/SAP-F-2025/course-service/internal/models"
)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func hasField(errs ValidationErrors, field, rule string) bool {
	for _, e := range errs {
		if e.Field == field && (rule == "" || e.Rule == rule) {
			return true
		}
	}
	return false
}

func TestValidateRequests(t *testing.T) {
	v := New()
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	before := start.AddDate(0, 0, -1)

	tests := []struct {
		name    string
		request interface{}
		field   string
		rule    string
	}{
		{
			name:    "valid course",
			request: &CourseCreateRequest{Title: "Go 101", InstructorName: "Rob", Level: models.LevelBeginner, Tags: []string{"go"}},
		},
		{
			name:    "course title without letters",
			request: &CourseCreateRequest{Title: "!!!", InstructorName: "Rob", Level: models.LevelBeginner},
			field:   "title",
			rule:    "slug_source",
		},
		{
			name:    "unknown level",
			request: &CourseCreateRequest{Title: "Go", InstructorName: "Rob", Level: "expert"},
			field:   "level",
			rule:    "course_level",
		},
		{
			name:    "negative price",
			request: &CourseCreateRequest{Title: "Go", InstructorName: "Rob", Level: models.LevelAdvanced, Price: -1},
			field:   "price",
			rule:    "gte",
		},
		{
			name:    "blank instructor",
			request: &CourseCreateRequest{Title: "Go", InstructorName: "   ", Level: models.LevelAdvanced},
			field:   "instructor_name",
			rule:    "not_blank",
		},
		{
			name:    "category id must be a uuid",
			request: &CourseCreateRequest{Title: "Go", InstructorName: "Rob", Level: models.LevelBeginner, CategoryID: strPtr("abc")},
			field:   "category_id",
			rule:    "uuid",
		},
		{
			name:    "batch ending before it starts",
			request: &BatchCreateRequest{Name: "Spring", StartDate: start, EndDate: &before},
			field:   "end_date",
			rule:    "end_after_start",
		},
		{
			name:    "batch without end",
			request: &BatchCreateRequest{Name: "Spring", StartDate: start},
		},
		{
			name:    "negative watch time",
			request: &WatchTimeRequest{Seconds: -5},
			field:   "seconds",
			rule:    "gte",
		},
		{
			name:    "passing score above 100",
			request: &QuizCreateRequest{CourseID: "c1", Title: "Quiz", PassingScore: intPtr(101)},
			field:   "passing_score",
			rule:    "passing_score",
		},
		{
			name:    "passing score of zero",
			request: &QuizCreateRequest{CourseID: "c1", Title: "Quiz", PassingScore: intPtr(0)},
		},
		{
			name: "correct answer outside options",
			request: &QuizCreateRequest{CourseID: "c1", Title: "Quiz", Questions: []QuizQuestionRequest{
				{QuestionText: "2 + 2?", Options: []string{"3", "4"}, CorrectAnswer: "5", Points: 1},
			}},
			field: "correct_answer",
			rule:  "correct_answer",
		},
		{
			name:    "duplicate options",
			request: &QuizQuestionRequest{QuestionText: "Pick", Options: []string{"a", "a"}, CorrectAnswer: "a", Points: 1},
			field:   "options",
			rule:    "unique",
		},
		{
			name:    "unknown role",
			request: &SetRoleRequest{Role: "owner"},
			field:   "role",
			rule:    "user_role",
		},
		{
			name:    "avatar must be a url",
			request: &UpdateProfileRequest{AvatarURL: strPtr("nope")},
			field:   "avatar_url",
			rule:    "url",
		},
		{
			name:    "assignment max score",
			request: &AssignmentCreateRequest{CourseID: "c1", Title: "Essay", MaxScore: 0},
			field:   "max_score",
			rule:    "required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.request)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Expected valid request, got %v", err)
				}
				return
			}
			errs, ok := err.(ValidationErrors)
			if !ok {
				t.Fatalf("Expected ValidationErrors, got %T: %v", err, err)
			}
			if !hasField(errs, tt.field, tt.rule) {
				t.Fatalf("Expected %s failure on %s, got %+v", tt.rule, tt.field, errs)
			}
		})
	}
}

func TestValidateQuestion(t *testing.T) {
	bv := NewBusinessValidator()

	tests := []struct {
		name    string
		options []string
		answer  string
		points  int
		fields  []string
	}{
		{"valid", []string{"a", "b"}, "b", 2, nil},
		{"single option", []string{"a"}, "a", 1, []string{"options"}},
		{"answer removed by update", []string{"a", "b"}, "c", 1, []string{"correct_answer"}},
		{"blank option and zero points", []string{"a", " "}, "a", 0, []string{"options", "points"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := bv.ValidateQuestion(tt.options, tt.answer, tt.points)
			if len(tt.fields) == 0 && len(errs) > 0 {
				t.Fatalf("Expected no errors, got %+v", errs)
			}
			for _, field := range tt.fields {
				if !hasField(errs, field, "") {
					t.Fatalf("Expected error on %s, got %+v", field, errs)
				}
			}
		})
	}
}

func TestValidateSubmissionContent(t *testing.T) {
	bv := NewBusinessValidator()

	if errs := bv.ValidateSubmissionContent(strPtr("  "), nil); !hasField(errs, "submission", "required_one_of") {
		t.Fatalf("Expected blank submission to fail, got %+v", errs)
	}
	if errs := bv.ValidateSubmissionContent(nil, strPtr("https://example.com/essay.pdf")); len(errs) != 0 {
		t.Fatalf("Expected url submission to pass, got %+v", errs)
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	if got := (ValidationErrors{}).Error(); got != "validation failed" {
		t.Fatalf("Unexpected message %q", got)
	}
	one := ValidationErrors{{Field: "title", Message: "is required"}}
	if got := one.Error(); got != "validation failed: title is required" {
		t.Fatalf("Unexpected message %q", got)
	}
	two := append(one, ValidationError{Field: "level"})
	if got := two.Error(); got != "validation failed: 2 field errors" {
		t.Fatalf("Unexpected message %q", got)
	}
}
