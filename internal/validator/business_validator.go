package validator

import (
	"strings"
	"time"
	"unicode"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates struct tags and struct level rules
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateBatchDates requires end to be on or after start
func (bv *BusinessValidator) ValidateBatchDates(start time.Time, end *time.Time) ValidationErrors {
	if end != nil && end.Before(start) {
		return ValidationErrors{{
			Field:   "end_date",
			Message: "must not be before start_date",
			Value:   end,
			Rule:    "end_after_start",
		}}
	}
	return nil
}

// ValidateQuestion checks a question after a partial update has been merged
func (bv *BusinessValidator) ValidateQuestion(options []string, correctAnswer string, points int) ValidationErrors {
	var errors ValidationErrors

	if len(options) < 2 {
		errors = append(errors, ValidationError{
			Field:   "options",
			Message: "must have at least 2 options",
			Value:   len(options),
			Rule:    "min",
		})
	}

	seen := make(map[string]bool, len(options))
	for _, opt := range options {
		if strings.TrimSpace(opt) == "" {
			errors = append(errors, ValidationError{
				Field:   "options",
				Message: "option cannot be empty",
				Value:   opt,
				Rule:    "not_blank",
			})
			continue
		}
		if seen[opt] {
			errors = append(errors, ValidationError{
				Field:   "options",
				Message: "must not contain duplicates",
				Value:   opt,
				Rule:    "unique",
			})
		}
		seen[opt] = true
	}

	if !seen[correctAnswer] {
		errors = append(errors, ValidationError{
			Field:   "correct_answer",
			Message: "must be one of the options",
			Value:   correctAnswer,
			Rule:    "correct_answer",
		})
	}

	if points <= 0 {
		errors = append(errors, ValidationError{
			Field:   "points",
			Message: "must be at least 1",
			Value:   points,
			Rule:    "min",
		})
	}

	return errors
}

// ValidateSubmissionContent requires text or url to carry something
func (bv *BusinessValidator) ValidateSubmissionContent(text, url *string) ValidationErrors {
	if isBlank(text) && isBlank(url) {
		return ValidationErrors{{
			Field:   "submission",
			Message: "submission_text or submission_url is required",
			Rule:    "required_one_of",
		}}
	}
	return nil
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("course_level", func(fl validator.FieldLevel) bool {
		return models.CourseLevel(fl.Field().String()).IsValid()
	})

	// Passing score validation (0-100)
	bv.validate.RegisterValidation("passing_score", func(fl validator.FieldLevel) bool {
		score := fl.Field().Int()
		return score >= 0 && score <= 100
	})

	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).IsValid()
	})

	// A slug is derived from the value, so it needs at least one letter or digit
	bv.validate.RegisterValidation("slug_source", func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		}) >= 0
	})

	bv.validate.RegisterValidation("not_blank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	bv.validate.RegisterStructValidation(func(sl validator.StructLevel) {
		q := sl.Current().Interface().(QuizQuestionRequest)
		for _, opt := range q.Options {
			if opt == q.CorrectAnswer {
				return
			}
		}
		sl.ReportError(q.CorrectAnswer, "correct_answer", "CorrectAnswer", "correct_answer", "")
	}, QuizQuestionRequest{})

	bv.validate.RegisterStructValidation(func(sl validator.StructLevel) {
		b := sl.Current().Interface().(BatchCreateRequest)
		if b.EndDate != nil && b.EndDate.Before(b.StartDate) {
			sl.ReportError(b.EndDate, "end_date", "EndDate", "end_after_start", "")
		}
	}, BatchCreateRequest{})
}
