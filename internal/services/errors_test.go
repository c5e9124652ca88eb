package services

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestTranslateStoreError(t *testing.T) {
	permission := NewPermissionError("u1", "c1", ResourceCourse, "update", "not the owner")
	business := NewBusinessRuleError("enrollment_completed", "done", nil)

	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"nil stays nil", nil, func(err error) bool { return err == nil }},
		{"missing row", fmt.Errorf("get: %w", gorm.ErrRecordNotFound), IsNotFound},
		{"duplicate key", fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), IsConflict},
		{"other failure", errors.New("connection reset"), func(err error) bool {
			var storeErr *StoreError
			return errors.As(err, &storeErr) && storeErr.Op == "op" && errors.Is(err, ErrStore)
		}},
		{"permission passes through", permission, func(err error) bool { return err == permission }},
		{"business rule passes through", business, func(err error) bool { return err == business }},
		{"validation passes through", NewValidationError("title", "required", nil), func(err error) bool {
			var validationErrs ValidationErrors
			return errors.As(err, &validationErrs) && validationErrs[0].Field == "title"
		}},
		{"not found keeps its resource", NewNotFoundError(ResourceLesson, "l1"), func(err error) bool {
			var notFound *NotFoundError
			return errors.As(err, &notFound) && notFound.Resource == ResourceLesson
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateStoreError(tt.err, "op", ResourceCourse, "c1")
			if !tt.check(got) {
				t.Fatalf("Unexpected translation of %v: %v", tt.err, got)
			}
		})
	}
}
