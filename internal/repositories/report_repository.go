package repositories

import (
	"context"

	"gorm.io/gorm"
)

// ReportRepository holds the aggregate queries behind the gradebook export
type ReportRepository interface {
	// BestQuizPercentages returns user id -> quiz id -> best attempt percentage
	BestQuizPercentages(ctx context.Context, tx *gorm.DB, courseID string) (map[string]map[string]int, error)

	// ReviewedAssignmentScores returns user id -> assignment id -> score for reviewed submissions
	ReviewedAssignmentScores(ctx context.Context, tx *gorm.DB, courseID string) (map[string]map[string]int, error)
}

// Data structures for report rows

type QuizBestRow struct {
	UserID     string `json:"user_id"`
	QuizID     string `json:"quiz_id"`
	Percentage int    `json:"percentage"`
}

type AssignmentScoreRow struct {
	UserID       string `json:"user_id"`
	AssignmentID string `json:"assignment_id"`
	Score        int    `json:"score"`
}
