package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"gorm.io/gorm"
)

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) repositories.ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *reportRepository) BestQuizPercentages(ctx context.Context, tx *gorm.DB, courseID string) (map[string]map[string]int, error) {
	db := r.getDB(tx).WithContext(ctx)
	var rows []repositories.QuizBestRow

	err := db.Model(&models.QuizAttempt{}).
		Select("user_id, quiz_id, MAX(percentage) AS percentage").
		Where("quiz_id IN (?)", db.Model(&models.Quiz{}).Select("id").Where("course_id = ?", courseID)).
		Group("user_id, quiz_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get best quiz percentages: %w", err)
	}

	result := make(map[string]map[string]int)
	for _, row := range rows {
		if result[row.UserID] == nil {
			result[row.UserID] = make(map[string]int)
		}
		result[row.UserID][row.QuizID] = row.Percentage
	}
	return result, nil
}

func (r *reportRepository) ReviewedAssignmentScores(ctx context.Context, tx *gorm.DB, courseID string) (map[string]map[string]int, error) {
	db := r.getDB(tx).WithContext(ctx)
	var rows []repositories.AssignmentScoreRow

	err := db.Model(&models.AssignmentSubmission{}).
		Select("user_id, assignment_id, score").
		Where("reviewed_at IS NOT NULL AND score IS NOT NULL").
		Where("assignment_id IN (?)", db.Model(&models.Assignment{}).Select("id").Where("course_id = ?", courseID)).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment scores: %w", err)
	}

	result := make(map[string]map[string]int)
	for _, row := range rows {
		if result[row.UserID] == nil {
			result[row.UserID] = make(map[string]int)
		}
		result[row.UserID][row.AssignmentID] = row.Score
	}
	return result, nil
}
