package services

import (
	"math"

	"github.com/SAP-F-2025/course-service/internal/models"
)

// QuizResult is the outcome of scoring one set of answers
type QuizResult struct {
	Score       int  `json:"score"`
	TotalPoints int  `json:"total_points"`
	Percentage  int  `json:"percentage"`
	Passed      bool `json:"passed"`
}

// ScoreQuiz awards each question's points when the chosen option equals the
// correct answer. A quiz worth zero points scores 0% and never passes.
func ScoreQuiz(passingScore int, questions []models.QuizQuestion, answers map[string]string) QuizResult {
	var result QuizResult
	for _, q := range questions {
		result.TotalPoints += q.Points
		if chosen, ok := answers[q.ID]; ok && chosen == q.CorrectAnswer {
			result.Score += q.Points
		}
	}

	if result.TotalPoints == 0 {
		return result
	}

	result.Percentage = roundPercent(result.Score, result.TotalPoints)
	result.Passed = result.Percentage >= passingScore
	return result
}

// ProgressPercentage is round(100 * completed / total), 0 without lessons
func ProgressPercentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed > total {
		completed = total
	}
	return roundPercent(completed, total)
}

func roundPercent(part, whole int) int {
	return int(math.Round(100 * float64(part) / float64(whole)))
}

// ClampScore keeps a review score within [0, maxScore]
func ClampScore(score, maxScore int) int {
	return max(0, min(score, maxScore))
}
