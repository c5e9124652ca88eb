package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const gradebookSheet = "Gradebook"

type reportService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewReportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) ReportService {
	return &reportService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// gradebook is everything needed to render one course's grades
type gradebook struct {
	course      *models.Course
	rows        []*models.GradebookRow
	quizzes     []*models.Quiz
	assignments []*models.Assignment
}

func (s *reportService) GetGradebook(ctx context.Context, actor Actor, courseID string) ([]*models.GradebookRow, error) {
	book, err := s.loadGradebook(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	return book.rows, nil
}

// ExportGradebook renders the gradebook as an xlsx workbook with one row per
// enrollment and one column per quiz and assignment
func (s *reportService) ExportGradebook(ctx context.Context, actor Actor, courseID string) (*GradebookExport, error) {
	s.logger.Info("Exporting gradebook", "actor_id", actor.UserID, "course_id", courseID)

	book, err := s.loadGradebook(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}

	data, err := renderGradebook(book)
	if err != nil {
		return nil, &StoreError{Op: "render gradebook", Err: err}
	}

	s.logger.Info("Gradebook exported successfully", "course_id", courseID, "rows", len(book.rows), "bytes", len(data))
	return &GradebookExport{
		FileName: fmt.Sprintf("gradebook-%s-%s.xlsx", book.course.Slug, time.Now().UTC().Format("20060102")),
		Data:     data,
	}, nil
}

func (s *reportService) loadGradebook(ctx context.Context, actor Actor, courseID string) (*gradebook, error) {
	if err := requireAdmin(actor, ResourceReport, courseID, "read"); err != nil {
		return nil, err
	}

	course, err := s.repo.Course().GetByID(ctx, s.db, courseID)
	if err != nil {
		return nil, translateStoreError(err, "get course", ResourceCourse, courseID)
	}

	book := &gradebook{course: course}
	var (
		enrollments      []*models.Enrollment
		quizBest         map[string]map[string]int
		assignmentScores map[string]map[string]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		enrollments, err = s.repo.Enrollment().GetByCourse(gctx, s.db, courseID)
		return err
	})
	g.Go(func() error {
		var err error
		book.quizzes, err = s.repo.Quiz().GetByCourse(gctx, s.db, courseID)
		return err
	})
	g.Go(func() error {
		var err error
		book.assignments, err = s.repo.Assignment().GetByCourse(gctx, s.db, courseID)
		return err
	})
	g.Go(func() error {
		var err error
		quizBest, err = s.repo.Report().BestQuizPercentages(gctx, s.db, courseID)
		return err
	})
	g.Go(func() error {
		var err error
		assignmentScores, err = s.repo.Report().ReviewedAssignmentScores(gctx, s.db, courseID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, translateStoreError(err, "load gradebook", ResourceReport, courseID)
	}

	book.rows = make([]*models.GradebookRow, 0, len(enrollments))
	for _, enrollment := range enrollments {
		row := &models.GradebookRow{
			UserID:             enrollment.UserID,
			Status:             enrollment.Status,
			ProgressPercentage: enrollment.ProgressPercentage,
			EnrolledAt:         enrollment.EnrolledAt,
			QuizBest:           quizBest[enrollment.UserID],
			AssignmentScores:   assignmentScores[enrollment.UserID],
		}
		if enrollment.Profile != nil {
			row.FullName = enrollment.Profile.FullName
			row.Email = enrollment.Profile.Email
		}
		if row.QuizBest == nil {
			row.QuizBest = map[string]int{}
		}
		if row.AssignmentScores == nil {
			row.AssignmentScores = map[string]int{}
		}
		book.rows = append(book.rows, row)
	}
	return book, nil
}

func renderGradebook(book *gradebook) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", gradebookSheet); err != nil {
		return nil, err
	}

	header := []interface{}{"Student", "Email", "Status", "Progress %", "Enrolled At"}
	for _, quiz := range book.quizzes {
		header = append(header, "Quiz: "+quiz.Title)
	}
	for _, assignment := range book.assignments {
		header = append(header, fmt.Sprintf("Assignment: %s (/%d)", assignment.Title, assignment.MaxScore))
	}
	if err := f.SetSheetRow(gradebookSheet, "A1", &header); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(gradebookSheet, "A1", lastHeader, bold); err != nil {
		return nil, err
	}

	for i, row := range book.rows {
		values := []interface{}{
			row.FullName,
			row.Email,
			string(row.Status),
			row.ProgressPercentage,
			row.EnrolledAt.Format(time.RFC3339),
		}
		// Blank cells for quizzes never attempted and assignments not yet reviewed
		for _, quiz := range book.quizzes {
			values = append(values, optionalCell(row.QuizBest, quiz.ID))
		}
		for _, assignment := range book.assignments {
			values = append(values, optionalCell(row.AssignmentScores, assignment.ID))
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(gradebookSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func optionalCell(values map[string]int, key string) interface{} {
	if v, ok := values[key]; ok {
		return v
	}
	return ""
}
