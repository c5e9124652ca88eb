package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/internal/storage"
	"github.com/SAP-F-2025/course-service/internal/validator"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxUploadSize caps submission attachments
const MaxUploadSize = 20 << 20

type submissionService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	attachments    storage.AttachmentStore
}

func NewSubmissionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, attachments storage.AttachmentStore) SubmissionService {
	return &submissionService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: publisher,
		attachments:    attachments,
	}
}

func (s *submissionService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return runInTx(ctx, s.db, fn)
}

// ===== ASSIGNMENTS =====

func (s *submissionService) ListAssignments(ctx context.Context, actor Actor, courseID string) ([]*models.Assignment, error) {
	if _, err := loadVisibleCourse(ctx, s.repo, s.db, actor, courseID); err != nil {
		return nil, err
	}
	assignments, err := s.repo.Assignment().GetByCourse(ctx, s.db, courseID)
	if err != nil {
		return nil, translateStoreError(err, "list assignments", ResourceAssignment, "")
	}
	return assignments, nil
}

func (s *submissionService) GetAssignment(ctx context.Context, actor Actor, id string) (*models.Assignment, error) {
	assignment, err := s.repo.Assignment().GetByID(ctx, s.db, id)
	if err != nil {
		return nil, translateStoreError(err, "get assignment", ResourceAssignment, id)
	}
	if _, err := loadVisibleCourse(ctx, s.repo, s.db, actor, assignment.CourseID); err != nil {
		if IsNotFound(err) {
			return nil, NewNotFoundError(ResourceAssignment, id)
		}
		return nil, err
	}
	return assignment, nil
}

func (s *submissionService) CreateAssignment(ctx context.Context, actor Actor, req *CreateAssignmentRequest) (*models.Assignment, error) {
	s.logger.Info("Creating assignment", "actor_id", actor.UserID, "course_id", req.CourseID, "title", req.Title)

	if err := requireAdmin(actor, ResourceAssignment, "", "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		CourseID:    req.CourseID,
		LessonID:    trimmedOrNil(req.LessonID),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		MaxScore:    req.MaxScore,
		DueDate:     req.DueDate,
	}

	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Course().GetByID(ctx, tx, req.CourseID); err != nil {
			return translateStoreError(err, "get course", ResourceCourse, req.CourseID)
		}
		if err := checkLessonInCourse(ctx, s.repo, tx, assignment.LessonID, req.CourseID); err != nil {
			return err
		}
		return s.repo.Assignment().Create(ctx, tx, assignment)
	})
	if err != nil {
		return nil, translateStoreError(err, "create assignment", ResourceAssignment, "")
	}

	s.logger.Info("Assignment created successfully", "assignment_id", assignment.ID)
	return assignment, nil
}

func (s *submissionService) UpdateAssignment(ctx context.Context, actor Actor, id string, req *UpdateAssignmentRequest) (*models.Assignment, error) {
	if err := requireAdmin(actor, ResourceAssignment, id, "update"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var assignment *models.Assignment
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		assignment, err = s.repo.Assignment().GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if req.MaxScore != nil && *req.MaxScore != assignment.MaxScore {
			return NewValidationError("max_score", "max_score cannot change after creation", *req.MaxScore)
		}
		if req.LessonID != nil {
			assignment.LessonID = trimmedOrNil(req.LessonID)
			if err := checkLessonInCourse(ctx, s.repo, tx, assignment.LessonID, assignment.CourseID); err != nil {
				return err
			}
		}
		if req.Title != nil {
			assignment.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			assignment.Description = *req.Description
		}
		if req.DueDate != nil {
			assignment.DueDate = req.DueDate
		}
		return s.repo.Assignment().Update(ctx, tx, assignment)
	})
	if err != nil {
		return nil, translateStoreError(err, "update assignment", ResourceAssignment, id)
	}
	return assignment, nil
}

func (s *submissionService) DeleteAssignment(ctx context.Context, actor Actor, id string) error {
	s.logger.Info("Deleting assignment", "actor_id", actor.UserID, "assignment_id", id)

	if err := requireAdmin(actor, ResourceAssignment, id, "delete"); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Assignment().GetByID(ctx, tx, id); err != nil {
			return err
		}
		return s.repo.Assignment().Delete(ctx, tx, id)
	})
	return translateStoreError(err, "delete assignment", ResourceAssignment, id)
}

// ===== SUBMISSIONS =====

// Submit creates or replaces the caller's submission. Score, feedback and
// review stamps survive a resubmission; a reviewed submission is frozen.
func (s *submissionService) Submit(ctx context.Context, actor Actor, assignmentID string, req *SubmitAssignmentRequest) (*models.AssignmentSubmission, error) {
	s.logger.Info("Submitting assignment", "user_id", actor.UserID, "assignment_id", assignmentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateSubmissionContent(req.SubmissionText, req.SubmissionURL); len(errs) > 0 {
		return nil, errs
	}

	var submission *models.AssignmentSubmission
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		assignment, err := s.repo.Assignment().GetByID(ctx, tx, assignmentID)
		if err != nil {
			return err
		}
		if _, err := requireEnrollment(ctx, s.repo, tx, actor, assignment.CourseID); err != nil {
			return err
		}

		existing, err := s.repo.Submission().GetByAssignmentAndUser(ctx, tx, assignmentID, actor.UserID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return err
		}

		if existing == nil {
			submission = &models.AssignmentSubmission{
				AssignmentID:   assignmentID,
				UserID:         actor.UserID,
				SubmissionText: trimmedOrNil(req.SubmissionText),
				SubmissionURL:  trimmedOrNil(req.SubmissionURL),
				SubmittedAt:    now(),
			}
			return s.repo.Submission().Create(ctx, tx, submission)
		}

		if err := requireOwner(actor, existing.UserID, ResourceSubmission, existing.ID, "update"); err != nil {
			return err
		}
		if existing.IsReviewed() {
			return NewConflictError(ResourceSubmission, "submission has already been reviewed")
		}

		existing.SubmissionText = trimmedOrNil(req.SubmissionText)
		existing.SubmissionURL = trimmedOrNil(req.SubmissionURL)
		existing.SubmittedAt = now()
		submission = existing
		return s.repo.Submission().Update(ctx, tx, submission)
	})
	if err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, NewConflictError(ResourceSubmission, "a submission is already being recorded")
		}
		return nil, translateStoreError(err, "submit assignment", ResourceAssignment, assignmentID)
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events.NewEvent(events.TopicSubmissionSubmitted, events.SubmissionEvent{
		SubmissionID: submission.ID,
		AssignmentID: submission.AssignmentID,
		UserID:       submission.UserID,
	}))

	s.logger.Info("Assignment submitted successfully", "submission_id", submission.ID)
	return submission, nil
}

// UploadSubmission stores the file and submits its URL. The object is
// removed again when the submission is rejected.
func (s *submissionService) UploadSubmission(ctx context.Context, actor Actor, assignmentID string, file *FileUpload) (*models.AssignmentSubmission, error) {
	if s.attachments == nil {
		return nil, &StoreError{Op: "upload submission", Err: fmt.Errorf("attachment storage is not configured")}
	}
	if file == nil || file.Reader == nil || file.Size <= 0 {
		return nil, NewValidationError("file", "file is required", nil)
	}
	if file.Size > MaxUploadSize {
		return nil, NewValidationError("file", fmt.Sprintf("file exceeds %d bytes", MaxUploadSize), file.Size)
	}

	// Reject early so nothing lands in storage for a request that cannot succeed
	assignment, err := s.repo.Assignment().GetByID(ctx, s.db, assignmentID)
	if err != nil {
		return nil, translateStoreError(err, "get assignment", ResourceAssignment, assignmentID)
	}
	if _, err := requireEnrollment(ctx, s.repo, s.db, actor, assignment.CourseID); err != nil {
		return nil, translateStoreError(err, "get enrollment", ResourceEnrollment, "")
	}

	name := path.Join("submissions", assignmentID, actor.UserID, uuid.NewString()+strings.ToLower(path.Ext(file.Name)))
	url, err := s.attachments.Upload(ctx, name, file.Reader, file.Size, file.ContentType)
	if err != nil {
		return nil, &StoreError{Op: "upload submission", Err: err}
	}

	submission, err := s.Submit(ctx, actor, assignmentID, &SubmitAssignmentRequest{SubmissionURL: &url})
	if err != nil {
		if delErr := s.attachments.Delete(ctx, name); delErr != nil {
			s.logger.Warn("Failed to remove orphaned upload", "object", name, "error", delErr)
		}
		return nil, err
	}
	return submission, nil
}

// Review scores another learner's submission once. The score is clamped into [0, max_score].
func (s *submissionService) Review(ctx context.Context, actor Actor, submissionID string, req *ReviewSubmissionRequest) (*models.AssignmentSubmission, error) {
	s.logger.Info("Reviewing submission", "actor_id", actor.UserID, "submission_id", submissionID, "score", req.Score)

	if err := requireAdmin(actor, ResourceSubmission, submissionID, "review"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var submission *models.AssignmentSubmission
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		submission, err = s.repo.Submission().GetByID(ctx, tx, submissionID)
		if err != nil {
			return err
		}
		if err := requireReviewer(actor, submission); err != nil {
			return err
		}
		if submission.IsReviewed() {
			return NewConflictError(ResourceSubmission, "submission has already been reviewed")
		}

		assignment, err := s.repo.Assignment().GetByID(ctx, tx, submission.AssignmentID)
		if err != nil {
			return err
		}

		score := ClampScore(req.Score, assignment.MaxScore)
		stamp := now()
		reviewer := actor.UserID

		submission.Score = &score
		submission.Feedback = req.Feedback
		submission.ReviewedAt = &stamp
		submission.ReviewedBy = &reviewer
		submission.Assignment = assignment
		return s.repo.Submission().Update(ctx, tx, submission)
	})
	if err != nil {
		return nil, translateStoreError(err, "review submission", ResourceSubmission, submissionID)
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events.NewEvent(events.TopicSubmissionReviewed, events.SubmissionEvent{
		SubmissionID: submission.ID,
		AssignmentID: submission.AssignmentID,
		UserID:       submission.UserID,
		Score:        submission.Score,
		ReviewedBy:   actor.UserID,
	}))

	s.logger.Info("Submission reviewed successfully", "submission_id", submission.ID, "score", *submission.Score)
	return submission, nil
}

func (s *submissionService) GetMySubmission(ctx context.Context, actor Actor, assignmentID string) (*models.AssignmentSubmission, error) {
	submission, err := s.repo.Submission().GetByAssignmentAndUser(ctx, s.db, assignmentID, actor.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, translateStoreError(err, "get submission", ResourceSubmission, "")
	}
	return submission, nil
}

func (s *submissionService) GetSubmission(ctx context.Context, actor Actor, id string) (*models.AssignmentSubmission, error) {
	submission, err := s.repo.Submission().GetByID(ctx, s.db, id)
	if err != nil {
		return nil, translateStoreError(err, "get submission", ResourceSubmission, id)
	}
	if err := requireOwnerOrAdmin(actor, submission.UserID, ResourceSubmission, id, "read"); err != nil {
		return nil, err
	}
	return submission, nil
}

// ListSubmissions is the admin review queue, newest first
func (s *submissionService) ListSubmissions(ctx context.Context, actor Actor, req *SubmissionListRequest) (*models.PaginatedResponse, error) {
	if err := requireAdmin(actor, ResourceSubmission, "", "list"); err != nil {
		return nil, err
	}

	page, size, offset := normalizePage(req.Page, req.Size, DefaultPageSize)
	submissions, total, err := s.repo.Submission().List(ctx, s.db, repositories.SubmissionFilters{
		CourseID:     stringPtr(req.CourseID),
		AssignmentID: stringPtr(req.AssignmentID),
		UserID:       stringPtr(req.UserID),
		Reviewed:     req.Reviewed,
		Limit:        size,
		Offset:       offset,
		SortBy:       "submitted_at",
		SortOrder:    "desc",
	})
	if err != nil {
		return nil, translateStoreError(err, "list submissions", ResourceSubmission, "")
	}
	return models.NewPaginatedResponse(submissions, len(submissions), total, page, size), nil
}
