package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/internal/validator"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultPassingScore applies when a quiz is created without one
const DefaultPassingScore = 70

type quizService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewQuizService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) QuizService {
	return &quizService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: publisher,
	}
}

func (s *quizService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return runInTx(ctx, s.db, fn)
}

// ===== QUIZZES =====

func (s *quizService) ListQuizzes(ctx context.Context, actor Actor, courseID string) ([]*QuizResponse, error) {
	if _, err := loadVisibleCourse(ctx, s.repo, s.db, actor, courseID); err != nil {
		return nil, err
	}

	quizzes, err := s.repo.Quiz().GetByCourse(ctx, s.db, courseID)
	if err != nil {
		return nil, translateStoreError(err, "list quizzes", ResourceQuiz, "")
	}

	responses := make([]*QuizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		questions, err := s.repo.QuizQuestion().GetByQuiz(ctx, s.db, quiz.ID)
		if err != nil {
			return nil, translateStoreError(err, "list questions", ResourceQuestion, "")
		}
		values := make([]models.QuizQuestion, len(questions))
		for i, q := range questions {
			values[i] = *q
		}
		response := buildQuizResponse(actor, quiz, values)
		// Listings carry the summary only
		response.Quiz.Questions = nil
		responses = append(responses, response)
	}
	return responses, nil
}

func (s *quizService) GetQuiz(ctx context.Context, actor Actor, id string) (*QuizResponse, error) {
	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, s.db, id)
	if err != nil {
		return nil, translateStoreError(err, "get quiz", ResourceQuiz, id)
	}
	if _, err := loadVisibleCourse(ctx, s.repo, s.db, actor, quiz.CourseID); err != nil {
		if IsNotFound(err) {
			return nil, NewNotFoundError(ResourceQuiz, id)
		}
		return nil, err
	}
	return buildQuizResponse(actor, quiz, quiz.Questions), nil
}

func (s *quizService) CreateQuiz(ctx context.Context, actor Actor, req *CreateQuizRequest) (*QuizResponse, error) {
	s.logger.Info("Creating quiz", "actor_id", actor.UserID, "course_id", req.CourseID, "title", req.Title, "questions", len(req.Questions))

	if err := requireAdmin(actor, ResourceQuiz, "", "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		CourseID:         req.CourseID,
		LessonID:         trimmedOrNil(req.LessonID),
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		PassingScore:     DefaultPassingScore,
		TimeLimitMinutes: req.TimeLimitMinutes,
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}

	var questions []models.QuizQuestion
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Course().GetByID(ctx, tx, req.CourseID); err != nil {
			return translateStoreError(err, "get course", ResourceCourse, req.CourseID)
		}
		if err := checkLessonInCourse(ctx, s.repo, tx, quiz.LessonID, req.CourseID); err != nil {
			return err
		}
		if err := s.repo.Quiz().Create(ctx, tx, quiz); err != nil {
			return err
		}

		for i := range req.Questions {
			question := newQuestion(quiz.ID, &req.Questions[i])
			if err := s.repo.QuizQuestion().Create(ctx, tx, question); err != nil {
				return err
			}
			questions = append(questions, *question)
		}
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err, "create quiz", ResourceQuiz, "")
	}

	quiz.Questions = questions
	s.logger.Info("Quiz created successfully", "quiz_id", quiz.ID)
	return buildQuizResponse(actor, quiz, questions), nil
}

func (s *quizService) UpdateQuiz(ctx context.Context, actor Actor, id string, req *UpdateQuizRequest) (*QuizResponse, error) {
	if err := requireAdmin(actor, ResourceQuiz, id, "update"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var quiz *models.Quiz
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		quiz, err = s.repo.Quiz().GetByIDWithQuestions(ctx, tx, id)
		if err != nil {
			return err
		}

		if req.LessonID != nil {
			quiz.LessonID = trimmedOrNil(req.LessonID)
			if err := checkLessonInCourse(ctx, s.repo, tx, quiz.LessonID, quiz.CourseID); err != nil {
				return err
			}
		}
		if req.Title != nil {
			quiz.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			quiz.Description = req.Description
		}
		if req.PassingScore != nil {
			quiz.PassingScore = *req.PassingScore
		}
		if req.TimeLimitMinutes != nil {
			quiz.TimeLimitMinutes = req.TimeLimitMinutes
		}
		return s.repo.Quiz().Update(ctx, tx, quiz)
	})
	if err != nil {
		return nil, translateStoreError(err, "update quiz", ResourceQuiz, id)
	}
	return buildQuizResponse(actor, quiz, quiz.Questions), nil
}

// DeleteQuiz removes the quiz with its questions and attempts
func (s *quizService) DeleteQuiz(ctx context.Context, actor Actor, id string) error {
	s.logger.Info("Deleting quiz", "actor_id", actor.UserID, "quiz_id", id)

	if err := requireAdmin(actor, ResourceQuiz, id, "delete"); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Quiz().GetByID(ctx, tx, id); err != nil {
			return err
		}
		return s.repo.Quiz().Delete(ctx, tx, id)
	})
	return translateStoreError(err, "delete quiz", ResourceQuiz, id)
}

// ===== QUESTIONS =====

func (s *quizService) AddQuestion(ctx context.Context, actor Actor, quizID string, req *QuizQuestionRequest) (*models.QuizQuestion, error) {
	if err := requireAdmin(actor, ResourceQuestion, "", "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	question := newQuestion(quizID, req)
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Quiz().GetByID(ctx, tx, quizID); err != nil {
			return translateStoreError(err, "get quiz", ResourceQuiz, quizID)
		}
		return s.repo.QuizQuestion().Create(ctx, tx, question)
	})
	if err != nil {
		return nil, translateStoreError(err, "add question", ResourceQuestion, "")
	}

	s.logger.Info("Question added successfully", "quiz_id", quizID, "question_id", question.ID)
	return question, nil
}

// UpdateQuestion merges the changes and re-checks the whole question
func (s *quizService) UpdateQuestion(ctx context.Context, actor Actor, id string, req *UpdateQuizQuestionRequest) (*models.QuizQuestion, error) {
	if err := requireAdmin(actor, ResourceQuestion, id, "update"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var question *models.QuizQuestion
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		question, err = s.repo.QuizQuestion().GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if req.QuestionText != nil {
			question.QuestionText = strings.TrimSpace(*req.QuestionText)
		}
		if req.Options != nil {
			question.Options = datatypes.JSONSlice[string](req.Options)
		}
		if req.CorrectAnswer != nil {
			question.CorrectAnswer = *req.CorrectAnswer
		}
		if req.Points != nil {
			question.Points = *req.Points
		}
		if req.OrderIndex != nil {
			question.OrderIndex = *req.OrderIndex
		}

		if errs := s.validator.GetBusinessValidator().ValidateQuestion(question.Options, question.CorrectAnswer, question.Points); len(errs) > 0 {
			return errs
		}
		return s.repo.QuizQuestion().Update(ctx, tx, question)
	})
	if err != nil {
		return nil, translateStoreError(err, "update question", ResourceQuestion, id)
	}
	return question, nil
}

func (s *quizService) DeleteQuestion(ctx context.Context, actor Actor, id string) error {
	if err := requireAdmin(actor, ResourceQuestion, id, "delete"); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.QuizQuestion().GetByID(ctx, tx, id); err != nil {
			return err
		}
		return s.repo.QuizQuestion().Delete(ctx, tx, id)
	})
	return translateStoreError(err, "delete question", ResourceQuestion, id)
}

// ===== ATTEMPTS =====

// SubmitAttempt scores the answers against the current questions and
// always records a new attempt
func (s *quizService) SubmitAttempt(ctx context.Context, actor Actor, quizID string, req *SubmitQuizRequest) (*models.QuizAttempt, error) {
	s.logger.Info("Submitting quiz attempt", "user_id", actor.UserID, "quiz_id", quizID, "answers", len(req.Answers))

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	answers := req.Answers
	if answers == nil {
		answers = map[string]string{}
	}

	var attempt *models.QuizAttempt
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, tx, quizID)
		if err != nil {
			return err
		}
		if _, err := requireEnrollment(ctx, s.repo, tx, actor, quiz.CourseID); err != nil {
			return err
		}

		known := make(map[string]bool, len(quiz.Questions))
		for _, q := range quiz.Questions {
			known[q.ID] = true
		}
		for questionID := range answers {
			if !known[questionID] {
				return NewValidationError("answers", "answer refers to a question outside this quiz", questionID)
			}
		}

		result := ScoreQuiz(quiz.PassingScore, quiz.Questions, answers)
		completedAt := now()
		if req.StartedAt != nil && req.StartedAt.After(completedAt) {
			return NewValidationError("started_at", "must not be in the future", req.StartedAt)
		}

		attempt = &models.QuizAttempt{
			QuizID:      quizID,
			UserID:      actor.UserID,
			Score:       result.Score,
			TotalPoints: result.TotalPoints,
			Percentage:  result.Percentage,
			Passed:      result.Passed,
			Answers:     datatypes.NewJSONType(answers),
			StartedAt:   req.StartedAt,
			CompletedAt: completedAt,
		}
		return s.repo.QuizAttempt().Create(ctx, tx, attempt)
	})
	if err != nil {
		return nil, translateStoreError(err, "submit attempt", ResourceQuiz, quizID)
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events.NewEvent(events.TopicQuizAttemptRecorded, events.QuizAttemptEvent{
		AttemptID:   attempt.ID,
		QuizID:      attempt.QuizID,
		UserID:      attempt.UserID,
		Score:       attempt.Score,
		TotalPoints: attempt.TotalPoints,
		Percentage:  attempt.Percentage,
		Passed:      attempt.Passed,
	}))

	s.logger.Info("Quiz attempt recorded",
		"attempt_id", attempt.ID,
		"score", attempt.Score,
		"total_points", attempt.TotalPoints,
		"passed", attempt.Passed)
	return attempt, nil
}

func (s *quizService) GetAttempt(ctx context.Context, actor Actor, id string) (*models.QuizAttempt, error) {
	attempt, err := s.repo.QuizAttempt().GetByID(ctx, s.db, id)
	if err != nil {
		return nil, translateStoreError(err, "get attempt", ResourceAttempt, id)
	}
	if err := requireOwnerOrAdmin(actor, attempt.UserID, ResourceAttempt, id, "read"); err != nil {
		return nil, err
	}
	return attempt, nil
}

// ListAttempts returns newest first. Learners only ever see their own.
func (s *quizService) ListAttempts(ctx context.Context, actor Actor, req *AttemptListRequest) (*models.PaginatedResponse, error) {
	userID := req.UserID
	if !actor.IsAdmin() {
		if userID != "" && userID != actor.UserID {
			return nil, NewPermissionError(actor.UserID, userID, ResourceAttempt, "list", "cannot list another user's attempts")
		}
		userID = actor.UserID
	}

	page, size, offset := normalizePage(req.Page, req.Size, DefaultPageSize)
	attempts, total, err := s.repo.QuizAttempt().List(ctx, s.db, repositories.AttemptFilters{
		QuizID:    stringPtr(req.QuizID),
		UserID:    stringPtr(userID),
		Limit:     size,
		Offset:    offset,
		SortBy:    "completed_at",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, translateStoreError(err, "list attempts", ResourceAttempt, "")
	}
	return models.NewPaginatedResponse(attempts, len(attempts), total, page, size), nil
}

func newQuestion(quizID string, req *QuizQuestionRequest) *models.QuizQuestion {
	return &models.QuizQuestion{
		QuizID:        quizID,
		QuestionText:  strings.TrimSpace(req.QuestionText),
		Options:       datatypes.JSONSlice[string](req.Options),
		CorrectAnswer: req.CorrectAnswer,
		Points:        req.Points,
		OrderIndex:    req.OrderIndex,
	}
}

// buildQuizResponse strips correct answers for everyone but admins
func buildQuizResponse(actor Actor, quiz *models.Quiz, questions []models.QuizQuestion) *QuizResponse {
	response := &QuizResponse{Quiz: quiz, QuestionCount: len(questions)}
	for _, q := range questions {
		response.TotalPoints += q.Points
	}

	if actor.IsAdmin() {
		return response
	}

	visible := *quiz
	visible.Questions = make([]models.QuizQuestion, len(quiz.Questions))
	for i, q := range quiz.Questions {
		q.CorrectAnswer = ""
		visible.Questions[i] = q
	}
	response.Quiz = &visible
	return response
}
