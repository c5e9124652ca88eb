package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/internal/validator"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultCatalogPageSize is the number of courses per catalog page
const DefaultCatalogPageSize = 6

type catalogService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	pageSize       int
}

func NewCatalogService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, pageSize int) CatalogService {
	if pageSize <= 0 {
		pageSize = DefaultCatalogPageSize
	}
	return &catalogService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: publisher,
		pageSize:       pageSize,
	}
}

func (s *catalogService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return runInTx(ctx, s.db, fn)
}

// ===== CATEGORIES =====

func (s *catalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.repo.Category().List(ctx, nil)
	if err != nil {
		return nil, translateStoreError(err, "list categories", ResourceCategory, "")
	}
	return categories, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, actor Actor, req *CreateCategoryRequest) (*models.Category, error) {
	s.logger.Info("Creating category", "actor_id", actor.UserID, "name", req.Name)

	if err := requireAdmin(actor, ResourceCategory, "", "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:        strings.TrimSpace(req.Name),
		Slug:        Slugify(req.Name),
		Description: req.Description,
	}

	err := s.withTx(ctx, func(tx *gorm.DB) error {
		exists, err := s.repo.Category().ExistsBySlug(ctx, tx, category.Slug, "")
		if err != nil {
			return err
		}
		if exists {
			return NewConflictError(ResourceCategory, fmt.Sprintf("slug %q is already taken", category.Slug))
		}
		return s.repo.Category().Create(ctx, tx, category)
	})
	if err != nil {
		return nil, translateStoreError(err, "create category", ResourceCategory, "")
	}

	s.logger.Info("Category created successfully", "category_id", category.ID)
	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, actor Actor, id string, req *UpdateCategoryRequest) (*models.Category, error) {
	if err := requireAdmin(actor, ResourceCategory, id, "update"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var category *models.Category
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		category, err = s.repo.Category().GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			category.Name = strings.TrimSpace(*req.Name)
			category.Slug = Slugify(*req.Name)
			exists, err := s.repo.Category().ExistsBySlug(ctx, tx, category.Slug, id)
			if err != nil {
				return err
			}
			if exists {
				return NewConflictError(ResourceCategory, fmt.Sprintf("slug %q is already taken", category.Slug))
			}
		}
		if req.Description != nil {
			category.Description = req.Description
		}
		return s.repo.Category().Update(ctx, tx, category)
	})
	if err != nil {
		return nil, translateStoreError(err, "update category", ResourceCategory, id)
	}
	return category, nil
}

// DeleteCategory detaches its courses before removing it
func (s *catalogService) DeleteCategory(ctx context.Context, actor Actor, id string) error {
	s.logger.Info("Deleting category", "actor_id", actor.UserID, "category_id", id)

	if err := requireAdmin(actor, ResourceCategory, id, "delete"); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Course().ClearCategory(ctx, tx, id); err != nil {
			return err
		}
		return s.repo.Category().Delete(ctx, tx, id)
	})
	return translateStoreError(err, "delete category", ResourceCategory, id)
}

// ===== COURSES =====

func (s *catalogService) SearchCourses(ctx context.Context, actor Actor, req *CourseSearchRequest) (*models.PaginatedResponse, error) {
	page, size, offset := normalizePage(req.Page, s.pageSize, s.pageSize)

	filters := repositories.CourseFilters{
		Term:   strings.TrimSpace(req.Term),
		Limit:  size,
		Offset: offset,
	}

	if category := strings.TrimSpace(req.Category); category != "" && !strings.EqualFold(category, "all") {
		filters.CategoryID = &category
	}

	if level := strings.ToLower(strings.TrimSpace(req.Level)); level != "" && level != "all" {
		courseLevel := models.CourseLevel(level)
		if !courseLevel.IsValid() {
			return nil, NewValidationError("level", "must be beginner, intermediate, advanced or all", req.Level)
		}
		filters.Level = &courseLevel
	}

	sortBy, sortOrder, ok := courseSort(req.Sort)
	if !ok {
		return nil, NewValidationError("sort", "must be title, price_asc or price_desc", req.Sort)
	}
	filters.SortBy = sortBy
	filters.SortOrder = sortOrder

	if !actor.IsAdmin() {
		published := true
		filters.Published = &published
	} else if req.Published != nil {
		filters.Published = req.Published
	}

	courses, total, err := s.repo.Course().Search(ctx, s.db, filters)
	if err != nil {
		return nil, translateStoreError(err, "search courses", ResourceCourse, "")
	}

	enrolled, err := s.enrolledCourseIDs(ctx, actor)
	if err != nil {
		return nil, err
	}

	content := make([]*CourseResponse, 0, len(courses))
	for _, course := range courses {
		content = append(content, &CourseResponse{
			Course:     course,
			IsEnrolled: enrolled[course.ID],
			CanEdit:    actor.IsAdmin(),
		})
	}

	return models.NewPaginatedResponse(content, len(content), total, page, size), nil
}

// courseSort maps the catalog sort option to a column and direction
func courseSort(option string) (string, string, bool) {
	switch strings.ToLower(strings.TrimSpace(option)) {
	case "", "title":
		return "title", "asc", true
	case "price_asc", "price-low":
		return "price", "asc", true
	case "price_desc", "price-high":
		return "price", "desc", true
	}
	return "", "", false
}

func (s *catalogService) enrolledCourseIDs(ctx context.Context, actor Actor) (map[string]bool, error) {
	result := make(map[string]bool)
	if actor.UserID == "" {
		return result, nil
	}

	enrollments, _, err := s.repo.Enrollment().List(ctx, s.db, repositories.EnrollmentFilters{UserID: &actor.UserID})
	if err != nil {
		return nil, translateStoreError(err, "list enrollments", ResourceEnrollment, "")
	}
	for _, enrollment := range enrollments {
		result[enrollment.CourseID] = true
	}
	return result, nil
}

func (s *catalogService) GetCourse(ctx context.Context, actor Actor, id string) (*CourseResponse, error) {
	course, err := loadVisibleCourse(ctx, s.repo, s.db, actor, id)
	if err != nil {
		return nil, err
	}
	return s.buildCourseResponse(ctx, actor, course)
}

func (s *catalogService) GetCourseBySlug(ctx context.Context, actor Actor, slug string) (*CourseResponse, error) {
	course, err := s.repo.Course().GetBySlug(ctx, s.db, slug)
	if err != nil {
		return nil, translateStoreError(err, "get course", ResourceCourse, slug)
	}
	if !canSeeCourse(actor, course) {
		return nil, NewNotFoundError(ResourceCourse, slug)
	}
	return s.buildCourseResponse(ctx, actor, course)
}

func (s *catalogService) buildCourseResponse(ctx context.Context, actor Actor, course *models.Course) (*CourseResponse, error) {
	enrollment, err := findEnrollment(ctx, s.repo, s.db, actor.UserID, course.ID)
	if err != nil {
		return nil, translateStoreError(err, "get enrollment", ResourceEnrollment, "")
	}

	lessons, err := s.repo.Lesson().GetByCourse(ctx, s.db, course.ID)
	if err != nil {
		return nil, translateStoreError(err, "list lessons", ResourceLesson, "")
	}

	return &CourseResponse{
		Course:     course,
		IsEnrolled: enrollment != nil,
		CanEdit:    actor.IsAdmin(),
		Lessons:    lessonResponses(actor, lessons, enrollment != nil),
	}, nil
}

func lessonResponses(actor Actor, lessons []*models.Lesson, enrolled bool) []*LessonResponse {
	result := make([]*LessonResponse, 0, len(lessons))
	for _, lesson := range lessons {
		result = append(result, lessonResponse(actor, lesson, enrolled))
	}
	return result
}

func lessonResponse(actor Actor, lesson *models.Lesson, enrolled bool) *LessonResponse {
	if canWatchLesson(actor, lesson, enrolled) {
		return &LessonResponse{Lesson: lesson}
	}
	locked := *lesson
	locked.VideoURL = ""
	return &LessonResponse{Lesson: &locked, Locked: true}
}

func (s *catalogService) CreateCourse(ctx context.Context, actor Actor, req *CreateCourseRequest) (*CourseResponse, error) {
	s.logger.Info("Creating course", "actor_id", actor.UserID, "title", req.Title)

	if err := requireAdmin(actor, ResourceCourse, "", "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course := &models.Course{
		Slug:           Slugify(req.Title),
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		InstructorName: strings.TrimSpace(req.InstructorName),
		InstructorBio:  req.InstructorBio,
		ThumbnailURL:   req.ThumbnailURL,
		Price:          req.Price,
		Level:          req.Level,
		CategoryID:     req.CategoryID,
		IsPublished:    req.IsPublished,
		Tags:           normalizeTags(req.Tags),
		CreatedBy:      actor.UserID,
	}

	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if err := s.checkCategory(ctx, tx, course.CategoryID); err != nil {
			return err
		}
		if err := s.checkCourseSlug(ctx, tx, course.Slug, ""); err != nil {
			return err
		}
		return s.repo.Course().Create(ctx, tx, course)
	})
	if err != nil {
		return nil, translateStoreError(err, "create course", ResourceCourse, "")
	}

	s.logger.Info("Course created successfully", "course_id", course.ID, "slug", course.Slug)
	return s.GetCourse(ctx, actor, course.ID)
}

func (s *catalogService) UpdateCourse(ctx context.Context, actor Actor, id string, req *UpdateCourseRequest) (*CourseResponse, error) {
	s.logger.Info("Updating course", "actor_id", actor.UserID, "course_id", id)

	if err := requireAdmin(actor, ResourceCourse, id, "update"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	err := s.withTx(ctx, func(tx *gorm.DB) error {
		course, err := s.repo.Course().GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if req.Title != nil {
			course.Title = strings.TrimSpace(*req.Title)
			course.Slug = Slugify(*req.Title)
			if err := s.checkCourseSlug(ctx, tx, course.Slug, id); err != nil {
				return err
			}
		}
		if req.Description != nil {
			course.Description = *req.Description
		}
		if req.InstructorName != nil {
			course.InstructorName = strings.TrimSpace(*req.InstructorName)
		}
		if req.InstructorBio != nil {
			course.InstructorBio = req.InstructorBio
		}
		if req.ThumbnailURL != nil {
			course.ThumbnailURL = req.ThumbnailURL
		}
		if req.Price != nil {
			course.Price = *req.Price
		}
		if req.Level != nil {
			course.Level = *req.Level
		}
		if req.CategoryID != nil {
			if err := s.checkCategory(ctx, tx, req.CategoryID); err != nil {
				return err
			}
			course.CategoryID = req.CategoryID
			course.Category = nil
		}
		if req.Tags != nil {
			course.Tags = normalizeTags(req.Tags)
		}
		if req.IsPublished != nil {
			course.IsPublished = *req.IsPublished
		}

		return s.repo.Course().Update(ctx, tx, course)
	})
	if err != nil {
		return nil, translateStoreError(err, "update course", ResourceCourse, id)
	}

	s.logger.Info("Course updated successfully", "course_id", id)
	return s.GetCourse(ctx, actor, id)
}

func (s *catalogService) DeleteCourse(ctx context.Context, actor Actor, id string) error {
	s.logger.Info("Deleting course", "actor_id", actor.UserID, "course_id", id)

	if err := requireAdmin(actor, ResourceCourse, id, "delete"); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *gorm.DB) error {
		return s.repo.Course().Delete(ctx, tx, id)
	})
	if err != nil {
		return translateStoreError(err, "delete course", ResourceCourse, id)
	}

	s.logger.Info("Course deleted successfully", "course_id", id)
	return nil
}

func (s *catalogService) checkCategory(ctx context.Context, tx *gorm.DB, categoryID *string) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.repo.Category().GetByID(ctx, tx, *categoryID); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewValidationError("category_id", "category does not exist", *categoryID)
		}
		return err
	}
	return nil
}

func (s *catalogService) checkCourseSlug(ctx context.Context, tx *gorm.DB, slug, excludeID string) error {
	exists, err := s.repo.Course().ExistsBySlug(ctx, tx, slug, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return NewConflictError(ResourceCourse, fmt.Sprintf("slug %q is already taken", slug))
	}
	return nil
}

// normalizeTags trims tags and drops case-insensitive duplicates
func normalizeTags(tags []string) datatypes.JSONSlice[string] {
	result := make(datatypes.JSONSlice[string], 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, tag)
	}
	return result
}

// ===== LESSONS =====

func (s *catalogService) ListLessons(ctx context.Context, actor Actor, courseID string) ([]*LessonResponse, error) {
	if _, err := loadVisibleCourse(ctx, s.repo, s.db, actor, courseID); err != nil {
		return nil, err
	}

	enrollment, err := findEnrollment(ctx, s.repo, s.db, actor.UserID, courseID)
	if err != nil {
		return nil, translateStoreError(err, "get enrollment", ResourceEnrollment, "")
	}

	lessons, err := s.repo.Lesson().GetByCourse(ctx, s.db, courseID)
	if err != nil {
		return nil, translateStoreError(err, "list lessons", ResourceLesson, "")
	}
	return lessonResponses(actor, lessons, enrollment != nil), nil
}

func (s *catalogService) GetLesson(ctx context.Context, actor Actor, id string) (*LessonResponse, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, s.db, id)
	if err != nil {
		return nil, translateStoreError(err, "get lesson", ResourceLesson, id)
	}
	if _, err := loadVisibleCourse(ctx, s.repo, s.db, actor, lesson.CourseID); err != nil {
		if IsNotFound(err) {
			return nil, NewNotFoundError(ResourceLesson, id)
		}
		return nil, err
	}

	enrollment, err := findEnrollment(ctx, s.repo, s.db, actor.UserID, lesson.CourseID)
	if err != nil {
		return nil, translateStoreError(err, "get enrollment", ResourceEnrollment, "")
	}
	return lessonResponse(actor, lesson, enrollment != nil), nil
}

// CreateLesson adds a lesson and refreshes the course's enrollment percentages
func (s *catalogService) CreateLesson(ctx context.Context, actor Actor, courseID string, req *CreateLessonRequest) (*models.Lesson, error) {
	s.logger.Info("Creating lesson", "actor_id", actor.UserID, "course_id", courseID, "order_index", req.OrderIndex)

	if err := requireAdmin(actor, ResourceLesson, "", "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		CourseID:        courseID,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		VideoURL:        strings.TrimSpace(req.VideoURL),
		OrderIndex:      req.OrderIndex,
		DurationMinutes: req.DurationMinutes,
		IsFreePreview:   req.IsFreePreview,
	}

	var completed []*models.Enrollment
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Course().GetByID(ctx, tx, courseID); err != nil {
			if repositories.IsNotFoundError(err) {
				return NewNotFoundError(ResourceCourse, courseID)
			}
			return err
		}
		if err := s.checkOrderIndex(ctx, tx, courseID, lesson.OrderIndex, ""); err != nil {
			return err
		}
		if err := s.repo.Lesson().Create(ctx, tx, lesson); err != nil {
			return err
		}

		var err error
		completed, err = recomputeCourseEnrollments(ctx, s.repo, tx, courseID)
		return err
	})
	if err != nil {
		return nil, translateStoreError(err, "create lesson", ResourceLesson, "")
	}

	publishEvents(ctx, s.eventPublisher, s.logger, completionEvents(completed)...)
	s.logger.Info("Lesson created successfully", "lesson_id", lesson.ID)
	return lesson, nil
}

func (s *catalogService) UpdateLesson(ctx context.Context, actor Actor, id string, req *UpdateLessonRequest) (*models.Lesson, error) {
	if err := requireAdmin(actor, ResourceLesson, id, "update"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var lesson *models.Lesson
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		lesson, err = s.repo.Lesson().GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if req.OrderIndex != nil && *req.OrderIndex != lesson.OrderIndex {
			if err := s.checkOrderIndex(ctx, tx, lesson.CourseID, *req.OrderIndex, id); err != nil {
				return err
			}
			lesson.OrderIndex = *req.OrderIndex
		}
		if req.Title != nil {
			lesson.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			lesson.Description = req.Description
		}
		if req.VideoURL != nil {
			lesson.VideoURL = strings.TrimSpace(*req.VideoURL)
		}
		if req.DurationMinutes != nil {
			lesson.DurationMinutes = *req.DurationMinutes
		}
		if req.IsFreePreview != nil {
			lesson.IsFreePreview = *req.IsFreePreview
		}
		return s.repo.Lesson().Update(ctx, tx, lesson)
	})
	if err != nil {
		return nil, translateStoreError(err, "update lesson", ResourceLesson, id)
	}
	return lesson, nil
}

// DeleteLesson removes the lesson with its progress rows and refreshes percentages
func (s *catalogService) DeleteLesson(ctx context.Context, actor Actor, id string) error {
	s.logger.Info("Deleting lesson", "actor_id", actor.UserID, "lesson_id", id)

	if err := requireAdmin(actor, ResourceLesson, id, "delete"); err != nil {
		return err
	}

	var completed []*models.Enrollment
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		lesson, err := s.repo.Lesson().GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.repo.Lesson().Delete(ctx, tx, id); err != nil {
			return err
		}
		completed, err = recomputeCourseEnrollments(ctx, s.repo, tx, lesson.CourseID)
		return err
	})
	if err != nil {
		return translateStoreError(err, "delete lesson", ResourceLesson, id)
	}

	publishEvents(ctx, s.eventPublisher, s.logger, completionEvents(completed)...)
	s.logger.Info("Lesson deleted successfully", "lesson_id", id, "completed_enrollments", len(completed))
	return nil
}

func (s *catalogService) checkOrderIndex(ctx context.Context, tx *gorm.DB, courseID string, orderIndex int, excludeID string) error {
	exists, err := s.repo.Lesson().ExistsOrderIndex(ctx, tx, courseID, orderIndex, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return NewConflictError(ResourceLesson, fmt.Sprintf("order_index %d is already used in this course", orderIndex))
	}
	return nil
}

// ===== BATCHES =====

func (s *catalogService) ListBatches(ctx context.Context, actor Actor, courseID string) ([]*models.Batch, error) {
	if _, err := loadVisibleCourse(ctx, s.repo, s.db, actor, courseID); err != nil {
		return nil, err
	}
	batches, err := s.repo.Batch().GetByCourse(ctx, s.db, courseID)
	if err != nil {
		return nil, translateStoreError(err, "list batches", ResourceBatch, "")
	}
	return batches, nil
}

func (s *catalogService) CreateBatch(ctx context.Context, actor Actor, courseID string, req *CreateBatchRequest) (*models.Batch, error) {
	if err := requireAdmin(actor, ResourceBatch, "", "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	batch := &models.Batch{
		CourseID:  courseID,
		Name:      strings.TrimSpace(req.Name),
		StartDate: req.StartDate.UTC(),
		EndDate:   req.EndDate,
	}

	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Course().GetByID(ctx, tx, courseID); err != nil {
			if repositories.IsNotFoundError(err) {
				return NewNotFoundError(ResourceCourse, courseID)
			}
			return err
		}
		return s.repo.Batch().Create(ctx, tx, batch)
	})
	if err != nil {
		return nil, translateStoreError(err, "create batch", ResourceBatch, "")
	}
	return batch, nil
}

func (s *catalogService) UpdateBatch(ctx context.Context, actor Actor, id string, req *UpdateBatchRequest) (*models.Batch, error) {
	if err := requireAdmin(actor, ResourceBatch, id, "update"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var batch *models.Batch
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		batch, err = s.repo.Batch().GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			batch.Name = strings.TrimSpace(*req.Name)
		}
		if req.StartDate != nil {
			batch.StartDate = req.StartDate.UTC()
		}
		if req.EndDate != nil {
			batch.EndDate = req.EndDate
		}
		if errs := s.validator.GetBusinessValidator().ValidateBatchDates(batch.StartDate, batch.EndDate); len(errs) > 0 {
			return errs
		}
		return s.repo.Batch().Update(ctx, tx, batch)
	})
	if err != nil {
		return nil, translateStoreError(err, "update batch", ResourceBatch, id)
	}
	return batch, nil
}

func (s *catalogService) DeleteBatch(ctx context.Context, actor Actor, id string) error {
	if err := requireAdmin(actor, ResourceBatch, id, "delete"); err != nil {
		return err
	}
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		return s.repo.Batch().Delete(ctx, tx, id)
	})
	return translateStoreError(err, "delete batch", ResourceBatch, id)
}
