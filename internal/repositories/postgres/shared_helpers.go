package postgres

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/SAP-F-2025/course-service/internal/cache"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"gorm.io/gorm"
)

// SharedHelpers contains query building shared by the repositories
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// afterCommit runs fn once the transaction db was started in commits. db
// outside a tracked transaction runs fn straight away.
func afterCommit(ctx context.Context, db *gorm.DB, fn func(context.Context)) {
	if pending := cache.PendingFrom(db.Statement.Context); pending != nil {
		pending.Add(fn)
		return
	}
	fn(ctx)
}

// bypassCache reports whether a read may see uncommitted rows. That is the
// case for an explicit tx and for repositories bound to a transaction.
func bypassCache(tx, db *gorm.DB) bool {
	return tx != nil || cache.PendingFrom(db.Statement.Context) != nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

var jsonStringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// containsPattern builds a LIKE pattern matching s anywhere, lowercased
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// tagPatterns match s as a whole element of a JSON string array. jsonb
// renders & < > as is, while text columns keep the \u escapes json.Marshal
// writes, so both spellings are returned when they differ.
func tagPatterns(s string) []string {
	lower := strings.ToLower(s)
	plain := `"` + jsonStringEscaper.Replace(lower) + `"`
	patterns := []string{"%" + likeEscaper.Replace(plain) + "%"}

	if encoded, err := json.Marshal(lower); err == nil && string(encoded) != plain {
		patterns = append(patterns, "%"+likeEscaper.Replace(string(encoded))+"%")
	}
	return patterns
}

// ApplyCourseFilters applies catalog search filters. Matching is done on
// LOWER() so it behaves the same on every dialect gorm supports.
func (h *SharedHelpers) ApplyCourseFilters(query *gorm.DB, filters repositories.CourseFilters) *gorm.DB {
	if term := strings.TrimSpace(filters.Term); term != "" {
		like := containsPattern(term)
		clauses := []string{`LOWER(title) LIKE ? ESCAPE '\'`, `LOWER(instructor_name) LIKE ? ESCAPE '\'`}
		args := []interface{}{like, like}
		for _, pattern := range tagPatterns(term) {
			clauses = append(clauses, `LOWER(CAST(tags AS TEXT)) LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		}
		query = query.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.Level != nil {
		query = query.Where("level = ?", *filters.Level)
	}
	if filters.Published != nil {
		query = query.Where("is_published = ?", *filters.Published)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	return query
}

// ApplyEnrollmentFilters applies enrollment listing filters
func (h *SharedHelpers) ApplyEnrollmentFilters(query *gorm.DB, filters repositories.EnrollmentFilters) *gorm.DB {
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.BatchID != nil {
		query = query.Where("batch_id = ?", *filters.BatchID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	return query
}

// ApplySubmissionFilters applies submission listing filters
func (h *SharedHelpers) ApplySubmissionFilters(query *gorm.DB, filters repositories.SubmissionFilters) *gorm.DB {
	if filters.AssignmentID != nil {
		query = query.Where("assignment_submissions.assignment_id = ?", *filters.AssignmentID)
	}
	if filters.UserID != nil {
		query = query.Where("assignment_submissions.user_id = ?", *filters.UserID)
	}
	if filters.CourseID != nil {
		query = query.Where("assignment_submissions.assignment_id IN (?)",
			h.db.Model(&assignmentIDOnly{}).Select("id").Where("course_id = ?", *filters.CourseID))
	}
	if filters.Reviewed != nil {
		if *filters.Reviewed {
			query = query.Where("assignment_submissions.reviewed_at IS NOT NULL")
		} else {
			query = query.Where("assignment_submissions.reviewed_at IS NULL")
		}
	}
	return query
}

// ApplyPaginationAndSort orders by a whitelisted column with id as tie breaker
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int, defaultSort string) *gorm.DB {
	allowedSortColumns := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"title":        true,
		"price":        true,
		"name":         true,
		"enrolled_at":  true,
		"submitted_at": true,
		"completed_at": true,
		"percentage":   true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = defaultSort
	}

	if strings.EqualFold(sortOrder, "asc") {
		sortOrder = "ASC"
	} else {
		sortOrder = "DESC"
	}

	query = query.Order(sortBy + " " + sortOrder).Order("id ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// assignmentIDOnly lets a subquery target the assignments table without
// pulling in the full model
type assignmentIDOnly struct {
	ID string
}

func (assignmentIDOnly) TableName() string {
	return "assignments"
}
