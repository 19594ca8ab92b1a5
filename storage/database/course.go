package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/grading"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

type assignmentRow struct {
	ID                   string       `db:"id"`
	CourseID             string       `db:"course_id"`
	Title                string       `db:"title"`
	DueDate              null.Time    `db:"due_date"`
	MaxPoints            float64      `db:"max_points"`
	AllowLateSubmissions null.Bool    `db:"allow_late_submissions"`
	LatePenaltyPerDay    null.Float64 `db:"late_penalty_per_day"`
	MaxLatePenalty       null.Float64 `db:"max_late_penalty"`
	MaxLateDays          null.Int     `db:"max_late_days"`
	GracePeriodHours     null.Float64 `db:"grace_period_hours"`
	CreatedAt            time.Time    `db:"created_at"`
	UpdatedAt            time.Time    `db:"updated_at"`
}

func newAssignmentRow(a course.Assignment) assignmentRow {
	return assignmentRow{
		ID:                   a.ID,
		CourseID:             a.CourseID,
		Title:                a.Title,
		DueDate:              a.DueDate,
		MaxPoints:            a.MaxPoints,
		AllowLateSubmissions: a.PolicyOverrides.AllowLateSubmissions,
		LatePenaltyPerDay:    a.PolicyOverrides.LatePenaltyPerDay,
		MaxLatePenalty:       a.PolicyOverrides.MaxLatePenalty,
		MaxLateDays:          a.PolicyOverrides.MaxLateDays,
		GracePeriodHours:     a.PolicyOverrides.GracePeriodHours,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

func (row assignmentRow) toCore() course.Assignment {
	return course.Assignment{
		ID:        row.ID,
		CourseID:  row.CourseID,
		Title:     row.Title,
		DueDate:   row.DueDate,
		MaxPoints: row.MaxPoints,
		PolicyOverrides: grading.Overrides{
			AllowLateSubmissions: row.AllowLateSubmissions,
			LatePenaltyPerDay:    row.LatePenaltyPerDay,
			MaxLatePenalty:       row.MaxLatePenalty,
			MaxLateDays:          row.MaxLateDays,
			GracePeriodHours:     row.GracePeriodHours,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func (repo *courseRepository) CheckCodeUniqueness(ctx context.Context, tenantID, code string) error {
	const q = `SELECT COUNT(*) FROM course WHERE tenant_id = $1 AND code = $2`
	var count int
	if err := repo.db.GetContext(ctx, &count, q, tenantID, code); err != nil {
		return errors.Wrap(err, "checking course code")
	}
	if count > 0 {
		return course.ErrCodeExists
	}
	return nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	const q = `
		INSERT INTO course (id, tenant_id, code, name, description, is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := repo.db.ExecContext(ctx, q,
		crs.ID, crs.TenantID, crs.Code, crs.Name, crs.Description, crs.IsPublished, crs.CreatedAt, crs.UpdatedAt,
	); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	const q = `SELECT id, tenant_id, code, name, description, is_published, created_at, updated_at
		FROM course WHERE id = $1`
	var crs course.Course
	err := repo.db.QueryRowxContext(ctx, q, id).Scan(
		&crs.ID, &crs.TenantID, &crs.Code, &crs.Name, &crs.Description, &crs.IsPublished, &crs.CreatedAt, &crs.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return crs, nil
}

func (repo *courseRepository) FilterCourses(ctx context.Context, tenantID string, filter course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	q := `SELECT id, tenant_id, code, name, description, is_published, created_at, updated_at
		FROM course WHERE tenant_id = $1`
	args := []interface{}{tenantID}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		q += fmt.Sprintf(" AND (code ILIKE $%d OR name ILIKE $%d)", len(args), len(args))
	}
	if filter.IsPublished != nil {
		args = append(args, *filter.IsPublished)
		q += fmt.Sprintf(" AND is_published = $%d", len(args))
	}
	q += orderingClause(ordering, "code")

	rows, err := repo.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	defer func() { _ = rows.Close() }()

	var courses []course.Course
	for rows.Next() {
		var crs course.Course
		if err = rows.Scan(
			&crs.ID, &crs.TenantID, &crs.Code, &crs.Name, &crs.Description, &crs.IsPublished, &crs.CreatedAt, &crs.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scanning course")
		}
		courses = append(courses, crs)
	}
	return courses, rows.Err()
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	const q = `
		UPDATE course SET code = $2, name = $3, description = $4, is_published = $5, updated_at = $6
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, crs.ID, crs.Code, crs.Name, crs.Description, crs.IsPublished, crs.UpdatedAt)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo *courseRepository) CreateItem(ctx context.Context, item course.Item) (course.Item, error) {
	const q = `
		INSERT INTO course_item (id, course_id, kind, title, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := repo.db.ExecContext(ctx, q,
		item.ID, item.CourseID, item.Kind, item.Title, item.Position, item.CreatedAt,
	); err != nil {
		return course.Item{}, errors.Wrap(err, "inserting course item")
	}
	return item, nil
}

func (repo *courseRepository) QueryItems(ctx context.Context, courseID string) ([]course.Item, error) {
	const q = `SELECT id, course_id, kind, title, position, created_at
		FROM course_item WHERE course_id = $1 ORDER BY position`
	rows, err := repo.db.QueryxContext(ctx, q, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying course items")
	}
	defer func() { _ = rows.Close() }()

	var items []course.Item
	for rows.Next() {
		var item course.Item
		if err = rows.Scan(&item.ID, &item.CourseID, &item.Kind, &item.Title, &item.Position, &item.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning course item")
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (repo *courseRepository) CountItems(ctx context.Context, courseID string) (int, int, error) {
	const q = `
		SELECT
			COUNT(*) FILTER (WHERE kind = 'lesson'),
			COUNT(*) FILTER (WHERE kind = 'quiz')
		FROM course_item WHERE course_id = $1`
	var lessons, quizzes int
	if err := repo.db.QueryRowxContext(ctx, q, courseID).Scan(&lessons, &quizzes); err != nil {
		return 0, 0, errors.Wrap(err, "counting course items")
	}
	return lessons, quizzes, nil
}

func (repo *courseRepository) ItemExists(ctx context.Context, courseID, itemID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM course_item WHERE id = $1 AND course_id = $2)`
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, itemID, courseID); err != nil {
		return false, errors.Wrap(err, "checking course item")
	}
	return exists, nil
}

func (repo *courseRepository) CreateAssignment(ctx context.Context, a course.Assignment) (course.Assignment, error) {
	const q = `
		INSERT INTO assignment (
			id, course_id, title, due_date, max_points,
			allow_late_submissions, late_penalty_per_day, max_late_penalty, max_late_days, grace_period_hours,
			created_at, updated_at
		) VALUES (
			:id, :course_id, :title, :due_date, :max_points,
			:allow_late_submissions, :late_penalty_per_day, :max_late_penalty, :max_late_days, :grace_period_hours,
			:created_at, :updated_at
		)`
	if _, err := repo.db.NamedExecContext(ctx, q, newAssignmentRow(a)); err != nil {
		return course.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo *courseRepository) GetAssignment(ctx context.Context, id string) (course.Assignment, error) {
	const q = `SELECT * FROM assignment WHERE id = $1`
	var row assignmentRow
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Assignment{}, course.ErrAssignmentNotFound
		}
		return course.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return row.toCore(), nil
}

func (repo *courseRepository) QueryAssignments(ctx context.Context, courseID string) ([]course.Assignment, error) {
	const q = `SELECT * FROM assignment WHERE course_id = $1 ORDER BY created_at`
	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, q, courseID); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	assignments := make([]course.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.toCore())
	}
	return assignments, nil
}

// orderingClause renders an ORDER BY from the requested columns, falling back
// to defaultCol. Callers only pass identifier-shaped column names.
func orderingClause(ordering []core.DBOrdering, defaultCol string) string {
	if len(ordering) == 0 {
		return " ORDER BY " + defaultCol
	}
	cols := make([]string, 0, len(ordering))
	for _, o := range ordering {
		cols = append(cols, o.String())
	}
	return " ORDER BY " + strings.Join(cols, ", ")
}
