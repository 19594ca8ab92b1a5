package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/enroll"
)

const pqUniqueViolation = "23505"

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enroll.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) enroll.Repository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, enr enroll.Enrollment) (enroll.Enrollment, error) {
	const q = `
		INSERT INTO enrollment (id, tenant_id, user_id, course_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := repo.db.ExecContext(ctx, q, enr.ID, enr.TenantID, enr.UserID, enr.CourseID, enr.CreatedAt); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return enroll.Enrollment{}, enroll.ErrAlreadyEnrolled
		}
		return enroll.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return enr, nil
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, id string) (enroll.Enrollment, error) {
	const q = `SELECT id, tenant_id, user_id, course_id, created_at FROM enrollment WHERE id = $1`
	var enr enroll.Enrollment
	err := repo.db.QueryRowxContext(ctx, q, id).Scan(&enr.ID, &enr.TenantID, &enr.UserID, &enr.CourseID, &enr.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return enroll.Enrollment{}, enroll.ErrNotFound
		}
		return enroll.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return enr, nil
}

func (repo *enrollmentRepository) FilterEnrollments(ctx context.Context, tenantID string, filter enroll.QueryFilter) ([]enroll.Enrollment, error) {
	q := `SELECT id, tenant_id, user_id, course_id, created_at FROM enrollment WHERE tenant_id = $1`
	args := []interface{}{tenantID}

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		q += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		q += fmt.Sprintf(" AND course_id = $%d", len(args))
	}
	q += " ORDER BY created_at"

	rows, err := repo.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	defer func() { _ = rows.Close() }()

	var enrollments []enroll.Enrollment
	for rows.Next() {
		var enr enroll.Enrollment
		if err = rows.Scan(&enr.ID, &enr.TenantID, &enr.UserID, &enr.CourseID, &enr.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning enrollment")
		}
		enrollments = append(enrollments, enr)
	}
	return enrollments, rows.Err()
}
