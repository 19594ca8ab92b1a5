package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core/progress"
)

type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *sqlx.DB) progress.Repository {
	return &progressRepository{db: db}
}

type progressRow struct {
	ID                 string         `db:"id"`
	TenantID           string         `db:"tenant_id"`
	UserID             string         `db:"user_id"`
	CourseID           string         `db:"course_id"`
	EnrollmentID       string         `db:"enrollment_id"`
	Status             string         `db:"status"`
	ProgressPercentage int            `db:"progress_percentage"`
	CompletedLessons   int            `db:"completed_lessons"`
	TotalLessons       int            `db:"total_lessons"`
	CompletedQuizzes   int            `db:"completed_quizzes"`
	TotalQuizzes       int            `db:"total_quizzes"`
	CompletedLessonIDs pq.StringArray `db:"completed_lesson_ids"`
	CompletedQuizIDs   pq.StringArray `db:"completed_quiz_ids"`
	TimeSpent          int            `db:"time_spent"`
	StartedAt          time.Time      `db:"started_at"`
	CompletedAt        null.Time      `db:"completed_at"`
	LastAccessedAt     time.Time      `db:"last_accessed_at"`
	Version            int            `db:"version"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func newProgressRow(prog progress.CourseProgress) progressRow {
	return progressRow{
		ID:                 prog.ID,
		TenantID:           prog.TenantID,
		UserID:             prog.UserID,
		CourseID:           prog.CourseID,
		EnrollmentID:       prog.EnrollmentID,
		Status:             string(prog.Status),
		ProgressPercentage: prog.ProgressPercentage,
		CompletedLessons:   prog.CompletedLessons,
		TotalLessons:       prog.TotalLessons,
		CompletedQuizzes:   prog.CompletedQuizzes,
		TotalQuizzes:       prog.TotalQuizzes,
		CompletedLessonIDs: pq.StringArray(prog.CompletedLessonIDs),
		CompletedQuizIDs:   pq.StringArray(prog.CompletedQuizIDs),
		TimeSpent:          prog.TimeSpent,
		StartedAt:          prog.StartedAt,
		CompletedAt:        prog.CompletedAt,
		LastAccessedAt:     prog.LastAccessedAt,
		Version:            prog.Version,
		CreatedAt:          prog.CreatedAt,
		UpdatedAt:          prog.UpdatedAt,
	}
}

func (row progressRow) toCore() progress.CourseProgress {
	return progress.CourseProgress{
		ID:                 row.ID,
		TenantID:           row.TenantID,
		UserID:             row.UserID,
		CourseID:           row.CourseID,
		EnrollmentID:       row.EnrollmentID,
		Status:             progress.Status(row.Status),
		ProgressPercentage: row.ProgressPercentage,
		CompletedLessons:   row.CompletedLessons,
		TotalLessons:       row.TotalLessons,
		CompletedQuizzes:   row.CompletedQuizzes,
		TotalQuizzes:       row.TotalQuizzes,
		CompletedLessonIDs: []string(row.CompletedLessonIDs),
		CompletedQuizIDs:   []string(row.CompletedQuizIDs),
		TimeSpent:          row.TimeSpent,
		StartedAt:          row.StartedAt,
		CompletedAt:        row.CompletedAt,
		LastAccessedAt:     row.LastAccessedAt,
		Version:            row.Version,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}

func (repo *progressRepository) CreateProgress(ctx context.Context, prog progress.CourseProgress) (progress.CourseProgress, error) {
	const q = `
		INSERT INTO course_progress (
			id, tenant_id, user_id, course_id, enrollment_id, status, progress_percentage,
			completed_lessons, total_lessons, completed_quizzes, total_quizzes,
			completed_lesson_ids, completed_quiz_ids, time_spent,
			started_at, completed_at, last_accessed_at, version, created_at, updated_at
		) VALUES (
			:id, :tenant_id, :user_id, :course_id, :enrollment_id, :status, :progress_percentage,
			:completed_lessons, :total_lessons, :completed_quizzes, :total_quizzes,
			:completed_lesson_ids, :completed_quiz_ids, :time_spent,
			:started_at, :completed_at, :last_accessed_at, :version, :created_at, :updated_at
		)`
	if _, err := repo.db.NamedExecContext(ctx, q, newProgressRow(prog)); err != nil {
		return progress.CourseProgress{}, errors.Wrap(err, "inserting progress")
	}
	return prog, nil
}

func (repo *progressRepository) GetProgress(ctx context.Context, id string) (progress.CourseProgress, error) {
	const q = `SELECT * FROM course_progress WHERE id = $1`
	var row progressRow
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return progress.CourseProgress{}, progress.ErrNotFound
		}
		return progress.CourseProgress{}, errors.Wrap(err, "getting progress")
	}
	return row.toCore(), nil
}

func (repo *progressRepository) GetProgressByEnrollment(ctx context.Context, enrollmentID string) (progress.CourseProgress, error) {
	const q = `SELECT * FROM course_progress WHERE enrollment_id = $1`
	var row progressRow
	if err := repo.db.GetContext(ctx, &row, q, enrollmentID); err != nil {
		if err == sql.ErrNoRows {
			return progress.CourseProgress{}, progress.ErrNotFound
		}
		return progress.CourseProgress{}, errors.Wrap(err, "getting progress by enrollment")
	}
	return row.toCore(), nil
}

// UpdateProgress bumps the version on every write; a stale version loses.
func (repo *progressRepository) UpdateProgress(ctx context.Context, prog progress.CourseProgress) (progress.CourseProgress, error) {
	const q = `
		UPDATE course_progress SET
			status = :status,
			progress_percentage = :progress_percentage,
			completed_lessons = :completed_lessons,
			completed_quizzes = :completed_quizzes,
			completed_lesson_ids = :completed_lesson_ids,
			completed_quiz_ids = :completed_quiz_ids,
			time_spent = :time_spent,
			completed_at = :completed_at,
			last_accessed_at = :last_accessed_at,
			version = version + 1,
			updated_at = :updated_at
		WHERE id = :id AND version = :version`
	res, err := repo.db.NamedExecContext(ctx, q, newProgressRow(prog))
	if err != nil {
		return progress.CourseProgress{}, errors.Wrap(err, "updating progress")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return progress.CourseProgress{}, errors.Wrap(err, "updating progress")
	}
	if n == 0 {
		if _, err = repo.GetProgress(ctx, prog.ID); err != nil {
			return progress.CourseProgress{}, err
		}
		return progress.CourseProgress{}, progress.ErrConcurrentUpdate
	}
	prog.Version++
	return prog, nil
}

func (repo *progressRepository) CreateSnapshot(ctx context.Context, snap progress.Snapshot) (bool, error) {
	const q = `
		INSERT INTO progress_snapshot (
			id, tenant_id, user_id, course_id, milestone, progress_percentage,
			completed_lessons, completed_quizzes, time_spent, snapshot_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, course_id, milestone) DO NOTHING`
	res, err := repo.db.ExecContext(ctx, q,
		snap.ID, snap.TenantID, snap.UserID, snap.CourseID, snap.Milestone, snap.ProgressPercentage,
		snap.CompletedLessons, snap.CompletedQuizzes, snap.TimeSpent, snap.SnapshotDate,
	)
	if err != nil {
		return false, errors.Wrap(err, "inserting snapshot")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "inserting snapshot")
	}
	return n > 0, nil
}

func (repo *progressRepository) QuerySnapshots(ctx context.Context, userID, courseID string) ([]progress.Snapshot, error) {
	const q = `
		SELECT id, tenant_id, user_id, course_id, milestone, progress_percentage,
		       completed_lessons, completed_quizzes, time_spent, snapshot_date
		FROM progress_snapshot
		WHERE user_id = $1 AND course_id = $2
		ORDER BY milestone`
	rows, err := repo.db.QueryxContext(ctx, q, userID, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying snapshots")
	}
	defer func() { _ = rows.Close() }()

	var snaps []progress.Snapshot
	for rows.Next() {
		var snap progress.Snapshot
		if err = rows.Scan(
			&snap.ID, &snap.TenantID, &snap.UserID, &snap.CourseID, &snap.Milestone, &snap.ProgressPercentage,
			&snap.CompletedLessons, &snap.CompletedQuizzes, &snap.TimeSpent, &snap.SnapshotDate,
		); err != nil {
			return nil, errors.Wrap(err, "scanning snapshot")
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
