package progress

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/enroll"
)

var (
	// errors
	ErrNotFound         = errors.New("course progress not found")
	ErrInvalidReference = errors.New("unknown lesson or quiz for this course")
	ErrConcurrentUpdate = errors.New("progress was modified concurrently, please retry")
)

type (
	Repository interface {
		CreateProgress(ctx context.Context, prog CourseProgress) (CourseProgress, error)
		GetProgress(ctx context.Context, id string) (CourseProgress, error)
		GetProgressByEnrollment(ctx context.Context, enrollmentID string) (CourseProgress, error)
		// UpdateProgress persists prog iff the stored Version still matches
		// prog.Version; on mismatch it fails with ErrConcurrentUpdate.
		UpdateProgress(ctx context.Context, prog CourseProgress) (CourseProgress, error)
		// CreateSnapshot inserts snap unless a snapshot already exists for
		// (user, course, milestone); reports whether it inserted.
		CreateSnapshot(ctx context.Context, snap Snapshot) (bool, error)
		QuerySnapshots(ctx context.Context, userID, courseID string) ([]Snapshot, error)
	}

	// CourseDirectory resolves course catalog facts the tracker needs.
	// Implemented by course.Service.
	CourseDirectory interface {
		CourseItemCounts(ctx context.Context, courseID string) (lessons, quizzes int, err error)
		HasCourseItem(ctx context.Context, courseID, itemID string) (bool, error)
	}

	// AccountDirectory resolves a learner's email address for notifications.
	// Implemented by account.Service.
	AccountDirectory interface {
		AccountEmail(ctx context.Context, userID string) (mail.Address, error)
	}

	Service interface {
		RecordActivity(ctx context.Context, enr enroll.Enrollment, act Activity) (CourseProgress, error)
		GetByEnrollment(ctx context.Context, enrollmentID string) (CourseProgress, error)
		Snapshots(ctx context.Context, userID, courseID string) ([]Snapshot, error)
		Reset(ctx context.Context, progressID string) error
		MarkCompleted(ctx context.Context, progressID, certificateRef string) error
	}

	service struct {
		repo     Repository
		courses  CourseDirectory
		accounts AccountDirectory
		mailSvc  core.EmailService
		logger   core.Logger
		nowFunc  func() time.Time // mockable
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	courses CourseDirectory,
	accounts AccountDirectory,
	mailSvc core.EmailService,
	logger core.Logger,
) *service {
	return &service{
		repo:     repo,
		courses:  courses,
		accounts: accounts,
		mailSvc:  mailSvc,
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// RecordActivity applies a single learning-activity event to the enrollment's
// CourseProgress, creating the record on first activity.
//
// Repeated completions of the same lesson/quiz are no-ops; counters and the
// derived percentage only ever move forward. A milestone snapshot is written
// for every threshold newly crossed by this update. On ErrConcurrentUpdate the
// caller should re-read and retry; nothing is partially applied.
func (svc *service) RecordActivity(ctx context.Context, enr enroll.Enrollment, act Activity) (CourseProgress, error) {
	if act.TimeSpent < 0 {
		return CourseProgress{}, core.NewValidationError(nil,
			core.FieldError{Field: "time_spent_minutes", Error: "must not be negative"})
	}

	prog, err := svc.repo.GetProgressByEnrollment(ctx, enr.ID)
	if err != nil {
		if pkgerrors.Cause(err) != ErrNotFound {
			return CourseProgress{}, pkgerrors.Wrap(err, "fetching progress")
		}
		if prog, err = svc.createProgress(ctx, enr); err != nil {
			return CourseProgress{}, err
		}
	}

	prevPct := prog.Percentage()
	now := svc.nowFunc().UTC()

	if act.Completed {
		if err = svc.applyCompletion(ctx, &prog, act); err != nil {
			return CourseProgress{}, err
		}
	}

	prog.TimeSpent += act.TimeSpent
	prog.LastAccessedAt = now
	if prog.Status == StatusNotStarted {
		prog.Status = StatusInProgress
	}

	newPct := prog.Percentage()
	prog.ProgressPercentage = newPct

	var completedNow bool
	if newPct == 100 && prog.Status != StatusCompleted {
		prog.Status = StatusCompleted
		prog.CompletedAt = null.TimeFrom(now)
		completedNow = true
	}
	prog.UpdatedAt = now

	if prog, err = svc.repo.UpdateProgress(ctx, prog); err != nil {
		return CourseProgress{}, err
	}

	if err = svc.maybeSnapshot(ctx, prog, prevPct, newPct); err != nil {
		return CourseProgress{}, err
	}
	if completedNow {
		svc.sendCompletionMail(ctx, prog)
	}
	return prog, nil
}

func (svc *service) createProgress(ctx context.Context, enr enroll.Enrollment) (CourseProgress, error) {
	lessons, quizzes, err := svc.courses.CourseItemCounts(ctx, enr.CourseID)
	if err != nil {
		return CourseProgress{}, pkgerrors.Wrap(err, "counting course items")
	}
	if lessons < 0 || quizzes < 0 {
		return CourseProgress{}, core.NewValidationError(ErrInvalidReference,
			core.FieldError{Field: "course_id", Error: "course item counts are negative"})
	}

	now := svc.nowFunc().UTC()
	prog := CourseProgress{
		ID:             uuid.New().String(),
		TenantID:       enr.TenantID,
		UserID:         enr.UserID,
		CourseID:       enr.CourseID,
		EnrollmentID:   enr.ID,
		Status:         StatusNotStarted,
		TotalLessons:   lessons,
		TotalQuizzes:   quizzes,
		StartedAt:      now,
		LastAccessedAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateProgress(ctx, prog)
}

// applyCompletion marks the activity's lesson/quiz as completed on prog.
// Unknown item IDs are rejected; known-but-already-completed ones are no-ops.
// Every carried ID is checked against the course catalog before anything is
// counted, so an activity mixing a known ID with an unknown one fails whole.
func (svc *service) applyCompletion(ctx context.Context, prog *CourseProgress, act Activity) error {
	if act.LessonID == "" && act.QuizID == "" {
		return nil // bare time-tracking event
	}

	if act.LessonID != "" {
		if err := svc.checkCourseItem(ctx, prog.CourseID, act.LessonID, "lesson_id"); err != nil {
			return err
		}
	}
	if act.QuizID != "" {
		if err := svc.checkCourseItem(ctx, prog.CourseID, act.QuizID, "quiz_id"); err != nil {
			return err
		}
	}

	if act.LessonID != "" && !prog.HasLesson(act.LessonID) {
		prog.CompletedLessonIDs = append(prog.CompletedLessonIDs, act.LessonID)
		prog.CompletedLessons = len(prog.CompletedLessonIDs)
	}
	if act.QuizID != "" && !prog.HasQuiz(act.QuizID) {
		prog.CompletedQuizIDs = append(prog.CompletedQuizIDs, act.QuizID)
		prog.CompletedQuizzes = len(prog.CompletedQuizIDs)
	}
	return nil
}

func (svc *service) checkCourseItem(ctx context.Context, courseID, itemID, field string) error {
	ok, err := svc.courses.HasCourseItem(ctx, courseID, itemID)
	if err != nil {
		return pkgerrors.Wrap(err, "checking course item")
	}
	if !ok {
		return core.NewValidationError(ErrInvalidReference,
			core.FieldError{Field: field, Error: ErrInvalidReference.Error()})
	}
	return nil
}

func (svc *service) GetByEnrollment(ctx context.Context, enrollmentID string) (CourseProgress, error) {
	return svc.repo.GetProgressByEnrollment(ctx, enrollmentID)
}

func (svc *service) Snapshots(ctx context.Context, userID, courseID string) ([]Snapshot, error) {
	return svc.repo.QuerySnapshots(ctx, userID, courseID)
}

// Reset zeroes all counters and returns the progress to NotStarted.
// Existing milestone snapshots are historical records and are kept.
func (svc *service) Reset(ctx context.Context, progressID string) error {
	prog, err := svc.repo.GetProgress(ctx, progressID)
	if err != nil {
		return err
	}

	now := svc.nowFunc().UTC()
	prog.Status = StatusNotStarted
	prog.ProgressPercentage = 0
	prog.CompletedLessons = 0
	prog.CompletedQuizzes = 0
	prog.CompletedLessonIDs = nil
	prog.CompletedQuizIDs = nil
	prog.TimeSpent = 0
	prog.CompletedAt = null.Time{}
	prog.UpdatedAt = now

	_, err = svc.repo.UpdateProgress(ctx, prog)
	return err
}

// MarkCompleted is the explicit administrative completion path. Completing an
// already-completed progress is a no-op. Counters are left untouched: the
// percentage stays a pure function of what the learner actually did.
func (svc *service) MarkCompleted(ctx context.Context, progressID, certificateRef string) error {
	prog, err := svc.repo.GetProgress(ctx, progressID)
	if err != nil {
		return err
	}
	if prog.Status == StatusCompleted {
		return nil
	}

	now := svc.nowFunc().UTC()
	prog.Status = StatusCompleted
	prog.CompletedAt = null.TimeFrom(now)
	prog.UpdatedAt = now

	if prog, err = svc.repo.UpdateProgress(ctx, prog); err != nil {
		return err
	}

	// record the terminal milestone with the counters as they stand
	snap := Snapshot{
		ID:                 uuid.New().String(),
		TenantID:           prog.TenantID,
		UserID:             prog.UserID,
		CourseID:           prog.CourseID,
		Milestone:          100,
		ProgressPercentage: prog.ProgressPercentage,
		CompletedLessons:   prog.CompletedLessons,
		CompletedQuizzes:   prog.CompletedQuizzes,
		TimeSpent:          prog.TimeSpent,
		SnapshotDate:       now,
	}
	if _, err = svc.repo.CreateSnapshot(ctx, snap); err != nil {
		return pkgerrors.Wrap(err, "creating completion snapshot")
	}

	svc.sendCompletionMail(ctx, prog, certificateRef)
	return nil
}

// sendCompletionMail is fire-and-forget: a failed notification never rolls
// back a progress update.
func (svc *service) sendCompletionMail(ctx context.Context, prog CourseProgress, certificateRef ...string) {
	addr, err := svc.accounts.AccountEmail(ctx, prog.UserID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("skipping completion mail: %v", err), err)
		return
	}

	body := "Congratulations! You have completed the course."
	if len(certificateRef) > 0 && certificateRef[0] != "" {
		body += " Your certificate is ready: " + certificateRef[0]
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:          []mail.Address{addr},
		Subject:     "Course completed",
		TextContent: body,
	})
}
