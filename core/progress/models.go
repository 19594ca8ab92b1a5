package progress

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
)

// Status is a learner's completion state for a course.
// Transitions: NotStarted -> InProgress -> Completed. Completed is terminal.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// milestones are the fixed progress thresholds that trigger a one-time snapshot.
var milestones = [...]int{25, 50, 75, 100}

// CourseProgress tracks a learner's completion state for a course.
// One record per enrollment, created on the first recorded activity.
//
// Counters are derived from the completed-item ID sets so that replaying the
// same lesson/quiz completion can never double-count, and ProgressPercentage
// is always recomputed from the counters (see Percentage).
type CourseProgress struct {
	ID           string `json:"id"`
	TenantID     string `json:"tenant_id"`
	UserID       string `json:"user_id"`
	CourseID     string `json:"course_id"`
	EnrollmentID string `json:"enrollment_id"`

	Status             Status `json:"status"`
	ProgressPercentage int    `json:"progress_percentage"`

	CompletedLessons int `json:"completed_lessons"`
	TotalLessons     int `json:"total_lessons"`
	CompletedQuizzes int `json:"completed_quizzes"`
	TotalQuizzes     int `json:"total_quizzes"`

	CompletedLessonIDs []string `json:"-"`
	CompletedQuizIDs   []string `json:"-"`

	TimeSpent int `json:"total_time_spent"` // minutes, never decreases across activity records

	StartedAt      time.Time `json:"started_at"`      // UTC
	CompletedAt    null.Time `json:"completed_at"`    // UTC
	LastAccessedAt time.Time `json:"last_accessed_at"` // UTC

	// Version guards concurrent updates (optimistic lock); bumped by the
	// repository on every successful update.
	Version   int       `json:"-"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Percentage computes the progress percentage from the counters, rounded and
// clamped to [0, 100]. A course with no items is at 0%.
func (p *CourseProgress) Percentage() int {
	total := p.TotalLessons + p.TotalQuizzes
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(p.CompletedLessons+p.CompletedQuizzes) / float64(total)))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func (p *CourseProgress) HasLesson(lessonID string) bool {
	return containsID(p.CompletedLessonIDs, lessonID)
}

func (p *CourseProgress) HasQuiz(quizID string) bool {
	return containsID(p.CompletedQuizIDs, quizID)
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

// Snapshot is an immutable milestone record; at most one exists per
// (user, course, milestone).
type Snapshot struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	CourseID string `json:"course_id"`

	Milestone          int `json:"milestone"` // 25 | 50 | 75 | 100
	ProgressPercentage int `json:"progress_percentage"`
	CompletedLessons   int `json:"completed_lessons"`
	CompletedQuizzes   int `json:"completed_quizzes"`
	TimeSpent          int `json:"total_time_spent"` // minutes

	SnapshotDate time.Time `json:"snapshot_date"` // UTC
}

// Activity is a single learning-activity event to be recorded against an
// enrollment. At most one of LessonID/QuizID may be set; a bare event (time
// tracking only) is valid too.
type Activity struct {
	LessonID  string `json:"lesson_id" validate:"omitempty,uuid4,excluded_with=QuizID"`
	QuizID    string `json:"quiz_id" validate:"omitempty,uuid4"`
	TimeSpent int    `json:"time_spent_minutes" validate:"min=0"`
	Completed bool   `json:"completed"`
}

func (a *Activity) Validate(validate *validator.Validate) error {
	return validate.Struct(a)
}
