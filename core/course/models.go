package course

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/grading"
)

type Course struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// ItemKind discriminates the completable items of a course.
type ItemKind string

const (
	ItemLesson ItemKind = "lesson"
	ItemQuiz   ItemKind = "quiz"
)

// Item is a completable course item (lesson or quiz) in course order.
type Item struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Kind      ItemKind  `json:"kind"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Assignment is a graded deliverable of a course. DueDate may be absent (no
// deadline). The nullable policy fields override the deployment's grading
// defaults per field; grading.Merge resolves the effective policy.
type Assignment struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Title     string    `json:"title"`
	DueDate   null.Time `json:"due_date"` // UTC
	MaxPoints float64   `json:"max_points"`

	PolicyOverrides grading.Overrides `json:"policy_overrides"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// EffectivePolicy resolves the assignment's late-submission policy against
// the deployment defaults.
func (a Assignment) EffectivePolicy(defaults grading.Policy) grading.Policy {
	return grading.Merge(defaults, a.PolicyOverrides)
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	TenantID    string `json:"tenant_id" validate:"required,uuid4"`
	Code        string `json:"code" validate:"required,min=2,alphanum_"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Code = core.CleanString(nc.Code, true /* lower */)
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

// NewItem contains information needed to add a lesson or quiz to a course.
type NewItem struct {
	Kind     ItemKind `json:"kind" validate:"required,oneof=lesson quiz"`
	Title    string   `json:"title" validate:"required"`
	Position int      `json:"position" validate:"min=0"`
}

func (ni *NewItem) Validate(validate *validator.Validate) error {
	ni.Title = core.CleanString(ni.Title)
	return validate.Struct(ni)
}

// NewAssignment contains information needed to create a graded assignment.
type NewAssignment struct {
	Title           string            `json:"title" validate:"required"`
	DueDate         null.Time         `json:"due_date"`
	MaxPoints       float64           `json:"max_points" validate:"gt=0"`
	PolicyOverrides grading.Overrides `json:"policy_overrides"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	if err := validate.Struct(na); err != nil {
		return err
	}
	// reject negative overrides up front; grading.Analyze would also catch them
	pol := grading.Merge(grading.Policy{}, na.PolicyOverrides)
	return pol.Validate()
}

type QueryFilter struct {
	Search      string `query:"search"`
	IsPublished *bool  `query:"is_published"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.IsPublished == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
