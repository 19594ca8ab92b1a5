package enroll

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Enrollment links a learner to a course within a tenant.
// It owns the learner's CourseProgress and milestone snapshots.
type Enrollment struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	CourseID  string    `json:"course_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewEnrollment contains information needed to enroll a learner in a course.
type NewEnrollment struct {
	TenantID string `json:"tenant_id" validate:"required,uuid4"`
	UserID   string `json:"user_id" validate:"required,uuid4"`
	CourseID string `json:"course_id" validate:"required,uuid4"`
}

func (ne *NewEnrollment) Validate(validate *validator.Validate) error {
	return validate.Struct(ne)
}

type QueryFilter struct {
	UserID   string `query:"user_id"`
	CourseID string `query:"course_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.UserID == "" && qf.CourseID == ""
}
