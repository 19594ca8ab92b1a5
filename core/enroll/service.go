package enroll

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// errors
	ErrNotFound        = errors.New("enrollment not found")
	ErrAlreadyEnrolled = errors.New("learner is already enrolled in this course")
)

type (
	Repository interface {
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		GetEnrollment(ctx context.Context, id string) (Enrollment, error)
		FilterEnrollments(ctx context.Context, tenantID string, filter QueryFilter) ([]Enrollment, error)
	}

	Service interface {
		Enroll(ctx context.Context, ne NewEnrollment) (Enrollment, error)
		GetByID(ctx context.Context, id string) (Enrollment, error)
		Filter(ctx context.Context, tenantID string, filter QueryFilter) ([]Enrollment, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Enroll(ctx context.Context, ne NewEnrollment) (Enrollment, error) {
	enr := Enrollment{
		ID:        uuid.New().String(),
		TenantID:  ne.TenantID,
		UserID:    ne.UserID,
		CourseID:  ne.CourseID,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateEnrollment(ctx, enr)
}

func (svc *service) GetByID(ctx context.Context, id string) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, id)
}

func (svc *service) Filter(ctx context.Context, tenantID string, filter QueryFilter) ([]Enrollment, error) {
	return svc.repo.FilterEnrollments(ctx, tenantID, filter)
}
