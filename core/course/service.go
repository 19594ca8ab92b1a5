package course

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/elimu/core"
)

var (
	// errors
	ErrNotFound           = errors.New("course not found")
	ErrItemNotFound       = errors.New("course item not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrCodeExists         = errors.New("a course with this code already exists")
)

type (
	Repository interface {
		CheckCodeUniqueness(ctx context.Context, tenantID, code string) error
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		FilterCourses(ctx context.Context, tenantID string, filter QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)

		CreateItem(ctx context.Context, item Item) (Item, error)
		QueryItems(ctx context.Context, courseID string) ([]Item, error)
		CountItems(ctx context.Context, courseID string) (lessons, quizzes int, err error)
		ItemExists(ctx context.Context, courseID, itemID string) (bool, error)

		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		QueryAssignments(ctx context.Context, courseID string) ([]Assignment, error)
	}

	Service interface {
		Create(ctx context.Context, nc NewCourse) (Course, error)
		GetByID(ctx context.Context, id string) (Course, error)
		Filter(ctx context.Context, tenantID string, filter QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		Publish(ctx context.Context, id string) (Course, error)

		AddItem(ctx context.Context, courseID string, ni NewItem) (Item, error)
		Items(ctx context.Context, courseID string) ([]Item, error)

		AddAssignment(ctx context.Context, courseID string, na NewAssignment) (Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		Assignments(ctx context.Context, courseID string) ([]Assignment, error)

		// progress.CourseDirectory
		CourseItemCounts(ctx context.Context, courseID string) (lessons, quizzes int, err error)
		HasCourseItem(ctx context.Context, courseID, itemID string) (bool, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	if err := svc.repo.CheckCodeUniqueness(ctx, nc.TenantID, nc.Code); err != nil {
		if err == ErrCodeExists {
			return Course{}, core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return Course{}, err
	}

	now := time.Now().UTC()
	crs := Course{
		ID:          uuid.New().String(),
		TenantID:    nc.TenantID,
		Code:        nc.Code,
		Name:        nc.Name,
		Description: nc.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *service) Filter(ctx context.Context, tenantID string, filter QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	return svc.repo.FilterCourses(ctx, tenantID, filter, ordering)
}

func (svc *service) Publish(ctx context.Context, id string) (Course, error) {
	crs, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if crs.IsPublished {
		return crs, nil
	}
	crs.IsPublished = true
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *service) AddItem(ctx context.Context, courseID string, ni NewItem) (Item, error) {
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return Item{}, err
	}
	item := Item{
		ID:        uuid.New().String(),
		CourseID:  courseID,
		Kind:      ni.Kind,
		Title:     ni.Title,
		Position:  ni.Position,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateItem(ctx, item)
}

func (svc *service) Items(ctx context.Context, courseID string) ([]Item, error) {
	return svc.repo.QueryItems(ctx, courseID)
}

func (svc *service) AddAssignment(ctx context.Context, courseID string, na NewAssignment) (Assignment, error) {
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return Assignment{}, err
	}
	now := time.Now().UTC()
	a := Assignment{
		ID:              uuid.New().String(),
		CourseID:        courseID,
		Title:           na.Title,
		DueDate:         na.DueDate,
		MaxPoints:       na.MaxPoints,
		PolicyOverrides: na.PolicyOverrides,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return svc.repo.CreateAssignment(ctx, a)
}

func (svc *service) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, id)
}

func (svc *service) Assignments(ctx context.Context, courseID string) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, courseID)
}

func (svc *service) CourseItemCounts(ctx context.Context, courseID string) (int, int, error) {
	return svc.repo.CountItems(ctx, courseID)
}

func (svc *service) HasCourseItem(ctx context.Context, courseID, itemID string) (bool, error) {
	return svc.repo.ItemExists(ctx, courseID, itemID)
}
