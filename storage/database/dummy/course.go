package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) CheckCodeUniqueness(_ context.Context, tenantID, code string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, crs := range repo.db.table {
		if crs.TenantID == tenantID && crs.Code == code {
			return course.ErrCodeExists
		}
	}
	return nil
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if crs, ok := repo.db.table[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) FilterCourses(_ context.Context, tenantID string, filter course.QueryFilter, _ []core.DBOrdering) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var courses []course.Course
	for _, crs := range repo.db.table {
		if crs.TenantID != tenantID {
			continue
		}
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(crs.Code), search) &&
				!strings.Contains(strings.ToLower(crs.Name), search) {
				continue
			}
		}
		if filter.IsPublished != nil && crs.IsPublished != *filter.IsPublished {
			continue
		}
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[crs.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) CreateItem(_ context.Context, item course.Item) (course.Item, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.items[item.ID] = &item
	return item, nil
}

func (repo *courseRepository) QueryItems(_ context.Context, courseID string) ([]course.Item, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var items []course.Item
	for _, item := range repo.db.items {
		if item.CourseID == courseID {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	return items, nil
}

func (repo *courseRepository) CountItems(_ context.Context, courseID string) (int, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var lessons, quizzes int
	for _, item := range repo.db.items {
		if item.CourseID != courseID {
			continue
		}
		switch item.Kind {
		case course.ItemLesson:
			lessons++
		case course.ItemQuiz:
			quizzes++
		}
	}
	return lessons, quizzes, nil
}

func (repo *courseRepository) ItemExists(_ context.Context, courseID, itemID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	item, ok := repo.db.items[itemID]
	return ok && item.CourseID == courseID, nil
}

func (repo *courseRepository) CreateAssignment(_ context.Context, a course.Assignment) (course.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.assignments[a.ID] = &a
	return a, nil
}

func (repo *courseRepository) GetAssignment(_ context.Context, id string) (course.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.assignments[id]; ok {
		return *a, nil
	}
	return course.Assignment{}, course.ErrAssignmentNotFound
}

func (repo *courseRepository) QueryAssignments(_ context.Context, courseID string) ([]course.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var assignments []course.Assignment
	for _, a := range repo.db.assignments {
		if a.CourseID == courseID {
			assignments = append(assignments, *a)
		}
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].CreatedAt.Before(assignments[j].CreatedAt) })
	return assignments, nil
}
