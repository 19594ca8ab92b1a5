package dummydb

import (
	"sync"

	"github.com/trezcool/elimu/core/account"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enroll"
	"github.com/trezcool/elimu/core/progress"
)

type (
	DB struct {
		account    *accountTable
		course     *courseTable
		enrollment *enrollmentTable
		progress   *progressTable
	}

	accountTable struct {
		sync.RWMutex
		table map[string]*account.Account
	}

	courseTable struct {
		sync.RWMutex
		table       map[string]*course.Course
		items       map[string]*course.Item
		assignments map[string]*course.Assignment
	}

	enrollmentTable struct {
		sync.RWMutex
		table map[string]*enroll.Enrollment
	}

	progressTable struct {
		sync.RWMutex
		table     map[string]*progress.CourseProgress
		snapshots map[string]*progress.Snapshot
	}
)

func Open() (*DB, error) {
	db := &DB{
		account: &accountTable{table: make(map[string]*account.Account)},
		course: &courseTable{
			table:       make(map[string]*course.Course),
			items:       make(map[string]*course.Item),
			assignments: make(map[string]*course.Assignment),
		},
		enrollment: &enrollmentTable{table: make(map[string]*enroll.Enrollment)},
		progress: &progressTable{
			table:     make(map[string]*progress.CourseProgress),
			snapshots: make(map[string]*progress.Snapshot),
		},
	}
	return db, nil
}
