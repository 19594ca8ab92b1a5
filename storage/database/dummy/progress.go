package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/elimu/core/progress"
)

type progressRepository struct {
	db *progressTable
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) progress.Repository {
	return &progressRepository{db: db.progress}
}

func (repo *progressRepository) CreateProgress(_ context.Context, prog progress.CourseProgress) (progress.CourseProgress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[prog.ID] = &prog
	return prog, nil
}

func (repo *progressRepository) GetProgress(_ context.Context, id string) (progress.CourseProgress, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prog, ok := repo.db.table[id]; ok {
		return *prog, nil
	}
	return progress.CourseProgress{}, progress.ErrNotFound
}

func (repo *progressRepository) GetProgressByEnrollment(_ context.Context, enrollmentID string) (progress.CourseProgress, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, prog := range repo.db.table {
		if prog.EnrollmentID == enrollmentID {
			return *prog, nil
		}
	}
	return progress.CourseProgress{}, progress.ErrNotFound
}

func (repo *progressRepository) UpdateProgress(_ context.Context, prog progress.CourseProgress) (progress.CourseProgress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[prog.ID]
	if !ok {
		return progress.CourseProgress{}, progress.ErrNotFound
	}
	if orig.Version != prog.Version {
		return progress.CourseProgress{}, progress.ErrConcurrentUpdate
	}
	prog.Version++
	repo.db.table[prog.ID] = &prog
	return prog, nil
}

func (repo *progressRepository) CreateSnapshot(_ context.Context, snap progress.Snapshot) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, s := range repo.db.snapshots {
		if s.UserID == snap.UserID && s.CourseID == snap.CourseID && s.Milestone == snap.Milestone {
			return false, nil
		}
	}
	repo.db.snapshots[snap.ID] = &snap
	return true, nil
}

func (repo *progressRepository) QuerySnapshots(_ context.Context, userID, courseID string) ([]progress.Snapshot, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var snaps []progress.Snapshot
	for _, s := range repo.db.snapshots {
		if s.UserID == userID && s.CourseID == courseID {
			snaps = append(snaps, *s)
		}
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Milestone < snaps[j].Milestone })
	return snaps, nil
}
