package progress

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

// CrossedMilestones returns the milestone thresholds lying in (prev, new],
// in ascending order. Callers pass the progress percentage before and after
// an update; an empty result means no milestone was crossed.
func CrossedMilestones(prev, new int) []int {
	var crossed []int
	for _, m := range milestones {
		if prev < m && m <= new {
			crossed = append(crossed, m)
		}
	}
	return crossed
}

// maybeSnapshot persists a snapshot for every milestone crossed between
// prevPct and newPct, capturing the counters as they stand on prog.
//
// Snapshot creation is idempotent: persistence is insert-or-ignore keyed on
// (user, course, milestone), so re-invoking with the same prev/new pair, or
// racing with a concurrent crossing of the same threshold, yields exactly
// one snapshot per milestone. The notification only fires when this call
// actually created the snapshot.
func (svc *service) maybeSnapshot(ctx context.Context, prog CourseProgress, prevPct, newPct int) error {
	for _, m := range CrossedMilestones(prevPct, newPct) {
		snap := Snapshot{
			ID:                 uuid.New().String(),
			TenantID:           prog.TenantID,
			UserID:             prog.UserID,
			CourseID:           prog.CourseID,
			Milestone:          m,
			ProgressPercentage: prog.ProgressPercentage,
			CompletedLessons:   prog.CompletedLessons,
			CompletedQuizzes:   prog.CompletedQuizzes,
			TimeSpent:          prog.TimeSpent,
			SnapshotDate:       svc.nowFunc().UTC(),
		}
		created, err := svc.repo.CreateSnapshot(ctx, snap)
		if err != nil {
			return errors.Wrapf(err, "creating %d%% snapshot", m)
		}
		if created && m < 100 { // 100% is announced by the completion notice
			svc.sendMilestoneMail(ctx, prog, m)
		}
	}
	return nil
}

func (svc *service) sendMilestoneMail(ctx context.Context, prog CourseProgress, milestone int) {
	addr, err := svc.accounts.AccountEmail(ctx, prog.UserID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("skipping %d%% milestone mail: %v", milestone, err), err)
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:          []mail.Address{addr},
		Subject:     fmt.Sprintf("You reached %d%% of your course!", milestone),
		TextContent: fmt.Sprintf("Keep it up! You have completed %d%% of the course.", milestone),
	})
}
