package progress_test

import (
	"context"
	"fmt"
	"net/mail"
	"testing"
	"time"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/account"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enroll"
	"github.com/trezcool/elimu/core/progress"
	emailsvc "github.com/trezcool/elimu/services/email"
	dummydb "github.com/trezcool/elimu/storage/database/dummy"
)

var refTime = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

// the console mock sends synchronously and records into emailsvc.SentMessages
func sentSubjects() []string {
	subjects := make([]string, 0, len(emailsvc.SentMessages))
	for _, msg := range emailsvc.SentMessages {
		subjects = append(subjects, msg.Subject)
	}
	return subjects
}

type loggerMock struct{}

var _ core.Logger = (*loggerMock)(nil)

func (loggerMock) Enable(bool)                 {}
func (loggerMock) Debug(string, ...interface{}) {}
func (loggerMock) Info(string, ...interface{})  {}
func (loggerMock) Warn(string, ...interface{})  {}
func (loggerMock) Error(string, ...interface{}) {}
func (loggerMock) Fatal(string, ...interface{}) {}

type testEnv struct {
	svc      progress.Service
	repo     progress.Repository
	enr      enroll.Enrollment
	lessons  []course.Item
	quizzes  []course.Item
	tenantID string
}

// newTestEnv wires the full in-memory stack: a course with the given item
// counts, an active learner account and an enrollment.
func newTestEnv(t *testing.T, nLessons, nQuizzes int) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}

	courseSvc := course.NewService(dummydb.NewCourseRepository(db))
	acctSvc := account.NewService(dummydb.NewAccountRepository(db))
	enrollSvc := enroll.NewService(dummydb.NewEnrollmentRepository(db))

	tenantID := "ecb3f0a0-0b1e-4e28-a74a-53bbc0c1c0a1"

	crs, err := courseSvc.Create(ctx, course.NewCourse{TenantID: tenantID, Code: "go101", Name: "Go 101"})
	if err != nil {
		t.Fatalf("creating course failed: %v", err)
	}
	var lessons, quizzes []course.Item
	for i := 0; i < nLessons; i++ {
		item, err := courseSvc.AddItem(ctx, crs.ID, course.NewItem{Kind: course.ItemLesson, Title: fmt.Sprintf("Lesson %d", i+1), Position: i})
		if err != nil {
			t.Fatalf("adding lesson failed: %v", err)
		}
		lessons = append(lessons, item)
	}
	for i := 0; i < nQuizzes; i++ {
		item, err := courseSvc.AddItem(ctx, crs.ID, course.NewItem{Kind: course.ItemQuiz, Title: fmt.Sprintf("Quiz %d", i+1), Position: nLessons + i})
		if err != nil {
			t.Fatalf("adding quiz failed: %v", err)
		}
		quizzes = append(quizzes, item)
	}

	acct, err := acctSvc.Create(ctx, account.NewAccount{
		TenantID: tenantID,
		Name:     "Learner",
		Email:    "learner@test.test",
		Role:     account.RoleStudent,
		Password: "s3cr3tpwd",
	})
	if err != nil {
		t.Fatalf("creating account failed: %v", err)
	}

	enr, err := enrollSvc.Enroll(ctx, enroll.NewEnrollment{TenantID: tenantID, UserID: acct.ID, CourseID: crs.ID})
	if err != nil {
		t.Fatalf("enrolling failed: %v", err)
	}

	emailsvc.ClearSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(&core.Config{
		AppName:          "Elimu",
		DefaultFromEmail: mail.Address{Name: "Elimu", Address: "noreply@localhost"},
	})

	repo := dummydb.NewProgressRepository(db)
	svc := progress.NewServiceMock(repo, courseSvc, acctSvc, mailSvc, loggerMock{}, func() time.Time { return refTime })

	return &testEnv{
		svc:      svc,
		repo:     repo,
		enr:      enr,
		lessons:  lessons,
		quizzes:  quizzes,
		tenantID: tenantID,
	}
}

func (env *testEnv) completeLesson(t *testing.T, i int) progress.CourseProgress {
	t.Helper()
	prog, err := env.svc.RecordActivity(context.Background(), env.enr, progress.Activity{LessonID: env.lessons[i].ID, Completed: true})
	if err != nil {
		t.Fatalf("RecordActivity(lesson %d) failed: %v", i, err)
	}
	return prog
}

func (env *testEnv) completeQuiz(t *testing.T, i int) progress.CourseProgress {
	t.Helper()
	prog, err := env.svc.RecordActivity(context.Background(), env.enr, progress.Activity{QuizID: env.quizzes[i].ID, Completed: true})
	if err != nil {
		t.Fatalf("RecordActivity(quiz %d) failed: %v", i, err)
	}
	return prog
}

func (env *testEnv) milestones(t *testing.T) []int {
	t.Helper()
	snaps, err := env.svc.Snapshots(context.Background(), env.enr.UserID, env.enr.CourseID)
	if err != nil {
		t.Fatalf("Snapshots() failed: %v", err)
	}
	ms := make([]int, 0, len(snaps))
	for _, s := range snaps {
		ms = append(ms, s.Milestone)
	}
	return ms
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRecordActivityFirstActivityCreatesProgress(t *testing.T) {
	env := newTestEnv(t, 2, 2)

	prog, err := env.svc.RecordActivity(context.Background(), env.enr, progress.Activity{TimeSpent: 15})
	if err != nil {
		t.Fatalf("RecordActivity() failed: %v", err)
	}
	if prog.Status != progress.StatusInProgress {
		t.Errorf("Status = %v, want %v", prog.Status, progress.StatusInProgress)
	}
	if prog.ProgressPercentage != 0 {
		t.Errorf("ProgressPercentage = %d, want 0", prog.ProgressPercentage)
	}
	if prog.TotalLessons != 2 || prog.TotalQuizzes != 2 {
		t.Errorf("totals = (%d, %d), want (2, 2)", prog.TotalLessons, prog.TotalQuizzes)
	}
	if prog.TimeSpent != 15 {
		t.Errorf("TimeSpent = %d, want 15", prog.TimeSpent)
	}
	if !prog.StartedAt.Equal(refTime) || !prog.LastAccessedAt.Equal(refTime) {
		t.Errorf("timestamps not set from reference time: started=%v accessed=%v", prog.StartedAt, prog.LastAccessedAt)
	}
}

func TestRecordActivityCompletionAdvancesPercentage(t *testing.T) {
	env := newTestEnv(t, 2, 2)

	prog := env.completeLesson(t, 0)
	if prog.ProgressPercentage != 25 {
		t.Errorf("ProgressPercentage = %d, want 25", prog.ProgressPercentage)
	}
	if prog.CompletedLessons != 1 {
		t.Errorf("CompletedLessons = %d, want 1", prog.CompletedLessons)
	}
	if got := env.milestones(t); !equalInts(got, []int{25}) {
		t.Errorf("milestones = %v, want [25]", got)
	}
}

func TestRecordActivityRepeatedCompletionIsIdempotent(t *testing.T) {
	env := newTestEnv(t, 2, 2)

	env.completeLesson(t, 0)
	prog := env.completeLesson(t, 0) // replay

	if prog.CompletedLessons != 1 {
		t.Errorf("CompletedLessons = %d, want 1 after replay", prog.CompletedLessons)
	}
	if prog.ProgressPercentage != 25 {
		t.Errorf("ProgressPercentage = %d, want 25 after replay", prog.ProgressPercentage)
	}
	if got := env.milestones(t); !equalInts(got, []int{25}) {
		t.Errorf("milestones = %v, want [25] after replay", got)
	}
	if subjects := sentSubjects(); len(subjects) != 1 {
		t.Errorf("sent mails = %v, want a single 25%% notice", subjects)
	}
}

func TestRecordActivityCrossingSeveralMilestones(t *testing.T) {
	// 20 items; two completions put the learner at 10%, nine more at 55%.
	env := newTestEnv(t, 20, 0)

	env.completeLesson(t, 0)
	prog := env.completeLesson(t, 1)
	if prog.ProgressPercentage != 10 {
		t.Fatalf("ProgressPercentage = %d, want 10", prog.ProgressPercentage)
	}
	for i := 2; i < 11; i++ {
		prog = env.completeLesson(t, i)
	}
	if prog.ProgressPercentage != 55 {
		t.Errorf("ProgressPercentage = %d, want 55", prog.ProgressPercentage)
	}
	if got := env.milestones(t); !equalInts(got, []int{25, 50}) {
		t.Errorf("milestones = %v, want [25 50]", got)
	}
}

func TestRecordActivityUnknownItemRejected(t *testing.T) {
	env := newTestEnv(t, 2, 2)

	_, err := env.svc.RecordActivity(context.Background(), env.enr,
		progress.Activity{LessonID: "ba7c3e0e-97ed-4a9e-b3a6-7e120a78b1a6", Completed: true})
	if _, ok := err.(*core.ValidationError); !ok {
		t.Fatalf("RecordActivity() error = %v, want *core.ValidationError", err)
	}

	// nothing was counted
	prog, err := env.svc.GetByEnrollment(context.Background(), env.enr.ID)
	if err != nil {
		t.Fatalf("GetByEnrollment() failed: %v", err)
	}
	if prog.CompletedLessons != 0 || prog.ProgressPercentage != 0 {
		t.Errorf("progress advanced on unknown item: %+v", prog)
	}
}

func TestRecordActivityKnownLessonWithUnknownQuizRejected(t *testing.T) {
	env := newTestEnv(t, 2, 2)

	// a known lesson must not smuggle in an unknown quiz
	_, err := env.svc.RecordActivity(context.Background(), env.enr, progress.Activity{
		LessonID:  env.lessons[0].ID,
		QuizID:    "11111111-2222-4333-8444-555555555555",
		Completed: true,
	})
	if _, ok := err.(*core.ValidationError); !ok {
		t.Fatalf("RecordActivity() error = %v, want *core.ValidationError", err)
	}

	prog, err := env.svc.GetByEnrollment(context.Background(), env.enr.ID)
	if err != nil {
		t.Fatalf("GetByEnrollment() failed: %v", err)
	}
	if prog.CompletedLessons != 0 || prog.CompletedQuizzes != 0 || prog.ProgressPercentage != 0 {
		t.Errorf("progress advanced on unknown quiz: %+v", prog)
	}
}

func TestRecordActivityNegativeTimeRejected(t *testing.T) {
	env := newTestEnv(t, 1, 0)

	if _, err := env.svc.RecordActivity(context.Background(), env.enr, progress.Activity{TimeSpent: -5}); err == nil {
		t.Fatal("RecordActivity() accepted negative time spent")
	}
}

func TestRecordActivityCompletingCourse(t *testing.T) {
	env := newTestEnv(t, 1, 1)

	env.completeLesson(t, 0) // 50%, crosses 25 and 50
	prog := env.completeQuiz(t, 0)

	if prog.Status != progress.StatusCompleted {
		t.Errorf("Status = %v, want %v", prog.Status, progress.StatusCompleted)
	}
	if prog.ProgressPercentage != 100 {
		t.Errorf("ProgressPercentage = %d, want 100", prog.ProgressPercentage)
	}
	if !prog.CompletedAt.Valid || !prog.CompletedAt.Time.Equal(refTime) {
		t.Errorf("CompletedAt = %+v, want %v", prog.CompletedAt, refTime)
	}
	if got := env.milestones(t); !equalInts(got, []int{25, 50, 75, 100}) {
		t.Errorf("milestones = %v, want [25 50 75 100]", got)
	}
	// the 100% crossing is announced by the completion notice, not a milestone mail
	subjects := sentSubjects()
	if len(subjects) != 4 || subjects[len(subjects)-1] != "Course completed" {
		t.Errorf("sent mails = %v, want three milestone notices then the completion notice", subjects)
	}
}

func TestReset(t *testing.T) {
	env := newTestEnv(t, 2, 0)

	env.completeLesson(t, 0)
	prog := env.completeLesson(t, 1)

	if err := env.svc.Reset(context.Background(), prog.ID); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}

	prog, err := env.svc.GetByEnrollment(context.Background(), env.enr.ID)
	if err != nil {
		t.Fatalf("GetByEnrollment() failed: %v", err)
	}
	if prog.Status != progress.StatusNotStarted {
		t.Errorf("Status = %v, want %v", prog.Status, progress.StatusNotStarted)
	}
	if prog.ProgressPercentage != 0 || prog.CompletedLessons != 0 || prog.TimeSpent != 0 {
		t.Errorf("counters not zeroed: %+v", prog)
	}
	if prog.CompletedAt.Valid {
		t.Errorf("CompletedAt still set: %+v", prog.CompletedAt)
	}
	// snapshots are historical records and survive a reset
	if got := env.milestones(t); !equalInts(got, []int{25, 50, 75, 100}) {
		t.Errorf("milestones = %v, want [25 50 75 100]", got)
	}
}

func TestMarkCompleted(t *testing.T) {
	env := newTestEnv(t, 4, 0)

	prog := env.completeLesson(t, 0) // 25%

	if err := env.svc.MarkCompleted(context.Background(), prog.ID, "CERT-001"); err != nil {
		t.Fatalf("MarkCompleted() failed: %v", err)
	}

	prog, err := env.svc.GetByEnrollment(context.Background(), env.enr.ID)
	if err != nil {
		t.Fatalf("GetByEnrollment() failed: %v", err)
	}
	if prog.Status != progress.StatusCompleted {
		t.Errorf("Status = %v, want %v", prog.Status, progress.StatusCompleted)
	}
	if prog.CompletedLessons != 1 {
		t.Errorf("CompletedLessons = %d, counters must not be fabricated", prog.CompletedLessons)
	}
	if got := env.milestones(t); !equalInts(got, []int{25, 100}) {
		t.Errorf("milestones = %v, want [25 100]", got)
	}

	// completing again is a no-op
	sentBefore := len(emailsvc.SentMessages)
	if err = env.svc.MarkCompleted(context.Background(), prog.ID, "CERT-001"); err != nil {
		t.Fatalf("MarkCompleted() replay failed: %v", err)
	}
	if sentAfter := len(emailsvc.SentMessages); sentAfter != sentBefore {
		t.Errorf("replayed MarkCompleted sent %d extra mail(s)", sentAfter-sentBefore)
	}
}

func TestUpdateProgressConflict(t *testing.T) {
	env := newTestEnv(t, 2, 0)
	ctx := context.Background()

	env.completeLesson(t, 0)

	// two readers race; the second write must lose
	prog1, err := env.repo.GetProgressByEnrollment(ctx, env.enr.ID)
	if err != nil {
		t.Fatalf("GetProgressByEnrollment() failed: %v", err)
	}
	prog2 := prog1

	if _, err = env.repo.UpdateProgress(ctx, prog1); err != nil {
		t.Fatalf("first UpdateProgress() failed: %v", err)
	}
	if _, err = env.repo.UpdateProgress(ctx, prog2); err != progress.ErrConcurrentUpdate {
		t.Errorf("second UpdateProgress() error = %v, want %v", err, progress.ErrConcurrentUpdate)
	}
}
