package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/account"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enroll"
	"github.com/trezcool/elimu/core/progress"
	dummydb "github.com/trezcool/elimu/storage/database/dummy"
)

var (
	tenantID = "5b7ae9de-0f1e-4c3c-8dbb-9c0b1a4e8e30"

	acctRepo account.Repository
)

type nopLogger struct{}

var _ core.Logger = (*nopLogger)(nil)

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type nopMailer struct{}

var _ core.EmailService = (*nopMailer)(nil)

func (nopMailer) SendMessages(...*core.EmailMessage) {}

func setup(t *testing.T) (*commandLine, *dummydb.DB) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	acctRepo = dummydb.NewAccountRepository(db)

	acctSvc := account.NewService(acctRepo)
	courseSvc := course.NewService(dummydb.NewCourseRepository(db))
	progSvc := progress.NewService(dummydb.NewProgressRepository(db), courseSvc, acctSvc, nopMailer{}, nopLogger{})

	return &commandLine{
		db:       &sqlx.DB{},
		acctRepo: acctRepo,
		progSvc:  progSvc,
	}, db
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func createAccount(t *testing.T, email, pwd string) account.Account {
	t.Helper()

	now := time.Now().UTC()
	acct := account.Account{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Name:      "Test Account",
		Email:     email,
		Role:      account.RoleStudent,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := acct.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	acct, err := acctRepo.CreateAccount(context.Background(), acct)
	if err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	return acct
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, _ := setup(t)

	acct := createAccount(t, "awe@test.cd", "mdr")

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-tenant", tenantID, "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "account not found", args: []string{"resetpassword", "-tenant", tenantID, "-email", "lol@test.cd"}, extra: extra{pwd: "lol"}, wantErr: account.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-tenant", tenantID, "-email", acct.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshed, err := acctRepo.GetAccount(context.Background(), acct.ID)
				if err != nil {
					t.Fatalf("GetAccount() failed: %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, acct.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addAccount(t *testing.T) {
	cli, _ := setup(t)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("s3cr3t"), nil }

	args := []string{"admin", "addaccount", "-tenant", tenantID, "-name", "Admin", "-email", "boss@test.cd", "-admin"}
	if err := cli.run(args); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}

	acct, err := acctRepo.GetAccountByEmail(context.Background(), tenantID, "boss@test.cd")
	if err != nil {
		t.Fatalf("GetAccountByEmail() failed: %v", err)
	}
	if acct.Role != account.RoleAdmin {
		t.Errorf("Role = %v, want %v", acct.Role, account.RoleAdmin)
	}
	if !acct.IsActive {
		t.Error("account not active")
	}
	if err = acct.CheckPassword("s3cr3t"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}

	// running again updates in place
	if err = cli.run(args); err != nil {
		t.Fatalf("cli.run() replay failed: %v", err)
	}
}

func Test_commandLine_progress(t *testing.T) {
	cli, db := setup(t)
	ctx := context.Background()

	acct := createAccount(t, "learner@test.cd", "pwd")

	courseRepo := dummydb.NewCourseRepository(db)
	now := time.Now().UTC()
	crs, err := courseRepo.CreateCourse(ctx, course.Course{
		ID: uuid.New().String(), TenantID: tenantID, Code: "go101", Name: "Go 101", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	lesson, err := courseRepo.CreateItem(ctx, course.Item{
		ID: uuid.New().String(), CourseID: crs.ID, Kind: course.ItemLesson, Title: "Intro", CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateItem() failed: %v", err)
	}

	enr, err := dummydb.NewEnrollmentRepository(db).CreateEnrollment(ctx, enroll.Enrollment{
		ID: uuid.New().String(), TenantID: tenantID, UserID: acct.ID, CourseID: crs.ID, CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateEnrollment() failed: %v", err)
	}

	prog, err := cli.progSvc.RecordActivity(ctx, enr, progress.Activity{LessonID: lesson.ID, TimeSpent: 5})
	if err != nil {
		t.Fatalf("RecordActivity() failed: %v", err)
	}

	if err = cli.run([]string{"admin", "markcompleted", "-id", prog.ID, "-certificate", "CERT-42"}); err != nil {
		t.Fatalf("markcompleted failed: %v", err)
	}
	prog, err = cli.progSvc.GetByEnrollment(ctx, enr.ID)
	if err != nil {
		t.Fatalf("GetByEnrollment() failed: %v", err)
	}
	if prog.Status != progress.StatusCompleted {
		t.Errorf("Status = %v, want %v", prog.Status, progress.StatusCompleted)
	}

	if err = cli.run([]string{"admin", "resetprogress", "-id", prog.ID}); err != nil {
		t.Fatalf("resetprogress failed: %v", err)
	}
	prog, err = cli.progSvc.GetByEnrollment(ctx, enr.ID)
	if err != nil {
		t.Fatalf("GetByEnrollment() failed: %v", err)
	}
	if prog.Status != progress.StatusNotStarted || prog.TimeSpent != 0 {
		t.Errorf("progress not reset: %+v", prog)
	}

	// unknown progress ID
	if err = cli.run([]string{"admin", "resetprogress", "-id", uuid.New().String()}); err != progress.ErrNotFound {
		t.Errorf("resetprogress error = %v, want %v", err, progress.ErrNotFound)
	}
}
