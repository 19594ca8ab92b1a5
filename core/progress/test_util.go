package progress

import (
	"time"

	"github.com/trezcool/elimu/core"
)

type serviceMock struct {
	service
}

func NewServiceMock(
	repo Repository,
	courses CourseDirectory,
	accounts AccountDirectory,
	mailSvc core.EmailService,
	logger core.Logger,
	nowFunc func() time.Time,
) Service {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &serviceMock{
		service: service{
			repo:     repo,
			courses:  courses,
			accounts: accounts,
			mailSvc:  mailSvc,
			logger:   logger,
			nowFunc:  nowFunc,
		},
	}
}
