package echoapi

import (
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/grading"
)

type gradingApi struct {
	conf       *core.Config
	courseSvc  course.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerGradingAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := gradingApi{
		conf:       deps.Conf,
		courseSvc:  deps.CourseSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	ag := g.Group("/assignments/:id", jwt, assignmentTenantMiddleware(api.courseSvc))
	ag.GET("", api.retrieve)
	ag.POST("/analyze", api.analyze)
	ag.POST("/grade", api.grade, staffMiddleware())
}

// assignmentTenantMiddleware resolves the assignment and hides it from other
// tenants (the owning course carries the tenant).
func assignmentTenantMiddleware(svc course.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			a, err := svc.GetAssignment(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == course.ErrAssignmentNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding assignment by ID")
			}
			crs, err := svc.GetByID(ctx.Request().Context(), a.CourseID)
			if err != nil {
				return errors.Wrap(err, "finding assignment course")
			}
			if crs.TenantID != claims.TenantID {
				return errHttpNotFound
			}
			ctx.Set("object", a)
			return next(ctx)
		}
	}
}

func contextAssignment(ctx echo.Context) (course.Assignment, error) {
	a, ok := ctx.Get("object").(course.Assignment)
	if !ok {
		return course.Assignment{}, errors.New("assignment object not found in echo.Context")
	}
	return a, nil
}

// Handlers

func (api *gradingApi) retrieve(ctx echo.Context) error {
	a, err := contextAssignment(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

// analyze reports a submission's lateness against the assignment's effective
// policy without touching any grade.
func (api *gradingApi) analyze(ctx echo.Context) error {
	a, err := contextAssignment(ctx)
	if err != nil {
		return err
	}

	var data AnalyzeRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AnalyzeRequest")
	}

	pol := a.EffectivePolicy(grading.DefaultPolicy(api.conf.Grading))
	analysis, err := grading.Analyze(a.DueDate, pol, data.referenceTime())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, analysis)
}

func (api *gradingApi) grade(ctx echo.Context) error {
	a, err := contextAssignment(ctx)
	if err != nil {
		return err
	}

	var data GradeRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	pol := a.EffectivePolicy(grading.DefaultPolicy(api.conf.Grading))
	analysis, err := grading.Analyze(a.DueDate, pol, data.referenceTime())
	if err != nil {
		return err
	}
	final, err := grading.ApplyPenalty(data.RawGrade, a.MaxPoints, analysis)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, GradeResponse{
		RawGrade:   data.RawGrade,
		FinalGrade: final,
		MaxPoints:  a.MaxPoints,
		Analysis:   analysis,
	})
}

type (
	AnalyzeRequest struct {
		SubmittedAt null.Time `json:"submitted_at"`
	}

	GradeRequest struct {
		RawGrade    float64   `json:"raw_grade" validate:"min=0"`
		SubmittedAt null.Time `json:"submitted_at"`
	}

	GradeResponse struct {
		RawGrade   float64          `json:"raw_grade"`
		FinalGrade float64          `json:"final_grade"`
		MaxPoints  float64          `json:"max_points"`
		Analysis   grading.Analysis `json:"analysis"`
	}
)

// referenceTime resolves the submission time to evaluate against; now if absent.
func (ar AnalyzeRequest) referenceTime() time.Time {
	if ar.SubmittedAt.Valid {
		return ar.SubmittedAt.Time
	}
	return time.Now().UTC()
}

func (gr GradeRequest) referenceTime() time.Time {
	if gr.SubmittedAt.Valid {
		return gr.SubmittedAt.Time
	}
	return time.Now().UTC()
}

func (gr *GradeRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(gr)
}
