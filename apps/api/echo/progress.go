package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/enroll"
	"github.com/trezcool/elimu/core/progress"
)

type progressApi struct {
	svc        progress.Service
	enrollSvc  enroll.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerProgressAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := progressApi{
		svc:        deps.ProgressSvc,
		enrollSvc:  deps.EnrollSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	eg := g.Group("/enrollments", jwt)
	eg.POST("", api.enroll)
	eg.GET("", api.query, staffMiddleware())

	dg := eg.Group("/:id", enrollmentMiddleware(api.enrollSvc))
	dg.POST("/activity", api.recordActivity)
	dg.GET("/progress", api.retrieveProgress)
	dg.GET("/snapshots", api.querySnapshots)
	dg.POST("/progress/reset", api.resetProgress, adminMiddleware())
	dg.POST("/progress/complete", api.markCompleted, staffMiddleware())
}

// enrollmentMiddleware resolves the enrollment and hides it from other
// tenants and other learners (staff can see all of their tenant's).
func enrollmentMiddleware(svc enroll.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			enr, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == enroll.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding enrollment by ID")
			}
			if enr.TenantID != claims.TenantID {
				return errHttpNotFound
			}
			if enr.UserID != claims.Subject && !(claims.IsAdmin || claims.IsTeacher) {
				return errHttpNotFound
			}
			ctx.Set("object", enr)
			return next(ctx)
		}
	}
}

func contextEnrollment(ctx echo.Context) (enroll.Enrollment, error) {
	enr, ok := ctx.Get("object").(enroll.Enrollment)
	if !ok {
		return enroll.Enrollment{}, errors.New("enrollment object not found in echo.Context")
	}
	return enr, nil
}

// Handlers

func (api *progressApi) enroll(ctx echo.Context) error {
	var data enroll.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	data.TenantID = claims.TenantID
	// learners enroll themselves; staff may enroll anyone
	if data.UserID == "" || !(claims.IsAdmin || claims.IsTeacher) {
		data.UserID = claims.Subject
	}

	if err = data.Validate(api.validate); err != nil {
		return err
	}

	enr, err := api.enrollSvc.Enroll(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *progressApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(enroll.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []enroll.Enrollment{})
	}

	enrollments, err := api.enrollSvc.Filter(ctx.Request().Context(), claims.TenantID, *filter)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrollments == nil {
		enrollments = []enroll.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *progressApi) recordActivity(ctx echo.Context) error {
	enr, err := contextEnrollment(ctx)
	if err != nil {
		return err
	}

	var data progress.Activity
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Activity")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	prog, err := api.svc.RecordActivity(ctx.Request().Context(), enr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *progressApi) retrieveProgress(ctx echo.Context) error {
	enr, err := contextEnrollment(ctx)
	if err != nil {
		return err
	}

	prog, err := api.svc.GetByEnrollment(ctx.Request().Context(), enr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *progressApi) querySnapshots(ctx echo.Context) error {
	enr, err := contextEnrollment(ctx)
	if err != nil {
		return err
	}

	snaps, err := api.svc.Snapshots(ctx.Request().Context(), enr.UserID, enr.CourseID)
	if err != nil {
		return errors.Wrap(err, "querying snapshots")
	}
	if snaps == nil {
		snaps = []progress.Snapshot{}
	}
	return ctx.JSON(http.StatusOK, snaps)
}

func (api *progressApi) resetProgress(ctx echo.Context) error {
	enr, err := contextEnrollment(ctx)
	if err != nil {
		return err
	}

	prog, err := api.svc.GetByEnrollment(ctx.Request().Context(), enr.ID)
	if err != nil {
		return err
	}
	if err = api.svc.Reset(ctx.Request().Context(), prog.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *progressApi) markCompleted(ctx echo.Context) error {
	enr, err := contextEnrollment(ctx)
	if err != nil {
		return err
	}

	var data MarkCompletedRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkCompletedRequest")
	}

	prog, err := api.svc.GetByEnrollment(ctx.Request().Context(), enr.ID)
	if err != nil {
		return err
	}
	if err = api.svc.MarkCompleted(ctx.Request().Context(), prog.ID, data.CertificateRef); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type MarkCompletedRequest struct {
	CertificateRef string `json:"certificate_ref"`
}
