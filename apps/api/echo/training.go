package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core/student"
	"github.com/trezcool/dojang/core/training"
)

type trainingApi struct {
	svc        training.Service
	studentSvc student.Service
	validate   *validator.Validate
}

func registerTrainingAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := trainingApi{svc: deps.TrainingSvc, studentSvc: deps.StudentSvc, validate: deps.Validate}

	cg := g.Group("/classes", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, staffMiddleware())

	// detail endpoints
	dg := cg.Group("/:id", objectMiddleware(func(ctx echo.Context, id string) (interface{}, error) {
		return api.svc.GetByID(ctx.Request().Context(), id)
	}))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, staffMiddleware())
	dg.DELETE("", api.destroy, staffMiddleware())
	dg.GET("/conflicts", api.conflicts, staffMiddleware())
	dg.GET("/students", api.students, staffMiddleware())
	dg.POST("/enrollments", api.enroll)
	dg.DELETE("/enrollments/:student_id", api.unenroll)
}

// canManageEnrollment lets staff manage any enrollment and students their own.
func (api *trainingApi) canManageEnrollment(ctx echo.Context, studentID string) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsStaff() {
		return nil
	}
	stud, err := contextStudent(ctx, api.studentSvc)
	if err != nil {
		return err
	}
	if stud.ID != studentID {
		return errHttpForbidden
	}
	return nil
}

// Handlers

func (api *trainingApi) create(ctx echo.Context) error {
	var data training.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tc, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, tc)
}

func (api *trainingApi) query(ctx echo.Context) error {
	filter := &training.QueryFilter{
		DojangID:  ctx.QueryParam("dojang_id"),
		CoachID:   ctx.QueryParam("coach_id"),
		StudentID: ctx.QueryParam("student_id"),
		Day:       queryWeekday(ctx, "day"),
		Search:    ctx.QueryParam("search"),
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	classes, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []training.TrainingClass{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *trainingApi) retrieve(ctx echo.Context) error {
	tc, ok := ctx.Get(contextObjectKey).(training.TrainingClass)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, tc)
}

func (api *trainingApi) update(ctx echo.Context) error {
	tc, ok := ctx.Get(contextObjectKey).(training.TrainingClass)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}

	var data training.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tc, err := api.svc.Update(ctx.Request().Context(), tc, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, tc)
}

func (api *trainingApi) destroy(ctx echo.Context) error {
	tc, ok := ctx.Get(contextObjectKey).(training.TrainingClass)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), tc.ID); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *trainingApi) conflicts(ctx echo.Context) error {
	tc, ok := ctx.Get(contextObjectKey).(training.TrainingClass)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	conflicts, err := api.svc.Conflicts(ctx.Request().Context(), tc)
	if err != nil {
		return errors.Wrap(err, "finding conflicts")
	}
	if conflicts == nil {
		conflicts = []training.Conflict{}
	}
	return ctx.JSON(http.StatusOK, conflicts)
}

func (api *trainingApi) students(ctx echo.Context) error {
	tc, ok := ctx.Get(contextObjectKey).(training.TrainingClass)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	students, err := api.svc.Students(ctx.Request().Context(), tc.ID)
	if err != nil {
		return errors.Wrap(err, "querying class students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *trainingApi) enroll(ctx echo.Context) error {
	tc, ok := ctx.Get(contextObjectKey).(training.TrainingClass)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}

	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	if err := api.canManageEnrollment(ctx, data.StudentID); err != nil {
		return err
	}

	e, err := api.svc.Enroll(ctx.Request().Context(), tc.ID, data.StudentID)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *trainingApi) unenroll(ctx echo.Context) error {
	tc, ok := ctx.Get(contextObjectKey).(training.TrainingClass)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	studentID := ctx.Param("student_id")
	if err := api.canManageEnrollment(ctx, studentID); err != nil {
		return err
	}
	if err := api.svc.Unenroll(ctx.Request().Context(), tc.ID, studentID); err != nil {
		return errors.Wrap(err, "unenrolling student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type EnrollRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}
