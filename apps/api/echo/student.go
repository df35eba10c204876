package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core/payment"
	"github.com/trezcool/dojang/core/promotion"
	"github.com/trezcool/dojang/core/rank"
	"github.com/trezcool/dojang/core/student"
)

type studentApi struct {
	svc          student.Service
	rankSvc      rank.Service
	promotionSvc promotion.Service
	paymentSvc   payment.Service
	validate     *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{
		svc:          deps.StudentSvc,
		rankSvc:      deps.RankSvc,
		promotionSvc: deps.PromotionSvc,
		paymentSvc:   deps.PaymentSvc,
		validate:     deps.Validate,
	}

	sg := g.Group("/students", jwt)
	sg.GET("", api.query, staffMiddleware())
	sg.POST("", api.create, adminMiddleware())
	sg.GET("/me", api.me)

	// detail endpoints
	dg := sg.Group("/:id", studentAccessMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.GET("/next-rank", api.nextRank)
	dg.GET("/promotions", api.promotions)
	dg.GET("/payments", api.payments, studentOwnerOrAdminMiddleware())
}

// studentOwnerOrAdminMiddleware only lets admins and the student themself through, others get a 404.
// it expects studentAccessMiddleware to have loaded the student.
func studentOwnerOrAdminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			stud, ok := ctx.Get(contextObjectKey).(student.Student)
			if !ok {
				return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
			}
			if !claims.IsAdmin && (stud.UserID == "" || stud.UserID != claims.Subject) {
				return errHttpNotFound
			}
			return next(ctx)
		}
	}
}

// studentAccessMiddleware loads the student identified by the "id" path param.
// only staff and the student themself get through, others get a 404.
func studentAccessMiddleware(svc student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			stud, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return err
			}
			if !claims.IsStaff() && (stud.UserID == "" || stud.UserID != claims.Subject) {
				return errHttpNotFound
			}
			ctx.Set(contextObjectKey, stud)
			return next(ctx)
		}
	}
}

// contextStudent returns the student linked to the authenticated user.
// users without a student profile get errHttpForbidden.
func contextStudent(ctx echo.Context, svc student.Service) (student.Student, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "getting context claims")
	}
	stud, err := svc.GetByUserID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return student.Student{}, errHttpForbidden
		}
		return student.Student{}, errors.Wrap(err, "finding student by user ID")
	}
	return stud, nil
}

// Handlers

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, api.validate, api.svc); err != nil {
		return err
	}

	stud, err := api.svc.Create(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, stud)
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := &student.QueryFilter{
		IDs:      queryList(ctx, "id"),
		DojangID: ctx.QueryParam("dojang_id"),
		RankID:   ctx.QueryParam("rank_id"),
		IsActive: queryBool(ctx, "is_active"),
		Search:   ctx.QueryParam("search"),
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) me(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	stud, err := api.svc.GetByUserID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "finding student by user ID")
	}
	return ctx.JSON(http.StatusOK, stud)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	stud, ok := ctx.Get(contextObjectKey).(student.Student)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, stud)
}

func (api *studentApi) update(ctx echo.Context) error {
	stud, ok := ctx.Get(contextObjectKey).(student.Student)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, stud, api.validate, api.svc); err != nil {
		return err
	}

	stud, err := api.svc.Update(rctx, stud, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, stud)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	stud, ok := ctx.Get(contextObjectKey).(student.Student)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), stud.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) nextRank(ctx echo.Context) error {
	stud, ok := ctx.Get(contextObjectKey).(student.Student)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	next, err := api.rankSvc.NextRank(ctx.Request().Context(), stud.RankID)
	if err != nil {
		return errors.Wrap(err, "finding next rank")
	}
	return ctx.JSON(http.StatusOK, next)
}

func (api *studentApi) promotions(ctx echo.Context) error {
	stud, ok := ctx.Get(contextObjectKey).(student.Student)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	promotions, err := api.promotionSvc.Query(ctx.Request().Context(), &promotion.QueryFilter{StudentID: stud.ID}, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying promotions")
	}
	if promotions == nil {
		promotions = []promotion.Promotion{}
	}
	return ctx.JSON(http.StatusOK, promotions)
}

func (api *studentApi) payments(ctx echo.Context) error {
	stud, ok := ctx.Get(contextObjectKey).(student.Student)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	filter := &payment.QueryFilter{
		StudentID:   stud.ID,
		Statuses:    queryList(ctx, "status"),
		Concept:     ctx.QueryParam("concept"),
		PeriodMonth: ctx.QueryParam("period_month"),
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	payments, err := api.paymentSvc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if payments == nil {
		payments = []payment.Payment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}
