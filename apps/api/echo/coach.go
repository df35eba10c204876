package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core/coach"
)

type coachApi struct {
	svc      coach.Service
	validate *validator.Validate
}

func registerCoachAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc coach.Service, validate *validator.Validate) {
	api := coachApi{svc: svc, validate: validate}

	cg := g.Group("/coaches", jwt, staffMiddleware())
	cg.GET("", api.query)
	cg.POST("", api.create, adminMiddleware())
	cg.GET("/me", api.me)

	obj := objectMiddleware(func(ctx echo.Context, id string) (interface{}, error) {
		return api.svc.GetByID(ctx.Request().Context(), id)
	})
	cg.GET("/:id", api.retrieve, obj)
	cg.PUT("/:id", api.update, adminMiddleware(), obj)
	cg.DELETE("/:id", api.destroy, adminMiddleware(), obj)
}

// Handlers

func (api *coachApi) create(ctx echo.Context) error {
	var data coach.NewCoach
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCoach")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, api.validate, api.svc); err != nil {
		return err
	}

	c, err := api.svc.Create(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating coach")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *coachApi) query(ctx echo.Context) error {
	filter := &coach.QueryFilter{
		IDs:      queryList(ctx, "id"),
		DojangID: ctx.QueryParam("dojang_id"),
		IsActive: queryBool(ctx, "is_active"),
		Search:   ctx.QueryParam("search"),
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	coaches, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying coaches")
	}
	if coaches == nil {
		coaches = []coach.Coach{}
	}
	return ctx.JSON(http.StatusOK, coaches)
}

func (api *coachApi) me(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	c, err := api.svc.GetByUserID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "finding coach by user ID")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *coachApi) retrieve(ctx echo.Context) error {
	c, ok := ctx.Get(contextObjectKey).(coach.Coach)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *coachApi) update(ctx echo.Context) error {
	c, ok := ctx.Get(contextObjectKey).(coach.Coach)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}

	var data coach.UpdateCoach
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCoach")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, c, api.validate, api.svc); err != nil {
		return err
	}

	c, err := api.svc.Update(rctx, c, data)
	if err != nil {
		return errors.Wrap(err, "updating coach")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *coachApi) destroy(ctx echo.Context) error {
	c, ok := ctx.Get(contextObjectKey).(coach.Coach)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), c.ID); err != nil {
		return errors.Wrap(err, "deleting coach")
	}
	return ctx.NoContent(http.StatusNoContent)
}
