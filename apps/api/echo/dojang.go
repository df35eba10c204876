package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core/dojang"
)

type dojangApi struct {
	svc      dojang.Service
	validate *validator.Validate
}

func registerDojangAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc dojang.Service, validate *validator.Validate) {
	api := dojangApi{svc: svc, validate: validate}

	dg := g.Group("/dojangs", jwt)
	dg.GET("", api.query)
	dg.POST("", api.create, adminMiddleware())

	obj := objectMiddleware(func(ctx echo.Context, id string) (interface{}, error) {
		return api.svc.GetByID(ctx.Request().Context(), id)
	})
	dg.GET("/:id", api.retrieve, obj)
	dg.PUT("/:id", api.update, adminMiddleware(), obj)
	dg.DELETE("/:id", api.destroy, adminMiddleware(), obj)
	dg.GET("/:id/summary", api.summary, staffMiddleware(), obj)
}

// Handlers

func (api *dojangApi) create(ctx echo.Context) error {
	var data dojang.NewDojang
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDojang")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, api.validate, api.svc); err != nil {
		return err
	}

	d, err := api.svc.Create(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating dojang")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api *dojangApi) query(ctx echo.Context) error {
	filter := &dojang.QueryFilter{
		Search: ctx.QueryParam("search"),
		City:   ctx.QueryParam("city"),
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	dojangs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying dojangs")
	}
	if dojangs == nil {
		dojangs = []dojang.Dojang{}
	}
	return ctx.JSON(http.StatusOK, dojangs)
}

func (api *dojangApi) retrieve(ctx echo.Context) error {
	d, ok := ctx.Get(contextObjectKey).(dojang.Dojang)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *dojangApi) update(ctx echo.Context) error {
	d, ok := ctx.Get(contextObjectKey).(dojang.Dojang)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}

	var data dojang.UpdateDojang
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateDojang")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, d, api.validate, api.svc); err != nil {
		return err
	}

	d, err := api.svc.Update(rctx, d, data)
	if err != nil {
		return errors.Wrap(err, "updating dojang")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *dojangApi) destroy(ctx echo.Context) error {
	d, ok := ctx.Get(contextObjectKey).(dojang.Dojang)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), d.ID); err != nil {
		return errors.Wrap(err, "deleting dojang")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *dojangApi) summary(ctx echo.Context) error {
	d, ok := ctx.Get(contextObjectKey).(dojang.Dojang)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	sum, err := api.svc.Summary(ctx.Request().Context(), d.ID)
	if err != nil {
		return errors.Wrap(err, "summarizing dojang")
	}
	return ctx.JSON(http.StatusOK, sum)
}
