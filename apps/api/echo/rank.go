package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core/rank"
)

type rankApi struct {
	svc      rank.Service
	validate *validator.Validate
}

func registerRankAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc rank.Service, validate *validator.Validate) {
	api := rankApi{svc: svc, validate: validate}

	rg := g.Group("/ranks", jwt)
	rg.GET("", api.query)
	rg.POST("", api.create, adminMiddleware())

	obj := objectMiddleware(func(ctx echo.Context, id string) (interface{}, error) {
		return api.svc.GetByID(ctx.Request().Context(), id)
	})
	rg.GET("/:id", api.retrieve, obj)
	rg.GET("/:id/next", api.next, obj)
	rg.PUT("/:id", api.update, adminMiddleware(), obj)
	rg.DELETE("/:id", api.destroy, adminMiddleware(), obj)
}

// Handlers

func (api *rankApi) create(ctx echo.Context) error {
	var data rank.NewRank
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRank")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, api.validate, api.svc); err != nil {
		return err
	}

	r, err := api.svc.Create(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating rank")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *rankApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	ranks, err := api.svc.Query(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying ranks")
	}
	if ranks == nil {
		ranks = []rank.Rank{}
	}
	return ctx.JSON(http.StatusOK, ranks)
}

func (api *rankApi) retrieve(ctx echo.Context) error {
	r, ok := ctx.Get(contextObjectKey).(rank.Rank)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *rankApi) next(ctx echo.Context) error {
	r, ok := ctx.Get(contextObjectKey).(rank.Rank)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	next, err := api.svc.NextRank(ctx.Request().Context(), r.ID)
	if err != nil {
		return errors.Wrap(err, "finding next rank")
	}
	return ctx.JSON(http.StatusOK, next)
}

func (api *rankApi) update(ctx echo.Context) error {
	r, ok := ctx.Get(contextObjectKey).(rank.Rank)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}

	var data rank.UpdateRank
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRank")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, r, api.validate, api.svc); err != nil {
		return err
	}

	r, err := api.svc.Update(rctx, r, data)
	if err != nil {
		return errors.Wrap(err, "updating rank")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *rankApi) destroy(ctx echo.Context) error {
	r, ok := ctx.Get(contextObjectKey).(rank.Rank)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), r.ID); err != nil {
		return errors.Wrap(err, "deleting rank")
	}
	return ctx.NoContent(http.StatusNoContent)
}
