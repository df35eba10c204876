package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core/blog"
)

type blogApi struct {
	svc      blog.Service
	validate *validator.Validate
}

func registerBlogAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc blog.Service, validate *validator.Validate) {
	api := blogApi{svc: svc, validate: validate}

	bg := g.Group("/blog")

	// un-authed endpoints
	bg.GET("", api.queryPublished)
	bg.GET("/:slug", api.retrieveBySlug)

	// staff endpoints, drafts included
	eg := bg.Group("/entries", jwt, staffMiddleware())
	eg.GET("", api.query)
	eg.POST("", api.create)

	obj := objectMiddleware(func(ctx echo.Context, id string) (interface{}, error) {
		return api.svc.GetByID(ctx.Request().Context(), id)
	})
	eg.GET("/:id", api.retrieve, obj)
	eg.PUT("/:id", api.update, obj)
	eg.DELETE("/:id", api.destroy, obj)
}

// Handlers

func (api *blogApi) create(ctx echo.Context) error {
	var data blog.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	e, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating entry")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *blogApi) queryEntries(ctx echo.Context, publishedOnly bool) error {
	filter := &blog.QueryFilter{
		PublishedOnly: publishedOnly,
		AuthorID:      ctx.QueryParam("author_id"),
		Tag:           ctx.QueryParam("tag"),
		Search:        ctx.QueryParam("search"),
	}
	ordering := new(Ordering)
	if !publishedOnly {
		ordering.Bind(ctx)
	}

	entries, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying entries")
	}
	if entries == nil {
		entries = []blog.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *blogApi) queryPublished(ctx echo.Context) error {
	return api.queryEntries(ctx, true)
}

func (api *blogApi) query(ctx echo.Context) error {
	return api.queryEntries(ctx, ctx.QueryParam("published") == "true")
}

func (api *blogApi) retrieveBySlug(ctx echo.Context) error {
	e, err := api.svc.GetBySlug(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		return errors.Wrap(err, "finding entry by slug")
	}
	if !e.Published {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *blogApi) retrieve(ctx echo.Context) error {
	e, ok := ctx.Get(contextObjectKey).(blog.Entry)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *blogApi) update(ctx echo.Context) error {
	e, ok := ctx.Get(contextObjectKey).(blog.Entry)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}

	var data blog.UpdateEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Update(ctx.Request().Context(), e, data)
	if err != nil {
		return errors.Wrap(err, "updating entry")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *blogApi) destroy(ctx echo.Context) error {
	e, ok := ctx.Get(contextObjectKey).(blog.Entry)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), e.ID); err != nil {
		return errors.Wrap(err, "deleting entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}
