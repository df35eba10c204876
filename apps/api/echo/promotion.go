package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core/coach"
	"github.com/trezcool/dojang/core/promotion"
)

type promotionApi struct {
	svc      promotion.Service
	coachSvc coach.Service
	validate *validator.Validate
}

func registerPromotionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := promotionApi{svc: deps.PromotionSvc, coachSvc: deps.CoachSvc, validate: deps.Validate}

	pg := g.Group("/promotions", jwt, staffMiddleware())
	pg.GET("", api.query)
	pg.POST("", api.create)

	obj := objectMiddleware(func(ctx echo.Context, id string) (interface{}, error) {
		return api.svc.GetByID(ctx.Request().Context(), id)
	})
	pg.GET("/:id", api.retrieve, obj)
	pg.DELETE("/:id", api.revert, obj)
}

// Handlers

func (api *promotionApi) create(ctx echo.Context) error {
	var data promotion.NewPromotion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPromotion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()

	// coaches promote on their own behalf
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if data.CoachID == "" && claims.IsCoach {
		c, err := api.coachSvc.GetByUserID(rctx, claims.Subject)
		if err == nil {
			data.CoachID = c.ID
		} else if errors.Cause(err) != coach.ErrNotFound {
			return errors.Wrap(err, "finding coach by user ID")
		}
	}

	p, err := api.svc.Promote(rctx, data)
	if err != nil {
		return errors.Wrap(err, "promoting student")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *promotionApi) query(ctx echo.Context) error {
	filter := &promotion.QueryFilter{
		StudentID: ctx.QueryParam("student_id"),
		CoachID:   ctx.QueryParam("coach_id"),
		RankID:    ctx.QueryParam("rank_id"),
		From:      queryTime(ctx, "from"),
		To:        queryTime(ctx, "to"),
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	promotions, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying promotions")
	}
	if promotions == nil {
		promotions = []promotion.Promotion{}
	}
	return ctx.JSON(http.StatusOK, promotions)
}

func (api *promotionApi) retrieve(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(promotion.Promotion)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *promotionApi) revert(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(promotion.Promotion)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Revert(ctx.Request().Context(), p.ID); err != nil {
		return errors.Wrap(err, "reverting promotion")
	}
	return ctx.NoContent(http.StatusNoContent)
}
