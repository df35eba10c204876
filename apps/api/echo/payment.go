package echoapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/payment"
	"github.com/trezcool/dojang/core/student"
)

type paymentApi struct {
	svc        payment.Service
	studentSvc student.Service
	logger     core.Logger
	validate   *validator.Validate
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := paymentApi{
		svc:        deps.PaymentSvc,
		studentSvc: deps.StudentSvc,
		logger:     deps.Logger,
		validate:   deps.Validate,
	}

	pg := g.Group("/payments")

	// un-authed endpoints
	pg.POST("/webhook", api.webhook)

	// authed endpoints
	ag := pg.Group("", jwt)
	ag.GET("", api.query, adminMiddleware())
	ag.POST("", api.create, adminMiddleware())
	ag.POST("/checkout", api.checkout)

	// detail endpoints
	dg := ag.Group("/:id", api.ownerOrAdminMiddleware())
	dg.GET("", api.retrieve)
	dg.POST("/cancel", api.cancel)
}

// ownerOrAdminMiddleware loads the payment identified by the "id" path param.
// only admins and the paying student get through, others get a 404.
func (api *paymentApi) ownerOrAdminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			p, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return err
			}
			if !claims.IsAdmin {
				stud, err := contextStudent(ctx, api.studentSvc)
				if err != nil || stud.ID != p.StudentID {
					return errHttpNotFound
				}
			}
			ctx.Set(contextObjectKey, p)
			return next(ctx)
		}
	}
}

// Handlers

func (api *paymentApi) create(ctx echo.Context) error {
	var data payment.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Record(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording payment")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *paymentApi) checkout(ctx echo.Context) error {
	var data payment.NewCheckout
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCheckout")
	}

	// students check out for themselves only
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin {
		stud, err := contextStudent(ctx, api.studentSvc)
		if err != nil {
			return err
		}
		if data.StudentID == "" {
			data.StudentID = stud.ID
		} else if core.CleanString(data.StudentID) != stud.ID {
			return errHttpForbidden
		}
	}

	if err = data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Checkout(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "checking out")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *paymentApi) query(ctx echo.Context) error {
	filter := &payment.QueryFilter{
		StudentID:   ctx.QueryParam("student_id"),
		Statuses:    queryList(ctx, "status"),
		Concept:     ctx.QueryParam("concept"),
		Method:      ctx.QueryParam("method"),
		PeriodMonth: ctx.QueryParam("period_month"),
		CreatedFrom: queryTime(ctx, "created_from"),
		CreatedTo:   queryTime(ctx, "created_to"),
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	payments, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if payments == nil {
		payments = []payment.Payment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *paymentApi) retrieve(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(payment.Payment)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *paymentApi) cancel(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(payment.Payment)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	p, err := api.svc.Cancel(ctx.Request().Context(), p.ID)
	if err != nil {
		return errors.Wrap(err, "cancelling payment")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *paymentApi) webhook(ctx echo.Context) error {
	n := notificationFromRequest(ctx)

	p, err := api.svc.HandleNotification(ctx.Request().Context(), n)
	if err != nil {
		if errors.Cause(err) == payment.ErrUnknownReference {
			// acknowledge so the provider stops retrying
			api.logger.Warn("payment webhook: "+err.Error(), map[string]interface{}{"data_id": n.DataID})
			return ctx.JSON(http.StatusOK, WebhookResponse{Status: "ignored"})
		}
		return errors.Wrap(err, "handling payment notification")
	}
	if p.ID == "" {
		return ctx.JSON(http.StatusOK, WebhookResponse{Status: "ignored"})
	}
	return ctx.JSON(http.StatusOK, WebhookResponse{Status: p.Status, PaymentID: p.ID})
}

// notificationFromRequest reads the notification from the query params ("type" or "topic", "data.id" or "id"),
// falling back to the JSON body for missing values.
func notificationFromRequest(ctx echo.Context) payment.Notification {
	n := payment.Notification{
		Topic:     ctx.QueryParam("type"),
		DataID:    ctx.QueryParam("data.id"),
		RequestID: ctx.Request().Header.Get("x-request-id"),
		Signature: ctx.Request().Header.Get("x-signature"),
	}
	if n.Topic == "" {
		n.Topic = ctx.QueryParam("topic")
	}
	if n.DataID == "" {
		n.DataID = ctx.QueryParam("id")
	}

	var body WebhookBody
	if ctx.Request().Body != nil && json.NewDecoder(ctx.Request().Body).Decode(&body) == nil {
		n.Action = body.Action
		if n.Topic == "" {
			n.Topic = body.Type
		}
		if n.DataID == "" {
			n.DataID = string(body.Data.ID)
		}
	}
	n.Topic = strings.ToLower(strings.TrimSpace(n.Topic))
	n.DataID = strings.TrimSpace(n.DataID)
	return n
}

type (
	WebhookBody struct {
		Action string `json:"action"`
		Type   string `json:"type"`
		Data   struct {
			ID flexibleID `json:"id"`
		} `json:"data"`
	}

	WebhookResponse struct {
		Status    string `json:"status"`
		PaymentID string `json:"payment_id,omitempty"`
	}

	// flexibleID accepts both JSON strings and numbers.
	flexibleID string
)

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = flexibleID(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*id = flexibleID(num.String())
	return nil
}
