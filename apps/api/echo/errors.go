package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/blog"
	"github.com/trezcool/dojang/core/coach"
	"github.com/trezcool/dojang/core/dojang"
	"github.com/trezcool/dojang/core/payment"
	"github.com/trezcool/dojang/core/promotion"
	"github.com/trezcool/dojang/core/rank"
	"github.com/trezcool/dojang/core/student"
	"github.com/trezcool/dojang/core/training"
	"github.com/trezcool/dojang/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")

	errObjNotFoundInCtx = errors.New("object not found in echo.Context")

	// statusCodes maps the domain errors returned as is by the services.
	statusCodes = map[error]int{
		user.ErrNotFound:            http.StatusNotFound,
		dojang.ErrNotFound:          http.StatusNotFound,
		rank.ErrNotFound:            http.StatusNotFound,
		student.ErrNotFound:         http.StatusNotFound,
		coach.ErrNotFound:           http.StatusNotFound,
		training.ErrNotFound:        http.StatusNotFound,
		training.ErrNotEnrolled:     http.StatusNotFound,
		promotion.ErrNotFound:       http.StatusNotFound,
		payment.ErrNotFound:         http.StatusNotFound,
		blog.ErrNotFound:            http.StatusNotFound,
		rank.ErrHighestRank:         http.StatusNotFound,
		dojang.ErrDojangNotEmpty:    http.StatusConflict,
		rank.ErrRankInUse:           http.StatusConflict,
		coach.ErrCoachHasClasses:    http.StatusConflict,
		promotion.ErrNotLatest:      http.StatusConflict,
		promotion.ErrRankChanged:    http.StatusConflict,
		payment.ErrNotCancellable:   http.StatusConflict,
		payment.ErrInvalidSignature: http.StatusUnauthorized,
		payment.ErrGatewayDisabled:  http.StatusServiceUnavailable,
	}
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[fieldPath(vErr)] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if c, ok := statusCodes[origErr]; ok {
				code = c
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.Subject
				usr.Username = claims.Username
				usr.Email = claims.Email
			}
			logger.Error(msg, errors.Wrap(err, msg), usr, map[string]interface{}{
				"method": ctx.Request().Method,
				"path":   ctx.Path(),
			})

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// fieldPath returns the JSON path of a field error without the root struct, e.g. "schedules[0].start".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	for i := 0; i < len(ns); i++ {
		if ns[i] == '.' {
			return ns[i+1:]
		}
	}
	return fe.Field()
}
