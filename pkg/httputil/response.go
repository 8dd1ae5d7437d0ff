package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-booking/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string            `json:"status"`
	Kind    errors.Kind       `json:"kind,omitempty"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Status: "success",
		Data:   data,
	})
}

// RespondWithError sends an error response. Errors that are not AppErrors are
// reported as internal errors without leaking their text.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Internal(err)
	}

	status := StatusCode(appErr.Code)
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("kind", string(appErr.Kind)).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString("request_id")).
			Msg("request failed")
	}

	c.AbortWithStatusJSON(status, Response{
		Status:  "error",
		Kind:    appErr.Kind,
		Message: appErr.Message,
		Fields:  appErr.Fields,
	})
}

// RespondWithBindError reports a request that could not be decoded.
func RespondWithBindError(c *gin.Context, err error) {
	RespondWithError(c, errors.BadRequest("invalid request body", err))
}

// StatusCode maps an application error code to an HTTP status.
func StatusCode(code errors.ErrorCode) int {
	switch code {
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrBadRequest:
		return http.StatusBadRequest
	case errors.ErrValidation:
		return http.StatusUnprocessableEntity
	case errors.ErrConflict:
		return http.StatusConflict
	case errors.ErrUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrForbidden:
		return http.StatusForbidden
	case errors.ErrUnavailable:
		return http.StatusServiceUnavailable
	case errors.ErrTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
