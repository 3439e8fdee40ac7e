package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yishak-cs/cinetune/internal/logger"
	"github.com/yishak-cs/cinetune/internal/services"
)

var errRouteNotFound = errors.New("API endpoint not found")

// APIError is the error body of a failed response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps an APIError.
type ErrorEnvelope struct {
	Success bool     `json:"success"`
	Error   APIError `json:"error"`
}

// SuccessEnvelope wraps a successful payload.
type SuccessEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// RespondOK writes payload with status 200.
func RespondOK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, SuccessEnvelope{Success: true, Data: payload})
}

// RespondCreated writes payload with status 201.
func RespondCreated(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusCreated, SuccessEnvelope{Success: true, Data: payload})
}

// RespondError aborts the request with an ErrorEnvelope.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// respondServiceError maps service errors to HTTP statuses. Anything not
// recognized is logged and reported as a 500 without its details.
func respondServiceError(c *gin.Context, log *logger.Logger, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		RespondError(c, http.StatusBadRequest, "invalid_input", verr)
	case errors.Is(err, services.ErrInvalidInput):
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, services.ErrAlreadyFavorited):
		RespondError(c, http.StatusBadRequest, "already_favorited", err)
	case errors.Is(err, services.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	default:
		log.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err)
		RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("internal server error"))
	}
}
