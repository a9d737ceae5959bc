package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oshokin/tunestash/internal/logger"
	"github.com/oshokin/tunestash/internal/service/cache"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Code: http.StatusOK, Data: data})
}

func respondMessage(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Code: http.StatusOK, Message: message, Data: data})
}

// respondError writes err as an envelope unless the handler already started the response.
func respondError(c *gin.Context, err error) {
	status := statusFromError(err)

	if status >= http.StatusInternalServerError {
		logger.Errorf(c.Request.Context(), "Request failed: %v", err)
	} else {
		logger.Debugf(c.Request.Context(), "Request rejected: %v", err)
	}

	if c.Writer.Written() {
		c.Abort()

		return
	}

	c.AbortWithStatusJSON(status, Envelope{Code: status, Message: err.Error()})
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, cache.ErrInvalidRequest), errors.Is(err, cache.ErrTooManySongs):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
