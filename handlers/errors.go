package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/karunyatrust/cms/internal/blogs"
	"github.com/karunyatrust/cms/internal/deliveries"
	"github.com/karunyatrust/cms/internal/storage"
	"github.com/karunyatrust/cms/internal/users"
	"github.com/karunyatrust/cms/pkg/logger"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, users.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, users.ErrUserExists),
		errors.Is(err, users.ErrInvalidInput),
		errors.Is(err, storage.ErrInvalidFile),
		errors.Is(err, blogs.ErrInvalidPost),
		errors.Is(err, deliveries.ErrInvalidOutcome):
		return http.StatusBadRequest
	case errors.Is(err, blogs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, deliveries.ErrDeliveryFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
