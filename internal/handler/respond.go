package handler

import (
	"errors"
	"net/http"

	"pairlock/internal/transport/httpdto"
	pairlock_errors "pairlock/pkg/errors"

	"github.com/gin-gonic/gin"
)

// respondError maps core sentinel errors onto HTTP statuses. Crypto failures
// surface as a category, never with internal detail.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pairlock_errors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_ARGUMENT"))
	case errors.Is(err, pairlock_errors.ErrValidation), errors.Is(err, pairlock_errors.ErrTooLarge):
		c.JSON(http.StatusUnprocessableEntity, httpdto.NewErrorResponse(err.Error(), "VALIDATION_ERROR"))
	case errors.Is(err, pairlock_errors.ErrForbidden):
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse(err.Error(), "FORBIDDEN"))
	case errors.Is(err, pairlock_errors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse(err.Error(), "UNAUTHORIZED"))
	case errors.Is(err, pairlock_errors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse(err.Error(), "NOT_FOUND"))
	case errors.Is(err, pairlock_errors.ErrDecryptFailed):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "CORRUPTED_MESSAGE"))
	default:
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal error", "INTERNAL_ERROR"))
	}
}
