package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/heartline/heartline/pkg/errors"
)

// respondError maps application error codes onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case apperrors.CodeInvalidInput:
		status = http.StatusBadRequest
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeConflict:
		status = http.StatusConflict
	case apperrors.CodeUnavailable:
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"error": appErr.Message,
		"code":  string(appErr.Code),
	})
}
