package http

import (
	"net/http"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// Mutating operations answer with a discriminated envelope instead of bare
// errors, so clients branch on success/code without exception plumbing.

func respondOK(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

func respondError(c *gin.Context, err error) {
	code := domain.CodeOf(err)

	message := err.Error()
	if code == domain.CodeInternal {
		message = "internal server error"
	}
	if code == domain.CodeNotFound {
		message = "not found"
	}

	c.JSON(statusFor(code), gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

func statusFor(code string) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeAuth:
		return http.StatusUnauthorized
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict, domain.CodeNotCompleted, domain.CodeNotPaused:
		return http.StatusConflict
	case domain.CodeTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
