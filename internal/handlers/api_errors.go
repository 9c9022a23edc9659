package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"employee-portal/internal/guard"
	"employee-portal/internal/middleware"
	"employee-portal/internal/models"
)

// writeAPIError maps backend and validation errors to a response. A stale
// session (the backend refused the token) is cleared and sent to the login
// page.
func writeAPIError(c *gin.Context, routes guard.Routes, err error) {
	if err == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form", "fields": fieldErrors(verrs)})
		return
	}

	switch {
	case errors.Is(err, models.ErrUnauthorized), errors.Is(err, models.ErrNoToken):
		st := middleware.SessionFrom(c)
		endSession(c, st, routes)
		respondRedirect(c, http.StatusSeeOther, routes.LoginPath, gin.H{"error": "session expired"})
		c.Abort()
		return
	case errors.Is(err, models.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	case errors.Is(err, models.ErrInvalidID):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	case errors.Is(err, models.ErrInvalidFilter):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid filter"})
		return
	case errors.Is(err, models.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid account or password"})
		return
	case errors.Is(err, models.ErrRejected):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "rejected by backend"})
		return
	case errors.Is(err, models.ErrUpstream):
		logger.Warn("backend error", "path", c.Request.URL.Path, "request_id", middleware.RequestIDFrom(c), "error", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "backend unavailable"})
		return
	}

	// Unknown/internal errors: log details, return generic message.
	logger.Error("internal error", "path", c.Request.URL.Path, "request_id", middleware.RequestIDFrom(c), "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// bindError reports a request body that could not be bound at all (as
// opposed to one that failed validation).
func bindError(c *gin.Context, routes guard.Routes, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		writeAPIError(c, routes, err)
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}

func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if name != "" {
			name = strings.ToLower(name[:1]) + name[1:]
		}
		switch fe.Tag() {
		case "required":
			out[name] = "is required"
		case "min":
			out[name] = "must be at least " + fe.Param() + " characters"
		case "email":
			out[name] = "must be a valid email address"
		case "oneof":
			out[name] = "must be one of: " + fe.Param()
		case "datetime":
			out[name] = "must be a date (" + fe.Param() + ")"
		default:
			out[name] = "is invalid"
		}
	}
	return out
}
