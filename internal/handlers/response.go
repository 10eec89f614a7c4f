package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/verithos/policyforge-backend/internal/render"
	"github.com/verithos/policyforge-backend/internal/services"
)

type APIError struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the service error taxonomy onto HTTP statuses.
// Handlers call it for any error crossing the service boundary.
func RespondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, ErrorEnvelope{
			Error: APIError{
				Message: validationErr.Message,
				Code:    "validation_failed",
				Fields:  validationErr.Fields,
			},
		})
		return
	}
	var notFoundErr *services.NotFoundError
	if errors.As(err, &notFoundErr) {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	var conflictErr *services.ConflictError
	if errors.As(err, &conflictErr) {
		RespondError(c, http.StatusConflict, "conflict", err)
		return
	}
	var forbiddenErr *services.ForbiddenError
	if errors.As(err, &forbiddenErr) {
		RespondError(c, http.StatusForbidden, "forbidden", err)
		return
	}
	var quotaErr *services.QuotaError
	if errors.As(err, &quotaErr) {
		RespondError(c, http.StatusForbidden, "quota_exceeded", err)
		return
	}
	var renderErr *render.RenderError
	if errors.As(err, &renderErr) {
		RespondError(c, http.StatusInternalServerError, "render_failed", err)
		return
	}
	RespondError(c, http.StatusInternalServerError, "internal", err)
}
