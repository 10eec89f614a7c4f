package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/verithos/policyforge-backend/internal/services"
	"github.com/verithos/policyforge-backend/internal/types"
)

type PolicyHandler struct {
	policyService services.PolicyService
}

func NewPolicyHandler(policyService services.PolicyService) *PolicyHandler {
	return &PolicyHandler{policyService: policyService}
}

func policyIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid policy id"))
		return uuid.Nil, false
	}
	return id, true
}

func (ph *PolicyHandler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	p, err := ph.policyService.Create(c.Request.Context(), req.Name)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, p)
}

func (ph *PolicyHandler) List(c *gin.Context) {
	policies, err := ph.policyService.List(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"policies": policies})
}

func (ph *PolicyHandler) Get(c *gin.Context) {
	id, ok := policyIDParam(c)
	if !ok {
		return
	}
	detail, err := ph.policyService.Get(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, detail)
}

func (ph *PolicyHandler) Rename(c *gin.Context) {
	id, ok := policyIDParam(c)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	p, err := ph.policyService.Rename(c.Request.Context(), id, req.Name)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, p)
}

func (ph *PolicyHandler) Duplicate(c *gin.Context) {
	id, ok := policyIDParam(c)
	if !ok {
		return
	}
	p, err := ph.policyService.Duplicate(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, p)
}

func (ph *PolicyHandler) Delete(c *gin.Context) {
	id, ok := policyIDParam(c)
	if !ok {
		return
	}
	if err := ph.policyService.Delete(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

// UpdateStep accepts the raw step payload as the request body; validation
// happens in one place, inside the service.
func (ph *PolicyHandler) UpdateStep(c *gin.Context) {
	id, ok := policyIDParam(c)
	if !ok {
		return
	}
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil || step < 1 || step > types.StepCount {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid step number"))
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	detail, err := ph.policyService.UpdateStep(c.Request.Context(), id, step, json.RawMessage(body))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, detail)
}
