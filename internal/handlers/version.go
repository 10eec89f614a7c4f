package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/verithos/policyforge-backend/internal/services"
)

type VersionHandler struct {
	versionService services.VersionService
}

func NewVersionHandler(versionService services.VersionService) *VersionHandler {
	return &VersionHandler{versionService: versionService}
}

func versionIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("versionId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid version id"))
		return uuid.Nil, false
	}
	return id, true
}

func (vh *VersionHandler) Save(c *gin.Context) {
	id, ok := policyIDParam(c)
	if !ok {
		return
	}
	var req struct {
		ChangeNotes string `json:"change_notes"`
	}
	// The body is optional; a bare POST saves without notes.
	_ = c.ShouldBindJSON(&req)
	snapshot, err := vh.versionService.SaveVersion(c.Request.Context(), id, req.ChangeNotes)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, snapshot)
}

func (vh *VersionHandler) List(c *gin.Context) {
	id, ok := policyIDParam(c)
	if !ok {
		return
	}
	versions, err := vh.versionService.ListVersions(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"versions": versions})
}

func (vh *VersionHandler) Get(c *gin.Context) {
	id, ok := policyIDParam(c)
	if !ok {
		return
	}
	versionID, ok := versionIDParam(c)
	if !ok {
		return
	}
	version, err := vh.versionService.GetVersion(c.Request.Context(), id, versionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, version)
}

func (vh *VersionHandler) Restore(c *gin.Context) {
	id, ok := policyIDParam(c)
	if !ok {
		return
	}
	versionID, ok := versionIDParam(c)
	if !ok {
		return
	}
	p, err := vh.versionService.RestoreVersion(c.Request.Context(), id, versionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, p)
}
