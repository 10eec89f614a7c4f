package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/verithos/policyforge-backend/internal/services"
)

type ShareHandler struct {
	shareService services.ShareService
}

func NewShareHandler(shareService services.ShareService) *ShareHandler {
	return &ShareHandler{shareService: shareService}
}

func (sh *ShareHandler) Publish(c *gin.Context) {
	id, ok := policyIDParam(c)
	if !ok {
		return
	}
	p, err := sh.shareService.Publish(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, p)
}

func (sh *ShareHandler) Revoke(c *gin.Context) {
	id, ok := policyIDParam(c)
	if !ok {
		return
	}
	p, err := sh.shareService.Revoke(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, p)
}
