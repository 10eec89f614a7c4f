package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/verithos/policyforge-backend/internal/services"
)

type AuditHandler struct {
	auditService  services.AuditService
	policyService services.PolicyService
}

func NewAuditHandler(auditService services.AuditService, policyService services.PolicyService) *AuditHandler {
	return &AuditHandler{auditService: auditService, policyService: policyService}
}

func (ah *AuditHandler) History(c *gin.Context) {
	id, ok := policyIDParam(c)
	if !ok {
		return
	}
	if _, err := ah.policyService.GetOwned(c.Request.Context(), nil, id); err != nil {
		RespondServiceError(c, err)
		return
	}
	events, err := ah.auditService.History(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"events": events})
}
