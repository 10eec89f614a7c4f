package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/verithos/policyforge-backend/internal/logger"
	"github.com/verithos/policyforge-backend/internal/requestdata"
	"github.com/verithos/policyforge-backend/internal/services"
	"github.com/verithos/policyforge-backend/internal/sse"
)

type SSEHandler struct {
	log           *logger.Logger
	hub           *sse.SSEHub
	policyService services.PolicyService
}

func NewSSEHandler(log *logger.Logger, hub *sse.SSEHub, policyService services.PolicyService) *SSEHandler {
	return &SSEHandler{
		log:           log.With("handler", "SSEHandler"),
		hub:           hub,
		policyService: policyService,
	}
}

// Stream opens the event stream and subscribes the client to every policy
// named by the repeated "policy" query parameter. Foreign policies are
// silently skipped.
func (sh *SSEHandler) Stream(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("not authenticated"))
		return
	}
	client := sh.hub.NewSSEClient(rd.UserID)
	defer sh.hub.CloseClient(client)

	for _, raw := range c.QueryArray("policy") {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		if _, err := sh.policyService.GetOwned(c.Request.Context(), nil, id); err != nil {
			continue
		}
		sh.hub.AddChannel(client, sse.PolicyChannel(id))
	}

	sh.hub.ServeHTTP(c.Writer, c.Request, client)
}
