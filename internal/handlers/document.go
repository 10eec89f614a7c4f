package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/verithos/policyforge-backend/internal/render"
	"github.com/verithos/policyforge-backend/internal/requestdata"
	"github.com/verithos/policyforge-backend/internal/services"
)

type DocumentHandler struct {
	renderService services.RenderService
}

func NewDocumentHandler(renderService services.RenderService) *DocumentHandler {
	return &DocumentHandler{renderService: renderService}
}

func formatParam(c *gin.Context) (render.Format, bool) {
	format, err := render.ParseFormat(c.Param("format"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return "", false
	}
	return format, true
}

func respondArtifact(c *gin.Context, artifact *render.Artifact, name string) {
	disposition := fmt.Sprintf("attachment; filename=%q", name+"."+artifact.FileExt)
	if artifact.Format == render.FormatHTML {
		disposition = "inline"
	}
	c.Header("Content-Disposition", disposition)
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// Render produces a document in one format. A valid share token in the
// "token" query grants access to the published document without a session.
func (dh *DocumentHandler) Render(c *gin.Context) {
	id, ok := policyIDParam(c)
	if !ok {
		return
	}
	format, ok := formatParam(c)
	if !ok {
		return
	}
	if token := c.Query("token"); token != "" {
		artifact, err := dh.renderService.RenderWithToken(c.Request.Context(), id, token, format)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		respondArtifact(c, artifact, "policy")
		return
	}
	if requestdata.GetRequestData(c.Request.Context()) == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing or invalid token"))
		return
	}
	artifact, err := dh.renderService.RenderOwned(c.Request.Context(), id, format)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	respondArtifact(c, artifact, "policy")
}

// SharedView serves the published document as an inline HTML page.
func (dh *DocumentHandler) SharedView(c *gin.Context) {
	artifact, err := dh.renderService.RenderShared(c.Request.Context(), c.Param("token"), render.FormatHTML)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	respondArtifact(c, artifact, "policy")
}

func (dh *DocumentHandler) Preview(c *gin.Context) {
	id, ok := policyIDParam(c)
	if !ok {
		return
	}
	doc, err := dh.renderService.Preview(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, doc)
}

func (dh *DocumentHandler) Export(c *gin.Context) {
	id, ok := policyIDParam(c)
	if !ok {
		return
	}
	data, filename, err := dh.renderService.ExportBundle(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/zip", data)
}
