// Package handler exposes the inbound lead webhook.
package handler

import (
	"io"
	"net/http"

	"dealerportal_backend/internal/ingestion/service"
	"dealerportal_backend/internal/ingestion/transport"
	"dealerportal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// maxPayloadBytes bounds inbound ADF payloads. Real provider envelopes are a
// few kilobytes; one megabyte is generous.
const maxPayloadBytes = 1 << 20

// Handler handles inbound lead ingestion requests.
type Handler struct {
	service *service.Service
}

// New creates a new ingestion handler.
func New(svc *service.Service) *Handler {
	return &Handler{service: svc}
}

// RegisterRoutes mounts the ingestion routes on the provided group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/adf", h.HandleInboundADF)
}

// HandleInboundADF accepts a raw ADF envelope, runs the ingestion pipeline
// and reports the resulting lead. A duplicate payload is a 200 with the
// existing lead's identity; only malformed or unroutable payloads fail.
// POST /api/v1/webhook/adf
func (h *Handler) HandleInboundADF(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "failed to read request body", nil)
		return
	}
	if len(raw) == 0 {
		httpkit.Error(c, http.StatusBadRequest, "empty request body", nil)
		return
	}

	source := c.Query("source")
	if source == "" {
		source = "webhook"
	}

	result, err := h.service.Ingest(c.Request.Context(), raw, source)
	if httpkit.HandleError(c, err) {
		return
	}

	if result.Duplicate {
		httpkit.OK(c, transport.ToIngestResponse(result))
		return
	}
	httpkit.Created(c, transport.ToIngestResponse(result))
}
