// Package handler exposes the leads HTTP endpoints, including the claim
// lifecycle (acquire, inspect, respond).
package handler

import (
	"net/http"

	"dealerportal_backend/internal/leads/service"
	"dealerportal_backend/internal/leads/transport"
	"dealerportal_backend/platform/httpkit"
	"dealerportal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles lead HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// New creates a new leads handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// RegisterRoutes mounts the leads routes on the provided group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/:leadId", h.HandleGetLead)
	group.GET("/:leadId/activity", h.HandleListActivity)
	group.GET("/:leadId/claim", h.HandleGetClaim)
	group.POST("/:leadId/claim", h.HandleAcquireClaim)
	group.POST("/:leadId/respond", h.HandleRespond)
}

func leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead ID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// HandleGetLead returns a single lead.
// GET /api/v1/leads/:leadId
func (h *Handler) HandleGetLead(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	lead, err := h.service.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// HandleListActivity returns the audit trail for a lead.
// GET /api/v1/leads/:leadId/activity
func (h *Handler) HandleListActivity(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	items, err := h.service.Activities(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToActivityResponses(items))
}

// HandleGetClaim returns the claim state for an unattended lead.
// GET /api/v1/leads/:leadId/claim
func (h *Handler) HandleGetClaim(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	claim, err := h.service.ClaimState(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToClaimResponse(claim, h.service.TimeRemaining(claim), h.service.Expired(claim)))
}

// HandleAcquireClaim takes the exclusive claim on an unattended lead for the
// caller. A lead held unexpired by someone else yields 409 with the holder
// and remaining lease time.
// POST /api/v1/leads/:leadId/claim
func (h *Handler) HandleAcquireClaim(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if !identity.IsAuthenticated() {
		return
	}

	id, ok := leadID(c)
	if !ok {
		return
	}

	claim, err := h.service.Acquire(c.Request.Context(), id, identity.CallerID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToClaimResponse(claim, h.service.TimeRemaining(claim), false))
}

// HandleRespond completes the caller's action on a claimed lead.
// POST /api/v1/leads/:leadId/respond
func (h *Handler) HandleRespond(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if !identity.IsAuthenticated() {
		return
	}

	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.RespondToLeadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
		if err := h.val.Struct(req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
			return
		}
	}

	lead, err := h.service.Respond(c.Request.Context(), id, identity.CallerID(), req.Note)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}
