// Package handler exposes the contacts HTTP endpoints.
package handler

import (
	"net/http"

	"dealerportal_backend/internal/contacts/service"
	"dealerportal_backend/internal/contacts/transport"
	"dealerportal_backend/platform/httpkit"
	"dealerportal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles contact HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// New creates a new contacts handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// RegisterRoutes mounts the contacts routes on the provided group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/:contactId", h.HandleGetContact)
	group.POST("/merge", h.HandleMergeContacts)
}

// HandleGetContact returns a single contact.
// GET /api/v1/contacts/:contactId
func (h *Handler) HandleGetContact(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("contactId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid contact ID", nil)
		return
	}

	contact, err := h.service.Get(c.Request.Context(), contactID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToContactResponse(contact))
}

// HandleMergeContacts merges the secondary contact into the primary.
// POST /api/v1/contacts/merge
func (h *Handler) HandleMergeContacts(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if !identity.IsAuthenticated() {
		return
	}

	var req transport.MergeContactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	selections := make(map[string]service.Side, len(req.Selections))
	for field, side := range req.Selections {
		selections[field] = service.Side(side)
	}

	merged, err := h.service.Merge(c.Request.Context(), req.PrimaryID, req.SecondaryID, selections, identity.CallerID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToContactResponse(merged))
}
