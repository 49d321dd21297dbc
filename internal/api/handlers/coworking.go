package handlers

import (
	"net/http"

	"github.com/logistyczniepl/marketplace/internal/api/dto"
	"github.com/logistyczniepl/marketplace/internal/listings"
)

type CoworkingHandler struct {
	listingService *listings.Service
}

func NewCoworkingHandler(listingService *listings.Service) *CoworkingHandler {
	return &CoworkingHandler{listingService: listingService}
}

// List handles GET /api/v1/coworking, a read-only offer list.
func (h *CoworkingHandler) List(w http.ResponseWriter, r *http.Request) {
	offers, err := h.listingService.ListCoworking(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list coworking offers"})
		return
	}

	writeJSON(w, http.StatusOK, offers)
}
