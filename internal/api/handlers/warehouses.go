package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/logistyczniepl/marketplace/internal/api/dto"
	"github.com/logistyczniepl/marketplace/internal/api/middleware"
	"github.com/logistyczniepl/marketplace/internal/api/validation"
	"github.com/logistyczniepl/marketplace/internal/database/models"
	"github.com/logistyczniepl/marketplace/internal/listings"
)

type WarehouseHandler struct {
	listingService *listings.Service
}

func NewWarehouseHandler(listingService *listings.Service) *WarehouseHandler {
	return &WarehouseHandler{listingService: listingService}
}

// CreateWarehouseRequest represents the add-listing form
type CreateWarehouseRequest struct {
	Title         string `json:"title"`
	Location      string `json:"location"`
	Description   string `json:"description"`
	AvailableFrom string `json:"available_from"` // YYYY-MM-DD

	SocialFacilities *bool `json:"social_facilities"`
	ParkingTruck     *bool `json:"parking_truck"`
	ParkingCars      *bool `json:"parking_cars"`
	Media            *bool `json:"media"`
	Heating          *bool `json:"heating"`
	Flooring         *bool `json:"flooring"`

	Images []string `json:"images"`
}

func (r CreateWarehouseRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Title == "" {
		errors["title"] = "Title is required"
	}
	if r.Location == "" {
		errors["location"] = "Location is required"
	}
	if r.Description == "" {
		errors["description"] = "Description is required"
	}
	if r.AvailableFrom == "" {
		errors["available_from"] = "Availability date is required"
	} else if _, ok := validation.ParseDate(r.AvailableFrom); !ok {
		errors["available_from"] = "Availability date must be YYYY-MM-DD"
	}
	return errors
}

// UpdateWarehouseRequest supports partial updates; nil means unchanged.
type UpdateWarehouseRequest struct {
	Title         *string `json:"title"`
	Location      *string `json:"location"`
	Description   *string `json:"description"`
	AvailableFrom *string `json:"available_from"`

	SocialFacilities *bool `json:"social_facilities"`
	ParkingTruck     *bool `json:"parking_truck"`
	ParkingCars      *bool `json:"parking_cars"`
	Media            *bool `json:"media"`
	Heating          *bool `json:"heating"`
	Flooring         *bool `json:"flooring"`

	Images *[]string `json:"images"`
}

func (r UpdateWarehouseRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.AvailableFrom != nil {
		if _, ok := validation.ParseDate(*r.AvailableFrom); !ok {
			errors["available_from"] = "Availability date must be YYYY-MM-DD"
		}
	}
	return errors
}

// WarehouseResponse represents a listing in API responses
type WarehouseResponse struct {
	ID            string `json:"id"`
	OwnerID       string `json:"owner_id"`
	Title         string `json:"title"`
	Location      string `json:"location"`
	Description   string `json:"description"`
	AvailableFrom string `json:"available_from"`

	SocialFacilities *bool `json:"social_facilities,omitempty"`
	ParkingTruck     *bool `json:"parking_truck,omitempty"`
	ParkingCars      *bool `json:"parking_cars,omitempty"`
	Media            *bool `json:"media,omitempty"`
	Heating          *bool `json:"heating,omitempty"`
	Flooring         *bool `json:"flooring,omitempty"`

	Images   []string `json:"images"`
	Accepted bool     `json:"accepted"`
	Promoted bool     `json:"promoted"`

	CreatedAt string `json:"created_at"`
}

func warehouseToResponse(w *models.Warehouse) WarehouseResponse {
	return WarehouseResponse{
		ID:               w.ID.String(),
		OwnerID:          w.OwnerID.String(),
		Title:            w.Title,
		Location:         w.Location,
		Description:      w.Description,
		AvailableFrom:    w.AvailableFrom.Format(validation.DateLayout),
		SocialFacilities: w.SocialFacilities,
		ParkingTruck:     w.ParkingTruck,
		ParkingCars:      w.ParkingCars,
		Media:            w.Media,
		Heating:          w.Heating,
		Flooring:         w.Flooring,
		Images:           w.Images,
		Accepted:         w.Accepted,
		Promoted:         w.Promoted,
		CreatedAt:        w.CreatedAt.Format(time.RFC3339),
	}
}

// List handles GET /api/v1/warehouses. Public: accepted listings only,
// promoted first, optionally narrowed by keyword/location/distance.
func (h *WarehouseHandler) List(w http.ResponseWriter, r *http.Request) {
	criteria := listings.Criteria{
		Keyword:  r.URL.Query().Get("keyword"),
		Location: r.URL.Query().Get("location"),
		Distance: r.URL.Query().Get("distance"),
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := dto.PaginationParams{Page: page, PerPage: perPage}
	pagination.Normalize()

	matched, err := h.listingService.ListPublic(r.Context(), criteria)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list warehouses"})
		return
	}

	total := int64(len(matched))
	start := pagination.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + pagination.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	pageItems := matched[start:end]

	response := make([]WarehouseResponse, len(pageItems))
	for i := range pageItems {
		response[i] = warehouseToResponse(&pageItems[i])
	}

	totalPages := int(total) / pagination.PerPage
	if int(total)%pagination.PerPage > 0 {
		totalPages++
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       response,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages,
	})
}

// Mine handles GET /api/v1/warehouses/mine: the caller's listings,
// pending ones included.
func (h *WarehouseHandler) Mine(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	warehouses, err := h.listingService.ListByOwner(r.Context(), ownerID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list warehouses"})
		return
	}

	response := make([]WarehouseResponse, len(warehouses))
	for i := range warehouses {
		response[i] = warehouseToResponse(&warehouses[i])
	}
	writeJSON(w, http.StatusOK, response)
}

// Create handles POST /api/v1/warehouses
func (h *WarehouseHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	var req CreateWarehouseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}
	availableFrom, _ := validation.ParseDate(req.AvailableFrom)

	warehouse, err := h.listingService.Create(r.Context(), listings.CreateInput{
		OwnerID:          ownerID,
		Title:            req.Title,
		Location:         req.Location,
		Description:      req.Description,
		AvailableFrom:    availableFrom,
		SocialFacilities: req.SocialFacilities,
		ParkingTruck:     req.ParkingTruck,
		ParkingCars:      req.ParkingCars,
		Media:            req.Media,
		Heating:          req.Heating,
		Flooring:         req.Flooring,
		Images:           req.Images,
	})
	if err != nil {
		writeListingError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, warehouseToResponse(warehouse))
}

// Get handles GET /api/v1/warehouses/:id. Pending listings are only shown
// to their owner and admins.
func (h *WarehouseHandler) Get(w http.ResponseWriter, r *http.Request) {
	warehouseID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	warehouse, err := h.listingService.Get(r.Context(), warehouseID)
	if err != nil {
		writeListingError(w, err)
		return
	}

	viewerID := middleware.GetUserID(r.Context())
	viewerRole := middleware.GetUserRole(r.Context())
	if !listings.CanView(warehouse, viewerID, viewerRole) {
		// Indistinguishable from a missing listing on purpose
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Warehouse not found"})
		return
	}

	writeJSON(w, http.StatusOK, warehouseToResponse(warehouse))
}

// Update handles PUT /api/v1/warehouses/:id
func (h *WarehouseHandler) Update(w http.ResponseWriter, r *http.Request) {
	warehouseID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateWarehouseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	input := listings.UpdateInput{
		Title:            req.Title,
		Location:         req.Location,
		Description:      req.Description,
		SocialFacilities: req.SocialFacilities,
		ParkingTruck:     req.ParkingTruck,
		ParkingCars:      req.ParkingCars,
		Media:            req.Media,
		Heating:          req.Heating,
		Flooring:         req.Flooring,
		Images:           req.Images,
	}
	if req.AvailableFrom != nil {
		t, _ := validation.ParseDate(*req.AvailableFrom)
		input.AvailableFrom = &t
	}

	warehouse, err := h.listingService.Update(
		r.Context(), warehouseID,
		middleware.GetUserID(r.Context()), middleware.GetUserRole(r.Context()),
		input,
	)
	if err != nil {
		writeListingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, warehouseToResponse(warehouse))
}

// Delete handles DELETE /api/v1/warehouses/:id
func (h *WarehouseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	warehouseID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	err := h.listingService.Delete(
		r.Context(), warehouseID,
		middleware.GetUserID(r.Context()), middleware.GetUserRole(r.Context()),
	)
	if err != nil {
		writeListingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Warehouse deleted"})
}

// Accept handles PUT /api/v1/warehouses/:id/accept (admin moderation)
func (h *WarehouseHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, h.listingService.SetAccepted)
}

// Promote handles PUT /api/v1/warehouses/:id/promote (admin)
func (h *WarehouseHandler) Promote(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, h.listingService.SetPromoted)
}

type flagRequest struct {
	Value bool `json:"value"`
}

func (h *WarehouseHandler) setFlag(
	w http.ResponseWriter, r *http.Request,
	set func(ctx context.Context, id uuid.UUID, value bool) (*models.Warehouse, error),
) {
	warehouseID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req flagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	warehouse, err := set(r.Context(), warehouseID, req.Value)
	if err != nil {
		writeListingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, warehouseToResponse(warehouse))
}

func writeListingError(w http.ResponseWriter, err error) {
	var vErr *listings.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: vErr.Fields})
	case err == listings.ErrNotFound:
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Warehouse not found"})
	case err == listings.ErrForbidden:
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Forbidden"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Request failed"})
	}
}
