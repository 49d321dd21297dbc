package handlers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/logistyczniepl/marketplace/internal/api/dto"
	"github.com/logistyczniepl/marketplace/internal/api/middleware"
	"github.com/logistyczniepl/marketplace/internal/listings"
	"github.com/logistyczniepl/marketplace/internal/storage"
)

// Image uploads are capped well below typical photo sizes to keep the
// request path cheap; anything bigger belongs in a resize pipeline.
const maxImageBytes = 10 << 20 // 10 MiB

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type UploadHandler struct {
	listingService *listings.Service
	store          storage.ObjectStore
}

func NewUploadHandler(listingService *listings.Service, store storage.ObjectStore) *UploadHandler {
	return &UploadHandler{listingService: listingService, store: store}
}

// UploadImage handles POST /api/v1/warehouses/:id/images. Multipart field
// name: "image". The stored object's URL is appended to the listing's
// image sequence.
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Image storage is not configured"})
		return
	}

	warehouseID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	// Ownership is checked before touching the bucket so a rejected
	// request never leaves an orphan object behind.
	warehouse, err := h.listingService.Get(r.Context(), warehouseID)
	if err != nil {
		writeListingError(w, err)
		return
	}
	if !listings.CanEdit(warehouse, middleware.GetUserID(r.Context()), middleware.GetUserRole(r.Context())) {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Forbidden"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid multipart body or file too large"})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Missing image file"})
		return
	}
	defer file.Close()

	// Sniff the content type rather than trusting the client header
	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Unreadable image file"})
		return
	}
	contentType := http.DetectContentType(head[:n])
	if !allowedImageTypes[contentType] {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error: "Unsupported image type, use JPEG, PNG or WebP",
		})
		return
	}

	key := storage.ListingKey(warehouseID, header.Filename)
	body := io.MultiReader(bytes.NewReader(head[:n]), file)

	url, err := h.store.Upload(r.Context(), key, contentType, body)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Upload failed"})
		return
	}

	warehouse, err = h.listingService.AppendImage(
		r.Context(), warehouseID,
		middleware.GetUserID(r.Context()), middleware.GetUserRole(r.Context()),
		url,
	)
	if err != nil {
		writeListingError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, warehouseToResponse(warehouse))
}
