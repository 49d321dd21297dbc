package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/logistyczniepl/marketplace/internal/api/handlers"
	"github.com/logistyczniepl/marketplace/internal/database/models"
	"github.com/logistyczniepl/marketplace/internal/listings"
	"github.com/logistyczniepl/marketplace/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoworkingHandler_List(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	handler := handlers.NewCoworkingHandler(listings.NewService(tc.DB, nil))
	r := chi.NewRouter()
	r.Get("/api/v1/coworking", handler.List)

	t.Run("empty list", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/coworking", nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp []models.Coworking
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Empty(t, resp)
	})

	t.Run("returns stored offers", func(t *testing.T) {
		require.NoError(t, tc.DB.Create(&models.Coworking{
			Title:       "Strefa coworkingowa Ursus",
			Location:    "Warszawa",
			Description: "Open space z dostępem do rampy",
		}).Error)

		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/coworking", nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp []models.Coworking
		testutil.ParseJSONResponse(t, rr, &resp)
		require.Len(t, resp, 1)
		assert.Equal(t, "Strefa coworkingowa Ursus", resp[0].Title)
	})
}
