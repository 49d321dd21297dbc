package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/logistyczniepl/marketplace/internal/api/dto"
	"github.com/logistyczniepl/marketplace/internal/api/handlers"
	"github.com/logistyczniepl/marketplace/internal/api/middleware"
	"github.com/logistyczniepl/marketplace/internal/database/models"
	"github.com/logistyczniepl/marketplace/internal/listings"
	"github.com/logistyczniepl/marketplace/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWarehouseTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	listingService := listings.NewService(tc.DB, nil)
	handler := handlers.NewWarehouseHandler(listingService)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(tc.JWTService))
		r.Get("/api/v1/warehouses", handler.List)
		r.Get("/api/v1/warehouses/{id}", handler.Get)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Get("/api/v1/warehouses/mine", handler.Mine)
		r.Post("/api/v1/warehouses", handler.Create)
		r.Put("/api/v1/warehouses/{id}", handler.Update)
		r.Delete("/api/v1/warehouses/{id}", handler.Delete)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Put("/api/v1/warehouses/{id}/accept", handler.Accept)
			r.Put("/api/v1/warehouses/{id}/promote", handler.Promote)
		})
	})

	return r, tc
}

type warehousePage struct {
	Data       []handlers.WarehouseResponse `json:"data"`
	Total      int64                        `json:"total"`
	Page       int                          `json:"page"`
	PerPage    int                          `json:"per_page"`
	TotalPages int                          `json:"total_pages"`
}

func TestWarehouseHandler_Create(t *testing.T) {
	router, tc := setupWarehouseTestRouter(t)
	defer tc.Cleanup()

	t.Run("creates a pending listing", func(t *testing.T) {
		body := map[string]interface{}{
			"title":          "Magazyn Okęcie",
			"location":       "Warszawa",
			"description":    "2000 m2 przy lotnisku",
			"available_from": "2026-10-01",
			"parking_truck":  true,
		}

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/warehouses", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp handlers.WarehouseResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "Magazyn Okęcie", resp.Title)
		assert.Equal(t, tc.User.ID.String(), resp.OwnerID)
		assert.Equal(t, "2026-10-01", resp.AvailableFrom)
		assert.False(t, resp.Accepted)
		require.NotNil(t, resp.ParkingTruck)
		assert.True(t, *resp.ParkingTruck)
	})

	t.Run("missing fields are reported individually", func(t *testing.T) {
		body := map[string]interface{}{"title": "Only a title"}

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/warehouses", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var resp dto.ErrorResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Contains(t, resp.Details, "location")
		assert.Contains(t, resp.Details, "description")
		assert.Contains(t, resp.Details, "available_from")
		assert.NotContains(t, resp.Details, "title")
	})

	t.Run("malformed date is rejected", func(t *testing.T) {
		body := map[string]interface{}{
			"title":          "Bad date",
			"location":       "Warszawa",
			"description":    "x",
			"available_from": "tomorrow",
		}

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/warehouses", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("requires authentication", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/warehouses", map[string]interface{}{})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestWarehouseHandler_List(t *testing.T) {
	router, tc := setupWarehouseTestRouter(t)
	defer tc.Cleanup()

	accepted := testutil.CreateTestWarehouse(t, tc.DB, tc.User.ID, true)
	testutil.CreateTestWarehouse(t, tc.DB, tc.User.ID, false) // pending, must stay hidden

	t.Run("anonymous browse shows accepted listings only", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/warehouses", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var page warehousePage
		testutil.ParseJSONResponse(t, rr, &page)
		require.Len(t, page.Data, 1)
		assert.Equal(t, accepted.ID.String(), page.Data[0].ID)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("keyword filtering", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/warehouses?keyword=no-such-listing", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		var page warehousePage
		testutil.ParseJSONResponse(t, rr, &page)
		assert.Empty(t, page.Data)
	})

	t.Run("distance sentinel does not filter", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/warehouses?distance=Wszystkie", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		var page warehousePage
		testutil.ParseJSONResponse(t, rr, &page)
		assert.Len(t, page.Data, 1)
	})

	t.Run("pagination clamps past the end", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/warehouses?page=99", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var page warehousePage
		testutil.ParseJSONResponse(t, rr, &page)
		assert.Empty(t, page.Data)
		assert.Equal(t, int64(1), page.Total)
	})
}

func TestWarehouseHandler_Get(t *testing.T) {
	router, tc := setupWarehouseTestRouter(t)
	defer tc.Cleanup()

	pending := testutil.CreateTestWarehouse(t, tc.DB, tc.User.ID, false)
	public := testutil.CreateTestWarehouse(t, tc.DB, tc.User.ID, true)

	t.Run("anyone can fetch an accepted listing", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/warehouses/"+public.ID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("pending listing is hidden from strangers", func(t *testing.T) {
		stranger := testutil.CreateTestUser(t, tc.DB)
		strangerToken := testutil.GenerateTestToken(t, tc.JWTService, stranger)

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/warehouses/"+pending.ID.String(), nil, strangerToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		// Same 404 as a listing that does not exist
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("pending listing is visible to its owner", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/warehouses/"+pending.ID.String(), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("pending listing is visible to admins", func(t *testing.T) {
		admin := testutil.CreateTestAdmin(t, tc.DB)
		adminToken := testutil.GenerateTestToken(t, tc.JWTService, admin)

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/warehouses/"+pending.ID.String(), nil, adminToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/warehouses/not-a-uuid", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestWarehouseHandler_Update(t *testing.T) {
	router, tc := setupWarehouseTestRouter(t)
	defer tc.Cleanup()

	warehouse := testutil.CreateTestWarehouse(t, tc.DB, tc.User.ID, true)

	t.Run("owner updates a field", func(t *testing.T) {
		body := map[string]interface{}{"title": "Renamed"}

		req := testutil.AuthenticatedRequest(t, "PUT", "/api/v1/warehouses/"+warehouse.ID.String(), body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp handlers.WarehouseResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "Renamed", resp.Title)
		assert.Equal(t, warehouse.Location, resp.Location)
	})

	t.Run("stranger gets a 403", func(t *testing.T) {
		stranger := testutil.CreateTestUser(t, tc.DB)
		strangerToken := testutil.GenerateTestToken(t, tc.JWTService, stranger)
		body := map[string]interface{}{"title": "Hijacked"}

		req := testutil.AuthenticatedRequest(t, "PUT", "/api/v1/warehouses/"+warehouse.ID.String(), body, strangerToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestWarehouseHandler_Delete(t *testing.T) {
	router, tc := setupWarehouseTestRouter(t)
	defer tc.Cleanup()

	t.Run("owner deletes, subsequent fetch is a 404", func(t *testing.T) {
		warehouse := testutil.CreateTestWarehouse(t, tc.DB, tc.User.ID, true)

		req := testutil.AuthenticatedRequest(t, "DELETE", "/api/v1/warehouses/"+warehouse.ID.String(), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)

		req = testutil.UnauthenticatedRequest(t, "GET", "/api/v1/warehouses/"+warehouse.ID.String(), nil)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("stranger cannot delete", func(t *testing.T) {
		warehouse := testutil.CreateTestWarehouse(t, tc.DB, tc.User.ID, true)
		stranger := testutil.CreateTestUser(t, tc.DB)
		strangerToken := testutil.GenerateTestToken(t, tc.JWTService, stranger)

		req := testutil.AuthenticatedRequest(t, "DELETE", "/api/v1/warehouses/"+warehouse.ID.String(), nil, strangerToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestWarehouseHandler_Mine(t *testing.T) {
	router, tc := setupWarehouseTestRouter(t)
	defer tc.Cleanup()

	testutil.CreateTestWarehouse(t, tc.DB, tc.User.ID, true)
	testutil.CreateTestWarehouse(t, tc.DB, tc.User.ID, false)

	other := testutil.CreateTestUser(t, tc.DB)
	testutil.CreateTestWarehouse(t, tc.DB, other.ID, true)

	req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/warehouses/mine", nil, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp []handlers.WarehouseResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	require.Len(t, resp, 2)
	for _, item := range resp {
		assert.Equal(t, tc.User.ID.String(), item.OwnerID)
	}
}

func TestWarehouseHandler_Moderation(t *testing.T) {
	router, tc := setupWarehouseTestRouter(t)
	defer tc.Cleanup()

	admin := testutil.CreateTestAdmin(t, tc.DB)
	adminToken := testutil.GenerateTestToken(t, tc.JWTService, admin)

	t.Run("admin accepts a pending listing", func(t *testing.T) {
		warehouse := testutil.CreateTestWarehouse(t, tc.DB, tc.User.ID, false)
		body := map[string]interface{}{"value": true}

		req := testutil.AuthenticatedRequest(t, "PUT", "/api/v1/warehouses/"+warehouse.ID.String()+"/accept", body, adminToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp handlers.WarehouseResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.True(t, resp.Accepted)
	})

	t.Run("admin promotes a listing", func(t *testing.T) {
		warehouse := testutil.CreateTestWarehouse(t, tc.DB, tc.User.ID, true)
		body := map[string]interface{}{"value": true}

		req := testutil.AuthenticatedRequest(t, "PUT", "/api/v1/warehouses/"+warehouse.ID.String()+"/promote", body, adminToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp handlers.WarehouseResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.True(t, resp.Promoted)
	})

	t.Run("regular users cannot moderate", func(t *testing.T) {
		warehouse := testutil.CreateTestWarehouse(t, tc.DB, tc.User.ID, false)
		body := map[string]interface{}{"value": true}

		req := testutil.AuthenticatedRequest(t, "PUT", "/api/v1/warehouses/"+warehouse.ID.String()+"/accept", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}
