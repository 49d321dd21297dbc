package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/logistyczniepl/marketplace/internal/api/dto"
	"github.com/logistyczniepl/marketplace/internal/api/handlers"
	"github.com/logistyczniepl/marketplace/internal/api/middleware"
	"github.com/logistyczniepl/marketplace/internal/auth"
	"github.com/logistyczniepl/marketplace/internal/database/models"
	"github.com/logistyczniepl/marketplace/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	authService := auth.NewService(tc.DB, tc.JWTService, nil, time.Hour, "http://localhost:8080")
	handler := handlers.NewAuthHandler(authService)

	r := chi.NewRouter()
	r.Post("/api/v1/auth/register", handler.Register)
	r.Post("/api/v1/auth/login", handler.Login)
	r.Post("/api/v1/auth/logout", handler.Logout)
	r.Post("/api/v1/auth/forgot-password", handler.ForgotPassword)
	r.Post("/api/v1/auth/reset-password", handler.ResetPassword)
	r.With(middleware.Auth(tc.JWTService)).Get("/api/v1/auth/me", handler.Me)

	return r, tc
}

func TestAuthHandler_Register(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	t.Run("successful registration", func(t *testing.T) {
		body := map[string]string{
			"first_name": "Anna",
			"last_name":  "Nowak",
			"email":      "anna@example.com",
			"password":   "securepassword123",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp dto.AuthResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "anna@example.com", resp.User.Email)
		assert.Equal(t, "Anna", resp.User.FirstName)
		assert.Equal(t, models.RoleUser, resp.User.Role)

		// Registration also sets the session cookie
		cookies := rr.Result().Cookies()
		require.NotEmpty(t, cookies)
		assert.Equal(t, "token", cookies[0].Name)
		assert.NotEmpty(t, cookies[0].Value)
	})

	t.Run("password hash never leaves the API", func(t *testing.T) {
		body := map[string]string{
			"first_name": "Piotr",
			"last_name":  "Wiśniewski",
			"email":      "piotr@example.com",
			"password":   "securepassword123",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.NotContains(t, rr.Body.String(), "password")
		assert.NotContains(t, rr.Body.String(), "$2a$")
	})

	t.Run("duplicate email", func(t *testing.T) {
		body := map[string]string{
			"first_name": "First",
			"last_name":  "User",
			"email":      "duplicate@example.com",
			"password":   "securepassword123",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusCreated, rr.Code)

		req = testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var resp dto.ErrorResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Contains(t, resp.Error, "already exists")
	})

	t.Run("short password fails validation", func(t *testing.T) {
		body := map[string]string{
			"first_name": "Short",
			"last_name":  "Pass",
			"email":      "short@example.com",
			"password":   "abc",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var resp dto.ErrorResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Contains(t, resp.Details, "password")
	})

	t.Run("invalid email fails validation", func(t *testing.T) {
		body := map[string]string{
			"first_name": "Bad",
			"last_name":  "Email",
			"email":      "not-an-email",
			"password":   "securepassword123",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	t.Run("successful login", func(t *testing.T) {
		body := map[string]string{
			"email":    tc.User.Email,
			"password": "testpassword123",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.AuthResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, tc.User.Email, resp.User.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		body := map[string]string{
			"email":    tc.User.Email,
			"password": "wrongpassword",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown email gets the same response as a wrong password", func(t *testing.T) {
		body := map[string]string{
			"email":    "ghost@example.com",
			"password": "whatever123",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		var resp dto.ErrorResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "Invalid email or password", resp.Error)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/logout", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestAuthHandler_PasswordReset(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	t.Run("forgot-password answers 200 for unknown addresses", func(t *testing.T) {
		body := map[string]string{"email": "ghost@example.com"}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/forgot-password", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("reset with a real token changes the password", func(t *testing.T) {
		body := map[string]string{"email": tc.User.Email}
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/forgot-password", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var record models.PasswordResetToken
		require.NoError(t, tc.DB.Where("user_id = ?", tc.User.ID).First(&record).Error)

		resetBody := map[string]string{
			"token":    record.Token,
			"password": "replacement-password",
		}
		req = testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/reset-password", resetBody)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)

		// Old password no longer works
		loginBody := map[string]string{"email": tc.User.Email, "password": "testpassword123"}
		req = testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", loginBody)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		// New one does
		loginBody["password"] = "replacement-password"
		req = testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", loginBody)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)

		// The token cannot be used twice
		req = testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/reset-password", resetBody)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("reset with a bogus token fails", func(t *testing.T) {
		body := map[string]string{
			"token":    "bogus",
			"password": "replacement-password",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/reset-password", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	t.Run("returns the session user", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/auth/me", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.UserDTO
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, tc.User.ID.String(), resp.ID)
		assert.Equal(t, tc.User.Email, resp.Email)
	})

	t.Run("requires authentication", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/auth/me", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
