package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deptcms/portal/internal/app/models"
	"github.com/deptcms/portal/internal/attachment"
	"github.com/deptcms/portal/internal/pkg/apperrors"
	"github.com/deptcms/portal/internal/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type errorBody struct {
	Success bool `json:"success"`
	Error   struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Field     string `json:"field"`
		DebugInfo string `json:"debugInfo"`
	} `json:"error"`
}

func serveError(t *testing.T, err error) (*httptest.ResponseRecorder, errorBody) {
	t.Helper()
	router := gin.New()
	router.GET("/x", func(c *gin.Context) { HandleAPIError(c, err) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHandleAPIError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"malformed reference", fmt.Errorf("wrap: %w", attachment.ErrMalformedReference), http.StatusUnprocessableEntity, "RES_003"},
		{"upload failed", fmt.Errorf("%w: quota", attachment.ErrUploadFailed), http.StatusBadGateway, "SRV_003"},
		{"delete failed", fmt.Errorf("%w: 500", attachment.ErrDeleteFailed), http.StatusBadGateway, "SRV_003"},
		{"not found", apperrors.NewResourceNotFoundError("faculty 3 not found"), http.StatusNotFound, "RES_001"},
		{"conflict", apperrors.NewConflictError("stale"), http.StatusConflict, "RES_004"},
		{"duplicate", fmt.Errorf("%w: admin", apperrors.ErrResourceAlreadyExists), http.StatusConflict, "RES_002"},
		{"validation", apperrors.NewValidationError("photo", "photo is required"), http.StatusBadRequest, "VAL_001"},
		{"bad credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, "AUTH_001"},
		{"expired token", apperrors.ErrTokenExpired, http.StatusUnauthorized, "AUTH_006"},
		{"invalid token", apperrors.ErrTokenInvalid, http.StatusUnauthorized, "AUTH_005"},
		{"forbidden", apperrors.ErrPermissionDenied, http.StatusForbidden, "AUTH_009"},
		{"too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, "VAL_002"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "SRV_001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := serveError(t, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestHandleAPIError_MessagesAndFields(t *testing.T) {
	_, body := serveError(t, apperrors.NewResourceNotFoundError("faculty 3 not found"))
	assert.Equal(t, "faculty 3 not found", body.Error.Message)

	_, body = serveError(t, apperrors.NewValidationError("photo", "photo is required"))
	assert.Equal(t, "photo", body.Error.Field)
	assert.Equal(t, "photo is required", body.Error.Message)
}

func TestHandleAPIError_DebugInfo(t *testing.T) {
	_, body := serveError(t, errors.New("pool exhausted"))
	assert.Equal(t, "pool exhausted", body.Error.DebugInfo)

	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)

	_, body = serveError(t, errors.New("pool exhausted"))
	assert.Empty(t, body.Error.DebugInfo)
}

func newTestJWT() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: time.Hour,
		TokenIssuer:    "deptcms",
	})
}

func TestAdminRequired(t *testing.T) {
	jwt := newTestJWT()
	token, _, err := jwt.GenerateAccessToken(&models.Admin{ID: 4, Email: "admin@college.edu"})
	require.NoError(t, err)

	expired, _, err := auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: -time.Minute,
		TokenIssuer:    "deptcms",
	}).GenerateAccessToken(&models.Admin{ID: 4, Email: "admin@college.edu"})
	require.NoError(t, err)

	router := gin.New()
	router.Use(NewAuthMiddleware(jwt).AdminRequired())
	router.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, "%d %s %s", c.GetInt64(ContextAdminID), c.GetString(ContextEmail), c.GetString(ContextRole))
	})

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, "AUTH_008"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "AUTH_008"},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, "AUTH_005"},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, "AUTH_006"},
		{"valid token", "Bearer " + token, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				var body errorBody
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.code, body.Error.Code)
			} else {
				assert.Equal(t, "4 admin@college.edu ADMIN", rec.Body.String())
			}
		})
	}
}

func TestRequestLoggerAndSecurityHeaders(t *testing.T) {
	var logs strings.Builder
	router := gin.New()
	router.Use(RequestLogger(zerolog.New(&logs)), SecurityHeaders())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, logs.String(), `"requestID":"req-1"`)
	assert.Contains(t, logs.String(), `"status":204`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Len(t, rec.Header().Get(HeaderRequestID), 36)
}

func TestMaxBodySize(t *testing.T) {
	router := gin.New()
	router.Use(MaxBodySize(8))
	router.POST("/upload", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			HandleAPIError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("much too large")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMetrics(t *testing.T) {
	router := gin.New()
	router.Use(Metrics())
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// Labels use the route pattern, not the concrete path
	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/items/:id", "200")))
	assert.Zero(t, testutil.ToFloat64(httpRequestsInFlight))
}
