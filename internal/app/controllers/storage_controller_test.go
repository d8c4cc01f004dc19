package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deptcms/portal/internal/pkg/filestorage"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageController_View(t *testing.T) {
	store, err := filestorage.NewLocalStorage(t.TempDir(), "http://localhost:8080/storage", zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	public, err := store.Create(ctx, strings.NewReader("hello"), filestorage.ObjectMeta{Name: "a.txt", ContentType: "text/plain"})
	require.NoError(t, err)
	require.NoError(t, store.GrantPublicRead(ctx, public.ID))
	private, err := store.Create(ctx, strings.NewReader("secret"), filestorage.ObjectMeta{Name: "b.txt", ContentType: "text/plain"})
	require.NoError(t, err)

	router := gin.New()
	router.GET("/storage/file/d/:id/view", NewStorageController(store).View)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/storage/file/d/"+public.ID+"/view", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, "inline; filename=a.txt", rec.Header().Get("Content-Disposition"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/storage/file/d/"+private.ID+"/view", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/storage/file/d/missing/view", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStorageController_View_UntrustedTypes(t *testing.T) {
	store, err := filestorage.NewLocalStorage(t.TempDir(), "http://localhost:8080/storage", zerolog.Nop())
	require.NoError(t, err)

	router := gin.New()
	router.GET("/storage/file/d/:id/view", NewStorageController(store).View)

	tests := []struct {
		name            string
		meta            filestorage.ObjectMeta
		wantType        string
		wantDisposition string
	}{
		{"pdf inline", filestorage.ObjectMeta{Name: "syllabus.pdf", ContentType: "application/pdf"}, "application/pdf", `inline; filename=syllabus.pdf`},
		{"png inline", filestorage.ObjectMeta{Name: "photo.png", ContentType: "image/png"}, "image/png", `inline; filename=photo.png`},
		{"html downloaded", filestorage.ObjectMeta{Name: "page.html", ContentType: "text/html; charset=utf-8"}, "application/octet-stream", `attachment; filename=page.html`},
		{"svg downloaded", filestorage.ObjectMeta{Name: "logo.svg", ContentType: "image/svg+xml"}, "application/octet-stream", `attachment; filename=logo.svg`},
		{"unknown type", filestorage.ObjectMeta{Name: "blob"}, "application/octet-stream", `attachment; filename=blob`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			obj, err := store.Create(ctx, strings.NewReader("<script>alert(1)</script>"), tt.meta)
			require.NoError(t, err)
			require.NoError(t, store.GrantPublicRead(ctx, obj.ID))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/storage/file/d/"+obj.ID+"/view", nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantDisposition, rec.Header().Get("Content-Disposition"))
			assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "sandbox")
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}
