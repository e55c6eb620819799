package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipebox/backend/config"
	"github.com/pageza/recipebox/backend/internal/testhelpers"
)

func testConfig() *config.Config {
	return &config.Config{
		ServerHost:      "127.0.0.1",
		ServerPort:      "0",
		PageSize:        50,
		CORSOrigins:     []string{"http://localhost:5173"},
		RateLimit:       100,
		RateLimitWindow: time.Minute,
	}
}

func TestNew(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testhelpers.SetupSQLite(t)

	srv := New(testConfig(), db, nil)
	require.NotNil(t, srv)

	tests := []struct {
		path   string
		status int
	}{
		{"/health", http.StatusOK},
		{"/api/v1/recipes", http.StatusOK},
		{"/api/v1/recipes?id=1", http.StatusOK},
		{"/api/v1/sites", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		srv.Handler().ServeHTTP(w, req)
		assert.Equal(t, tt.status, w.Code, tt.path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"), tt.path)
	}
}

func TestStartShutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testhelpers.SetupSQLite(t)
	srv := New(testConfig(), db, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	// Give ListenAndServe a moment to bind before shutting down.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
