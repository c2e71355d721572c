package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func preflight(r *gin.Engine, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/books", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func corsEngine(origins []string) *gin.Engine {
	r := gin.New()
	r.Use(CORS(origins))
	r.POST("/books", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func TestCORSDefaultsToLocalDevOrigins(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	r := corsEngine(nil)
	for _, origin := range []string{"http://localhost:3000", "http://127.0.0.1:5173"} {
		rec := preflight(r, origin)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("%s: status: want=%d got=%d", origin, http.StatusNoContent, rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != origin {
			t.Fatalf("%s: allow-origin: got=%q", origin, got)
		}
	}
}

func TestCORSUsesConfiguredOrigins(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	r := corsEngine([]string{"https://books.example.com"})
	if got := preflight(r, "https://books.example.com").Header().Get("Access-Control-Allow-Origin"); got != "https://books.example.com" {
		t.Fatalf("configured origin: allow-origin got=%q", got)
	}
	rec := preflight(r, "http://localhost:3000")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unlisted origin: want no allow-origin got=%q", got)
	}
}
