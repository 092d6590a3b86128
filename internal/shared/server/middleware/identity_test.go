package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newIdentityRouter(env string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Identity(env))
	router.GET("/api/v1/documents", func(c *gin.Context) {
		c.String(http.StatusOK, UserIDFromContext(c))
	})
	router.OPTIONS("/api/v1/documents", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestIdentityUsesGatewayHeader(t *testing.T) {
	router := newIdentityRouter("production")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set(UserIDHeader, "user-42")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Body.String() != "user-42" {
		t.Fatalf("expected user-42, got %q", resp.Body.String())
	}
}

func TestIdentityRejectsAnonymousInProduction(t *testing.T) {
	router := newIdentityRouter("production")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestIdentityFallsBackToDevUser(t *testing.T) {
	for _, env := range []string{"dev", "local", " Local "} {
		router := newIdentityRouter(env)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		if resp.Body.String() != DevUserID {
			t.Fatalf("env %q: expected %s, got %q", env, DevUserID, resp.Body.String())
		}
	}
}

func TestIdentityRejectsAnonymousOutsideDevEnvironments(t *testing.T) {
	for _, env := range []string{"prod", "prd", "staging", "qa", ""} {
		router := newIdentityRouter(env)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("env %q: expected 401, got %d", env, resp.Code)
		}
	}
}

func TestIdentityAllowsOptionsWithoutIdentity(t *testing.T) {
	router := newIdentityRouter("production")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/documents", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}
