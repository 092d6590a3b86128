package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"answerpath-backend/internal/shared/config"
	"answerpath-backend/internal/shared/server"
)

func TestProxyServesHealthz(t *testing.T) {
	router := server.NewRouter(config.Config{Env: "test"}, server.RouterDeps{})
	proxy := ginadapter.NewV2(router)

	req := events.APIGatewayV2HTTPRequest{
		RawPath: "/healthz",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: http.MethodGet, Path: "/healthz"},
		},
	}
	resp, err := proxy.ProxyWithContext(context.Background(), req)
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}
}

func TestErrorResponseShape(t *testing.T) {
	resp := errorResponse("bootstrap failed")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Message != "bootstrap failed" {
		t.Fatalf("unexpected body %s", resp.Body)
	}
}
