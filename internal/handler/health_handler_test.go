package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/eybms-go-api/internal/config"
	"github.com/noah-isme/eybms-go-api/internal/handler"
)

type healthEnvelope struct {
	Success bool                   `json:"success"`
	Data    handler.HealthResponse `json:"data"`
}

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{AppName: "EYBMS API", AppEnv: "test"}

	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(cfg, map[string]handler.HealthProbe{
		"redis": func(context.Context) error { return nil },
	}))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/health", nil), -1)
	if err != nil {
		t.Fatalf("failed to execute request: %v", err)
	}
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload healthEnvelope
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.True(t, payload.Success)
	assert.Equal(t, "ok", payload.Data.Status)
	assert.Equal(t, "EYBMS API", payload.Data.Service)
	assert.Equal(t, "up", payload.Data.Checks["redis"])
	assert.False(t, payload.Data.Timestamp.IsZero())
}

func TestHealthCheckDegraded(t *testing.T) {
	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(config.Config{AppName: "EYBMS API"}, map[string]handler.HealthProbe{
		"database": func(context.Context) error { return errors.New("refused") },
	}))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/health", nil), -1)
	if err != nil {
		t.Fatalf("failed to execute request: %v", err)
	}
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var payload healthEnvelope
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.False(t, payload.Success)
	assert.Equal(t, "degraded", payload.Data.Status)
	assert.Equal(t, "down", payload.Data.Checks["database"])
}
