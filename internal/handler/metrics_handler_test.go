package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/barbershop-api/internal/service"
)

func TestMetricsHandlerReady(t *testing.T) {
	healthy := PingFunc(func(ctx context.Context) error { return nil })
	down := PingFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	h := NewMetricsHandler(service.NewMetricsService(), map[string]Pinger{"postgres": healthy})
	c, w := newJSONContext(t, http.MethodGet, "/ready", nil, nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ready"`)

	h = NewMetricsHandler(service.NewMetricsService(), map[string]Pinger{"postgres": healthy, "redis": down})
	c, w = newJSONContext(t, http.MethodGet, "/ready", nil, nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestMetricsHandlerSummaryAndExposition(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordAvailabilityCheck("OK", 0)
	h := NewMetricsHandler(metrics, nil)

	c, w := newJSONContext(t, http.MethodGet, "/admin/metrics/summary", nil, ownerClaims)
	h.Summary(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"availability_checks":{"OK":1}`)

	c, w = newJSONContext(t, http.MethodGet, "/metrics", nil, nil)
	h.Prometheus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "availability_checks_total")

	c, w = newJSONContext(t, http.MethodGet, "/health", nil, nil)
	h.Health(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
