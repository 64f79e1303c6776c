package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	closed bool
}

func (f *fakeConn) IsClosed() bool { return f.closed }

func TestHealthReportsHealthyDependencies(t *testing.T) {
	h := NewHealthHandler(&fakeConn{}, "http://localhost:9000", "http://localhost:8003")

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Dependencies["rabbitmq"])
	assert.Equal(t, "configured", resp.Dependencies["leads_api"])
	assert.Equal(t, "configured", resp.Dependencies["crm_api"])
	assert.NotEmpty(t, resp.Uptime)
}

func TestHealthDegradesOnClosedBrokerConnection(t *testing.T) {
	h := NewHealthHandler(&fakeConn{closed: true}, "http://localhost:9000", "")

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Contains(t, resp.Dependencies["rabbitmq"], "unhealthy")
}

func TestHealthWithNothingConfiguredIsStillUp(t *testing.T) {
	h := NewHealthHandler(nil, "", "")

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "not configured", resp.Dependencies["rabbitmq"])
}
