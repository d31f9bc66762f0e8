package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/olist/dashboard/internal/application/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStatus dashboard.Status

func (s fixedStatus) Status() dashboard.Status { return dashboard.Status(s) }

func serveSystem(h *SystemHandler, path string) *httptest.ResponseRecorder {
	engine := gin.New()
	engine.GET("/system/ping", h.Ping)
	engine.GET("/system/info", h.GetSystemInfo)
	engine.GET("/system/health", h.Health)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSystemHandler_Ping(t *testing.T) {
	h := NewSystemHandler("olist-dashboard", "1.2.3", fixedStatus{})

	w := serveSystem(h, "/system/ping")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", decode[PingResponse](t, w).Data.Message)
}

func TestSystemHandler_Info(t *testing.T) {
	h := NewSystemHandler("olist-dashboard", "1.2.3", fixedStatus{})

	w := serveSystem(h, "/system/info")
	require.Equal(t, http.StatusOK, w.Code)

	info := decode[SystemInfoResponse](t, w).Data
	assert.Equal(t, "olist-dashboard", info.Name)
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
}

func TestSystemHandler_Health(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		status dashboard.Status
		checks map[string]HealthCheck
		code   int
	}{
		{"ready without checks", dashboard.Status{Ready: true, Fingerprint: "fp", Orders: 3}, nil, http.StatusOK},
		{"ready with passing checks", dashboard.Status{Ready: true}, map[string]HealthCheck{"database": ok, "cache": ok}, http.StatusOK},
		{"no snapshot", dashboard.Status{Error: "No data available"}, map[string]HealthCheck{"database": ok}, http.StatusServiceUnavailable},
		{"failing check", dashboard.Status{Ready: true}, map[string]HealthCheck{"database": down}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler("olist-dashboard", "dev", fixedStatus(tt.status))
			for name, check := range tt.checks {
				h.AddCheck(name, check)
			}

			w := serveSystem(h, "/system/health")
			assert.Equal(t, tt.code, w.Code)

			resp := decode[HealthResponse](t, w)
			assert.Equal(t, tt.code == http.StatusOK, resp.Success)
			assert.Equal(t, tt.status.Ready, resp.Data.Dataset.Ready)
			assert.Len(t, resp.Data.Checks, len(tt.checks))
		})
	}
}

func TestSystemHandler_HealthReportsFailingCheck(t *testing.T) {
	h := NewSystemHandler("olist-dashboard", "dev", fixedStatus{Ready: true}).
		AddCheck("cache", func(context.Context) error { return nil }).
		AddCheck("database", func(context.Context) error { return errors.New("connection refused") })

	w := serveSystem(h, "/system/health")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	resp := decode[HealthResponse](t, w).Data
	assert.Equal(t, "unavailable", resp.Status)
	require.Len(t, resp.Checks, 2)
	assert.Equal(t, CheckResult{Name: "cache", OK: true}, resp.Checks[0])
	assert.Equal(t, CheckResult{Name: "database", OK: false, Error: "connection refused"}, resp.Checks[1])
}
