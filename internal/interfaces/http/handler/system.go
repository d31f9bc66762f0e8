package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olist/dashboard/internal/application/dashboard"
	"github.com/olist/dashboard/internal/interfaces/http/dto"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// StatusSource reports whether a dataset snapshot is being served
type StatusSource interface {
	Status() dashboard.Status
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	status    StatusSource
	checks    map[string]HealthCheck
	timeout   time.Duration
	startTime time.Time
}

// NewSystemHandler creates a SystemHandler
func NewSystemHandler(name, version string, status StatusSource) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		status:    status,
		checks:    make(map[string]HealthCheck),
		timeout:   2 * time.Second,
		startTime: time.Now(),
	}
}

// AddCheck registers a dependency probe run by Health
func (h *SystemHandler) AddCheck(name string, check HealthCheck) *SystemHandler {
	h.checks[name] = check
	return h
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name" example:"olist-dashboard"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=SystemInfoResponse}
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=PingResponse}
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// CheckResult is the outcome of one probe
type CheckResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// HealthResponse reports readiness
type HealthResponse struct {
	Status  string             `json:"status"`
	Dataset dto.StatusResponse `json:"dataset"`
	Checks  []CheckResult      `json:"checks"`
}

// Health godoc
// @ID           getSystemHealth
// @Summary      Readiness probe
// @Description  503 until a dataset snapshot is served or while any dependency probe fails
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Failure      503 {object} dto.Response{data=HealthResponse}
// @Router       /system/health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	st := h.status.Status()
	resp := HealthResponse{
		Status:  "ok",
		Dataset: dto.NewStatusResponse(st),
		Checks:  make([]CheckResult, 0, len(h.checks)),
	}
	healthy := st.Ready

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()
	for _, name := range names {
		r := CheckResult{Name: name, OK: true}
		if err := h.checks[name](ctx); err != nil {
			r.OK = false
			r.Error = err.Error()
			healthy = false
		}
		resp.Checks = append(resp.Checks, r)
	}

	status := http.StatusOK
	if !healthy {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.Response{Success: healthy, Data: resp})
}
