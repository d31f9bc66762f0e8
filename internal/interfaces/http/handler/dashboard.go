package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/olist/dashboard/internal/application/dashboard"
	"github.com/olist/dashboard/internal/domain/analytics"
	"github.com/olist/dashboard/internal/infrastructure/export"
	"github.com/olist/dashboard/internal/infrastructure/logger"
	"github.com/olist/dashboard/internal/interfaces/http/dto"
	"github.com/olist/dashboard/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// DashboardService is the part of dashboard.Service the handler needs
type DashboardService interface {
	Compute(ctx context.Context, sel analytics.Selection) (*dashboard.Result, error)
	Options(ctx context.Context) ([]dashboard.FacetOptions, error)
	Status() dashboard.Status
	Reload(ctx context.Context) (*dashboard.ReloadResult, error)
	Rebuild(ctx context.Context) (*dashboard.ReloadResult, error)
}

var _ DashboardService = (*dashboard.Service)(nil)

// DashboardHandler serves computed dashboards
type DashboardHandler struct {
	BaseHandler
	service DashboardService
}

// NewDashboardHandler creates a DashboardHandler
func NewDashboardHandler(service DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// compute binds the facet selection from the query and computes the dashboard.
// It writes the error response itself and returns nil on failure.
func (h *DashboardHandler) compute(c *gin.Context) *dashboard.Result {
	q := dto.NewSelectionQuery(c.Request.URL.Query())
	if err := middleware.Validate(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return nil
	}

	res, err := h.service.Compute(c.Request.Context(), q.Selection())
	if err != nil {
		h.HandleError(c, err)
		return nil
	}
	return res
}

// Get godoc
// @ID           getDashboard
// @Summary      Compute the dashboard
// @Description  Filters the dataset by the facet values in the query (state=SP&state=RJ or state=SP,RJ) and returns every aggregate
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} dto.Response{data=dto.DashboardResponse}
// @Failure      400 {object} dto.Response
// @Failure      503 {object} dto.Response
// @Router       /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	res := h.compute(c)
	if res == nil {
		return
	}
	h.Success(c, dto.NewDashboardResponse(res))
}

// GetKPIs godoc
// @ID           getDashboardKPIs
// @Summary      Compute the KPIs only
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} dto.Response{data=dto.KPIResponse}
// @Router       /dashboard/kpis [get]
func (h *DashboardHandler) GetKPIs(c *gin.Context) {
	res := h.compute(c)
	if res == nil {
		return
	}
	h.Success(c, dto.NewKPIResponse(res.KPIs))
}

// GetFacets godoc
// @ID           getDashboardFacets
// @Summary      List facets and their selectable values
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} dto.Response{data=[]dto.FacetResponse}
// @Router       /dashboard/facets [get]
func (h *DashboardHandler) GetFacets(c *gin.Context) {
	opts, err := h.service.Options(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewFacetResponses(opts))
}

// GetStatus godoc
// @ID           getDashboardStatus
// @Summary      Describe the dataset snapshot being served
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} dto.Response{data=dto.StatusResponse}
// @Router       /dashboard/status [get]
func (h *DashboardHandler) GetStatus(c *gin.Context) {
	h.Success(c, dto.NewStatusResponse(h.service.Status()))
}

// Export godoc
// @ID           exportDashboard
// @Summary      Download the dashboard as a workbook
// @Tags         dashboard
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200 {file} binary
// @Router       /dashboard/export [get]
func (h *DashboardHandler) Export(c *gin.Context) {
	res := h.compute(c)
	if res == nil {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, res); err != nil {
		h.HandleError(c, fmt.Errorf("export workbook: %w", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(res)))
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}

// Reload godoc
// @ID           reloadDashboard
// @Summary      Reload the dataset
// @Description  Rebuilds the snapshot when the source fingerprint changed; force=true rebuilds regardless
// @Tags         dashboard
// @Produce      json
// @Param        force query bool false "rebuild even when unchanged"
// @Success      200 {object} dto.Response{data=dto.ReloadResponse}
// @Failure      500 {object} dto.Response
// @Router       /dashboard/reload [post]
func (h *DashboardHandler) Reload(c *gin.Context) {
	force := false
	if v := c.Query(dto.QueryForce); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			h.BadRequest(c, "force must be a boolean")
			return
		}
		force = b
	}

	reload := h.service.Reload
	if force {
		reload = h.service.Rebuild
	}
	// a client disconnect must not abandon a rebuild halfway
	res, err := reload(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logger.GetGinLogger(c).Info("Dataset reloaded",
		zap.String("fingerprint", res.Fingerprint),
		zap.Bool("changed", res.Changed),
		zap.Bool("forced", force),
	)
	h.Success(c, dto.NewReloadResponse(res))
}
