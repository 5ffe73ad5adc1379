package handler

import (
	"net/http"

	"maliyet-backend/internal/middleware"
	"maliyet-backend/internal/service"
	"maliyet-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type QualityHandler struct {
	qualityService service.QualityService
}

func NewQualityHandler(qualityService service.QualityService) *QualityHandler {
	return &QualityHandler{qualityService: qualityService}
}

func (h *QualityHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api", middleware.RequireAuth())
	{
		api.GET("/quality", h.Report)
		api.GET("/stats", h.Stats)
	}
}

// Report handles GET /api/quality
// @Summary      Data quality report
// @Description  Runs referential integrity and duplicate checks across the catalog
// @Tags         quality
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.QualityReport}
// @Failure      500  {object}  response.Response
// @Router       /api/quality [get]
func (h *QualityHandler) Report(c *gin.Context) {
	report, err := h.qualityService.Report(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// Stats handles GET /api/stats
// @Summary      Catalog statistics
// @Description  Retrieves product and material counts per category
// @Tags         quality
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=repository.CatalogStats}
// @Failure      500  {object}  response.Response
// @Router       /api/stats [get]
func (h *QualityHandler) Stats(c *gin.Context) {
	stats, err := h.qualityService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
