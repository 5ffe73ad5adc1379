package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"maliyet-backend/internal/middleware"
	"maliyet-backend/internal/service"
	"maliyet-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	exportService service.ExportService
}

func NewExportHandler(exportService service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

func (h *ExportHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api", middleware.RequireAuth())
	{
		api.POST("/export", h.ExportSelected)
		api.GET("/export/all", h.ExportAll)
		api.GET("/template-structure", h.TemplateStructure)
	}
}

func (h *ExportHandler) sendWorkbook(c *gin.Context, path string) {
	defer os.Remove(path)
	c.FileAttachment(path, filepath.Base(path))
}

// ExportSelected handles POST /api/export
// @Summary      Export selected products
// @Description  Builds a cost template workbook for the given child SKUs and returns it as a file download
// @Tags         export
// @Security     BearerAuth
// @Accept       json
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        payload  body  service.ExportRequest  true  "Export Payload"
// @Success      200  {file}    file
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/export [post]
func (h *ExportHandler) ExportSelected(c *gin.Context) {
	var req service.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	actor := middleware.ActorFromContext(c)
	path, err := h.exportService.ExportSelected(c.Request.Context(), actor, req)
	if err != nil {
		if errors.Is(err, service.ErrExportEmpty) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	h.sendWorkbook(c, path)
}

// ExportAll handles GET /api/export/all
// @Summary      Export all products
// @Description  Builds a cost template workbook covering every active product and returns it as a file download
// @Tags         export
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}    file
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/export/all [get]
func (h *ExportHandler) ExportAll(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	path, err := h.exportService.ExportAll(c.Request.Context(), actor)
	if err != nil {
		if errors.Is(err, service.ErrExportEmpty) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	h.sendWorkbook(c, path)
}

// TemplateStructure handles GET /api/template-structure
// @Summary      Describe template structure
// @Description  Parses the cost template workbook headers and returns the detected info, cost and material columns
// @Tags         export
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=excel.Structure}
// @Failure      500  {object}  response.Response
// @Router       /api/template-structure [get]
func (h *ExportHandler) TemplateStructure(c *gin.Context) {
	structure, err := h.exportService.TemplateStructure()
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, structure))
}
