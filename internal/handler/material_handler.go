package handler

import (
	"errors"
	"net/http"

	"maliyet-backend/internal/middleware"
	"maliyet-backend/internal/model"
	"maliyet-backend/internal/service"
	"maliyet-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MaterialHandler struct {
	materialService service.MaterialService
}

func NewMaterialHandler(materialService service.MaterialService) *MaterialHandler {
	return &MaterialHandler{materialService: materialService}
}

func (h *MaterialHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api", middleware.RequireAuth())
	{
		api.GET("/materials", h.ListMaterials)
		api.GET("/product-materials/:sku", h.GetProductMaterials)
		api.POST("/product-materials", h.SetProductMaterial)
		api.POST("/product-materials/bulk", h.SetProductMaterialBulk)
	}

	admin := router.Group("/api/materials", middleware.RequireRole(model.RoleAdmin))
	{
		admin.POST("", h.CreateMaterial)
		admin.PUT("/:id", h.UpdateMaterial)
		admin.DELETE("/:id", h.DeleteMaterial)
	}
}

// ListMaterials handles GET /api/materials
// @Summary      List raw materials
// @Description  Retrieves the raw material catalog with unit prices
// @Tags         materials
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.RawMaterial}
// @Failure      500  {object}  response.Response
// @Router       /api/materials [get]
func (h *MaterialHandler) ListMaterials(c *gin.Context) {
	materials, err := h.materialService.ListMaterials(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve materials: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, materials))
}

// CreateMaterial handles POST /api/materials
// @Summary      Create raw material
// @Description  Creates a new raw material with unit and unit price
// @Tags         materials
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateMaterialRequest  true  "Create Material Payload"
// @Success      201      {object}  response.Response{data=model.RawMaterial}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/materials [post]
func (h *MaterialHandler) CreateMaterial(c *gin.Context) {
	var req service.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	actor := middleware.ActorFromContext(c)
	material, err := h.materialService.CreateMaterial(c.Request.Context(), actor, req)
	if err != nil {
		if errors.Is(err, service.ErrMaterialNameTaken) {
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, material))
}

// UpdateMaterial handles PUT /api/materials/:id
// @Summary      Update raw material
// @Description  Updates a raw material's unit price and currency
// @Tags         materials
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Material ID"
// @Param        payload  body      service.UpdateMaterialRequest  true  "Update Material Payload"
// @Success      200      {object}  response.Response{data=model.RawMaterial}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/materials/{id} [put]
func (h *MaterialHandler) UpdateMaterial(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid material ID"))
		return
	}

	var req service.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	actor := middleware.ActorFromContext(c)
	material, err := h.materialService.UpdateMaterial(c.Request.Context(), actor, id, req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Material not found"))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, material))
}

// DeleteMaterial handles DELETE /api/materials/:id
// @Summary      Delete raw material
// @Description  Deletes a raw material and its product quantity links
// @Tags         materials
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Material ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/materials/{id} [delete]
func (h *MaterialHandler) DeleteMaterial(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid material ID"))
		return
	}

	actor := middleware.ActorFromContext(c)
	name, err := h.materialService.DeleteMaterial(c.Request.Context(), actor, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Material not found"))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Material '"+name+"' deleted"))
}

// GetProductMaterials handles GET /api/product-materials/:sku
// @Summary      Get product materials
// @Description  Retrieves material quantities assigned to a product
// @Tags         materials
// @Security     BearerAuth
// @Produce      json
// @Param        sku  path      string  true  "Child SKU"
// @Success      200  {object}  response.Response{data=[]service.ProductMaterialRow}
// @Failure      500  {object}  response.Response
// @Router       /api/product-materials/{sku} [get]
func (h *MaterialHandler) GetProductMaterials(c *gin.Context) {
	rows, err := h.materialService.GetProductMaterials(c.Request.Context(), c.Param("sku"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// SetProductMaterial handles POST /api/product-materials
// @Summary      Set product material quantity
// @Description  Upserts one material quantity on a product
// @Tags         materials
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SetProductMaterialRequest  true  "Set Quantity Payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/product-materials [post]
func (h *MaterialHandler) SetProductMaterial(c *gin.Context) {
	var req service.SetProductMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.materialService.SetProductMaterial(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Quantity saved"))
}

// SetProductMaterialBulk handles POST /api/product-materials/bulk
// @Summary      Set material quantity on many products
// @Description  Upserts the same material quantity on a list of child SKUs
// @Tags         materials
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SetProductMaterialBulkRequest  true  "Bulk Quantity Payload"
// @Success      200      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Router       /api/product-materials/bulk [post]
func (h *MaterialHandler) SetProductMaterialBulk(c *gin.Context) {
	var req service.SetProductMaterialBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	updated, err := h.materialService.SetProductMaterialBulk(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"updated": updated,
	}))
}
