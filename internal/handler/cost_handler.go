package handler

import (
	"errors"
	"net/http"
	"strings"

	"maliyet-backend/internal/middleware"
	"maliyet-backend/internal/model"
	"maliyet-backend/internal/service"
	"maliyet-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CostHandler struct {
	costService service.CostService
}

func NewCostHandler(costService service.CostService) *CostHandler {
	return &CostHandler{costService: costService}
}

func (h *CostHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api", middleware.RequireAuth())
	{
		api.GET("/costs", h.ListDefinitions)
		api.GET("/cost-names", h.CostNames)
		api.GET("/kargo-options", h.KargoOptions)
		api.POST("/product-costs", h.AssignCost)
	}

	admin := router.Group("/api", middleware.RequireRole(model.RoleAdmin))
	{
		admin.POST("/costs", h.CreateDefinition)
		admin.PUT("/costs/:id", h.UpdateDefinition)
		admin.DELETE("/costs/:id", h.DeleteDefinition)
		admin.POST("/sync-template", h.SyncFromTemplate)
	}
}

// ListDefinitions handles GET /api/costs
// @Summary      List cost definitions
// @Description  Retrieves cost definitions, filterable by category, optionally including inactive ones
// @Tags         costs
// @Security     BearerAuth
// @Produce      json
// @Param        category          query     string  false  "kargo or kaplama"
// @Param        include_inactive  query     bool    false  "Include inactive definitions"
// @Success      200  {object}  response.Response{data=[]model.CostDefinition}
// @Failure      400  {object}  response.Response
// @Router       /api/costs [get]
func (h *CostHandler) ListDefinitions(c *gin.Context) {
	category := strings.ToLower(strings.TrimSpace(c.Query("category")))
	includeInactive := c.Query("include_inactive") == "true"

	defs, err := h.costService.ListDefinitions(c.Request.Context(), category, includeInactive)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCategory) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, defs))
}

// CreateDefinition handles POST /api/costs
// @Summary      Create cost definition
// @Description  Creates a new kargo or kaplama cost definition
// @Tags         costs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCostDefinitionRequest  true  "Create Cost Payload"
// @Success      201      {object}  response.Response{data=model.CostDefinition}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/costs [post]
func (h *CostHandler) CreateDefinition(c *gin.Context) {
	var req service.CreateCostDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	actor := middleware.ActorFromContext(c)
	def, err := h.costService.CreateDefinition(c.Request.Context(), actor, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCostNameTaken):
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
		case errors.Is(err, service.ErrCostNameRequired), errors.Is(err, service.ErrInvalidCategory):
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		}
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, def))
}

// UpdateDefinition handles PUT /api/costs/:id
// @Summary      Update cost definition
// @Description  Updates a cost definition; renames migrate existing product assignments
// @Tags         costs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                               true  "Cost Definition ID"
// @Param        payload  body      service.UpdateCostDefinitionRequest  true  "Update Cost Payload"
// @Success      200      {object}  response.Response{data=model.CostDefinition}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/costs/{id} [put]
func (h *CostHandler) UpdateDefinition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid cost definition ID"))
		return
	}

	var req service.UpdateCostDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	actor := middleware.ActorFromContext(c)
	def, err := h.costService.UpdateDefinition(c.Request.Context(), actor, id, req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Cost definition not found"))
		case errors.Is(err, service.ErrCostNameTaken):
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
		case errors.Is(err, service.ErrCostNameRequired), errors.Is(err, service.ErrInvalidCategory):
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, def))
}

// DeleteDefinition handles DELETE /api/costs/:id
// @Summary      Delete cost definition
// @Description  Deletes a cost definition together with its product assignments
// @Tags         costs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Cost Definition ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/costs/{id} [delete]
func (h *CostHandler) DeleteDefinition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid cost definition ID"))
		return
	}

	actor := middleware.ActorFromContext(c)
	name, err := h.costService.DeleteDefinition(c.Request.Context(), actor, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Cost definition not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Cost '"+name+"' deleted"))
}

// CostNames handles GET /api/cost-names
// @Summary      List cost names
// @Description  Retrieves the active cost definition names in canonical form
// @Tags         costs
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]string}
// @Failure      500  {object}  response.Response
// @Router       /api/cost-names [get]
func (h *CostHandler) CostNames(c *gin.Context) {
	names, err := h.costService.CostNames(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, names))
}

// KargoOptions handles GET /api/kargo-options
// @Summary      List cargo box options
// @Description  Retrieves the cargo rate sheet rows with box dimensions and prices
// @Tags         costs
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.KargoOption}
// @Failure      500  {object}  response.Response
// @Router       /api/kargo-options [get]
func (h *CostHandler) KargoOptions(c *gin.Context) {
	options, err := h.costService.KargoOptions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, options))
}

// AssignCost handles POST /api/product-costs
// @Summary      Assign cost to product
// @Description  Upserts one cost assignment flag on a product
// @Tags         costs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AssignCostRequest  true  "Assign Cost Payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/product-costs [post]
func (h *CostHandler) AssignCost(c *gin.Context) {
	var req service.AssignCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	actor := middleware.ActorFromContext(c)
	if err := h.costService.AssignCost(c.Request.Context(), actor, req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Cost assignment saved"))
}

// SyncFromTemplate handles POST /api/sync-template
// @Summary      Sync cost definitions from template
// @Description  Reconciles cost definitions against the cost template workbook headers
// @Tags         costs
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.TemplateSyncResult}
// @Failure      500  {object}  response.Response
// @Router       /api/sync-template [post]
func (h *CostHandler) SyncFromTemplate(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	result, err := h.costService.SyncFromTemplate(c.Request.Context(), actor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
