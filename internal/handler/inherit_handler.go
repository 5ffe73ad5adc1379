package handler

import (
	"errors"
	"net/http"
	"strings"

	"maliyet-backend/internal/middleware"
	"maliyet-backend/internal/service"
	"maliyet-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type InheritHandler struct {
	inheritService service.InheritService
	suggestService service.SuggestService
}

func NewInheritHandler(inheritService service.InheritService, suggestService service.SuggestService) *InheritHandler {
	return &InheritHandler{inheritService: inheritService, suggestService: suggestService}
}

func (h *InheritHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api", middleware.RequireAuth())
	{
		api.POST("/inherit", h.Apply)
		api.GET("/inherit/prefill", h.Prefill)
		api.GET("/kaplama-suggestions", h.KaplamaBySize)
		api.GET("/kaplama-name-suggestions", h.KaplamaByName)
	}
}

// Apply handles POST /api/inherit
// @Summary      Apply cost inheritance
// @Description  Pushes per-size cargo costs, kaplama costs, weights and materials from a parent group onto all of its active children in one transaction. Non-admin callers receive a pending approval instead of immediate execution.
// @Tags         inherit
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.InheritanceRequest  true  "Inheritance Payload"
// @Success      200      {object}  response.Response{data=service.InheritanceResult}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/inherit [post]
func (h *InheritHandler) Apply(c *gin.Context) {
	var req service.InheritanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	actor := middleware.ActorFromContext(c)
	result, err := h.inheritService.Apply(c.Request.Context(), actor, &req)
	if err != nil {
		var conflict *service.ApprovalConflictError
		switch {
		case errors.Is(err, service.ErrParentNotFound):
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		case errors.As(err, &conflict):
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, conflict.Reason))
		default:
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Prefill handles GET /api/inherit/prefill
// @Summary      Prefill inheritance form
// @Description  Reconstructs a likely inheritance payload for a parent group from current child assignments by majority vote
// @Tags         inherit
// @Security     BearerAuth
// @Produce      json
// @Param        parent  query     string  true  "Parent name"
// @Success      200     {object}  response.Response{data=service.PrefillResponse}
// @Failure      400     {object}  response.Response
// @Failure      404     {object}  response.Response
// @Router       /api/inherit/prefill [get]
func (h *InheritHandler) Prefill(c *gin.Context) {
	parent := strings.TrimSpace(c.Query("parent"))
	if parent == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "parent query parameter is required"))
		return
	}

	resp, err := h.inheritService.Prefill(c.Request.Context(), parent)
	if err != nil {
		if errors.Is(err, service.ErrParentNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, resp))
}

// KaplamaBySize handles GET /api/kaplama-suggestions
// @Summary      Suggest kaplama costs per size
// @Description  Suggests a kaplama cost per variation size for a parent group, scored against historical assignments
// @Tags         inherit
// @Security     BearerAuth
// @Produce      json
// @Param        parent  query     string  true  "Parent name"
// @Success      200     {object}  response.Response{data=service.SizeSuggestionResponse}
// @Failure      400     {object}  response.Response
// @Failure      404     {object}  response.Response
// @Router       /api/kaplama-suggestions [get]
func (h *InheritHandler) KaplamaBySize(c *gin.Context) {
	parent := strings.TrimSpace(c.Query("parent"))
	if parent == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "parent query parameter is required"))
		return
	}

	resp, err := h.suggestService.KaplamaBySize(c.Request.Context(), parent)
	if err != nil {
		if errors.Is(err, service.ErrParentNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, resp))
}

// KaplamaByName handles GET /api/kaplama-name-suggestions
// @Summary      Suggest kaplama costs per child name
// @Description  Suggests a kaplama cost per child color name for a parent group, scored against the catalog and historical assignments
// @Tags         inherit
// @Security     BearerAuth
// @Produce      json
// @Param        parent  query     string  true  "Parent name"
// @Success      200     {object}  response.Response{data=service.NameSuggestionResponse}
// @Failure      400     {object}  response.Response
// @Failure      404     {object}  response.Response
// @Router       /api/kaplama-name-suggestions [get]
func (h *InheritHandler) KaplamaByName(c *gin.Context) {
	parent := strings.TrimSpace(c.Query("parent"))
	if parent == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "parent query parameter is required"))
		return
	}

	resp, err := h.suggestService.KaplamaByName(c.Request.Context(), parent)
	if err != nil {
		if errors.Is(err, service.ErrParentNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, resp))
}
