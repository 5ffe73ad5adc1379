package handler

import (
	"errors"
	"net/http"
	"strings"

	"maliyet-backend/internal/middleware"
	"maliyet-backend/internal/model"
	"maliyet-backend/internal/service"
	"maliyet-backend/pkg/pagination"
	"maliyet-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api", middleware.RequireAuth())
	{
		api.GET("/approvals", h.ListApprovals)
	}

	admin := router.Group("/api", middleware.RequireRole(model.RoleAdmin))
	{
		admin.POST("/approvals/:id/review", h.ReviewApproval)
	}
}

// ListApprovals handles GET /api/approvals
// @Summary      List approval requests
// @Description  Retrieves a paginated list of approval requests, optionally filtered by status
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "pending, approved or rejected"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 50)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/approvals [get]
func (h *ApprovalHandler) ListApprovals(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	p := pagination.Parse(c)

	approvals, total, err := h.approvalService.ListApprovals(c.Request.Context(), status, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve approvals: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"approvals": approvals,
		"total":     total,
		"page":      p.Page,
		"limit":     p.Limit,
	}))
}

// ReviewApproval handles POST /api/approvals/:id/review
// @Summary      Review approval request
// @Description  Approves or rejects a pending approval request
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Approval Request ID"
// @Param        payload  body      service.ReviewApprovalRequest   true  "Review Payload"
// @Success      200      {object}  response.Response{data=model.ApprovalRequest}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/approvals/{id}/review [post]
func (h *ApprovalHandler) ReviewApproval(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid approval ID"))
		return
	}

	var req service.ReviewApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	actor := middleware.ActorFromContext(c)
	approval, err := h.approvalService.ReviewApproval(c.Request.Context(), actor, id, req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Approval request not found"))
		case errors.Is(err, service.ErrApprovalNotPending):
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, approval))
}
