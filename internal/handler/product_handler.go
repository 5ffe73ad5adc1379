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
	"gorm.io/gorm"
)

type ProductHandler struct {
	productService service.ProductService
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/api", middleware.RequireAuth())
	{
		products.GET("/products", h.ListProducts)
		products.GET("/products/:sku", h.GetProduct)
		products.GET("/parent-groups", h.ListParentGroups)
	}

	admin := router.Group("/api", middleware.RequireRole(model.RoleAdmin))
	{
		admin.POST("/import-products", h.ImportProducts)
		admin.POST("/deactivate-cus", h.DeactivateCUS)
	}
}

func listQuery(c *gin.Context) service.ProductListQuery {
	p := pagination.Parse(c)
	return service.ProductListQuery{
		Kategori: strings.ToLower(strings.TrimSpace(c.Query("kategori"))),
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     p.Page,
		Limit:    p.Limit,
	}
}

// ListProducts handles GET /api/products
// @Summary      List products
// @Description  Retrieves a paginated list of active products, filterable by category and search term
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        kategori  query     string  false  "Category filter (metal, ahsap, cam, harita, mobilya)"
// @Param        search    query     string  false  "Search in SKU and product name"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 50)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	q := listQuery(c)

	products, total, err := h.productService.ListProducts(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve products: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    total,
		"page":     q.Page,
		"limit":    q.Limit,
	}))
}

// GetProduct handles GET /api/products/:sku
// @Summary      Get product detail
// @Description  Fetch a single product with its assigned costs and material quantities
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        sku  path      string  true  "Child SKU"
// @Success      200  {object}  response.Response{data=service.ProductDetail}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{sku} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	detail, err := h.productService.GetProduct(c.Request.Context(), c.Param("sku"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Product not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// ListParentGroups handles GET /api/parent-groups
// @Summary      List parent groups
// @Description  Retrieves parent product groups with child counts and size sets, cached per query
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        kategori  query     string  false  "Category filter"
// @Param        search    query     string  false  "Search in parent name"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 50)"
// @Success      200  {object}  response.Response{data=service.ParentGroupPage}
// @Failure      500  {object}  response.Response
// @Router       /api/parent-groups [get]
func (h *ProductHandler) ListParentGroups(c *gin.Context) {
	page, err := h.productService.ListParentGroups(c.Request.Context(), listQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve parent groups: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, page))
}

// ImportProducts handles POST /api/import-products with a CSV upload
// @Summary      Import products from CSV
// @Description  Upserts product rows for one category from an uploaded CSV file
// @Tags         products
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        kategori  formData  string  true  "Product category"
// @Param        file      formData  file    true  "CSV file"
// @Success      200  {object}  response.Response{data=service.ImportResult}
// @Failure      400  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/import-products [post]
func (h *ProductHandler) ImportProducts(c *gin.Context) {
	kategori := strings.TrimSpace(c.PostForm("kategori"))
	if kategori == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "kategori form field is required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "CSV file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to open uploaded file"))
		return
	}
	defer file.Close()

	actor := middleware.ActorFromContext(c)
	result, err := h.productService.ImportProductsCSV(c.Request.Context(), actor, kategori, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// DeactivateCUS handles POST /api/deactivate-cus
// @Summary      Deactivate CUS products
// @Description  Deactivates products whose SKU starts with CUS unless the name marks them as a stock item
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/deactivate-cus [post]
func (h *ProductHandler) DeactivateCUS(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	deactivated, err := h.productService.DeactivateCUS(c.Request.Context(), actor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"deactivated": deactivated,
	}))
}
