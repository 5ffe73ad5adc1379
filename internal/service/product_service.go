package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"maliyet-backend/internal/cache"
	"maliyet-backend/internal/model"
	"maliyet-backend/internal/repository"

	"github.com/sirupsen/logrus"
)

// childDimsPattern matches the mapping export dims tuple, e.g. "(49, 63)".
var childDimsPattern = regexp.MustCompile(`^\((\d+(?:\.\d+)?),\s*(\d+(?:\.\d+)?)\)$`)

type ProductListQuery struct {
	Kategori string
	Search   string
	Page     int
	Limit    int
}

// ProductDetail is a product with its material quantities and cost
// assignments resolved.
type ProductDetail struct {
	model.Product
	Materials []ProductMaterialRow `json:"materials"`
	Costs     []model.ProductCost  `json:"costs"`
}

// ParentGroupPage is one cached page of the parent group listing.
type ParentGroupPage struct {
	Total  int64                    `json:"total"`
	Page   int                      `json:"page"`
	Limit  int                      `json:"limit"`
	Groups []repository.ParentGroup `json:"groups"`
}

// ImportResult summarizes one CSV import run.
type ImportResult struct {
	Kategori string `json:"kategori"`
	Loaded   int    `json:"loaded"`
	Skipped  int    `json:"skipped"`
}

type ProductService interface {
	ListProducts(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	GetProduct(ctx context.Context, sku string) (*ProductDetail, error)
	ListParentGroups(ctx context.Context, q ProductListQuery) (*ParentGroupPage, error)
	ImportProductsCSV(ctx context.Context, actor Actor, kategori string, r io.Reader) (*ImportResult, error)
	DeactivateCUS(ctx context.Context, actor Actor) (int64, error)
}

type productService struct {
	tx         repository.TransactionManager
	products   repository.ProductRepository
	materials  repository.MaterialRepository
	costs      repository.CostRepository
	groupCache *cache.TTLCache
	audit      AuditService
	log        *logrus.Logger
}

func NewProductService(
	tx repository.TransactionManager,
	products repository.ProductRepository,
	materials repository.MaterialRepository,
	costs repository.CostRepository,
	groupCache *cache.TTLCache,
	audit AuditService,
	log *logrus.Logger,
) ProductService {
	return &productService{
		tx:         tx,
		products:   products,
		materials:  materials,
		costs:      costs,
		groupCache: groupCache,
		audit:      audit,
		log:        log,
	}
}

func (s *productService) ListProducts(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error) {
	offset := (q.Page - 1) * q.Limit
	return s.products.List(ctx, q.Kategori, q.Search, offset, q.Limit)
}

func (s *productService) GetProduct(ctx context.Context, sku string) (*ProductDetail, error) {
	product, err := s.products.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	links, err := s.materials.ListBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	materials := make([]ProductMaterialRow, 0, len(links))
	for _, link := range links {
		materials = append(materials, ProductMaterialRow{
			MaterialID: link.MaterialID,
			Name:       link.Material.Name,
			Unit:       link.Material.Unit,
			UnitPrice:  link.Material.UnitPrice,
			Currency:   link.Material.Currency,
			Quantity:   link.Quantity,
		})
	}

	costs, err := s.costs.ListAssignmentsBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	return &ProductDetail{
		Product:   *product,
		Materials: materials,
		Costs:     costs,
	}, nil
}

func groupCacheKey(q ProductListQuery) string {
	return fmt.Sprintf("groups|%s|%s|%d|%d",
		strings.ToLower(strings.TrimSpace(q.Kategori)),
		strings.ToLower(strings.TrimSpace(q.Search)),
		q.Page, q.Limit)
}

// ListParentGroups serves the grouped parent listing through the TTL cache.
// Any product mutation invalidates the whole cache.
func (s *productService) ListParentGroups(ctx context.Context, q ProductListQuery) (*ParentGroupPage, error) {
	key := groupCacheKey(q)
	if cached := s.groupCache.Get(key); cached != nil {
		if page, ok := cached.(*ParentGroupPage); ok {
			return page, nil
		}
	}

	offset := (q.Page - 1) * q.Limit
	groups, total, err := s.products.ListParentGroups(ctx, q.Kategori, q.Search, offset, q.Limit)
	if err != nil {
		return nil, err
	}
	page := &ParentGroupPage{
		Total:  total,
		Page:   q.Page,
		Limit:  q.Limit,
		Groups: groups,
	}
	s.groupCache.Set(key, page)
	return page, nil
}

func parseChildDims(dims string) (en, boy *float64) {
	m := childDimsPattern.FindStringSubmatch(strings.TrimSpace(dims))
	if m == nil {
		return nil, nil
	}
	e, err1 := strconv.ParseFloat(m[1], 64)
	b, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return nil, nil
	}
	return &e, &b
}

// calculateAlan computes the surface area in m² from cm dimensions.
func calculateAlan(en, boy *float64) *float64 {
	if en == nil || boy == nil {
		return nil
	}
	alan := round6(*en * *boy / 10000)
	return &alan
}

// csvHeaderIndex maps trimmed header names to column positions. The first
// cell of files exported from spreadsheets may carry a UTF-8 BOM.
func csvHeaderIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimPrefix(strings.TrimSpace(name), "\uFEFF")] = i
	}
	return index
}

func csvField(record []string, index map[string]int, names ...string) string {
	for _, name := range names {
		if i, ok := index[name]; ok && i < len(record) {
			v := strings.TrimSpace(record[i])
			if v != "" && !strings.EqualFold(v, "nan") {
				return v
			}
		}
	}
	return ""
}

// ImportProductsCSV upserts the mapping export rows of one category. The
// surface area is computed here, at import time; inheritance later reads it
// but never writes it. Catalog upserts keep existing cargo fields.
func (s *productService) ImportProductsCSV(ctx context.Context, actor Actor, kategori string, r io.Reader) (*ImportResult, error) {
	kategori = strings.ToLower(strings.TrimSpace(kategori))
	if kategori == "" {
		return nil, fmt.Errorf("kategori is required")
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := csvHeaderIndex(header)

	result := &ImportResult{Kategori: kategori}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for {
			record, err := reader.Read()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read csv row: %w", err)
			}

			sku := csvField(record, index, "Child_SKU", "Child_ID")
			if sku == "" {
				result.Skipped++
				continue
			}

			dims := csvField(record, index, "Child_Dims")
			en, boy := parseChildDims(dims)

			product := &model.Product{
				Kategori:          kategori,
				ParentName:        csvField(record, index, "Parent_Name"),
				ChildSKU:          sku,
				ChildName:         csvField(record, index, "Child_Name"),
				ChildCode:         csvField(record, index, "Child_Code"),
				ChildDims:         dims,
				En:                en,
				Boy:               boy,
				AlanM2:            calculateAlan(en, boy),
				VariationSize:     csvField(record, index, "variationSize", "Variation_Size"),
				VariationColor:    csvField(record, index, "variationColor", "Variation_Color"),
				ProductIdentifier: csvField(record, index, "productIdentifier", "Product_Identifier"),
				IsActive:          true,
			}
			if raw := csvField(record, index, "Parent_ID"); raw != "" {
				if id, err := strconv.ParseFloat(raw, 64); err == nil {
					product.ParentID = &id
				}
			}

			if err := s.products.UpsertBySKU(txCtx, product); err != nil {
				return fmt.Errorf("upsert %s: %w", sku, err)
			}
			result.Loaded++
		}
	})
	if err != nil {
		return nil, err
	}

	s.groupCache.Invalidate()
	s.log.WithFields(logrus.Fields{
		"kategori": kategori,
		"loaded":   result.Loaded,
		"skipped":  result.Skipped,
	}).Info("products imported")
	s.audit.Record(ctx, &actor.ID, model.ActionImportProducts, kategori, kategori, result)
	return result, nil
}

// DeactivateCUS soft-disables every custom-order SKU (child code or SKU
// starting with CUS). Rows stay in place for history.
func (s *productService) DeactivateCUS(ctx context.Context, actor Actor) (int64, error) {
	deactivated, err := s.products.DeactivateCUS(ctx)
	if err != nil {
		return 0, err
	}
	if deactivated > 0 {
		s.groupCache.Invalidate()
	}
	s.audit.Record(ctx, &actor.ID, model.ActionDeactivateCUS, "CUS", "custom order SKUs", map[string]interface{}{
		"rule":        "child_code startswith CUS",
		"deactivated": deactivated,
	})
	return deactivated, nil
}
