package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"maliyet-backend/internal/excel"
	"maliyet-backend/internal/model"
	"maliyet-backend/internal/repository"

	"github.com/sirupsen/logrus"
)

var ErrExportEmpty = errors.New("no products to export")

// ExportRequest selects the SKUs to export. Materials and costs are included
// unless explicitly turned off.
type ExportRequest struct {
	ChildSKUs        []string `json:"child_skus" binding:"required"`
	IncludeMaterials *bool    `json:"include_materials"`
	IncludeCosts     *bool    `json:"include_costs"`
}

type ExportService interface {
	ExportSelected(ctx context.Context, actor Actor, req ExportRequest) (string, error)
	ExportAll(ctx context.Context, actor Actor) (string, error)
	TemplateStructure() (*excel.Structure, error)
}

type exportService struct {
	products  repository.ProductRepository
	materials repository.MaterialRepository
	costs     repository.CostRepository
	audit     AuditService
	log       *logrus.Logger
}

func NewExportService(
	products repository.ProductRepository,
	materials repository.MaterialRepository,
	costs repository.CostRepository,
	audit AuditService,
	log *logrus.Logger,
) ExportService {
	return &exportService{
		products:  products,
		materials: materials,
		costs:     costs,
		audit:     audit,
		log:       log,
	}
}

func (s *exportService) TemplateStructure() (*excel.Structure, error) {
	path, err := templatePath()
	if err != nil {
		return nil, err
	}
	return excel.LoadStructure(path)
}

// ExportSelected writes the selected products into a template-shaped
// workbook and returns its path. The caller owns the file afterwards.
func (s *exportService) ExportSelected(ctx context.Context, actor Actor, req ExportRequest) (string, error) {
	started := time.Now()

	seen := make(map[string]struct{}, len(req.ChildSKUs))
	skus := make([]string, 0, len(req.ChildSKUs))
	for _, raw := range req.ChildSKUs {
		sku := strings.TrimSpace(raw)
		if sku == "" {
			continue
		}
		if _, dup := seen[sku]; dup {
			continue
		}
		seen[sku] = struct{}{}
		skus = append(skus, sku)
	}
	if len(skus) == 0 {
		return "", ErrExportEmpty
	}

	includeMaterials := req.IncludeMaterials == nil || *req.IncludeMaterials
	includeCosts := req.IncludeCosts == nil || *req.IncludeCosts

	products, err := s.products.ListBySKUs(ctx, skus)
	if err != nil {
		return "", err
	}
	if len(products) == 0 {
		return "", ErrExportEmpty
	}
	bySKU := make(map[string]*model.Product, len(products))
	foundSKUs := make([]string, 0, len(products))
	for i := range products {
		bySKU[products[i].ChildSKU] = &products[i]
	}
	for _, sku := range skus {
		if _, ok := bySKU[sku]; ok {
			foundSKUs = append(foundSKUs, sku)
		}
	}

	materialsBySKU := make(map[string]map[string]float64)
	if includeMaterials {
		rows, err := s.materials.ListBySKUs(ctx, foundSKUs)
		if err != nil {
			return "", err
		}
		for _, row := range rows {
			if materialsBySKU[row.ChildSKU] == nil {
				materialsBySKU[row.ChildSKU] = make(map[string]float64)
			}
			materialsBySKU[row.ChildSKU][row.MaterialName] = row.Quantity
		}
	}

	costsBySKU := make(map[string]map[string]string)
	if includeCosts {
		rows, err := s.costs.ListAssignedBySKUs(ctx, foundSKUs)
		if err != nil {
			return "", err
		}
		for _, row := range rows {
			if costsBySKU[row.ChildSKU] == nil {
				costsBySKU[row.ChildSKU] = make(map[string]string)
			}
			costsBySKU[row.ChildSKU][row.CostName] = "x"
		}
	}

	exportRows := make([]excel.ExportRow, 0, len(foundSKUs))
	for _, sku := range foundSKUs {
		p := bySKU[sku]
		row := excel.ExportRow{
			ChildSKU:       p.ChildSKU,
			ChildName:      p.ChildName,
			VariationColor: p.VariationColor,
			// Cargo box dimensions take precedence over catalog dims.
			En:        firstFloat(p.KargoEn, p.En),
			Boy:       firstFloat(p.KargoBoy, p.Boy),
			Yukseklik: p.KargoYukseklik,
			Agirlik:   p.KargoAgirlik,
			Desi:      p.KargoDesi,
			Materials: materialsBySKU[sku],
			Costs:     costsBySKU[sku],
		}
		exportRows = append(exportRows, row)
	}

	tmplPath, err := templatePath()
	if err != nil {
		return "", err
	}
	structure, err := excel.LoadStructure(tmplPath)
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(os.TempDir(),
		fmt.Sprintf("maliyet_export_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := structure.Export(exportRows, outputPath); err != nil {
		return "", err
	}

	durationMs := time.Since(started).Milliseconds()
	s.log.WithFields(logrus.Fields{
		"requested":   len(skus),
		"exported":    len(exportRows),
		"duration_ms": durationMs,
	}).Info("export completed")
	s.audit.Record(ctx, &actor.ID, model.ActionExportTemplate, fmt.Sprintf("%d products", len(exportRows)), "", map[string]interface{}{
		"requested_skus":    len(skus),
		"exported_skus":     len(exportRows),
		"include_materials": includeMaterials,
		"include_costs":     includeCosts,
		"duration_ms":       durationMs,
	})
	return outputPath, nil
}

func (s *exportService) ExportAll(ctx context.Context, actor Actor) (string, error) {
	skus, err := s.products.ListActiveSKUs(ctx)
	if err != nil {
		return "", err
	}
	return s.ExportSelected(ctx, actor, ExportRequest{ChildSKUs: skus})
}

func firstFloat(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
