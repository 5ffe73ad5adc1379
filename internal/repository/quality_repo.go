package repository

import (
	"context"

	"gorm.io/gorm"
)

// QualityChecks carries the integrity counters of the data quality report.
// Every field counts rows violating one invariant; zero across the board
// means a clean dataset.
type QualityChecks struct {
	OrphanProductMaterials          int64 `json:"orphan_product_materials"`
	OrphanProductCosts              int64 `json:"orphan_product_costs"`
	AssignedCostsWithoutDefinition  int64 `json:"assigned_costs_without_definition"`
	AssignedCostsInactiveDefinition int64 `json:"assigned_costs_inactive_definition"`
	ProductsMissingParentName       int64 `json:"products_missing_parent_name"`
	ProductsMissingIdentifier       int64 `json:"products_missing_identifier"`
	ProductsMissingVariationSize    int64 `json:"products_missing_variation_size"`
	DuplicateUsersCaseInsensitive   int64 `json:"duplicate_users_case_insensitive"`
	DuplicateCostNamesCaseFold      int64 `json:"duplicate_cost_names_case_insensitive"`
}

func (c QualityChecks) IssueCount() int64 {
	return c.OrphanProductMaterials +
		c.OrphanProductCosts +
		c.AssignedCostsWithoutDefinition +
		c.AssignedCostsInactiveDefinition +
		c.ProductsMissingParentName +
		c.ProductsMissingIdentifier +
		c.ProductsMissingVariationSize +
		c.DuplicateUsersCaseInsensitive +
		c.DuplicateCostNamesCaseFold
}

// CatalogStats aggregates headline counters for the dashboard.
type CatalogStats struct {
	TotalProducts       int64 `json:"total_products"`
	MetalProducts       int64 `json:"metal_products"`
	AhsapProducts       int64 `json:"ahsap_products"`
	CamProducts         int64 `json:"cam_products"`
	HaritaProducts      int64 `json:"harita_products"`
	MobilyaProducts     int64 `json:"mobilya_products"`
	ProductsWithDims    int64 `json:"products_with_dims"`
	ProductsWithoutDims int64 `json:"products_without_dims"`
	TotalMaterials      int64 `json:"total_materials"`
	MaterialsWithPrice  int64 `json:"materials_with_price"`
}

type QualityRepository interface {
	Checks(ctx context.Context) (QualityChecks, error)
	Stats(ctx context.Context) (CatalogStats, error)
}

type qualityRepository struct {
	db *gorm.DB
}

func NewQualityRepository(db *gorm.DB) QualityRepository {
	return &qualityRepository{db: db}
}

func (r *qualityRepository) Checks(ctx context.Context) (QualityChecks, error) {
	db := GetDB(ctx, r.db)
	var checks QualityChecks

	queries := []struct {
		dest *int64
		sql  string
	}{
		{&checks.OrphanProductMaterials, `
			SELECT COUNT(*) FROM product_materials pm
			LEFT JOIN products p ON p.child_sku = pm.child_sku
			WHERE p.child_sku IS NULL`},
		{&checks.OrphanProductCosts, `
			SELECT COUNT(*) FROM product_costs pc
			LEFT JOIN products p ON p.child_sku = pc.child_sku
			WHERE p.child_sku IS NULL`},
		{&checks.AssignedCostsWithoutDefinition, `
			SELECT COUNT(*) FROM product_costs pc
			LEFT JOIN cost_definitions cd ON cd.name = pc.cost_name
			WHERE pc.assigned = TRUE AND cd.id IS NULL`},
		{&checks.AssignedCostsInactiveDefinition, `
			SELECT COUNT(*) FROM product_costs pc
			JOIN cost_definitions cd ON cd.name = pc.cost_name
			WHERE pc.assigned = TRUE AND COALESCE(cd.is_active, TRUE) = FALSE`},
		{&checks.ProductsMissingParentName, `
			SELECT COUNT(*) FROM products
			WHERE parent_name IS NULL OR TRIM(parent_name) = ''`},
		{&checks.ProductsMissingIdentifier, `
			SELECT COUNT(*) FROM products
			WHERE product_identifier IS NULL OR TRIM(product_identifier) = ''`},
		{&checks.ProductsMissingVariationSize, `
			SELECT COUNT(*) FROM products
			WHERE variation_size IS NULL OR TRIM(variation_size) = ''`},
		{&checks.DuplicateUsersCaseInsensitive, `
			SELECT COUNT(*) FROM (
				SELECT LOWER(username) FROM users
				GROUP BY LOWER(username) HAVING COUNT(*) > 1
			) t`},
		{&checks.DuplicateCostNamesCaseFold, `
			SELECT COUNT(*) FROM (
				SELECT LOWER(name) FROM cost_definitions
				GROUP BY LOWER(name) HAVING COUNT(*) > 1
			) t`},
	}
	for _, q := range queries {
		if err := db.Raw(q.sql).Scan(q.dest).Error; err != nil {
			return checks, err
		}
	}
	return checks, nil
}

func (r *qualityRepository) Stats(ctx context.Context) (CatalogStats, error) {
	db := GetDB(ctx, r.db)
	var stats CatalogStats
	err := db.Raw(`
		SELECT
			p.total_products,
			p.metal_products,
			p.ahsap_products,
			p.cam_products,
			p.harita_products,
			p.mobilya_products,
			p.products_with_dims,
			p.products_without_dims,
			m.total_materials,
			m.materials_with_price
		FROM (
			SELECT
				COUNT(*) AS total_products,
				COUNT(*) FILTER (WHERE kategori = 'metal') AS metal_products,
				COUNT(*) FILTER (WHERE kategori IN ('ahsap', 'ahşap')) AS ahsap_products,
				COUNT(*) FILTER (WHERE kategori = 'cam') AS cam_products,
				COUNT(*) FILTER (WHERE kategori = 'harita') AS harita_products,
				COUNT(*) FILTER (WHERE kategori = 'mobilya') AS mobilya_products,
				COUNT(*) FILTER (WHERE en IS NOT NULL AND boy IS NOT NULL) AS products_with_dims,
				COUNT(*) FILTER (WHERE en IS NULL OR boy IS NULL) AS products_without_dims
			FROM products
			WHERE is_active = TRUE
		) p
		CROSS JOIN (
			SELECT
				COUNT(*) AS total_materials,
				COUNT(*) FILTER (WHERE unit_price > 0) AS materials_with_price
			FROM raw_materials
		) m
	`).Scan(&stats).Error
	return stats, err
}
