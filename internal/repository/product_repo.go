package repository

import (
	"context"
	"strings"

	"maliyet-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CargoUpdate carries the cargo fields the inheritance executor writes back
// to one child SKU. AlanM2 is deliberately absent: a child's area is computed
// once at import and never overwritten.
type CargoUpdate struct {
	ChildSKU       string
	KargoKodu      string
	KargoEn        *float64
	KargoBoy       *float64
	KargoYukseklik *float64
	KargoAgirlik   *float64
	KargoDesi      *float64
}

// ProductRepository defines data access for child SKU rows and their
// material/cost assignments.
type ProductRepository interface {
	GetBySKU(ctx context.Context, sku string) (*model.Product, error)
	ListBySKUs(ctx context.Context, skus []string) ([]model.Product, error)
	ListActiveSKUs(ctx context.Context) ([]string, error)
	ListByParent(ctx context.Context, parentName string) ([]model.Product, error)
	List(ctx context.Context, kategori, search string, offset, limit int) ([]model.Product, int64, error)
	ListParentGroups(ctx context.Context, kategori, search string, offset, limit int) ([]ParentGroup, int64, error)
	Create(ctx context.Context, p *model.Product) error
	UpsertBySKU(ctx context.Context, p *model.Product) error
	DeactivateCUS(ctx context.Context) (int64, error)
	BulkCargoUpdate(ctx context.Context, updates []CargoUpdate) error
	LockParentGroup(ctx context.Context, parentName string) error
}

// ParentGroup is one aggregated parent row of the group listing.
type ParentGroup struct {
	ParentName string `json:"parent_name"`
	Kategori   string `json:"kategori"`
	ChildCount int64  `json:"child_count"`
	SizeCount  int64  `json:"size_count"`
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var p model.Product
	if err := GetDB(ctx, r.db).First(&p, "child_sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListBySKUs loads active products for the given SKUs in chunked IN queries.
func (r *productRepository) ListBySKUs(ctx context.Context, skus []string) ([]model.Product, error) {
	db := GetDB(ctx, r.db)
	var products []model.Product
	const chunkSize = 500
	for start := 0; start < len(skus); start += chunkSize {
		end := start + chunkSize
		if end > len(skus) {
			end = len(skus)
		}
		var chunk []model.Product
		err := db.Where("is_active = ? AND child_sku IN ?", true, skus[start:end]).
			Find(&chunk).Error
		if err != nil {
			return nil, err
		}
		products = append(products, chunk...)
	}
	return products, nil
}

func (r *productRepository) ListActiveSKUs(ctx context.Context) ([]string, error) {
	var skus []string
	err := GetDB(ctx, r.db).Model(&model.Product{}).
		Where("is_active = ?", true).
		Order("child_sku").
		Pluck("child_sku", &skus).Error
	if err != nil {
		return nil, err
	}
	return skus, nil
}

func (r *productRepository) ListByParent(ctx context.Context, parentName string) ([]model.Product, error) {
	var products []model.Product
	err := GetDB(ctx, r.db).
		Where("parent_name = ? AND is_active = ?", parentName, true).
		Order("child_sku").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) List(ctx context.Context, kategori, search string, offset, limit int) ([]model.Product, int64, error) {
	db := GetDB(ctx, r.db)
	query := db.Model(&model.Product{}).Where("is_active = ?", true)
	if kategori != "" {
		query = query.Where("kategori = ?", strings.ToLower(strings.TrimSpace(kategori)))
	}
	if search != "" {
		like := "%" + strings.TrimSpace(search) + "%"
		query = query.Where("child_sku ILIKE ? OR child_name ILIKE ? OR parent_name ILIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	if err := query.Order("parent_name, child_sku").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) ListParentGroups(ctx context.Context, kategori, search string, offset, limit int) ([]ParentGroup, int64, error) {
	db := GetDB(ctx, r.db)
	query := db.Model(&model.Product{}).
		Where("is_active = ? AND parent_name <> ''", true)
	if kategori != "" {
		query = query.Where("kategori = ?", strings.ToLower(strings.TrimSpace(kategori)))
	}
	if search != "" {
		query = query.Where("parent_name ILIKE ?", "%"+strings.TrimSpace(search)+"%")
	}

	var total int64
	if err := query.Distinct("parent_name").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var groups []ParentGroup
	err := query.
		Select("parent_name, MIN(kategori) AS kategori, COUNT(*) AS child_count, COUNT(DISTINCT variation_size) AS size_count").
		Group("parent_name").
		Order("parent_name").
		Offset(offset).
		Limit(limit).
		Scan(&groups).Error
	if err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	return GetDB(ctx, r.db).Create(p).Error
}

// UpsertBySKU inserts the product or refreshes its catalog fields when the
// SKU already exists. Cargo fields are left alone so a re-import does not
// wipe inherited values; alan_m2 keeps its first computed value.
func (r *productRepository) UpsertBySKU(ctx context.Context, p *model.Product) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "child_sku"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"kategori", "parent_id", "parent_name", "child_name", "child_code",
			"child_dims", "en", "boy", "variation_size", "variation_color",
			"product_identifier", "is_active", "updated_at",
		}),
	}).Create(p).Error
}

// DeactivateCUS soft-deletes custom-coded SKUs ("CUS" prefix); rows stay in
// place with is_active = false.
func (r *productRepository) DeactivateCUS(ctx context.Context) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Product{}).
		Where("is_active = ? AND (child_sku ILIKE 'CUS%' OR child_code ILIKE 'CUS%')", true).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (r *productRepository) BulkCargoUpdate(ctx context.Context, updates []CargoUpdate) error {
	db := GetDB(ctx, r.db)
	for _, u := range updates {
		err := db.Model(&model.Product{}).
			Where("child_sku = ?", u.ChildSKU).
			Updates(map[string]interface{}{
				"kargo_kodu":      u.KargoKodu,
				"kargo_en":        u.KargoEn,
				"kargo_boy":       u.KargoBoy,
				"kargo_yukseklik": u.KargoYukseklik,
				"kargo_agirlik":   u.KargoAgirlik,
				"kargo_desi":      u.KargoDesi,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// LockParentGroup takes a transaction-scoped advisory lock keyed by parent
// name so concurrent inheritance runs against the same parent serialize.
func (r *productRepository) LockParentGroup(ctx context.Context, parentName string) error {
	return GetDB(ctx, r.db).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "inherit:"+parentName).Error
}
