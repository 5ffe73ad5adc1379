package repository

import (
	"context"

	"maliyet-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaterialQuantityUpsert is one staged (sku, material, quantity) write.
type MaterialQuantityUpsert struct {
	ChildSKU   string
	MaterialID uuid.UUID
	Quantity   float64
}

// ParentMaterialRow joins a product material row to its material name and
// owning child, for the prefill majority vote.
type ParentMaterialRow struct {
	ChildSKU     string
	MaterialID   uuid.UUID
	MaterialName string
	Quantity     float64
}

type MaterialRepository interface {
	List(ctx context.Context) ([]model.RawMaterial, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.RawMaterial, error)
	FindFirstByNamePattern(ctx context.Context, patterns ...string) (*model.RawMaterial, error)
	Create(ctx context.Context, m *model.RawMaterial) error
	Update(ctx context.Context, m *model.RawMaterial) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountProductLinks(ctx context.Context, id uuid.UUID) (int64, error)
	UpsertQuantities(ctx context.Context, upserts []MaterialQuantityUpsert) error
	ListBySKU(ctx context.Context, sku string) ([]model.ProductMaterial, error)
	ListByParent(ctx context.Context, parentName string) ([]ParentMaterialRow, error)
	ListBySKUs(ctx context.Context, skus []string) ([]ParentMaterialRow, error)
}

type materialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) MaterialRepository {
	return &materialRepository{db: db}
}

func (r *materialRepository) List(ctx context.Context) ([]model.RawMaterial, error) {
	var materials []model.RawMaterial
	if err := GetDB(ctx, r.db).Order("name").Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

func (r *materialRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RawMaterial, error) {
	var m model.RawMaterial
	if err := GetDB(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// FindFirstByNamePattern returns the first material whose name matches any
// of the ILIKE patterns, in pattern order. Resolves the auto-computed
// strafor and boya+işçilik materials.
func (r *materialRepository) FindFirstByNamePattern(ctx context.Context, patterns ...string) (*model.RawMaterial, error) {
	db := GetDB(ctx, r.db)
	for _, pattern := range patterns {
		var m model.RawMaterial
		err := db.Where("name ILIKE ?", pattern).Order("name").First(&m).Error
		if err == nil {
			return &m, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *materialRepository) Create(ctx context.Context, m *model.RawMaterial) error {
	return GetDB(ctx, r.db).Create(m).Error
}

func (r *materialRepository) Update(ctx context.Context, m *model.RawMaterial) error {
	return GetDB(ctx, r.db).Save(m).Error
}

// Delete removes the material and every product quantity row referencing it.
func (r *materialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("material_id = ?", id).Delete(&model.ProductMaterial{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.RawMaterial{}, "id = ?", id).Error
}

func (r *materialRepository) CountProductLinks(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.ProductMaterial{}).
		Where("material_id = ?", id).
		Count(&n).Error
	return n, err
}

func (r *materialRepository) UpsertQuantities(ctx context.Context, upserts []MaterialQuantityUpsert) error {
	if len(upserts) == 0 {
		return nil
	}
	rows := make([]model.ProductMaterial, 0, len(upserts))
	for _, u := range upserts {
		rows = append(rows, model.ProductMaterial{
			ChildSKU:   u.ChildSKU,
			MaterialID: u.MaterialID,
			Quantity:   u.Quantity,
		})
	}
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "child_sku"}, {Name: "material_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).CreateInBatches(rows, 500).Error
}

func (r *materialRepository) ListBySKU(ctx context.Context, sku string) ([]model.ProductMaterial, error) {
	var rows []model.ProductMaterial
	err := GetDB(ctx, r.db).Preload("Material").
		Where("child_sku = ?", sku).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListBySKUs loads the material quantities of the given SKUs in chunked IN
// queries, joined to the material names.
func (r *materialRepository) ListBySKUs(ctx context.Context, skus []string) ([]ParentMaterialRow, error) {
	db := GetDB(ctx, r.db)
	var rows []ParentMaterialRow
	const chunkSize = 500
	for start := 0; start < len(skus); start += chunkSize {
		end := start + chunkSize
		if end > len(skus) {
			end = len(skus)
		}
		var chunk []ParentMaterialRow
		err := db.Table("product_materials AS pm").
			Select("pm.child_sku, pm.material_id, rm.name AS material_name, pm.quantity").
			Joins("JOIN raw_materials rm ON rm.id = pm.material_id").
			Where("pm.child_sku IN ?", skus[start:end]).
			Scan(&chunk).Error
		if err != nil {
			return nil, err
		}
		rows = append(rows, chunk...)
	}
	return rows, nil
}

func (r *materialRepository) ListByParent(ctx context.Context, parentName string) ([]ParentMaterialRow, error) {
	var rows []ParentMaterialRow
	err := GetDB(ctx, r.db).
		Table("product_materials AS pm").
		Select("pm.child_sku, pm.material_id, rm.name AS material_name, pm.quantity").
		Joins("JOIN raw_materials rm ON rm.id = pm.material_id").
		Joins("JOIN products p ON p.child_sku = pm.child_sku").
		Where("p.parent_name = ? AND p.is_active = ?", parentName, true).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
