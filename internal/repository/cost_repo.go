package repository

import (
	"context"
	"strings"

	"maliyet-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CostAssignment is one (sku, cost name) pair staged for upsert.
type CostAssignment struct {
	ChildSKU string
	CostName string
	Assigned bool
}

// HistoricalAssignment joins an assigned kaplama cost to the product it is
// assigned on; feeds the suggestion engines.
type HistoricalAssignment struct {
	ChildName      string
	VariationSize  string
	VariationColor string
	Kategori       string
	CostName       string
}

// AssignedCost is one assigned cost row of a parent's own children, used by
// the prefill endpoint.
type AssignedCost struct {
	ChildSKU string
	CostName string
	Category string
}

type CostRepository interface {
	ListDefinitions(ctx context.Context, activeOnly bool, category string) ([]model.CostDefinition, error)
	GetDefinitionByID(ctx context.Context, id uuid.UUID) (*model.CostDefinition, error)
	GetDefinitionByName(ctx context.Context, name string) (*model.CostDefinition, error)
	NameConflictExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)
	CreateDefinition(ctx context.Context, def *model.CostDefinition) error
	UpdateDefinition(ctx context.Context, def *model.CostDefinition) error
	DeactivateDefinition(ctx context.Context, name string) error
	DeleteDefinition(ctx context.Context, id uuid.UUID) error
	UpsertAssignments(ctx context.Context, assignments []CostAssignment) error
	DeleteAssignmentsByName(ctx context.Context, costName string) error
	MergeAssignmentName(ctx context.Context, oldName, newName string) error
	DistinctAssignmentNames(ctx context.Context, pattern string) ([]string, error)
	ListAssignmentsBySKU(ctx context.Context, sku string) ([]model.ProductCost, error)
	ListHistoricalKaplama(ctx context.Context, excludeParent string) ([]HistoricalAssignment, error)
	ListAssignedByParent(ctx context.Context, parentName string) ([]AssignedCost, error)
	ListAssignedBySKUs(ctx context.Context, skus []string) ([]CostAssignment, error)
}

type costRepository struct {
	db *gorm.DB
}

func NewCostRepository(db *gorm.DB) CostRepository {
	return &costRepository{db: db}
}

func (r *costRepository) ListDefinitions(ctx context.Context, activeOnly bool, category string) ([]model.CostDefinition, error) {
	query := GetDB(ctx, r.db).Model(&model.CostDefinition{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if category != "" {
		query = query.Where("category = ?", strings.ToLower(strings.TrimSpace(category)))
	}
	var defs []model.CostDefinition
	if err := query.Order("name").Find(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}

func (r *costRepository) GetDefinitionByID(ctx context.Context, id uuid.UUID) (*model.CostDefinition, error) {
	var def model.CostDefinition
	if err := GetDB(ctx, r.db).First(&def, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &def, nil
}

// NameConflictExists reports whether another definition already uses the
// name, case-insensitively.
func (r *costRepository) NameConflictExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.CostDefinition{}).
		Where("LOWER(name) = LOWER(?) AND id <> ?", name, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *costRepository) GetDefinitionByName(ctx context.Context, name string) (*model.CostDefinition, error) {
	var def model.CostDefinition
	if err := GetDB(ctx, r.db).First(&def, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *costRepository) CreateDefinition(ctx context.Context, def *model.CostDefinition) error {
	return GetDB(ctx, r.db).Create(def).Error
}

func (r *costRepository) UpdateDefinition(ctx context.Context, def *model.CostDefinition) error {
	return GetDB(ctx, r.db).Save(def).Error
}

func (r *costRepository) DeactivateDefinition(ctx context.Context, name string) error {
	return GetDB(ctx, r.db).Model(&model.CostDefinition{}).
		Where("name = ?", name).
		Update("is_active", false).Error
}

func (r *costRepository) DeleteDefinition(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.CostDefinition{}, "id = ?", id).Error
}

func (r *costRepository) DeleteAssignmentsByName(ctx context.Context, costName string) error {
	return GetDB(ctx, r.db).Where("cost_name = ?", costName).Delete(&model.ProductCost{}).Error
}

func (r *costRepository) ListAssignmentsBySKU(ctx context.Context, sku string) ([]model.ProductCost, error) {
	var rows []model.ProductCost
	err := GetDB(ctx, r.db).Where("child_sku = ?", sku).Order("cost_name").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpsertAssignments toggles assignment flags by natural key; rows are never
// deleted on unassign.
func (r *costRepository) UpsertAssignments(ctx context.Context, assignments []CostAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	rows := make([]model.ProductCost, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, model.ProductCost{
			ChildSKU: a.ChildSKU,
			CostName: a.CostName,
			Assigned: a.Assigned,
		})
	}
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "child_sku"}, {Name: "cost_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"assigned", "updated_at"}),
	}).CreateInBatches(rows, 500).Error
}

// MergeAssignmentName moves product_costs rows from oldName to newName
// without violating the (sku, name) unique constraint: existing rows under
// the new name keep the stronger assigned flag.
func (r *costRepository) MergeAssignmentName(ctx context.Context, oldName, newName string) error {
	if oldName == newName {
		return nil
	}
	db := GetDB(ctx, r.db)

	var rows []model.ProductCost
	if err := db.Where("cost_name = ?", oldName).Find(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		err := db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "child_sku"}, {Name: "cost_name"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"assigned": gorm.Expr("product_costs.assigned OR excluded.assigned"),
			}),
		}).Create(&model.ProductCost{
			ChildSKU: row.ChildSKU,
			CostName: newName,
			Assigned: row.Assigned,
		}).Error
		if err != nil {
			return err
		}
	}
	return db.Where("cost_name = ?", oldName).Delete(&model.ProductCost{}).Error
}

// DistinctAssignmentNames returns the distinct cost names present in
// product_costs matching the case-insensitive pattern.
func (r *costRepository) DistinctAssignmentNames(ctx context.Context, pattern string) ([]string, error) {
	var names []string
	err := GetDB(ctx, r.db).Model(&model.ProductCost{}).
		Distinct("cost_name").
		Where("cost_name ILIKE ?", pattern).
		Pluck("cost_name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// ListHistoricalKaplama loads every assigned kaplama cost on active children
// of parents other than excludeParent.
func (r *costRepository) ListHistoricalKaplama(ctx context.Context, excludeParent string) ([]HistoricalAssignment, error) {
	var rows []HistoricalAssignment
	err := GetDB(ctx, r.db).
		Table("product_costs AS pc").
		Select("p.child_name, p.variation_size, p.variation_color, p.kategori, pc.cost_name").
		Joins("JOIN products p ON p.child_sku = pc.child_sku").
		Joins("JOIN cost_definitions cd ON cd.name = pc.cost_name").
		Where("pc.assigned = ? AND cd.category = ? AND cd.is_active = ? AND p.is_active = ? AND p.parent_name <> ?",
			true, model.CostCategoryKaplama, true, true, excludeParent).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAssignedBySKUs loads the assigned cost names of the given SKUs in
// chunked IN queries.
func (r *costRepository) ListAssignedBySKUs(ctx context.Context, skus []string) ([]CostAssignment, error) {
	db := GetDB(ctx, r.db)
	var rows []CostAssignment
	const chunkSize = 500
	for start := 0; start < len(skus); start += chunkSize {
		end := start + chunkSize
		if end > len(skus) {
			end = len(skus)
		}
		var chunk []CostAssignment
		err := db.Model(&model.ProductCost{}).
			Select("child_sku, cost_name, assigned").
			Where("assigned = ? AND child_sku IN ?", true, skus[start:end]).
			Scan(&chunk).Error
		if err != nil {
			return nil, err
		}
		rows = append(rows, chunk...)
	}
	return rows, nil
}

func (r *costRepository) ListAssignedByParent(ctx context.Context, parentName string) ([]AssignedCost, error) {
	var rows []AssignedCost
	err := GetDB(ctx, r.db).
		Table("product_costs AS pc").
		Select("pc.child_sku, pc.cost_name, cd.category").
		Joins("JOIN products p ON p.child_sku = pc.child_sku").
		Joins("LEFT JOIN cost_definitions cd ON cd.name = pc.cost_name").
		Where("p.parent_name = ? AND p.is_active = ? AND pc.assigned = ?", parentName, true, true).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
