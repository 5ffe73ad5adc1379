package model

import (
	"time"

	"github.com/google/uuid"
)

// CostDefinition categories
const (
	CostCategoryKargo   = "kargo"
	CostCategoryKaplama = "kaplama"
)

// CostDefinition sources
const (
	CostSourceTemplate        = "template"
	CostSourceManual          = "manual"
	CostSourceLegacyMigration = "legacy_migration"
)

// CostDefinition is a named cost item from the cost template. Kargo entries
// carry a normalized box code; kaplama entries may carry a tier suffix in
// parentheses, e.g. "Eskitme Kaplama (gold,copper)".
type CostDefinition struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Category  string    `gorm:"type:varchar(20);not null;index" json:"category"` // kargo, kaplama
	KargoCode string    `gorm:"type:varchar(20)" json:"kargo_code"`
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	Source    string    `gorm:"type:varchar(20)" json:"source"` // template, manual
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductCost assigns a cost definition to a child SKU. Assignment is a
// toggle with upsert semantics on (child_sku, cost_name); rows are never
// deleted on unassign.
type ProductCost struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ChildSKU  string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_costs_sku_name" json:"child_sku"`
	CostName  string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_product_costs_sku_name" json:"cost_name"`
	Assigned  bool      `gorm:"not null;default:true" json:"assigned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
