package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RawMaterial is a purchasable input (sheet metal, MDF, paint, foam, ...).
type RawMaterial struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Unit      string          `gorm:"type:varchar(20);not null" json:"unit"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"unit_price"`
	Currency  string          `gorm:"type:varchar(10);not null;default:'TRY'" json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProductMaterial records how much of a raw material one child SKU consumes.
// Unique per (child_sku, material_id) with upsert semantics.
type ProductMaterial struct {
	ID         uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ChildSKU   string      `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_materials_sku_mat" json:"child_sku"`
	MaterialID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_product_materials_sku_mat" json:"material_id"`
	Material   RawMaterial `gorm:"foreignKey:MaterialID" json:"-"`
	Quantity   float64     `gorm:"not null" json:"quantity"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
