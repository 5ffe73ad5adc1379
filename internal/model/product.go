package model

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a single child SKU variant. Parents are not stored as
// rows of their own: a parent exists only as the shared ParentName value
// under which its size/color variants are grouped.
type Product struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Kategori          string    `gorm:"type:varchar(50);not null;index" json:"kategori"` // metal, ahsap, cam, harita, mobilya
	ParentID          *float64  `json:"parent_id"`
	ParentName        string    `gorm:"type:varchar(255);index" json:"parent_name"`
	ChildSKU          string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"child_sku"`
	ChildName         string    `gorm:"type:varchar(255)" json:"child_name"`
	ChildCode         string    `gorm:"type:varchar(100)" json:"child_code"`
	ChildDims         string    `gorm:"type:varchar(100)" json:"child_dims"`
	En                *float64  `json:"en"`
	Boy               *float64  `json:"boy"`
	AlanM2            *float64  `json:"alan_m2"` // computed once at import from En/Boy; never touched by inheritance
	VariationSize     string    `gorm:"type:varchar(100);index" json:"variation_size"`
	VariationColor    string    `gorm:"type:varchar(100)" json:"variation_color"`
	ProductIdentifier string    `gorm:"type:varchar(100);index" json:"product_identifier"`

	// Cargo fields written by the inheritance executor or direct edits
	KargoKodu      string   `gorm:"type:varchar(20)" json:"kargo_kodu"`
	KargoEn        *float64 `json:"kargo_en"`
	KargoBoy       *float64 `json:"kargo_boy"`
	KargoYukseklik *float64 `json:"kargo_yukseklik"`
	KargoAgirlik   *float64 `json:"kargo_agirlik"`
	KargoDesi      *float64 `json:"kargo_desi"`

	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"` // soft delete; CUS-coded SKUs are deactivated, never removed
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
