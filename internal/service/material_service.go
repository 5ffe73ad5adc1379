package service

import (
	"context"
	"errors"
	"strings"

	"maliyet-backend/internal/model"
	"maliyet-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrMaterialNameTaken = errors.New("material name already exists")

type CreateMaterialRequest struct {
	Name      string          `json:"name" binding:"required"`
	Unit      string          `json:"unit" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Currency  string          `json:"currency"`
}

type UpdateMaterialRequest struct {
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
	Currency  string          `json:"currency" binding:"required"`
}

type SetProductMaterialRequest struct {
	ChildSKU   string    `json:"child_sku" binding:"required"`
	MaterialID uuid.UUID `json:"material_id" binding:"required"`
	Quantity   float64   `json:"quantity" binding:"min=0"`
}

// SetProductMaterialBulkRequest applies one quantity to several SKUs, which
// is the common case for color variants sharing a parent.
type SetProductMaterialBulkRequest struct {
	ChildSKUs  []string  `json:"child_skus" binding:"required,min=1"`
	MaterialID uuid.UUID `json:"material_id" binding:"required"`
	Quantity   float64   `json:"quantity" binding:"min=0"`
}

// ProductMaterialRow is one material line of a product detail.
type ProductMaterialRow struct {
	MaterialID uuid.UUID       `json:"material_id"`
	Name       string          `json:"name"`
	Unit       string          `json:"unit"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Currency   string          `json:"currency"`
	Quantity   float64         `json:"quantity"`
}

type MaterialService interface {
	ListMaterials(ctx context.Context) ([]model.RawMaterial, error)
	CreateMaterial(ctx context.Context, actor Actor, req CreateMaterialRequest) (*model.RawMaterial, error)
	UpdateMaterial(ctx context.Context, actor Actor, id uuid.UUID, req UpdateMaterialRequest) (*model.RawMaterial, error)
	DeleteMaterial(ctx context.Context, actor Actor, id uuid.UUID) (string, error)
	SetProductMaterial(ctx context.Context, req SetProductMaterialRequest) error
	SetProductMaterialBulk(ctx context.Context, req SetProductMaterialBulkRequest) (int, error)
	GetProductMaterials(ctx context.Context, sku string) ([]ProductMaterialRow, error)
}

type materialService struct {
	tx        repository.TransactionManager
	materials repository.MaterialRepository
	audit     AuditService
}

func NewMaterialService(tx repository.TransactionManager, materials repository.MaterialRepository, audit AuditService) MaterialService {
	return &materialService{tx: tx, materials: materials, audit: audit}
}

func (s *materialService) ListMaterials(ctx context.Context) ([]model.RawMaterial, error) {
	return s.materials.List(ctx)
}

func (s *materialService) CreateMaterial(ctx context.Context, actor Actor, req CreateMaterialRequest) (*model.RawMaterial, error) {
	name := strings.TrimSpace(req.Name)
	unit := strings.TrimSpace(req.Unit)
	if name == "" || unit == "" {
		return nil, errors.New("material name and unit are required")
	}
	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = "TRY"
	}

	mat := &model.RawMaterial{
		Name:      name,
		Unit:      unit,
		UnitPrice: req.UnitPrice,
		Currency:  currency,
	}
	if err := s.materials.Create(ctx, mat); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, model.ActionCreateMaterial, mat.ID.String(), name, map[string]interface{}{
		"unit": unit,
	})
	return mat, nil
}

func (s *materialService) UpdateMaterial(ctx context.Context, actor Actor, id uuid.UUID, req UpdateMaterialRequest) (*model.RawMaterial, error) {
	mat, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	mat.UnitPrice = req.UnitPrice
	mat.Currency = strings.TrimSpace(req.Currency)
	if err := s.materials.Update(ctx, mat); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, model.ActionUpdateMaterial, mat.ID.String(), mat.Name, map[string]interface{}{
		"unit_price": req.UnitPrice,
		"currency":   mat.Currency,
	})
	return mat, nil
}

// DeleteMaterial removes the material and its per-product quantity rows in
// one transaction. Returns the deleted name.
func (s *materialService) DeleteMaterial(ctx context.Context, actor Actor, id uuid.UUID) (string, error) {
	var name string
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		mat, err := s.materials.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		name = mat.Name
		return s.materials.Delete(txCtx, id)
	})
	if err != nil {
		return "", err
	}

	s.audit.Record(ctx, &actor.ID, model.ActionDeleteMaterial, id.String(), name, nil)
	return name, nil
}

func (s *materialService) SetProductMaterial(ctx context.Context, req SetProductMaterialRequest) error {
	return s.materials.UpsertQuantities(ctx, []repository.MaterialQuantityUpsert{{
		ChildSKU:   req.ChildSKU,
		MaterialID: req.MaterialID,
		Quantity:   req.Quantity,
	}})
}

func (s *materialService) SetProductMaterialBulk(ctx context.Context, req SetProductMaterialBulkRequest) (int, error) {
	stage := newMaterialStage()
	for _, sku := range req.ChildSKUs {
		stage.add(strings.TrimSpace(sku), req.MaterialID, req.Quantity)
	}
	upserts := stage.flush()
	if err := s.materials.UpsertQuantities(ctx, upserts); err != nil {
		return 0, err
	}
	return len(upserts), nil
}

func (s *materialService) GetProductMaterials(ctx context.Context, sku string) ([]ProductMaterialRow, error) {
	links, err := s.materials.ListBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	rows := make([]ProductMaterialRow, 0, len(links))
	for _, link := range links {
		rows = append(rows, ProductMaterialRow{
			MaterialID: link.MaterialID,
			Name:       link.Material.Name,
			Unit:       link.Material.Unit,
			UnitPrice:  link.Material.UnitPrice,
			Currency:   link.Material.Currency,
			Quantity:   link.Quantity,
		})
	}
	return rows, nil
}
