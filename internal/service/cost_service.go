package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"maliyet-backend/internal/excel"
	"maliyet-backend/internal/model"
	"maliyet-backend/internal/repository"
	"maliyet-backend/internal/storage"
	"maliyet-backend/pkg/cargo"
	"maliyet-backend/pkg/textnorm"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrCostNameTaken    = errors.New("cost name already exists")
	ErrInvalidCategory  = errors.New("category must be kargo or kaplama")
	ErrCostNameRequired = errors.New("cost name must not be empty")
)

type CreateCostDefinitionRequest struct {
	Name      string `json:"name" binding:"required"`
	Category  string `json:"category" binding:"required,oneof=kargo kaplama"`
	KargoCode string `json:"kargo_code"`
	IsActive  *bool  `json:"is_active"`
}

type UpdateCostDefinitionRequest struct {
	Name      *string `json:"name"`
	Category  *string `json:"category"`
	KargoCode *string `json:"kargo_code"`
	IsActive  *bool   `json:"is_active"`
}

type AssignCostRequest struct {
	ChildSKU string `json:"child_sku" binding:"required"`
	CostName string `json:"cost_name" binding:"required"`
	Assigned bool   `json:"assigned"`
}

// KargoOption is one cargo box row of the rate sheet.
type KargoOption struct {
	Kod       string   `json:"kod"`
	En        *float64 `json:"en"`
	Boy       *float64 `json:"boy"`
	Yukseklik *float64 `json:"yukseklik"`
	Birim     string   `json:"birim"`
	Ucret     *float64 `json:"ucret"`
}

// TemplateSyncResult summarizes one template reconciliation pass.
type TemplateSyncResult struct {
	Inserted            int `json:"inserted"`
	LegacyNormalized    int `json:"legacy_normalized"`
	ShadowedDeactivated int `json:"shadowed_deactivated"`
}

type CostService interface {
	ListDefinitions(ctx context.Context, category string, includeInactive bool) ([]model.CostDefinition, error)
	CreateDefinition(ctx context.Context, actor Actor, req CreateCostDefinitionRequest) (*model.CostDefinition, error)
	UpdateDefinition(ctx context.Context, actor Actor, id uuid.UUID, req UpdateCostDefinitionRequest) (*model.CostDefinition, error)
	DeleteDefinition(ctx context.Context, actor Actor, id uuid.UUID) (string, error)
	CostNames(ctx context.Context) ([]string, error)
	KargoOptions() ([]KargoOption, error)
	AssignCost(ctx context.Context, actor Actor, req AssignCostRequest) error
	SyncFromTemplate(ctx context.Context, actor Actor) (*TemplateSyncResult, error)
}

type costService struct {
	tx    repository.TransactionManager
	costs repository.CostRepository
	rates RateSource
	audit AuditService
	log   *logrus.Logger
}

func NewCostService(tx repository.TransactionManager, costs repository.CostRepository, rates RateSource, audit AuditService, log *logrus.Logger) CostService {
	return &costService{tx: tx, costs: costs, rates: rates, audit: audit, log: log}
}

func validCategory(category string) bool {
	return category == model.CostCategoryKargo || category == model.CostCategoryKaplama
}

func (s *costService) ListDefinitions(ctx context.Context, category string, includeInactive bool) ([]model.CostDefinition, error) {
	if category != "" && !validCategory(category) {
		return nil, ErrInvalidCategory
	}
	return s.costs.ListDefinitions(ctx, !includeInactive, category)
}

func (s *costService) CreateDefinition(ctx context.Context, actor Actor, req CreateCostDefinitionRequest) (*model.CostDefinition, error) {
	name := strings.TrimSpace(req.Name)
	if req.Category == model.CostCategoryKaplama {
		name = textnorm.CanonicalizeCostName(name)
	}
	if name == "" {
		return nil, ErrCostNameRequired
	}

	kargoCode := ""
	if req.Category == model.CostCategoryKargo {
		source := req.KargoCode
		if strings.TrimSpace(source) == "" {
			source = name
		}
		kargoCode = cargo.NormalizeCode(source)
	}

	taken, err := s.costs.NameConflictExists(ctx, name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrCostNameTaken
	}

	def := &model.CostDefinition{
		Name:      name,
		Category:  req.Category,
		KargoCode: kargoCode,
		IsActive:  req.IsActive == nil || *req.IsActive,
		Source:    model.CostSourceManual,
	}
	if err := s.costs.CreateDefinition(ctx, def); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, model.ActionCreateCostDef, name, name, map[string]interface{}{
		"category":   req.Category,
		"kargo_code": kargoCode,
	})
	return def, nil
}

// UpdateDefinition applies a partial update. A rename moves the existing
// product assignments to the new name inside the same transaction, so no
// assignment is ever left pointing at a vanished cost name.
func (s *costService) UpdateDefinition(ctx context.Context, actor Actor, id uuid.UUID, req UpdateCostDefinitionRequest) (*model.CostDefinition, error) {
	var updated *model.CostDefinition
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		def, err := s.costs.GetDefinitionByID(txCtx, id)
		if err != nil {
			return err
		}

		category := def.Category
		if req.Category != nil {
			category = strings.TrimSpace(*req.Category)
		}
		if !validCategory(category) {
			return ErrInvalidCategory
		}

		name := def.Name
		if req.Name != nil {
			name = strings.TrimSpace(*req.Name)
		}
		if category == model.CostCategoryKaplama {
			name = textnorm.CanonicalizeCostName(name)
		}
		if name == "" {
			return ErrCostNameRequired
		}

		kargoCode := ""
		if category == model.CostCategoryKargo {
			source := def.KargoCode
			if req.KargoCode != nil {
				source = *req.KargoCode
			}
			if strings.TrimSpace(source) == "" {
				source = name
			}
			kargoCode = cargo.NormalizeCode(source)
		}

		taken, err := s.costs.NameConflictExists(txCtx, name, def.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrCostNameTaken
		}

		if name != def.Name {
			if err := s.costs.MergeAssignmentName(txCtx, def.Name, name); err != nil {
				return err
			}
		}

		def.Name = name
		def.Category = category
		def.KargoCode = kargoCode
		if req.IsActive != nil {
			def.IsActive = *req.IsActive
		}
		if err := s.costs.UpdateDefinition(txCtx, def); err != nil {
			return err
		}
		updated = def
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, model.ActionUpdateCostDef, updated.Name, updated.Name, map[string]interface{}{
		"cost_id": id,
	})
	return updated, nil
}

// DeleteDefinition removes the definition together with every product
// assignment referencing it. Returns the deleted name.
func (s *costService) DeleteDefinition(ctx context.Context, actor Actor, id uuid.UUID) (string, error) {
	var name string
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		def, err := s.costs.GetDefinitionByID(txCtx, id)
		if err != nil {
			return err
		}
		name = def.Name
		if err := s.costs.DeleteAssignmentsByName(txCtx, def.Name); err != nil {
			return err
		}
		return s.costs.DeleteDefinition(txCtx, def.ID)
	})
	if err != nil {
		return "", err
	}

	s.audit.Record(ctx, &actor.ID, model.ActionDeleteCostDef, name, name, nil)
	return name, nil
}

func (s *costService) CostNames(ctx context.Context) ([]string, error) {
	defs, err := s.costs.ListDefinitions(ctx, true, "")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}
	return names, nil
}

func (s *costService) KargoOptions() ([]KargoOption, error) {
	table, err := s.rates.Load()
	if err != nil {
		return nil, err
	}
	options := make([]KargoOption, 0, table.Len())
	for _, code := range table.Codes() {
		box, _ := table.Lookup(code)
		options = append(options, KargoOption{
			Kod:       box.Code,
			En:        box.En,
			Boy:       box.Boy,
			Yukseklik: box.Yukseklik,
			Birim:     box.Birim,
			Ucret:     box.Ucret,
		})
	}
	return options, nil
}

func (s *costService) AssignCost(ctx context.Context, actor Actor, req AssignCostRequest) error {
	err := s.costs.UpsertAssignments(ctx, []repository.CostAssignment{{
		ChildSKU: req.ChildSKU,
		CostName: strings.TrimSpace(req.CostName),
		Assigned: req.Assigned,
	}})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, &actor.ID, model.ActionAssignCost, req.ChildSKU, req.CostName, map[string]interface{}{
		"child_sku": req.ChildSKU,
		"cost_name": req.CostName,
		"assigned":  req.Assigned,
	})
	return nil
}

// templatePath resolves the cost template workbook, fetching it through the
// local cache when configured as a URL.
func templatePath() (string, error) {
	path := os.Getenv("MALIYET_TEMPLATE_PATH")
	if path == "" {
		return "", errors.New("MALIYET_TEMPLATE_PATH is not configured")
	}
	if storage.IsHTTPURL(path) {
		return storage.CacheRemoteFile(path, "maliyet_sablonu.xlsx", 10*time.Minute)
	}
	return path, nil
}

// SyncFromTemplate reconciles cost_definitions with the template workbook:
// missing template names are inserted, legacy "(gold,silver)" names are
// folded into their canonical form, and kaplama base names shadowed by a
// tiered variant are deactivated.
func (s *costService) SyncFromTemplate(ctx context.Context, actor Actor) (*TemplateSyncResult, error) {
	path, err := templatePath()
	if err != nil {
		return nil, err
	}
	structure, err := excel.LoadStructure(path)
	if err != nil {
		return nil, err
	}

	result := &TemplateSyncResult{}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		inserted, err := s.insertTemplateNames(txCtx, structure.CostNames())
		if err != nil {
			return err
		}
		result.Inserted = inserted

		normalized, err := s.normalizeLegacyNames(txCtx)
		if err != nil {
			return err
		}
		result.LegacyNormalized = normalized

		deactivated, err := s.deactivateShadowedBases(txCtx)
		if err != nil {
			return err
		}
		result.ShadowedDeactivated = deactivated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"inserted":    result.Inserted,
		"normalized":  result.LegacyNormalized,
		"deactivated": result.ShadowedDeactivated,
	}).Info("cost definitions synced from template")
	s.audit.Record(ctx, &actor.ID, model.ActionUpdateCostDef, "template", "template sync", result)
	return result, nil
}

func (s *costService) insertTemplateNames(ctx context.Context, names []string) (int, error) {
	inserted := 0
	for _, name := range names {
		_, err := s.costs.GetDefinitionByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return inserted, err
		}

		code := cargo.NormalizeCode(name)
		category := model.CostCategoryKaplama
		if code != "" {
			category = model.CostCategoryKargo
		} else {
			code = ""
		}
		def := &model.CostDefinition{
			Name:      name,
			Category:  category,
			KargoCode: code,
			IsActive:  true,
			Source:    model.CostSourceTemplate,
		}
		if err := s.costs.CreateDefinition(ctx, def); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// normalizeLegacyNames folds every "(gold,silver)" definition and assignment
// into its canonical "(gold,copper)" name.
func (s *costService) normalizeLegacyNames(ctx context.Context) (int, error) {
	changed := 0

	defs, err := s.costs.ListDefinitions(ctx, false, "")
	if err != nil {
		return 0, err
	}
	for i := range defs {
		def := &defs[i]
		if !strings.Contains(strings.ToLower(def.Name), "(gold,silver)") {
			continue
		}
		newName := textnorm.CanonicalizeCostName(def.Name)
		if newName == "" || newName == def.Name {
			continue
		}

		if err := s.costs.MergeAssignmentName(ctx, def.Name, newName); err != nil {
			return changed, err
		}

		existing, err := s.costs.GetDefinitionByName(ctx, newName)
		switch {
		case err == nil:
			if !existing.IsActive {
				existing.IsActive = true
				if err := s.costs.UpdateDefinition(ctx, existing); err != nil {
					return changed, err
				}
			}
			if err := s.costs.DeleteDefinition(ctx, def.ID); err != nil {
				return changed, err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			def.Name = newName
			if err := s.costs.UpdateDefinition(ctx, def); err != nil {
				return changed, err
			}
		default:
			return changed, err
		}
		changed++
	}

	// Assignments can carry a legacy name with no definition behind it.
	orphanNames, err := s.costs.DistinctAssignmentNames(ctx, "%(gold,silver)%")
	if err != nil {
		return changed, err
	}
	for _, oldName := range orphanNames {
		newName := textnorm.CanonicalizeCostName(oldName)
		if newName == "" || newName == oldName {
			continue
		}
		if err := s.costs.MergeAssignmentName(ctx, oldName, newName); err != nil {
			return changed, err
		}

		if _, err := s.costs.GetDefinitionByName(ctx, newName); errors.Is(err, gorm.ErrRecordNotFound) {
			code := cargo.NormalizeCode(newName)
			category := model.CostCategoryKaplama
			if code != "" {
				category = model.CostCategoryKargo
			}
			def := &model.CostDefinition{
				Name:      newName,
				Category:  category,
				KargoCode: code,
				IsActive:  true,
				Source:    model.CostSourceLegacyMigration,
			}
			if err := s.costs.CreateDefinition(ctx, def); err != nil {
				return changed, err
			}
		} else if err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// deactivateShadowedBases deactivates kaplama definitions without a tier
// suffix when a tiered variant of the same base name exists.
func (s *costService) deactivateShadowedBases(ctx context.Context) (int, error) {
	defs, err := s.costs.ListDefinitions(ctx, false, model.CostCategoryKaplama)
	if err != nil {
		return 0, err
	}

	tieredBases := make(map[string]struct{})
	var flat []model.CostDefinition
	for _, def := range defs {
		base, tier := textnorm.SplitTierSuffix(def.Name)
		key := strings.ToLower(strings.TrimSpace(base))
		if key == "" {
			continue
		}
		if tier != textnorm.TierOther {
			tieredBases[key] = struct{}{}
		} else {
			flat = append(flat, def)
		}
	}

	deactivated := 0
	for _, def := range flat {
		key := strings.ToLower(strings.TrimSpace(def.Name))
		if _, shadowed := tieredBases[key]; !shadowed || !def.IsActive {
			continue
		}
		if err := s.costs.DeactivateDefinition(ctx, def.Name); err != nil {
			return deactivated, err
		}
		deactivated++
	}
	return deactivated, nil
}
