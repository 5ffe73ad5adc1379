package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"maliyet-backend/internal/cache"
	"maliyet-backend/internal/model"
	"maliyet-backend/internal/repository"
	"maliyet-backend/pkg/cargo"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrParentNotFound = errors.New("parent has no active children")

// ApprovalConflictError reports a rejected approval handoff: the referenced
// approval record cannot authorize this exact request.
type ApprovalConflictError struct {
	Reason string
}

func (e *ApprovalConflictError) Error() string {
	return e.Reason
}

// NameList accepts both a single string and an array of strings from JSON.
// Older clients sent kaplama selections as plain strings.
type NameList []string

func (n *NameList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var single string
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*n = NameList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*n = NameList(many)
	return nil
}

// InheritanceRequest maps parent-level selections onto every active child of
// one parent group. cost_map and weight_map are keyed by variation size (or
// "(boyutsuz)", with "*" as wildcard); kaplama_name_map is keyed by child
// name, optionally compounded with a tier or color after "||".
type InheritanceRequest struct {
	ParentName          string                     `json:"parent_name" binding:"required"`
	CostMap             map[string]string          `json:"cost_map" binding:"required"`
	KaplamaMap          map[string]NameList        `json:"kaplama_map"`
	KaplamaNameMap      map[string]NameList        `json:"kaplama_name_map"`
	AllowMissingKaplama bool                       `json:"allow_missing_kaplama"`
	WeightMap           map[string]json.Number     `json:"weight_map" binding:"required"`
	Materials           map[string]float64         `json:"materials"`
	SacMaterialID       *uuid.UUID                 `json:"sac_material_id"`
	MdfMaterialID       *uuid.UUID                 `json:"mdf_material_id"`
	ApprovalID          *uuid.UUID                 `json:"approval_id"`
}

// canonicalPayload serializes the request without approval_id. The same
// request must produce the same bytes so the executor can verify the approved
// payload by direct comparison; json.Marshal writes map keys in sorted order.
func canonicalPayload(req *InheritanceRequest) (string, error) {
	clone := *req
	clone.ApprovalID = nil
	raw, err := json.Marshal(&clone)
	if err != nil {
		return "", fmt.Errorf("serialize inheritance payload: %w", err)
	}
	return string(raw), nil
}

// UpdatedChild is the per-child detail of a successful resolution.
type UpdatedChild struct {
	ChildSKU         string             `json:"child_sku"`
	VariationSize    string             `json:"variation_size,omitempty"`
	KargoCostName    string             `json:"kargo_cost_name"`
	KargoKodu        string             `json:"kargo_kodu,omitempty"`
	KargoDesi        *float64           `json:"kargo_desi,omitempty"`
	KaplamaCostNames []string           `json:"kaplama_cost_names,omitempty"`
	Materials        map[string]float64 `json:"materials,omitempty"`
}

// SkippedChild records why one child was left untouched.
type SkippedChild struct {
	ChildSKU      string `json:"child_sku"`
	VariationSize string `json:"variation_size,omitempty"`
	Reason        string `json:"reason"`
}

// InheritanceResult is the executor response. Detail lists are capped;
// counts always cover the full run.
type InheritanceResult struct {
	Status           string         `json:"status"`
	Parent           string         `json:"parent"`
	ApprovalID       *uuid.UUID     `json:"approval_id,omitempty"`
	UpdatedCount     int            `json:"updated_count"`
	SkippedCount     int            `json:"skipped_count"`
	Updated          []UpdatedChild `json:"updated"`
	Skipped          []SkippedChild `json:"skipped"`
	UpdatedTruncated bool           `json:"updated_truncated,omitempty"`
	SkippedTruncated bool           `json:"skipped_truncated,omitempty"`
	DurationMs       int64          `json:"duration_ms"`
}

const (
	inheritStatusOK      = "ok"
	inheritStatusPending = "pending_approval"

	defaultDetailLimit = 250
)

// InheritConfig carries the executor knobs resolved from the environment.
type InheritConfig struct {
	ApprovalWorkflow bool
	DetailLimit      int
}

type InheritService interface {
	Apply(ctx context.Context, actor Actor, req *InheritanceRequest) (*InheritanceResult, error)
	Prefill(ctx context.Context, parentName string) (*PrefillResponse, error)
}

type inheritService struct {
	tx         repository.TransactionManager
	products   repository.ProductRepository
	costs      repository.CostRepository
	materials  repository.MaterialRepository
	approvals  repository.ApprovalRepository
	audit      AuditService
	rates      RateSource
	groupCache *cache.TTLCache
	hub        EventPublisher
	log        *logrus.Logger
	cfg        InheritConfig
}

func NewInheritService(
	tx repository.TransactionManager,
	products repository.ProductRepository,
	costs repository.CostRepository,
	materials repository.MaterialRepository,
	approvals repository.ApprovalRepository,
	audit AuditService,
	rates RateSource,
	groupCache *cache.TTLCache,
	hub EventPublisher,
	log *logrus.Logger,
	cfg InheritConfig,
) InheritService {
	if cfg.DetailLimit <= 0 {
		cfg.DetailLimit = defaultDetailLimit
	}
	return &inheritService{
		tx:         tx,
		products:   products,
		costs:      costs,
		materials:  materials,
		approvals:  approvals,
		audit:      audit,
		rates:      rates,
		groupCache: groupCache,
		hub:        hub,
		log:        log,
		cfg:        cfg,
	}
}

// Apply runs parent-to-child inheritance for one parent group. Per-child
// resolution failures are recorded as skips; the batch itself commits
// atomically. Non-admin callers go through the approval gate when the
// workflow is enabled.
func (s *inheritService) Apply(ctx context.Context, actor Actor, req *InheritanceRequest) (*InheritanceResult, error) {
	started := time.Now()

	parent := strings.TrimSpace(req.ParentName)
	if parent == "" {
		return nil, errors.New("parent_name is required")
	}
	req.ParentName = parent

	payload, err := canonicalPayload(req)
	if err != nil {
		return nil, err
	}

	var approval *model.ApprovalRequest
	if s.cfg.ApprovalWorkflow && !actor.IsAdmin() {
		if req.ApprovalID == nil {
			return s.enqueueApproval(ctx, actor, parent, payload)
		}
		approval, err = s.validateApproval(ctx, actor, *req.ApprovalID, payload)
		if err != nil {
			return nil, err
		}
	}

	rates, err := s.rates.Load()
	if err != nil {
		s.log.WithError(err).Warn("cargo rate table unavailable, desi falls back to weight")
		rates = cargo.NewRateTable(nil)
	}

	autoMats, err := s.lookupAutoMaterials(ctx, req)
	if err != nil {
		return nil, err
	}

	manualMats := manualMaterialList(req.Materials, autoMats.ids())

	plan := newInheritPlan(req)

	var (
		updated []UpdatedChild
		skipped []SkippedChild
	)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.products.LockParentGroup(txCtx, parent); err != nil {
			return err
		}

		children, err := s.products.ListByParent(txCtx, parent)
		if err != nil {
			return err
		}
		if len(children) == 0 {
			return ErrParentNotFound
		}

		var (
			cargoUpdates []repository.CargoUpdate
			costStage    = newCostStage()
			matStage     = newMaterialStage()
		)

		for i := range children {
			child := &children[i]
			res := resolveChild(child, plan, rates)
			if res.SkipReason != "" {
				skipped = append(skipped, SkippedChild{
					ChildSKU:      child.ChildSKU,
					VariationSize: child.VariationSize,
					Reason:        res.SkipReason,
				})
				continue
			}

			cargoUpdates = append(cargoUpdates, res.Update)
			costStage.add(child.ChildSKU, res.KargoCostName)
			for _, name := range res.KaplamaCostNames {
				costStage.add(child.ChildSKU, name)
			}

			childMats := stageChildMaterials(matStage, child, autoMats, manualMats)

			updated = append(updated, UpdatedChild{
				ChildSKU:         child.ChildSKU,
				VariationSize:    child.VariationSize,
				KargoCostName:    res.KargoCostName,
				KargoKodu:        res.Update.KargoKodu,
				KargoDesi:        res.Update.KargoDesi,
				KaplamaCostNames: res.KaplamaCostNames,
				Materials:        childMats,
			})
		}

		if len(cargoUpdates) > 0 {
			if err := s.products.BulkCargoUpdate(txCtx, cargoUpdates); err != nil {
				return err
			}
		}
		if assignments := costStage.flush(); len(assignments) > 0 {
			if err := s.costs.UpsertAssignments(txCtx, assignments); err != nil {
				return err
			}
		}
		if upserts := matStage.flush(); len(upserts) > 0 {
			if err := s.materials.UpsertQuantities(txCtx, upserts); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &InheritanceResult{
		Status:       inheritStatusOK,
		Parent:       parent,
		UpdatedCount: len(updated),
		SkippedCount: len(skipped),
		Updated:      updated,
		Skipped:      skipped,
		DurationMs:   time.Since(started).Milliseconds(),
	}
	result.truncate(s.cfg.DetailLimit)

	s.afterApply(ctx, actor, approval, result)
	return result, nil
}

func (r *InheritanceResult) truncate(limit int) {
	if len(r.Updated) > limit {
		r.Updated = r.Updated[:limit]
		r.UpdatedTruncated = true
	}
	if len(r.Skipped) > limit {
		r.Skipped = r.Skipped[:limit]
		r.SkippedTruncated = true
	}
}

// enqueueApproval files a pending approval request and returns without
// touching any product data.
func (s *inheritService) enqueueApproval(ctx context.Context, actor Actor, parent, payload string) (*InheritanceResult, error) {
	record := &model.ApprovalRequest{
		RequestType:       model.ApprovalReqTypeInheritApply,
		Target:            parent,
		Payload:           payload,
		Status:            model.ApprovalPending,
		RequestedBy:       &actor.ID,
		RequestedUsername: actor.Username,
	}
	if err := s.approvals.Create(ctx, record); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, model.ActionApprovalRequested, record.ID.String(), parent, map[string]interface{}{
		"request_type": model.ApprovalReqTypeInheritApply,
	})
	s.publishEvent("approval.requested", map[string]interface{}{
		"approval_id": record.ID,
		"parent":      parent,
		"requested_by": actor.Username,
	})

	id := record.ID
	return &InheritanceResult{
		Status:     inheritStatusPending,
		Parent:     parent,
		ApprovalID: &id,
	}, nil
}

// validateApproval checks that the referenced approval authorizes exactly
// this request: right type, approved, not yet executed, owned by the caller,
// and carrying a byte-identical payload.
func (s *inheritService) validateApproval(ctx context.Context, actor Actor, id uuid.UUID, payload string) (*model.ApprovalRequest, error) {
	approval, err := s.approvals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ApprovalConflictError{Reason: "approval record not found"}
		}
		return nil, err
	}
	if approval.RequestType != model.ApprovalReqTypeInheritApply {
		return nil, &ApprovalConflictError{Reason: "approval record has a different request type"}
	}
	if approval.Status != model.ApprovalApproved {
		return nil, &ApprovalConflictError{Reason: fmt.Sprintf("approval record is %s, not approved", approval.Status)}
	}
	if approval.ExecutedAt != nil {
		return nil, &ApprovalConflictError{Reason: "approval record was already executed"}
	}
	if approval.RequestedBy == nil || *approval.RequestedBy != actor.ID {
		return nil, &ApprovalConflictError{Reason: "approval record belongs to a different requester"}
	}
	if approval.Payload != payload {
		return nil, &ApprovalConflictError{Reason: "request does not match the approved payload"}
	}
	return approval, nil
}

// afterApply runs the post-commit effects. All of them are best effort; a
// committed inheritance run is never rolled back by reporting failures.
func (s *inheritService) afterApply(ctx context.Context, actor Actor, approval *model.ApprovalRequest, result *InheritanceResult) {
	s.log.WithFields(logrus.Fields{
		"parent":      result.Parent,
		"updated":     result.UpdatedCount,
		"skipped":     result.SkippedCount,
		"duration_ms": result.DurationMs,
	}).Info("inheritance applied")

	s.audit.Record(ctx, &actor.ID, model.ActionInheritApply, result.Parent, result.Parent, map[string]interface{}{
		"updated_count": result.UpdatedCount,
		"skipped_count": result.SkippedCount,
	})

	if approval != nil {
		summary, err := json.Marshal(map[string]interface{}{
			"updated_count": result.UpdatedCount,
			"skipped_count": result.SkippedCount,
			"duration_ms":   result.DurationMs,
		})
		if err == nil {
			if err := s.approvals.StampExecuted(ctx, approval.ID, string(summary)); err != nil {
				s.log.WithError(err).Warn("failed to stamp approval as executed")
			}
		}
		id := approval.ID
		result.ApprovalID = &id
	}

	if s.groupCache != nil {
		s.groupCache.Invalidate()
	}

	s.publishEvent("inherit.applied", map[string]interface{}{
		"parent":  result.Parent,
		"updated": result.UpdatedCount,
		"skipped": result.SkippedCount,
	})
}

func (s *inheritService) publishEvent(eventType string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	raw, err := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": data,
	})
	if err != nil {
		return
	}
	s.hub.Publish(raw)
}

// autoMaterials holds the materials the executor derives quantities for from
// the child's stored area.
type autoMaterials struct {
	strafor *model.RawMaterial
	boya    *model.RawMaterial
	sacID   *uuid.UUID
	mdfID   *uuid.UUID
}

func (a autoMaterials) ids() map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, 4)
	if a.strafor != nil {
		set[a.strafor.ID] = struct{}{}
	}
	if a.boya != nil {
		set[a.boya.ID] = struct{}{}
	}
	if a.sacID != nil {
		set[*a.sacID] = struct{}{}
	}
	if a.mdfID != nil {
		set[*a.mdfID] = struct{}{}
	}
	return set
}

// lookupAutoMaterials resolves the strafor and boya+işçilik materials by name
// pattern. Missing catalog entries disable the corresponding auto line.
func (s *inheritService) lookupAutoMaterials(ctx context.Context, req *InheritanceRequest) (autoMaterials, error) {
	mats := autoMaterials{sacID: req.SacMaterialID, mdfID: req.MdfMaterialID}

	strafor, err := s.materials.FindFirstByNamePattern(ctx, "%strafor%")
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return mats, err
	}
	mats.strafor = strafor

	boya, err := s.materials.FindFirstByNamePattern(ctx, "%boya%işçilik%", "%boya + işçilik%")
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return mats, err
	}
	mats.boya = boya

	return mats, nil
}

type manualMaterial struct {
	id  uuid.UUID
	qty float64
}

// manualMaterialList parses the request's material map. Keys that are not
// UUIDs and materials already covered by the auto lines are dropped; the
// quantities are copied as sent, zero and negative included.
func manualMaterialList(raw map[string]float64, autoIDs map[uuid.UUID]struct{}) []manualMaterial {
	out := make([]manualMaterial, 0, len(raw))
	for key, qty := range raw {
		id, err := uuid.Parse(strings.TrimSpace(key))
		if err != nil {
			continue
		}
		if _, auto := autoIDs[id]; auto {
			continue
		}
		out = append(out, manualMaterial{id: id, qty: round6(qty)})
	}
	return out
}

// stageChildMaterials stages the area-driven and manual material quantities
// for one child and returns the name/quantity summary for the response.
// Area-driven lines require a stored alan_m2; a zero area stages zero rows.
func stageChildMaterials(stage *materialStage, child *model.Product, auto autoMaterials, manual []manualMaterial) map[string]float64 {
	summary := make(map[string]float64)

	if child.AlanM2 != nil {
		alan := *child.AlanM2
		if auto.strafor != nil {
			qty := round6(alan * 1.2)
			stage.add(child.ChildSKU, auto.strafor.ID, qty)
			summary[auto.strafor.Name] = qty
		}
		if auto.boya != nil {
			qty := round6(alan * 5)
			stage.add(child.ChildSKU, auto.boya.ID, qty)
			summary[auto.boya.Name] = qty
		}
		if auto.sacID != nil {
			qty := round6(alan)
			stage.add(child.ChildSKU, *auto.sacID, qty)
			summary["sac"] = qty
		}
		if auto.mdfID != nil {
			qty := round6(alan)
			stage.add(child.ChildSKU, *auto.mdfID, qty)
			summary["mdf"] = qty
		}
	}

	for _, m := range manual {
		stage.add(child.ChildSKU, m.id, m.qty)
		summary[m.id.String()] = m.qty
	}

	if len(summary) == 0 {
		return nil
	}
	return summary
}

// costStage deduplicates staged cost assignments case-insensitively per SKU.
// Postgres rejects an INSERT .. ON CONFLICT that touches the same row twice,
// so duplicates must be collapsed before the flush.
type costStage struct {
	order []repository.CostAssignment
	index map[string]int
}

func newCostStage() *costStage {
	return &costStage{index: make(map[string]int)}
}

func (s *costStage) add(sku, costName string) {
	costName = strings.TrimSpace(costName)
	if sku == "" || costName == "" {
		return
	}
	key := sku + "\x00" + strings.ToLower(costName)
	if _, dup := s.index[key]; dup {
		return
	}
	s.index[key] = len(s.order)
	s.order = append(s.order, repository.CostAssignment{
		ChildSKU: sku,
		CostName: costName,
		Assigned: true,
	})
}

func (s *costStage) flush() []repository.CostAssignment {
	return s.order
}

// materialStage deduplicates staged quantity upserts per SKU and material,
// last write wins.
type materialStage struct {
	order []repository.MaterialQuantityUpsert
	index map[string]int
}

func newMaterialStage() *materialStage {
	return &materialStage{index: make(map[string]int)}
}

func (s *materialStage) add(sku string, materialID uuid.UUID, qty float64) {
	if sku == "" {
		return
	}
	key := sku + "\x00" + materialID.String()
	if pos, dup := s.index[key]; dup {
		s.order[pos].Quantity = qty
		return
	}
	s.index[key] = len(s.order)
	s.order = append(s.order, repository.MaterialQuantityUpsert{
		ChildSKU:   sku,
		MaterialID: materialID,
		Quantity:   qty,
	})
}

func (s *materialStage) flush() []repository.MaterialQuantityUpsert {
	return s.order
}
