package service

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"maliyet-backend/internal/model"
	"maliyet-backend/internal/repository"
	"maliyet-backend/pkg/cargo"
	"maliyet-backend/pkg/textnorm"
)

// Per-child skip reasons. Skips are recorded, never fatal to the batch.
const (
	skipNoKargoMapping   = "no kargo mapping"
	skipNoKaplamaMapping = "no kaplama mapping"
	skipNoWeightMapping  = "no weight mapping"
	skipInvalidWeight    = "invalid weight"
	skipNegativeWeight   = "negative weight"
)

// sizelessKey stands in for children without a variation size in every
// size-keyed map.
const sizelessKey = "(boyutsuz)"

// wildcardKey is the optional catch-all entry of the size-keyed maps.
const wildcardKey = "*"

func sizeKey(variationSize string) string {
	if strings.TrimSpace(variationSize) == "" {
		return sizelessKey
	}
	return variationSize
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// inheritPlan is the normalized, lookup-ready form of one inheritance
// request. Built once per run; read-only afterwards.
type inheritPlan struct {
	costMap             map[string]string
	kaplamaNameExact    map[string][]string
	kaplamaNameCI       map[string][]string
	kaplamaBySize       map[string][]string
	kaplamaFromCostMap  map[string][]string
	weights             map[string]json.Number
	allowMissingKaplama bool
}

func newInheritPlan(req *InheritanceRequest) *inheritPlan {
	plan := &inheritPlan{
		costMap:             make(map[string]string),
		kaplamaNameExact:    make(map[string][]string),
		kaplamaNameCI:       make(map[string][]string),
		kaplamaBySize:       make(map[string][]string),
		kaplamaFromCostMap:  make(map[string][]string),
		weights:             req.WeightMap,
		allowMissingKaplama: req.AllowMissingKaplama,
	}
	if plan.weights == nil {
		plan.weights = map[string]json.Number{}
	}

	for k, v := range req.CostMap {
		key := strings.TrimSpace(k)
		name := strings.TrimSpace(v)
		if key == "" || name == "" {
			continue
		}
		plan.costMap[key] = name
		// Legacy requests carried the kaplama selection inside cost_map.
		if names := textnorm.NormalizeCostNames([]string{name}, true); len(names) > 0 {
			plan.kaplamaFromCostMap[key] = names
		}
	}

	for k, v := range req.KaplamaNameMap {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		names := textnorm.NormalizeCostNames(v, true)
		if len(names) == 0 {
			continue
		}
		plan.kaplamaNameExact[key] = names
		plan.kaplamaNameCI[strings.ToLower(key)] = names
	}

	for k, v := range req.KaplamaMap {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		names := textnorm.NormalizeCostNames(v, true)
		if len(names) == 0 {
			continue
		}
		plan.kaplamaBySize[key] = names
	}

	return plan
}

func (p *inheritPlan) resolveKargoCost(size string) string {
	if name, ok := p.costMap[size]; ok {
		return name
	}
	return p.costMap[wildcardKey]
}

// kaplamaLookupKeys returns the ordered candidate keys for the name-keyed
// kaplama map: name+detected-tier compound key first, then name+raw color,
// then the bare name. Duplicates are dropped case-insensitively.
func kaplamaLookupKeys(childName, variationColor string) []string {
	name := strings.TrimSpace(childName)
	if name == "" {
		return nil
	}
	color := strings.TrimSpace(variationColor)

	candidates := make([]string, 0, 3)
	if key := textnorm.GroupKey(name, textnorm.DetectTier(name, color)); key != "" {
		candidates = append(candidates, key)
	}
	if color != "" {
		candidates = append(candidates, name+"||"+color)
	}
	candidates = append(candidates, name)

	keys := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, key := range candidates {
		lowered := strings.ToLower(key)
		if _, dup := seen[lowered]; dup {
			continue
		}
		seen[lowered] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

// resolveKaplamaCosts walks the resolver chain: each name key exact then
// case-insensitive, then the size-keyed map (preferring kaplama_map over the
// legacy cost_map fallback, wildcard included). Empty result means no match.
func (p *inheritPlan) resolveKaplamaCosts(childName, variationColor, size string) []string {
	for _, key := range kaplamaLookupKeys(childName, variationColor) {
		if names, ok := p.kaplamaNameExact[key]; ok {
			return names
		}
		if names, ok := p.kaplamaNameCI[strings.ToLower(key)]; ok {
			return names
		}
	}

	var sizeSource map[string][]string
	switch {
	case len(p.kaplamaBySize) > 0:
		sizeSource = p.kaplamaBySize
	case len(p.kaplamaNameExact) > 0:
		// An explicitly name-keyed request does not fall back to cost_map;
		// a child outside every name group is genuinely unmatched.
		return nil
	default:
		sizeSource = p.kaplamaFromCostMap
	}
	if names, ok := sizeSource[size]; ok {
		return names
	}
	return sizeSource[wildcardKey]
}

// resolveWeight validates the size-keyed weight. The second return is the
// skip reason, empty on success.
func (p *inheritPlan) resolveWeight(size string) (float64, string) {
	raw, ok := p.weights[size]
	if !ok {
		raw, ok = p.weights[wildcardKey]
	}
	if !ok {
		return 0, skipNoWeightMapping
	}
	weight, err := strconv.ParseFloat(raw.String(), 64)
	if err != nil {
		return 0, skipInvalidWeight
	}
	if weight < 0 {
		return 0, skipNegativeWeight
	}
	return weight, ""
}

// childResolution is the outcome for one child: either a staged cargo update
// plus resolved cost names, or a skip reason.
type childResolution struct {
	SkipReason       string
	Update           repository.CargoUpdate
	KargoCostName    string
	KaplamaCostNames []string
}

// resolveChild runs the full per-child resolution pipeline against the plan
// and the cargo rate table. Pure: no storage access, no side effects.
func resolveChild(child *model.Product, plan *inheritPlan, rates *cargo.RateTable) childResolution {
	size := sizeKey(child.VariationSize)

	kargoCostName := plan.resolveKargoCost(size)
	if kargoCostName == "" {
		return childResolution{SkipReason: skipNoKargoMapping}
	}

	kaplamaCostNames := plan.resolveKaplamaCosts(child.ChildName, child.VariationColor, size)
	if len(kaplamaCostNames) == 0 && !plan.allowMissingKaplama {
		return childResolution{SkipReason: skipNoKaplamaMapping}
	}

	weight, skip := plan.resolveWeight(size)
	if skip != "" {
		return childResolution{SkipReason: skip}
	}
	weight = round6(weight)

	update := repository.CargoUpdate{
		ChildSKU:     child.ChildSKU,
		KargoAgirlik: &weight,
	}
	if code := cargo.NormalizeCode(kargoCostName); code != "" {
		update.KargoKodu = code
		if box, ok := rates.Lookup(code); ok {
			update.KargoEn = box.En
			update.KargoBoy = box.Boy
			update.KargoYukseklik = box.Yukseklik
		}
	}
	update.KargoDesi = cargo.ComputeDesi(update.KargoEn, update.KargoBoy, update.KargoYukseklik, &weight)

	return childResolution{
		Update:           update,
		KargoCostName:    kargoCostName,
		KaplamaCostNames: kaplamaCostNames,
	}
}
