package service

import (
	"context"
	"math"
	"sort"
	"strings"

	"maliyet-backend/internal/model"
	"maliyet-backend/pkg/cargo"
	"maliyet-backend/pkg/textnorm"

	"github.com/google/uuid"
)

// PrefillResponse seeds the inheritance form from what the parent's children
// already have assigned. Every field is a suggestion; the caller edits and
// resubmits through Apply.
type PrefillResponse struct {
	Parent         string              `json:"parent"`
	ChildCount     int                 `json:"child_count"`
	Sizes          []string            `json:"sizes"`
	CostMap        map[string]string   `json:"cost_map"`
	WeightMap      map[string]float64  `json:"weight_map"`
	KaplamaNameMap map[string][]string `json:"kaplama_name_map"`
	Materials      map[string]float64  `json:"materials"`
	SacMaterialID  *uuid.UUID          `json:"sac_material_id,omitempty"`
	MdfMaterialID  *uuid.UUID          `json:"mdf_material_id,omitempty"`
}

// voteCounter tallies string votes. Ties break alphabetically with a
// casefolded comparison, independent of insertion or query order.
type voteCounter struct {
	counts map[string]int
}

func newVoteCounter() *voteCounter {
	return &voteCounter{counts: make(map[string]int)}
}

func (v *voteCounter) add(key string) {
	if key == "" {
		return
	}
	v.counts[key]++
}

// winner returns the most frequent key.
func (v *voteCounter) winner() (string, bool) {
	ranked := v.ranked()
	if len(ranked) == 0 {
		return "", false
	}
	return ranked[0], true
}

// ranked returns all keys ordered by votes descending, equal counts
// alphabetically by casefolded name.
func (v *voteCounter) ranked() []string {
	keys := make([]string, 0, len(v.counts))
	for key := range v.counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if v.counts[keys[i]] != v.counts[keys[j]] {
			return v.counts[keys[i]] > v.counts[keys[j]]
		}
		a, b := strings.ToLower(keys[i]), strings.ToLower(keys[j])
		if a != b {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Prefill derives a starting inheritance request for one parent group from
// the children's current assignments, weights and materials.
func (s *inheritService) Prefill(ctx context.Context, parentName string) (*PrefillResponse, error) {
	parent := strings.TrimSpace(parentName)
	children, err := s.products.ListByParent(ctx, parent)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, ErrParentNotFound
	}

	resp := &PrefillResponse{
		Parent:         parent,
		ChildCount:     len(children),
		CostMap:        make(map[string]string),
		WeightMap:      make(map[string]float64),
		KaplamaNameMap: make(map[string][]string),
		Materials:      make(map[string]float64),
	}

	bySKU := make(map[string]*model.Product, len(children))
	sizeSeen := make(map[string]struct{})
	for i := range children {
		child := &children[i]
		bySKU[child.ChildSKU] = child
		size := sizeKey(child.VariationSize)
		if _, dup := sizeSeen[size]; !dup {
			sizeSeen[size] = struct{}{}
			resp.Sizes = append(resp.Sizes, size)
		}
	}
	sort.Strings(resp.Sizes)

	assigned, err := s.costs.ListAssignedByParent(ctx, parent)
	if err != nil {
		return nil, err
	}

	kargoVotes := make(map[string]*voteCounter)
	kaplamaVotes := make(map[string]*voteCounter)
	for _, row := range assigned {
		costName := strings.TrimSpace(row.CostName)
		if costName == "" {
			continue
		}
		child, ok := bySKU[row.ChildSKU]
		if !ok {
			continue
		}
		// rows without a catalog category still count as kargo when the
		// cost name itself carries a box code
		if row.Category == model.CostCategoryKargo || cargo.NormalizeCode(costName) != "" {
			size := sizeKey(child.VariationSize)
			if kargoVotes[size] == nil {
				kargoVotes[size] = newVoteCounter()
			}
			kargoVotes[size].add(costName)
			continue
		}

		groupName := child.ChildName
		if groupName == "" {
			groupName = child.ChildSKU
		}
		key := textnorm.GroupKey(groupName, textnorm.DetectTier(child.ChildName, child.VariationColor, costName))
		if key == "" {
			continue
		}
		if kaplamaVotes[key] == nil {
			kaplamaVotes[key] = newVoteCounter()
		}
		kaplamaVotes[key].add(costName)
	}

	for size, votes := range kargoVotes {
		if name, ok := votes.winner(); ok {
			resp.CostMap[size] = name
		}
	}
	for key, votes := range kaplamaVotes {
		resp.KaplamaNameMap[key] = votes.ranked()
	}

	if err := s.prefillKargoFromCodes(ctx, children, resp); err != nil {
		return nil, err
	}

	s.prefillWeights(children, resp)

	if err := s.prefillMaterials(ctx, parent, bySKU, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

// prefillKargoFromCodes fills cost_map entries for sizes without an assigned
// kargo cost by matching the children's stored cargo codes against the kargo
// cost definitions.
func (s *inheritService) prefillKargoFromCodes(ctx context.Context, children []model.Product, resp *PrefillResponse) error {
	missing := false
	for _, size := range resp.Sizes {
		if _, ok := resp.CostMap[size]; !ok {
			missing = true
			break
		}
	}
	if !missing {
		return nil
	}

	defs, err := s.costs.ListDefinitions(ctx, true, model.CostCategoryKargo)
	if err != nil {
		return err
	}
	nameByCode := make(map[string]string, len(defs))
	for _, def := range defs {
		code := cargo.NormalizeCode(def.KargoCode)
		if code == "" {
			code = cargo.NormalizeCode(def.Name)
		}
		if code == "" || def.Name == "" {
			continue
		}
		if existing, dup := nameByCode[code]; !dup || strings.ToLower(def.Name) < strings.ToLower(existing) {
			nameByCode[code] = def.Name
		}
	}

	codeVotes := make(map[string]*voteCounter)
	for i := range children {
		child := &children[i]
		code := cargo.NormalizeCode(child.KargoKodu)
		if code == "" {
			continue
		}
		size := sizeKey(child.VariationSize)
		if codeVotes[size] == nil {
			codeVotes[size] = newVoteCounter()
		}
		codeVotes[size].add(code)
	}
	for size, votes := range codeVotes {
		if _, taken := resp.CostMap[size]; taken {
			continue
		}
		code, ok := votes.winner()
		if !ok {
			continue
		}
		if name, found := nameByCode[code]; found {
			resp.CostMap[size] = name
		}
	}
	return nil
}

// prefillWeights takes the modal stored cargo weight per size.
func (s *inheritService) prefillWeights(children []model.Product, resp *PrefillResponse) {
	weightVotes := make(map[string]map[float64]int)
	for i := range children {
		child := &children[i]
		if child.KargoAgirlik == nil {
			continue
		}
		size := sizeKey(child.VariationSize)
		if weightVotes[size] == nil {
			weightVotes[size] = make(map[float64]int)
		}
		weightVotes[size][round6(*child.KargoAgirlik)]++
	}
	for size, votes := range weightVotes {
		if weight, ok := modalValue(votes); ok {
			resp.WeightMap[size] = weight
		}
	}
}

// materialNameFlags classifies a raw material by name. Saç and mdf match on
// the folded prefix, strafor and boya+işçilik anywhere in the name.
func materialNameFlags(name string) (strafor, boyaIscilik, sac, mdf bool) {
	folded := textnorm.Normalize(name)
	strafor = strings.Contains(folded, "strafor")
	boyaIscilik = strings.Contains(folded, "boya") &&
		(strings.Contains(folded, "işçilik") || strings.Contains(folded, "iscilik"))
	sac = strings.HasPrefix(folded, "saç") || strings.HasPrefix(folded, "sac")
	mdf = strings.HasPrefix(folded, "mdf")
	return strafor, boyaIscilik, sac, mdf
}

// pickAutoMaterial ranks candidates by area-match count, then presence
// count, then id. Without any area match a sole present candidate still
// wins; several candidates without one are ambiguous and pick nothing.
func pickAutoMaterial(match, presence map[uuid.UUID]int) *uuid.UUID {
	if len(match) > 0 {
		ids := make([]uuid.UUID, 0, len(match))
		for id := range match {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			if match[ids[i]] != match[ids[j]] {
				return match[ids[i]] > match[ids[j]]
			}
			if presence[ids[i]] != presence[ids[j]] {
				return presence[ids[i]] > presence[ids[j]]
			}
			return ids[i].String() < ids[j].String()
		})
		id := ids[0]
		return &id
	}
	if len(presence) == 1 {
		for id := range presence {
			id := id
			return &id
		}
	}
	return nil
}

// modalValue returns the most voted value, ties going to the smallest.
func modalValue(votes map[float64]int) (float64, bool) {
	best, bestCnt, found := 0.0, 0, false
	for v, cnt := range votes {
		if !found || cnt > bestCnt || (cnt == bestCnt && v < best) {
			best, bestCnt, found = v, cnt, true
		}
	}
	return best, found
}

// prefillMaterials reconstructs the material suggestions from the group's
// stored rows. Saç and mdf candidates are ranked by how often their
// quantity equals the child's surface area; strafor and boya+işçilik rows
// are derived by the executor and excluded from the manual votes, as are
// all saç/mdf rows regardless of which candidate won.
func (s *inheritService) prefillMaterials(ctx context.Context, parent string, bySKU map[string]*model.Product, resp *PrefillResponse) error {
	rows, err := s.materials.ListByParent(ctx, parent)
	if err != nil {
		return err
	}

	sacPresence := make(map[uuid.UUID]int)
	mdfPresence := make(map[uuid.UUID]int)
	sacMatch := make(map[uuid.UUID]int)
	mdfMatch := make(map[uuid.UUID]int)
	qtyVotes := make(map[uuid.UUID]map[float64]int)

	for _, row := range rows {
		qty := round6(row.Quantity)
		strafor, boyaIscilik, sac, mdf := materialNameFlags(row.MaterialName)

		var alan *float64
		if child, ok := bySKU[row.ChildSKU]; ok {
			alan = child.AlanM2
		}
		areaMatch := alan != nil && math.Abs(qty-*alan) <= 1e-4

		switch {
		case sac:
			sacPresence[row.MaterialID]++
			if areaMatch {
				sacMatch[row.MaterialID]++
			}
		case mdf:
			mdfPresence[row.MaterialID]++
			if areaMatch {
				mdfMatch[row.MaterialID]++
			}
		case strafor || boyaIscilik:
		default:
			if qtyVotes[row.MaterialID] == nil {
				qtyVotes[row.MaterialID] = make(map[float64]int)
			}
			qtyVotes[row.MaterialID][qty]++
		}
	}

	resp.SacMaterialID = pickAutoMaterial(sacMatch, sacPresence)
	resp.MdfMaterialID = pickAutoMaterial(mdfMatch, mdfPresence)

	for id, votes := range qtyVotes {
		if qty, ok := modalValue(votes); ok {
			resp.Materials[id.String()] = qty
		}
	}
	return nil
}
