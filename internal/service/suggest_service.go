package service

import (
	"context"
	"sort"
	"strings"

	"maliyet-backend/internal/model"
	"maliyet-backend/internal/repository"
	"maliyet-backend/pkg/textnorm"
)

// Confidence labels of the suggestion engines.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// SizeSuggestion proposes one kaplama cost for a variation size, scored
// against other parents' historical assignments.
type SizeSuggestion struct {
	CostName   string `json:"cost_name"`
	Confidence string `json:"confidence"`
	Score      int    `json:"score"`
	Hits       int    `json:"hits"`
	SizeHits   int    `json:"size_hits"`
	TokenHits  int    `json:"token_hits"`
}

// NameSuggestion proposes one kaplama cost for a child-name/tier group.
type NameSuggestion struct {
	CostName   string `json:"cost_name"`
	Confidence string `json:"confidence"`
	Score      int    `json:"score"`
	Hits       int    `json:"hits"`
	DirectHits int    `json:"direct_hits"`
	NameHits   int    `json:"name_hits"`
	TierHits   int    `json:"tier_hits"`
	Tier       string `json:"tier"`
	GroupName  string `json:"group_name"`
}

type SizeSuggestionResponse struct {
	ParentName  string                    `json:"parent_name"`
	Suggestions map[string]SizeSuggestion `json:"suggestions"`
}

type NameSuggestionResponse struct {
	ParentName  string                    `json:"parent_name"`
	Suggestions map[string]NameSuggestion `json:"suggestions"`
}

type SuggestService interface {
	KaplamaBySize(ctx context.Context, parentName string) (*SizeSuggestionResponse, error)
	KaplamaByName(ctx context.Context, parentName string) (*NameSuggestionResponse, error)
}

type suggestService struct {
	products repository.ProductRepository
	costs    repository.CostRepository
}

func NewSuggestService(products repository.ProductRepository, costs repository.CostRepository) SuggestService {
	return &suggestService{products: products, costs: costs}
}

func (s *suggestService) KaplamaBySize(ctx context.Context, parentName string) (*SizeSuggestionResponse, error) {
	targets, err := s.products.ListByParent(ctx, parentName)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, ErrParentNotFound
	}

	hist, err := s.costs.ListHistoricalKaplama(ctx, parentName)
	if err != nil {
		return nil, err
	}

	return &SizeSuggestionResponse{
		ParentName:  parentName,
		Suggestions: suggestBySize(targets, hist),
	}, nil
}

func (s *suggestService) KaplamaByName(ctx context.Context, parentName string) (*NameSuggestionResponse, error) {
	targets, err := s.products.ListByParent(ctx, parentName)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, ErrParentNotFound
	}

	hist, err := s.costs.ListHistoricalKaplama(ctx, parentName)
	if err != nil {
		return nil, err
	}
	defs, err := s.costs.ListDefinitions(ctx, true, model.CostCategoryKaplama)
	if err != nil {
		return nil, err
	}

	return &NameSuggestionResponse{
		ParentName:  parentName,
		Suggestions: suggestByName(targets, hist, defs),
	}, nil
}

type scoreMeta struct {
	score      int
	hits       int
	sizeHits   int
	tokenHits  int
	directHits int
	nameHits   int
	tierHits   int
}

// pickBest ranks candidates by the given comparison keys, highest first,
// with the cost name as the final deterministic tie-break.
func pickBest(scores map[string]*scoreMeta, keys func(m *scoreMeta) []int) (string, *scoreMeta) {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := keys(scores[names[i]]), keys(scores[names[j]])
		for k := range a {
			if a[k] != b[k] {
				return a[k] > b[k]
			}
		}
		return names[i] < names[j]
	})
	if len(names) == 0 {
		return "", nil
	}
	return names[0], scores[names[0]]
}

type histSample struct {
	name     string
	size     string
	kategori string
	tier     string
	costName string
	tokens   map[string]struct{}
}

// suggestBySize scores one kaplama cost per variation size. Each historical
// sample contributes 5 for a size match, 2 for a category match and 3 per
// shared token; sizes with no scoring sample fall back to raw frequency.
func suggestBySize(targets []model.Product, hist []repository.HistoricalAssignment) map[string]SizeSuggestion {
	type sizeTarget struct {
		tokens   map[string]struct{}
		kategori string
	}
	bySize := make(map[string]*sizeTarget)
	for i := range targets {
		t := &targets[i]
		size := sizeKey(t.VariationSize)
		entry := bySize[size]
		if entry == nil {
			entry = &sizeTarget{tokens: make(map[string]struct{}), kategori: t.Kategori}
			bySize[size] = entry
		}
		textnorm.Union(entry.tokens, textnorm.Tokenize(t.ChildName))
		textnorm.Union(entry.tokens, textnorm.Tokenize(size))
	}

	suggestions := make(map[string]SizeSuggestion)
	if len(hist) == 0 {
		return suggestions
	}

	samples := make([]histSample, 0, len(hist))
	freqBySize := make(map[string]map[string]int)
	freqByKategori := make(map[string]map[string]int)
	for _, row := range hist {
		size := sizeKey(row.VariationSize)
		tokens := textnorm.Tokenize(row.ChildName)
		textnorm.Union(tokens, textnorm.Tokenize(size))
		samples = append(samples, histSample{
			size:     size,
			kategori: row.Kategori,
			costName: row.CostName,
			tokens:   tokens,
		})
		bump(freqBySize, size, row.CostName)
		bump(freqByKategori, row.Kategori, row.CostName)
	}

	for size, target := range bySize {
		scores := make(map[string]*scoreMeta)
		for _, h := range samples {
			overlap := textnorm.Overlap(target.tokens, h.tokens)
			score := 0
			if h.size == size {
				score += 5
			}
			if target.kategori != "" && h.kategori == target.kategori {
				score += 2
			}
			score += overlap * 3
			if score <= 0 {
				continue
			}
			m := scores[h.costName]
			if m == nil {
				m = &scoreMeta{}
				scores[h.costName] = m
			}
			m.score += score
			m.hits++
			m.tokenHits += overlap
			if h.size == size {
				m.sizeHits++
			}
		}

		var (
			selected string
			meta     *scoreMeta
		)
		if len(scores) > 0 {
			selected, meta = pickBest(scores, func(m *scoreMeta) []int {
				return []int{m.score, m.sizeHits, m.tokenHits, m.hits}
			})
		} else if name, cnt := maxFreq(freqBySize[size]); cnt > 0 {
			selected = name
			meta = &scoreMeta{score: cnt * 4, hits: cnt, sizeHits: cnt}
		} else if name, cnt := maxFreq(freqByKategori[target.kategori]); cnt > 0 {
			selected = name
			meta = &scoreMeta{score: cnt * 2, hits: cnt}
		}
		if selected == "" || meta == nil {
			continue
		}

		confidence := ConfidenceLow
		switch {
		case meta.score >= 18 || meta.sizeHits >= 3:
			confidence = ConfidenceHigh
		case meta.score >= 8:
			confidence = ConfidenceMedium
		}

		suggestions[size] = SizeSuggestion{
			CostName:   selected,
			Confidence: confidence,
			Score:      meta.score,
			Hits:       meta.hits,
			SizeHits:   meta.sizeHits,
			TokenHits:  meta.tokenHits,
		}
	}
	return suggestions
}

// suggestByName scores one kaplama cost per child-name/tier group. Catalog
// names contribute 6 per shared token with a tier bonus of 8 (penalty 7 for
// a conflicting tier); historical samples contribute 3 per shared token, 10
// for an exact name match, 2 for a category match and a 3/-2 tier adjustment.
func suggestByName(targets []model.Product, hist []repository.HistoricalAssignment, defs []model.CostDefinition) map[string]NameSuggestion {
	type nameTarget struct {
		name     string
		tier     string
		tokens   map[string]struct{}
		kategori string
	}

	costTokens := make(map[string]map[string]struct{}, len(defs))
	costTier := make(map[string]string, len(defs))
	costNames := make([]string, 0, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			continue
		}
		costNames = append(costNames, def.Name)
		costTokens[def.Name] = textnorm.Tokenize(def.Name)
		costTier[def.Name] = textnorm.DetectTier(def.Name)
	}

	byKey := make(map[string]*nameTarget)
	for i := range targets {
		t := &targets[i]
		name := strings.TrimSpace(t.ChildName)
		if name == "" {
			name = strings.TrimSpace(t.ChildSKU)
		}
		if name == "" {
			continue
		}
		color := strings.TrimSpace(t.VariationColor)
		tier := textnorm.DetectTier(name, color)
		key := textnorm.GroupKey(name, tier)
		entry := byKey[key]
		if entry == nil {
			entry = &nameTarget{
				name:     name,
				tier:     tier,
				tokens:   make(map[string]struct{}),
				kategori: t.Kategori,
			}
			byKey[key] = entry
		}
		textnorm.Union(entry.tokens, textnorm.Tokenize(name))
		textnorm.Union(entry.tokens, textnorm.Tokenize(color))
		textnorm.Union(entry.tokens, textnorm.Tokenize(sizeKey(t.VariationSize)))
	}

	suggestions := make(map[string]NameSuggestion)
	if len(byKey) == 0 {
		return suggestions
	}

	samples := make([]histSample, 0, len(hist))
	freqByKategori := make(map[string]map[string]int)
	freqByTier := make(map[string]map[string]int)
	for _, row := range hist {
		name := strings.TrimSpace(row.ChildName)
		size := sizeKey(row.VariationSize)
		color := strings.TrimSpace(row.VariationColor)
		tier := textnorm.DetectTier(name, color, row.CostName)
		tokens := textnorm.Tokenize(name)
		textnorm.Union(tokens, textnorm.Tokenize(size))
		textnorm.Union(tokens, textnorm.Tokenize(color))
		samples = append(samples, histSample{
			name:     name,
			size:     size,
			kategori: row.Kategori,
			tier:     tier,
			costName: row.CostName,
			tokens:   tokens,
		})
		bump(freqByKategori, row.Kategori, row.CostName)
		bump(freqByTier, tier, row.CostName)
	}

	for key, target := range byKey {
		scores := make(map[string]*scoreMeta)

		for _, costName := range costNames {
			overlap := textnorm.Overlap(target.tokens, costTokens[costName])
			if overlap <= 0 {
				continue
			}
			m := scores[costName]
			if m == nil {
				m = &scoreMeta{}
				scores[costName] = m
			}
			m.score += overlap * 6
			m.directHits += overlap
			m.hits++
			if target.tier != textnorm.TierOther {
				switch costTier[costName] {
				case target.tier:
					m.score += 8
					m.tierHits++
				case textnorm.TierOther:
				default:
					m.score -= 7
				}
			}
		}

		for _, h := range samples {
			overlap := textnorm.Overlap(target.tokens, h.tokens)
			exactName := strings.EqualFold(h.name, target.name)
			if overlap <= 0 && !exactName {
				continue
			}
			m := scores[h.costName]
			if m == nil {
				m = &scoreMeta{}
				scores[h.costName] = m
			}
			add := overlap * 3
			if exactName {
				add += 10
				m.nameHits++
			}
			if target.kategori != "" && h.kategori == target.kategori {
				add += 2
			}
			if target.tier != textnorm.TierOther {
				switch h.tier {
				case target.tier:
					add += 3
					m.tierHits++
				case textnorm.TierOther:
				default:
					add -= 2
				}
			}
			m.score += add
			m.hits++
		}

		var (
			selected string
			meta     *scoreMeta
		)
		if len(scores) > 0 {
			selected, meta = pickBest(scores, func(m *scoreMeta) []int {
				return []int{m.score, m.tierHits, m.nameHits, m.directHits, m.hits}
			})
		} else if target.tier != textnorm.TierOther {
			if name, cnt := maxFreq(freqByTier[target.tier]); cnt > 0 {
				selected = name
				meta = &scoreMeta{score: cnt * 3, hits: cnt, tierHits: cnt}
			}
		}
		if selected == "" {
			if name, cnt := maxFreq(freqByKategori[target.kategori]); cnt > 0 {
				selected = name
				meta = &scoreMeta{score: cnt * 2, hits: cnt}
			}
		}
		if selected == "" || meta == nil {
			continue
		}

		confidence := ConfidenceLow
		switch {
		case meta.score >= 24 || meta.nameHits >= 1 || meta.tierHits >= 2:
			confidence = ConfidenceHigh
		case meta.score >= 10:
			confidence = ConfidenceMedium
		}

		suggestions[key] = NameSuggestion{
			CostName:   selected,
			Confidence: confidence,
			Score:      meta.score,
			Hits:       meta.hits,
			DirectHits: meta.directHits,
			NameHits:   meta.nameHits,
			TierHits:   meta.tierHits,
			Tier:       target.tier,
			GroupName:  target.name,
		}
	}
	return suggestions
}

func bump(freq map[string]map[string]int, key, costName string) {
	inner := freq[key]
	if inner == nil {
		inner = make(map[string]int)
		freq[key] = inner
	}
	inner[costName]++
}

// maxFreq returns the most frequent cost name of one frequency bucket, ties
// broken by name for determinism.
func maxFreq(inner map[string]int) (string, int) {
	best, bestCnt := "", 0
	for name, cnt := range inner {
		if cnt > bestCnt || (cnt == bestCnt && cnt > 0 && name < best) {
			best, bestCnt = name, cnt
		}
	}
	return best, bestCnt
}
