package service

import (
	"testing"

	"maliyet-backend/internal/model"
	"maliyet-backend/internal/repository"
	"maliyet-backend/pkg/textnorm"
)

func TestSuggestBySizeEmptyHistory(t *testing.T) {
	t.Parallel()
	targets := []model.Product{{ChildName: "Duvar Rafi", VariationSize: "30x30", Kategori: "metal"}}
	if got := suggestBySize(targets, nil); len(got) != 0 {
		t.Fatalf("suggestions = %v, want none", got)
	}
}

func TestSuggestBySizeScoring(t *testing.T) {
	t.Parallel()
	targets := []model.Product{{ChildName: "Duvar Rafi", VariationSize: "30x30", Kategori: "metal"}}
	hist := []repository.HistoricalAssignment{
		{ChildName: "Duvar Rafi", VariationSize: "30x30", Kategori: "metal", CostName: "Eskitme"},
		{ChildName: "Konsol", VariationSize: "40x40", Kategori: "metal", CostName: "Vernik"},
	}

	got := suggestBySize(targets, hist)
	s, ok := got["30x30"]
	if !ok {
		t.Fatalf("no suggestion for 30x30: %v", got)
	}
	if s.CostName != "Eskitme" {
		t.Fatalf("cost = %q, want Eskitme", s.CostName)
	}
	// size 5 + kategori 2 + 3 shared tokens (duvar, rafi, 30x30) * 3 = 16
	if s.Score != 16 || s.Hits != 1 || s.SizeHits != 1 || s.TokenHits != 3 {
		t.Fatalf("meta = %+v", s)
	}
	if s.Confidence != ConfidenceMedium {
		t.Fatalf("confidence = %q, want medium", s.Confidence)
	}
}

func TestSuggestBySizeHighConfidence(t *testing.T) {
	t.Parallel()
	targets := []model.Product{{ChildName: "Duvar Rafi", VariationSize: "30x30", Kategori: "metal"}}
	hist := []repository.HistoricalAssignment{
		{ChildName: "Duvar Rafi", VariationSize: "30x30", Kategori: "metal", CostName: "Eskitme"},
		{ChildName: "Duvar Rafi", VariationSize: "30x30", Kategori: "metal", CostName: "Eskitme"},
	}

	s := suggestBySize(targets, hist)["30x30"]
	if s.Score != 32 || s.SizeHits != 2 {
		t.Fatalf("meta = %+v", s)
	}
	if s.Confidence != ConfidenceHigh {
		t.Fatalf("confidence = %q, want high", s.Confidence)
	}
}

func TestSuggestBySizeDeterministicTieBreak(t *testing.T) {
	t.Parallel()
	targets := []model.Product{{ChildName: "Duvar Rafi", VariationSize: "30x30", Kategori: "metal"}}
	// two cost names with identical score vectors; name ascending decides
	hist := []repository.HistoricalAssignment{
		{ChildName: "Duvar Rafi", VariationSize: "30x30", Kategori: "metal", CostName: "Vernik"},
		{ChildName: "Duvar Rafi", VariationSize: "30x30", Kategori: "metal", CostName: "Eskitme"},
	}

	s := suggestBySize(targets, hist)["30x30"]
	if s.CostName != "Eskitme" {
		t.Fatalf("tie-break picked %q, want Eskitme", s.CostName)
	}
}

func TestSuggestByNameCatalogAndHistory(t *testing.T) {
	t.Parallel()
	targets := []model.Product{{ChildName: "Konsol Gold", Kategori: "metal"}}
	defs := []model.CostDefinition{
		{Name: "Eskitme Gold"},
		{Name: "Eskitme Silver"},
		{Name: "Vernik"},
	}
	hist := []repository.HistoricalAssignment{
		{ChildName: "Konsol Gold", VariationSize: "30x30", Kategori: "metal", CostName: "Eskitme Gold"},
	}

	got := suggestByName(targets, hist, defs)
	key := "Konsol Gold||" + textnorm.TierGoldCopper
	s, ok := got[key]
	if !ok {
		t.Fatalf("no suggestion for %q: %v", key, got)
	}
	if s.CostName != "Eskitme Gold" {
		t.Fatalf("cost = %q, want Eskitme Gold", s.CostName)
	}
	// catalog: token gold * 6 + tier 8 = 14
	// history: 2 tokens * 3 + exact 10 + kategori 2 + tier 3 = 21
	if s.Score != 35 || s.Hits != 2 || s.DirectHits != 1 || s.NameHits != 1 || s.TierHits != 2 {
		t.Fatalf("meta = %+v", s)
	}
	if s.Confidence != ConfidenceHigh {
		t.Fatalf("confidence = %q, want high", s.Confidence)
	}
	if s.Tier != textnorm.TierGoldCopper || s.GroupName != "Konsol Gold" {
		t.Fatalf("group = %q/%q", s.GroupName, s.Tier)
	}
}

func TestSuggestByNameTierPenalty(t *testing.T) {
	t.Parallel()
	targets := []model.Product{{ChildName: "Konsol Gold", Kategori: "metal"}}
	defs := []model.CostDefinition{
		{Name: "Eskitme Gold"},
		{Name: "Konsol Silver"}, // shares a token but conflicts on tier
	}

	s := suggestByName(targets, nil, defs)["Konsol Gold||"+textnorm.TierGoldCopper]
	if s.CostName != "Eskitme Gold" {
		t.Fatalf("cost = %q, want Eskitme Gold", s.CostName)
	}
	if s.Score != 14 || s.TierHits != 1 {
		t.Fatalf("meta = %+v", s)
	}
	if s.Confidence != ConfidenceMedium {
		t.Fatalf("confidence = %q, want medium", s.Confidence)
	}
}

func TestSuggestByNameTierFrequencyFallback(t *testing.T) {
	t.Parallel()
	// no token overlap with catalog or history, but the tier bucket has votes
	targets := []model.Product{{ChildName: "Zemin Altın", Kategori: "metal"}}
	defs := []model.CostDefinition{{Name: "Eskitme"}}
	hist := []repository.HistoricalAssignment{
		{ChildName: "Konsol Bakır", VariationSize: "30x30", Kategori: "cam", CostName: "Eskitme"},
	}

	s, ok := suggestByName(targets, hist, defs)["Zemin Altın||"+textnorm.TierGoldCopper]
	if !ok {
		t.Fatal("expected a tier-frequency fallback suggestion")
	}
	if s.CostName != "Eskitme" || s.Score != 3 || s.TierHits != 1 {
		t.Fatalf("meta = %+v", s)
	}
	if s.Confidence != ConfidenceLow {
		t.Fatalf("confidence = %q, want low", s.Confidence)
	}
}

func TestMaxFreq(t *testing.T) {
	t.Parallel()
	if name, cnt := maxFreq(nil); name != "" || cnt != 0 {
		t.Fatalf("maxFreq(nil) = %q/%d", name, cnt)
	}
	got, cnt := maxFreq(map[string]int{"Vernik": 2, "Eskitme": 2, "Boya": 1})
	if got != "Eskitme" || cnt != 2 {
		t.Fatalf("maxFreq = %q/%d, want Eskitme/2", got, cnt)
	}
}
