package service

import (
	"encoding/json"
	"reflect"
	"testing"

	"maliyet-backend/internal/model"
	"maliyet-backend/pkg/cargo"
)

func fp(v float64) *float64 { return &v }

func TestSizeKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"30x30", "30x30"},
		{"", "(boyutsuz)"},
		{"   ", "(boyutsuz)"},
	}
	for _, tt := range tests {
		if got := sizeKey(tt.in); got != tt.want {
			t.Fatalf("sizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveKargoCost(t *testing.T) {
	t.Parallel()
	plan := newInheritPlan(&InheritanceRequest{
		CostMap: map[string]string{
			" 30x30 ": " M-8 Kutu ",
			"*":       "M-13 Kutu",
		},
	})

	if got := plan.resolveKargoCost("30x30"); got != "M-8 Kutu" {
		t.Fatalf("size match = %q, want %q", got, "M-8 Kutu")
	}
	if got := plan.resolveKargoCost("50x50"); got != "M-13 Kutu" {
		t.Fatalf("wildcard fallback = %q, want %q", got, "M-13 Kutu")
	}

	empty := newInheritPlan(&InheritanceRequest{CostMap: map[string]string{"30x30": "M-8"}})
	if got := empty.resolveKargoCost("50x50"); got != "" {
		t.Fatalf("missing size without wildcard = %q, want empty", got)
	}
}

func TestKaplamaLookupKeys(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name, color string
		want        []string
	}{
		{
			name:  "Duvar Rafi Gold",
			color: "Gold",
			want:  []string{"Duvar Rafi Gold||gold_copper", "Duvar Rafi Gold||Gold", "Duvar Rafi Gold"},
		},
		{
			name: "Duvar Rafi",
			want: []string{"Duvar Rafi||other", "Duvar Rafi"},
		},
		{
			// the raw color compound equals the tier compound case-insensitively
			name:  "Ayna",
			color: "other",
			want:  []string{"Ayna||other", "Ayna"},
		},
		{name: "  ", color: "Gold", want: nil},
	}
	for _, tt := range tests {
		if got := kaplamaLookupKeys(tt.name, tt.color); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("kaplamaLookupKeys(%q, %q) = %v, want %v", tt.name, tt.color, got, tt.want)
		}
	}
}

func TestResolveKaplamaCostsNameChain(t *testing.T) {
	t.Parallel()
	plan := newInheritPlan(&InheritanceRequest{
		KaplamaNameMap: map[string]NameList{
			"Duvar Rafi Gold||gold_copper": {"Eskitme (gold,copper)"},
			"Duvar Rafi||other":            {"Beyaz Boya"},
		},
		KaplamaMap: map[string]NameList{
			"30x30": {"Vernik"},
		},
	})

	// tier compound key wins over the size map
	if got := plan.resolveKaplamaCosts("Duvar Rafi Gold", "Gold", "30x30"); !reflect.DeepEqual(got, []string{"Eskitme (gold,copper)"}) {
		t.Fatalf("tier key = %v", got)
	}
	// case-insensitive fallback on the same keys
	if got := plan.resolveKaplamaCosts("DUVAR RAFI GOLD", "GOLD", "30x30"); !reflect.DeepEqual(got, []string{"Eskitme (gold,copper)"}) {
		t.Fatalf("case-insensitive tier key = %v", got)
	}
	// plain name group
	if got := plan.resolveKaplamaCosts("Duvar Rafi", "", "30x30"); !reflect.DeepEqual(got, []string{"Beyaz Boya"}) {
		t.Fatalf("name key = %v", got)
	}
	// unmatched name falls through to the size map
	if got := plan.resolveKaplamaCosts("Konsol", "", "30x30"); !reflect.DeepEqual(got, []string{"Vernik"}) {
		t.Fatalf("size fallback = %v", got)
	}
}

func TestResolveKaplamaCostsNameOnlyDoesNotFallBackToCostMap(t *testing.T) {
	t.Parallel()
	plan := newInheritPlan(&InheritanceRequest{
		CostMap: map[string]string{"30x30": "Eskitme"},
		KaplamaNameMap: map[string]NameList{
			"Duvar Rafi||other": {"Beyaz Boya"},
		},
	})

	if got := plan.resolveKaplamaCosts("Konsol", "", "30x30"); got != nil {
		t.Fatalf("name-keyed request fell back to cost_map: %v", got)
	}
}

func TestResolveKaplamaCostsLegacyCostMapFallback(t *testing.T) {
	t.Parallel()
	plan := newInheritPlan(&InheritanceRequest{
		CostMap: map[string]string{
			"30x30": "Eskitme (gold,silver)",
			"*":     "Vernik",
		},
	})

	// the legacy suffix is canonicalized on the way in
	if got := plan.resolveKaplamaCosts("Konsol", "", "30x30"); !reflect.DeepEqual(got, []string{"Eskitme (gold,copper)"}) {
		t.Fatalf("legacy fallback = %v", got)
	}
	if got := plan.resolveKaplamaCosts("Konsol", "", "99x99"); !reflect.DeepEqual(got, []string{"Vernik"}) {
		t.Fatalf("legacy wildcard = %v", got)
	}
}

func TestResolveWeight(t *testing.T) {
	t.Parallel()
	plan := newInheritPlan(&InheritanceRequest{
		WeightMap: map[string]json.Number{
			"30x30": "2.5",
			"40x40": "abc",
			"50x50": "-1",
			"*":     "4",
		},
	})

	tests := []struct {
		size     string
		want     float64
		wantSkip string
	}{
		{"30x30", 2.5, ""},
		{"40x40", 0, skipInvalidWeight},
		{"50x50", 0, skipNegativeWeight},
		{"60x60", 4, ""}, // wildcard
	}
	for _, tt := range tests {
		got, skip := plan.resolveWeight(tt.size)
		if got != tt.want || skip != tt.wantSkip {
			t.Fatalf("resolveWeight(%q) = (%v, %q), want (%v, %q)", tt.size, got, skip, tt.want, tt.wantSkip)
		}
	}

	noWeights := newInheritPlan(&InheritanceRequest{})
	if _, skip := noWeights.resolveWeight("30x30"); skip != skipNoWeightMapping {
		t.Fatalf("missing weight skip = %q, want %q", skip, skipNoWeightMapping)
	}
}

func TestResolveChild(t *testing.T) {
	t.Parallel()
	plan := newInheritPlan(&InheritanceRequest{
		CostMap:   map[string]string{"30x30": "M-8 Kutu"},
		WeightMap: map[string]json.Number{"30x30": "2"},
		KaplamaNameMap: map[string]NameList{
			"Duvar Rafi||other": {"Beyaz Boya"},
		},
	})
	rates := cargo.NewRateTable([]cargo.Box{
		{Code: "M-8", En: fp(40), Boy: fp(40), Yukseklik: fp(10)},
	})

	child := &model.Product{ChildSKU: "MET-001", ChildName: "Duvar Rafi", VariationSize: "30x30"}
	res := resolveChild(child, plan, rates)
	if res.SkipReason != "" {
		t.Fatalf("unexpected skip: %q", res.SkipReason)
	}
	if res.KargoCostName != "M-8 Kutu" {
		t.Fatalf("kargo cost = %q", res.KargoCostName)
	}
	if !reflect.DeepEqual(res.KaplamaCostNames, []string{"Beyaz Boya"}) {
		t.Fatalf("kaplama costs = %v", res.KaplamaCostNames)
	}
	if res.Update.KargoKodu != "M-8" {
		t.Fatalf("kargo kodu = %q", res.Update.KargoKodu)
	}
	if res.Update.KargoEn == nil || *res.Update.KargoEn != 40 {
		t.Fatalf("kargo en = %v", res.Update.KargoEn)
	}
	// volumetric 40*40*10/5000 = 3.2 beats the 2kg weight, ceil to 3.5
	if res.Update.KargoDesi == nil || *res.Update.KargoDesi != 3.5 {
		t.Fatalf("desi = %v", res.Update.KargoDesi)
	}
}

func TestResolveChildSkips(t *testing.T) {
	t.Parallel()
	rates := cargo.NewRateTable(nil)

	tests := []struct {
		name string
		req  InheritanceRequest
		want string
	}{
		{
			name: "no kargo mapping",
			req:  InheritanceRequest{WeightMap: map[string]json.Number{"*": "1"}},
			want: skipNoKargoMapping,
		},
		{
			name: "no kaplama mapping",
			req: InheritanceRequest{
				CostMap:        map[string]string{"*": "M-8"},
				WeightMap:      map[string]json.Number{"*": "1"},
				KaplamaNameMap: map[string]NameList{"Baska Urun||other": {"Vernik"}},
			},
			want: skipNoKaplamaMapping,
		},
		{
			name: "no weight mapping",
			req: InheritanceRequest{
				CostMap: map[string]string{"*": "M-8"},
			},
			want: skipNoWeightMapping,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			plan := newInheritPlan(&tt.req)
			child := &model.Product{ChildSKU: "MET-001", ChildName: "Duvar Rafi", VariationSize: "30x30"}
			if res := resolveChild(child, plan, rates); res.SkipReason != tt.want {
				t.Fatalf("skip = %q, want %q", res.SkipReason, tt.want)
			}
		})
	}
}

func TestResolveChildAllowMissingKaplama(t *testing.T) {
	t.Parallel()
	plan := newInheritPlan(&InheritanceRequest{
		CostMap:             map[string]string{"*": "M-8"},
		WeightMap:           map[string]json.Number{"*": "1"},
		KaplamaNameMap:      map[string]NameList{"Baska Urun||other": {"Vernik"}},
		AllowMissingKaplama: true,
	})
	child := &model.Product{ChildSKU: "MET-001", ChildName: "Duvar Rafi", VariationSize: "30x30"}
	res := resolveChild(child, plan, cargo.NewRateTable(nil))
	if res.SkipReason != "" {
		t.Fatalf("unexpected skip: %q", res.SkipReason)
	}
	if len(res.KaplamaCostNames) != 0 {
		t.Fatalf("kaplama costs = %v, want none", res.KaplamaCostNames)
	}
}
