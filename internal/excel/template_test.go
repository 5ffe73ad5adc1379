package excel

import (
	"reflect"
	"testing"

	"maliyet-backend/pkg/textnorm"
)

func testStructure() *Structure {
	return &Structure{
		InfoCols: []InfoColumn{
			{Col: 1, Header: "Ürün Kodu"},
			{Col: 2, Header: "Ürün Adı"},
		},
		CostCols: []CostColumn{
			{Col: 10, Name: "Eskitme (gold,copper)", Base: "Eskitme", Tier: textnorm.TierGoldCopper},
			{Col: 11, Name: "Eskitme (silver)", Base: "Eskitme", Tier: textnorm.TierSilver},
			{Col: 12, Name: "Vernik", Base: "Vernik", Tier: textnorm.TierOther},
			{Col: 13, Name: "Boya", Base: "Boya", Tier: textnorm.TierOther},
			{Col: 14, Name: "Boya (silver)", Base: "Boya", Tier: textnorm.TierSilver},
			{Col: 15, Name: "Cila (gold)", Base: "Cila", Tier: textnorm.TierGoldCopper},
			{Col: 16, Name: "Cila (copper)", Base: "Cila", Tier: textnorm.TierGoldCopper},
		},
		MaterialCols: []MaterialColumn{
			{Col: 20, Name: "Strafor Levha", Unit: "m2"},
			{Col: 21, Name: "Vida", Unit: "pcs"},
		},
	}
}

func TestResolveCostCol(t *testing.T) {
	t.Parallel()
	s := testStructure()

	tests := []struct {
		name     string
		costName string
		tierHint string
		want     int
	}{
		{name: "exact", costName: "Eskitme (silver)", want: 11},
		{name: "normalized match", costName: "ESKİTME  (Silver)", want: 11},
		{name: "tier suffix selects column", costName: "Eskitme (altın)", want: 10},
		{name: "row hint breaks base tie", costName: "Eskitme", tierHint: textnorm.TierSilver, want: 11},
		{name: "row hint gold", costName: "Eskitme", tierHint: textnorm.TierGoldCopper, want: 10},
		{name: "tierless column wins without a tier match", costName: "Boya (bakır)", want: 13},
		{name: "first candidate fallback", costName: "Cila", tierHint: textnorm.TierSilver, want: 15},
		{name: "unknown cost", costName: "Parlatma", want: 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := s.resolveCostCol(tt.costName, tt.tierHint); got != tt.want {
				t.Fatalf("resolveCostCol(%q, %q) = %d, want %d", tt.costName, tt.tierHint, got, tt.want)
			}
		})
	}
}

func TestResolveMaterialCol(t *testing.T) {
	t.Parallel()
	s := testStructure()

	tests := []struct {
		name    string
		matName string
		want    int
	}{
		{name: "exact", matName: "Vida", want: 21},
		{name: "normalized", matName: "STRAFOR  Levha", want: 20},
		{name: "missing", matName: "Cam", want: 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := s.resolveMaterialCol(tt.matName); got != tt.want {
				t.Fatalf("resolveMaterialCol(%q) = %d, want %d", tt.matName, got, tt.want)
			}
		})
	}
}

func TestCostNames(t *testing.T) {
	t.Parallel()
	s := &Structure{CostCols: []CostColumn{
		{Col: 1, Name: "Eskitme (gold,silver)"},
		{Col: 2, Name: "eskitme (GOLD,COPPER)"},
		{Col: 3, Name: "Vernik"},
		{Col: 4, Name: ""},
	}}

	// legacy suffix is canonicalized and the duplicate dropped case-insensitively
	want := []string{"Eskitme (gold,copper)", "Vernik"}
	if got := s.CostNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("CostNames() = %v, want %v", got, want)
	}
}
