package textnorm

import (
	"reflect"
	"sort"
	"testing"
)

func tokens(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for tok := range set {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

func TestTokenize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"drops short and stopwords", "X 30 cm Metal Aynalık", []string{"30", "aynalık"}},
		{"turkish letters kept", "Gümüş Çerçeve", []string{"gümüş", "çerçeve"}},
		{"duplicates collapse", "gold gold GOLD", []string{"gold"}},
		{"dotted capital I folds", "İKİLİ Set", []string{"ikili", "set"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tokens(Tokenize(tt.in))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDetectTier(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"gold wins over silver", []string{"gold silver"}, TierGoldCopper},
		{"silver alone", []string{"silver"}, TierSilver},
		{"no match", []string{"mavi duvar saati"}, TierOther},
		{"union across inputs", []string{"duvar saati", "gümüş"}, TierSilver},
		{"turkish synonyms", []string{"bakır eskitme"}, TierGoldCopper},
		{"empty", nil, TierOther},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DetectTier(tt.values...); got != tt.want {
				t.Fatalf("DetectTier(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}

func TestSplitTierSuffix(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in       string
		wantBase string
		wantTier string
	}{
		{"Eskitme Kaplama (gold,copper)", "Eskitme Kaplama", TierGoldCopper},
		{"Eskitme Kaplama (silver)", "Eskitme Kaplama", TierSilver},
		{"Eskitme Kaplama", "Eskitme Kaplama", TierOther},
		{"Parantezli (ama tier degil)", "Parantezli (ama tier degil)", TierOther},
		{"", "", TierOther},
	}
	for _, tt := range tests {
		base, tier := SplitTierSuffix(tt.in)
		if base != tt.wantBase || tier != tt.wantTier {
			t.Fatalf("SplitTierSuffix(%q) = (%q, %q), want (%q, %q)", tt.in, base, tier, tt.wantBase, tt.wantTier)
		}
	}
}

func TestCanonicalizeCostName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"Eskitme Kaplama (gold,silver)", "Eskitme Kaplama (gold,copper)"},
		{"Eskitme Kaplama ( Gold , Silver )", "Eskitme Kaplama (gold,copper)"},
		{"Eskitme Kaplama (gold,copper)", "Eskitme Kaplama (gold,copper)"},
		{"  Düz Kaplama  ", "Düz Kaplama"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CanonicalizeCostName(tt.in); got != tt.want {
			t.Fatalf("CanonicalizeCostName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	// idempotence
	once := CanonicalizeCostName("A (gold,silver)")
	if twice := CanonicalizeCostName(once); twice != once {
		t.Fatalf("not idempotent: %q -> %q", once, twice)
	}
}

func TestNormalizeCostNames(t *testing.T) {
	t.Parallel()
	got := NormalizeCostNames([]string{" Gold Kaplama ", "gold kaplama", "", "Silver Kaplama (gold,silver)"}, true)
	want := []string{"Gold Kaplama", "Silver Kaplama (gold,copper)"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeCostNames = %v, want %v", got, want)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"  Duvar   Saati ( Gold )", "duvar saati (gold)"},
		{"İKİ PARÇA , metal", "iki parça, metal"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGroupKey(t *testing.T) {
	t.Parallel()
	if got := GroupKey("Duvar Saati", TierSilver); got != "Duvar Saati||silver" {
		t.Fatalf("GroupKey = %q", got)
	}
	if got := GroupKey("Duvar Saati", ""); got != "Duvar Saati||other" {
		t.Fatalf("GroupKey empty tier = %q", got)
	}
	if got := GroupKey("  ", TierSilver); got != "" {
		t.Fatalf("GroupKey blank name = %q, want empty", got)
	}
}
