package service

import "testing"

func TestParseChildDims(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dims string
		en   *float64
		boy  *float64
	}{
		{name: "integers", dims: "(49, 63)", en: fp(49), boy: fp(63)},
		{name: "decimals", dims: "(30.5,40.25)", en: fp(30.5), boy: fp(40.25)},
		{name: "surrounding space", dims: "  (20, 20)  ", en: fp(20), boy: fp(20)},
		{name: "missing parens", dims: "49, 63"},
		{name: "single value", dims: "(49)"},
		{name: "empty", dims: ""},
		{name: "negative rejected", dims: "(-49, 63)"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			en, boy := parseChildDims(tt.dims)
			if (en == nil) != (tt.en == nil) || (boy == nil) != (tt.boy == nil) {
				t.Fatalf("parseChildDims(%q) = %v/%v, want %v/%v", tt.dims, en, boy, tt.en, tt.boy)
			}
			if en != nil && (*en != *tt.en || *boy != *tt.boy) {
				t.Fatalf("parseChildDims(%q) = %v/%v, want %v/%v", tt.dims, *en, *boy, *tt.en, *tt.boy)
			}
		})
	}
}

func TestCalculateAlan(t *testing.T) {
	t.Parallel()

	if got := calculateAlan(nil, fp(10)); got != nil {
		t.Fatalf("alan with nil en = %v, want nil", *got)
	}
	if got := calculateAlan(fp(10), nil); got != nil {
		t.Fatalf("alan with nil boy = %v, want nil", *got)
	}
	got := calculateAlan(fp(49), fp(63))
	if got == nil || *got != 0.3087 {
		t.Fatalf("alan = %v, want 0.3087", got)
	}
	// rounding kicks in past six decimals
	got = calculateAlan(fp(33.333), fp(33.333))
	if got == nil || *got != 0.111109 {
		t.Fatalf("alan = %v, want 0.111109", got)
	}
}

func TestCSVHeaderIndex(t *testing.T) {
	t.Parallel()

	index := csvHeaderIndex([]string{string(rune(0xFEFF)) + "SKU", " Ad ", "Renk"})
	if got := index["SKU"]; got != 0 {
		t.Fatalf("BOM header index = %d, want 0", got)
	}
	if got := index["Ad"]; got != 1 {
		t.Fatalf("trimmed header index = %d, want 1", got)
	}
	if _, ok := index[string(rune(0xFEFF)) + "SKU"]; ok {
		t.Fatal("raw BOM key should not survive")
	}
}

func TestCSVField(t *testing.T) {
	t.Parallel()

	index := map[string]int{"SKU": 0, "Ad": 1, "Renk": 2, "Boyut": 3}
	record := []string{"ABC-1", "  Konsol  ", "nan", ""}

	if got := csvField(record, index, "SKU"); got != "ABC-1" {
		t.Fatalf("SKU = %q", got)
	}
	if got := csvField(record, index, "Ad"); got != "Konsol" {
		t.Fatalf("Ad = %q, want trimmed", got)
	}
	// nan and empty cells fall through to the next header alias
	if got := csvField(record, index, "Renk", "Ad"); got != "Konsol" {
		t.Fatalf("Renk fallback = %q", got)
	}
	if got := csvField(record, index, "Boyut"); got != "" {
		t.Fatalf("Boyut = %q, want empty", got)
	}
	if got := csvField(record, index, "Yok"); got != "" {
		t.Fatalf("missing header = %q, want empty", got)
	}
	// index past a short record is ignored
	if got := csvField([]string{"only"}, index, "Ad"); got != "" {
		t.Fatalf("short record = %q, want empty", got)
	}
}
