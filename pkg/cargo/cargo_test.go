package cargo

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func fp(v float64) *float64 { return &v }

func TestNormalizeCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"M-8", "M-8"},
		{"m - 8", "M-8"},
		{"m8", "M-8"},
		{"Kargo M- 13 Kutu", "M-13"},
		{"y-2b", "Y-2B"},
		{"no code here", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeCode(tt.in); got != tt.want {
			t.Fatalf("NormalizeCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCeilToHalf(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want float64
	}{
		{1.3, 1.5},
		{1.8, 2.0},
		{2.0, 2.0},
		{0, 0},
		{0.01, 0.5},
		{12.0, 12.0},
	}
	for _, tt := range tests {
		if got := CeilToHalf(tt.in); got != tt.want {
			t.Fatalf("CeilToHalf(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCeilToHalfProperties(t *testing.T) {
	t.Parallel()
	for v := 0.0; v < 20; v += 0.07 {
		got := CeilToHalf(v)
		if math.Mod(got*2, 1) != 0 {
			t.Fatalf("CeilToHalf(%v) = %v is not a multiple of 0.5", v, got)
		}
		if got < v-1e-9 {
			t.Fatalf("CeilToHalf(%v) = %v is below input", v, got)
		}
		if got-0.5 >= v {
			t.Fatalf("CeilToHalf(%v) = %v rounds up too far", v, got)
		}
	}
}

func TestComputeDesi(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name                    string
		en, boy, yukseklik, agr *float64
		want                    *float64
	}{
		{"volumetric wins", fp(50), fp(40), fp(30), fp(5), fp(12.0)},
		{"weight wins", fp(10), fp(10), fp(10), fp(3.2), fp(3.5)},
		{"weight only", nil, nil, nil, fp(1.3), fp(1.5)},
		{"volumetric only", fp(50), fp(40), fp(30), nil, fp(12.0)},
		{"nothing known", nil, nil, nil, nil, nil},
		{"zero dimension ignored", fp(0), fp(40), fp(30), fp(2), fp(2.0)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ComputeDesi(tt.en, tt.boy, tt.yukseklik, tt.agr)
			switch {
			case got == nil && tt.want == nil:
			case got == nil || tt.want == nil:
				t.Fatalf("ComputeDesi = %v, want %v", got, tt.want)
			case math.Abs(*got-*tt.want) > 1e-9:
				t.Fatalf("ComputeDesi = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func TestParseDims(t *testing.T) {
	t.Parallel()
	en, boy, yuk := ParseDims("50*40*30")
	if en == nil || boy == nil || yuk == nil || *en != 50 || *boy != 40 || *yuk != 30 {
		t.Fatalf("ParseDims(50*40*30) = %v %v %v", en, boy, yuk)
	}
	en, boy, yuk = ParseDims("49,5 x 63")
	if en == nil || boy == nil || yuk != nil || *en != 49.5 || *boy != 63 {
		t.Fatalf("ParseDims(49,5 x 63) = %v %v %v", en, boy, yuk)
	}
	if en, boy, yuk = ParseDims("ÖZEL"); en != nil || boy != nil || yuk != nil {
		t.Fatalf("ParseDims(ÖZEL) should be all nil")
	}
}

func TestParseDecimal(t *testing.T) {
	t.Parallel()
	if v := ParseDecimal(" 12,75 "); v == nil || *v != 12.75 {
		t.Fatalf("ParseDecimal(12,75) = %v", v)
	}
	if v := ParseDecimal("özel"); v != nil {
		t.Fatalf("ParseDecimal(özel) = %v, want nil", v)
	}
	if v := ParseDecimal(""); v != nil {
		t.Fatalf("ParseDecimal empty = %v, want nil", v)
	}
}

func TestLoadRates(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "kargo.csv")
	csvBody := "kod,en*boy*yukseklik,birim,ucret\n" +
		"M-8,50*40*30,adet,\"120,50\"\n" +
		"m - 10,60*50*40,adet,150\n" +
		"bozuk satir,,,\n" +
		"Y-1,ÖZEL,adet,ÖZEL\n"
	if err := os.WriteFile(path, []byte(csvBody), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadRates(path)
	if err != nil {
		t.Fatalf("LoadRates: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("loaded %d codes, want 3", table.Len())
	}

	box, ok := table.Lookup("M-10")
	if !ok {
		t.Fatalf("M-10 not found")
	}
	if box.En == nil || *box.En != 60 || box.Yukseklik == nil || *box.Yukseklik != 40 {
		t.Fatalf("M-10 dims = %+v", box)
	}

	box, ok = table.Lookup("M-8")
	if !ok || box.Ucret == nil || *box.Ucret != 120.50 {
		t.Fatalf("M-8 = %+v ok=%v", box, ok)
	}

	box, ok = table.Lookup("Y-1")
	if !ok || box.En != nil {
		t.Fatalf("Y-1 custom dims should be nil: %+v ok=%v", box, ok)
	}

	if _, ok := table.Lookup("Z-99"); ok {
		t.Fatalf("unexpected Z-99 hit")
	}
}

func TestLoadRatesByteOrderMark(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "kargo.csv")
	// exported spreadsheets prefix the first header cell with a UTF-8 BOM
	csvBody := string(rune(0xFEFF)) + "kod,en*boy*yukseklik,birim,ucret\n" +
		"M-8,50*40*30,adet,120\n"
	if err := os.WriteFile(path, []byte(csvBody), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadRates(path)
	if err != nil {
		t.Fatalf("LoadRates: %v", err)
	}
	box, ok := table.Lookup("M-8")
	if !ok || box.Ucret == nil || *box.Ucret != 120 {
		t.Fatalf("M-8 = %+v ok=%v", box, ok)
	}
}
