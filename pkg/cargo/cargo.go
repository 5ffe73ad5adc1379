package cargo

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// codePattern matches a letter-digit box code with an optional separator:
// "M-8", "m - 8" and "m8" all normalize to "M-8".
var codePattern = regexp.MustCompile(`(?i)([A-Z])\s*-?\s*(\d+[A-Z]?)`)

var dimsSplit = regexp.MustCompile(`[*xX×]`)

// NormalizeCode extracts and canonicalizes a box code from free text.
// Returns "" when no letter+digit pair is present.
func NormalizeCode(raw string) string {
	m := codePattern.FindStringSubmatch(strings.ToUpper(raw))
	if m == nil {
		return ""
	}
	return m[1] + "-" + m[2]
}

// ParseDecimal reads a decimal that may use a comma separator. Returns nil
// for blank input and for the "ÖZEL" (custom) marker used in the rate sheet.
func ParseDecimal(raw string) *float64 {
	s := strings.Trim(strings.TrimSpace(raw), `"`)
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" || strings.EqualFold(s, "özel") || strings.EqualFold(s, "ozel") {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseDims parses an "en*boy*yukseklik" string. Two-value inputs leave the
// height nil; anything unparseable yields all nils.
func ParseDims(raw string) (en, boy, yukseklik *float64) {
	s := strings.Trim(strings.TrimSpace(raw), `"`)
	if s == "" || strings.EqualFold(s, "özel") || strings.EqualFold(s, "ozel") {
		return nil, nil, nil
	}
	var nums []*float64
	for _, part := range dimsSplit.Split(s, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if v := ParseDecimal(part); v != nil {
			nums = append(nums, v)
		}
	}
	switch {
	case len(nums) >= 3:
		return nums[0], nums[1], nums[2]
	case len(nums) == 2:
		return nums[0], nums[1], nil
	default:
		return nil, nil, nil
	}
}

// Box holds the physical dimensions and price of one cargo box code.
type Box struct {
	Code      string
	Birim     string
	Ucret     *float64
	En        *float64
	Boy       *float64
	Yukseklik *float64
}

// RateTable is the cargo rate sheet keyed by normalized box code.
type RateTable struct {
	boxes map[string]Box
	order []string
}

// NewRateTable builds a table from boxes whose Code is already normalized.
// A nil or empty slice yields a usable empty table.
func NewRateTable(boxes []Box) *RateTable {
	t := &RateTable{boxes: make(map[string]Box, len(boxes))}
	for _, box := range boxes {
		if box.Code == "" {
			continue
		}
		if _, dup := t.boxes[box.Code]; !dup {
			t.order = append(t.order, box.Code)
		}
		t.boxes[box.Code] = box
	}
	return t
}

// Lookup returns the box for a normalized code.
func (t *RateTable) Lookup(code string) (Box, bool) {
	if t == nil {
		return Box{}, false
	}
	box, ok := t.boxes[code]
	return box, ok
}

// Codes returns the codes in sheet order.
func (t *RateTable) Codes() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.order...)
}

// Len reports the number of loaded box codes.
func (t *RateTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.boxes)
}

// LoadRates reads the cargo rate CSV (columns: kod, en*boy*yukseklik, birim,
// ucret). Rows without a recognizable code are skipped; a later duplicate
// code overwrites an earlier one.
func LoadRates(path string) (*RateTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cargo rates: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read cargo rates: %w", err)
	}
	if len(records) == 0 {
		return &RateTable{boxes: map[string]Box{}}, nil
	}

	header := records[0]
	col := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")), name) {
				return i
			}
		}
		return -1
	}
	kodIdx := col("kod")
	dimsIdx := col("en*boy*yukseklik")
	birimIdx := col("birim")
	ucretIdx := col("ucret")
	if kodIdx < 0 {
		return nil, fmt.Errorf("cargo rates: missing 'kod' column")
	}

	field := func(row []string, idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	table := &RateTable{boxes: make(map[string]Box)}
	for _, row := range records[1:] {
		code := NormalizeCode(field(row, kodIdx))
		if code == "" {
			continue
		}
		en, boy, yukseklik := ParseDims(field(row, dimsIdx))
		if _, exists := table.boxes[code]; !exists {
			table.order = append(table.order, code)
		}
		table.boxes[code] = Box{
			Code:      code,
			Birim:     strings.TrimSpace(field(row, birimIdx)),
			Ucret:     ParseDecimal(field(row, ucretIdx)),
			En:        en,
			Boy:       boy,
			Yukseklik: yukseklik,
		}
	}
	return table, nil
}

// CeilToHalf rounds up to the nearest 0.5. The epsilon keeps exact halves
// from being pushed a step higher by floating point noise.
func CeilToHalf(v float64) float64 {
	return math.Ceil(v*2-1e-9) / 2
}

// ComputeDesi computes the shipping desi: volumetric size en*boy*yukseklik/5000
// when all three dimensions are positive, combined with the weight by max and
// rounded up to the nearest half. With only one of the two known, that one is
// used; with neither, nil.
func ComputeDesi(en, boy, yukseklik, agirlik *float64) *float64 {
	var volumetric *float64
	if en != nil && boy != nil && yukseklik != nil && *en > 0 && *boy > 0 && *yukseklik > 0 {
		v := (*en * *boy * *yukseklik) / 5000.0
		volumetric = &v
	}

	switch {
	case volumetric == nil && agirlik == nil:
		return nil
	case agirlik == nil:
		d := CeilToHalf(*volumetric)
		return &d
	case volumetric == nil:
		d := CeilToHalf(*agirlik)
		return &d
	default:
		d := CeilToHalf(math.Max(*volumetric, *agirlik))
		return &d
	}
}
