// Package excel reads and writes the maliyet şablonu workbook. The sheet has
// product info columns on the left, then "Maliyet:" assignment columns and
// "Hammadde:" quantity columns identified by their header prefix.
package excel

import (
	"fmt"
	"regexp"
	"strings"

	"maliyet-backend/pkg/textnorm"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Maliyet Şablonu"

const (
	costHeaderPrefix     = "Maliyet:"
	materialHeaderPrefix = "Hammadde:"
)

var materialUnitPattern = regexp.MustCompile(`\(([^)]+)\)\s*$`)

// CostColumn is one "Maliyet:" column of the template.
type CostColumn struct {
	Col  int
	Name string
	Base string
	Tier string
}

// MaterialColumn is one "Hammadde:" column; the unit comes from a trailing
// parenthesized suffix, defaulting to pcs.
type MaterialColumn struct {
	Col  int
	Name string
	Unit string
}

// InfoColumn is a plain product info column.
type InfoColumn struct {
	Col    int
	Header string
}

// Structure is the parsed header row of the template sheet.
type Structure struct {
	InfoCols     []InfoColumn
	CostCols     []CostColumn
	MaterialCols []MaterialColumn
	headers      []string
}

// LoadStructure parses the header row of the template workbook.
func LoadStructure(path string) (*Structure, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("read template sheet: %w", err)
	}
	if len(rows) == 0 {
		return &Structure{}, nil
	}

	s := &Structure{headers: rows[0]}
	for i, header := range rows[0] {
		header = strings.TrimSpace(header)
		if header == "" {
			continue
		}
		col := i + 1
		switch {
		case strings.HasPrefix(header, costHeaderPrefix):
			name := strings.TrimSpace(strings.TrimPrefix(header, costHeaderPrefix))
			base, tier := textnorm.SplitTierSuffix(name)
			s.CostCols = append(s.CostCols, CostColumn{Col: col, Name: name, Base: base, Tier: tier})
		case strings.HasPrefix(header, materialHeaderPrefix):
			raw := strings.TrimSpace(strings.TrimPrefix(header, materialHeaderPrefix))
			unit := "pcs"
			if m := materialUnitPattern.FindStringSubmatch(raw); m != nil {
				unit = m[1]
			}
			name := strings.TrimSpace(materialUnitPattern.ReplaceAllString(raw, ""))
			s.MaterialCols = append(s.MaterialCols, MaterialColumn{Col: col, Name: name, Unit: unit})
		default:
			s.InfoCols = append(s.InfoCols, InfoColumn{Col: col, Header: header})
		}
	}
	return s, nil
}

// CostNames returns the canonicalized, deduplicated cost names of the
// template's "Maliyet:" columns in sheet order.
func (s *Structure) CostNames() []string {
	seen := make(map[string]struct{}, len(s.CostCols))
	names := make([]string, 0, len(s.CostCols))
	for _, c := range s.CostCols {
		name := textnorm.CanonicalizeCostName(c.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return names
}

func (s *Structure) infoCol(header string) int {
	for _, c := range s.InfoCols {
		if c.Header == header {
			return c.Col
		}
	}
	return 0
}

// resolveCostCol finds the template column for a cost name: exact, then
// normalized text, then the base name with a tier preference when several
// tiered columns share a base.
func (s *Structure) resolveCostCol(costName string, rowTierHint string) int {
	for _, c := range s.CostCols {
		if c.Name == costName {
			return c.Col
		}
	}
	norm := textnorm.Normalize(costName)
	for _, c := range s.CostCols {
		if textnorm.Normalize(c.Name) == norm {
			return c.Col
		}
	}

	base, tier := textnorm.SplitTierSuffix(costName)
	baseKey := textnorm.Normalize(base)
	if baseKey == "" {
		baseKey = norm
	}
	var candidates []CostColumn
	for _, c := range s.CostCols {
		if textnorm.Normalize(c.Base) == baseKey {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return 0
	}
	if len(candidates) == 1 {
		return candidates[0].Col
	}

	wantTier := tier
	if wantTier == textnorm.TierOther {
		wantTier = rowTierHint
	}
	for _, c := range candidates {
		if c.Tier == wantTier {
			return c.Col
		}
	}
	for _, c := range candidates {
		if c.Tier == textnorm.TierOther {
			return c.Col
		}
	}
	return candidates[0].Col
}

func (s *Structure) resolveMaterialCol(name string) int {
	for _, c := range s.MaterialCols {
		if c.Name == name {
			return c.Col
		}
	}
	norm := textnorm.Normalize(name)
	for _, c := range s.MaterialCols {
		if textnorm.Normalize(c.Name) == norm {
			return c.Col
		}
	}
	return 0
}

// ExportRow is one product row of the export workbook.
type ExportRow struct {
	ChildSKU       string
	ChildName      string
	VariationColor string
	En             *float64
	Boy            *float64
	Yukseklik      *float64
	Agirlik        *float64
	Desi           *float64
	Materials      map[string]float64
	Costs          map[string]string
}

// Export writes the rows into a fresh workbook carrying the template's
// header row and saves it at outputPath.
func (s *Structure) Export(rows []ExportRow, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	for i, header := range s.headers {
		if strings.TrimSpace(header) == "" {
			continue
		}
		if err := setCell(f, i+1, 1, header); err != nil {
			return err
		}
	}

	infoSetters := []struct {
		header string
		value  func(r *ExportRow) interface{}
	}{
		{"Ürün Kodu", func(r *ExportRow) interface{} { return r.ChildSKU }},
		{"Ürün Adı", func(r *ExportRow) interface{} { return r.ChildName }},
		{"En", func(r *ExportRow) interface{} { return floatOrNil(r.En) }},
		{"Boy", func(r *ExportRow) interface{} { return floatOrNil(r.Boy) }},
		{"Yükseklik", func(r *ExportRow) interface{} { return floatOrNil(r.Yukseklik) }},
		{"Ağırlık", func(r *ExportRow) interface{} { return floatOrNil(r.Agirlik) }},
		{"Desi", func(r *ExportRow) interface{} { return floatOrNil(r.Desi) }},
	}

	for i := range rows {
		row := &rows[i]
		rowIdx := i + 2

		for _, setter := range infoSetters {
			col := s.infoCol(setter.header)
			if col == 0 {
				continue
			}
			value := setter.value(row)
			if value == nil {
				continue
			}
			if err := setCell(f, col, rowIdx, value); err != nil {
				return err
			}
		}

		for name, qty := range row.Materials {
			if qty == 0 {
				continue
			}
			if col := s.resolveMaterialCol(name); col != 0 {
				if err := setCell(f, col, rowIdx, qty); err != nil {
					return err
				}
			}
		}

		tierHint := textnorm.DetectTier(row.VariationColor, row.ChildName)
		for name, marker := range row.Costs {
			if col := s.resolveCostCol(name, tierHint); col != 0 {
				if err := setCell(f, col, rowIdx, marker); err != nil {
					return err
				}
			}
		}
	}

	return f.SaveAs(outputPath)
}

func setCell(f *excelize.File, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(SheetName, cell, value)
}

func floatOrNil(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
