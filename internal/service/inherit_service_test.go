package service

import (
	"encoding/json"
	"reflect"
	"testing"

	"maliyet-backend/internal/model"

	"github.com/google/uuid"
)

func TestNameListUnmarshal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want NameList
	}{
		{`"Eskitme"`, NameList{"Eskitme"}},
		{`["Eskitme", "Vernik"]`, NameList{"Eskitme", "Vernik"}},
		{`[]`, NameList{}},
	}
	for _, tt := range tests {
		var got NameList
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Fatalf("unmarshal %q: %v", tt.in, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("unmarshal %q = %v, want %v", tt.in, got, tt.want)
		}
	}

	var bad NameList
	if err := json.Unmarshal([]byte(`42`), &bad); err == nil {
		t.Fatal("expected error for numeric input")
	}
}

func TestCanonicalPayloadStable(t *testing.T) {
	t.Parallel()
	approvalID := uuid.New()
	req := InheritanceRequest{
		ParentName: "Duvar Rafi",
		CostMap:    map[string]string{"30x30": "M-8 Kutu", "*": "M-13 Kutu"},
		WeightMap:  map[string]json.Number{"30x30": "2.5"},
		KaplamaNameMap: map[string]NameList{
			"Duvar Rafi||other": {"Beyaz Boya"},
		},
	}

	first, err := canonicalPayload(&req)
	if err != nil {
		t.Fatalf("canonicalPayload: %v", err)
	}

	// attaching the approval id must not change the canonical bytes
	withID := req
	withID.ApprovalID = &approvalID
	second, err := canonicalPayload(&withID)
	if err != nil {
		t.Fatalf("canonicalPayload: %v", err)
	}
	if first != second {
		t.Fatalf("payload changed with approval id:\n%s\n%s", first, second)
	}

	// a changed selection must change the bytes
	changed := req
	changed.CostMap = map[string]string{"30x30": "M-9 Kutu", "*": "M-13 Kutu"}
	third, err := canonicalPayload(&changed)
	if err != nil {
		t.Fatalf("canonicalPayload: %v", err)
	}
	if first == third {
		t.Fatal("different requests produced identical payloads")
	}
}

func TestCostStageDedupe(t *testing.T) {
	t.Parallel()
	stage := newCostStage()
	stage.add("MET-001", "Eskitme")
	stage.add("MET-001", "ESKITME") // case-insensitive duplicate, first wins
	stage.add("MET-001", "Vernik")
	stage.add("MET-002", "Eskitme")
	stage.add("", "Eskitme")
	stage.add("MET-003", "   ")

	got := stage.flush()
	want := []struct {
		sku, name string
	}{
		{"MET-001", "Eskitme"},
		{"MET-001", "Vernik"},
		{"MET-002", "Eskitme"},
	}
	if len(got) != len(want) {
		t.Fatalf("flush len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].ChildSKU != w.sku || got[i].CostName != w.name || !got[i].Assigned {
			t.Fatalf("flush[%d] = %+v, want {%s %s true}", i, got[i], w.sku, w.name)
		}
	}
}

func TestMaterialStageLastWins(t *testing.T) {
	t.Parallel()
	matA, matB := uuid.New(), uuid.New()
	stage := newMaterialStage()
	stage.add("MET-001", matA, 1.0)
	stage.add("MET-001", matB, 2.0)
	stage.add("MET-001", matA, 3.0) // overwrite in place
	stage.add("", matA, 9.0)

	got := stage.flush()
	if len(got) != 2 {
		t.Fatalf("flush len = %d, want 2 (%v)", len(got), got)
	}
	if got[0].MaterialID != matA || got[0].Quantity != 3.0 {
		t.Fatalf("flush[0] = %+v, want material %s qty 3", got[0], matA)
	}
	if got[1].MaterialID != matB || got[1].Quantity != 2.0 {
		t.Fatalf("flush[1] = %+v, want material %s qty 2", got[1], matB)
	}
}

func TestManualMaterialList(t *testing.T) {
	t.Parallel()
	manualID, autoID, zeroID := uuid.New(), uuid.New(), uuid.New()
	raw := map[string]float64{
		manualID.String():     2.5,
		" " + autoID.String(): 1.0, // auto-covered, dropped
		"not-a-uuid":          1.0,
		zeroID.String():       0, // copied as sent
	}

	got := manualMaterialList(raw, map[uuid.UUID]struct{}{autoID: {}})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (%v)", len(got), got)
	}
	byID := make(map[uuid.UUID]float64, len(got))
	for _, m := range got {
		byID[m.id] = m.qty
	}
	if byID[manualID] != 2.5 {
		t.Fatalf("manual qty = %v, want 2.5", byID[manualID])
	}
	if qty, ok := byID[zeroID]; !ok || qty != 0 {
		t.Fatalf("zero qty entry = %v/%v, want 0/true", qty, ok)
	}
}

func TestStageChildMaterialsAutoLines(t *testing.T) {
	t.Parallel()
	alan := 2.0
	strafor := &model.RawMaterial{ID: uuid.New(), Name: "Strafor"}
	boya := &model.RawMaterial{ID: uuid.New(), Name: "Boya + İşçilik"}
	sacID, mdfID := uuid.New(), uuid.New()
	auto := autoMaterials{strafor: strafor, boya: boya, sacID: &sacID, mdfID: &mdfID}

	stage := newMaterialStage()
	child := &model.Product{ChildSKU: "MET-001", AlanM2: &alan}
	summary := stageChildMaterials(stage, child, auto, nil)

	want := map[string]float64{
		"Strafor":        2.4, // alan * 1.2
		"Boya + İşçilik": 10,  // alan * 5
		"sac":            2,
		"mdf":            2,
	}
	if !reflect.DeepEqual(summary, want) {
		t.Fatalf("summary = %v, want %v", summary, want)
	}
	if got := len(stage.flush()); got != 4 {
		t.Fatalf("staged %d rows, want 4", got)
	}

	// no stored area means no auto lines
	stage = newMaterialStage()
	if summary := stageChildMaterials(stage, &model.Product{ChildSKU: "MET-002"}, auto, nil); summary != nil {
		t.Fatalf("summary without area = %v, want nil", summary)
	}

	// a stored zero area still stages zero-quantity rows
	zero := 0.0
	stage = newMaterialStage()
	summary = stageChildMaterials(stage, &model.Product{ChildSKU: "MET-003", AlanM2: &zero}, auto, nil)
	if summary["Strafor"] != 0 || summary["sac"] != 0 {
		t.Fatalf("zero-area summary = %v", summary)
	}
	if got := len(stage.flush()); got != 4 {
		t.Fatalf("staged %d rows, want 4", got)
	}
}

func TestResultTruncate(t *testing.T) {
	t.Parallel()
	result := &InheritanceResult{
		UpdatedCount: 3,
		SkippedCount: 1,
		Updated: []UpdatedChild{
			{ChildSKU: "A"}, {ChildSKU: "B"}, {ChildSKU: "C"},
		},
		Skipped: []SkippedChild{{ChildSKU: "D", Reason: skipNoKargoMapping}},
	}
	result.truncate(2)

	if len(result.Updated) != 2 || !result.UpdatedTruncated {
		t.Fatalf("updated = %v truncated=%v", result.Updated, result.UpdatedTruncated)
	}
	if len(result.Skipped) != 1 || result.SkippedTruncated {
		t.Fatalf("skipped = %v truncated=%v", result.Skipped, result.SkippedTruncated)
	}
	// counts are untouched by truncation
	if result.UpdatedCount != 3 || result.SkippedCount != 1 {
		t.Fatalf("counts = %d/%d, want 3/1", result.UpdatedCount, result.SkippedCount)
	}
}
