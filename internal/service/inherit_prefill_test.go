package service

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func TestVoteCounterWinner(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		votes  []string
		want   string
		wantOK bool
	}{
		{name: "empty", votes: nil, want: "", wantOK: false},
		{name: "blank votes ignored", votes: []string{"", ""}, want: "", wantOK: false},
		{name: "majority wins", votes: []string{"M-8", "M-12", "M-8"}, want: "M-8", wantOK: true},
		{name: "tie breaks alphabetically", votes: []string{"Vernik", "Beyaz Boya"}, want: "Beyaz Boya", wantOK: true},
		{name: "tie casefolds", votes: []string{"vernik", "Eskitme"}, want: "Eskitme", wantOK: true},
		{name: "single vote", votes: []string{"S-1"}, want: "S-1", wantOK: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := newVoteCounter()
			for _, vote := range tt.votes {
				v.add(vote)
			}
			got, ok := v.winner()
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("winner() = %q/%v, want %q/%v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestVoteCounterRanked(t *testing.T) {
	t.Parallel()

	v := newVoteCounter()
	for _, vote := range []string{"Eskitme", "Vernik", "Vernik", "Boya", "Eskitme", "Vernik"} {
		v.add(vote)
	}
	// Vernik 3, Eskitme 2, Boya 1
	want := []string{"Vernik", "Eskitme", "Boya"}
	if got := v.ranked(); !reflect.DeepEqual(got, want) {
		t.Fatalf("ranked() = %v, want %v", got, want)
	}
}

func TestVoteCounterRankedTies(t *testing.T) {
	t.Parallel()

	v := newVoteCounter()
	for _, vote := range []string{"vernik", "Eskitme", "Eskitme", "vernik", "Boya"} {
		v.add(vote)
	}
	// equal counts order casefolded alphabetically
	want := []string{"Eskitme", "vernik", "Boya"}
	if got := v.ranked(); !reflect.DeepEqual(got, want) {
		t.Fatalf("ranked() = %v, want %v", got, want)
	}
}

func TestMaterialNameFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		strafor     bool
		boyaIscilik bool
		sac         bool
		mdf         bool
	}{
		{name: "Saç Levha", sac: true},
		{name: "  sac 2mm", sac: true},
		{name: "MDF 18mm", mdf: true},
		{name: "Strafor Köşe", strafor: true},
		{name: "Boya + İşçilik", boyaIscilik: true},
		{name: "boya ve iscilik", boyaIscilik: true},
		{name: "Boya Fırçası"},
		{name: "Vida"},
		{name: "Kesim Saçı"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			strafor, boyaIscilik, sac, mdf := materialNameFlags(tt.name)
			if strafor != tt.strafor || boyaIscilik != tt.boyaIscilik || sac != tt.sac || mdf != tt.mdf {
				t.Fatalf("materialNameFlags(%q) = %v/%v/%v/%v, want %v/%v/%v/%v",
					tt.name, strafor, boyaIscilik, sac, mdf, tt.strafor, tt.boyaIscilik, tt.sac, tt.mdf)
			}
		})
	}
}

func TestPickAutoMaterial(t *testing.T) {
	t.Parallel()

	a := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	b := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	// area-match count beats presence
	got := pickAutoMaterial(
		map[uuid.UUID]int{a: 3, b: 1},
		map[uuid.UUID]int{a: 3, b: 5},
	)
	if got == nil || *got != a {
		t.Fatalf("picked %v, want %v", got, a)
	}

	// equal matches fall back to presence
	got = pickAutoMaterial(
		map[uuid.UUID]int{a: 2, b: 2},
		map[uuid.UUID]int{a: 2, b: 4},
	)
	if got == nil || *got != b {
		t.Fatalf("picked %v, want %v", got, b)
	}

	// no area match but a single present candidate
	got = pickAutoMaterial(nil, map[uuid.UUID]int{b: 1})
	if got == nil || *got != b {
		t.Fatalf("picked %v, want %v", got, b)
	}

	// several present candidates without a match is ambiguous
	if got = pickAutoMaterial(nil, map[uuid.UUID]int{a: 1, b: 1}); got != nil {
		t.Fatalf("picked %v, want nil", got)
	}

	if got = pickAutoMaterial(nil, nil); got != nil {
		t.Fatalf("picked %v, want nil", got)
	}
}

func TestModalValue(t *testing.T) {
	t.Parallel()

	if _, ok := modalValue(nil); ok {
		t.Fatal("modalValue(nil) reported a value")
	}
	got, ok := modalValue(map[float64]int{2.5: 2, 1.5: 2, 4: 1})
	if !ok || got != 1.5 {
		t.Fatalf("modalValue = %v/%v, want 1.5/true", got, ok)
	}
	// zero quantities are real votes, not gaps
	got, ok = modalValue(map[float64]int{0: 3, 2: 1})
	if !ok || got != 0 {
		t.Fatalf("modalValue = %v/%v, want 0/true", got, ok)
	}
}
