package verse

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDedupe(t *testing.T) {
	records := []Verse{
		{Order: 1, Content: "Amazing grace how sweet the sound", Label: "v1", Type: TypeVerse},
		{Order: 2, Content: "Chorus", Label: "c1", Type: TypeChorus},
		{Order: 3, Content: "Amazing grace", Label: "v1", Type: TypeVerse},
		{Order: 4, Content: "Chorus with the full text", Label: "Chorus 1", Type: TypeChorus},
	}

	want := []Verse{
		{Order: 1, Content: "Amazing grace how sweet the sound", Label: "v1", Type: TypeVerse, SourceID: "v1"},
		{Order: 4, Content: "Chorus with the full text", Label: "Chorus 1", Type: TypeChorus, SourceID: "c1"},
	}
	if diff := cmp.Diff(want, Dedupe(records)); diff != "" {
		t.Errorf("Dedupe() mismatch (-want +got):\n%s", diff)
	}
}

func TestDedupeTieKeepsFirst(t *testing.T) {
	records := []Verse{
		{Order: 1, Content: "same length A", Label: "v1", Type: TypeVerse},
		{Order: 2, Content: "same length B", Label: "v1", Type: TypeVerse},
	}
	got := Dedupe(records)
	if len(got) != 1 || got[0].Content != "same length A" {
		t.Errorf("expected first record to win the tie, got %+v", got)
	}
}

func TestDedupeTrimmedLength(t *testing.T) {
	records := []Verse{
		{Order: 1, Content: "short", Label: "v1", Type: TypeVerse},
		{Order: 2, Content: "tiny     \n\n\n\n\n\n", Label: "v1", Type: TypeVerse},
	}
	got := Dedupe(records)
	if got[0].Content != "short" {
		t.Errorf("expected trailing whitespace to be ignored, got %q", got[0].Content)
	}
}

func TestDedupeIdempotent(t *testing.T) {
	expanded, err := Expand("v1 c1 v2 c1 c1", []Verse{amazingV1, amazingC1, amazingV2})
	if err != nil {
		t.Fatal(err)
	}
	once := Dedupe(expanded)
	twice := Dedupe(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("Dedupe is not idempotent (-once +twice):\n%s", diff)
	}
	if len(once) != 3 {
		t.Errorf("expected 3 unique sources, got %d", len(once))
	}
}

func TestDedupePlainText(t *testing.T) {
	got := Dedupe(Parse("A\n\nB\n\nC"))
	if len(got) != 3 {
		t.Fatalf("expected unlabelled plain verses to stay distinct, got %d", len(got))
	}
	for i, id := range []string{"v1", "v2", "v3"} {
		if got[i].SourceID != id {
			t.Errorf("record %d: expected source id %s, got %s", i, id, got[i].SourceID)
		}
	}
}
