package vfs

import (
	"testing"
	"time"

	"github.com/pbaille/rolodex/internal/domain"
)

func ix(id int64, date string) domain.Interaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return domain.Interaction{ID: id, Date: d}
}

func TestDateSlugsSingleInteraction(t *testing.T) {
	slugs := DateSlugs([]domain.Interaction{ix(1, "2025-09-05")})

	if len(slugs) != 1 {
		t.Fatalf("expected 1 slug, got %d", len(slugs))
	}
	got, ok := slugs["2025-09-05"]
	if !ok {
		t.Fatalf("expected bare date slug, got %v", slugs)
	}
	if got.ID != 1 {
		t.Errorf("slug maps to interaction %d, want 1", got.ID)
	}
}

func TestDateSlugsSameDayCollision(t *testing.T) {
	// Three interactions on one day: the lowest id keeps the bare date,
	// the rest get _2 and _3 in id order.
	slugs := DateSlugs([]domain.Interaction{
		ix(7, "2025-09-05"),
		ix(3, "2025-09-05"),
		ix(5, "2025-09-05"),
	})

	want := map[string]int64{
		"2025-09-05":   3,
		"2025-09-05_2": 5,
		"2025-09-05_3": 7,
	}
	if len(slugs) != len(want) {
		t.Fatalf("expected %d slugs, got %d: %v", len(want), len(slugs), slugs)
	}
	for slug, id := range want {
		got, ok := slugs[slug]
		if !ok {
			t.Errorf("missing slug %s", slug)
			continue
		}
		if got.ID != id {
			t.Errorf("slug %s maps to %d, want %d", slug, got.ID, id)
		}
	}
}

func TestDateSlugsInputOrderIndependent(t *testing.T) {
	a := []domain.Interaction{ix(10, "2025-09-05"), ix(14, "2025-09-05"), ix(20, "2025-09-06")}
	b := []domain.Interaction{ix(20, "2025-09-06"), ix(14, "2025-09-05"), ix(10, "2025-09-05")}

	slugsA := DateSlugs(a)
	slugsB := DateSlugs(b)

	if len(slugsA) != len(slugsB) {
		t.Fatalf("slug counts differ: %d vs %d", len(slugsA), len(slugsB))
	}
	for slug, ixA := range slugsA {
		ixB, ok := slugsB[slug]
		if !ok {
			t.Errorf("slug %s missing from reordered input", slug)
			continue
		}
		if ixA.ID != ixB.ID {
			t.Errorf("slug %s: %d vs %d", slug, ixA.ID, ixB.ID)
		}
	}

	want := map[string]int64{
		"2025-09-05":   10,
		"2025-09-05_2": 14,
		"2025-09-06":   20,
	}
	for slug, id := range want {
		if got := slugsA[slug]; got.ID != id {
			t.Errorf("slug %s maps to %d, want %d", slug, got.ID, id)
		}
	}
}

func TestDateSlugsDistinctPerInteraction(t *testing.T) {
	interactions := []domain.Interaction{
		ix(1, "2025-01-01"),
		ix(2, "2025-01-01"),
		ix(3, "2025-01-01"),
		ix(4, "2025-01-02"),
		ix(5, "2025-03-15"),
	}
	slugs := DateSlugs(interactions)

	if len(slugs) != len(interactions) {
		t.Fatalf("expected one slug per interaction, got %d for %d", len(slugs), len(interactions))
	}
	seen := make(map[int64]bool)
	for _, ix := range slugs {
		if seen[ix.ID] {
			t.Errorf("interaction %d appears under two slugs", ix.ID)
		}
		seen[ix.ID] = true
	}
}

func TestSlugFor(t *testing.T) {
	interactions := []domain.Interaction{
		ix(10, "2025-09-05"),
		ix(14, "2025-09-05"),
		ix(20, "2025-09-06"),
	}

	slug, ok := SlugFor(interactions, 14)
	if !ok {
		t.Fatal("expected slug for interaction 14")
	}
	if slug != "2025-09-05_2" {
		t.Errorf("slug = %q, want 2025-09-05_2", slug)
	}

	if _, ok := SlugFor(interactions, 99); ok {
		t.Error("expected no slug for unknown id")
	}
}
