package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"immosearch/models"
	"immosearch/utils"
)

func titles(ls []*models.Listing) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.Title)
	}
	return out
}

func TestDedupeByURL(t *testing.T) {
	d := NewDeduplicator(utils.NewTestLogger())
	in := []*models.Listing{
		{Title: "A", Price: 100000, URL: "https://www.petites-annonces.pf/annonce.php?id=1"},
		{Title: "B", Price: 200000, URL: "https://www.petites-annonces.pf/annonce.php?id=2"},
		{Title: "A bis", Price: 100000, URL: "https://www.petites-annonces.pf/annonce.php?id=1"},
	}

	got := d.Dedupe(in)

	if diff := cmp.Diff([]string{"A", "B"}, titles(got)); diff != "" {
		t.Errorf("dedupe mismatch (-want +got):\n%s", diff)
	}
}

func TestDedupeFallsBackToTitleAndPrice(t *testing.T) {
	d := NewDeduplicator(utils.NewTestLogger())
	in := []*models.Listing{
		{Title: "Villa Moorea", Price: 90000000, Description: "first"},
		{Title: "Villa Moorea", Price: 85000000, Description: "price differs"},
		{Title: "Villa Moorea", Price: 90000000, Description: "second"},
		{Title: "Villa Moorea", Price: 90000000, URL: "https://x.pf/1", Description: "has url"},
	}

	got := d.Dedupe(in)

	var descs []string
	for _, l := range got {
		descs = append(descs, l.Description)
	}
	if diff := cmp.Diff([]string{"first", "price differs", "has url"}, descs); diff != "" {
		t.Errorf("dedupe mismatch (-want +got):\n%s", diff)
	}
}

func TestDedupeIdempotent(t *testing.T) {
	d := NewDeduplicator(utils.NewTestLogger())
	in := []*models.Listing{
		{Title: "A", Price: 1, URL: "u1"},
		{Title: "B", Price: 2},
		{Title: "A", Price: 1, URL: "u1"},
		{Title: "B", Price: 2},
	}

	once := d.Dedupe(in)
	twice := d.Dedupe(once)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second pass changed the result (-once +twice):\n%s", diff)
	}
}

func TestDedupeEmpty(t *testing.T) {
	d := NewDeduplicator(utils.NewTestLogger())
	if got := d.Dedupe(nil); len(got) != 0 {
		t.Errorf("expected no listings, got %d", len(got))
	}
}
