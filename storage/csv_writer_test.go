package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"immosearch/models"
)

func TestCSVWriterWritesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "raw.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	raw := []models.RawListing{
		{Source: "petitesannonces-pf", Category: 2, Title: "Villa, vue mer", PriceText: "45 000 000 XPF",
			Location: "Punaauia", DetailURL: "https://www.petites-annonces.pf/annonce.php?id=1", ScrapedAt: at},
		{Source: "petitesannonces-pf", Category: 6, Title: "Studio \"meublé\"", ScrapedAt: at},
	}
	if err := w.WriteRaw(raw); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	want := [][]string{
		csvHeader,
		{"petitesannonces-pf", "2", "Villa, vue mer", "45 000 000 XPF", "Punaauia", "",
			"https://www.petites-annonces.pf/annonce.php?id=1", "", "2024-03-01T09:30:00Z"},
		{"petitesannonces-pf", "6", "Studio \"meublé\"", "", "", "", "", "", "2024-03-01T09:30:00Z"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVWriterHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	if err := w.WriteRaw(nil); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(b); got != "source,category,title,price_text,location,image_url,detail_url,description,scraped_at\n" {
		t.Errorf("file = %q", got)
	}
}
