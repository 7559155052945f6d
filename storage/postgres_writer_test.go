package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/lib/pq"

	"immosearch/models"
	"immosearch/utils"
)

var (
	_ ListingWriter    = (*PostgresWriter)(nil)
	_ ListingReader    = (*PostgresWriter)(nil)
	_ RawListingWriter = (*CSVWriter)(nil)
)

func TestToRowDedupKey(t *testing.T) {
	tests := []struct {
		name    string
		listing models.Listing
		want    string
	}{
		{"url wins", models.Listing{Title: "Villa Moorea", Price: 90000000, URL: "https://x.pf/1"}, "https://x.pf/1"},
		{"title and price", models.Listing{Title: "Villa Moorea", Price: 90000000}, "Villa Moorea-90000000"},
	}

	for _, tt := range tests {
		if got := toRow(&tt.listing).DedupKey; got != tt.want {
			t.Errorf("%s: dedup key = %q; want %q", tt.name, got, tt.want)
		}
	}
}

func TestToRowNeverStoresNullFeatures(t *testing.T) {
	row := toRow(&models.Listing{Title: "Terrain Taravao"})
	if row.Features == nil {
		t.Fatal("features must be an empty array, not NULL")
	}
}

func TestRowRestoresListing(t *testing.T) {
	at := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	row := listingRow{
		ListingID: "pa-1-0", Source: "petitesannonces-pf", SourceName: "PetitesAnnonces.pf",
		Title: "Appartement F3", Price: 25000000, PriceText: "25 000 000 XPF", Location: "Papeete",
		Surface: 85, Rooms: 3, PropertyType: models.PropertyApartment, TransactionType: models.TransactionSale,
		Features: pq.StringArray{"terrace"}, URL: "https://x.pf/1", DateAdded: at,
	}

	got := row.toListing()

	if got.Type != models.PropertyApartment || got.PriceNormalized != 25000000 {
		t.Errorf("derived fields: Type=%q PriceNormalized=%d", got.Type, got.PriceNormalized)
	}
	if diff := cmp.Diff([]string{"terrace"}, got.Features); diff != "" {
		t.Errorf("features mismatch (-want +got):\n%s", diff)
	}
}

// TestPostgresRoundTrip needs a live database: set IMMOSEARCH_TEST_DSN.
func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("IMMOSEARCH_TEST_DSN")
	if dsn == "" {
		t.Skip("IMMOSEARCH_TEST_DSN not set")
	}

	ctx := context.Background()
	retry := &utils.RetryConfig{MaxAttempts: 1, BaseDelay: time.Millisecond, Logger: utils.NewTestLogger()}
	pw, err := NewPostgresWriter(ctx, dsn, retry, utils.NewTestLogger())
	if err != nil {
		t.Fatalf("NewPostgresWriter: %v", err)
	}
	defer pw.Close()

	if _, err := pw.db.ExecContext(ctx, "TRUNCATE listings RESTART IDENTITY"); err != nil {
		t.Fatal(err)
	}

	at := time.Now().UTC().Truncate(time.Second)
	in := []*models.Listing{
		{ID: "pa-1-0", Source: "pa", Title: "Villa A", Price: 90000000, URL: "https://x.pf/1",
			PropertyType: models.PropertyVilla, TransactionType: models.TransactionSale, DateAdded: at},
		{ID: "pa-1-1", Source: "pa", Title: "Studio B", Price: 80000,
			PropertyType: models.PropertyApartment, TransactionType: models.TransactionRent, Features: []string{"furnished"}, DateAdded: at},
	}
	if err := pw.Write(ctx, in); err != nil {
		t.Fatalf("Write: %v", err)
	}
	in[0].Price = 85000000
	if err := pw.Write(ctx, in[:1]); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	got, err := pw.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows: got %d, want 2", len(got))
	}
	if got[0].Price != 85000000 {
		t.Errorf("upsert did not update the price: %d", got[0].Price)
	}
}
