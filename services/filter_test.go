package services

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"immosearch/models"
)

func ptr[T any](v T) *T { return &v }

func filterFixture() []*models.Listing {
	mk := func(title string, price int64, surface int, prop, tx, loc string) *models.Listing {
		return &models.Listing{
			Title: title, Price: price, Surface: surface,
			PropertyType: prop, Type: prop, TransactionType: tx, Location: loc,
		}
	}
	return []*models.Listing{
		mk("L01", 50000, 20, models.PropertyApartment, models.TransactionRent, "Papeete"),
		mk("L02", 100000, 35, models.PropertyApartment, models.TransactionRent, "Papeete"),
		mk("L03", 250000, 90, models.PropertyVilla, models.TransactionRent, "Punaauia"),
		mk("L04", 99999, 40, models.PropertyHouse, models.TransactionRent, "Faaa"),
		mk("L05", 500000, 150, models.PropertyVilla, models.TransactionRent, "Moorea"),
		mk("L06", 500001, 120, models.PropertyHouse, models.TransactionRent, "Papeete"),
		mk("L07", 8000000, 1200, models.PropertyLand, models.TransactionSale, "Taravao"),
		mk("L08", 180000, 60, models.PropertyCommercial, models.TransactionRent, "Pirae"),
		mk("L09", 25000000, 85, models.PropertyApartment, models.TransactionSale, "Papeete"),
		mk("L10", 420000, 0, models.PropertyHouse, models.TransactionRent, "Arue"),
	}
}

func TestFilterPriceRangePreservesOrder(t *testing.T) {
	got := Filter(filterFixture(), models.FilterSpec{MinPrice: ptr[int64](100000), MaxPrice: ptr[int64](500000)})

	want := []string{"L02", "L03", "L05", "L08", "L10"}
	if diff := cmp.Diff(want, titles(got)); diff != "" {
		t.Errorf("filtered listings mismatch (-want +got):\n%s", diff)
	}
	for _, l := range got {
		if l.Price < 100000 || l.Price > 500000 {
			t.Errorf("%s: price %d outside [100000, 500000]", l.Title, l.Price)
		}
	}
}

func TestFilterCriteria(t *testing.T) {
	tests := []struct {
		name string
		spec models.FilterSpec
		want []string
	}{
		{"empty spec keeps all", models.FilterSpec{},
			[]string{"L01", "L02", "L03", "L04", "L05", "L06", "L07", "L08", "L09", "L10"}},
		{"all sentinels keep all", models.FilterSpec{TransactionType: "all", PropertyType: "all", Location: "all"},
			[]string{"L01", "L02", "L03", "L04", "L05", "L06", "L07", "L08", "L09", "L10"}},
		{"transaction", models.FilterSpec{TransactionType: models.TransactionSale},
			[]string{"L07", "L09"}},
		{"property type", models.FilterSpec{PropertyType: models.PropertyVilla},
			[]string{"L03", "L05"}},
		{"location exact", models.FilterSpec{Location: "Papeete"},
			[]string{"L01", "L02", "L06", "L09"}},
		{"location is case sensitive", models.FilterSpec{Location: "papeete"},
			[]string{}},
		{"surface range", models.FilterSpec{MinSurface: ptr(60), MaxSurface: ptr(120)},
			[]string{"L03", "L06", "L08", "L09"}},
		{"criteria are ANDed", models.FilterSpec{
			TransactionType: models.TransactionRent, Location: "Papeete", MaxPrice: ptr[int64](100000)},
			[]string{"L01", "L02"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(filterFixture(), tt.spec)
			if diff := cmp.Diff(tt.want, titles(got)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterMatchesLegacyTypeAlias(t *testing.T) {
	l := &models.Listing{Title: "Old record", PropertyType: "", Type: models.PropertyLand}

	if !Matches(l, models.FilterSpec{PropertyType: models.PropertyLand}) {
		t.Error("listing with only the legacy type field should match")
	}
	if Matches(l, models.FilterSpec{PropertyType: models.PropertyVilla}) {
		t.Error("listing should not match a different type")
	}
}

func TestParseFilterSpec(t *testing.T) {
	q := url.Values{
		"transactionType": {"rent"},
		"propertyType":    {"all"},
		"location":        {" Papeete "},
		"minPrice":        {"100000"},
		"maxPrice":        {"abc"},
		"minSurface":      {"30"},
		"maxSurface":      {""},
	}

	got := ParseFilterSpec(q)

	want := models.FilterSpec{
		TransactionType: "rent",
		PropertyType:    "all",
		Location:        "Papeete",
		MinPrice:        ptr[int64](100000),
		MinSurface:      ptr(30),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseFilterSpec mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSourceIDs(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", nil},
		{"sources=all", nil},
		{"sources=petitesannonces-pf", []string{"petitesannonces-pf"}},
		{"sources=a,%20b,,c", []string{"a", "b", "c"}},
		{"sources=a&sources=b", []string{"a", "b"}},
	}

	for _, tt := range tests {
		q, err := url.ParseQuery(tt.query)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(tt.want, ParseSourceIDs(q)); diff != "" {
			t.Errorf("ParseSourceIDs(%q) mismatch (-want +got):\n%s", tt.query, diff)
		}
	}
}
