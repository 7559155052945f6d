package models

import (
	"strconv"
	"time"
)

// Property types.
const (
	PropertyHouse      = "house"
	PropertyApartment  = "apartment"
	PropertyVilla      = "villa"
	PropertyLand       = "land"
	PropertyCommercial = "commercial"
)

// Transaction types.
const (
	TransactionSale = "sale"
	TransactionRent = "rent"
)

// Price sanity bounds in XPF.
const (
	MinPrice int64 = 50_000
	MaxPrice int64 = 1_000_000_000
)

// RawListing holds the text pulled out of one candidate before any
// normalization. It is written to CSV by the harvest command.
type RawListing struct {
	Source      string
	Category    int
	Title       string
	PriceText   string
	Location    string
	ImageURL    string
	DetailURL   string
	Description string
	Text        string
	ScrapedAt   time.Time
}

// Listing is one validated, normalized listing returned to clients.
type Listing struct {
	ID              string    `json:"id"`
	Source          string    `json:"source"`
	SourceName      string    `json:"sourceName"`
	SourceColor     string    `json:"sourceColor"`
	Title           string    `json:"title"`
	Price           int64     `json:"price"`
	PriceText       string    `json:"priceText"`
	PriceNormalized int64     `json:"priceNormalized"`
	Location        string    `json:"location"`
	Surface         int       `json:"surface"`
	Rooms           int       `json:"rooms"`
	PropertyType    string    `json:"propertyType"`
	Type            string    `json:"type"`
	TransactionType string    `json:"transactionType"`
	Features        []string  `json:"features"`
	ImageURL        string    `json:"imageUrl"`
	URL             string    `json:"url"`
	Description     string    `json:"description"`
	DateAdded       time.Time `json:"dateAdded"`
}

// FilterSpec is the set of optional search criteria. "all" or an empty
// string disables a string criterion; nil disables a bound.
type FilterSpec struct {
	TransactionType string
	PropertyType    string
	Location        string
	MinPrice        *int64
	MaxPrice        *int64
	MinSurface      *int
	MaxSurface      *int
}

// InsightReport summarises a harvested dataset.
type InsightReport struct {
	TotalListings  int
	BySource       map[string]int
	ByPropertyType map[string]int
	ByTransaction  map[string]int
	ByLocation     map[string]int
	AveragePrice   float64
	MinPrice       int64
	MaxPrice       int64
	MostExpensive  *Listing
	AverageSurface float64
	TopFeatures    []FeatureCount
	SourceStats    []SourceStats
}

// FeatureCount is how many listings carry one feature tag.
type FeatureCount struct {
	Feature string
	Count   int
}

// DedupKey identifies a listing across categories and sources: the detail
// URL when known, otherwise title and price.
func (l *Listing) DedupKey() string {
	if l.URL != "" {
		return l.URL
	}
	return l.Title + "-" + strconv.FormatInt(l.Price, 10)
}
