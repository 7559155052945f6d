package storage

import (
	"context"

	"immosearch/models"
)

// ListingWriter is the interface any archive backend must satisfy.
type ListingWriter interface {
	Write(ctx context.Context, listings []*models.Listing) error
	Close() error
}

// ListingReader reads archived listings back.
type ListingReader interface {
	FetchAll(ctx context.Context) ([]*models.Listing, error)
}

// RawListingWriter is the interface for persisting extracted, unnormalized
// candidates.
type RawListingWriter interface {
	WriteRaw(listings []models.RawListing) error
	Close() error
}
