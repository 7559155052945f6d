package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"immosearch/models"
	"immosearch/utils"
)

const batchSize = 50

const schema = `
	CREATE TABLE IF NOT EXISTS listings (
		id               SERIAL PRIMARY KEY,
		dedup_key        TEXT         UNIQUE NOT NULL,
		listing_id       TEXT         NOT NULL,
		source           VARCHAR(64)  NOT NULL,
		source_name      TEXT         NOT NULL DEFAULT '',
		title            TEXT         NOT NULL,
		price            BIGINT       NOT NULL,
		price_text       TEXT         NOT NULL DEFAULT '',
		location         TEXT         NOT NULL DEFAULT '',
		surface          INTEGER      NOT NULL DEFAULT 0,
		rooms            INTEGER      NOT NULL DEFAULT 0,
		property_type    VARCHAR(16)  NOT NULL,
		transaction_type VARCHAR(8)   NOT NULL,
		features         TEXT[]       NOT NULL DEFAULT '{}',
		image_url        TEXT         NOT NULL DEFAULT '',
		url              TEXT         NOT NULL DEFAULT '',
		description      TEXT         NOT NULL DEFAULT '',
		date_added       TIMESTAMPTZ  NOT NULL,
		last_seen        TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_listings_price       ON listings(price);
	CREATE INDEX IF NOT EXISTS idx_listings_location    ON listings(location);
	CREATE INDEX IF NOT EXISTS idx_listings_source      ON listings(source);
	CREATE INDEX IF NOT EXISTS idx_listings_transaction ON listings(transaction_type);
`

const upsertQuery = `
	INSERT INTO listings (
		dedup_key, listing_id, source, source_name, title, price, price_text,
		location, surface, rooms, property_type, transaction_type, features,
		image_url, url, description, date_added
	) VALUES (
		:dedup_key, :listing_id, :source, :source_name, :title, :price, :price_text,
		:location, :surface, :rooms, :property_type, :transaction_type, :features,
		:image_url, :url, :description, :date_added
	)
	ON CONFLICT (dedup_key) DO UPDATE SET
		price            = EXCLUDED.price,
		price_text       = EXCLUDED.price_text,
		transaction_type = EXCLUDED.transaction_type,
		features         = EXCLUDED.features,
		description      = EXCLUDED.description,
		last_seen        = NOW()
`

// listingRow is the archived form of a listing.
type listingRow struct {
	DedupKey        string         `db:"dedup_key"`
	ListingID       string         `db:"listing_id"`
	Source          string         `db:"source"`
	SourceName      string         `db:"source_name"`
	Title           string         `db:"title"`
	Price           int64          `db:"price"`
	PriceText       string         `db:"price_text"`
	Location        string         `db:"location"`
	Surface         int            `db:"surface"`
	Rooms           int            `db:"rooms"`
	PropertyType    string         `db:"property_type"`
	TransactionType string         `db:"transaction_type"`
	Features        pq.StringArray `db:"features"`
	ImageURL        string         `db:"image_url"`
	URL             string         `db:"url"`
	Description     string         `db:"description"`
	DateAdded       time.Time      `db:"date_added"`
}

func toRow(l *models.Listing) listingRow {
	features := pq.StringArray(l.Features)
	if features == nil {
		features = pq.StringArray{}
	}
	return listingRow{
		DedupKey:        l.DedupKey(),
		ListingID:       l.ID,
		Source:          l.Source,
		SourceName:      l.SourceName,
		Title:           l.Title,
		Price:           l.Price,
		PriceText:       l.PriceText,
		Location:        l.Location,
		Surface:         l.Surface,
		Rooms:           l.Rooms,
		PropertyType:    l.PropertyType,
		TransactionType: l.TransactionType,
		Features:        features,
		ImageURL:        l.ImageURL,
		URL:             l.URL,
		Description:     l.Description,
		DateAdded:       l.DateAdded,
	}
}

func (r listingRow) toListing() *models.Listing {
	return &models.Listing{
		ID:              r.ListingID,
		Source:          r.Source,
		SourceName:      r.SourceName,
		Title:           r.Title,
		Price:           r.Price,
		PriceText:       r.PriceText,
		PriceNormalized: r.Price,
		Location:        r.Location,
		Surface:         r.Surface,
		Rooms:           r.Rooms,
		PropertyType:    r.PropertyType,
		Type:            r.PropertyType,
		TransactionType: r.TransactionType,
		Features:        []string(r.Features),
		ImageURL:        r.ImageURL,
		URL:             r.URL,
		Description:     r.Description,
		DateAdded:       r.DateAdded,
	}
}

// PostgresWriter archives listings in PostgreSQL, upserting on the dedup key.
type PostgresWriter struct {
	db     *sqlx.DB
	logger *utils.Logger
}

// NewPostgresWriter opens a connection to PostgreSQL, waits for it to answer
// (per retry), runs the schema migration and returns a ready writer.
func NewPostgresWriter(ctx context.Context, dsn string, retry *utils.RetryConfig, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := retry.Do(ctx, "postgres ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db, logger: logger}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, schema)
	return err
}

// Write upserts listings in batches inside one transaction.
func (pw *PostgresWriter) Write(ctx context.Context, listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	tx, err := pw.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := 0; i < len(listings); i += batchSize {
		end := min(i+batchSize, len(listings))
		rows := make([]listingRow, 0, end-i)
		for _, l := range listings[i:end] {
			rows = append(rows, toRow(l))
		}
		if _, err := tx.NamedExecContext(ctx, upsertQuery, rows); err != nil {
			return fmt.Errorf("postgres: upsert batch %d: %w", i/batchSize, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	pw.logger.Info("[postgres] Archived %d listings", len(listings))
	return nil
}

// FetchAll retrieves every archived listing in insertion order.
func (pw *PostgresWriter) FetchAll(ctx context.Context) ([]*models.Listing, error) {
	var rows []listingRow
	err := pw.db.SelectContext(ctx, &rows, `
		SELECT dedup_key, listing_id, source, source_name, title, price, price_text,
		       location, surface, rooms, property_type, transaction_type, features,
		       image_url, url, description, date_added
		FROM listings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}

	listings := make([]*models.Listing, 0, len(rows))
	for _, r := range rows {
		listings = append(listings, r.toListing())
	}
	return listings, nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
