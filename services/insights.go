package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"immosearch/models"
	"immosearch/utils"
)

const topFeatures = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarises listings. stats may be nil when the listings were not
// produced by a search (e.g. read back from the archive).
func (s *InsightService) Generate(listings []*models.Listing, stats []models.SourceStats) *models.InsightReport {
	report := &models.InsightReport{
		BySource:       make(map[string]int),
		ByPropertyType: make(map[string]int),
		ByTransaction:  make(map[string]int),
		ByLocation:     make(map[string]int),
		SourceStats:    stats,
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var (
		priceTotal   int64
		priced       int
		surfaceTotal int
		surfaced     int
	)
	featureCounts := make(map[string]int)

	for _, l := range listings {
		report.BySource[l.Source]++
		report.ByPropertyType[l.PropertyType]++
		report.ByTransaction[l.TransactionType]++
		if l.Location != "" {
			report.ByLocation[l.Location]++
		}
		for _, f := range l.Features {
			featureCounts[f]++
		}

		if l.Surface > 0 {
			surfaceTotal += l.Surface
			surfaced++
		}

		if l.Price <= 0 {
			continue
		}
		if priced == 0 || l.Price < report.MinPrice {
			report.MinPrice = l.Price
		}
		if priced == 0 || l.Price > report.MaxPrice {
			report.MaxPrice = l.Price
			report.MostExpensive = l
		}
		priceTotal += l.Price
		priced++
	}

	if priced > 0 {
		report.AveragePrice = round2(float64(priceTotal) / float64(priced))
	}
	if surfaced > 0 {
		report.AverageSurface = round2(float64(surfaceTotal) / float64(surfaced))
	}

	for f, n := range featureCounts {
		report.TopFeatures = append(report.TopFeatures, models.FeatureCount{Feature: f, Count: n})
	}
	sort.Slice(report.TopFeatures, func(i, j int) bool {
		a, b := report.TopFeatures[i], report.TopFeatures[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Feature < b.Feature
	})
	if len(report.TopFeatures) > topFeatures {
		report.TopFeatures = report.TopFeatures[:topFeatures]
	}

	s.logger.Debug("[insights] %d listings, %d priced, %d with surface", len(listings), priced, surfaced)
	return report
}

// Print writes the report to w with French number formatting.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	p := message.NewPrinter(language.French)
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	p.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	p.Fprintf(w, "\033[1;35m  🏝️  IMMOSEARCH HARVEST INSIGHTS\033[0m\n")
	p.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	p.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	p.Fprintf(w, "  %s\n", thin)
	p.Fprintf(w, "  Total listings : \033[1m%d\033[0m\n", r.TotalListings)
	for _, k := range sortedKeys(r.ByTransaction) {
		p.Fprintf(w, "  %-14s : %d\n", k, r.ByTransaction[k])
	}
	fmt.Fprintln(w)

	if len(r.SourceStats) > 0 {
		p.Fprintf(w, "\033[1;33m  Sources\033[0m\n")
		p.Fprintf(w, "  %s\n", thin)
		for _, st := range r.SourceStats {
			p.Fprintf(w, "  %-22s pages %d ok / %d failed, %d candidates, %d listings\n",
				truncate(st.SourceID, 22), st.UnitsOK, st.UnitsFailed, st.Candidates, st.Listings)
		}
		fmt.Fprintln(w)
	}

	// Price Stats
	p.Fprintf(w, "\033[1;33m  Price Statistics (XPF)\033[0m\n")
	p.Fprintf(w, "  %s\n", thin)
	if r.AveragePrice > 0 {
		p.Fprintf(w, "  Average price : \033[1;32m%.0f\033[0m\n", r.AveragePrice)
		p.Fprintf(w, "  Minimum price : \033[1;32m%d\033[0m\n", r.MinPrice)
		p.Fprintf(w, "  Maximum price : \033[1;32m%d\033[0m\n", r.MaxPrice)
	} else {
		p.Fprintf(w, "  No price data available\n")
	}
	if r.AverageSurface > 0 {
		p.Fprintf(w, "  Average surface : %.1f m²\n", r.AverageSurface)
	}
	fmt.Fprintln(w)

	if r.MostExpensive != nil {
		p.Fprintf(w, "\033[1;33m  Most Expensive Listing\033[0m\n")
		p.Fprintf(w, "  %s\n", thin)
		p.Fprintf(w, "  %s\n", truncate(r.MostExpensive.Title, 50))
		p.Fprintf(w, "  Location : %s\n", r.MostExpensive.Location)
		p.Fprintf(w, "  Price    : \033[1;31m%d XPF\033[0m\n", r.MostExpensive.Price)
		fmt.Fprintln(w)
	}

	p.Fprintf(w, "\033[1;33m  Property Types\033[0m\n")
	p.Fprintf(w, "  %s\n", thin)
	printBars(w, p, r.ByPropertyType)

	if len(r.TopFeatures) > 0 {
		p.Fprintf(w, "\033[1;33m  Top Features\033[0m\n")
		p.Fprintf(w, "  %s\n", thin)
		for i, fc := range r.TopFeatures {
			p.Fprintf(w, "  \033[1m%d.\033[0m %-20s %d\n", i+1, fc.Feature, fc.Count)
		}
		fmt.Fprintln(w)
	}

	p.Fprintf(w, "\033[1;33m  Listings by Location\033[0m\n")
	p.Fprintf(w, "  %s\n", thin)
	if len(r.ByLocation) == 0 {
		p.Fprintf(w, "  No location data\n")
		fmt.Fprintln(w)
	} else {
		printBars(w, p, r.ByLocation)
	}

	p.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)
}

// printBars prints one bar per key, largest count first.
func printBars(w io.Writer, p *message.Printer, counts map[string]int) {
	type keyCount struct {
		key   string
		count int
	}
	var rows []keyCount
	for k, n := range counts {
		rows = append(rows, keyCount{k, n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].key < rows[j].key
	})
	for _, kc := range rows {
		bar := strings.Repeat("█", min(kc.count, 40))
		p.Fprintf(w, "  %-30s %s (%d)\n", truncate(kc.key, 28), bar, kc.count)
	}
	fmt.Fprintln(w)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
