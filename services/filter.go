package services

import (
	"net/url"
	"strconv"
	"strings"

	"immosearch/models"
)

// FilterAll disables a string criterion.
const FilterAll = "all"

// Filter returns the listings matching every criterion of spec, in input
// order.
func Filter(listings []*models.Listing, spec models.FilterSpec) []*models.Listing {
	out := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if Matches(l, spec) {
			out = append(out, l)
		}
	}
	return out
}

// Matches reports whether l satisfies spec. Absent criteria always match.
func Matches(l *models.Listing, spec models.FilterSpec) bool {
	if set(spec.TransactionType) && l.TransactionType != spec.TransactionType {
		return false
	}
	if set(spec.PropertyType) && l.PropertyType != spec.PropertyType && l.Type != spec.PropertyType {
		return false
	}
	if set(spec.Location) && l.Location != spec.Location {
		return false
	}
	if spec.MinPrice != nil && l.Price < *spec.MinPrice {
		return false
	}
	if spec.MaxPrice != nil && l.Price > *spec.MaxPrice {
		return false
	}
	if spec.MinSurface != nil && l.Surface < *spec.MinSurface {
		return false
	}
	if spec.MaxSurface != nil && l.Surface > *spec.MaxSurface {
		return false
	}
	return true
}

func set(v string) bool {
	return v != "" && v != FilterAll
}

// ParseFilterSpec reads search criteria from query parameters. Numbers that
// do not parse are ignored.
func ParseFilterSpec(q url.Values) models.FilterSpec {
	return models.FilterSpec{
		TransactionType: strings.TrimSpace(q.Get("transactionType")),
		PropertyType:    strings.TrimSpace(q.Get("propertyType")),
		Location:        strings.TrimSpace(q.Get("location")),
		MinPrice:        queryInt64(q, "minPrice"),
		MaxPrice:        queryInt64(q, "maxPrice"),
		MinSurface:      queryInt(q, "minSurface"),
		MaxSurface:      queryInt(q, "maxSurface"),
	}
}

// ParseSourceIDs splits the comma-separated sources parameter.
func ParseSourceIDs(q url.Values) []string {
	var ids []string
	for _, v := range q["sources"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" && id != FilterAll {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func queryInt64(q url.Values, key string) *int64 {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func queryInt(q url.Values, key string) *int {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}
