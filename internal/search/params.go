package search

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/yachtly/charter-service/internal/models"
)

type SortKey string

const (
	SortPriceAsc   SortKey = "price_asc"
	SortPriceDesc  SortKey = "price_desc"
	SortLengthAsc  SortKey = "length_asc"
	SortLengthDesc SortKey = "length_desc"
	SortNewest     SortKey = "newest"
	SortFeatured   SortKey = "featured"
)

// Filter is the normalized form of a boat search request. A nil pointer or
// empty slice means the corresponding constraint is absent.
type Filter struct {
	Categories []models.BoatCategoryType `json:"categories,omitempty"`

	MinPrice  *float64 `json:"min_price,omitempty"`
	MaxPrice  *float64 `json:"max_price,omitempty"`
	MinLength *float64 `json:"min_length,omitempty"`
	MaxLength *float64 `json:"max_length,omitempty"`
	MinYear   *int     `json:"min_year,omitempty"`
	MaxYear   *int     `json:"max_year,omitempty"`

	MinCapacity  *int `json:"min_capacity,omitempty"`
	MinCabins    *int `json:"min_cabins,omitempty"`
	MinBathrooms *int `json:"min_bathrooms,omitempty"`

	Location string   `json:"location,omitempty"`
	Features []string `json:"features,omitempty"`

	Sort SortKey `json:"sort"`
	Page int     `json:"page"`
}

// ParseParams turns a raw query string into a Filter. Malformed values are
// dropped, never rejected: a bad minPrice behaves exactly like no minPrice.
func ParseParams(q url.Values) Filter {
	return Filter{
		Categories:   parseCategories(q["category"]),
		MinPrice:     parseFloat(q.Get("minPrice")),
		MaxPrice:     parseFloat(q.Get("maxPrice")),
		MinLength:    parseFloat(q.Get("minLength")),
		MaxLength:    parseFloat(q.Get("maxLength")),
		MinYear:      parseInt(q.Get("minYear")),
		MaxYear:      parseInt(q.Get("maxYear")),
		MinCapacity:  parseInt(q.Get("minCapacity")),
		MinCabins:    parseInt(q.Get("minCabins")),
		MinBathrooms: parseInt(q.Get("minBathrooms")),
		Location:     strings.TrimSpace(q.Get("location")),
		Features:     parseList(q["features"]),
		Sort:         ParseSort(q.Get("sort")),
		Page:         ParsePage(q.Get("page")),
	}
}

// ParseSort falls back to SortFeatured for anything outside the whitelist.
func ParseSort(raw string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(raw))); k {
	case SortPriceAsc, SortPriceDesc, SortLengthAsc, SortLengthDesc, SortNewest, SortFeatured:
		return k
	default:
		return SortFeatured
	}
}

func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func parseCategories(values []string) []models.BoatCategoryType {
	var out []models.BoatCategoryType
	for _, v := range parseList(values) {
		c := models.BoatCategoryType(strings.ToUpper(v))
		if !c.IsValid() {
			continue
		}
		dup := false
		for _, seen := range out {
			if seen == c {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

// parseList accepts repeated keys, comma-joined values, or both.
func parseList(values []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

func parseFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func parseInt(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
