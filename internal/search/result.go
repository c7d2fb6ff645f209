package search

import "github.com/yachtly/charter-service/internal/models"

// Result is what a search hands back to callers. Slices are never nil so an
// empty result still serializes as [].
type Result struct {
	Boats      []*models.Boat `json:"boats"`
	TotalCount int            `json:"totalCount"`
	TotalPages int            `json:"totalPages"`
	Locations  []Marker       `json:"locations"`
}

func EmptyResult() *Result {
	return &Result{Boats: []*models.Boat{}, Locations: []Marker{}}
}
