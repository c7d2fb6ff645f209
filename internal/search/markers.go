package search

import (
	"encoding/binary"
	"math"

	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"
	"github.com/umahmood/haversine"
	"github.com/yachtly/charter-service/internal/models"
)

// Boats carry no stored coordinates yet, so markers are placed around a
// reference point by hashing the boat id. Same id, same point.
const (
	MaxOffsetDegrees = 0.05
	GroupRadiusKm    = 0.1
)

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefaultReference is downtown Miami.
var DefaultReference = Point{Lat: 25.7617, Lng: -80.1918}

type BoatSummary struct {
	ID          uuid.UUID               `json:"id"`
	Name        string                  `json:"name"`
	Category    models.BoatCategoryType `json:"category"`
	PricePerDay float64                 `json:"price_per_day"`
	HomePort    string                  `json:"home_port"`
}

type Marker struct {
	Lat   float64       `json:"lat"`
	Lng   float64       `json:"lng"`
	Count int           `json:"count"`
	Boats []BoatSummary `json:"boats"`
}

// JitterPoint maps a boat id to a point within MaxOffsetDegrees of ref.
func JitterPoint(id uuid.UUID, ref Point) Point {
	h := murmur3.Sum64(id[:])
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h)
	latFrac := float64(binary.BigEndian.Uint32(buf[:4])) / math.MaxUint32
	lngFrac := float64(binary.BigEndian.Uint32(buf[4:])) / math.MaxUint32
	return Point{
		Lat: ref.Lat + (latFrac*2-1)*MaxOffsetDegrees,
		Lng: ref.Lng + (lngFrac*2-1)*MaxOffsetDegrees,
	}
}

// BuildMarkers groups boats with a home port into map markers. A boat joins
// the first marker whose anchor is within GroupRadiusKm; otherwise it
// anchors a new one. Output order follows input order.
func BuildMarkers(boats []*models.Boat, ref Point) []Marker {
	markers := make([]Marker, 0)
	for _, b := range boats {
		if b == nil || b.HomePort == nil || *b.HomePort == "" {
			continue
		}
		p := JitterPoint(b.ID, ref)
		summary := BoatSummary{
			ID:          b.ID,
			Name:        b.Name,
			Category:    b.Category,
			PricePerDay: b.PricePerDay,
			HomePort:    *b.HomePort,
		}

		joined := false
		for i := range markers {
			if distanceKm(Point{Lat: markers[i].Lat, Lng: markers[i].Lng}, p) <= GroupRadiusKm {
				markers[i].Count++
				markers[i].Boats = append(markers[i].Boats, summary)
				joined = true
				break
			}
		}
		if !joined {
			markers = append(markers, Marker{Lat: p.Lat, Lng: p.Lng, Count: 1, Boats: []BoatSummary{summary}})
		}
	}
	return markers
}

func distanceKm(a, b Point) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: a.Lat, Lon: a.Lng},
		haversine.Coord{Lat: b.Lat, Lon: b.Lng},
	)
	return km
}
