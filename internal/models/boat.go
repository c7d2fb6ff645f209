package models

import (
	"time"

	"github.com/google/uuid"
)

type BoatCategoryType string

const (
	BoatCategoryYacht       BoatCategoryType = "YACHT"
	BoatCategorySailboat    BoatCategoryType = "SAILBOAT"
	BoatCategoryCatamaran   BoatCategoryType = "CATAMARAN"
	BoatCategoryMotorYacht  BoatCategoryType = "MOTOR_YACHT"
	BoatCategorySpeedboat   BoatCategoryType = "SPEEDBOAT"
	BoatCategoryFishingBoat BoatCategoryType = "FISHING_BOAT"
	BoatCategoryPontoon     BoatCategoryType = "PONTOON"
	BoatCategoryHouseboat   BoatCategoryType = "HOUSEBOAT"
)

// BoatCategories lists every category the store accepts.
var BoatCategories = []BoatCategoryType{
	BoatCategoryYacht,
	BoatCategorySailboat,
	BoatCategoryCatamaran,
	BoatCategoryMotorYacht,
	BoatCategorySpeedboat,
	BoatCategoryFishingBoat,
	BoatCategoryPontoon,
	BoatCategoryHouseboat,
}

func (c BoatCategoryType) IsValid() bool {
	for _, known := range BoatCategories {
		if c == known {
			return true
		}
	}
	return false
}

type Boat struct {
	ID           uuid.UUID        `json:"id"`
	OwnerID      *uuid.UUID       `json:"owner_id,omitempty"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Category     BoatCategoryType `json:"category"`
	PricePerDay  float64          `json:"price_per_day"`
	PricePerHour *float64         `json:"price_per_hour,omitempty"`
	LengthFt     *float64         `json:"length_ft,omitempty"`
	YearBuilt    *int             `json:"year_built,omitempty"`
	Capacity     int              `json:"capacity"`
	Cabins       int              `json:"cabins"`
	Bathrooms    int              `json:"bathrooms"`
	Features     []string         `json:"features"`
	HomePort     *string          `json:"home_port,omitempty"`
	ImageURL     *string          `json:"image_url,omitempty"`
	IsActive     bool             `json:"is_active"`
	IsFeatured   bool             `json:"is_featured"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
