package seeding

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yachtly/charter-service/internal/models"
	"github.com/yachtly/charter-service/internal/repositories"
	"github.com/yachtly/charter-service/internal/utils"
)

// seedNamespace derives stable ids so reseeding is idempotent.
var seedNamespace = uuid.MustParse("6c1f6a0e-8d2b-4f57-9a51-3b0f1e2c7d10")

// CacheInvalidator is satisfied by services.BoatSearchService.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// Summary counts users inserted by this run and boats handed to the store.
type Summary struct {
	Users int
	Boats int
}

// SeedDemoData inserts the demo users and fleet. Rows that already exist
// are left alone. Cached search results are dropped afterwards.
func SeedDemoData(
	ctx context.Context,
	users repositories.UserRepository,
	boats repositories.BoatRepository,
	cache CacheInvalidator,
) (Summary, error) {
	var sum Summary

	for _, u := range DemoUsers() {
		// email is unique; a demo address already taken is left to its owner.
		existing, err := users.GetByEmail(ctx, u.Email)
		if err != nil {
			return sum, fmt.Errorf("look up demo user %s: %w", u.Email, err)
		}
		if existing != nil {
			continue
		}
		if err := users.Create(ctx, u); err != nil {
			return sum, fmt.Errorf("insert demo user %s: %w", u.Email, err)
		}
		sum.Users++
	}
	for _, b := range DemoBoats() {
		if err := boats.Create(ctx, b); err != nil {
			return sum, fmt.Errorf("insert demo boat %q: %w", b.Name, err)
		}
		sum.Boats++
	}

	if cache != nil {
		if err := cache.InvalidateCache(ctx); err != nil {
			utils.Logger.WithError(err).Warn("Failed to invalidate search cache after seeding")
		}
	}
	utils.Logger.Infof("Seeded %d user(s) and %d boat(s).", sum.Users, sum.Boats)
	return sum, nil
}

func seedID(name string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte(name))
}

func DemoUsers() []*models.User {
	return []*models.User{
		{ID: seedID("user:captain"), Email: "captain@yachtly.test", Name: "Demo Captain"},
		{ID: seedID("user:renter"), Email: "renter@yachtly.test", Name: "Demo Renter"},
		{
			ID:          seedID("user:reviewer"),
			Email:       "reviewer@yachtly.test",
			Name:        "Store Reviewer",
			PhoneNumber: utils.Ptr(utils.TestPhoneNumberBase + "5550001"),
		},
	}
}

type boatSpec struct {
	name     string
	category models.BoatCategoryType
	perDay   float64
	length   float64
	year     int
	capacity int
	cabins   int
	baths    int
	port     string
	features []string
	featured bool
}

var demoFleet = []boatSpec{
	{"Azure Horizon", models.BoatCategoryYacht, 4200, 82, 2019, 12, 4, 4, "Miami Beach Marina", []string{"WiFi", "Kitchen", "Jacuzzi", "Crew"}, true},
	{"Sea Whisper", models.BoatCategoryYacht, 2800, 64, 2015, 10, 3, 2, "Bayside Marina", []string{"WiFi", "Kitchen", "Sound System"}, false},
	{"Golden Tide", models.BoatCategoryMotorYacht, 3600, 72, 2021, 12, 3, 3, "Miami Beach Marina", []string{"WiFi", "Kitchen", "Jet Ski"}, true},
	{"Blue Marlin", models.BoatCategoryFishingBoat, 650, 34, 2012, 6, 1, 1, "Key Biscayne", []string{"Fishing Gear", "Cooler", "GPS"}, false},
	{"Reel Deal", models.BoatCategoryFishingBoat, 480, 28, 2009, 5, 0, 1, "Haulover Marina", []string{"Fishing Gear", "Live Well"}, false},
	{"Wind Dancer", models.BoatCategorySailboat, 520, 42, 2005, 8, 2, 1, "Coconut Grove Sailing Club", []string{"Kitchen", "Snorkel Gear"}, false},
	{"Salt & Canvas", models.BoatCategorySailboat, 390, 36, 1998, 6, 1, 1, "Dinner Key Marina", []string{"Snorkel Gear"}, false},
	{"Twin Breeze", models.BoatCategoryCatamaran, 1900, 48, 2018, 20, 4, 4, "Bayside Marina", []string{"WiFi", "Kitchen", "Paddleboards"}, true},
	{"Double Take", models.BoatCategoryCatamaran, 1450, 44, 2016, 16, 3, 2, "Key Biscayne", []string{"Kitchen", "Paddleboards", "Snorkel Gear"}, false},
	{"Velocity", models.BoatCategorySpeedboat, 900, 32, 2022, 8, 0, 0, "Haulover Marina", []string{"Sound System", "Water Skis"}, false},
	{"Rip Current", models.BoatCategorySpeedboat, 750, 29, 2020, 6, 0, 0, "Miami Beach Marina", []string{"Sound System", "Wakeboard"}, false},
	{"Sunday Drift", models.BoatCategoryPontoon, 420, 24, 2017, 12, 0, 1, "Dinner Key Marina", []string{"Grill", "Sound System", "Cooler"}, false},
	{"Lazy Lagoon", models.BoatCategoryPontoon, 360, 22, 2014, 10, 0, 0, "Coconut Grove Sailing Club", []string{"Grill", "Cooler"}, false},
	{"Floating Nest", models.BoatCategoryHouseboat, 1100, 52, 2011, 8, 3, 2, "Bayside Marina", []string{"WiFi", "Kitchen", "Grill"}, false},
	{"Harbor Haven", models.BoatCategoryHouseboat, 980, 46, 2008, 6, 2, 1, "Dinner Key Marina", []string{"Kitchen", "Grill"}, false},
	{"Old Salt", models.BoatCategorySailboat, 280, 30, 0, 4, 1, 1, "", []string{}, false},
}

// DemoBoats builds the demo fleet. One boat has no home port and no build
// year, which exercises the unknown-value paths in search.
func DemoBoats() []*models.Boat {
	out := make([]*models.Boat, 0, len(demoFleet))
	for _, s := range demoFleet {
		b := &models.Boat{
			ID:          seedID("boat:" + s.name),
			Name:        s.name,
			Description: fmt.Sprintf("%s available for day charters.", s.name),
			Category:    s.category,
			PricePerDay: s.perDay,
			LengthFt:    utils.Ptr(s.length),
			Capacity:    s.capacity,
			Cabins:      s.cabins,
			Bathrooms:   s.baths,
			Features:    s.features,
			IsActive:    true,
			IsFeatured:  s.featured,
		}
		if s.year > 0 {
			b.YearBuilt = utils.Ptr(s.year)
		}
		if s.port != "" {
			b.HomePort = utils.Ptr(s.port)
		}
		out = append(out, b)
	}
	return out
}
