package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/yachtly/charter-service/internal/models"
	"github.com/yachtly/charter-service/internal/search"
)

type BoatRepository interface {
	// Search and Count take the same Where so a page and its total can never
	// disagree on which rows match.
	Search(ctx context.Context, where search.Where, sort search.SortKey, limit, offset int) ([]*models.Boat, error)
	Count(ctx context.Context, where search.Where) (int, error)
	GetActiveByID(ctx context.Context, id uuid.UUID) (*models.Boat, error)
	Create(ctx context.Context, b *models.Boat) error
}

type boatRepository struct {
	db DB
}

func NewBoatRepository(db DB) BoatRepository {
	return &boatRepository{db: db}
}

func (r *boatRepository) Search(ctx context.Context, where search.Where, sort search.SortKey, limit, offset int) ([]*models.Boat, error) {
	n := len(where.Args)
	q := fmt.Sprintf(`%s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		baseSelectBoat(), where.SQL, search.OrderBy(sort), n+1, n+2)
	args := append(append([]any(nil), where.Args...), limit, offset)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boats := make([]*models.Boat, 0, limit)
	for rows.Next() {
		b, err := scanBoat(rows)
		if err != nil {
			return nil, err
		}
		boats = append(boats, b)
	}
	return boats, rows.Err()
}

func (r *boatRepository) Count(ctx context.Context, where search.Where) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM boats WHERE "+where.SQL, where.Args...).Scan(&count)
	return count, err
}

func (r *boatRepository) GetActiveByID(ctx context.Context, id uuid.UUID) (*models.Boat, error) {
	b, err := scanBoat(r.db.QueryRow(ctx, baseSelectBoat()+" WHERE id=$1 AND is_active = TRUE", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (r *boatRepository) Create(ctx context.Context, b *models.Boat) error {
	features := b.Features
	if features == nil {
		features = []string{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO boats (
			id, owner_id, name, description, category,
			price_per_day, price_per_hour, length_ft, year_built,
			capacity, cabins, bathrooms, features, home_port, image_url,
			is_active, is_featured
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13, $14, $15,
			$16, $17
		)
		ON CONFLICT (id) DO NOTHING
	`,
		b.ID, b.OwnerID, b.Name, b.Description, string(b.Category),
		b.PricePerDay, b.PricePerHour, b.LengthFt, b.YearBuilt,
		b.Capacity, b.Cabins, b.Bathrooms, features, b.HomePort, b.ImageURL,
		b.IsActive, b.IsFeatured,
	)
	return err
}

func baseSelectBoat() string {
	return `
	SELECT id, owner_id, name, description, category,
	       price_per_day::float8, price_per_hour::float8, length_ft::float8, year_built,
	       capacity, cabins, bathrooms, features, home_port, image_url,
	       is_active, is_featured, created_at, updated_at
	FROM boats`
}

// scanBoat returns pgx.ErrNoRows unchanged; callers decide what missing means.
func scanBoat(row rowScanner) (*models.Boat, error) {
	var b models.Boat
	var category string
	err := row.Scan(
		&b.ID, &b.OwnerID, &b.Name, &b.Description, &category,
		&b.PricePerDay, &b.PricePerHour, &b.LengthFt, &b.YearBuilt,
		&b.Capacity, &b.Cabins, &b.Bathrooms, &b.Features, &b.HomePort, &b.ImageURL,
		&b.IsActive, &b.IsFeatured, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Category = models.BoatCategoryType(category)
	if b.Features == nil {
		b.Features = []string{}
	}
	return &b, nil
}
