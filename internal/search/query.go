package search

import (
	"fmt"
	"strings"
)

// Where is a parameterized predicate. SQL is always non-empty and its $n
// placeholders line up with Args.
type Where struct {
	SQL  string
	Args []any
}

type builder struct {
	preds []string
	args  []any
}

func (b *builder) add(format string, arg any) {
	b.args = append(b.args, arg)
	b.preds = append(b.preds, fmt.Sprintf(format, len(b.args)))
}

// Build composes the WHERE clause shared by the page and count queries.
// Nullable numeric columns are compared through COALESCE(col, 0) so a boat
// with an unknown length or year is only excluded by a lower bound.
func Build(f Filter) Where {
	b := &builder{preds: []string{"is_active = TRUE"}}

	switch len(f.Categories) {
	case 0:
	case 1:
		b.add("category = $%d", string(f.Categories[0]))
	default:
		cats := make([]string, len(f.Categories))
		for i, c := range f.Categories {
			cats[i] = string(c)
		}
		b.add("category = ANY($%d::text[])", cats)
	}

	if f.MinPrice != nil {
		b.add("price_per_day >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		b.add("price_per_day <= $%d", *f.MaxPrice)
	}
	if f.MinLength != nil {
		b.add("COALESCE(length_ft, 0) >= $%d", *f.MinLength)
	}
	if f.MaxLength != nil {
		b.add("COALESCE(length_ft, 0) <= $%d", *f.MaxLength)
	}
	if f.MinYear != nil {
		b.add("COALESCE(year_built, 0) >= $%d", *f.MinYear)
	}
	if f.MaxYear != nil {
		b.add("COALESCE(year_built, 0) <= $%d", *f.MaxYear)
	}

	if f.MinCapacity != nil {
		b.add("capacity >= $%d", *f.MinCapacity)
	}
	if f.MinCabins != nil {
		b.add("cabins >= $%d", *f.MinCabins)
	}
	if f.MinBathrooms != nil {
		b.add("bathrooms >= $%d", *f.MinBathrooms)
	}

	if f.Location != "" {
		b.add(`home_port ILIKE $%d ESCAPE '\'`, "%"+escapeLike(f.Location)+"%")
	}
	if len(f.Features) > 0 {
		b.add("features @> $%d::text[]", append([]string(nil), f.Features...))
	}

	return Where{SQL: strings.Join(b.preds, " AND "), Args: b.args}
}

var orderBy = map[SortKey]string{
	SortPriceAsc:   "price_per_day ASC, id ASC",
	SortPriceDesc:  "price_per_day DESC, id ASC",
	SortLengthAsc:  "COALESCE(length_ft, 0) ASC, id ASC",
	SortLengthDesc: "COALESCE(length_ft, 0) DESC, id ASC",
	SortNewest:     "created_at DESC, id ASC",
	SortFeatured:   "is_featured DESC, created_at DESC, id ASC",
}

// OrderBy returns a whitelisted ORDER BY body. Unknown keys get the
// featured ordering.
func OrderBy(k SortKey) string {
	if s, ok := orderBy[k]; ok {
		return s
	}
	return orderBy[SortFeatured]
}

// Offset is the row offset of a 1-based page.
func Offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}

// TotalPages is ceil(count / pageSize).
func TotalPages(count, pageSize int) int {
	if count <= 0 || pageSize <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
