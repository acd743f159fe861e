package catalog

import (
	"context"
	"strings"
	"unicode/utf8"
)

const (
	// MinQueryLength is the shortest normalized query that reaches the store.
	MinQueryLength = 2
	// ResultLimit bounds every search result.
	ResultLimit = 10
)

// Lookup runs bounded searches over a Store. It keeps no state of its own and is safe for
// concurrent use when the Store is.
type Lookup struct {
	store Store
}

func NewLookup(store Store) *Lookup {
	return &Lookup{store: store}
}

// NormalizeQuery trims and lower-cases q. ok is false when the result is too short to search.
func NormalizeQuery(q string) (normalized string, ok bool) {
	normalized = strings.ToLower(strings.TrimSpace(q))
	return normalized, utf8.RuneCountInString(normalized) >= MinQueryLength
}

func (l *Lookup) SearchIngredients(ctx context.Context, q string) ([]Ingredient, error) {
	return search(ctx, l.store, Ingredients, "name", q, func(r Record) Ingredient {
		return Ingredient{ID: r.ID, Name: r.Label}
	})
}

func (l *Lookup) SearchHacksOrTips(ctx context.Context, q string) ([]HackOrTip, error) {
	return search(ctx, l.store, HacksOrTips, "title", q, func(r Record) HackOrTip {
		return HackOrTip{ID: r.ID, Text: r.Label}
	})
}

func (l *Lookup) SearchFrameworkCategories(ctx context.Context, q string) ([]FrameworkCategory, error) {
	return search(ctx, l.store, FrameworkCategories, "name", q, func(r Record) FrameworkCategory {
		return FrameworkCategory{ID: r.ID, Name: r.Label}
	})
}

func (l *Lookup) SearchRecipes(ctx context.Context, q string) ([]RecipeRef, error) {
	return search(ctx, l.store, Recipes, "title", q, func(r Record) RecipeRef {
		return RecipeRef{ID: r.ID, Title: r.Label}
	})
}

// search never returns a nil slice on success. Store errors are passed through as is so callers can
// decide how to degrade.
func search[T any](ctx context.Context, store Store, c Collection, field, q string, project func(Record) T) ([]T, error) {
	pattern, ok := NormalizeQuery(q)
	if !ok {
		return []T{}, nil
	}

	records, err := store.Search(ctx, Query{Collection: c, Field: field, Pattern: pattern, Limit: ResultLimit})
	if err != nil {
		return nil, err
	}

	if len(records) > ResultLimit {
		records = records[:ResultLimit]
	}

	out := make([]T, 0, len(records))
	for _, r := range records {
		out = append(out, project(r))
	}
	return out, nil
}
