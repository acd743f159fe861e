// Package catalog answers short free-text lookups against the recipe catalog: ingredients, recipes,
// framework categories and hacks or tips. It owns query normalization and result bounding; persistence
// sits behind the Store interface.
package catalog

import "context"

// Collection names a searchable catalog entity.
type Collection string

const (
	Ingredients         Collection = "ingredients"
	Recipes             Collection = "recipes"
	FrameworkCategories Collection = "framework_categories"
	HacksOrTips         Collection = "hacks_or_tips"
)

// Query asks a Store for records of Collection whose Field contains Pattern, ignoring case.
// Pattern is already trimmed and lower-cased.
type Query struct {
	Collection Collection
	Field      string
	Pattern    string
	Limit      int
}

// Record is a projected row: the entity id and the value of the matched field.
type Record struct {
	ID    string
	Label string
}

// Store is the persistence collaborator behind Lookup.
type Store interface {
	Search(ctx context.Context, q Query) ([]Record, error)
}

type Ingredient struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HackOrTip is a cooking hack or tip. Its label is stored as a title but reported as text.
type HackOrTip struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type FrameworkCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RecipeRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
