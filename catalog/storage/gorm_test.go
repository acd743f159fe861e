package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"recipeagent/catalog"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := OpenDB("sqlite", ":memory:")
	require.NoError(t, err)

	// Every pooled connection would otherwise get its own empty in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))

	ingredients := []IngredientModel{
		{Name: "Green Apple"},
		{Name: "Grapefruit"},
		{Name: "Leek"},
		{Name: "100% Cocoa"},
		{Name: "1000 Island Dressing"},
		{Name: "snake_fruit"},
		{Name: "snakefruit jam"},
		{Name: "Épinards"},
		{Name: "Crème Fraîche"},
	}
	recipes := []RecipeModel{{Title: "Apple Pie"}, {Title: "Leek Soup"}}
	categories := []FrameworkCategoryModel{{Name: "Braise"}, {Name: "Stir Fry"}}
	tips := []HackOrTipModel{{Title: "Salt pasta water", Body: "Season the water, not the sauce."}}

	require.NoError(t, db.Create(&ingredients).Error)
	require.NoError(t, db.Create(&recipes).Error)
	require.NoError(t, db.Create(&categories).Error)
	require.NoError(t, db.Create(&tips).Error)

	return db
}

func TestGormStore_Search(t *testing.T) {
	store := NewGormStore(setupTestDB(t))
	ctx := context.Background()

	tests := []struct {
		name     string
		query    catalog.Query
		expected []catalog.Record
	}{
		{
			name:     "case-insensitive substring",
			query:    catalog.Query{Collection: catalog.Ingredients, Field: "name", Pattern: "ap", Limit: 10},
			expected: []catalog.Record{{ID: "1", Label: "Green Apple"}, {ID: "2", Label: "Grapefruit"}},
		},
		{
			name:     "limit",
			query:    catalog.Query{Collection: catalog.Ingredients, Field: "name", Pattern: "ap", Limit: 1},
			expected: []catalog.Record{{ID: "1", Label: "Green Apple"}},
		},
		{
			name:     "percent is literal",
			query:    catalog.Query{Collection: catalog.Ingredients, Field: "name", Pattern: "0%", Limit: 10},
			expected: []catalog.Record{{ID: "4", Label: "100% Cocoa"}},
		},
		{
			name:     "underscore is literal",
			query:    catalog.Query{Collection: catalog.Ingredients, Field: "name", Pattern: "e_f", Limit: 10},
			expected: []catalog.Record{{ID: "6", Label: "snake_fruit"}},
		},
		{
			name:     "accented name folded like the query",
			query:    catalog.Query{Collection: catalog.Ingredients, Field: "name", Pattern: "ép", Limit: 10},
			expected: []catalog.Record{{ID: "8", Label: "Épinards"}},
		},
		{
			name:     "accented pattern in upper case",
			query:    catalog.Query{Collection: catalog.Ingredients, Field: "name", Pattern: "ÈME FRAÎ", Limit: 10},
			expected: []catalog.Record{{ID: "9", Label: "Crème Fraîche"}},
		},
		{
			name:     "recipes by title",
			query:    catalog.Query{Collection: catalog.Recipes, Field: "title", Pattern: "soup", Limit: 10},
			expected: []catalog.Record{{ID: "2", Label: "Leek Soup"}},
		},
		{
			name:     "framework categories",
			query:    catalog.Query{Collection: catalog.FrameworkCategories, Field: "name", Pattern: "fry", Limit: 10},
			expected: []catalog.Record{{ID: "2", Label: "Stir Fry"}},
		},
		{
			name:     "hacks or tips by title",
			query:    catalog.Query{Collection: catalog.HacksOrTips, Field: "title", Pattern: "pasta", Limit: 10},
			expected: []catalog.Record{{ID: "1", Label: "Salt pasta water"}},
		},
		{
			name:     "no match",
			query:    catalog.Query{Collection: catalog.Recipes, Field: "title", Pattern: "zz", Limit: 10},
			expected: []catalog.Record{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Search(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestGormStore_RejectsUnlistedColumns(t *testing.T) {
	store := NewGormStore(setupTestDB(t))

	_, err := store.Search(context.Background(), catalog.Query{Collection: catalog.Ingredients, Field: "name; DROP TABLE ingredients", Pattern: "ap"})
	assert.Error(t, err)

	_, err = store.Search(context.Background(), catalog.Query{Collection: "sqlite_master", Field: "name", Pattern: "ap"})
	assert.Error(t, err)
}

func TestGormStore_ThroughLookup(t *testing.T) {
	l := catalog.NewLookup(NewGormStore(setupTestDB(t)))

	got, err := l.SearchIngredients(context.Background(), "  LEEK ")
	require.NoError(t, err)
	assert.Equal(t, []catalog.Ingredient{{ID: "3", Name: "Leek"}}, got)
}

func TestGormStore_NonASCIIThroughLookup(t *testing.T) {
	l := catalog.NewLookup(NewGormStore(setupTestDB(t)))

	got, err := l.SearchIngredients(context.Background(), "ÉP")
	require.NoError(t, err)
	assert.Equal(t, []catalog.Ingredient{{ID: "8", Name: "Épinards"}}, got)

	got, err = l.SearchIngredients(context.Background(), "AP")
	require.NoError(t, err)
	assert.Equal(t, []catalog.Ingredient{{ID: "1", Name: "Green Apple"}, {ID: "2", Name: "Grapefruit"}}, got)
}

func TestGormStore_SaveRefreshesSearchColumn(t *testing.T) {
	db := setupTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	var leek IngredientModel
	require.NoError(t, db.First(&leek, 3).Error)
	assert.Equal(t, "leek", leek.Search)

	leek.Name = "Ägyptischer Lauch"
	require.NoError(t, db.Save(&leek).Error)

	got, err := store.Search(ctx, catalog.Query{Collection: catalog.Ingredients, Field: "name", Pattern: "ägypt", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []catalog.Record{{ID: "3", Label: "Ägyptischer Lauch"}}, got)

	got, err = store.Search(ctx, catalog.Query{Collection: catalog.Ingredients, Field: "name", Pattern: "leek", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpenDB_UnknownDriver(t *testing.T) {
	_, err := OpenDB("oracle", "dsn")
	assert.ErrorContains(t, err, "unsupported catalog sql driver")
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now \\o/`, escapeLike(`50% off_now \o/`))
}
