package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"recipeagent/catalog"
)

// searchable lists the only column each collection may be searched on. Both names end up in SQL text.
var searchable = map[catalog.Collection]string{
	catalog.Ingredients:         "name",
	catalog.Recipes:             "title",
	catalog.FrameworkCategories: "name",
	catalog.HacksOrTips:         "title",
}

func checkSearchable(q catalog.Query) error {
	field, ok := searchable[q.Collection]
	if !ok {
		return fmt.Errorf("unknown catalog collection %q", q.Collection)
	}
	if field != q.Field {
		return fmt.Errorf("collection %q is not searchable on %q", q.Collection, q.Field)
	}
	return nil
}

// searchColumn holds the lower-cased label of every row. SQL LOWER() folds only ASCII on sqlite, so
// rows are folded in Go with the same strings.ToLower that normalizes lookup queries.
const searchColumn = "search"

type IngredientModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Search    string `gorm:"column:search;not null;default:'';index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (IngredientModel) TableName() string { return string(catalog.Ingredients) }

func (m *IngredientModel) BeforeSave(tx *gorm.DB) error {
	m.Search = strings.ToLower(m.Name)
	return nil
}

type RecipeModel struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Search      string `gorm:"column:search;not null;default:'';index"`
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (RecipeModel) TableName() string { return string(catalog.Recipes) }

func (m *RecipeModel) BeforeSave(tx *gorm.DB) error {
	m.Search = strings.ToLower(m.Title)
	return nil
}

type FrameworkCategoryModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Search    string `gorm:"column:search;not null;default:'';index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (FrameworkCategoryModel) TableName() string { return string(catalog.FrameworkCategories) }

func (m *FrameworkCategoryModel) BeforeSave(tx *gorm.DB) error {
	m.Search = strings.ToLower(m.Name)
	return nil
}

type HackOrTipModel struct {
	ID        uint   `gorm:"primaryKey"`
	Title     string `gorm:"not null"`
	Search    string `gorm:"column:search;not null;default:'';index"`
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (HackOrTipModel) TableName() string { return string(catalog.HacksOrTips) }

func (m *HackOrTipModel) BeforeSave(tx *gorm.DB) error {
	m.Search = strings.ToLower(m.Title)
	return nil
}

// Migrate creates or updates the catalog tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&IngredientModel{},
		&RecipeModel{},
		&FrameworkCategoryModel{},
		&HackOrTipModel{},
	)
}

// OpenDB connects to a "postgres" or "sqlite" catalog database.
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		if dsn == "" {
			dsn = ":memory:"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported catalog sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
	}
	return db, nil
}

// GormStore is a catalog.Store over SQL tables named after the collections.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Search(ctx context.Context, q catalog.Query) ([]catalog.Record, error) {
	if err := checkSearchable(q); err != nil {
		return nil, err
	}

	var rows []struct {
		ID    string
		Label string
	}

	tx := s.db.WithContext(ctx).
		Table(string(q.Collection)).
		Select("CAST(id AS TEXT) AS id, "+q.Field+" AS label").
		Where(searchColumn+" LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(q.Pattern))+"%").
		Order(string(q.Collection) + ".id")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("search %s: %w", q.Collection, err)
	}

	out := make([]catalog.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, catalog.Record{ID: r.ID, Label: r.Label})
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
