package recovery

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ErrRecipeNotObject is returned by DecodeRecipe when the recovered recipe is not a JSON object.
var ErrRecipeNotObject = errors.New("recovery: recipe is not an object")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Recipe is the typed shape the generator asks the model for. Recover never enforces it.
type Recipe struct {
	Title       string           `json:"title" validate:"required,notblank"`
	Description string           `json:"description,omitempty"`
	Servings    any              `json:"servings,omitempty"`
	Components  []Component      `json:"components,omitempty" validate:"dive"`
	Ingredients []IngredientLine `json:"ingredients,omitempty" validate:"dive"`
	Steps       []string         `json:"steps,omitempty" validate:"dive,notblank"`
	Tips        []string         `json:"tips,omitempty"`
}

// Component is a named sub-preparation of a recipe, e.g. a sauce.
type Component struct {
	Name        string           `json:"name" validate:"required,notblank"`
	Ingredients []IngredientLine `json:"ingredients,omitempty" validate:"dive"`
	Steps       []string         `json:"steps,omitempty" validate:"dive,notblank"`
}

// IngredientLine is one ingredient with its amount. IngredientID references the catalog when the model
// grounded the ingredient with a search tool.
type IngredientLine struct {
	IngredientID string `json:"ingredientId,omitempty"`
	Name         string `json:"name" validate:"required,notblank"`
	Amount       any    `json:"amount,omitempty"`
	Unit         string `json:"unit,omitempty"`
}

// DecodeRecipe converts the unvalidated recipe value of p into a Recipe and validates it.
func DecodeRecipe(p Payload) (Recipe, error) {
	obj, ok := p.RecipeObject()
	if !ok {
		return Recipe{}, fmt.Errorf("%w: got %T", ErrRecipeNotObject, p.Recipe)
	}

	b, err := json.Marshal(obj)
	if err != nil {
		return Recipe{}, fmt.Errorf("encode recipe: %w", err)
	}

	var r Recipe
	if err := json.Unmarshal(b, &r); err != nil {
		return Recipe{}, fmt.Errorf("decode recipe: %w", err)
	}

	if err := validate.Struct(r); err != nil {
		return Recipe{}, fmt.Errorf("invalid recipe: %w", err)
	}

	return r, nil
}
