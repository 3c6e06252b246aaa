package dbhelper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ray-remotestate/recipebox/database"
	"github.com/ray-remotestate/recipebox/models"
)

var ErrRecipeNotFound = errors.New("recipe not found")

func ListRecipeNames(ctx context.Context, q database.Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT recipe_name FROM recipe ORDER BY recipe_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to read recipe row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}
	return names, nil
}

// availableRecipesQuery returns one row per ingredient of every recipe the
// user can cook. A recipe is available when the number of distinct
// ingredients the user holds from it equals its ingredient count; recipes
// without ingredients always qualify. With $2 set, recipes containing an
// ingredient tied to one of the user's declared allergies are dropped.
const availableRecipesQuery = `
	WITH available AS (
		SELECT ri.recipe_name
		FROM inventory_currently_has AS ich
		INNER JOIN users_inventory AS ui ON ui.inventory_id = ich.inventory_id
		INNER JOIN recipe_ingredients AS ri ON ri.ingredient_id = ich.ingredient_id
		WHERE ui.username = $1
		GROUP BY ri.recipe_name
		HAVING COUNT(DISTINCT ri.ingredient_id) = (
			SELECT COUNT(*)
			FROM recipe_ingredients AS inner_ri
			WHERE inner_ri.recipe_name = ri.recipe_name
		)
		UNION
		SELECT r.recipe_name
		FROM recipe AS r
		WHERE NOT EXISTS (
			SELECT 1 FROM recipe_ingredients AS e WHERE e.recipe_name = r.recipe_name
		)
	)
	SELECT a.recipe_name, ri.ingredient_id, i.description
	FROM available AS a
	LEFT JOIN recipe_ingredients AS ri ON ri.recipe_name = a.recipe_name
	LEFT JOIN ingredient AS i ON i.ingredient_id = ri.ingredient_id
	WHERE NOT $2::boolean OR a.recipe_name NOT IN (
		SELECT unsafe.recipe_name
		FROM allergy_examples AS ae
		INNER JOIN users_allergies AS ua ON ua.allergy_type = ae.allergy_type
		INNER JOIN recipe_ingredients AS unsafe ON unsafe.ingredient_id = ae.ingredient_id
		WHERE ua.username = $1
	)
	ORDER BY a.recipe_name, ri.ingredient_id`

// AvailableRecipes lists the recipes the user's inventory covers and groups
// them by the soon-to-expire ingredients they would use.
func AvailableRecipes(ctx context.Context, q database.Querier, username string, expiring []models.ExpiringIngredient, considerAllergies bool) (models.Availability, error) {
	rows, err := q.QueryContext(ctx, availableRecipesQuery, username, considerAllergies)
	if err != nil {
		return models.Availability{}, fmt.Errorf("failed to query available recipes: %w", err)
	}
	defer rows.Close()

	var (
		names       []string
		ingredients []models.AvailableIngredient
	)
	for rows.Next() {
		var (
			name         string
			ingredientID sql.NullInt64
			description  sql.NullString
		)
		if err := rows.Scan(&name, &ingredientID, &description); err != nil {
			return models.Availability{}, fmt.Errorf("failed to read available recipe row: %w", err)
		}
		if len(names) == 0 || names[len(names)-1] != name {
			names = append(names, name)
		}
		if ingredientID.Valid {
			ingredients = append(ingredients, models.AvailableIngredient{
				RecipeName:   name,
				IngredientID: ingredientID.Int64,
				Description:  description.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return models.Availability{}, fmt.Errorf("failed to iterate available recipes: %w", err)
	}

	return models.Availability{
		Recipes:  names,
		Priority: models.BuildPriority(ingredients, expiring),
	}, nil
}

// RecipeDetail assembles a recipe page for the given user: each ingredient
// marked with whether the user holds it, the instruction steps, the average
// rating and the individual reviews.
func RecipeDetail(ctx context.Context, q database.Querier, username, recipeName string) (models.RecipeDetail, error) {
	var (
		instructions sql.NullString
		avgStars     sql.NullFloat64
	)
	err := q.QueryRowContext(ctx, `
		SELECT r.instructions, AVG(re.stars)
		FROM recipe AS r
		LEFT JOIN review_of_recipe AS ror ON ror.recipe_name = r.recipe_name
		LEFT JOIN review AS re ON re.review_id = ror.review_id
		WHERE r.recipe_name = $1
		GROUP BY r.recipe_name, r.instructions`, recipeName).Scan(&instructions, &avgStars)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RecipeDetail{}, ErrRecipeNotFound
	}
	if err != nil {
		return models.RecipeDetail{}, fmt.Errorf("failed to query recipe: %w", err)
	}

	ingredients, err := recipeIngredients(ctx, q, username, recipeName)
	if err != nil {
		return models.RecipeDetail{}, err
	}

	reviews, err := ListRecipeReviews(ctx, q, recipeName)
	if err != nil {
		return models.RecipeDetail{}, err
	}

	return models.RecipeDetail{
		Name:         recipeName,
		Ingredients:  ingredients,
		Instructions: models.SplitInstructions(instructions),
		Rating:       models.FormatRating(avgStars),
		Reviews:      reviews,
	}, nil
}

func recipeIngredients(ctx context.Context, q database.Querier, username, recipeName string) ([]models.RecipeIngredient, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT ri.ingredient_id, i.description, ich.expiration_date
		FROM recipe_ingredients AS ri
		INNER JOIN ingredient AS i ON i.ingredient_id = ri.ingredient_id
		LEFT JOIN inventory_currently_has AS ich
			ON ich.ingredient_id = ri.ingredient_id AND ich.username = $1
		WHERE ri.recipe_name = $2
		ORDER BY i.description`, username, recipeName)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe ingredients: %w", err)
	}
	defer rows.Close()

	var out []models.RecipeIngredient
	for rows.Next() {
		var ri models.RecipeIngredient
		if err := rows.Scan(&ri.IngredientID, &ri.Description, &ri.ExpirationDate); err != nil {
			return nil, fmt.Errorf("failed to read recipe ingredient: %w", err)
		}
		out = append(out, ri)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipe ingredients: %w", err)
	}
	return out, nil
}
