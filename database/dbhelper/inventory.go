package dbhelper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ray-remotestate/recipebox/database"
	"github.com/ray-remotestate/recipebox/models"
)

var ErrNoInventory = errors.New("user has no inventory")

// NewInventoryItem is what the add-to-inventory form submits.
type NewInventoryItem struct {
	Description    string
	Quantity       int
	ExpirationDate time.Time
	Calories       int
}

func ListInventory(ctx context.Context, q database.Querier, username string) ([]models.InventoryItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT ich.ingredient_id, i.description, i.calories, ich.quantity, ich.expiration_date
		FROM inventory_currently_has AS ich
		INNER JOIN ingredient AS i ON i.ingredient_id = ich.ingredient_id
		WHERE ich.username = $1
		ORDER BY ich.expiration_date, i.description`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	var items []models.InventoryItem
	for rows.Next() {
		var it models.InventoryItem
		if err := rows.Scan(&it.IngredientID, &it.Description, &it.Calories, &it.Quantity, &it.ExpirationDate); err != nil {
			return nil, fmt.Errorf("failed to read inventory row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inventory: %w", err)
	}
	return items, nil
}

// LoadPantry lists the inventory and splits it by the soon-days window
// counted from today.
func LoadPantry(ctx context.Context, q database.Querier, username string, today time.Time, soonDays int) (models.Pantry, error) {
	items, err := ListInventory(ctx, q, username)
	if err != nil {
		return models.Pantry{}, err
	}
	return models.NewPantry(items, today, soonDays), nil
}

func GetInventoryID(ctx context.Context, q database.Querier, username string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT inventory_id FROM users_inventory WHERE username = $1`, username).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNoInventory
	}
	return id, err
}

// FindOrCreateIngredient returns the id of the ingredient with this
// description, creating it when missing.
func FindOrCreateIngredient(ctx context.Context, q database.Querier, description string, calories int) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT ingredient_id FROM ingredient WHERE description = $1`, description).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up ingredient: %w", err)
	}

	err = q.QueryRowContext(ctx, `
		INSERT INTO ingredient (description, calories) VALUES ($1, $2)
		ON CONFLICT (description) DO NOTHING
		RETURNING ingredient_id`, description, calories).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// lost a race with a concurrent insert of the same description
		err = q.QueryRowContext(ctx, `SELECT ingredient_id FROM ingredient WHERE description = $1`, description).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create ingredient: %w", err)
	}
	return id, nil
}

// AddInventoryItem stores an item in the user's inventory. Adding an
// ingredient the user already holds is a no-op.
func AddInventoryItem(ctx context.Context, conn database.Conn, username string, item NewInventoryItem) error {
	return database.Tx(ctx, conn, func(tx *sql.Tx) error {
		ingredientID, err := FindOrCreateIngredient(ctx, tx, item.Description, item.Calories)
		if err != nil {
			return err
		}

		inventoryID, err := GetInventoryID(ctx, tx, username)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO inventory_currently_has (inventory_id, username, ingredient_id, expiration_date, quantity)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT DO NOTHING`,
			inventoryID, username, ingredientID, item.ExpirationDate, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to add inventory item: %w", err)
		}
		return nil
	})
}

func RemoveInventoryItem(ctx context.Context, q database.Querier, username string, ingredientID int64) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM inventory_currently_has
		WHERE ingredient_id = $1 AND username = $2`, ingredientID, username)
	if err != nil {
		return fmt.Errorf("failed to remove inventory item: %w", err)
	}
	return nil
}
