package dbhelper

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ray-remotestate/recipebox/database"
	"github.com/ray-remotestate/recipebox/models"
)

func ListAllergies(ctx context.Context, q database.Querier) ([]models.Allergy, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT allergy_type, description
		FROM allergies
		ORDER BY allergy_type DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query allergies: %w", err)
	}
	defer rows.Close()

	var allergies []models.Allergy
	for rows.Next() {
		var (
			a    models.Allergy
			desc sql.NullString
		)
		if err := rows.Scan(&a.Type, &desc); err != nil {
			return nil, fmt.Errorf("failed to read allergy row: %w", err)
		}
		a.Description = desc.String
		allergies = append(allergies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate allergies: %w", err)
	}
	return allergies, nil
}

func GetUserAllergies(ctx context.Context, q database.Querier, username string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT allergy_type
		FROM users_allergies
		WHERE username = $1
		ORDER BY allergy_type DESC`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query user allergies: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to read user allergy: %w", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user allergies: %w", err)
	}
	return types, nil
}

// AllergyPreferences returns the whole catalog flagged with the user's
// declared allergies.
func AllergyPreferences(ctx context.Context, q database.Querier, username string) ([]models.AllergyPreference, error) {
	catalog, err := ListAllergies(ctx, q)
	if err != nil {
		return nil, err
	}
	declared, err := GetUserAllergies(ctx, q, username)
	if err != nil {
		return nil, err
	}

	has := make(map[string]bool, len(declared))
	for _, t := range declared {
		has[t] = true
	}

	prefs := make([]models.AllergyPreference, 0, len(catalog))
	for _, a := range catalog {
		prefs = append(prefs, models.AllergyPreference{Allergy: a, AllergicTo: has[a.Type]})
	}
	return prefs, nil
}

// SyncUserAllergies makes the user's declared allergies equal to the
// catalog types in toggledOn.
func SyncUserAllergies(ctx context.Context, conn database.Conn, username string, toggledOn []string) (models.AllergyChanges, error) {
	var changes models.AllergyChanges
	err := database.Tx(ctx, conn, func(tx *sql.Tx) error {
		catalog, err := ListAllergies(ctx, tx)
		if err != nil {
			return err
		}
		current, err := GetUserAllergies(ctx, tx, username)
		if err != nil {
			return err
		}

		types := make([]string, 0, len(catalog))
		for _, a := range catalog {
			types = append(types, a.Type)
		}
		changes = models.DiffAllergies(types, current, toggledOn)

		for _, t := range changes.Remove {
			if _, err := tx.ExecContext(ctx, `DELETE FROM users_allergies WHERE username = $1 AND allergy_type = $2`,
				username, t); err != nil {
				return fmt.Errorf("failed to remove allergy %q: %w", t, err)
			}
		}
		for _, t := range changes.Add {
			if _, err := tx.ExecContext(ctx, `INSERT INTO users_allergies (username, allergy_type) VALUES ($1, $2)`,
				username, t); err != nil {
				return fmt.Errorf("failed to add allergy %q: %w", t, err)
			}
		}
		return nil
	})
	if err != nil {
		return models.AllergyChanges{}, err
	}
	return changes, nil
}
