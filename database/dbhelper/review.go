package dbhelper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ray-remotestate/recipebox/database"
	"github.com/ray-remotestate/recipebox/models"
)

var ErrAlreadyReviewed = errors.New("recipe already reviewed by user")

func ListUserReviews(ctx context.Context, q database.Querier, username string) ([]models.Review, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT rw.review_id, rr.recipe_name, rwb.username, rw.stars, rw.review_text
		FROM review_written_by AS rwb
		INNER JOIN review AS rw ON rw.review_id = rwb.review_id
		INNER JOIN review_of_recipe AS rr ON rr.review_id = rw.review_id
		WHERE rwb.username = $1
		ORDER BY rr.recipe_name`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query user reviews: %w", err)
	}
	return scanReviews(rows)
}

func ListRecipeReviews(ctx context.Context, q database.Querier, recipeName string) ([]models.Review, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT rev.review_id, ror.recipe_name, rb.username, rev.stars, rev.review_text
		FROM review_of_recipe AS ror
		INNER JOIN review AS rev ON rev.review_id = ror.review_id
		INNER JOIN review_written_by AS rb ON rb.review_id = ror.review_id
		WHERE ror.recipe_name = $1`, recipeName)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe reviews: %w", err)
	}
	return scanReviews(rows)
}

func scanReviews(rows *sql.Rows) ([]models.Review, error) {
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var (
			r    models.Review
			text sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.RecipeName, &r.Username, &r.Stars, &text); err != nil {
			return nil, fmt.Errorf("failed to read review row: %w", err)
		}
		r.Text = text.String
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}
	return reviews, nil
}

func HasReviewed(ctx context.Context, q database.Querier, username, recipeName string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM review_written_by AS rwb
			INNER JOIN review_of_recipe AS rr ON rr.review_id = rwb.review_id
			WHERE rwb.username = $1 AND rr.recipe_name = $2
		)`, username, recipeName).Scan(&exists)
	return exists, err
}

func recipeExists(ctx context.Context, q database.Querier, recipeName string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM recipe WHERE recipe_name = $1)`, recipeName).Scan(&exists)
	return exists, err
}

// AddReview writes the review and both of its attribution rows in one
// transaction. A user gets one review per recipe.
func AddReview(ctx context.Context, conn database.Conn, username, recipeName string, stars int, text string) (int64, error) {
	var reviewID int64
	err := database.Tx(ctx, conn, func(tx *sql.Tx) error {
		exists, err := recipeExists(ctx, tx, recipeName)
		if err != nil {
			return fmt.Errorf("failed to check recipe: %w", err)
		}
		if !exists {
			return ErrRecipeNotFound
		}

		reviewed, err := HasReviewed(ctx, tx, username, recipeName)
		if err != nil {
			return fmt.Errorf("failed to check existing review: %w", err)
		}
		if reviewed {
			return ErrAlreadyReviewed
		}

		err = tx.QueryRowContext(ctx, `INSERT INTO review (stars, review_text) VALUES ($1, $2) RETURNING review_id`,
			stars, text).Scan(&reviewID)
		if err != nil {
			return fmt.Errorf("failed to insert review: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO review_written_by (username, review_id) VALUES ($1, $2)`,
			username, reviewID); err != nil {
			return fmt.Errorf("failed to attribute review: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO review_of_recipe (recipe_name, review_id) VALUES ($1, $2)`,
			recipeName, reviewID); err != nil {
			return fmt.Errorf("failed to link review to recipe: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reviewID, nil
}

// DeleteReview removes a review written by username together with its
// attribution rows. It reports false when the user has no such review.
func DeleteReview(ctx context.Context, conn database.Conn, username string, reviewID int64) (bool, error) {
	var deleted bool
	err := database.Tx(ctx, conn, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM review_written_by WHERE review_id = $1 AND username = $2`,
			reviewID, username)
		if err != nil {
			return fmt.Errorf("failed to delete review attribution: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM review_of_recipe WHERE review_id = $1`, reviewID); err != nil {
			return fmt.Errorf("failed to delete review link: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM review WHERE review_id = $1`, reviewID); err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}
		deleted = true
		return nil
	})
	return deleted, err
}
