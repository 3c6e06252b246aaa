package dbhelper

import (
	"context"
	"fmt"

	"github.com/ray-remotestate/recipebox/database"
)

// ListSeedNames returns the rows of the demo table shown on the landing page.
func ListSeedNames(ctx context.Context, q database.Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT name FROM test ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query seed rows: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to read seed row: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
