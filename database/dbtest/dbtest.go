// Package dbtest starts a throwaway PostgreSQL for tests that need real SQL.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ray-remotestate/recipebox/database"
)

const (
	image    = "postgres:15-alpine"
	dbName   = "recipebox_test"
	user     = "recipebox"
	password = "recipebox"
)

type Database struct {
	DB        *sql.DB
	container testcontainers.Container
}

// Start runs a migrated PostgreSQL container. The test is skipped under
// -short or when no container runtime is reachable.
func Start(t testing.TB) *Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       dbName,
				"POSTGRES_USER":     user,
				"POSTGRES_PASSWORD": password,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port.Port(), dbName)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("open database: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		container.Terminate(ctx)
		t.Fatalf("ping database: %v", err)
	}
	if err := database.MigrateUp(db, dbName); err != nil {
		container.Terminate(ctx)
		t.Fatalf("migrate: %v", err)
	}

	return &Database{DB: db, container: container}
}

// Reset removes every user and everything users created. Catalog data from
// migrations and fixtures stays.
func (d *Database) Reset(t testing.TB) {
	t.Helper()
	_, err := d.DB.Exec(`
		TRUNCATE users_allergies, inventory_currently_has, users_inventory,
			review_written_by, review_of_recipe, review, users
		RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("reset database: %v", err)
	}
}

// Recipe inserts a recipe built from the given ingredient descriptions,
// creating missing ingredients. It returns the ingredient ids by description.
func (d *Database) Recipe(t testing.TB, name, instructions string, ingredients ...string) map[string]int64 {
	t.Helper()
	if _, err := d.DB.Exec(`INSERT INTO recipe (recipe_name, instructions) VALUES ($1, $2)`, name, instructions); err != nil {
		t.Fatalf("insert recipe %q: %v", name, err)
	}

	ids := make(map[string]int64, len(ingredients))
	for _, desc := range ingredients {
		id := d.Ingredient(t, desc)
		if _, err := d.DB.Exec(`INSERT INTO recipe_ingredients (recipe_name, ingredient_id) VALUES ($1, $2)`, name, id); err != nil {
			t.Fatalf("link %q to %q: %v", desc, name, err)
		}
		ids[desc] = id
	}
	return ids
}

// Ingredient returns the id for description, inserting it if needed.
func (d *Database) Ingredient(t testing.TB, description string) int64 {
	t.Helper()
	var id int64
	err := d.DB.QueryRow(`
		INSERT INTO ingredient (description, calories) VALUES ($1, 0)
		ON CONFLICT (description) DO UPDATE SET description = EXCLUDED.description
		RETURNING ingredient_id`, description).Scan(&id)
	if err != nil {
		t.Fatalf("insert ingredient %q: %v", description, err)
	}
	return id
}

// Allergy registers an allergy type triggered by the given ingredients.
func (d *Database) Allergy(t testing.TB, allergyType string, ingredients ...string) {
	t.Helper()
	if _, err := d.DB.Exec(`INSERT INTO allergies (allergy_type, description) VALUES ($1, $1) ON CONFLICT DO NOTHING`, allergyType); err != nil {
		t.Fatalf("insert allergy %q: %v", allergyType, err)
	}
	for _, desc := range ingredients {
		if _, err := d.DB.Exec(`INSERT INTO allergy_examples (allergy_type, ingredient_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			allergyType, d.Ingredient(t, desc)); err != nil {
			t.Fatalf("link allergy %q to %q: %v", allergyType, desc, err)
		}
	}
}

func (d *Database) Close() {
	d.DB.Close()
	d.container.Terminate(context.Background())
}
