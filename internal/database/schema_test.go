package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"loyalty-points/internal/config"
)

const migrationsDir = "../../migrations"

func readMigration(t *testing.T, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(migrationsDir, name))
	if err != nil {
		t.Fatalf("Failed to read migration %s: %v", name, err)
	}
	return string(content)
}

func TestMigrationFilesExist(t *testing.T) {
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		t.Fatal("Migrations directory does not exist")
	}

	expectedMigrations := []string{
		"00001_create_customers_table.sql",
		"00002_create_categories_table.sql",
		"00003_create_products_table.sql",
		"00004_create_point_earning_rules_table.sql",
		"00005_create_loyalty_accounts_table.sql",
		"00006_create_point_transactions_table.sql",
		"00007_create_shopping_carts_table.sql",
		"00008_create_shopping_cart_items_table.sql",
		"00009_create_updated_at_trigger.sql",
	}

	for _, migration := range expectedMigrations {
		path := filepath.Join(migrationsDir, migration)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("Migration file %s does not exist", migration)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	sqlFileCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		sqlFileCount++
		contentStr := readMigration(t, file.Name())

		for _, directive := range []string{
			"-- +goose Up",
			"-- +goose Down",
			"-- +goose StatementBegin",
			"-- +goose StatementEnd",
		} {
			if !strings.Contains(contentStr, directive) {
				t.Errorf("Migration file %s missing '%s' directive", file.Name(), directive)
			}
		}
	}

	if sqlFileCount == 0 {
		t.Error("No SQL migration files found")
	}
}

func TestMigrationFilesCreateExpectedTables(t *testing.T) {
	expectedTables := map[string]string{
		"customers":           "00001_create_customers_table.sql",
		"categories":          "00002_create_categories_table.sql",
		"products":            "00003_create_products_table.sql",
		"point_earning_rules": "00004_create_point_earning_rules_table.sql",
		"loyalty_accounts":    "00005_create_loyalty_accounts_table.sql",
		"point_transactions":  "00006_create_point_transactions_table.sql",
		"shopping_carts":      "00007_create_shopping_carts_table.sql",
		"shopping_cart_items": "00008_create_shopping_cart_items_table.sql",
	}

	for tableName, migrationFile := range expectedTables {
		contentStr := readMigration(t, migrationFile)

		if !strings.Contains(contentStr, "CREATE TABLE IF NOT EXISTS "+tableName) {
			t.Errorf("Migration file %s does not create table %s", migrationFile, tableName)
		}
		if !strings.Contains(contentStr, "DROP TABLE IF EXISTS "+tableName) {
			t.Errorf("Migration file %s does not drop table %s in down section", migrationFile, tableName)
		}
	}
}

func TestLedgerConstraints(t *testing.T) {
	tests := []struct {
		file      string
		fragments []string
	}{
		{"00003_create_products_table.sql", []string{"price DECIMAL(10, 2)", "FOREIGN KEY (category_id)"}},
		{"00004_create_point_earning_rules_table.sql", []string{"points_per_dollar > 0", "points_per_dollar <= 1000", "end_date >= start_date"}},
		{"00005_create_loyalty_accounts_table.sql", []string{"points >= 0", "UNIQUE"}},
		{"00008_create_shopping_cart_items_table.sql", []string{"quantity > 0", "quantity <= 10000", "UNIQUE (cart_id, product_id)"}},
	}

	for _, tt := range tests {
		contentStr := readMigration(t, tt.file)
		for _, fragment := range tt.fragments {
			if !strings.Contains(contentStr, fragment) {
				t.Errorf("Migration %s missing %q", tt.file, fragment)
			}
		}
	}
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "loyalty",
		Password: "p@ss word",
		Database: "loyalty",
		Schema:   "public",
	})

	expected := "postgres://loyalty:p%40ss%20word@db:5432/loyalty?search_path=public&sslmode=disable"
	if dsn != expected {
		t.Errorf("expected %s, got %s", expected, dsn)
	}
}
