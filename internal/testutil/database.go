package testutil

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/omdiwan06/CricketRAG/internal/config"
	"github.com/omdiwan06/CricketRAG/pkg/db"
)

// SetupTestDB creates a test database connection.
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()
	// Load environment variables from .env file
	err := LoadEnvFromFile("../../../.env")
	if err != nil {
		t.Logf("Warning: Failed to load .env file: %v", err)
	}

	// Check if database environment variables are set
	user := os.Getenv("APP_PG_USER")
	password := os.Getenv("APP_PG_PASSWORD")
	dbName := os.Getenv("APP_PG_DATABASE")

	if user == "" || password == "" || dbName == "" {
		t.Skip("Database environment variables not set - skipping integration test")
	}

	// Keep the data folder side effect out of the repo checkout
	if os.Getenv("APP_DATA_FOLDER") == "" {
		t.Setenv("APP_DATA_FOLDER", t.TempDir())
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Failed to load test configuration: %v", err)
	}

	database, err := db.NewConnection(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Ensure database is clean for testing
	cleanupTestData(t, database)

	return database
}

// CleanupTestDB performs cleanup after tests.
func CleanupTestDB(t *testing.T, database *db.DB) {
	t.Helper()
	if database == nil {
		return
	}

	cleanupTestData(t, database)
	database.Close()
}

// cleanupTestData removes all test data from database tables.
func cleanupTestData(t *testing.T, database *db.DB) {
	t.Helper()
	// Clean up in reverse order of dependencies
	tables := []string{
		"source_document_history",
		"query_history",
	}

	for _, table := range tables {
		// #nosec G201 -- table names are hardcoded, not user input
		query := fmt.Sprintf("DELETE FROM %s", table)
		_, err := database.Exec(query)
		if err != nil {
			t.Logf("Warning: Failed to clean table %s: %v", table, err)
		}
	}
}

// DropTable removes a table entirely, for tests that create their own.
func DropTable(t *testing.T, database *db.DB, table string) {
	t.Helper()
	// #nosec G201 -- table names come from the test, not user input
	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", table)
	if _, err := database.Exec(query); err != nil {
		t.Logf("Warning: Failed to drop table %s: %v", table, err)
	}
}

// LoadEnvFromFile loads environment variables from a file.
func LoadEnvFromFile(filepath string) error {
	file, err := os.Open(filepath)
	if err != nil {
		return err
	}
	defer file.Close()

	// Read the file content and parse environment variables
	const maxFileSize = 1024
	content := make([]byte, maxFileSize)
	n, err := file.Read(content)
	if err != nil && n == 0 {
		return err
	}

	// Simple parsing of export statements
	lines := strings.Split(string(content[:n]), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "export ") {
			// Remove "export " prefix
			line = strings.TrimPrefix(line, "export ")

			// Split on first "=" to get key and value
			const expectedParts = 2
			parts := strings.SplitN(line, "=", expectedParts)
			if len(parts) == expectedParts {
				key := strings.TrimSpace(parts[0])
				value := strings.TrimSpace(parts[1])

				// Remove quotes if present
				if strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
					value = value[1 : len(value)-1]
				}

				os.Setenv(key, value)
			}
		}
	}

	return nil
}

// GetRecordCount returns the number of rows in a table.
func GetRecordCount(t *testing.T, database *db.DB, table string) int {
	t.Helper()
	// #nosec G201 -- table name is hardcoded, not user input
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	var count int
	err := database.QueryRow(query).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to get record count: %v", err)
	}
	return count
}
