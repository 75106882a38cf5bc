package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matches %q", pattern)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestQuoteRecordsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_quote_records.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS quote_records",
		"FOREIGN KEY (company_id) REFERENCES companies(id)",
		"CHECK (status IN ('submitted', 'accepted', 'rejected'))",
		"CHECK (currency IN ('TRY', 'USD', 'EUR', 'GBP'))",
		"idx_quote_records_number",
		"DROP TABLE IF EXISTS quote_records",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestQuoteLineItemsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_quote_line_items.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS quote_line_items",
		"FOREIGN KEY (quote_id) REFERENCES quote_records(id) ON DELETE CASCADE",
		"FOREIGN KEY (catalog_item_id) REFERENCES catalog_items(id) ON DELETE SET NULL",
		"CHECK (quantity >= 1)",
		"DROP TABLE IF EXISTS quote_line_items",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
