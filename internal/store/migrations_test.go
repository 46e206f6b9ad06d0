package store

import (
	"regexp"
	"strings"
	"testing"
)

func TestEmbeddedMigrationsAreWellFormed(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no migrations embedded")
	}

	pattern := regexp.MustCompile(`^(\d{4})_.+\.up\.sql$`)
	seen := map[string]bool{}

	for _, entry := range entries {
		name := entry.Name()
		match := pattern.FindStringSubmatch(name)
		if match == nil {
			t.Fatalf("migration %s does not follow NNNN_name.up.sql", name)
		}
		version := match[1]
		if seen[version] {
			t.Fatalf("duplicate migration version %s", version)
		}
		seen[version] = true

		contents, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			t.Fatalf("read migration %s: %v", name, err)
		}
		if strings.TrimSpace(string(contents)) == "" {
			t.Fatalf("migration %s is empty", name)
		}
	}
}

func TestInitialMigrationCoversSchema(t *testing.T) {
	contents, err := migrationFiles.ReadFile("migrations/0001_init.up.sql")
	if err != nil {
		t.Fatalf("read initial migration: %v", err)
	}
	sql := string(contents)

	for _, table := range []string{"pages", "comments", "staff"} {
		if !strings.Contains(sql, table) {
			t.Errorf("initial migration missing table %s", table)
		}
	}
	if strings.Contains(strings.ToLower(sql), "references comments") {
		t.Error("parent_id must not carry a foreign key; reconstruction tolerates bad links")
	}
}
