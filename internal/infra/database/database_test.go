package database

import (
	"testing"

	"github.com/totegamma/transparence/internal/infra/database/models"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !db.Migrator().HasTable(&models.Evidence{}) {
		t.Fatalf("evidence table missing")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", ""); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewMemcachedRequiresServers(t *testing.T) {
	if _, err := NewMemcached(" , "); err == nil {
		t.Fatalf("expected error for empty server list")
	}
}
