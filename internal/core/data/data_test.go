package data

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"
)

// Creates a database for testing. For the sake of simplicity, this only uses
// the SQLite engine and creates a new database on every invocation since it
// is relatively cheap to do so given the low number of tests.
func setUpDatabase(t *testing.T) *gorm.DB {
	testDBFile := filepath.Join(t.TempDir(), "test.db")
	db, err := Initialize(testDBFile, false)
	if err != nil {
		t.Fatalf("error initializing test database: %s", err)
	}
	return db
}
