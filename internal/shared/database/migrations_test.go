package database

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestMigrationFilesSortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_index.sql":      {Data: []byte("CREATE INDEX x ON y (z);")},
		"001_create_tables.sql":  {Data: []byte("CREATE TABLE y (z INT);")},
		"README.md":              {Data: []byte("notes")},
		"archive/000_legacy.sql": {Data: []byte("SELECT 1;")},
	}

	files, err := migrationFiles(fsys)
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}

	want := "001_create_tables.sql|002_add_index.sql|archive/000_legacy.sql"
	if got := strings.Join(files, "|"); got != want {
		t.Errorf("files = %s, want %s", got, want)
	}
}
