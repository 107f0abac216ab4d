package database

import (
	"slices"
	"testing"
	"testing/fstest"
)

func TestMigrationFilesSortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_indexes.sql":     {Data: []byte("CREATE INDEX ...;")},
		"001_create_datasets.sql": {Data: []byte("CREATE TABLE ...;")},
		"README.md":               {Data: []byte("notes")},
		"old/000_legacy.sql":      {Data: []byte("DROP TABLE ...;")},
	}

	files, err := migrationFiles(fsys)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"001_create_datasets.sql", "002_add_indexes.sql"}
	if !slices.Equal(files, want) {
		t.Errorf("migrationFiles = %v, want %v", files, want)
	}
}
