package db

import (
	"testing"
	"testing/fstest"

	"github.com/xrp-transfer/backend/migrations"
)

func TestUpFiles_Order(t *testing.T) {
	fsys := fstest.MapFS{
		"002_b.up.sql":   {Data: []byte("SELECT 2")},
		"001_a.up.sql":   {Data: []byte("SELECT 1")},
		"001_a.down.sql": {Data: []byte("SELECT 0")},
		"README.md":      {Data: []byte("docs")},
	}

	files, err := upFiles(fsys)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0] != "001_a.up.sql" || files[1] != "002_b.up.sql" {
		t.Errorf("files = %v", files)
	}
}

func TestUpFiles_Embedded(t *testing.T) {
	files, err := upFiles(migrations.FS)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 || files[0] != "001_transfer_audit.up.sql" {
		t.Errorf("embedded migrations = %v", files)
	}
}
