package seedfields

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
)

func newSeedFs(t *testing.T, content string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("seeds", 0755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "seeds/x.rb", []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestReadSeed(t *testing.T) {
	fs := newSeedFs(t, "seed")
	content, err := ReadSeed(fs, "seeds/x.rb")
	if err != nil || content != "seed" {
		t.Errorf("ReadSeed = (%q, %v), expected (%q, nil)", content, err, "seed")
	}
	if _, err := ReadSeed(fs, "seeds/missing.rb"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist. Got %v.", err)
	}
}

func TestWriteSeed(t *testing.T) {
	fs := newSeedFs(t, "before")
	backupPath, err := WriteSeed(fs, "seeds/x.rb", "after", false)
	if err != nil {
		t.Fatalf("WriteSeed: %v", err)
	}
	if backupPath != "" {
		t.Errorf("backup path %q returned without a backup", backupPath)
	}
	content, _ := afero.ReadFile(fs, "seeds/x.rb")
	if string(content) != "after" {
		t.Errorf("Output %q not equal to expected %q", content, "after")
	}
	info, err := fs.Stat("seeds/x.rb")
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode %v not equal to expected %v", info.Mode().Perm(), os.FileMode(0600))
	}

	// the temporary file is renamed away
	entries, err := afero.ReadDir(fs, "seeds")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("Expected only the seed file in seeds/. Got %v.", names)
	}
}

func TestWriteSeedBackup(t *testing.T) {
	fs := newSeedFs(t, "before")
	backupPath, err := WriteSeed(fs, "seeds/x.rb", "after", true)
	if err != nil {
		t.Fatalf("WriteSeed: %v", err)
	}
	if backupPath != "seeds/x.rb.bak" {
		t.Errorf("BackupPath %q not equal to expected %q", backupPath, "seeds/x.rb.bak")
	}
	backup, _ := afero.ReadFile(fs, backupPath)
	if string(backup) != "before" {
		t.Errorf("backup %q not equal to expected %q", backup, "before")
	}
	info, err := fs.Stat(backupPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("backup mode %v not equal to expected %v", info.Mode().Perm(), os.FileMode(0600))
	}
}

func TestWriteSeedFailure(t *testing.T) {
	if _, err := WriteSeed(afero.NewMemMapFs(), "seeds/missing.rb", "after", false); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist. Got %v.", err)
	}

	base := newSeedFs(t, "before")
	readOnly := afero.NewReadOnlyFs(base)
	for _, backup := range []bool{false, true} {
		if _, err := WriteSeed(readOnly, "seeds/x.rb", "after", backup); err == nil {
			t.Errorf("WriteSeed(backup=%v) on a read-only filesystem: expected an error", backup)
		}
	}
	content, _ := afero.ReadFile(base, "seeds/x.rb")
	if string(content) != "before" {
		t.Errorf("failed write modified the seed file: %q", content)
	}
}
