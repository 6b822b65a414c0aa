package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elliotwutingfeng/go-seedfields"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

const (
	testSeedPath      string = "../../test/request_templates_with_fields.rb"
	testConvertedPath string = "../../test/request_templates_with_fields.converted.rb"
)

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(content)
}

// seedFs returns an in-memory filesystem holding content at path.
func seedFs(t *testing.T, path string, content string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return fs
}

func execute(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(fs)
	cmd.SetArgs(append([]string{"--color", "off", "--log-level", "off"}, args...))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), err
}

func fileContent(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatal(err)
	}
	return string(content)
}

func TestRootConvertsDefaultPath(t *testing.T) {
	fs := seedFs(t, seedfields.DefaultSeedPath, readTestFile(t, testSeedPath))
	out, err := execute(t, fs)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if diff := cmp.Diff(readTestFile(t, testConvertedPath), fileContent(t, fs, seedfields.DefaultSeedPath)); diff != "" {
		t.Errorf("file mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(out, "file: "+seedfields.DefaultSeedPath) || !strings.Contains(out, "written\n") {
		t.Errorf("unexpected report %q", out)
	}
}

func TestRootQuiet(t *testing.T) {
	fs := seedFs(t, "seeds/x.rb", readTestFile(t, testSeedPath))
	out, err := execute(t, fs, "--quiet", "seeds/x.rb")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "" {
		t.Errorf("expected no output, got %q", out)
	}
}

func TestRootDryRun(t *testing.T) {
	input := readTestFile(t, testSeedPath)
	fs := seedFs(t, "seeds/x.rb", input)
	out, err := execute(t, fs, "--dry-run", "seeds/x.rb")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if fileContent(t, fs, "seeds/x.rb") != input {
		t.Error("dry run modified the file")
	}
	for _, s := range []string{"+++ b/seeds/x.rb\n", "+    ,\n", "not written (dry run)\n"} {
		if !strings.Contains(out, s) {
			t.Errorf("output does not contain %q", s)
		}
	}
}

func TestRootBackupFromConfig(t *testing.T) {
	input := readTestFile(t, testSeedPath)
	fs := seedFs(t, "seeds/x.rb", input)
	toml := "path = \"seeds/x.rb\"\nbackup = true\n"
	if err := afero.WriteFile(fs, defaultConfigPath, []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, fs, "--quiet"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if fileContent(t, fs, "seeds/x.rb.bak") != input {
		t.Error("backup does not hold the original content")
	}
}

func TestRootBackupFlagOverridesConfig(t *testing.T) {
	fs := seedFs(t, "seeds/x.rb", readTestFile(t, testSeedPath))
	if err := afero.WriteFile(fs, "custom.toml", []byte("backup = true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, fs, "--quiet", "--config", "custom.toml", "--backup=false", "seeds/x.rb"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if exists, _ := afero.Exists(fs, "seeds/x.rb.bak"); exists {
		t.Error("backup written although --backup=false")
	}
}

func TestRootVerifyFailure(t *testing.T) {
	input := "fields_temp: [\n  {\n    field_key: \"a\"\n  }\n]\n"
	fs := seedFs(t, "seeds/x.rb", input)
	if _, err := execute(t, fs, "--quiet", "seeds/x.rb"); err == nil {
		t.Fatal("expected a verification error")
	}
	if fileContent(t, fs, "seeds/x.rb") != input {
		t.Error("file modified after a failed verification")
	}

	if _, err := execute(t, fs, "--quiet", "--no-verify", "seeds/x.rb"); err != nil {
		t.Fatalf("Execute with --no-verify: %v", err)
	}
	if !strings.HasPrefix(fileContent(t, fs, "seeds/x.rb"), "fields: [\n") {
		t.Error("file not written with --no-verify")
	}
}

func TestRootErrors(t *testing.T) {
	fs := seedFs(t, "seeds/x.rb", "fields_temp: []\n")
	cases := [][]string{
		{"missing.rb"},
		{"--config", "missing.toml", "seeds/x.rb"},
		{"--color", "sometimes", "seeds/x.rb"},
		{"--log-level", "loud", "seeds/x.rb"},
		{"a.rb", "b.rb"},
	}
	for _, args := range cases {
		if _, err := execute(t, fs, args...); err == nil {
			t.Errorf("Execute(%q): expected an error", args)
		}
	}
}
