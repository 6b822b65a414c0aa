package main

import (
	"errors"
	"os"
	"testing"

	"github.com/elliotwutingfeng/go-seedfields"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

type loadConfigTest struct {
	name     string
	content  string
	expected config
}

var loadConfigTests = []loadConfigTest{
	{name: "empty file keeps the defaults",
		content:  "",
		expected: defaultConfig(),
	},
	{name: "top-level keys",
		content: "path = \" db/seeds/10_templates.rb \"\nbackup = true\nverify = false\n",
		expected: config{
			Path:       "db/seeds/10_templates.rb",
			Backup:     true,
			Verify:     false,
			Vocabulary: seedfields.DefaultVocabulary,
		},
	},
	{name: "partial vocabulary",
		content: "[vocabulary]\nrequired_marker = \"must\"\noptional_marker = \"may\"\n",
		expected: config{
			Path:   seedfields.DefaultSeedPath,
			Verify: true,
			Vocabulary: seedfields.Vocabulary{
				RequiredMarker: "must",
				OptionalMarker: "may",
				UnifiedKey:     "fields",
				RecordKey:      "field_key",
				FlagKey:        "is_required",
			},
		},
	},
	{name: "blank path is ignored",
		content:  "path = \"\"\n",
		expected: defaultConfig(),
	},
}

func TestLoadConfig(t *testing.T) {
	for _, test := range loadConfigTests {
		t.Run(test.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if err := afero.WriteFile(fs, "seedfields.toml", []byte(test.content), 0644); err != nil {
				t.Fatal(err)
			}
			cfg, err := loadConfig(fs, "seedfields.toml")
			if err != nil {
				t.Fatalf("loadConfig: %v", err)
			}
			if diff := cmp.Diff(test.expected, cfg); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadConfigDefaultPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, err := loadConfig(fs, "")
	if err != nil {
		t.Fatalf("loadConfig without %s: %v", defaultConfigPath, err)
	}
	if diff := cmp.Diff(defaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	if err := afero.WriteFile(fs, defaultConfigPath, []byte("backup = true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = loadConfig(fs, "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !cfg.Backup {
		t.Errorf("%s was not read", defaultConfigPath)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	if _, err := loadConfig(fs, "missing.toml"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}

	for _, content := range []string{
		"backup = ",
		"backup = \"yes\"\n",
		"verbose = true\n",
		"[vocabulary]\nmarker = \"x\"\n",
	} {
		if err := afero.WriteFile(fs, "bad.toml", []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := loadConfig(fs, "bad.toml"); err == nil {
			t.Errorf("loadConfig(%q): expected an error", content)
		}
	}
}
