package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/elliotwutingfeng/go-seedfields"
	"github.com/spf13/afero"
)

// defaultConfigPath is read when present and no --config is given.
const defaultConfigPath string = ".seedfields.toml"

type config struct {
	Path       string
	Backup     bool
	Verify     bool
	Vocabulary seedfields.Vocabulary
}

func defaultConfig() config {
	return config{
		Path:       seedfields.DefaultSeedPath,
		Verify:     true,
		Vocabulary: seedfields.DefaultVocabulary,
	}
}

type fileConfig struct {
	Path       string           `toml:"path"`
	Backup     bool             `toml:"backup"`
	Verify     bool             `toml:"verify"`
	Vocabulary vocabularyConfig `toml:"vocabulary"`
}

type vocabularyConfig struct {
	RequiredMarker string `toml:"required_marker"`
	OptionalMarker string `toml:"optional_marker"`
	UnifiedKey     string `toml:"unified_key"`
	RecordKey      string `toml:"record_key"`
	FlagKey        string `toml:"flag_key"`
}

// loadConfig overlays the keys set in the config file at path on the
// defaults. With path = "", defaultConfigPath is used if it exists.
func loadConfig(fs afero.Fs, path string) (config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return config{}, fmt.Errorf("load config: %w", err)
	}

	var raw fileConfig
	meta, err := toml.Decode(string(content), &raw)
	if err != nil {
		return config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return config{}, fmt.Errorf("parse config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	if meta.IsDefined("path") {
		if p := strings.TrimSpace(raw.Path); p != "" {
			cfg.Path = p
		}
	}

	if meta.IsDefined("backup") {
		cfg.Backup = raw.Backup
	}

	if meta.IsDefined("verify") {
		cfg.Verify = raw.Verify
	}

	vocab := &cfg.Vocabulary
	for _, key := range []struct {
		name  string
		value string
		dst   *string
	}{
		{"required_marker", raw.Vocabulary.RequiredMarker, &vocab.RequiredMarker},
		{"optional_marker", raw.Vocabulary.OptionalMarker, &vocab.OptionalMarker},
		{"unified_key", raw.Vocabulary.UnifiedKey, &vocab.UnifiedKey},
		{"record_key", raw.Vocabulary.RecordKey, &vocab.RecordKey},
		{"flag_key", raw.Vocabulary.FlagKey, &vocab.FlagKey},
	} {
		if meta.IsDefined("vocabulary", key.name) {
			*key.dst = strings.TrimSpace(key.value)
		}
	}

	return cfg, nil
}
