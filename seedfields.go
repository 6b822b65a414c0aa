// Package seedfields rewrites database seed files that still use the
// placeholder field sections `fields_temp:` (required fields) and
// `fields_temp2:` (optional fields).
//
// Each placeholder section is renamed to a single `fields:` key, the
// optional records are merged into the preceding required array, and
// every field record is annotated with `is_required: true` or
// `is_required: false` according to the section it came from.
package seedfields

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// DefaultSeedPath is the seed file converted when no path is given.
const DefaultSeedPath string = "db/seeds/25_request_templates_with_fields.rb"

// Vocabulary names the keys recognised in a seed file.
// Keys are matched with a trailing colon, e.g. `fields_temp:`.
type Vocabulary struct {
	RequiredMarker string
	OptionalMarker string
	UnifiedKey     string
	RecordKey      string
	FlagKey        string
}

// DefaultVocabulary is the vocabulary of the request template seeds.
var DefaultVocabulary = Vocabulary{
	RequiredMarker: "fields_temp",
	OptionalMarker: "fields_temp2",
	UnifiedKey:     "fields",
	RecordKey:      "field_key",
	FlagKey:        "is_required",
}

// withDefaults fills empty keys from DefaultVocabulary.
func (v Vocabulary) withDefaults() Vocabulary {
	if v.RequiredMarker == "" {
		v.RequiredMarker = DefaultVocabulary.RequiredMarker
	}
	if v.OptionalMarker == "" {
		v.OptionalMarker = DefaultVocabulary.OptionalMarker
	}
	if v.UnifiedKey == "" {
		v.UnifiedKey = DefaultVocabulary.UnifiedKey
	}
	if v.RecordKey == "" {
		v.RecordKey = DefaultVocabulary.RecordKey
	}
	if v.FlagKey == "" {
		v.FlagKey = DefaultVocabulary.FlagKey
	}
	return v
}

func (v Vocabulary) validate() error {
	keys := []string{v.RequiredMarker, v.OptionalMarker, v.UnifiedKey, v.RecordKey, v.FlagKey}
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		for i := 0; i < len(key); i++ {
			if !identCharSet.contains(key[i]) {
				return fmt.Errorf("invalid key %q: only letters, digits and underscores are allowed", key)
			}
		}
		if seen[key] {
			return fmt.Errorf("key %q is used twice", key)
		}
		seen[key] = true
	}
	return nil
}

// markers returns the placeholder markers, longest first.
func (v Vocabulary) markers() []string {
	if len(v.RequiredMarker) >= len(v.OptionalMarker) {
		return []string{v.RequiredMarker, v.OptionalMarker}
	}
	return []string{v.OptionalMarker, v.RequiredMarker}
}

// Section is the placeholder section a line belongs to.
type Section int

// SectionNone, SectionRequired and SectionOptional indicate whether a line
// is outside any placeholder section, inside `fields_temp:`, or inside
// `fields_temp2:`.
const (
	SectionNone Section = iota
	SectionRequired
	SectionOptional
)

func (s Section) String() string {
	switch s {
	case SectionRequired:
		return "required"
	case SectionOptional:
		return "optional"
	default:
		return "none"
	}
}

// Line is one line of a seed file after tagging, with its provenance.
//
// AfterOptionalMarker is set on the first non-blank line that followed a
// dropped `fields_temp2:` marker line.
type Line struct {
	Text                string
	Section             Section
	AfterOptionalMarker bool
}

// Stats counts what a conversion changed.
type Stats struct {
	Required int // records annotated is_required: true
	Optional int // records annotated is_required: false
	Renamed  int // markers renamed while tagging
	Dropped  int // optional marker lines dropped for merging
	Merged   int // optional arrays merged into a required array
	Residual int // markers replaced by the final cleanup
}

// Result contains the outcome of a conversion.
type Result struct {
	Input, Output string
	Stats         Stats
	Written       bool
	BackupPath    string
}

// Changed reports whether the conversion altered the document.
func (r Result) Changed() bool {
	return r.Input != r.Output
}

// Params configures a Converter.
//
// Fs defaults to the OS filesystem and Vocabulary to DefaultVocabulary.
//
// If DryRun = true, ConvertFile never writes.
//
// If Backup = true, ConvertFile keeps the original content at <path>.bak.
type Params struct {
	Fs         afero.Fs
	Vocabulary Vocabulary
	SkipVerify bool
	DryRun     bool
	Backup     bool
}

// Converter rewrites seed files from the placeholder format.
type Converter struct {
	fs     afero.Fs
	vocab  Vocabulary
	verify bool
	dryRun bool
	backup bool
}

// New creates a new *Converter.
func New(p Params) (*Converter, error) {
	vocab := p.Vocabulary.withDefaults()
	if err := vocab.validate(); err != nil {
		return nil, err
	}
	fs := p.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Converter{
		fs:     fs,
		vocab:  vocab,
		verify: !p.SkipVerify,
		dryRun: p.DryRun,
		backup: p.Backup,
	}, nil
}

// Vocabulary returns the keys the converter recognises.
func (c *Converter) Vocabulary() Vocabulary {
	return c.vocab
}

// Convert rewrites content. The document is split on "\n", tagged,
// merged, joined and cleaned up; unless verification is skipped, the
// result is checked against the input before it is returned. Markers the
// line passes left in code fail verification even though the cleanup
// renamed them.
func (c *Converter) Convert(content string) (Result, error) {
	res := Result{Input: content}

	tagged, stats := TagRequiredFields(strings.Split(content, "\n"), c.vocab)
	merged, mergedBlocks := MergeFieldBlocks(tagged, c.vocab)
	stats.Merged = mergedBlocks
	joined := strings.Join(merged, "\n")
	output, residual := CleanupResiduals(joined, c.vocab)
	stats.Residual = residual

	res.Output = output
	res.Stats = stats

	if c.verify {
		if err := verify(content, joined, output, c.vocab); err != nil {
			return res, err
		}
	}
	return res, nil
}

// ConvertFile converts the seed file at path and replaces it atomically.
//
// Nothing is written when the converter runs dry, when verification fails,
// or when the content did not change.
func (c *Converter) ConvertFile(path string) (Result, error) {
	content, err := ReadSeed(c.fs, path)
	if err != nil {
		return Result{}, err
	}
	res, err := c.Convert(content)
	if err != nil {
		return res, fmt.Errorf("convert %s: %w", path, err)
	}
	if c.dryRun || !res.Changed() {
		return res, nil
	}
	backupPath, err := WriteSeed(c.fs, path, res.Output, c.backup)
	if err != nil {
		return res, err
	}
	res.Written = true
	res.BackupPath = backupPath
	return res, nil
}

// ErrUnbalanced is returned when brackets or braces in a document do not pair up.
var ErrUnbalanced = errors.New("unbalanced brackets")
