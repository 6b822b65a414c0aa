package seedfields

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/hashmap"
)

// VerifyError lists the problems found by Verify.
type VerifyError struct {
	Problems []string
}

func (e *VerifyError) Error() string {
	return "verification failed: " + strings.Join(e.Problems, "; ")
}

// Verify checks that after is a faithful conversion of before:
//
// both documents are balanced, no placeholder marker is left in the code of
// after, both hold the same field records, each record that sat in a
// placeholder array now sits in a `fields:` array, each record carries the
// is_required value its section implies, and no hash defines `fields:`
// more than once.
func Verify(before string, after string, v Vocabulary) error {
	return verify(before, after, after, v)
}

// verify is Verify with the marker check run on passed, the document as
// it was before the literal cleanup.
func verify(before string, passed string, after string, v Vocabulary) error {
	in, err := Outline(before, v)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	out, repeated, err := outline(after, v)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}

	var problems []string
	for _, marker := range v.markers() {
		if n := countKeys(passed, marker); n != 0 {
			problems = append(problems, fmt.Sprintf("%d %q marker(s) left", n, marker+":"))
		}
	}
	problems = append(problems, compareKeys(in, out)...)

	if len(in) == len(out) {
		for i := range in {
			problems = append(problems, compareRecord(in[i], out[i], v)...)
		}
	}

	for _, r := range repeated {
		if r.key == v.UnifiedKey {
			problems = append(problems, fmt.Sprintf("hash on line %d defines %q %d times", r.line, r.key+":", r.count))
		}
	}

	if len(problems) != 0 {
		return &VerifyError{Problems: problems}
	}
	return nil
}

// compareKeys compares the multisets of record keys of in and out.
func compareKeys(in []Record, out []Record) []string {
	var counts hashmap.Map[string, int]
	for _, rec := range in {
		n, _ := counts.Get(rec.Key)
		counts.Set(rec.Key, n+1)
	}
	for _, rec := range out {
		n, _ := counts.Get(rec.Key)
		counts.Set(rec.Key, n-1)
	}

	var problems []string
	counts.Scan(func(key string, n int) bool {
		switch {
		case n > 0:
			problems = append(problems, fmt.Sprintf("record %q lost %d time(s)", key, n))
		case n < 0:
			problems = append(problems, fmt.Sprintf("record %q duplicated %d time(s)", key, -n))
		}
		return true
	})
	sort.Strings(problems)
	return problems
}

// compareRecord checks the output record of a single input record.
func compareRecord(in Record, out Record, v Vocabulary) []string {
	if in.Key != out.Key {
		return []string{fmt.Sprintf("record %q on line %d became %q on line %d", in.Key, in.Line, out.Key, out.Line)}
	}

	want := in.Required
	switch in.ArrayKey {
	case v.RequiredMarker:
		required := true
		want = &required
	case v.OptionalMarker:
		required := false
		want = &required
	}

	var problems []string
	if (in.ArrayKey == v.RequiredMarker || in.ArrayKey == v.OptionalMarker) && out.ArrayKey != v.UnifiedKey {
		problems = append(problems, fmt.Sprintf("record %q on line %d is not inside %q", out.Key, out.Line, v.UnifiedKey+":"))
	}
	switch {
	case want == nil && out.Required == nil:
	case want == nil || out.Required == nil:
		problems = append(problems, fmt.Sprintf("record %q on line %d: %s is %s, want %s",
			out.Key, out.Line, v.FlagKey, describeFlag(out.Required), describeFlag(want)))
	case *want != *out.Required:
		problems = append(problems, fmt.Sprintf("record %q on line %d: %s is %s, want %s",
			out.Key, out.Line, v.FlagKey, describeFlag(out.Required), describeFlag(want)))
	}
	return problems
}

func describeFlag(b *bool) string {
	if b == nil {
		return "missing"
	}
	return fmt.Sprint(*b)
}
