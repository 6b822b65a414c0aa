package seedfields

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Record is a field record found in a seed document: a `{ ... }` hash that
// holds the record key at its own top level.
//
// ArrayKey is the key of the array that encloses the record, e.g.
// "fields_temp2", or "" when the array has no key.
//
// Required is the parsed is_required value, nil if absent or not a boolean.
type Record struct {
	Key      string
	Line     int
	ArrayKey string
	Required *bool
}

// repeatedKey is a key defined more than once in the same hash.
type repeatedKey struct {
	key   string
	line  int
	count int
}

type frame struct {
	open  byte
	start int
	key   string
}

// Outline scans text and returns its field records in document order.
//
// String literals and # comments are skipped; everything else is only
// inspected for brackets, braces and `key:` pairs. An error wrapping
// ErrUnbalanced is returned if brackets and braces do not pair up.
func Outline(text string, v Vocabulary) ([]Record, error) {
	records, _, err := outline(text, v)
	return records, err
}

// outline is Outline that also returns the keys repeated within a hash,
// ordered by line.
func outline(text string, v Vocabulary) ([]Record, []repeatedKey, error) {
	lines := strings.Split(text, "\n")
	maskedLines := make([]string, len(lines))
	lineStarts := make([]int, len(lines))
	offset := 0
	for i, line := range lines {
		maskedLines[i] = maskLine(line)
		lineStarts[i] = offset
		offset += len(line) + 1
	}
	masked := strings.Join(maskedLines, "\n")
	lineOf := func(pos int) int {
		return sort.Search(len(lineStarts), func(i int) bool { return lineStarts[i] > pos })
	}

	type found struct {
		start  int
		record Record
	}
	var records []found
	var repeated []repeatedKey
	var stack []frame

	for i := 0; i < len(masked); i++ {
		c := masked[i]
		switch c {
		case '[', '{':
			stack = append(stack, frame{open: c, start: i, key: keyBefore(masked, i)})
		case ']', '}':
			want := byte('[')
			if c == '}' {
				want = '{'
			}
			if len(stack) == 0 || stack[len(stack)-1].open != want {
				return nil, nil, fmt.Errorf("%w: unexpected %q on line %d", ErrUnbalanced, c, lineOf(i))
			}
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if c != '}' {
				continue
			}
			arrayKey := ""
			if len(stack) != 0 && stack[len(stack)-1].open == '[' {
				arrayKey = stack[len(stack)-1].key
			}
			rec, ok, keys := hashAt(text, masked, f.start, i, v)
			repeated = append(repeated, repeatedKeys(keys, lineOf(f.start))...)
			if ok {
				rec.Line = lineOf(f.start)
				rec.ArrayKey = arrayKey
				records = append(records, found{start: f.start, record: rec})
			}
		}
	}
	if len(stack) != 0 {
		f := stack[len(stack)-1]
		return nil, nil, fmt.Errorf("%w: %q opened on line %d is never closed", ErrUnbalanced, f.open, lineOf(f.start))
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].start < records[j].start })
	out := make([]Record, len(records))
	for i, f := range records {
		out[i] = f.record
	}
	sort.SliceStable(repeated, func(i, j int) bool { return repeated[i].line < repeated[j].line })
	return out, repeated, nil
}

// repeatedKeys returns the keys that occur more than once in the keys of
// the hash starting on line, in order of first occurrence.
func repeatedKeys(keys []string, line int) []repeatedKey {
	var repeated []repeatedKey
	for i, key := range keys {
		if slices.Index(keys, key) != i {
			continue
		}
		n := 0
		for _, k := range keys[i:] {
			if k == key {
				n++
			}
		}
		if n > 1 {
			repeated = append(repeated, repeatedKey{key: key, line: line, count: n})
		}
	}
	return repeated
}

// hashAt inspects the top-level pairs of the hash spanning open..close.
// It returns the hash as a Record if it holds the record key, and the
// keys of all its pairs in order.
func hashAt(text string, masked string, open int, close int, v Vocabulary) (Record, bool, []string) {
	var rec Record
	isRecord := false
	var keys []string

	key := ""
	valueStart := -1
	finish := func(end int) {
		if valueStart == -1 {
			return
		}
		value := strings.TrimSpace(text[valueStart:end])
		switch key {
		case v.RecordKey:
			rec.Key = unquote(value)
			isRecord = true
		case v.FlagKey:
			switch value {
			case "true":
				required := true
				rec.Required = &required
			case "false":
				required := false
				rec.Required = &required
			}
		}
		key, valueStart = "", -1
	}

	depth := 0
	for i := open + 1; i < close; i++ {
		c := masked[i]
		switch {
		case c == '[' || c == '{' || c == '(':
			depth++
		case c == ']' || c == '}' || c == ')':
			depth--
		case depth != 0:
		case c == ',':
			finish(i)
		case valueStart == -1 && identCharSet.contains(c) && !identCharSet.contains(masked[i-1]):
			j := i
			for j < close && identCharSet.contains(masked[j]) {
				j++
			}
			if j < close && masked[j] == ':' && (j+1 >= close || masked[j+1] != ':') && masked[i-1] != ':' {
				key = masked[i:j]
				keys = append(keys, key)
				valueStart = j + 1
			}
			i = j - 1
		}
	}
	finish(close)
	return rec, isRecord, keys
}

// unquote strips the quotes of a string literal or the colon of a symbol.
func unquote(value string) string {
	if len(value) >= 2 && quoteCharSet.contains(value[0]) && value[len(value)-1] == value[0] {
		return value[1 : len(value)-1]
	}
	return strings.TrimPrefix(value, ":")
}
