package seedfields

import (
	"slices"
	"strconv"
	"strings"
)

// sectionState tracks which placeholder section the scanner is in.
//
// A section opens on its marker line at the bracket depth in front of the
// marker, and closes once the depth falls back to that level.
type sectionState struct {
	current Section
	depth   int // bracket depth in front of the marker
	entered bool
}

func (s *sectionState) open(section Section, depth int, entered bool) {
	s.current = section
	s.depth = depth
	s.entered = entered
}

// update applies the depth at the end of a line and reports the section
// that closed on it, if any.
func (s *sectionState) update(depth int) Section {
	if s.current == SectionNone {
		return SectionNone
	}
	if depth > s.depth {
		s.entered = true
		return SectionNone
	}
	if !s.entered {
		return SectionNone
	}
	closed := s.current
	s.current = SectionNone
	return closed
}

// TagRequiredFields renames `fields_temp:` markers to `fields:`, drops the
// `fields_temp2:` marker lines that directly follow a required array, and
// annotates every single-line field record inside a placeholder section
// with `is_required: true` or `is_required: false`.
//
// Blank and comment-only lines between the two arrays are ignored. When
// the optional marker shares a line with the required array's closer
// (`], fields_temp2: [`) or with its own records (`fields_temp2: [{ ... }]`),
// the line is split so that the marker ends up alone on its line.
//
// An optional marker that does not follow a required array has nothing to
// be merged into and is renamed instead of dropped.
func TagRequiredFields(lines []string, v Vocabulary) ([]Line, Stats) {
	var stats Stats
	out := make([]Line, 0, len(lines))

	var state sectionState
	depth := 0
	closedRequired := false
	pendingOptional := false

	queue := lines
	for k := 0; k < len(queue); k++ {
		raw := queue[k]
		masked := maskLine(raw)
		if head, tail, ok := splitOptional(raw, masked, state, depth, closedRequired, v); ok {
			queue = slices.Insert(slices.Clip(queue), k+1, tail)
			raw, masked = head, maskLine(head)
		}
		text := raw
		emit := true

		if idx := findKey(masked, v.RequiredMarker); idx != -1 {
			at := depth + bracketDelta(masked[:idx])
			state.open(SectionRequired, at, strings.Contains(masked[idx:], "["))
			var n int
			text, n = replaceKeys(raw, masked, v.RequiredMarker, v.UnifiedKey)
			stats.Renamed += n
		} else if idx := findKey(masked, v.OptionalMarker); idx != -1 {
			at := depth + bracketDelta(masked[:idx])
			state.open(SectionOptional, at, strings.Contains(masked[idx:], "["))
			if closedRequired && isBareOpener(masked, idx, v.OptionalMarker) {
				emit = false
				pendingOptional = true
				stats.Dropped++
			} else {
				var n int
				text, n = replaceKeys(raw, masked, v.OptionalMarker, v.UnifiedKey)
				stats.Renamed += n
			}
		}

		if emit && state.current != SectionNone {
			var n int
			text, n = annotateRecords(text, state.current == SectionRequired, v)
			if state.current == SectionRequired {
				stats.Required += n
			} else {
				stats.Optional += n
			}
		}

		line := Line{Text: text, Section: state.current}
		depth += bracketDelta(masked)
		closed := state.update(depth)

		if isBlank(masked) {
			// blank or comment only
			if emit {
				out = append(out, line)
			}
			continue
		}
		closedRequired = closed == SectionRequired
		if !emit {
			continue
		}
		line.AfterOptionalMarker = pendingOptional
		pendingOptional = false
		out = append(out, line)
	}
	return out, stats
}

// splitOptional splits a line holding an optional marker that continues a
// required array into two lines, head and tail:
//
//	], fields_temp2: [          ->  ],  /  fields_temp2: [
//	fields_temp2: [{ ... }]     ->  fields_temp2: [  /  { ... }]
//
// The first form is split only if head closes the required array, the
// second only if the required array closed on an earlier line. The tail
// keeps the indentation of the line.
func splitOptional(raw string, masked string, state sectionState, depth int, closedRequired bool, v Vocabulary) (string, string, bool) {
	idx := findKey(masked, v.OptionalMarker)
	if idx == -1 {
		return "", "", false
	}
	eol := lineEnding(raw)
	indent := raw[:len(raw)-len(strings.TrimLeft(raw, " \t"))]

	prefix := strings.TrimRight(masked[:idx], blanks)
	if prefix != "" {
		code := strings.TrimSuffix(prefix, ",")
		if !strings.HasSuffix(strings.TrimRight(code, blanks), "]") {
			return "", "", false
		}
		if reqIdx := findKey(prefix, v.RequiredMarker); reqIdx != -1 {
			state.open(SectionRequired, depth+bracketDelta(prefix[:reqIdx]), strings.Contains(prefix[reqIdx:], "["))
		}
		if state.update(depth+bracketDelta(prefix)) != SectionRequired {
			return "", "", false
		}
		return raw[:len(prefix)] + eol, indent + raw[idx:], true
	}

	if !closedRequired || findKey(masked, v.RequiredMarker) != -1 {
		return "", "", false
	}
	after := idx + len(v.OptionalMarker) + 1
	open := strings.IndexByte(masked[after:], '[')
	if open == -1 || strings.TrimSpace(masked[after:after+open]) != "" {
		return "", "", false
	}
	open += after
	if strings.TrimSpace(masked[open+1:]) == "" {
		// already a bare opener
		return "", "", false
	}
	return raw[:open+1] + eol, indent + strings.TrimLeft(raw[open+1:], " \t"), true
}

// isBareOpener reports whether the marker at idx is alone on its line and
// followed by nothing but the array's opening bracket.
func isBareOpener(masked string, idx int, marker string) bool {
	if strings.TrimSpace(masked[:idx]) != "" {
		return false
	}
	return strings.TrimSpace(masked[idx+len(marker)+1:]) == "["
}

// annotateRecords splices `, is_required: <required>` in front of the
// closing brace of every record on line whose record key and closing brace
// are both on the line. Records that already carry the flag are skipped.
func annotateRecords(line string, required bool, v Vocabulary) (string, int) {
	masked := maskLine(line)
	keys := findKeys(masked, v.RecordKey)
	annotated := 0
	for k := len(keys) - 1; k >= 0; k-- {
		open, close := recordBounds(masked, keys[k])
		if close == -1 {
			continue
		}
		if findKey(masked[open+1:close], v.FlagKey) != -1 {
			continue
		}
		body := strings.TrimRight(line[:close], blanks)
		flag := v.FlagKey + ": " + strconv.FormatBool(required) + " "
		if strings.HasSuffix(body, ",") || strings.HasSuffix(body, "{") {
			flag = " " + flag
		} else {
			flag = ", " + flag
		}
		line = body + flag + line[close:]
		masked = masked[:len(body)] + flag + masked[close:]
		annotated++
	}
	return line, annotated
}
