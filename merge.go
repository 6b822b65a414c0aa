package seedfields

import (
	"strings"
)

// arrayBlock follows the bracket depth of one `fields:` array.
type arrayBlock struct {
	depth   int
	started bool
}

// scan consumes masked from offset from and returns the index of the
// bracket that closes the array, or -1 if the array is still open at the
// end of the line.
func (b *arrayBlock) scan(masked string, from int) int {
	for i := from; i < len(masked); i++ {
		switch masked[i] {
		case '[':
			b.depth++
			b.started = true
		case ']':
			if !b.started {
				continue
			}
			b.depth--
			if b.depth == 0 {
				return i
			}
		}
	}
	return -1
}

// reopen continues the array after a skipped closing bracket.
func (b *arrayBlock) reopen() {
	b.depth = 1
	b.started = true
}

// MergeFieldBlocks copies every `fields:` array through and splices the
// records of a directly following optional array into it.
//
// When an array closes and the next line of code is the first line of an
// optional array whose marker was dropped, the closing bracket is replaced
// by a "," separator and the optional records continue the same array.
// Blank lines in between are dropped, comment lines are kept.
// It returns the merged lines and the number of arrays merged.
func MergeFieldBlocks(lines []Line, v Vocabulary) ([]string, int) {
	out := make([]string, 0, len(lines))
	merged := 0

	for i := 0; i < len(lines); i++ {
		keyIdx := findKey(maskLine(lines[i].Text), v.UnifiedKey)
		if keyIdx == -1 {
			out = append(out, lines[i].Text)
			continue
		}

		var block arrayBlock
		from := keyIdx + len(v.UnifiedKey) + 1
		for ; i < len(lines); i++ {
			text := lines[i].Text
			masked := maskLine(text)
			pos := block.scan(masked, from)
			if !block.started && strings.TrimSpace(masked[from:]) != "" {
				// fields: holds something other than an array
				out = append(out, text)
				break
			}
			from = 0
			if pos == -1 {
				out = append(out, text)
				continue
			}
			j := nextContentLine(lines, i+1)
			if j == -1 || !lines[j].AfterOptionalMarker || !isDelimiter(masked, pos) {
				out = append(out, text)
				break
			}
			out = appendSeparator(out, text, pos)
			for _, between := range lines[i+1 : j] {
				if !isBlank(between.Text) {
					out = append(out, between.Text)
				}
			}
			merged++
			block.reopen()
			i = j - 1
		}
	}
	return out, merged
}

// nextContentLine returns the index of the first line at or after from
// that holds code, otherwise -1.
func nextContentLine(lines []Line, from int) int {
	for j := from; j < len(lines); j++ {
		if lastCodeByte(lines[j].Text) != 0 {
			return j
		}
	}
	return -1
}

// isDelimiter reports whether the closing bracket at pos can be removed,
// i.e. at most a comma follows it.
func isDelimiter(masked string, pos int) bool {
	rest := strings.TrimSpace(masked[pos+1:])
	return rest == "" || rest == ","
}

// appendSeparator appends what is left of a closing line once its bracket
// at pos is removed, making sure the records on either side are separated
// by exactly one comma.
func appendSeparator(out []string, text string, pos int) []string {
	eol := lineEnding(text)
	prefix := strings.TrimRight(text[:pos], blanks)
	if strings.TrimSpace(prefix) == "" {
		if last := lastContentByte(out); last == ',' || last == '[' {
			return out
		}
		return append(out, text[:pos]+","+eol)
	}
	switch lastCodeByte(prefix) {
	case ',', '[':
		return append(out, prefix+eol)
	}
	return append(out, prefix+","+eol)
}

// lastContentByte returns the last code byte of the last line holding code.
func lastContentByte(out []string) byte {
	for k := len(out) - 1; k >= 0; k-- {
		if last := lastCodeByte(out[k]); last != 0 {
			return last
		}
	}
	return 0
}
