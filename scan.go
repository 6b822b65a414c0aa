package seedfields

import (
	"strings"
)

const alphabets string = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
const numbers string = "0123456789"

// Characters that may appear in a key such as field_key or fields_temp2.
var identCharSet asciiSet = makeASCIISet(alphabets + numbers + "_")

// Characters that open a string literal in seed files.
var quoteCharSet asciiSet = makeASCIISet(`"'`)

const blanks string = " \t\r"

// asciiSet is a 32-byte value, where each bit represents the presence of a
// given ASCII character in the set. The 128-bits of the lower 16 bytes,
// starting with the least-significant bit of the lowest word to the
// most-significant bit of the highest word, map to the full range of all
// 128 ASCII characters. The 128-bits of the upper 16 bytes will be zeroed,
// ensuring that any non-ASCII character will be reported as not in the set.
// This allocates a total of 32 bytes even though the upper half
// is unused to avoid bounds checks in asciiSet.contains.
type asciiSet [8]uint32

// makeASCIISet creates a set of ASCII characters.
//
// Similar to strings.makeASCIISet but skips input validation.
func makeASCIISet(chars string) (as asciiSet) {
	// all characters in chars are expected to be valid ASCII characters
	for _, c := range chars {
		as[c/32] |= 1 << (c % 32)
	}
	return as
}

// contains reports whether c is inside the set.
//
// same as strings.contains.
func (as *asciiSet) contains(c byte) bool {
	return (as[c/32] & (1 << (c % 32))) != 0
}

// maskLine returns a copy of line in which the contents of string literals
// and trailing # comments are replaced by spaces. Quote characters are kept.
//
// The result has the same byte length as line, so indices found in the
// mask can be used to splice the original text.
func maskLine(line string) string {
	masked := []byte(line)
	var quote byte
	for i := 0; i < len(masked); i++ {
		c := masked[i]
		if quote != 0 {
			switch c {
			case '\\':
				masked[i] = ' '
				if i+1 < len(masked) {
					i++
					masked[i] = ' '
				}
			case quote:
				quote = 0
			default:
				masked[i] = ' '
			}
			continue
		}
		if quoteCharSet.contains(c) {
			quote = c
			continue
		}
		if c == '#' {
			for j := i; j < len(masked); j++ {
				if masked[j] != '\r' {
					masked[j] = ' '
				}
			}
			break
		}
	}
	return string(masked)
}

// bracketDelta returns the number of '[' minus the number of ']' in masked.
func bracketDelta(masked string) int {
	return strings.Count(masked, "[") - strings.Count(masked, "]")
}

// findKey returns the index of the first occurrence of `key:` in masked
// that is not part of a longer identifier, otherwise -1.
func findKey(masked string, key string) int {
	if idx := findKeys(masked, key); len(idx) != 0 {
		return idx[0]
	}
	return -1
}

// findKeys returns the indices of every occurrence of `key:` in masked
// that is not part of a longer identifier.
func findKeys(masked string, key string) []int {
	var found []int
	needle := key + ":"
	for offset := 0; offset < len(masked); {
		i := strings.Index(masked[offset:], needle)
		if i == -1 {
			break
		}
		i += offset
		offset = i + len(needle)
		if i > 0 && (identCharSet.contains(masked[i-1]) || masked[i-1] == ':') {
			continue
		}
		if offset < len(masked) && masked[offset] == ':' {
			// key::Const is a scope lookup, not a hash key
			continue
		}
		found = append(found, i)
	}
	return found
}

// countKeys returns the number of `key:` keys in the code of text.
func countKeys(text string, key string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		n += len(findKeys(maskLine(line), key))
	}
	return n
}

// replaceKeys renames every `from:` key found in masked to `to:` in line.
// It returns the rewritten line and the number of renamed keys.
func replaceKeys(line string, masked string, from string, to string) (string, int) {
	idx := findKeys(masked, from)
	for k := len(idx) - 1; k >= 0; k-- {
		line = line[:idx[k]] + to + line[idx[k]+len(from):]
	}
	return line, len(idx)
}

// recordBounds returns the indices of the '{' and '}' enclosing the
// position keyIdx in masked. Either index is -1 if that brace is not on
// this line.
func recordBounds(masked string, keyIdx int) (open int, close int) {
	open, close = -1, -1
	depth := 0
	for i := keyIdx - 1; i >= 0; i-- {
		switch masked[i] {
		case '}', ']':
			depth++
		case '[':
			depth--
		case '{':
			if depth == 0 {
				open = i
			} else {
				depth--
			}
		}
		if open != -1 {
			break
		}
	}
	depth = 0
	for i := keyIdx; i < len(masked); i++ {
		switch masked[i] {
		case '{', '[':
			depth++
		case ']':
			depth--
		case '}':
			if depth == 0 {
				return open, i
			}
			depth--
		}
	}
	return open, close
}

// lineEnding returns "\r" if line was split from a CRLF document.
func lineEnding(line string) string {
	if strings.HasSuffix(line, "\r") {
		return "\r"
	}
	return ""
}

// isBlank reports whether line holds nothing but whitespace.
func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// lastCodeByte returns the last non-blank byte of the code in line, or 0.
func lastCodeByte(line string) byte {
	code := strings.TrimRight(maskLine(line), blanks)
	if len(code) == 0 {
		return 0
	}
	return code[len(code)-1]
}
