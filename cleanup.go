package seedfields

import "strings"

// CleanupResiduals replaces every literal `fields_temp:` and `fields_temp2:`
// left in text with `fields:`, e.g. a second marker on a line the line
// passes already rewrote. It returns the cleaned text and the number of
// replacements.
func CleanupResiduals(text string, v Vocabulary) (string, int) {
	replaced := 0
	to := v.UnifiedKey + ":"
	for _, marker := range v.markers() {
		from := marker + ":"
		if n := strings.Count(text, from); n != 0 {
			replaced += n
			text = strings.ReplaceAll(text, from, to)
		}
	}
	return text, replaced
}
