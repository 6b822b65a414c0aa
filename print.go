package seedfields

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is the number of unchanged lines shown around each change.
const contextLines int = 3

// PrintReport pretty-prints what a conversion of path changed.
func PrintReport(w io.Writer, path string, res Result) {
	var leftAttrsFilled = []color.Attribute{color.FgHiYellow, color.Bold}
	var leftAttrsBlank = []color.Attribute{color.FgHiBlack}
	var rightAttrs = []color.Attribute{color.FgHiWhite}

	row := func(label string, value int) {
		if value != 0 {
			color.New(leftAttrsFilled...).Fprint(w, label)
		} else {
			color.New(leftAttrsBlank...).Fprint(w, label)
		}
		color.New(rightAttrs...).Fprintln(w, value)
	}

	color.New(leftAttrsFilled...).Fprint(w, "             file: ")
	color.New(rightAttrs...).Fprintln(w, path)
	row("  required fields: ", res.Stats.Required)
	row("  optional fields: ", res.Stats.Optional)
	row("  markers renamed: ", res.Stats.Renamed)
	row("  markers dropped: ", res.Stats.Dropped)
	row("    arrays merged: ", res.Stats.Merged)
	row(" residual markers: ", res.Stats.Residual)

	switch {
	case !res.Changed():
		color.New(color.FgHiBlack).Fprintln(w, "nothing to convert")
	case res.Written && res.BackupPath != "":
		color.New(color.FgHiGreen, color.Bold).Fprint(w, "written")
		color.New(rightAttrs...).Fprintf(w, " (backup: %s)\n", res.BackupPath)
	case res.Written:
		color.New(color.FgHiGreen, color.Bold).Fprintln(w, "written")
	default:
		color.New(color.FgHiCyan, color.Bold).Fprintln(w, "not written (dry run)")
	}
	fmt.Fprintln(w)
}

// diffLine is one line of a line diff with its line numbers.
type diffLine struct {
	op      diffmatchpatch.Operation
	text    string
	oldLine int
	newLine int
}

// lineDiff computes a line-level diff of before and after.
func lineDiff(before string, after string) []diffLine {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var lines []diffLine
	oldLine, newLine := 1, 1
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		if d.Text == "" {
			continue
		}
		for _, l := range strings.Split(text, "\n") {
			lines = append(lines, diffLine{op: d.Type, text: l, oldLine: oldLine, newLine: newLine})
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				oldLine++
			case diffmatchpatch.DiffInsert:
				newLine++
			}
		}
	}
	return lines
}

// hunks groups the changed lines of a diff, with contextLines of
// unchanged lines around them, into [start, end) ranges.
func hunks(lines []diffLine) [][2]int {
	var ranges [][2]int
	for i, l := range lines {
		if l.op == diffmatchpatch.DiffEqual {
			continue
		}
		start := i - contextLines
		if start < 0 {
			start = 0
		}
		end := i + contextLines + 1
		if end > len(lines) {
			end = len(lines)
		}
		if n := len(ranges); n != 0 && start <= ranges[n-1][1] {
			ranges[n-1][1] = end
			continue
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}

// PrintDiff pretty-prints a unified line diff between before and after
// and returns the number of hunks printed.
func PrintDiff(w io.Writer, path string, before string, after string) int {
	lines := lineDiff(before, after)
	ranges := hunks(lines)
	if len(ranges) == 0 {
		return 0
	}

	header := color.New(color.Bold)
	header.Fprintf(w, "--- a/%s\n", path)
	header.Fprintf(w, "+++ b/%s\n", path)

	for _, r := range ranges {
		oldCount, newCount := 0, 0
		for _, l := range lines[r[0]:r[1]] {
			if l.op != diffmatchpatch.DiffInsert {
				oldCount++
			}
			if l.op != diffmatchpatch.DiffDelete {
				newCount++
			}
		}
		first := lines[r[0]]
		color.New(color.FgCyan).Fprintf(w, "@@ -%d,%d +%d,%d @@\n", first.oldLine, oldCount, first.newLine, newCount)
		for _, l := range lines[r[0]:r[1]] {
			switch l.op {
			case diffmatchpatch.DiffDelete:
				color.New(color.FgRed).Fprintln(w, "-"+l.text)
			case diffmatchpatch.DiffInsert:
				color.New(color.FgGreen).Fprintln(w, "+"+l.text)
			default:
				fmt.Fprintln(w, " "+l.text)
			}
		}
	}
	return len(ranges)
}
