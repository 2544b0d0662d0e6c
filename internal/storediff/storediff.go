// Package storediff previews how a full rewrite of contract storage changes
// the stored text.
package storediff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is how many unchanged lines Preview keeps around a change.
const contextLines = 3

// Change is a pending rewrite of the stored text. Both sides are normalized
// so line-ending differences do not show up as changes.
type Change struct {
	Before string
	After  string
}

// Compare returns the change turning before into after.
func Compare(before, after []byte) Change {
	return Change{Before: normalize(string(before)), After: normalize(string(after))}
}

// Empty reports whether the rewrite leaves the text unchanged.
func (c Change) Empty() bool { return c.Before == c.After }

// Preview renders the change line by line: "- " for removed lines, "+ " for
// added ones and a few unchanged lines around each hunk. It is "" when
// nothing changes.
func (c Change) Preview() string {
	if c.Empty() {
		return ""
	}
	dmp := diffmatchpatch.New()
	b, a, lines := dmp.DiffLinesToChars(c.Before, c.After)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(b, a, false), lines)

	var sb strings.Builder
	for i, d := range diffs {
		text := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			writeLines(&sb, "- ", text)
		case diffmatchpatch.DiffInsert:
			writeLines(&sb, "+ ", text)
		default:
			first, last := i == 0, i == len(diffs)-1
			switch {
			case len(text) <= contextLines && !(first && last):
				writeLines(&sb, "  ", text)
			case first:
				sb.WriteString("  ...\n")
				writeLines(&sb, "  ", text[len(text)-contextLines:])
			case last:
				writeLines(&sb, "  ", text[:contextLines])
				sb.WriteString("  ...\n")
			case len(text) <= 2*contextLines:
				writeLines(&sb, "  ", text)
			default:
				writeLines(&sb, "  ", text[:contextLines])
				sb.WriteString("  ...\n")
				writeLines(&sb, "  ", text[len(text)-contextLines:])
			}
		}
	}
	return sb.String()
}

// Patch returns the change in diff-match-patch patch format, "" when
// nothing changes.
func (c Change) Patch() string {
	if c.Empty() {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(c.Before, c.After, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.PatchToText(dmp.PatchMake(c.Before, diffs))
}

// Stats counts inserted and deleted characters.
func (c Change) Stats() (inserted, deleted int) {
	dmp := diffmatchpatch.New()
	for _, d := range dmp.DiffMain(c.Before, c.After, false) {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			inserted += len([]rune(d.Text))
		case diffmatchpatch.DiffDelete:
			deleted += len([]rune(d.Text))
		}
	}
	return inserted, deleted
}

func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func writeLines(sb *strings.Builder, prefix string, lines []string) {
	for _, line := range lines {
		sb.WriteString(prefix)
		sb.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			sb.WriteByte('\n')
		}
	}
}

// normalize trims trailing whitespace from each line and converts CRLF to LF.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
