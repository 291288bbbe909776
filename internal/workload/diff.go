package workload

import (
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffKeys renders a line diff of two key sequences, one key per line,
// prefixed "-" for expected-only keys and "+" for actual-only keys.
func DiffKeys(expected, actual []int) string {
	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToRunes(keyLines(expected), keyLines(actual))
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lines)

	var out strings.Builder

	for _, diff := range diffs {
		prefix := "  "

		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffEqual:
		}

		for line := range strings.SplitSeq(strings.TrimSuffix(diff.Text, "\n"), "\n") {
			out.WriteString(prefix)
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}

	return out.String()
}

func keyLines(keys []int) string {
	var out strings.Builder

	for _, key := range keys {
		out.WriteString(strconv.Itoa(key))
		out.WriteByte('\n')
	}

	return out.String()
}
