package verify

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Write prints one PASS or FAIL line per algorithm followed by a diff of
// every recorded mismatch.
func Write(w io.Writer, report *Report) error {
	pass := color.New(color.FgGreen, color.Bold)
	fail := color.New(color.FgRed, color.Bold)

	for _, res := range report.Results {
		label, status := pass, "PASS"
		if !res.Passed() {
			label, status = fail, "FAIL"
		}

		_, err := label.Fprintf(w, "%s", status)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(w, " %-10s %s checks over %d seeds, %s mismatches\n",
			res.Algorithm, humanize.Comma(int64(res.Checks)), report.Seeds, humanize.Comma(int64(res.Failures)))
		if err != nil {
			return err
		}

		for _, m := range res.Mismatches {
			err = writeMismatch(w, m)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func writeMismatch(w io.Writer, m Mismatch) error {
	header := color.New(color.FgYellow)

	_, err := header.Fprintf(w, "  seed %d %s [%d, %d]\n", m.Seed, m.Kind, m.Low, m.High)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, DiffValues(m.Want, m.Got))

	return err
}

// DiffValues renders a line diff between the expected and actual value
// lists: "-" for values only the reference returned, "+" for extra values.
func DiffValues(want, got []int) string {
	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToRunes(joinLines(want), joinLines(got))
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lines)

	removed := color.New(color.FgRed)
	added := color.New(color.FgGreen)

	var sb strings.Builder

	for _, d := range diffs {
		for line := range strings.Lines(d.Text) {
			line = strings.TrimSuffix(line, "\n")

			switch d.Type {
			case diffmatchpatch.DiffDelete:
				sb.WriteString(removed.Sprintf("    - %s", line))
			case diffmatchpatch.DiffInsert:
				sb.WriteString(added.Sprintf("    + %s", line))
			case diffmatchpatch.DiffEqual:
				sb.WriteString("      " + line)
			}

			sb.WriteByte('\n')
		}
	}

	return sb.String()
}

func joinLines(values []int) string {
	var sb strings.Builder

	for _, v := range values {
		sb.WriteString(strconv.Itoa(v))
		sb.WriteByte('\n')
	}

	return sb.String()
}
