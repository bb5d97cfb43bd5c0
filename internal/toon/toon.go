// Package toon implements TOON (Token-Oriented Object Notation) encoding
// of a usage report.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/refscan/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Options selects which sections Encode emits.
type Options struct {
	// All emits the full usages table instead of the unused list.
	All bool
	// Sources emits the discovered source file paths.
	Sources bool
}

// Encode converts a Report into TOON format.
func Encode(rep *model.Report, opts Options) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("source: %s", encodeValue(rep.SourceRoot)))
	parts = append(parts, fmt.Sprintf("search: %s", encodeValue(rep.SearchRoot)))
	parts = append(parts, formatList("sourcetypes", rep.SourceTypes))
	parts = append(parts, formatList("searchtypes", rep.SearchTypes))
	parts = append(parts, fmt.Sprintf("searched: %d", len(rep.SearchFiles)))

	if opts.Sources {
		rows := make([][]string, len(rep.SourceFiles))
		for i, p := range rep.SourceFiles {
			rows[i] = []string{p}
		}
		parts = append(parts, formatTabular("sources", []string{"path"}, rows))
	}

	if opts.All {
		var rows [][]string
		for _, u := range rep.Usages() {
			rows = append(rows, []string{u.Name, fmt.Sprintf("%d", u.Count)})
		}
		parts = append(parts, formatTabular("usages", []string{"name", "count"}, rows))
	} else {
		var rows [][]string
		for _, name := range rep.Unused() {
			rows = append(rows, []string{name})
		}
		parts = append(parts, formatTabular("unused", []string{"name"}, rows))
	}

	if len(rep.Skipped) > 0 {
		var rows [][]string
		for i := range rep.Skipped {
			s := &rep.Skipped[i]
			rows = append(rows, []string{s.Path, s.Reason})
		}
		parts = append(parts, formatTabular("skipped", []string{"path", "reason"}, rows))
	}

	return strings.Join(parts, "\n")
}

func formatList(name string, values []string) string {
	encoded := make([]string, len(values))
	for i, v := range values {
		encoded[i] = encodeValue(v)
	}
	if len(encoded) == 0 {
		return fmt.Sprintf("%s[0]:", name)
	}
	return fmt.Sprintf("%s[%d]: %s", name, len(values), strings.Join(encoded, ","))
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) || strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) || strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return `"` + r.Replace(value) + `"`
}
