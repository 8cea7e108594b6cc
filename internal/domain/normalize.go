package domain

import (
	"regexp"
	"strings"
)

// Handbook PDFs arrive with pipe-delimited tables, two-column layouts and
// offense rows ("First offense: written warning"). Embedding models retrieve
// those far better as "label: value" lines, so normalization flattens them
// before chunking. Normalization is deterministic.

var (
	multiSpaceRe  = regexp.MustCompile(` {2,}`)
	offenseRowRe  = regexp.MustCompile(`(?i)^(first|second|third|1st|2nd|3rd|fourth|fifth)\b[:.\-\s]`)
	numericRowRe  = regexp.MustCompile(`^\s*\d+[.)]\s*(.+)$`)
	rowSeparators = regexp.MustCompile(`[:\-–—]+| {2,}`)
)

type tableRow struct {
	label string
	value string
}

// NormalizeDocument cleans raw extracted text for chunking: tabs become
// spaces, runs of spaces collapse, and tabular rows are rewritten as
// "- label: value" bullet lines.
func NormalizeDocument(raw string) string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	lines := strings.Split(normalized, "\n")

	var out []string
	i := 0
	for i < len(lines) {
		line := normalizeLine(lines[i])
		if line == "" {
			out = append(out, "")
			i++
			continue
		}

		if strings.Contains(line, "|") {
			var rows []tableRow
			for i < len(lines) && strings.Contains(lines[i], "|") {
				if row, ok := splitPipeRow(lines[i]); ok {
					rows = append(rows, row)
				}
				i++
			}
			out = append(out, renderRows(rows))
			continue
		}

		var block []tableRow
		j := i
		for j < len(lines) {
			// Column detection needs the raw spacing; only tabs are
			// pre-expanded so they count as a column gap.
			raw := strings.ReplaceAll(lines[j], "\t", "  ")
			row, ok := splitColumnRow(raw)
			if !ok {
				row, ok = splitOffenseRow(normalizeLine(lines[j]))
			}
			if !ok {
				break
			}
			block = append(block, row)
			j++
		}
		if len(block) > 0 {
			out = append(out, renderRows(block))
			i = j
			continue
		}

		out = append(out, line)
		i++
	}

	return strings.Join(out, "\n")
}

func normalizeLine(line string) string {
	line = strings.ReplaceAll(line, "\t", " ")
	line = multiSpaceRe.ReplaceAllString(line, " ")
	return strings.TrimSpace(line)
}

func splitPipeRow(line string) (tableRow, bool) {
	trimmed := strings.Trim(strings.TrimSpace(line), "|")
	parts := splitNonEmpty(trimmed, "|")
	if len(parts) < 2 {
		return tableRow{}, false
	}
	return tableRow{label: parts[0], value: strings.Join(parts[1:], " ")}, true
}

// splitColumnRow detects two-column layouts separated by runs of spaces in
// the raw (pre-collapse) line.
func splitColumnRow(line string) (tableRow, bool) {
	parts := multiSpaceRe.Split(line, -1)
	var cells []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cells = append(cells, trimmed)
		}
	}
	if len(cells) < 2 {
		return tableRow{}, false
	}
	return tableRow{label: cells[0], value: strings.Join(cells[1:], " ")}, true
}

func splitOffenseRow(line string) (tableRow, bool) {
	candidate := line
	if m := numericRowRe.FindStringSubmatch(line); m != nil {
		candidate = strings.TrimSpace(m[1])
	} else if !offenseRowRe.MatchString(line) {
		return tableRow{}, false
	}

	parts := splitFields(candidate)
	if len(parts) < 2 {
		return tableRow{}, false
	}
	return tableRow{label: parts[0], value: strings.Join(parts[1:], " ")}, true
}

func splitFields(s string) []string {
	var fields []string
	for _, p := range rowSeparators.Split(s, -1) {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			fields = append(fields, trimmed)
		}
	}
	return fields
}

func splitNonEmpty(s, sep string) []string {
	var parts []string
	for _, p := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

func renderRows(rows []tableRow) string {
	lines := []string{"Table:"}
	for _, r := range rows {
		if r.label != "" && r.value != "" {
			lines = append(lines, "- "+r.label+": "+r.value)
		}
	}
	return strings.Join(lines, "\n")
}
