package domain

import (
	"regexp"
	"strings"
	"unicode"
)

// SectionDetector finds the section heading a passage belongs to.
type SectionDetector interface {
	// Detect returns the section title for the text, or "" when no
	// heading is present.
	Detect(text string) string
}

// headerRule maps a heading pattern from the handbook to its canonical
// section title. The list covers the recurring sections of the student
// handbook; anything else falls through to the generic heading heuristic.
type headerRule struct {
	pattern *regexp.Regexp
	title   string
}

var handbookHeaderRules = []headerRule{
	{regexp.MustCompile(`(?i)^STI History`), "General Information – STI History"},
	{regexp.MustCompile(`(?i)^STI Vision`), "General Information – Vision"},
	{regexp.MustCompile(`(?i)^STI Mission`), "General Information – Mission"},
	{regexp.MustCompile(`(?i)Academic Seal`), "General Information – Academic Seal"},
	{regexp.MustCompile(`(?i)Admission Policy`), "Academic Policies – Admission Policies"},
	{regexp.MustCompile(`(?i)Freshmen Requirements`), "Academic Policies – Freshmen Requirements"},
	{regexp.MustCompile(`(?i)Transferee Requirements`), "Academic Policies – Transferee Requirements"},
	{regexp.MustCompile(`(?i)Refunds and Charges`), "Academic Policies – Refunds and Charges"},
	{regexp.MustCompile(`(?i)Academic Honors`), "Academic Policies – Academic Honors"},
	{regexp.MustCompile(`(?i)Graduation`), "Academic Policies – Graduation Policies"},
	{regexp.MustCompile(`(?i)Guidance & Counseling`), "Student Services – Guidance & Counseling"},
	{regexp.MustCompile(`(?i)ICT Services`), "Student Services – ICT Services"},
	{regexp.MustCompile(`(?i)Library Services`), "Student Services – Library Services"},
	{regexp.MustCompile(`(?i)Health Services`), "Student Services – Health Services"},
	{regexp.MustCompile(`(?i)Uniform Policies`), "Discipline – Uniform Policies"},
	{regexp.MustCompile(`(?i)Anti-Bullying`), "Discipline – Anti-Bullying Policy"},
	{regexp.MustCompile(`(?i)Anti-Hazing`), "Discipline – Anti-Hazing Policy"},
	{regexp.MustCompile(`(?i)Smoking, Vaping`), "Discipline – Smoking & Vaping Policy"},
	{regexp.MustCompile(`(?i)Student Discipline`), "Discipline – Student Discipline Procedures"},
	{regexp.MustCompile(`(?i)Minor Offenses`), "Offenses – Minor Offenses"},
	{regexp.MustCompile(`(?i)Major Offenses.*Category A`), "Offenses – Major Offenses (Category A)"},
	{regexp.MustCompile(`(?i)Major Offenses.*Category B`), "Offenses – Major Offenses (Category B)"},
	{regexp.MustCompile(`(?i)Major Offenses.*Category C`), "Offenses – Major Offenses (Category C)"},
	{regexp.MustCompile(`(?i)Major Offenses.*Category D`), "Offenses – Major Offenses (Category D)"},
	{regexp.MustCompile(`(?i)Appendix A`), "Appendix – STIer's Creed"},
	{regexp.MustCompile(`(?i)Appendix B`), "Appendix – STI Hymn"},
}

type handbookSectionDetector struct {
	rules []headerRule
}

// NewSectionDetector builds the default detector: known handbook headings
// first, then a generic short-heading heuristic.
func NewSectionDetector() SectionDetector {
	return &handbookSectionDetector{rules: handbookHeaderRules}
}

func (d *handbookSectionDetector) Detect(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, rule := range d.rules {
			if rule.pattern.MatchString(line) {
				return rule.title
			}
		}
		if isGenericHeading(line) {
			return line
		}
	}
	return ""
}

// isGenericHeading accepts short lines that look like title-case or
// all-caps headings without terminal punctuation.
func isGenericHeading(line string) bool {
	if len(line) < 4 || len(line) > 60 {
		return false
	}
	if strings.ContainsAny(line, ".!?:;") {
		return false
	}
	letters, uppers := 0, 0
	for _, r := range line {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
	}
	if letters == 0 {
		return false
	}
	return uppers*2 >= letters
}
