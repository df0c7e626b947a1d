// Package tasks turns cleaned text lines into task candidates.
package tasks

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"


	"planner/pkg/textline"
)

var durationPattern = regexp.MustCompile(`(?i)\((\d{1,3})\s?(?:m|min|minutes)\)`)

// MinTitleLength is the shortest line that can become a task.
const MinTitleLength = 3

// Candidate is a parsed task line.
type Candidate struct {
	Title            string
	EstimatedMinutes *int
}

// Parse converts plain strings, which are never crossed out.
func Parse(lines []string) []Candidate {
	out := make([]Candidate, 0, len(lines))
	for _, l := range lines {
		if c, ok := ParseLine(l); ok {
			out = append(out, c)
		}
	}
	return out
}

// ParseLines converts detector output, skipping crossed-out lines.
func ParseLines(lines []textline.Line) []Candidate {
	out := make([]Candidate, 0, len(lines))
	for _, l := range lines {
		if l.Crossed {
			continue
		}
		if c, ok := ParseLine(l.Text); ok {
			out = append(out, c)
		}
	}
	return out
}

// ParseLine extracts the title and an optional "(N min)" annotation. Lines
// shorter than MinTitleLength after trimming are rejected.
func ParseLine(text string) (Candidate, bool) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinTitleLength {
		return Candidate{}, false
	}
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return Candidate{Title: text}, true
	}
	minutes, _ := strconv.Atoi(m[1])
	title := strings.Trim(durationPattern.ReplaceAllString(text, ""), " -–")
	return Candidate{Title: title, EstimatedMinutes: &minutes}, true
}
