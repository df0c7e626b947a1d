// Package textnorm repairs single lines of OCR or text-layer output.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// FuzzyCutoff is the minimum similarity ratio for a dictionary correction.
const FuzzyCutoff = 0.72

var multiSpace = regexp.MustCompile(`\s{2,}`)

// replacements are applied in order.
var replacements = [][2]string{
	{`\`, "l"},
	{"—", "-"},
	{"°", ""},
	{"|", "l"},
	{"•", "-"},
}

var commonFixes = [][2]string{
	{"inveryitw", "interview"},
	{"agrnee", "agree"},
	{"poupo", "followup"},
	{"ibson", "gibson"},
}

// CanonicalWords is the vocabulary tokens are snapped to.
var CanonicalWords = []string{
	"workout",
	"focus",
	"time",
	"test",
	"ai",
	"youtube",
	"realtor",
	"followup",
	"paypal",
	"interview",
	"notes",
	"house",
	"laundry",
	"prep",
	"review",
	"component",
	"email",
	"resume",
}

// Normalize cleans one line. An empty result means the line carried no content.
func Normalize(line string) string {
	cleaned := strings.TrimSpace(line)
	for _, r := range replacements {
		cleaned = strings.ReplaceAll(cleaned, r[0], r[1])
	}
	cleaned = multiSpace.ReplaceAllString(cleaned, " ")

	// A typo hit switches the whole line to lower case.
	lower := strings.ToLower(cleaned)
	for _, fix := range commonFixes {
		if strings.Contains(lower, fix[0]) {
			cleaned = strings.ReplaceAll(lower, fix[0], fix[1])
			lower = cleaned
		}
	}

	tokens := strings.Fields(cleaned)
	for i, tok := range tokens {
		if utf8.RuneCountInString(tok) < 3 {
			continue
		}
		match, ok := closestWord(strings.Trim(strings.ToLower(tok), "-"))
		if !ok {
			continue
		}
		if isTitle(tok) {
			match = titleCase(match)
		}
		tokens[i] = match
	}
	return strings.Trim(strings.Join(tokens, " "), " -–.")
}

// closestWord returns the best canonical word scoring at least FuzzyCutoff.
// Ties go to the lexically greater word.
func closestWord(word string) (string, bool) {
	b := strings.Split(word, "")
	best, bestScore := "", -1.0
	for _, cand := range CanonicalWords {
		m := difflib.NewMatcher(strings.Split(cand, ""), b)
		if m.RealQuickRatio() < FuzzyCutoff || m.QuickRatio() < FuzzyCutoff {
			continue
		}
		score := m.Ratio()
		if score < FuzzyCutoff {
			continue
		}
		if score > bestScore || (score == bestScore && cand > best) {
			best, bestScore = cand, score
		}
	}
	return best, bestScore >= 0
}

// isTitle reports whether every cased run starts upper case and continues
// lower case, with at least one cased rune.
func isTitle(s string) bool {
	cased := false
	prevCased := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased, cased = true, true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased, cased = true, true
		default:
			prevCased = false
		}
	}
	return cased
}

func titleCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
