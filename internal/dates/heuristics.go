// Package dates assigns a best-effort creation year to consolidated
// artifacts. Extraction is a set of small pure heuristics arranged into
// per-item-type cascades; the ranking between OCR and title evidence lives
// in the resolver, not in the heuristics themselves.
package dates

import (
	"regexp"
	"strings"
)

var (
	yearPattern = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)

	// Ranges like "1894-1898" or "1900-03" (en dash tolerated).
	rangePattern = regexp.MustCompile(`\b(1[89]\d{2})[-–](\d{2,4})\b`)

	// Letter datelines: "September 19, 1941".
	datelinePattern = regexp.MustCompile(`(?i)\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+(1[89]\d{2}|20\d{2})\b`)

	imprintKeywords = regexp.MustCompile(`(?i)PRINTED|PUBLISHED|SYRACUSE|ALBANY|NEW YORK`)
)

// extractYear returns a single year from text: the latest match, or the
// earliest when preferEarly is set.
func extractYear(text string, preferEarly bool) (int, bool) {
	matches := yearPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return 0, false
	}

	best := atoi(matches[0])
	for _, m := range matches[1:] {
		y := atoi(m)
		if preferEarly && y < best || !preferEarly && y > best {
			best = y
		}
	}
	return best, true
}

// extractRange parses a year range, expanding abbreviated end years
// ("1900-03") using the start year's century.
func extractRange(text string) (start, end int, ok bool) {
	m := rangePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}

	start = atoi(m[1])
	endPart := m[2]
	if len(endPart) == 2 {
		end = (start/100)*100 + atoi(endPart)
	} else {
		end = atoi(endPart)
	}
	return start, end, true
}

// letterDateline extracts the year of a month-name dateline, common at the
// head of correspondence.
func letterDateline(text string) (int, bool) {
	m := datelinePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return atoi(m[1]), true
}

// meetingHeader scans the first 20 lines for an "ANNUAL MEETING" or
// "HELD AT" line and extracts the latest year on it.
func meetingHeader(text string) (int, bool) {
	for _, line := range firstLines(text, 20) {
		upper := strings.ToUpper(line)
		if strings.Contains(upper, "ANNUAL MEETING") || strings.Contains(upper, "HELD AT") {
			if year, ok := extractYear(line, false); ok {
				return year, true
			}
		}
	}
	return 0, false
}

// publicationImprint scans the last 30 lines for a city/printer imprint line
// ("SYRACUSE, N. Y: ... PUBLISHER, 1881.") and extracts its year.
func publicationImprint(text string) (int, bool) {
	for _, line := range lastLines(text, 30) {
		if imprintKeywords.MatchString(line) {
			if year, ok := extractYear(line, false); ok {
				return year, true
			}
		}
	}
	return 0, false
}

// proceedingsMeeting is the meeting-header search gated on the document
// mentioning proceedings at all; used for covers and pamphlets.
func proceedingsMeeting(text string) (int, bool) {
	upper := strings.ToUpper(text)
	if !strings.Contains(upper, "PROCEEDINGS") && !strings.Contains(upper, "MEETING") {
		return 0, false
	}
	return meetingHeader(text)
}

// prominentEarlyYear falls back to the most prominent year within the first
// 15 lines, where title pages place their dates.
func prominentEarlyYear(text string) (int, bool) {
	head := strings.Join(firstLines(text, 15), "\n")
	return extractYear(head, false)
}

// strategy pairs one extraction function with the confidence its success
// carries for a given item type.
type strategy struct {
	extract    func(string) (int, bool)
	confidence float64
}

// modernItemTypes depict artifacts rather than being them (a photo of a
// museum display, an archival notecard); their OCR text must never date the
// underlying artifact.
var modernItemTypes = map[string]bool{
	"photograph_of_display": true,
	"notecard":              true,
}

// IsModernItemType reports whether an item type is modern documentation of
// an artifact rather than a primary source.
func IsModernItemType(itemType string) bool {
	return modernItemTypes[itemType]
}

// cascadeFor returns the ordered dating strategies for an item type. The
// first strategy to find a year wins. Modern documentation and unknown
// types yield an empty cascade.
func cascadeFor(itemType string) []strategy {
	if IsModernItemType(itemType) {
		return nil
	}

	switch itemType {
	case "letter":
		return []strategy{{letterDateline, 0.9}}
	case "meeting_minutes", "report":
		return []strategy{{meetingHeader, 0.85}}
	case "cover_or_title_page", "pamphlet_or_brochure":
		return []strategy{
			{publicationImprint, 0.8},
			{proceedingsMeeting, 0.85},
			{prominentEarlyYear, 0.8},
		}
	case "document_page", "form", "ledger_or_register":
		return []strategy{
			{meetingHeader, 0.7},
			{publicationImprint, 0.6},
		}
	}
	return nil
}

// ExtractFromOCR runs the item type's cascade over a transcription. It never
// fails on malformed or empty text; no match is (0, 0, false).
func ExtractFromOCR(text, itemType string) (year int, confidence float64, ok bool) {
	if strings.TrimSpace(text) == "" {
		return 0, 0, false
	}
	for _, s := range cascadeFor(itemType) {
		if y, found := s.extract(text); found {
			return y, s.confidence, true
		}
	}
	return 0, 0, false
}

func firstLines(text string, n int) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}

func lastLines(text string, n int) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
