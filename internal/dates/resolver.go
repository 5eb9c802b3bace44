package dates

import (
	"regexp"

	"github.com/mohawk-valley-archives/curator/internal/inventory"
)

// Date assignment sources, in arbitration priority order.
const (
	SourceOCRText       = "ocr_text"
	SourceOCRUncertain  = "ocr_text_uncertain"
	SourceTitleExplicit = "title_explicit"
	SourceTitleInferred = "title_inferred"
	SourceUndated       = "undated"
	SourceUndatedModern = "undated_modern_documentation"
)

// Plausible bounds for this archive. Anything outside is treated as no date
// at all, never surfaced with reduced confidence.
const (
	MinYear = 1800
	MaxYear = 2025
)

var (
	// Explicit document-date markers in titles/notes.
	explicitTitlePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bdated\s+(1[89]\d{2}|20\d{2})\b`),
		regexp.MustCompile(`(?i)\bpublished\s+(1[89]\d{2}|20\d{2})\b`),
		regexp.MustCompile(`(?i)\bprinted\s+(1[89]\d{2}|20\d{2})\b`),
		regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b\s*$`), // bare year at end
	}

	// Years following these verbs describe the subject, not the document.
	subjectDatePattern = regexp.MustCompile(`(?i)\b(?:discussing|about|commemorating|founded|established)\s+(1[89]\d{2}|20\d{2})\b`)
)

// ExtractFromTitle searches combined title+notes text for a document date,
// distinguishing it from subject dates ("discussing 1845" is about 1845, not
// from 1845).
func ExtractFromTitle(title, notes string) (year int, confidence float64, ok bool) {
	combined := title + " " + notes

	for _, p := range explicitTitlePatterns {
		if m := p.FindStringSubmatch(combined); m != nil {
			return atoi(m[1]), 0.8, true
		}
	}

	if start, _, found := extractRange(combined); found {
		return start, 0.7, true
	}

	if subjectDatePattern.MatchString(combined) {
		return 0, 0, false
	}

	if y, found := extractYear(combined, false); found {
		return y, 0.4, true
	}
	return 0, 0, false
}

// Resolver arbitrates between the available date sources for an artifact.
type Resolver struct {
	minYear int
	maxYear int
}

// NewResolver creates a Resolver with the archive's default year bounds.
func NewResolver() *Resolver {
	return &Resolver{minYear: MinYear, maxYear: MaxYear}
}

// Resolve assigns a creation date to a consolidated artifact, using its
// merged transcription and descriptive labels. The artifact's average OCR
// confidence stands in for the pipeline confidence of the text.
func (r *Resolver) Resolve(artifact *inventory.ArtifactGroup) inventory.DateAssignment {
	return r.BestDate(artifact.MergedText, artifact.ItemType, artifact.ItemTitle, artifact.Notes, artifact.AverageConfidence)
}

// BestDate picks the best year from OCR and title/notes evidence.
//
// Priority: high-confidence OCR, explicit title date, medium-confidence OCR
// (tagged uncertain when either confidence component is below 0.7), inferred
// title date, undated. Years outside the archive bounds are discarded before
// arbitration.
func (r *Resolver) BestDate(ocrText, itemType, itemTitle, notes string, ocrPipelineConfidence float64) inventory.DateAssignment {
	// Modern items depict artifacts, they are not the artifacts themselves.
	if IsModernItemType(itemType) {
		return inventory.DateAssignment{Source: SourceUndatedModern, Confidence: 0}
	}

	ocrYear, ocrConf, ocrOK := ExtractFromOCR(ocrText, itemType)
	if ocrOK && !r.inBounds(ocrYear) {
		ocrOK = false
	}

	titleYear, titleConf, titleOK := ExtractFromTitle(itemTitle, notes)
	if titleOK && !r.inBounds(titleYear) {
		titleOK = false
	}

	switch {
	case ocrOK && ocrConf >= 0.7 && ocrPipelineConfidence >= 0.7:
		return inventory.DateAssignment{Year: ocrYear, Source: SourceOCRText, Confidence: ocrConf}
	case titleOK && titleConf >= 0.7:
		return inventory.DateAssignment{Year: titleYear, Source: SourceTitleExplicit, Confidence: titleConf}
	case ocrOK && ocrConf >= 0.5:
		source := SourceOCRText
		if ocrConf < 0.7 || ocrPipelineConfidence < 0.7 {
			source = SourceOCRUncertain
		}
		return inventory.DateAssignment{Year: ocrYear, Source: source, Confidence: ocrConf}
	case titleOK && titleConf >= 0.4:
		return inventory.DateAssignment{Year: titleYear, Source: SourceTitleInferred, Confidence: titleConf}
	}
	return inventory.DateAssignment{Source: SourceUndated, Confidence: 0}
}

func (r *Resolver) inBounds(year int) bool {
	return year >= r.minYear && year <= r.maxYear
}
