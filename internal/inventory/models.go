package inventory

import (
	"strings"
	"time"
)

// Link types explaining why an image was assigned to its artifact group.
const (
	LinkSessionDefault = "session_default"
	LinkContentOverlap = "content_overlap"
	LinkVisualMatch    = "visual_match"
	LinkManualCuration = "manual_curation"
)

// Review queue flag reasons.
const (
	ReasonLowConfidence = "low_confidence"
	ReasonLargeGroup    = "large_group"
)

// PageBreakMarker separates unique page texts in a merged transcription.
const PageBreakMarker = "\n\n---\n\n"

// ImageRecord is one photographed page or object from the collection.
// Grouping fields are populated progressively by the pipeline stages;
// descriptive fields (item type, subject, notes) come from the labeling step
// and are consumed read-only.
type ImageRecord struct {
	ID           string `json:"id" parquet:"id"`
	RelativePath string `json:"relative_path" parquet:"relative_path"`
	Filename     string `json:"filename" parquet:"filename"`
	Extension    string `json:"extension" parquet:"extension"`
	SizeBytes    int64  `json:"size_bytes" parquet:"size_bytes"`
	SHA256       string `json:"sha256" parquet:"sha256"`

	CapturedAt   time.Time `json:"captured_at" parquet:"captured_at"`
	FileModified time.Time `json:"file_modified" parquet:"file_modified"`

	// Hints recovered from the filename (e.g. "IMG_3323 2.jpeg").
	DuplicateHint bool `json:"duplicate_hint_from_name" parquet:"duplicate_hint_from_name"`
	ImageNumber   int  `json:"img_number" parquet:"img_number"`

	// Transcription, when the OCR step has run. An empty text means OCR has
	// not run (or produced nothing); either way the record still participates
	// in session and checksum grouping.
	OCRText       string  `json:"ocr_text,omitempty" parquet:"ocr_text"`
	OCRConfidence float64 `json:"ocr_confidence,omitempty" parquet:"ocr_confidence"`

	// Session & checksum grouping.
	SessionID        string  `json:"session_group_id" parquet:"session_group_id"`
	SessionIndex     int     `json:"session_index" parquet:"session_index"`
	SecondsSincePrev float64 `json:"seconds_since_prev" parquet:"seconds_since_prev"`
	DuplicateGroupID string  `json:"duplicate_group_id" parquet:"duplicate_group_id"`
	DuplicateOf      string  `json:"duplicate_of,omitempty" parquet:"duplicate_of"`

	// Artifact resolution.
	ArtifactGroupID string  `json:"artifact_group_id" parquet:"artifact_group_id"`
	LinkType        string  `json:"artifact_link_type" parquet:"artifact_link_type"`
	LinkConfidence  float64 `json:"artifact_confidence" parquet:"artifact_confidence"`
	NeedsReview     bool    `json:"needs_review" parquet:"needs_review"`

	// Curation / labeling fields.
	ItemTitle     string `json:"item_title,omitempty" parquet:"item_title"`
	ItemType      string `json:"item_type,omitempty" parquet:"item_type"`
	Subject       string `json:"subject,omitempty" parquet:"subject"`
	LocationGuess string `json:"location_guess,omitempty" parquet:"location_guess"`
	Notes         string `json:"notes,omitempty" parquet:"notes"`
}

// CaptureTime returns the best-available capture timestamp, falling back to
// the file modification time. It never returns a zero time for a record that
// carries either timestamp, so no record is excluded from session grouping.
func (r *ImageRecord) CaptureTime() time.Time {
	if !r.CapturedAt.IsZero() {
		return r.CapturedAt
	}
	return r.FileModified
}

// DigestKey returns the key used for exact-duplicate detection. When the
// content digest is missing, the relative path stands in so duplicate
// detection degrades to "no duplicates found" instead of failing.
func (r *ImageRecord) DigestKey() string {
	if r.SHA256 != "" {
		return r.SHA256
	}
	return r.RelativePath
}

// HasText reports whether the record carries a usable transcription.
func (r *ImageRecord) HasText() bool {
	return strings.TrimSpace(r.OCRText) != ""
}

// ConfidentLinkType reports whether a link type indicates a grounded
// grouping, as opposed to the temporal session default.
func ConfidentLinkType(linkType string) bool {
	switch linkType {
	case LinkContentOverlap, LinkVisualMatch, LinkManualCuration:
		return true
	}
	return false
}

// DateAssignment is the resolved creation date for an artifact. A zero Year
// means undated; Source names the heuristic family that produced the value.
type DateAssignment struct {
	Year       int     `json:"year,omitempty" yaml:"year,omitempty"`
	Source     string  `json:"source" yaml:"source"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// ArtifactGroup is a consolidated logical document: one or more photographed
// pages merged into a single canonical transcription.
type ArtifactGroup struct {
	ArtifactGroupID      string   `json:"artifact_group_id" yaml:"artifact_group_id"`
	SourceImages         []string `json:"source_images" yaml:"source_images"`
	UniquePages          int      `json:"unique_pages" yaml:"unique_pages"`
	DuplicatePagesCulled int      `json:"duplicate_pages_culled" yaml:"duplicate_pages_culled"`
	MergedText           string   `json:"merged_text" yaml:"-"`

	ItemTitle     string `json:"item_title,omitempty" yaml:"item_title,omitempty"`
	ItemType      string `json:"item_type,omitempty" yaml:"item_type,omitempty"`
	Subject       string `json:"subject,omitempty" yaml:"subject,omitempty"`
	LocationGuess string `json:"location_guess,omitempty" yaml:"location_guess,omitempty"`
	Notes         string `json:"notes,omitempty" yaml:"notes,omitempty"`

	AverageConfidence  float64  `json:"average_confidence" yaml:"average_confidence"`
	GroupConfidence    float64  `json:"group_confidence" yaml:"group_confidence"`
	LinkTypes          []string `json:"link_types" yaml:"link_types"`
	ConfidentLinkRatio float64  `json:"confident_link_ratio" yaml:"confident_link_ratio"`
	IsResearch         bool     `json:"is_research" yaml:"is_research"`

	Date *DateAssignment `json:"date,omitempty" yaml:"date,omitempty"`
}

// ReviewItem is one entry in the human review queue: an automatic grouping
// the clusterer could not resolve with sufficient confidence.
type ReviewItem struct {
	ID            string  `json:"id"`
	ProposedGroup string  `json:"proposed_group"`
	CurrentGroup  string  `json:"current_group"`
	SessionGroup  string  `json:"session_group"`
	Confidence    float64 `json:"confidence"`
	Reason        string  `json:"reason"`
	GroupSize     int     `json:"group_size"`
	Subject       string  `json:"subject,omitempty"`
}
