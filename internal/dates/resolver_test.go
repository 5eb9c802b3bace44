package dates

import (
	"testing"

	"github.com/mohawk-valley-archives/curator/internal/inventory"
)

func TestExtractFromTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		notes string
		year  int
		conf  float64
		ok    bool
	}{
		{name: "explicit dated", title: "Membership certificate dated 1881", year: 1881, conf: 0.8, ok: true},
		{name: "explicit published", title: "Pamphlet published 1903", year: 1903, conf: 0.8, ok: true},
		{name: "bare year at end", title: "Annual report 1894", year: 1894, conf: 0.8, ok: true},
		{name: "range uses start year", title: "Minute book 1894-1898 minutes", year: 1894, conf: 0.7, ok: true},
		{name: "abbreviated range", title: "Ledger 1900-03", year: 1900, conf: 0.7, ok: true},
		// A range ending the title puts its end year in terminal position,
		// which reads as an explicit date before the range heuristic runs.
		{name: "terminal range year is explicit", title: "Minute book 1894-1898", year: 1898, conf: 0.8, ok: true},
		{name: "subject date rejected", title: "Lecture notes discussing 1845 charter", ok: false},
		{name: "commemorating rejected", title: "Program commemorating 1855 founding", ok: false},
		{name: "bare year mid-title", title: "The 1899 excursion and its aftermath", year: 1899, conf: 0.4, ok: true},
		{name: "year in notes", notes: "References the 1922 reunion", year: 1922, conf: 0.4, ok: true},
		{name: "no year anywhere", title: "Portrait of an unknown member", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, conf, ok := ExtractFromTitle(tt.title, tt.notes)
			if ok != tt.ok {
				t.Fatalf("ok = %v, expected %v", ok, tt.ok)
			}
			if ok && (year != tt.year || conf != tt.conf) {
				t.Errorf("got (%d, %.2f), expected (%d, %.2f)", year, conf, tt.year, tt.conf)
			}
		})
	}
}

func TestBestDateArbitration(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name         string
		ocrText      string
		itemType     string
		title        string
		notes        string
		pipelineConf float64
		want         inventory.DateAssignment
	}{
		{
			name:         "confident ocr wins",
			ocrText:      "September 19, 1941\n\nDear Sir,",
			itemType:     "letter",
			title:        "Letter dated 1950",
			pipelineConf: 0.9,
			want:         inventory.DateAssignment{Year: 1941, Source: SourceOCRText, Confidence: 0.9},
		},
		{
			name:         "explicit title beats medium ocr",
			ocrText:      "records of attendance\nPRINTED AT ALBANY, 1867",
			itemType:     "form",
			title:        "Attendance form dated 1870",
			pipelineConf: 0.9,
			want:         inventory.DateAssignment{Year: 1870, Source: SourceTitleExplicit, Confidence: 0.8},
		},
		{
			name:         "medium ocr tagged uncertain",
			ocrText:      "records of attendance\nPRINTED AT ALBANY, 1867",
			itemType:     "form",
			pipelineConf: 0.9,
			want:         inventory.DateAssignment{Year: 1867, Source: SourceOCRUncertain, Confidence: 0.6},
		},
		{
			name:         "low pipeline confidence downgrades ocr",
			ocrText:      "September 19, 1941",
			itemType:     "letter",
			pipelineConf: 0.4,
			want:         inventory.DateAssignment{Year: 1941, Source: SourceOCRUncertain, Confidence: 0.9},
		},
		{
			name:     "inferred title when ocr silent",
			ocrText:  "Dear colleague, thank you for your reply.",
			itemType: "letter",
			title:    "The 1899 excursion and its aftermath",
			want:     inventory.DateAssignment{Year: 1899, Source: SourceTitleInferred, Confidence: 0.4},
		},
		{
			name:     "no evidence is undated",
			ocrText:  "no years here at all",
			itemType: "letter",
			title:    "Portrait of an unknown member",
			want:     inventory.DateAssignment{Source: SourceUndated, Confidence: 0},
		},
		{
			name:     "modern documentation forced undated",
			ocrText:  "September 19, 1941",
			itemType: "photograph_of_display",
			title:    "Display dated 1941",
			want:     inventory.DateAssignment{Source: SourceUndatedModern, Confidence: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.BestDate(tt.ocrText, tt.itemType, tt.title, tt.notes, tt.pipelineConf)
			if got != tt.want {
				t.Errorf("BestDate = %+v, expected %+v", got, tt.want)
			}
		})
	}
}

func TestBestDateBoundsClamp(t *testing.T) {
	r := &Resolver{minYear: 1800, maxYear: 1900}

	got := r.BestDate("September 19, 1941", "letter", "", "", 0.9)
	if got.Source != SourceUndated || got.Year != 0 || got.Confidence != 0 {
		t.Errorf("year past upper bound must be discarded, got %+v", got)
	}

	got = r.BestDate("", "letter", "Annual report 1941", "", 0)
	if got.Source != SourceUndated {
		t.Errorf("out-of-bounds title year must be discarded, got %+v", got)
	}
}

func TestResolveUsesArtifactFields(t *testing.T) {
	r := NewResolver()
	artifact := &inventory.ArtifactGroup{
		MergedText:        "September 19, 1941\n\nDear Madam,",
		ItemType:          "letter",
		ItemTitle:         "Correspondence",
		AverageConfidence: 0.95,
	}

	got := r.Resolve(artifact)
	want := inventory.DateAssignment{Year: 1941, Source: SourceOCRText, Confidence: 0.9}
	if got != want {
		t.Errorf("Resolve = %+v, expected %+v", got, want)
	}
}
