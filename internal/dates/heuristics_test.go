package dates

import "testing"

func TestExtractYear(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		preferEarly bool
		want        int
		ok          bool
	}{
		{name: "single year", text: "published in 1881 at Syracuse", want: 1881, ok: true},
		{name: "latest of several", text: "1855 reprinted 1890", want: 1890, ok: true},
		{name: "earliest when preferred", text: "1855 reprinted 1890", preferEarly: true, want: 1855, ok: true},
		{name: "rejects out-of-pattern numbers", text: "page 1234 of 5678", ok: false},
		{name: "twentieth century", text: "typed in 2003", want: 2003, ok: true},
		{name: "empty text", text: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractYear(tt.text, tt.preferEarly)
			if ok != tt.ok || got != tt.want {
				t.Errorf("extractYear(%q) = (%d, %v), expected (%d, %v)", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestExtractRange(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		start, end int
		ok         bool
	}{
		{name: "full range", text: "ledger 1894-1898", start: 1894, end: 1898, ok: true},
		{name: "abbreviated end expands with start century", text: "minutes 1900-03", start: 1900, end: 1903, ok: true},
		{name: "en dash", text: "covers 1894–1898", start: 1894, end: 1898, ok: true},
		{name: "no range", text: "single year 1881", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := extractRange(tt.text)
			if start != tt.start || end != tt.end || ok != tt.ok {
				t.Errorf("extractRange(%q) = (%d, %d, %v), expected (%d, %d, %v)",
					tt.text, start, end, ok, tt.start, tt.end, tt.ok)
			}
		})
	}
}

func TestLetterDateline(t *testing.T) {
	if y, ok := letterDateline("September 19, 1941\n\nDear Sir,"); !ok || y != 1941 {
		t.Errorf("dateline = (%d, %v), expected (1941, true)", y, ok)
	}
	if _, ok := letterDateline("a letter mentioning 1941 with no dateline"); ok {
		t.Error("bare year must not match a dateline")
	}
}

func TestMeetingHeader(t *testing.T) {
	text := "PROCEEDINGS\nFORTY-FOURTH ANNUAL MEETING Brooklyn, N.Y., July 2d and 3d, 1889\nOpening remarks"
	if y, ok := meetingHeader(text); !ok || y != 1889 {
		t.Errorf("meeting header = (%d, %v), expected (1889, true)", y, ok)
	}

	// The header scan covers only the first 20 lines.
	deep := ""
	for i := 0; i < 25; i++ {
		deep += "filler line\n"
	}
	deep += "ANNUAL MEETING 1889"
	if _, ok := meetingHeader(deep); ok {
		t.Error("meeting header found past the first 20 lines")
	}
}

func TestPublicationImprint(t *testing.T) {
	text := "THE SCHOOL BULLETIN\n\nSYRACUSE, N. Y: PRINTED AT THE OFFICE OF THE SCHOOL BULLETIN, C. W. BARDEEN, PUBLISHER, 1881."
	if y, ok := publicationImprint(text); !ok || y != 1881 {
		t.Errorf("imprint = (%d, %v), expected (1881, true)", y, ok)
	}

	if _, ok := publicationImprint("no imprint keywords here, just 1881"); ok {
		t.Error("imprint matched a line without printer keywords")
	}
}

func TestExtractFromOCRCascades(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		itemType string
		year     int
		conf     float64
		ok       bool
	}{
		{
			name:     "letter dateline",
			text:     "September 19, 1941",
			itemType: "letter",
			year:     1941, conf: 0.9, ok: true,
		},
		{
			name:     "meeting minutes header",
			text:     "FORTY-FOURTH ANNUAL MEETING Brooklyn, N.Y., July 2d and 3d, 1889",
			itemType: "meeting_minutes",
			year:     1889, conf: 0.85, ok: true,
		},
		{
			name:     "title page imprint",
			text:     "SYRACUSE, N. Y: PRINTED AT THE OFFICE OF THE SCHOOL BULLETIN, C. W. BARDEEN, PUBLISHER, 1881.",
			itemType: "cover_or_title_page",
			year:     1881, conf: 0.8, ok: true,
		},
		{
			name:     "title page falls back to prominent early year",
			text:     "SOUVENIR PROGRAMME\n1895\nAlbany",
			itemType: "cover_or_title_page",
			year:     1895, conf: 0.8, ok: true,
		},
		{
			name:     "document page prefers meeting header",
			text:     "HELD AT Albany, 1867\nPRINTED 1900",
			itemType: "document_page",
			year:     1867, conf: 0.7, ok: true,
		},
		{
			name:     "document page imprint fallback",
			text:     "records of attendance\nPRINTED AT ALBANY, 1867",
			itemType: "form",
			year:     1867, conf: 0.6, ok: true,
		},
		{
			name:     "modern documentation never dated",
			text:     "Museum display, erected 1975, showing an 1855 charter",
			itemType: "photograph_of_display",
			ok:       false,
		},
		{
			name:     "unknown item type",
			text:     "September 19, 1941",
			itemType: "artifact_or_object",
			ok:       false,
		},
		{
			name:     "empty text",
			text:     "   ",
			itemType: "letter",
			ok:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, conf, ok := ExtractFromOCR(tt.text, tt.itemType)
			if ok != tt.ok {
				t.Fatalf("ok = %v, expected %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if year != tt.year || conf != tt.conf {
				t.Errorf("got (%d, %.2f), expected (%d, %.2f)", year, conf, tt.year, tt.conf)
			}
		})
	}
}
