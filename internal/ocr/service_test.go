package ocr

import "testing"

func TestEstimateConfidence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{
			name: "clean text",
			text: "The trustees of district number four met at the schoolhouse.",
			want: 1.0,
		},
		{
			name: "one marker in ten words",
			text: "The trustees of district number four met at the [?]",
			want: 0.0,
		},
		{
			name: "one marker in twenty words",
			text: "The trustees of district number four met at the schoolhouse and resolved to levy a tax upon the [?] inhabitants",
			want: 0.5,
		},
		{
			name: "illegible marker counted",
			text: "Resolved that the sum of [illegible] dollars be raised for the repair of the schoolhouse roof this coming year",
			want: 0.474,
		},
		{
			name: "empty text",
			text: "",
			want: 0,
		},
		{
			name: "all markers",
			text: "[?] [illegible] [?]",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateConfidence(tt.text); got != tt.want {
				t.Errorf("EstimateConfidence(%q) = %v, expected %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestPromptFor(t *testing.T) {
	if promptFor(DocTypeHandwritten) == promptFor(DocTypeTyped) {
		t.Error("handwritten and typed prompts must differ")
	}
	if promptFor("unknown") != promptFor(DocTypeHistorical) {
		t.Error("unknown document types must fall back to the historical prompt")
	}
}

func TestImageFormat(t *testing.T) {
	tests := map[string]string{
		"page.jpg":  "jpeg",
		"page.JPEG": "jpeg",
		"page.png":  "png",
		"page.webp": "webp",
		"page.tiff": "jpeg",
	}
	for path, want := range tests {
		if got := imageFormat(path); got != want {
			t.Errorf("imageFormat(%q) = %q, expected %q", path, got, want)
		}
	}
}
