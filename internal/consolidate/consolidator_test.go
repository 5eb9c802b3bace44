package consolidate

import (
	"strings"
	"testing"

	"github.com/mohawk-valley-archives/curator/internal/inventory"
)

const pageText = `ANNUAL MEETING of the association held at Syracuse.
The secretary read the minutes of the previous meeting and the
treasurer presented the accounts for the year then ending.`

func member(id, group, text string, conf float64, sessionIndex int) inventory.ImageRecord {
	return inventory.ImageRecord{
		ID:              id,
		ArtifactGroupID: group,
		SessionIndex:    sessionIndex,
		OCRText:         text,
		OCRConfidence:   conf,
		LinkType:        inventory.LinkSessionDefault,
	}
}

func TestConsolidateCullsDuplicatePages(t *testing.T) {
	// Two captures of the same page; the second has a better transcription.
	records := []inventory.ImageRecord{
		member("img_0001", "S0001", pageText, 0.7, 1),
		member("img_0002", "S0001", pageText+" [?]", 0.9, 2),
		member("img_0003", "S0001", "A completely different second page about 0123456789 accounts.", 0.8, 3),
	}

	artifacts := NewConsolidator(Options{}).Consolidate(records)
	if len(artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(artifacts))
	}
	a := artifacts[0]

	if a.UniquePages != 2 {
		t.Errorf("unique pages = %d, expected 2", a.UniquePages)
	}
	if a.DuplicatePagesCulled != 1 {
		t.Errorf("culled = %d, expected 1", a.DuplicatePagesCulled)
	}

	// The higher-confidence duplicate wins.
	if !strings.Contains(a.MergedText, "[?]") {
		t.Error("merged text kept the lower-confidence transcription")
	}
	if strings.Count(a.MergedText, "ANNUAL MEETING") != 1 {
		t.Error("both duplicate captures ended up in merged text")
	}
	if !strings.Contains(a.MergedText, inventory.PageBreakMarker) {
		t.Error("multi-page merge is missing the page-break marker")
	}
}

func TestConsolidateTieKeepsFirst(t *testing.T) {
	records := []inventory.ImageRecord{
		member("img_0001", "S0001", pageText+" first", 0.8, 1),
		member("img_0002", "S0001", pageText+" second", 0.8, 2),
	}

	artifacts := NewConsolidator(Options{}).Consolidate(records)
	a := artifacts[0]
	if a.UniquePages != 1 {
		t.Fatalf("unique pages = %d, expected 1 (texts are near-identical)", a.UniquePages)
	}
	if !strings.Contains(a.MergedText, "first") {
		t.Error("equal confidence must keep the first-kept transcription")
	}
}

func TestConsolidateSingleUniqueTextHasNoMarker(t *testing.T) {
	records := []inventory.ImageRecord{
		member("img_0001", "S0001", pageText, 0.9, 1),
	}

	artifacts := NewConsolidator(Options{}).Consolidate(records)
	if artifacts[0].MergedText != pageText {
		t.Error("single unique text must pass through unmodified")
	}
}

func TestConsolidateEmptyTextsNeverKept(t *testing.T) {
	records := []inventory.ImageRecord{
		member("img_0001", "S0001", "", 0, 1),
		member("img_0002", "S0001", "  \n ", 0, 2),
	}

	artifacts := NewConsolidator(Options{}).Consolidate(records)
	if len(artifacts) != 1 {
		t.Fatalf("group without text must still be emitted, got %d artifacts", len(artifacts))
	}
	a := artifacts[0]
	if a.UniquePages != 0 || a.MergedText != "" {
		t.Errorf("expected empty artifact, got %d pages, text %q", a.UniquePages, a.MergedText)
	}
	if a.DuplicatePagesCulled != 2 {
		t.Errorf("culled = %d, expected 2 (blank captures)", a.DuplicatePagesCulled)
	}
}

func TestConsolidateDescriptiveFieldsFromFirstMember(t *testing.T) {
	first := member("img_0001", "S0001", pageText, 0.9, 1)
	first.ItemType = "meeting_minutes"
	first.Subject = "annual meeting"
	first.LinkConfidence = 0.83
	second := member("img_0002", "S0001", "Another page entirely, 0123456789.", 0.9, 2)
	second.ItemType = "letter"
	second.Subject = "ignored"

	artifacts := NewConsolidator(Options{}).Consolidate([]inventory.ImageRecord{first, second})
	a := artifacts[0]
	if a.ItemType != "meeting_minutes" || a.Subject != "annual meeting" {
		t.Errorf("descriptive fields not taken from first member: %s / %s", a.ItemType, a.Subject)
	}
	if a.GroupConfidence != 0.83 {
		t.Errorf("group confidence = %f, expected first member's 0.83", a.GroupConfidence)
	}
}

func TestConsolidateResearchRouting(t *testing.T) {
	research := member("img_0001", "G1", pageText, 0.9, 1)
	research.Subject = "Biographical research notes on early members"
	document := member("img_0002", "G2", pageText, 0.9, 1)
	document.Subject = "Annual meeting proceedings"

	artifacts := NewConsolidator(Options{}).Consolidate([]inventory.ImageRecord{research, document})
	byID := make(map[string]inventory.ArtifactGroup)
	for _, a := range artifacts {
		byID[a.ArtifactGroupID] = a
	}

	if !byID["G1"].IsResearch {
		t.Error("research keywords in subject must route to research")
	}
	if byID["G2"].IsResearch {
		t.Error("primary document misrouted to research")
	}
}

func TestConsolidateLinkTypeSummary(t *testing.T) {
	a := member("img_0001", "CG0001", pageText, 0.9, 1)
	a.LinkType = inventory.LinkContentOverlap
	b := member("img_0002", "CG0001", "Different page text 0123456789 entirely.", 0.9, 2)
	b.LinkType = inventory.LinkSessionDefault

	artifacts := NewConsolidator(Options{}).Consolidate([]inventory.ImageRecord{a, b})
	got := artifacts[0]

	if len(got.LinkTypes) != 2 {
		t.Errorf("link types = %v, expected two distinct values", got.LinkTypes)
	}
	if got.ConfidentLinkRatio != 0.5 {
		t.Errorf("confident link ratio = %f, expected 0.5", got.ConfidentLinkRatio)
	}
}

func TestConsolidateConfidentOnlyExcludesWeakGroups(t *testing.T) {
	weak := member("img_0001", "S0001", pageText, 0.9, 1)
	weak.LinkType = inventory.LinkSessionDefault
	strong := member("img_0002", "CG0001", pageText, 0.9, 1)
	strong.LinkType = inventory.LinkManualCuration

	artifacts := NewConsolidator(Options{ConfidentOnly: true}).
		Consolidate([]inventory.ImageRecord{weak, strong})

	if len(artifacts) != 1 || artifacts[0].ArtifactGroupID != "CG0001" {
		t.Errorf("confident-only output = %+v, expected only CG0001", artifacts)
	}
}

func TestConsolidateSkipNeedsReview(t *testing.T) {
	flagged := member("img_0001", "CG0001", pageText, 0.9, 1)
	flagged.NeedsReview = true
	clean := member("img_0002", "S0002", pageText, 0.9, 1)

	artifacts := NewConsolidator(Options{SkipNeedsReview: true}).
		Consolidate([]inventory.ImageRecord{flagged, clean})

	if len(artifacts) != 1 || artifacts[0].ArtifactGroupID != "S0002" {
		t.Errorf("skip-review output = %+v, expected only S0002", artifacts)
	}
}

func TestConsolidateMemberOrderIsCaptureOrder(t *testing.T) {
	records := []inventory.ImageRecord{
		member("img_0009", "S0001", "Page two text 0123456789.", 0.9, 2),
		member("img_0001", "S0001", pageText, 0.9, 1),
	}

	artifacts := NewConsolidator(Options{}).Consolidate(records)
	a := artifacts[0]
	if a.SourceImages[0] != "img_0001" || a.SourceImages[1] != "img_0009" {
		t.Errorf("member order = %v, expected capture order", a.SourceImages)
	}
	if !strings.HasPrefix(a.MergedText, "ANNUAL MEETING") {
		t.Error("merged text does not start with the first captured page")
	}
}
