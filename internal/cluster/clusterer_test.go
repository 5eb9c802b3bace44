package cluster

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/mohawk-valley-archives/curator/internal/inventory"
)

func sessionRec(id, session, text string) inventory.ImageRecord {
	return inventory.ImageRecord{
		ID:              id,
		SessionID:       session,
		ArtifactGroupID: session,
		LinkType:        inventory.LinkSessionDefault,
		LinkConfidence:  0.5,
		OCRText:         text,
	}
}

const minutesText = `FORTY-FOURTH ANNUAL MEETING
of the New York State Teachers Association
held at Brooklyn, N.Y., July 2d and 3d, 1889
The meeting was called to order by the president at ten o'clock.
Minutes of the previous session were read and approved by the members present.`

func TestRefineMergesSimilarPagesWithinSession(t *testing.T) {
	// Two captures of the same page with a small OCR difference, plus an
	// unrelated page in the same session.
	pageA := minutesText
	pageB := minutesText + "\nAdjourned."
	unrelated := strings.Repeat("0123456789 ", 12)

	records := []inventory.ImageRecord{
		sessionRec("img_0001", "S0001", pageA),
		sessionRec("img_0002", "S0001", pageB),
		sessionRec("img_0003", "S0001", unrelated),
	}

	result := NewClusterer(Thresholds{}).Refine(records)

	byID := make(map[string]inventory.ImageRecord)
	for _, r := range result.Records {
		byID[r.ID] = r
	}

	a, b, c := byID["img_0001"], byID["img_0002"], byID["img_0003"]
	if a.ArtifactGroupID != b.ArtifactGroupID {
		t.Errorf("similar pages split: %s vs %s", a.ArtifactGroupID, b.ArtifactGroupID)
	}
	if a.ArtifactGroupID == "S0001" {
		t.Error("content group did not replace the session default")
	}
	if a.LinkType != inventory.LinkContentOverlap {
		t.Errorf("link type = %s, expected content_overlap", a.LinkType)
	}
	if a.LinkConfidence < 0.9 {
		t.Errorf("confidence = %f, expected >= 0.9 for near-identical pages", a.LinkConfidence)
	}

	// The unrelated page stays a session-default singleton at neutral
	// confidence.
	if c.ArtifactGroupID != "S0001" || c.LinkType != inventory.LinkSessionDefault {
		t.Errorf("unrelated page was absorbed: group=%s link=%s", c.ArtifactGroupID, c.LinkType)
	}
	if c.LinkConfidence != 0.5 {
		t.Errorf("singleton confidence = %f, expected 0.5", c.LinkConfidence)
	}
}

func TestRefineDoesNotCrossSessionBoundaries(t *testing.T) {
	records := []inventory.ImageRecord{
		sessionRec("img_0001", "S0001", minutesText),
		sessionRec("img_0002", "S0002", minutesText),
	}

	result := NewClusterer(Thresholds{}).Refine(records)
	for _, r := range result.Records {
		if r.LinkType != inventory.LinkSessionDefault {
			t.Errorf("%s: identical texts in different sessions must not merge", r.ID)
		}
	}
}

func TestRefineSkipsRecordsWithoutText(t *testing.T) {
	records := []inventory.ImageRecord{
		sessionRec("img_0001", "S0001", minutesText),
		sessionRec("img_0002", "S0001", ""),
		sessionRec("img_0003", "S0001", "   \n  "),
	}

	result := NewClusterer(Thresholds{}).Refine(records)
	if len(result.Edges) != 0 {
		t.Errorf("expected no edges against untranscribed records, got %d", len(result.Edges))
	}
	for _, r := range result.Records {
		if r.LinkType != inventory.LinkSessionDefault {
			t.Errorf("%s: grouping changed without any text evidence", r.ID)
		}
	}
}

func TestRefineLargeGroupFlaggedBySizeAlone(t *testing.T) {
	var records []inventory.ImageRecord
	ids := []string{"img_0001", "img_0002", "img_0003", "img_0004", "img_0005", "img_0006", "img_0007"}
	for _, id := range ids {
		records = append(records, sessionRec(id, "S0001", minutesText))
	}

	result := NewClusterer(Thresholds{}).Refine(records)

	for _, r := range result.Records {
		if !r.NeedsReview {
			t.Errorf("%s: 7-member component must be flagged despite perfect similarity", r.ID)
		}
		if r.LinkConfidence < 0.99 {
			t.Errorf("%s: confidence = %f, expected ~1.0 for identical texts", r.ID, r.LinkConfidence)
		}
	}

	if len(result.Review) != len(ids) {
		t.Fatalf("review queue has %d items, expected %d", len(result.Review), len(ids))
	}
	for _, item := range result.Review {
		if item.Reason != inventory.ReasonLargeGroup {
			t.Errorf("reason = %s, expected large_group", item.Reason)
		}
		if item.GroupSize != 7 {
			t.Errorf("group size = %d, expected 7", item.GroupSize)
		}
		if item.CurrentGroup != "S0001" {
			t.Errorf("current group = %s, expected the pre-refinement S0001", item.CurrentGroup)
		}
	}
}

func TestRefineDeterministic(t *testing.T) {
	records := []inventory.ImageRecord{
		sessionRec("img_0003", "S0001", minutesText),
		sessionRec("img_0001", "S0001", minutesText+" Adjourned."),
		sessionRec("img_0002", "S0001", strings.Repeat("0123456789 ", 12)),
		sessionRec("img_0004", "S0002", "A letter dated September 19, 1941, to the committee."),
	}

	first := NewClusterer(Thresholds{}).Refine(records)
	for i := 0; i < 5; i++ {
		again := NewClusterer(Thresholds{}).Refine(records)
		if !reflect.DeepEqual(again.Records, first.Records) {
			t.Fatal("Refine is not deterministic for identical inputs")
		}
	}
}

func TestGroupConfidenceWeighting(t *testing.T) {
	members := []string{"a", "b", "c"}
	edges := []Edge{
		{A: "a", B: "b", Similarity: 0.9},
		{A: "a", B: "c", Similarity: 0.9},
		{A: "b", B: "c", Similarity: 0.2},
	}

	// 0.7 * mean(0.9, 0.9, 0.2) + 0.3 * 0.2
	want := 0.667*0.7 + 0.2*0.3
	got := groupConfidence(members, edges)
	if math.Abs(got-want) > 0.005 {
		t.Errorf("groupConfidence = %f, expected ~%f", got, want)
	}

	// Edges touching ids outside the component are ignored.
	edges = append(edges, Edge{A: "a", B: "z", Similarity: 0.01})
	if g := groupConfidence(members, edges); math.Abs(g-got) > 1e-9 {
		t.Errorf("outside edge changed confidence: %f vs %f", g, got)
	}
}

func TestGroupConfidenceMonotonicInMinimum(t *testing.T) {
	members := []string{"a", "b", "c"}
	base := []Edge{
		{A: "a", B: "b", Similarity: 0.8},
		{A: "a", B: "c", Similarity: 0.8},
		{A: "b", B: "c", Similarity: 0.6},
	}
	weaker := []Edge{
		{A: "a", B: "b", Similarity: 0.8},
		{A: "a", B: "c", Similarity: 0.8},
		{A: "b", B: "c", Similarity: 0.3},
	}

	if groupConfidence(members, weaker) > groupConfidence(members, base) {
		t.Error("decreasing the minimum similarity must not increase confidence")
	}
}

func TestGroupConfidenceNoEvidence(t *testing.T) {
	if got := groupConfidence([]string{"a", "b"}, nil); got != 0.5 {
		t.Errorf("confidence without edges = %f, expected neutral 0.5", got)
	}
}

func TestRefineLowConfidenceFlagged(t *testing.T) {
	// The texts share exactly their first half: one 10-rune matching block
	// over two 20-rune texts gives a ratio of exactly 2*10/40 = 0.5, which
	// merges (>= 0.40) but scores below the 0.6 review floor.
	records := []inventory.ImageRecord{
		sessionRec("img_0001", "S0001", "abcdefghijklmnopqrst"),
		sessionRec("img_0002", "S0001", "abcdefghij0123456789"),
	}

	result := NewClusterer(Thresholds{}).Refine(records)

	byID := make(map[string]inventory.ImageRecord)
	for _, r := range result.Records {
		byID[r.ID] = r
	}
	if byID["img_0001"].LinkType != inventory.LinkContentOverlap {
		t.Fatalf("borderline pair did not merge: link=%s", byID["img_0001"].LinkType)
	}
	if byID["img_0001"].LinkConfidence != 0.5 {
		t.Errorf("confidence = %f, expected exactly 0.5 from the single edge", byID["img_0001"].LinkConfidence)
	}
	if !byID["img_0001"].NeedsReview || !byID["img_0002"].NeedsReview {
		t.Error("confidence below 0.6 must set needs_review")
	}

	if len(result.Review) != 2 {
		t.Fatalf("review queue has %d items, expected both members", len(result.Review))
	}
	for _, item := range result.Review {
		if item.Reason != inventory.ReasonLowConfidence {
			t.Errorf("reason = %s, expected low_confidence", item.Reason)
		}
		if item.Confidence != 0.5 {
			t.Errorf("review confidence = %f, expected 0.5", item.Confidence)
		}
	}
}
