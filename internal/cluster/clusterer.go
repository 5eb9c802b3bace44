// Package cluster implements the second pipeline stage: refining the default
// one-artifact-per-session grouping with content-similarity evidence from the
// transcriptions.
//
// Similarity edges are computed only within a session, matching the upstream
// labeling workflow. A document split across two capture sessions therefore
// stays split; that gap is deliberate and surfaced here rather than guessed
// at.
package cluster

import (
	"fmt"
	"math"
	"sort"

	"github.com/mohawk-valley-archives/curator/internal/inventory"
	"github.com/mohawk-valley-archives/curator/internal/similarity"
)

// Default thresholds for content analysis.
const (
	DefaultNoiseFloor     = 0.15 // below: discard the pair as noise
	DefaultMergeThreshold = 0.40 // at or above: union into one artifact
	DefaultReviewFloor    = 0.6  // component confidence below this needs review
	DefaultMaxAutoGroup   = 5    // larger automatic clusters are suspicious
)

// Thresholds tunes the clusterer. Zero values fall back to the defaults.
type Thresholds struct {
	NoiseFloor     float64
	MergeThreshold float64
	ReviewFloor    float64
	MaxAutoGroup   int
}

func (t Thresholds) withDefaults() Thresholds {
	if t.NoiseFloor <= 0 {
		t.NoiseFloor = DefaultNoiseFloor
	}
	if t.MergeThreshold <= 0 {
		t.MergeThreshold = DefaultMergeThreshold
	}
	if t.ReviewFloor <= 0 {
		t.ReviewFloor = DefaultReviewFloor
	}
	if t.MaxAutoGroup <= 0 {
		t.MaxAutoGroup = DefaultMaxAutoGroup
	}
	return t
}

// Edge is a retained similarity pair between two images in one session.
type Edge struct {
	A          string  `json:"a"`
	B          string  `json:"b"`
	Similarity float64 `json:"similarity"`
}

// Result carries the refined records, the retained similarity edges, and the
// review queue for ambiguous groupings.
type Result struct {
	Records []inventory.ImageRecord
	Edges   []Edge
	Groups  int
	Review  []inventory.ReviewItem
}

// Clusterer refines artifact grouping using text similarity.
type Clusterer struct {
	thresholds Thresholds
}

// NewClusterer creates a Clusterer with the given thresholds.
func NewClusterer(thresholds Thresholds) *Clusterer {
	return &Clusterer{thresholds: thresholds.withDefaults()}
}

// Refine computes pairwise similarity within each session, clusters images
// whose similarity reaches the merge threshold into artifact groups, scores
// each group, and flags low-confidence or oversized groups for review.
// Records not absorbed into a multi-member component keep the session
// default at a neutral confidence of 0.5. Given identical inputs the
// produced grouping is identical on every run.
func (c *Clusterer) Refine(records []inventory.ImageRecord) Result {
	out := make([]inventory.ImageRecord, len(records))
	copy(out, records)

	byID := make(map[string]*inventory.ImageRecord, len(out))
	sessionMembers := make(map[string][]string)
	for i := range out {
		rec := &out[i]
		byID[rec.ID] = rec
		sessionMembers[rec.SessionID] = append(sessionMembers[rec.SessionID], rec.ID)
	}

	sessionIDs := make([]string, 0, len(sessionMembers))
	for sid := range sessionMembers {
		sessionIDs = append(sessionIDs, sid)
	}
	sort.Strings(sessionIDs)

	var edges []Edge
	ds := NewDisjointSet()
	for _, sid := range sessionIDs {
		members := sessionMembers[sid]
		sort.Strings(members)
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, b := byID[members[i]], byID[members[j]]
				if !a.HasText() || !b.HasText() {
					continue
				}
				sim := similarity.Ratio(a.OCRText, b.OCRText)
				if sim <= c.thresholds.NoiseFloor {
					continue
				}
				edges = append(edges, Edge{A: a.ID, B: b.ID, Similarity: sim})
				if sim >= c.thresholds.MergeThreshold {
					ds.Union(a.ID, b.ID)
				}
			}
		}
	}

	result := Result{Records: out, Edges: edges}

	groupCounter := 0
	for _, members := range ds.Components() {
		if len(members) < 2 {
			continue
		}
		groupCounter++
		groupID := fmt.Sprintf("CG%04d", groupCounter)

		confidence := groupConfidence(members, edges)
		needsReview := confidence < c.thresholds.ReviewFloor || len(members) > c.thresholds.MaxAutoGroup
		reason := inventory.ReasonLowConfidence
		if confidence >= c.thresholds.ReviewFloor {
			reason = inventory.ReasonLargeGroup
		}

		for _, id := range members {
			rec := byID[id]
			if needsReview {
				result.Review = append(result.Review, inventory.ReviewItem{
					ID:            id,
					ProposedGroup: groupID,
					CurrentGroup:  rec.ArtifactGroupID,
					SessionGroup:  rec.SessionID,
					Confidence:    confidence,
					Reason:        reason,
					GroupSize:     len(members),
					Subject:       rec.Subject,
				})
			}
			rec.ArtifactGroupID = groupID
			rec.LinkType = inventory.LinkContentOverlap
			rec.LinkConfidence = confidence
			rec.NeedsReview = needsReview
		}
	}
	result.Groups = groupCounter

	return result
}

// groupConfidence scores a component from its retained pairwise similarities:
// 0.7 x mean + 0.3 x minimum. The weighting rewards uniformly similar
// clusters and penalizes a single weak outlier edge harder than a weak
// average.
func groupConfidence(members []string, edges []Edge) float64 {
	inGroup := make(map[string]bool, len(members))
	for _, id := range members {
		inGroup[id] = true
	}

	sum := 0.0
	minSim := math.Inf(1)
	count := 0
	for _, e := range edges {
		if !inGroup[e.A] || !inGroup[e.B] {
			continue
		}
		sum += e.Similarity
		if e.Similarity < minSim {
			minSim = e.Similarity
		}
		count++
	}

	if count == 0 {
		return 0.5 // no similarity evidence, uncertain
	}

	confidence := (sum/float64(count))*0.7 + minSim*0.3
	return math.Round(confidence*1000) / 1000
}
