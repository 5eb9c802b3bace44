// Package sessions implements the first pipeline stage: batching images into
// capture sessions by time proximity and detecting exact duplicates by
// content digest.
package sessions

import (
	"fmt"
	"sort"
	"time"

	"github.com/mohawk-valley-archives/curator/internal/inventory"
)

// DefaultGapThreshold is the capture-time gap that starts a new session.
const DefaultGapThreshold = 90 * time.Second

// Grouper assigns session and duplicate-group identifiers. All state is held
// per call, so a single Grouper can be reused across batches.
type Grouper struct {
	gapThreshold time.Duration
}

// NewGrouper creates a Grouper with the given session gap threshold.
// A non-positive threshold falls back to the default.
func NewGrouper(gapThreshold time.Duration) *Grouper {
	if gapThreshold <= 0 {
		gapThreshold = DefaultGapThreshold
	}
	return &Grouper{gapThreshold: gapThreshold}
}

// Group sorts records by capture time (stable on ties, preserving ingestion
// order) and populates session ids, session indices, inter-capture gaps,
// duplicate groups, and the default one-artifact-per-session assignment.
// No record is ever dropped: exact duplicates stay visible so later stages
// can pick the best-quality copy.
func (g *Grouper) Group(records []inventory.ImageRecord) []inventory.ImageRecord {
	out := make([]inventory.ImageRecord, len(records))
	copy(out, records)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CaptureTime().Before(out[j].CaptureTime())
	})

	digestGroup := make(map[string]string)
	digestFirstID := make(map[string]string)
	duplicateCounter := 0

	sessionCounter := 0
	sessionIndex := 0
	var lastTime time.Time

	for i := range out {
		rec := &out[i]

		// Duplicate grouping by checksum. Equal digests always land in the
		// same group, keyed by the first record seen.
		key := rec.DigestKey()
		if groupID, seen := digestGroup[key]; seen {
			rec.DuplicateGroupID = groupID
			rec.DuplicateOf = digestFirstID[key]
		} else {
			duplicateCounter++
			groupID := fmt.Sprintf("D%04d", duplicateCounter)
			digestGroup[key] = groupID
			digestFirstID[key] = rec.ID
			rec.DuplicateGroupID = groupID
			rec.DuplicateOf = ""
		}

		// Session grouping by time proximity.
		current := rec.CaptureTime()
		if lastTime.IsZero() || current.Sub(lastTime) > g.gapThreshold {
			sessionCounter++
			sessionIndex = 0
		}
		sessionIndex++
		rec.SessionID = fmt.Sprintf("S%04d", sessionCounter)
		rec.SessionIndex = sessionIndex
		if lastTime.IsZero() {
			rec.SecondsSincePrev = 0
		} else {
			rec.SecondsSincePrev = current.Sub(lastTime).Seconds()
		}
		lastTime = current

		// Default artifact grouping: one artifact per session. The content
		// clusterer refines this where transcriptions say otherwise.
		rec.ArtifactGroupID = rec.SessionID
		rec.LinkType = inventory.LinkSessionDefault
		rec.LinkConfidence = 0.5
		rec.NeedsReview = false
	}

	return out
}
