// Package consolidate implements the third pipeline stage: collapsing each
// artifact group's page captures into one canonical transcription, culling
// near-duplicate pages, and routing research material away from primary
// documents.
package consolidate

import (
	"sort"
	"strings"

	"github.com/mohawk-valley-archives/curator/internal/inventory"
	"github.com/mohawk-valley-archives/curator/internal/similarity"
)

// DefaultDuplicatePageThreshold marks two member texts as captures of the
// same page. It is deliberately distinct from the clusterer's merge
// threshold: same-page duplicate vs same-document-different-page are tuned
// independently.
const DefaultDuplicatePageThreshold = 0.85

// DefaultResearchKeywords flag research notes rather than primary documents.
var DefaultResearchKeywords = []string{
	"research", "notes", "reference", "handwritten notes",
	"biographical", "preparatory", "list of names",
}

// Options tunes consolidation. Zero values fall back to the defaults.
type Options struct {
	DuplicatePageThreshold float64
	ResearchKeywords       []string

	// SkipNeedsReview excludes records flagged for human review.
	SkipNeedsReview bool
	// ConfidentOnly excludes whole groups whose confident_link_ratio is at
	// or below 0.5.
	ConfidentOnly bool
}

func (o Options) withDefaults() Options {
	if o.DuplicatePageThreshold <= 0 {
		o.DuplicatePageThreshold = DefaultDuplicatePageThreshold
	}
	if len(o.ResearchKeywords) == 0 {
		o.ResearchKeywords = DefaultResearchKeywords
	}
	return o
}

// Consolidator merges artifact groups into consolidated artifacts.
type Consolidator struct {
	opts Options
}

// NewConsolidator creates a Consolidator with the given options.
func NewConsolidator(opts Options) *Consolidator {
	return &Consolidator{opts: opts.withDefaults()}
}

// Consolidate groups records by their final artifact_group_id and merges each
// group. Groups are returned in id order. A group whose members carry no text
// at all still yields an (empty) artifact so transcription gaps stay
// auditable.
func (c *Consolidator) Consolidate(records []inventory.ImageRecord) []inventory.ArtifactGroup {
	groups := make(map[string][]inventory.ImageRecord)
	for _, rec := range records {
		if c.opts.SkipNeedsReview && rec.NeedsReview {
			continue
		}
		groupID := rec.ArtifactGroupID
		if groupID == "" {
			groupID = rec.ID
		}
		groups[groupID] = append(groups[groupID], rec)
	}

	groupIDs := make([]string, 0, len(groups))
	for id := range groups {
		groupIDs = append(groupIDs, id)
	}
	sort.Strings(groupIDs)

	artifacts := make([]inventory.ArtifactGroup, 0, len(groupIDs))
	for _, id := range groupIDs {
		members := groups[id]
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].SessionIndex != members[j].SessionIndex {
				return members[i].SessionIndex < members[j].SessionIndex
			}
			return members[i].ID < members[j].ID
		})

		artifact := c.consolidateGroup(id, members)
		if c.opts.ConfidentOnly && artifact.ConfidentLinkRatio <= 0.5 {
			continue
		}
		artifacts = append(artifacts, artifact)
	}

	return artifacts
}

func (c *Consolidator) consolidateGroup(groupID string, members []inventory.ImageRecord) inventory.ArtifactGroup {
	type kept struct {
		text       string
		confidence float64
	}

	// Cull duplicate captures of the same page, keeping the best
	// transcription of each.
	var unique []kept
	for _, member := range members {
		if !member.HasText() {
			continue
		}
		isDuplicate := false
		for k := range unique {
			if similarity.Ratio(member.OCRText, unique[k].text) > c.opts.DuplicatePageThreshold {
				isDuplicate = true
				if member.OCRConfidence > unique[k].confidence {
					unique[k] = kept{text: member.OCRText, confidence: member.OCRConfidence}
				}
				break
			}
		}
		if !isDuplicate {
			unique = append(unique, kept{text: member.OCRText, confidence: member.OCRConfidence})
		}
	}

	texts := make([]string, len(unique))
	for i, k := range unique {
		texts[i] = k.text
	}
	mergedText := ""
	if len(texts) == 1 {
		mergedText = texts[0]
	} else if len(texts) > 1 {
		mergedText = strings.Join(texts, inventory.PageBreakMarker)
	}

	confidenceSum := 0.0
	confidenceCount := 0
	linkTypeSet := make(map[string]bool)
	confidentLinks := 0
	memberIDs := make([]string, len(members))
	for i, member := range members {
		memberIDs[i] = member.ID
		if member.OCRConfidence > 0 {
			confidenceSum += member.OCRConfidence
			confidenceCount++
		}
		linkType := member.LinkType
		if linkType == "" {
			linkType = inventory.LinkSessionDefault
		}
		linkTypeSet[linkType] = true
		if inventory.ConfidentLinkType(linkType) {
			confidentLinks++
		}
	}

	linkTypes := make([]string, 0, len(linkTypeSet))
	for lt := range linkTypeSet {
		linkTypes = append(linkTypes, lt)
	}
	sort.Strings(linkTypes)

	averageConfidence := 0.0
	if confidenceCount > 0 {
		averageConfidence = confidenceSum / float64(confidenceCount)
	}

	// Descriptive fields come from the first member only; later members'
	// labels are assumed redundant.
	first := members[0]

	return inventory.ArtifactGroup{
		ArtifactGroupID:      groupID,
		SourceImages:         memberIDs,
		UniquePages:          len(unique),
		DuplicatePagesCulled: len(members) - len(unique),
		MergedText:           mergedText,
		ItemTitle:            first.ItemTitle,
		ItemType:             first.ItemType,
		Subject:              first.Subject,
		LocationGuess:        first.LocationGuess,
		Notes:                first.Notes,
		AverageConfidence:    averageConfidence,
		GroupConfidence:      first.LinkConfidence,
		LinkTypes:            linkTypes,
		ConfidentLinkRatio:   float64(confidentLinks) / float64(len(members)),
		IsResearch:           c.isResearch(first),
	}
}

func (c *Consolidator) isResearch(rec inventory.ImageRecord) bool {
	combined := strings.ToLower(rec.Subject + " " + rec.Notes)
	for _, kw := range c.opts.ResearchKeywords {
		if strings.Contains(combined, kw) {
			return true
		}
	}
	return false
}
