package campaign

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Diff Types
// ---------------------------------------------------------------------------

// CampaignUpdate is a matched campaign whose compared fields diverged.
// It carries the full target entity plus the changed field names.
type CampaignUpdate struct {
	Campaign Campaign
	Changes  []string
}

// AdGroupAdd is an ad group present only in the target hierarchy.
// CampaignID is the matched parent; the applier resolves the parent's
// platform identifier from it before creating the group.
type AdGroupAdd struct {
	CampaignID uuid.UUID
	AdGroup    AdGroup
}

// AdGroupUpdate is a matched ad group whose compared fields diverged
type AdGroupUpdate struct {
	CampaignID uuid.UUID
	AdGroup    AdGroup
	Changes    []string
}

// AdAdd is an ad present only in the target hierarchy
type AdAdd struct {
	AdGroupID uuid.UUID
	Ad        Ad
}

// AdUpdate is a matched ad whose compared fields diverged
type AdUpdate struct {
	AdGroupID uuid.UUID
	Ad        Ad
	Changes   []string
}

// KeywordAdd is a keyword present only in the target hierarchy
type KeywordAdd struct {
	AdGroupID uuid.UUID
	Keyword   Keyword
}

// KeywordUpdate is a matched keyword whose compared fields diverged
type KeywordUpdate struct {
	AdGroupID uuid.UUID
	Keyword   Keyword
	Changes   []string
}

// CampaignSetDiff is the set of add/update/remove operations needed to
// bring platform state in line with the target hierarchy. Added campaigns
// and ad groups carry their full subtree; removals are flat id lists.
type CampaignSetDiff struct {
	CampaignsToAdd    []Campaign
	CampaignsToUpdate []CampaignUpdate
	CampaignsToRemove []uuid.UUID

	AdGroupsToAdd    []AdGroupAdd
	AdGroupsToUpdate []AdGroupUpdate
	AdGroupsToRemove []uuid.UUID

	AdsToAdd    []AdAdd
	AdsToUpdate []AdUpdate
	AdsToRemove []uuid.UUID

	KeywordsToAdd    []KeywordAdd
	KeywordsToUpdate []KeywordUpdate
	KeywordsToRemove []uuid.UUID
}

// IsEmpty returns true if the diff contains no operations
func (d *CampaignSetDiff) IsEmpty() bool {
	return len(d.CampaignsToAdd) == 0 && len(d.CampaignsToUpdate) == 0 && len(d.CampaignsToRemove) == 0 &&
		len(d.AdGroupsToAdd) == 0 && len(d.AdGroupsToUpdate) == 0 && len(d.AdGroupsToRemove) == 0 &&
		len(d.AdsToAdd) == 0 && len(d.AdsToUpdate) == 0 && len(d.AdsToRemove) == 0 &&
		len(d.KeywordsToAdd) == 0 && len(d.KeywordsToUpdate) == 0 && len(d.KeywordsToRemove) == 0
}

// OperationCount returns the total number of operations in the diff
func (d *CampaignSetDiff) OperationCount() int {
	return len(d.CampaignsToAdd) + len(d.CampaignsToUpdate) + len(d.CampaignsToRemove) +
		len(d.AdGroupsToAdd) + len(d.AdGroupsToUpdate) + len(d.AdGroupsToRemove) +
		len(d.AdsToAdd) + len(d.AdsToUpdate) + len(d.AdsToRemove) +
		len(d.KeywordsToAdd) + len(d.KeywordsToUpdate) + len(d.KeywordsToRemove)
}

// ---------------------------------------------------------------------------
// Diff Calculation
// ---------------------------------------------------------------------------

// CalculateDiff computes the structural diff between the currently stored
// hierarchy and a newly generated target hierarchy. Pure, no I/O.
//
// Matching is strictly by durable entity id at every level, never by name,
// so renames produce updates rather than add/remove pairs. Diffing is
// hierarchical: ad groups are only compared within their matched campaign,
// ads and keywords only within their matched ad group. Children of added
// parents are carried inside the parent's add entry, not as separate child
// entries. Diffing an unchanged hierarchy against itself yields an empty
// diff. Output order follows target order for adds/updates and current
// order for removals, so identical inputs produce identical diffs.
func CalculateDiff(current, target *CampaignSet) *CampaignSetDiff {
	diff := &CampaignSetDiff{}

	currentByID := make(map[uuid.UUID]*Campaign, len(current.Campaigns))
	for i := range current.Campaigns {
		currentByID[current.Campaigns[i].ID] = &current.Campaigns[i]
	}

	targetIDs := make(map[uuid.UUID]struct{}, len(target.Campaigns))
	for i := range target.Campaigns {
		tc := &target.Campaigns[i]
		targetIDs[tc.ID] = struct{}{}

		cc, ok := currentByID[tc.ID]
		if !ok {
			diff.CampaignsToAdd = append(diff.CampaignsToAdd, *tc)
			continue
		}

		if changes := compareCampaigns(cc, tc); len(changes) > 0 {
			diff.CampaignsToUpdate = append(diff.CampaignsToUpdate, CampaignUpdate{
				Campaign: *tc,
				Changes:  changes,
			})
		}

		diffAdGroups(diff, cc, tc)
	}

	for i := range current.Campaigns {
		if _, ok := targetIDs[current.Campaigns[i].ID]; !ok {
			diff.CampaignsToRemove = append(diff.CampaignsToRemove, current.Campaigns[i].ID)
		}
	}

	return diff
}

// diffAdGroups compares ad groups scoped to a matched campaign
func diffAdGroups(diff *CampaignSetDiff, current, target *Campaign) {
	currentByID := make(map[uuid.UUID]*AdGroup, len(current.AdGroups))
	for i := range current.AdGroups {
		currentByID[current.AdGroups[i].ID] = &current.AdGroups[i]
	}

	targetIDs := make(map[uuid.UUID]struct{}, len(target.AdGroups))
	for i := range target.AdGroups {
		tg := &target.AdGroups[i]
		targetIDs[tg.ID] = struct{}{}

		cg, ok := currentByID[tg.ID]
		if !ok {
			diff.AdGroupsToAdd = append(diff.AdGroupsToAdd, AdGroupAdd{
				CampaignID: target.ID,
				AdGroup:    *tg,
			})
			continue
		}

		if changes := compareAdGroups(cg, tg); len(changes) > 0 {
			diff.AdGroupsToUpdate = append(diff.AdGroupsToUpdate, AdGroupUpdate{
				CampaignID: target.ID,
				AdGroup:    *tg,
				Changes:    changes,
			})
		}

		diffAds(diff, cg, tg)
		diffKeywords(diff, cg, tg)
	}

	for i := range current.AdGroups {
		if _, ok := targetIDs[current.AdGroups[i].ID]; !ok {
			diff.AdGroupsToRemove = append(diff.AdGroupsToRemove, current.AdGroups[i].ID)
		}
	}
}

// diffAds compares ads scoped to a matched ad group
func diffAds(diff *CampaignSetDiff, current, target *AdGroup) {
	currentByID := make(map[uuid.UUID]*Ad, len(current.Ads))
	for i := range current.Ads {
		currentByID[current.Ads[i].ID] = &current.Ads[i]
	}

	targetIDs := make(map[uuid.UUID]struct{}, len(target.Ads))
	for i := range target.Ads {
		ta := &target.Ads[i]
		targetIDs[ta.ID] = struct{}{}

		ca, ok := currentByID[ta.ID]
		if !ok {
			diff.AdsToAdd = append(diff.AdsToAdd, AdAdd{AdGroupID: target.ID, Ad: *ta})
			continue
		}

		if changes := compareAds(ca, ta); len(changes) > 0 {
			diff.AdsToUpdate = append(diff.AdsToUpdate, AdUpdate{
				AdGroupID: target.ID,
				Ad:        *ta,
				Changes:   changes,
			})
		}
	}

	for i := range current.Ads {
		if _, ok := targetIDs[current.Ads[i].ID]; !ok {
			diff.AdsToRemove = append(diff.AdsToRemove, current.Ads[i].ID)
		}
	}
}

// diffKeywords compares keywords scoped to a matched ad group
func diffKeywords(diff *CampaignSetDiff, current, target *AdGroup) {
	currentByID := make(map[uuid.UUID]*Keyword, len(current.Keywords))
	for i := range current.Keywords {
		currentByID[current.Keywords[i].ID] = &current.Keywords[i]
	}

	targetIDs := make(map[uuid.UUID]struct{}, len(target.Keywords))
	for i := range target.Keywords {
		tk := &target.Keywords[i]
		targetIDs[tk.ID] = struct{}{}

		ck, ok := currentByID[tk.ID]
		if !ok {
			diff.KeywordsToAdd = append(diff.KeywordsToAdd, KeywordAdd{AdGroupID: target.ID, Keyword: *tk})
			continue
		}

		if changes := compareKeywords(ck, tk); len(changes) > 0 {
			diff.KeywordsToUpdate = append(diff.KeywordsToUpdate, KeywordUpdate{
				AdGroupID: target.ID,
				Keyword:   *tk,
				Changes:   changes,
			})
		}
	}

	for i := range current.Keywords {
		if _, ok := targetIDs[current.Keywords[i].ID]; !ok {
			diff.KeywordsToRemove = append(diff.KeywordsToRemove, current.Keywords[i].ID)
		}
	}
}

// ---------------------------------------------------------------------------
// Field Comparison
// ---------------------------------------------------------------------------
// Each entity kind has a fixed compared field set. Platform identifiers,
// sync state and timestamps are deliberately excluded: they describe sync
// progress, not desired state.

func compareCampaigns(current, target *Campaign) []string {
	var changes []string
	if current.Name != target.Name {
		changes = append(changes, "name")
	}
	if current.Status != target.Status {
		changes = append(changes, "status")
	}
	if !current.Budget.Equal(target.Budget) {
		changes = append(changes, "budget")
	}
	return changes
}

func compareAdGroups(current, target *AdGroup) []string {
	var changes []string
	if current.Name != target.Name {
		changes = append(changes, "name")
	}
	if current.Status != target.Status {
		changes = append(changes, "status")
	}
	if !decimalPtrEqual(current.DefaultBid, target.DefaultBid) {
		changes = append(changes, "default_bid")
	}
	return changes
}

func compareAds(current, target *Ad) []string {
	var changes []string
	if current.Headline != target.Headline {
		changes = append(changes, "headline")
	}
	if current.Description != target.Description {
		changes = append(changes, "description")
	}
	if current.DisplayURL != target.DisplayURL {
		changes = append(changes, "display_url")
	}
	if current.FinalURL != target.FinalURL {
		changes = append(changes, "final_url")
	}
	if current.Status != target.Status {
		changes = append(changes, "status")
	}
	return changes
}

func compareKeywords(current, target *Keyword) []string {
	var changes []string
	if current.Text != target.Text {
		changes = append(changes, "text")
	}
	if current.MatchType != target.MatchType {
		changes = append(changes, "match_type")
	}
	if !decimalPtrEqual(current.Bid, target.Bid) {
		changes = append(changes, "bid")
	}
	if current.Status != target.Status {
		changes = append(changes, "status")
	}
	return changes
}

func decimalPtrEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
