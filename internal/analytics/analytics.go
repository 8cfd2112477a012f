// Package analytics derives the read-side views of a stage: scoring,
// ranking, popularity and duplicate detection. Every function is a pure
// computation over its arguments, cheap enough to rerun on every read.
package analytics

import (
	"sort"
	"strings"
	"time"

	"picksheet/api/internal/document"
)

// Score counts how many of the row's picks appear in the stage answer key,
// summed over all three areas. Empty slots never match.
func Score(row *document.Row, correct document.CorrectTeams) int {
	score := 0
	for _, area := range document.Areas {
		key := correct[area]
		for _, pick := range row.Area(area) {
			if pick == "" {
				continue
			}
			for _, want := range key {
				if pick == want {
					score++
					break
				}
			}
		}
	}
	return score
}

// Sort directions accepted by Rank.
const (
	Ascending  = "ascending"
	Descending = "descending"
)

// Rank rescores the ledger against the current answer key and returns a
// stably sorted copy. "nick" compares case-sensitively as an opaque string;
// every other key compares the numeric score. Ties keep their prior order.
func Rank(stats []document.StatEntry, correct document.CorrectTeams, key, direction string) []document.StatEntry {
	ranked := make([]document.StatEntry, len(stats))
	for i, entry := range stats {
		ranked[i] = entry.Clone()
		ranked[i].Score = Score(&ranked[i].Row, correct)
	}
	asc := direction == Ascending
	sort.SliceStable(ranked, func(i, j int) bool {
		if key == "nick" {
			if asc {
				return ranked[i].Nick < ranked[j].Nick
			}
			return ranked[i].Nick > ranked[j].Nick
		}
		if asc {
			return ranked[i].Score < ranked[j].Score
		}
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// IsDuplicate reports whether the row is already represented by the ledger
// entry: trimmed case-insensitive nick match and element-wise identical pick
// arrays in every area.
func IsDuplicate(row *document.Row, entry *document.StatEntry) bool {
	if !strings.EqualFold(strings.TrimSpace(row.Nick), strings.TrimSpace(entry.Nick)) {
		return false
	}
	for _, area := range document.Areas {
		rp, ep := row.Area(area), entry.Area(area)
		if len(rp) != len(ep) {
			return false
		}
		for i := range rp {
			if rp[i] != ep[i] {
				return false
			}
		}
	}
	return true
}

// CommitPlan is the outcome of planning a stats commit: the entries to
// append plus the counts the caller reports back to the operator.
type CommitPlan struct {
	New        []document.StatEntry
	Duplicates []string
	Skipped    int
}

func (p CommitPlan) Added() int { return len(p.New) }

// PlanCommit partitions the stage's rows for a stats commit. Rows with no
// participation signal are skipped; rows duplicating an existing entry are
// reported but not committed; the rest become fresh scored entries. This is
// the only analytics output a document mutator depends on.
func PlanCommit(stage *document.Stage) CommitPlan {
	plan := CommitPlan{New: []document.StatEntry{}, Duplicates: []string{}}
	now := time.Now()
	for i := range stage.Rows {
		row := &stage.Rows[i]
		if document.IsDefaultRow(row) {
			plan.Skipped++
			continue
		}
		duplicate := false
		for j := range stage.Stats {
			if IsDuplicate(row, &stage.Stats[j]) {
				duplicate = true
				break
			}
		}
		if duplicate {
			plan.Duplicates = append(plan.Duplicates, row.Nick)
			continue
		}
		entry := document.StatEntry{
			Row:     row.Clone(),
			Score:   Score(row, stage.CorrectTeams),
			AddedAt: now,
		}
		entry.ID = document.StatEntryID(row.ID, i)
		plan.New = append(plan.New, entry)
	}
	return plan
}

// Frequency counts how often each asset was picked in one area across the
// whole ledger, remembering first-seen order so tie-breaks are stable.
type Frequency struct {
	order  []document.Ref
	counts map[document.Ref]int
}

// CountPicks tallies the area's slot values over all ledger entries,
// excluding empty slots.
func CountPicks(stats []document.StatEntry, area string) Frequency {
	freq := Frequency{counts: make(map[document.Ref]int)}
	for i := range stats {
		for _, ref := range stats[i].Area(area) {
			if ref == "" {
				continue
			}
			if _, seen := freq.counts[ref]; !seen {
				freq.order = append(freq.order, ref)
			}
			freq.counts[ref]++
		}
	}
	return freq
}

// Count returns the tally for one asset.
func (f Frequency) Count(ref document.Ref) int { return f.counts[ref] }

// Refs returns the counted assets in first-seen order.
func (f Frequency) Refs() []document.Ref { return f.order }

// Counts returns the tally as a plain map.
func (f Frequency) Counts() map[document.Ref]int {
	out := make(map[document.Ref]int, len(f.counts))
	for ref, n := range f.counts {
		out[ref] = n
	}
	return out
}

// PopularPick is one slot of a popularity listing. A nil *PopularPick in the
// returned slices is the explicit "no data" placeholder.
type PopularPick struct {
	Ref        document.Ref `json:"src"`
	Count      int          `json:"count"`
	Percentage float64      `json:"percentage"`
	Total      int          `json:"totalPicks"`
}

// PopularityExtremes returns the top-k and bottom-k picks by count. The
// denominator is the ledger size, floored at 1. Top ties break by first-seen
// order; the bottom list is the reversed sorted list, which breaks ties the
// other way (kept as the source behaves). Both slices always have exactly k
// elements, padded with nil when fewer distinct assets exist.
func PopularityExtremes(freq Frequency, k, totalEntries int) (top, bottom []*PopularPick) {
	denominator := totalEntries
	if denominator < 1 {
		denominator = 1
	}
	sorted := make([]*PopularPick, 0, len(freq.order))
	for _, ref := range freq.order {
		count := freq.counts[ref]
		sorted = append(sorted, &PopularPick{
			Ref:        ref,
			Count:      count,
			Percentage: float64(count) / float64(denominator) * 100,
			Total:      denominator,
		})
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })

	top = make([]*PopularPick, k)
	for i := 0; i < k && i < len(sorted); i++ {
		top[i] = sorted[i]
	}
	bottom = make([]*PopularPick, k)
	for i := 0; i < k && i < len(sorted); i++ {
		bottom[i] = sorted[len(sorted)-1-i]
	}
	return top, bottom
}

// TeamNames maps every named library asset's reference to its display name.
func TeamNames(library []document.LibraryAsset) map[document.Ref]string {
	names := make(map[document.Ref]string, len(library))
	for _, asset := range library {
		if asset.Src != "" && asset.Name != "" {
			names[document.Ref(asset.Src)] = asset.Name
		}
	}
	return names
}
