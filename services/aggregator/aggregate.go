package aggregator

import (
	// Go Internal Packages
	"sort"
	"time"

	// Local Packages
	models "tx-feed/models"
	loader "tx-feed/services/loader"
	utils "tx-feed/utils"
)

// Aggregate merges the records of every enabled window into one feed.
//
// Windows are concatenated in the order given, the result is stably sorted
// newest first (equal timestamps keep concatenation order) and then bucketed
// by calendar day in loc. A key seen twice keeps its first occurrence.
func Aggregate(windows []loader.SourceWindow, enabled map[models.SourceKind]bool, loc *time.Location) models.DateGroupedFeed {
	var merged []models.NormalizedTransaction
	seen := make(map[models.TxKey]struct{})
	for _, w := range windows {
		if !enabled[w.Kind] {
			continue
		}
		for _, tx := range w.Records {
			if _, ok := seen[tx.Key()]; ok {
				continue
			}
			seen[tx.Key()] = struct{}{}
			merged = append(merged, tx)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})
	return utils.GroupByDay(merged, loc)
}

// HasNextPage reports whether any enabled window can still load more.
func HasNextPage(windows []loader.SourceWindow, enabled map[models.SourceKind]bool) bool {
	for _, w := range windows {
		if enabled[w.Kind] && w.HasMore {
			return true
		}
	}
	return false
}
