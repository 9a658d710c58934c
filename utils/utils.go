package utils

import (
	// Go Internal Packages
	"fmt"
	"time"

	// Local Packages
	models "tx-feed/models"
)

// DayLayout is the bucket label format. It sorts lexically in calendar order.
const DayLayout = "2006-01-02"

// DayLabel returns the calendar day of t in loc.
func DayLabel(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayLayout)
}

// GroupByDay buckets txs by calendar day in loc. Buckets appear in the order
// their first record appears and records keep their input order, so a list
// sorted newest first yields newest day first.
func GroupByDay(txs []models.NormalizedTransaction, loc *time.Location) models.DateGroupedFeed {
	feed := models.DateGroupedFeed{Days: []models.DayGroup{}}
	index := make(map[string]int)
	for _, tx := range txs {
		label := DayLabel(tx.Timestamp, loc)
		i, ok := index[label]
		if !ok {
			i = len(feed.Days)
			index[label] = i
			feed.Days = append(feed.Days, models.DayGroup{Day: label})
		}
		feed.Days[i].Transactions = append(feed.Days[i].Transactions, tx)
	}
	return feed
}

// StartOfDay returns midnight of t's day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// FormatRemaining renders a countdown as HH:MM:SS, rounding partial seconds up.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "00:00:00"
	}
	secs := int64((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}
