package models

// DayGroup holds the transactions of one calendar day, newest first.
type DayGroup struct {
	Day          string                  `json:"day"`
	Transactions []NormalizedTransaction `json:"transactions"`
}

// DateGroupedFeed is the merged feed, newest day first.
type DateGroupedFeed struct {
	Days []DayGroup `json:"days"`
}

// Flatten returns every transaction in display order.
func (f DateGroupedFeed) Flatten() []NormalizedTransaction {
	out := make([]NormalizedTransaction, 0, f.Len())
	for _, d := range f.Days {
		out = append(out, d.Transactions...)
	}
	return out
}

func (f DateGroupedFeed) Len() int {
	n := 0
	for _, d := range f.Days {
		n += len(d.Transactions)
	}
	return n
}

// Day returns the group labelled day, if present.
func (f DateGroupedFeed) Day(day string) (DayGroup, bool) {
	for _, d := range f.Days {
		if d.Day == day {
			return d, true
		}
	}
	return DayGroup{}, false
}
