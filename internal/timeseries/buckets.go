package timeseries

import (
	"fmt"
	"strconv"
	"time"
)

// Bucket is a group of consecutive rows sharing a calendar period.
type Bucket struct {
	Start time.Time
	Label string
	Rows  []int
}

// MonthBuckets groups rows by calendar month in chronological order
// (month-end resampling). Labels are month numbers "1".."12"; when the
// index spans more than one year they become "YYYY-MM" to stay unique.
func MonthBuckets(index []time.Time) []Bucket {
	buckets := groupBy(index, func(ts time.Time) time.Time {
		return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, ts.Location())
	})
	multiYear := len(buckets) > 0 && buckets[0].Start.Year() != buckets[len(buckets)-1].Start.Year()
	for i := range buckets {
		if multiYear {
			buckets[i].Label = buckets[i].Start.Format("2006-01")
		} else {
			buckets[i].Label = strconv.Itoa(int(buckets[i].Start.Month()))
		}
	}
	return buckets
}

// DayBuckets groups rows by calendar day.
func DayBuckets(index []time.Time) []Bucket {
	buckets := groupBy(index, func(ts time.Time) time.Time {
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
	})
	for i := range buckets {
		buckets[i].Label = buckets[i].Start.Format("2006-01-02")
	}
	return buckets
}

// Months returns the calendar month (1..12) of every row.
func Months(index []time.Time) []int {
	out := make([]int, len(index))
	for i, ts := range index {
		out[i] = int(ts.Month())
	}
	return out
}

// MonthLabel is the label used for calendar-month groupings.
func MonthLabel(m int) string {
	if m < 1 || m > 12 {
		return fmt.Sprintf("month-%d", m)
	}
	return strconv.Itoa(m)
}

func groupBy(index []time.Time, key func(time.Time) time.Time) []Bucket {
	var out []Bucket
	for r, ts := range index {
		k := key(ts)
		if n := len(out); n > 0 && out[n-1].Start.Equal(k) {
			out[n-1].Rows = append(out[n-1].Rows, r)
			continue
		}
		out = append(out, Bucket{Start: k, Rows: []int{r}})
	}
	return out
}
