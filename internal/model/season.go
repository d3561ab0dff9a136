package model

// Season is a named set of calendar months with its daily solar
// production window. Seasons may share months.
type Season struct {
	Name   string
	Months []int
	Window ClockWindow
}

// HasMonth reports whether month m (1..12) belongs to the season.
func (s Season) HasMonth(m int) bool {
	for _, x := range s.Months {
		if x == m {
			return true
		}
	}
	return false
}

// DefaultSeasons are used when no monthly pattern is configured.
func DefaultSeasons() []Season {
	mk := func(name string, months []int, start, end int) Season {
		return Season{Name: name, Months: months, Window: ClockWindow{Start: start, End: end}}
	}
	return []Season{
		mk("summer", []int{6, 7, 8}, 7*60, 20*60),
		mk("fall", []int{9, 10, 11}, 8*60, 18*60),
		mk("winter", []int{12, 1, 2}, 9*60+30, 16*60+30),
		mk("spring", []int{2, 3, 4, 5}, 8*60, 18*60),
	}
}
