package model

// Interval is a single check-in/check-out pair as listed in a recap.
type Interval struct {
	CheckIn  string  `json:"checkIn"`
	CheckOut *string `json:"checkOut"`
}

// DayRecap aggregates one day of attendance.
type DayRecap struct {
	Date         string     `json:"date"`
	Intervals    []Interval `json:"intervals"`
	TotalMinutes int        `json:"totalMinutes"`
}

// Recap is the read-only summary of a child's attendance over a period.
type Recap struct {
	ChildID        string     `json:"childId,omitempty"`
	Start          string     `json:"start"`
	End            string     `json:"end"`
	Days           []DayRecap `json:"days"`
	TotalMinutes   int        `json:"totalMinutes"`
	TotalFormatted string     `json:"totalFormatted"`
}
