package model

// AttendanceRecord is one check-in/check-out interval of a child on a
// logical day. CheckOut is nil while the child is still present.
type AttendanceRecord struct {
	ID       string  `json:"id"`
	ChildID  string  `json:"childId"`
	Date     string  `json:"date"`
	CheckIn  string  `json:"checkIn"`
	CheckOut *string `json:"checkOut"`
}

// Open reports whether the record has no check-out yet.
func (r AttendanceRecord) Open() bool {
	return r.CheckOut == nil
}

// RecordPatch is a manual correction of a record. CheckOut may be set to
// null to reopen the interval.
type RecordPatch struct {
	Date     *string  `json:"date"`
	CheckIn  *string  `json:"checkIn"`
	CheckOut Optional `json:"checkOut"`
}

// Empty reports whether the patch changes nothing.
func (p RecordPatch) Empty() bool {
	return p.Date == nil && p.CheckIn == nil && !p.CheckOut.Set
}

// Apply returns a copy of r with the patch applied.
func (p RecordPatch) Apply(r AttendanceRecord) AttendanceRecord {
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.CheckIn != nil {
		r.CheckIn = *p.CheckIn
	}
	r.CheckOut = p.CheckOut.Or(r.CheckOut)
	return r
}

// Status is the derived same-day presence state of a child.
type Status string

const (
	StatusNotArrived = Status("not-arrived")
	StatusPresent    = Status("present")
	StatusLeft       = Status("left")
)

// StatusOf derives the status from a child's records of a single day.
func StatusOf(records []AttendanceRecord) Status {
	if len(records) == 0 {
		return StatusNotArrived
	}
	for _, r := range records {
		if r.Open() {
			return StatusPresent
		}
	}
	return StatusLeft
}

// BoardEntry is one line of the daily check-in board.
type BoardEntry struct {
	Child   Child              `json:"child"`
	Status  Status             `json:"status"`
	Records []AttendanceRecord `json:"records"`
}
