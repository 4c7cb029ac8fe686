package attendance

import (
	"time"
)

// Record is one attendance mark for a student in a subject on a day.
// A zero Date means the upstream date was missing or unparsable.
type Record struct {
	ID        string
	StudentID string
	Date      time.Time
	Subject   string
	Present   bool
	Remarks   *string
	CreatedAt time.Time
}

// HasDate reports whether the record carries a usable calendar date.
func (r Record) HasDate() bool {
	return !r.Date.IsZero()
}

type Status string

const (
	StatusGood     Status = "good"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

const (
	GoodPercentage     = 75
	CriticalPercentage = 60

	// DefaultThreshold is the minimum attendance ratio a student must keep.
	DefaultThreshold = 0.75
)

// Rank orders statuses from worst to best: critical < warning < good.
func (s Status) Rank() int {
	switch s {
	case StatusCritical:
		return 0
	case StatusWarning:
		return 1
	case StatusGood:
		return 2
	default:
		return -1
	}
}

type Summary struct {
	TotalClasses         int    `json:"total_classes"`
	PresentClasses       int    `json:"present_classes"`
	AbsentClasses        int    `json:"absent_classes"`
	AttendancePercentage int    `json:"attendance_percentage"`
	Status               Status `json:"status"`
}

// SummaryOverride seeds a summary from upstream values instead of the raw records.
// Nil fields fall back to values computed from the records.
type SummaryOverride struct {
	TotalClasses         *int `json:"total_classes,omitempty" validate:"omitempty,gte=0"`
	PresentClasses       *int `json:"present_classes,omitempty" validate:"omitempty,gte=0"`
	AttendancePercentage *int `json:"attendance_percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
}

type SubjectBreakdown struct {
	Subject    string `json:"subject"`
	Total      int    `json:"total"`
	Present    int    `json:"present"`
	Percentage int    `json:"percentage"`
}

type MonthlyBucket struct {
	MonthYear  string `json:"month_year"` // "Jan 2024"
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Total      int    `json:"total"`
	Present    int    `json:"present"`
	Percentage int    `json:"percentage"`
}

type DailyBucket struct {
	Date       string `json:"date"` // "2006-01-02"
	Total      int    `json:"total"`
	Present    int    `json:"present"`
	Percentage int    `json:"percentage"`
}

// DayStatus classifies the records of a single calendar day.
// When HasRecords is true exactly one of AllPresent, AllAbsent, Partial is true.
type DayStatus struct {
	HasRecords bool `json:"has_records"`
	AllPresent bool `json:"all_present"`
	AllAbsent  bool `json:"all_absent"`
	Partial    bool `json:"partial"`
}

type CalendarDay struct {
	Day         int       `json:"day"` // 0 for padding cells outside the month
	Date        string    `json:"date,omitempty"`
	RecordCount int       `json:"record_count"`
	Status      DayStatus `json:"status"`
}

type CalendarMonthView struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	MonthName   string          `json:"month_name"`
	Weeks       [][]CalendarDay `json:"weeks"` // Sunday first, 7 cells per week
	DaysPresent int             `json:"days_present"`
	DaysAbsent  int             `json:"days_absent"`
	DaysPartial int             `json:"days_partial"`
}

// Projection is derived from the present and total class counts only. An
// attendance_percentage override changes Summary.Status but not the projection,
// so a report may pair status "good" with meets_threshold false.
type Projection struct {
	Threshold      float64 `json:"threshold"`
	ClassesNeeded  int     `json:"classes_needed"`
	MeetsThreshold bool    `json:"meets_threshold"`
}

// AtRiskStudent is a student whose attendance is below the good band.
type AtRiskStudent struct {
	StudentID     string  `json:"student_id"`
	FullName      string  `json:"full_name"`
	RollNumber    string  `json:"roll_number"`
	Summary       Summary `json:"summary"`
	ClassesNeeded int     `json:"classes_needed"`
}
