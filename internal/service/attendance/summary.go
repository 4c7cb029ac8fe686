package attendance

import (
	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/attendance"
)

// ComputeSummary counts classes and classifies the student's standing.
// Values in override replace the ones derived from records; inconsistent
// overrides are normalised so the result always stays within bounds.
func ComputeSummary(records []attendance.Record, override *attendance.SummaryOverride) attendance.Summary {
	total := len(records)
	present := 0
	for _, r := range records {
		if r.Present {
			present++
		}
	}

	if override != nil {
		if override.TotalClasses != nil {
			total = *override.TotalClasses
		}
		if override.PresentClasses != nil {
			present = *override.PresentClasses
		}
	}

	if total < 0 {
		total = 0
	}
	present = max(0, min(present, total))

	percentage := percentOf(present, total)
	if override != nil && override.AttendancePercentage != nil {
		percentage = max(0, min(*override.AttendancePercentage, 100))
	}

	status := attendance.StatusWarning
	if total > 0 {
		status = ClassifyStatus(percentage)
	}

	return attendance.Summary{
		TotalClasses:         total,
		PresentClasses:       present,
		AbsentClasses:        total - present,
		AttendancePercentage: percentage,
		Status:               status,
	}
}

// ClassifyStatus maps a percentage onto good (>= 75), critical (< 60) or warning.
func ClassifyStatus(percentage int) attendance.Status {
	switch {
	case percentage >= attendance.GoodPercentage:
		return attendance.StatusGood
	case percentage < attendance.CriticalPercentage:
		return attendance.StatusCritical
	default:
		return attendance.StatusWarning
	}
}

// percentOf returns round(100*part/whole) with halves rounded up, or 0 for an empty whole.
func percentOf(part, whole int) int {
	if whole <= 0 || part <= 0 {
		return 0
	}
	return min((200*part+whole)/(2*whole), 100)
}
