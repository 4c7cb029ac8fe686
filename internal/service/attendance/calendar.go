package attendance

import (
	"time"

	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/attendance"
)

// CalendarDayStatus classifies the records that fall on year-month-day.
// Undated records never match.
func CalendarDayStatus(records []attendance.Record, year, month, day int) attendance.DayStatus {
	var present, absent int
	for _, r := range records {
		if !r.HasDate() {
			continue
		}
		y, m, d := r.Date.Date()
		if y != year || int(m) != month || d != day {
			continue
		}
		if r.Present {
			present++
		} else {
			absent++
		}
	}
	return dayStatus(present, absent)
}

func dayStatus(present, absent int) attendance.DayStatus {
	has := present+absent > 0
	return attendance.DayStatus{
		HasRecords: has,
		AllPresent: has && absent == 0,
		AllAbsent:  has && present == 0,
		Partial:    present > 0 && absent > 0,
	}
}

// CalendarMonth lays out a Sunday-first month grid with the day status of every date.
func CalendarMonth(records []attendance.Record, year, month int) (attendance.CalendarMonthView, error) {
	if month < 1 || month > 12 {
		return attendance.CalendarMonthView{}, attendance.ErrInvalidMonth
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	type tally struct{ present, absent int }
	tallies := make([]tally, daysInMonth+1)
	for _, r := range records {
		if !r.HasDate() {
			continue
		}
		y, m, d := r.Date.Date()
		if y != year || int(m) != month {
			continue
		}
		if r.Present {
			tallies[d].present++
		} else {
			tallies[d].absent++
		}
	}

	view := attendance.CalendarMonthView{
		Year:      year,
		Month:     month,
		MonthName: first.Month().String(),
		Weeks:     make([][]attendance.CalendarDay, 0, 6),
	}

	week := make([]attendance.CalendarDay, 0, 7)
	for i := 0; i < int(first.Weekday()); i++ {
		week = append(week, attendance.CalendarDay{})
	}

	for d := 1; d <= daysInMonth; d++ {
		t := tallies[d]
		status := dayStatus(t.present, t.absent)
		switch {
		case status.AllPresent:
			view.DaysPresent++
		case status.AllAbsent:
			view.DaysAbsent++
		case status.Partial:
			view.DaysPartial++
		}

		week = append(week, attendance.CalendarDay{
			Day:         d,
			Date:        time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			RecordCount: t.present + t.absent,
			Status:      status,
		})

		if len(week) == 7 {
			view.Weeks = append(view.Weeks, week)
			week = make([]attendance.CalendarDay, 0, 7)
		}
	}

	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, attendance.CalendarDay{})
		}
		view.Weeks = append(view.Weeks, week)
	}

	return view, nil
}
