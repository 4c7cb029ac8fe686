package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/attendance"
)

// BySubject groups records by exact subject name, best percentage first.
// Subjects with equal percentage keep the order in which they first appear.
// Dates are not consulted, so undated records still count here.
func BySubject(records []attendance.Record) []attendance.SubjectBreakdown {
	index := make(map[string]int)
	result := make([]attendance.SubjectBreakdown, 0)

	for _, r := range records {
		if r.Subject == "" {
			continue
		}
		i, ok := index[r.Subject]
		if !ok {
			i = len(result)
			index[r.Subject] = i
			result = append(result, attendance.SubjectBreakdown{Subject: r.Subject})
		}
		result[i].Total++
		if r.Present {
			result[i].Present++
		}
	}

	for i := range result {
		result[i].Percentage = percentOf(result[i].Present, result[i].Total)
	}

	sort.SliceStable(result, func(a, b int) bool {
		return result[a].Percentage > result[b].Percentage
	})

	return result
}

// MonthlyTrend buckets dated records by calendar month, oldest month first.
func MonthlyTrend(records []attendance.Record) []attendance.MonthlyBucket {
	index := make(map[int]int)
	result := make([]attendance.MonthlyBucket, 0)

	for _, r := range records {
		if !r.HasDate() {
			continue
		}
		key := r.Date.Year()*12 + int(r.Date.Month()) - 1
		i, ok := index[key]
		if !ok {
			i = len(result)
			index[key] = i
			first := time.Date(r.Date.Year(), r.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
			result = append(result, attendance.MonthlyBucket{
				MonthYear: first.Format("Jan 2006"),
				Year:      first.Year(),
				Month:     int(first.Month()),
			})
		}
		result[i].Total++
		if r.Present {
			result[i].Present++
		}
	}

	for i := range result {
		result[i].Percentage = percentOf(result[i].Present, result[i].Total)
	}

	sort.Slice(result, func(a, b int) bool {
		if result[a].Year != result[b].Year {
			return result[a].Year < result[b].Year
		}
		return result[a].Month < result[b].Month
	})

	return result
}

// DailyTrend buckets dated records by calendar day, oldest day first.
func DailyTrend(records []attendance.Record) []attendance.DailyBucket {
	index := make(map[string]int)
	result := make([]attendance.DailyBucket, 0)

	for _, r := range records {
		if !r.HasDate() {
			continue
		}
		key := r.Date.Format("2006-01-02")
		i, ok := index[key]
		if !ok {
			i = len(result)
			index[key] = i
			result = append(result, attendance.DailyBucket{Date: key})
		}
		result[i].Total++
		if r.Present {
			result[i].Present++
		}
	}

	for i := range result {
		result[i].Percentage = percentOf(result[i].Present, result[i].Total)
	}

	// ISO dates with four digit years sort lexically in calendar order.
	sort.Slice(result, func(a, b int) bool {
		return result[a].Date < result[b].Date
	})

	return result
}
