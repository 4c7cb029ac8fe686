package attendance

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/validator"
)

// ListRecords filters, sorts and paginates records for the attendance table.
// The filter must have been validated so its defaults are set.
func ListRecords(records []attendance.Record, filter attendance.RecordFilter) attendance.ListRecordsResponse {
	matched := filterRecords(records, filter)
	sortRecords(matched, filter.SortBy, filter.SortOrder)

	total := len(matched)
	page := max(filter.Page, 1)
	offset := total
	if page-1 <= total/filter.Limit {
		offset = (page - 1) * filter.Limit
	}
	end := min(offset+filter.Limit, total)

	responses := make([]attendance.RecordResponse, 0, filter.Limit)
	if offset < total {
		for _, r := range matched[offset:end] {
			responses = append(responses, toRecordResponse(r))
		}
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", offset+1, end, total)
	if total == 0 {
		showing = "0 of 0"
	} else if offset >= total {
		showing = fmt.Sprintf("0 of %d", total)
	}

	return attendance.ListRecordsResponse{
		TotalCount: int64(total),
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Records:    responses,
	}
}

func filterRecords(records []attendance.Record, filter attendance.RecordFilter) []attendance.Record {
	var (
		start, end       time.Time
		hasStart, hasEnd bool
	)
	if filter.StartDate != nil && *filter.StartDate != "" {
		start, hasStart = validator.IsValidDate(*filter.StartDate)
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		end, hasEnd = validator.IsValidDate(*filter.EndDate)
	}

	var search string
	if filter.Search != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.Search))
	}

	matched := make([]attendance.Record, 0, len(records))
	for _, r := range records {
		if filter.Subject != nil && *filter.Subject != "" && r.Subject != *filter.Subject {
			continue
		}
		if filter.Status != nil && *filter.Status != "" && recordStatus(r) != strings.ToLower(*filter.Status) {
			continue
		}
		if hasStart || hasEnd {
			if !r.HasDate() {
				continue
			}
			if hasStart && r.Date.Before(start) {
				continue
			}
			if hasEnd && r.Date.After(end) {
				continue
			}
		}
		if search != "" && !matchesSearch(r, search) {
			continue
		}
		matched = append(matched, r)
	}

	return matched
}

func matchesSearch(r attendance.Record, search string) bool {
	if strings.Contains(strings.ToLower(r.Subject), search) {
		return true
	}
	return r.Remarks != nil && strings.Contains(strings.ToLower(*r.Remarks), search)
}

// sortRecords orders records in place; undated records sort before every dated one.
func sortRecords(records []attendance.Record, sortBy, sortOrder string) {
	desc := sortOrder == "desc"

	var less func(a, b attendance.Record) bool
	switch sortBy {
	case "subject":
		less = func(a, b attendance.Record) bool { return a.Subject < b.Subject }
	case "status":
		less = func(a, b attendance.Record) bool { return recordStatus(a) < recordStatus(b) }
	default:
		less = func(a, b attendance.Record) bool { return a.Date.Before(b.Date) }
	}

	sort.SliceStable(records, func(i, j int) bool {
		if desc {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
}

func recordStatus(r attendance.Record) string {
	if r.Present {
		return "present"
	}
	return "absent"
}

func toRecordResponse(r attendance.Record) attendance.RecordResponse {
	resp := attendance.RecordResponse{
		ID:        r.ID,
		StudentID: r.StudentID,
		Subject:   r.Subject,
		Present:   r.Present,
		Status:    recordStatus(r),
		Remarks:   r.Remarks,
	}
	if r.HasDate() {
		resp.Date = r.Date.Format("2006-01-02")
	}
	if !r.CreatedAt.IsZero() {
		resp.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	return resp
}
