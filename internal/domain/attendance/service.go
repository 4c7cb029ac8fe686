package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance analytics
type AttendanceService interface {
	// Analyze computes every analytics view for a posted record batch
	Analyze(ctx context.Context, req AnalyzeRequest) (AnalyticsReport, error)

	// GetDashboard computes the full analytics report for one student
	GetDashboard(ctx context.Context, studentID string, threshold float64) (AnalyticsReport, error)

	// GetSummary returns the overall summary for one student
	GetSummary(ctx context.Context, studentID string) (Summary, error)

	// GetProjection returns how many consecutive present classes reach the threshold
	GetProjection(ctx context.Context, studentID string, threshold float64) (Projection, error)

	// GetSubjects returns the per-subject breakdown, best subject first
	GetSubjects(ctx context.Context, studentID string) ([]SubjectBreakdown, error)

	// GetMonthlyTrend returns per-month buckets in chronological order
	GetMonthlyTrend(ctx context.Context, studentID string) ([]MonthlyBucket, error)

	// GetDailyTrend returns per-day buckets in chronological order
	GetDailyTrend(ctx context.Context, studentID string) ([]DailyBucket, error)

	// GetCalendar returns the month grid with per-day status
	GetCalendar(ctx context.Context, studentID string, query CalendarQuery) (CalendarMonthView, error)

	// ListRecords returns filtered, sorted and paginated records for one student
	ListRecords(ctx context.Context, studentID string, filter RecordFilter) (ListRecordsResponse, error)

	// CreateRecord stores a new attendance mark (staff)
	CreateRecord(ctx context.Context, req CreateRecordRequest) (RecordResponse, error)

	// DeleteRecord removes an attendance mark (staff)
	DeleteRecord(ctx context.Context, studentID string, recordID string) error

	// ScanAtRisk returns every active student whose status is warning or critical
	ScanAtRisk(ctx context.Context) ([]AtRiskStudent, error)
}
