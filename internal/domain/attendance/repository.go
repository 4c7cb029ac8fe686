package attendance

import (
	"context"
)

// AttendanceRepository defines data access methods for attendance records.
type AttendanceRepository interface {
	// Create stores a record and returns it with ID and CreatedAt populated
	Create(ctx context.Context, record Record) (Record, error)

	// ListByStudent returns all records of a student in stable (date, created_at, id) order
	ListByStudent(ctx context.Context, studentID string) ([]Record, error)

	// ListByStudents returns the records of many students keyed by student ID
	ListByStudents(ctx context.Context, studentIDs []string) (map[string][]Record, error)

	// Delete removes a record owned by the student, returning ErrRecordNotFound when absent
	Delete(ctx context.Context, studentID string, recordID string) error
}

// ReportCache stores computed reports between requests.
type ReportCache interface {
	GetReport(ctx context.Context, studentID string, threshold float64) (*AnalyticsReport, error)
	SetReport(ctx context.Context, studentID string, threshold float64, report AnalyticsReport) error
	InvalidateStudent(ctx context.Context, studentID string) error
}
