package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const recordColumns = `id, student_id, date, subject, present, remarks, created_at`

type attendanceRepository struct {
	db *database.DB
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (id, student_id, date, subject, present, remarks)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	var date *time.Time
	if record.HasDate() {
		date = &record.Date
	}

	err := q.QueryRow(ctx, query,
		record.ID,
		record.StudentID,
		date,
		record.Subject,
		record.Present,
		record.Remarks,
	).Scan(&record.CreatedAt)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to insert attendance record: %w", err)
	}

	return record, nil
}

// ListByStudent implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByStudent(ctx context.Context, studentID string) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE student_id = $1
		ORDER BY date ASC NULLS FIRST, created_at ASC, id ASC
	`

	rows, err := q.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	records := make([]attendance.Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance records: %w", err)
	}

	return records, nil
}

// ListByStudents implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByStudents(ctx context.Context, studentIDs []string) (map[string][]attendance.Record, error) {
	result := make(map[string][]attendance.Record, len(studentIDs))
	if len(studentIDs) == 0 {
		return result, nil
	}

	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE student_id = ANY($1::uuid[])
		ORDER BY student_id, date ASC NULLS FIRST, created_at ASC, id ASC
	`

	rows, err := q.Query(ctx, query, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result[r.StudentID] = append(result[r.StudentID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance records: %w", err)
	}

	return result, nil
}

// Delete implements attendance.AttendanceRepository.
func (a *attendanceRepository) Delete(ctx context.Context, studentID string, recordID string) error {
	q := GetQuerier(ctx, a.db)

	query := `DELETE FROM attendance_records WHERE id = $1 AND student_id = $2`

	commandTag, err := q.Exec(ctx, query, recordID, studentID)
	if err != nil {
		return fmt.Errorf("failed to delete attendance record: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return attendance.ErrRecordNotFound
	}

	return nil
}

func scanRecord(rows pgx.Rows) (attendance.Record, error) {
	var (
		r    attendance.Record
		date *time.Time
	)
	err := rows.Scan(&r.ID, &r.StudentID, &date, &r.Subject, &r.Present, &r.Remarks, &r.CreatedAt)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to scan attendance record: %w", err)
	}
	if date != nil {
		r.Date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	}
	return r, nil
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}
