package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/student"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/validator"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	scanChunkSize   = 500
	scanConcurrency = 4
)

// Options carries the analytics settings taken from configuration.
type Options struct {
	Threshold   float64
	StrictDates bool
}

type AttendanceServiceImpl struct {
	tx database.Transactor
	attendance.AttendanceRepository
	student.StudentRepository
	cache attendance.ReportCache

	threshold   float64
	strictDates bool
	now         func() time.Time
}

// Analyze implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Analyze(ctx context.Context, req attendance.AnalyzeRequest) (attendance.AnalyticsReport, error) {
	if err := req.Validate(); err != nil {
		return attendance.AnalyticsReport{}, err
	}

	threshold := s.threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	records, skipped := attendance.ParseRecords(req.Records, s.strictDates)

	report, err := s.buildReport(records, req.Override, threshold)
	if err != nil {
		return attendance.AnalyticsReport{}, err
	}
	report.Skipped = skipped

	return report, nil
}

// GetDashboard implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetDashboard(ctx context.Context, studentID string, threshold float64) (attendance.AnalyticsReport, error) {
	if !validator.IsValidUUID(studentID) {
		return attendance.AnalyticsReport{}, student.ErrInvalidStudentID
	}
	if threshold == 0 {
		threshold = s.threshold
	}
	if !(threshold > 0 && threshold < 1) {
		return attendance.AnalyticsReport{}, attendance.ErrInvalidThreshold
	}

	cached, err := s.cache.GetReport(ctx, studentID, threshold)
	if err != nil {
		slog.Warn("Failed to read cached attendance report", "student_id", studentID, "error", err)
	} else if cached != nil {
		return *cached, nil
	}

	std, records, err := s.loadStudentRecords(ctx, studentID)
	if err != nil {
		return attendance.AnalyticsReport{}, err
	}

	report, err := s.buildReport(records, nil, threshold)
	if err != nil {
		return attendance.AnalyticsReport{}, err
	}
	report.StudentID = std.ID
	report.StudentName = std.FullName

	if err := s.cache.SetReport(ctx, studentID, threshold, report); err != nil {
		slog.Warn("Failed to cache attendance report", "student_id", studentID, "error", err)
	}

	return report, nil
}

// GetSummary implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetSummary(ctx context.Context, studentID string) (attendance.Summary, error) {
	report, err := s.GetDashboard(ctx, studentID, s.threshold)
	if err != nil {
		return attendance.Summary{}, err
	}
	return report.Summary, nil
}

// GetProjection implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetProjection(ctx context.Context, studentID string, threshold float64) (attendance.Projection, error) {
	report, err := s.GetDashboard(ctx, studentID, threshold)
	if err != nil {
		return attendance.Projection{}, err
	}
	return report.Projection, nil
}

// GetSubjects implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetSubjects(ctx context.Context, studentID string) ([]attendance.SubjectBreakdown, error) {
	report, err := s.GetDashboard(ctx, studentID, s.threshold)
	if err != nil {
		return nil, err
	}
	return report.Subjects, nil
}

// GetMonthlyTrend implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMonthlyTrend(ctx context.Context, studentID string) ([]attendance.MonthlyBucket, error) {
	report, err := s.GetDashboard(ctx, studentID, s.threshold)
	if err != nil {
		return nil, err
	}
	return report.MonthlyTrend, nil
}

// GetDailyTrend implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetDailyTrend(ctx context.Context, studentID string) ([]attendance.DailyBucket, error) {
	report, err := s.GetDashboard(ctx, studentID, s.threshold)
	if err != nil {
		return nil, err
	}
	return report.DailyTrend, nil
}

// GetCalendar implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetCalendar(ctx context.Context, studentID string, query attendance.CalendarQuery) (attendance.CalendarMonthView, error) {
	if query.Year == 0 && query.Month == 0 {
		now := s.now().UTC()
		query.Year, query.Month = now.Year(), int(now.Month())
	}
	if err := query.Validate(); err != nil {
		return attendance.CalendarMonthView{}, err
	}
	if !validator.IsValidUUID(studentID) {
		return attendance.CalendarMonthView{}, student.ErrInvalidStudentID
	}

	_, records, err := s.loadStudentRecords(ctx, studentID)
	if err != nil {
		return attendance.CalendarMonthView{}, err
	}

	return CalendarMonth(records, query.Year, query.Month)
}

// ListRecords implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListRecords(ctx context.Context, studentID string, filter attendance.RecordFilter) (attendance.ListRecordsResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListRecordsResponse{}, err
	}
	if !validator.IsValidUUID(studentID) {
		return attendance.ListRecordsResponse{}, student.ErrInvalidStudentID
	}

	_, records, err := s.loadStudentRecords(ctx, studentID)
	if err != nil {
		return attendance.ListRecordsResponse{}, err
	}

	return ListRecords(records, filter), nil
}

// CreateRecord implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CreateRecord(ctx context.Context, req attendance.CreateRecordRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to generate record id: %w", err)
	}

	newRecord := req.ToRecord()
	newRecord.ID = id.String()

	var created attendance.Record
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.StudentRepository.GetByID(txCtx, req.StudentID); err != nil {
			return err
		}

		created, err = s.AttendanceRepository.Create(txCtx, newRecord)
		if err != nil {
			return fmt.Errorf("failed to create attendance record: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	s.invalidate(ctx, req.StudentID)

	return toRecordResponse(created), nil
}

// DeleteRecord implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) DeleteRecord(ctx context.Context, studentID string, recordID string) error {
	if !validator.IsValidUUID(studentID) {
		return student.ErrInvalidStudentID
	}
	if !validator.IsValidUUID(recordID) {
		return attendance.ErrRecordNotFound
	}

	if err := s.AttendanceRepository.Delete(ctx, studentID, recordID); err != nil {
		if errors.Is(err, attendance.ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete attendance record: %w", err)
	}

	s.invalidate(ctx, studentID)

	return nil
}

// ScanAtRisk implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ScanAtRisk(ctx context.Context) ([]attendance.AtRiskStudent, error) {
	students, err := s.StudentRepository.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active students: %w", err)
	}

	var mu sync.Mutex
	byID := make(map[string][]attendance.Record, len(students))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)

	for start := 0; start < len(students); start += scanChunkSize {
		chunk := students[start:min(start+scanChunkSize, len(students))]
		ids := make([]string, 0, len(chunk))
		for _, st := range chunk {
			ids = append(ids, st.ID)
		}

		g.Go(func() error {
			records, err := s.AttendanceRepository.ListByStudents(gCtx, ids)
			if err != nil {
				return fmt.Errorf("failed to load attendance records: %w", err)
			}
			mu.Lock()
			for id, recs := range records {
				byID[id] = recs
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	atRisk := make([]attendance.AtRiskStudent, 0)
	for _, st := range students {
		records := s.applyDatePolicy(byID[st.ID])
		if len(records) == 0 {
			continue
		}

		summary := ComputeSummary(records, nil)
		if summary.Status == attendance.StatusGood {
			continue
		}

		needed, err := ClassesNeededForThreshold(summary.PresentClasses, summary.TotalClasses, s.threshold)
		if err != nil {
			return nil, err
		}

		atRisk = append(atRisk, attendance.AtRiskStudent{
			StudentID:     st.ID,
			FullName:      st.FullName,
			RollNumber:    st.RollNumber,
			Summary:       summary,
			ClassesNeeded: needed,
		})
	}

	sort.SliceStable(atRisk, func(i, j int) bool {
		if ri, rj := atRisk[i].Summary.Status.Rank(), atRisk[j].Summary.Status.Rank(); ri != rj {
			return ri < rj
		}
		if atRisk[i].Summary.AttendancePercentage != atRisk[j].Summary.AttendancePercentage {
			return atRisk[i].Summary.AttendancePercentage < atRisk[j].Summary.AttendancePercentage
		}
		return atRisk[i].RollNumber < atRisk[j].RollNumber
	})

	return atRisk, nil
}

// loadStudentRecords fetches the student and their records concurrently.
func (s *AttendanceServiceImpl) loadStudentRecords(ctx context.Context, studentID string) (student.Student, []attendance.Record, error) {
	var (
		std     student.Student
		records []attendance.Record
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		std, err = s.StudentRepository.GetByID(gCtx, studentID)
		return err
	})

	g.Go(func() error {
		var err error
		records, err = s.AttendanceRepository.ListByStudent(gCtx, studentID)
		if err != nil {
			return fmt.Errorf("failed to load attendance records: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return student.Student{}, nil, err
	}

	return std, s.applyDatePolicy(records), nil
}

// applyDatePolicy drops undated records when strict dates are enabled.
func (s *AttendanceServiceImpl) applyDatePolicy(records []attendance.Record) []attendance.Record {
	if !s.strictDates {
		return records
	}
	dated := make([]attendance.Record, 0, len(records))
	for _, r := range records {
		if r.HasDate() {
			dated = append(dated, r)
		}
	}
	return dated
}

func (s *AttendanceServiceImpl) buildReport(records []attendance.Record, override *attendance.SummaryOverride, threshold float64) (attendance.AnalyticsReport, error) {
	summary := ComputeSummary(records, override)

	projection, err := BuildProjection(summary, threshold)
	if err != nil {
		return attendance.AnalyticsReport{}, err
	}

	undated := 0
	for _, r := range records {
		if !r.HasDate() {
			undated++
		}
	}

	return attendance.AnalyticsReport{
		Summary:        summary,
		Projection:     projection,
		Subjects:       BySubject(records),
		MonthlyTrend:   MonthlyTrend(records),
		DailyTrend:     DailyTrend(records),
		UndatedRecords: undated,
		GeneratedAt:    s.now().UTC().Format(time.RFC3339),
	}, nil
}

func (s *AttendanceServiceImpl) invalidate(ctx context.Context, studentID string) {
	if err := s.cache.InvalidateStudent(ctx, studentID); err != nil {
		slog.Warn("Failed to invalidate cached attendance reports", "student_id", studentID, "error", err)
	}
}

func NewAttendanceService(
	tx database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	studentRepo student.StudentRepository,
	cache attendance.ReportCache,
	opts Options,
) attendance.AttendanceService {
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = attendance.DefaultThreshold
	}

	return &AttendanceServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepo,
		StudentRepository:    studentRepo,
		cache:                cache,
		threshold:            threshold,
		strictDates:          opts.StrictDates,
		now:                  time.Now,
	}
}
