package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/sse"
)

// EventAtRisk is published once per student found below the good band.
const EventAtRisk = "attendance.at_risk"

// AtRiskScanner is the part of the attendance service the scan job needs.
type AtRiskScanner interface {
	ScanAtRisk(ctx context.Context) ([]attendance.AtRiskStudent, error)
}

type AtRiskJobs struct {
	scanner  AtRiskScanner
	hub      *sse.Hub
	interval time.Duration
	now      func() time.Time
}

func NewAtRiskJobs(scanner AtRiskScanner, hub *sse.Hub, interval time.Duration) *AtRiskJobs {
	return &AtRiskJobs{
		scanner:  scanner,
		hub:      hub,
		interval: interval,
		now:      time.Now,
	}
}

func (j *AtRiskJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("scan_at_risk_students", j.interval, j.ScanAtRiskStudents)
}

// AtRiskEvent is the payload of an attendance.at_risk event.
type AtRiskEvent struct {
	attendance.AtRiskStudent
	ScannedAt string `json:"scanned_at"`
}

// ScanAtRiskStudents finds students in the warning or critical band and notifies
// the staff topic and each student's own topic.
func (j *AtRiskJobs) ScanAtRiskStudents(ctx context.Context) error {
	slog.Info("Cron: Starting at-risk attendance scan")

	atRisk, err := j.scanner.ScanAtRisk(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan at-risk students: %w", err)
	}

	if len(atRisk) == 0 {
		slog.Info("Cron: No at-risk students found")
		return nil
	}

	scannedAt := j.now().UTC().Format(time.RFC3339)
	critical := 0
	for _, s := range atRisk {
		if s.Summary.Status == attendance.StatusCritical {
			critical++
		}

		slog.Warn("Cron: Student attendance at risk",
			"student_id", s.StudentID,
			"roll_number", s.RollNumber,
			"percentage", s.Summary.AttendancePercentage,
			"status", s.Summary.Status,
			"classes_needed", s.ClassesNeeded,
		)

		j.hub.PublishToMany(
			[]string{sse.TopicStaff, sse.StudentTopic(s.StudentID)},
			sse.Event{Event: EventAtRisk, Data: AtRiskEvent{AtRiskStudent: s, ScannedAt: scannedAt}},
		)
	}

	slog.Info("Cron: At-risk attendance scan completed",
		"at_risk_count", len(atRisk),
		"critical_count", critical,
		"staff_listeners", j.hub.SubscriberCount(sse.TopicStaff),
	)

	return nil
}
