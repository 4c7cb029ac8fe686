package attendance

import (
	"errors"
	"strings"

	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/validator"
)

// MaxAnalyzeRecords caps the size of a posted record batch.
const MaxAnalyzeRecords = 20000

// ========================================
// RECORD INPUT
// ========================================

// RecordPayload is the JSON shape the portal backend serves attendance in.
type RecordPayload struct {
	Date    string  `json:"date"`
	Subject string  `json:"subject" validate:"required,max=150"`
	Present *bool   `json:"present" validate:"required"`
	Remarks *string `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

// SkippedRecord reports a payload that was left out of the computation.
type SkippedRecord struct {
	Index   int               `json:"index"`
	Reason  string            `json:"reason"`
	Details map[string]string `json:"details,omitempty"`
}

// ParseRecords converts payloads into records, skipping malformed ones instead of
// failing the batch. A payload with an unparsable date is kept as an undated
// record unless strictDates is set, in which case it is skipped too.
func ParseRecords(payloads []RecordPayload, strictDates bool) ([]Record, []SkippedRecord) {
	records := make([]Record, 0, len(payloads))
	var skipped []SkippedRecord

	for i, p := range payloads {
		if err := p.validate(); err != nil {
			skip := SkippedRecord{Index: i, Reason: "invalid record"}
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) {
				skip.Details = fieldErrs.ToMap()
			}
			skipped = append(skipped, skip)
			continue
		}

		date, ok := validator.ParseCalendarDate(p.Date)
		if !ok && strictDates {
			skipped = append(skipped, SkippedRecord{
				Index:   i,
				Reason:  ErrInvalidDate.Error(),
				Details: map[string]string{"date": "date must be YYYY-MM-DD or an ISO8601 timestamp"},
			})
			continue
		}

		records = append(records, Record{
			Date:    date,
			Subject: p.Subject,
			Present: *p.Present,
			Remarks: p.Remarks,
		})
	}

	return records, skipped
}

func (p RecordPayload) validate() error {
	if err := validator.ValidateStruct(p); err != nil {
		return err
	}
	if validator.IsEmpty(p.Subject) {
		return validator.ValidationErrors{{Field: "subject", Message: "subject is required"}}
	}
	return nil
}

// ========================================
// ANALYTICS DTOs
// ========================================

type AnalyzeRequest struct {
	Records   []RecordPayload  `json:"records"`
	Threshold *float64         `json:"threshold,omitempty"`
	Override  *SummaryOverride `json:"override,omitempty"`
}

func (r *AnalyzeRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.Records) > MaxAnalyzeRecords {
		errs = append(errs, validator.ValidationError{
			Field:   "records",
			Message: ErrTooManyRecords.Error(),
		})
	}

	if r.Threshold != nil && (*r.Threshold <= 0 || *r.Threshold >= 1) {
		errs = append(errs, validator.ValidationError{
			Field:   "threshold",
			Message: "threshold must be between 0 and 1 (exclusive)",
		})
	}

	if r.Override != nil {
		errs = append(errs, r.Override.validate()...)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (o *SummaryOverride) validate() validator.ValidationErrors {
	var errs validator.ValidationErrors

	if err := validator.ValidateStruct(o); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, validator.ValidationError{
					Field:   "override." + fe.Field,
					Message: fe.Message,
				})
			}
		}
	}

	if o.TotalClasses != nil && o.PresentClasses != nil && *o.PresentClasses > *o.TotalClasses {
		errs = append(errs, validator.ValidationError{
			Field:   "override.present_classes",
			Message: "present_classes must not exceed total_classes",
		})
	}

	return errs
}

// AnalyticsReport bundles every derived view of one record set.
type AnalyticsReport struct {
	StudentID      string             `json:"student_id,omitempty"`
	StudentName    string             `json:"student_name,omitempty"`
	Summary        Summary            `json:"summary"`
	Projection     Projection         `json:"projection"`
	Subjects       []SubjectBreakdown `json:"subjects"`
	MonthlyTrend   []MonthlyBucket    `json:"monthly_trend"`
	DailyTrend     []DailyBucket      `json:"daily_trend"`
	UndatedRecords int                `json:"undated_records"`
	Skipped        []SkippedRecord    `json:"skipped,omitempty"`
	GeneratedAt    string             `json:"generated_at"`
}

// ========================================
// RECORD LISTING DTOs
// ========================================

type RecordFilter struct {
	// Search & Filter
	Subject   *string `json:"subject,omitempty"`
	Status    *string `json:"status,omitempty"`     // present, absent
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Search    *string `json:"search,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, subject, status
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *RecordFilter) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 10 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	// Status validation
	if f.Status != nil {
		validStatuses := []string{"present", "absent"}
		if !validator.IsInSlice(strings.ToLower(*f.Status), validStatuses) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: present, absent",
			})
		}
	}

	// Date validation
	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	// Sort validation
	if f.SortBy != "" {
		validSortFields := []string{"date", "subject", "status"}
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: date, subject, status",
			})
		}
	} else {
		f.SortBy = "date" // Default sort
	}

	if f.SortOrder != "" {
		validSortOrders := []string{"asc", "desc"}
		f.SortOrder = strings.ToLower(f.SortOrder)
		if !validator.IsInSlice(f.SortOrder, validSortOrders) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc" // Default descending (newest first)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type RecordResponse struct {
	ID        string  `json:"id,omitempty"`
	StudentID string  `json:"student_id,omitempty"`
	Date      string  `json:"date"` // empty when the record has no usable date
	Subject   string  `json:"subject"`
	Present   bool    `json:"present"`
	Status    string  `json:"status"` // present, absent
	Remarks   *string `json:"remarks,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
}

type ListRecordsResponse struct {
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
	Showing    string           `json:"showing"`
	Records    []RecordResponse `json:"records"`
}

// ========================================
// RECORD MAINTENANCE DTOs
// ========================================

type CreateRecordRequest struct {
	StudentID string  `json:"-"`
	Date      string  `json:"date" validate:"required"`
	Subject   string  `json:"subject" validate:"required,max=150"`
	Present   *bool   `json:"present" validate:"required"`
	Remarks   *string `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

func (r *CreateRecordRequest) Validate() error {
	var errs validator.ValidationErrors

	if err := validator.ValidateStruct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		errs = append(errs, fieldErrs...)
	}

	if !validator.IsValidUUID(r.StudentID) {
		errs = append(errs, validator.ValidationError{
			Field:   "student_id",
			Message: "student_id must be a valid UUID",
		})
	}

	if r.Date != "" {
		if _, ok := validator.ParseCalendarDate(r.Date); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be YYYY-MM-DD or an ISO8601 timestamp",
			})
		}
	}

	if r.Subject != "" && validator.IsEmpty(r.Subject) {
		errs = append(errs, validator.ValidationError{
			Field:   "subject",
			Message: "subject is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToRecord builds the record to persist. Call Validate first.
func (r *CreateRecordRequest) ToRecord() Record {
	date, _ := validator.ParseCalendarDate(r.Date)
	present := r.Present != nil && *r.Present
	return Record{
		StudentID: r.StudentID,
		Date:      date,
		Subject:   r.Subject,
		Present:   present,
		Remarks:   r.Remarks,
	}
}

// CalendarQuery selects the month grid to render.
type CalendarQuery struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (q *CalendarQuery) Validate() error {
	var errs validator.ValidationErrors

	if q.Year < 1900 || q.Year > 2200 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be between 1900 and 2200",
		})
	}
	if q.Month < 1 || q.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
