package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/campus-attendance-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/campus-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	GetMyDashboard(w http.ResponseWriter, r *http.Request)
	GetDashboard(w http.ResponseWriter, r *http.Request)
	GetSummary(w http.ResponseWriter, r *http.Request)
	GetProjection(w http.ResponseWriter, r *http.Request)
	GetSubjects(w http.ResponseWriter, r *http.Request)
	GetMonthlyTrend(w http.ResponseWriter, r *http.Request)
	GetDailyTrend(w http.ResponseWriter, r *http.Request)
	GetCalendar(w http.ResponseWriter, r *http.Request)
	ListRecords(w http.ResponseWriter, r *http.Request)
	CreateRecord(w http.ResponseWriter, r *http.Request)
	DeleteRecord(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// parseThreshold reads the optional threshold query parameter; 0 means the configured default.
func parseThreshold(r *http.Request) (float64, error) {
	raw := r.URL.Query().Get("threshold")
	if raw == "" {
		return 0, nil
	}

	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, validator.ValidationErrors{{
			Field:   "threshold",
			Message: "threshold must be a number between 0 and 1 (exclusive)",
		}}
	}
	if threshold <= 0 || threshold >= 1 {
		return 0, attendance.ErrInvalidThreshold
	}

	return threshold, nil
}

// GetMyDashboard implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyDashboard(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFromContext(r.Context())
	if principal.StudentID == nil {
		response.HandleError(w, user.ErrStudentIDClaimMissing)
		return
	}

	threshold, err := parseThreshold(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetDashboard(r.Context(), *principal.StudentID, threshold)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetDashboard implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetDashboard(w http.ResponseWriter, r *http.Request) {
	threshold, err := parseThreshold(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetDashboard(r.Context(), chi.URLParam(r, "studentID"), threshold)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetSummary implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetSummary(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetSummary(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetProjection implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetProjection(w http.ResponseWriter, r *http.Request) {
	threshold, err := parseThreshold(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetProjection(r.Context(), chi.URLParam(r, "studentID"), threshold)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetSubjects implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetSubjects(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetSubjects(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetMonthlyTrend implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetMonthlyTrend(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetDailyTrend implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetDailyTrend(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetDailyTrend(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetCalendar implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetCalendar(w http.ResponseWriter, r *http.Request) {
	var query attendance.CalendarQuery
	var errs validator.ValidationErrors

	if y := r.URL.Query().Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "year", Message: "year must be a number"})
		}
		query.Year = year
	}

	if m := r.URL.Query().Get("month"); m != "" {
		month, err := strconv.Atoi(m)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "month", Message: "month must be a number"})
		}
		query.Month = month
	}

	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	result, err := h.attendanceService.GetCalendar(r.Context(), chi.URLParam(r, "studentID"), query)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListRecords implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	filter := attendance.RecordFilter{}

	if subject := r.URL.Query().Get("subject"); subject != "" {
		filter.Subject = &subject
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = &status
	}

	// Date range filters
	if startDate := r.URL.Query().Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}

	if endDate := r.URL.Query().Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}

	if search := r.URL.Query().Get("search"); search != "" {
		filter.Search = &search
	}

	// Pagination
	if p := r.URL.Query().Get("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil {
			filter.Page = pageNum
		}
	}

	if l := r.URL.Query().Get("limit"); l != "" {
		if limitNum, err := strconv.Atoi(l); err == nil {
			filter.Limit = limitNum
		}
	}

	// Sorting
	filter.SortBy = r.URL.Query().Get("sort_by")
	filter.SortOrder = r.URL.Query().Get("sort_order")

	results, err := h.attendanceService.ListRecords(ctx, chi.URLParam(r, "studentID"), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// CreateRecord implements AttendanceHandler.
func (h *attendanceHandlerImpl) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req attendance.CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.StudentID = chi.URLParam(r, "studentID")

	result, err := h.attendanceService.CreateRecord(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Attendance record created successfully", result)
}

// DeleteRecord implements AttendanceHandler.
func (h *attendanceHandlerImpl) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	err := h.attendanceService.DeleteRecord(r.Context(), chi.URLParam(r, "studentID"), chi.URLParam(r, "recordID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance record deleted successfully", nil)
}
