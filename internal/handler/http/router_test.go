package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/campus-attendance-go/internal/config"
	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/student"
	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/sse"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestSecret    = "test-secret-key-for-jwt"
	handlerTestAccessExp = "1h"

	aliceID = "0190a3f0-0000-7000-8000-000000000001"
	bobID   = "0190a3f0-0000-7000-8000-000000000002"
)

type fakeAttendanceService struct {
	summary    attendance.Summary
	err        error
	atRisk     []attendance.AtRiskStudent
	lastID     string
	lastThresh float64
	lastFilter attendance.RecordFilter
	lastCreate attendance.CreateRecordRequest
	lastQuery  attendance.CalendarQuery
	deleted    []string
}

func (f *fakeAttendanceService) Analyze(ctx context.Context, req attendance.AnalyzeRequest) (attendance.AnalyticsReport, error) {
	return attendance.AnalyticsReport{Summary: f.summary}, f.err
}

func (f *fakeAttendanceService) GetDashboard(ctx context.Context, studentID string, threshold float64) (attendance.AnalyticsReport, error) {
	f.lastID, f.lastThresh = studentID, threshold
	return attendance.AnalyticsReport{StudentID: studentID, Summary: f.summary}, f.err
}

func (f *fakeAttendanceService) GetSummary(ctx context.Context, studentID string) (attendance.Summary, error) {
	f.lastID = studentID
	return f.summary, f.err
}

func (f *fakeAttendanceService) GetProjection(ctx context.Context, studentID string, threshold float64) (attendance.Projection, error) {
	f.lastID, f.lastThresh = studentID, threshold
	return attendance.Projection{Threshold: threshold}, f.err
}

func (f *fakeAttendanceService) GetSubjects(ctx context.Context, studentID string) ([]attendance.SubjectBreakdown, error) {
	f.lastID = studentID
	return []attendance.SubjectBreakdown{}, f.err
}

func (f *fakeAttendanceService) GetMonthlyTrend(ctx context.Context, studentID string) ([]attendance.MonthlyBucket, error) {
	f.lastID = studentID
	return []attendance.MonthlyBucket{}, f.err
}

func (f *fakeAttendanceService) GetDailyTrend(ctx context.Context, studentID string) ([]attendance.DailyBucket, error) {
	f.lastID = studentID
	return []attendance.DailyBucket{}, f.err
}

func (f *fakeAttendanceService) GetCalendar(ctx context.Context, studentID string, query attendance.CalendarQuery) (attendance.CalendarMonthView, error) {
	f.lastID, f.lastQuery = studentID, query
	return attendance.CalendarMonthView{Year: query.Year, Month: query.Month}, f.err
}

func (f *fakeAttendanceService) ListRecords(ctx context.Context, studentID string, filter attendance.RecordFilter) (attendance.ListRecordsResponse, error) {
	f.lastID, f.lastFilter = studentID, filter
	return attendance.ListRecordsResponse{Showing: "0 of 0", Records: []attendance.RecordResponse{}}, f.err
}

func (f *fakeAttendanceService) CreateRecord(ctx context.Context, req attendance.CreateRecordRequest) (attendance.RecordResponse, error) {
	f.lastCreate = req
	return attendance.RecordResponse{ID: "rec-1", StudentID: req.StudentID, Subject: req.Subject}, f.err
}

func (f *fakeAttendanceService) DeleteRecord(ctx context.Context, studentID string, recordID string) error {
	f.deleted = append(f.deleted, studentID+"/"+recordID)
	return f.err
}

func (f *fakeAttendanceService) ScanAtRisk(ctx context.Context) ([]attendance.AtRiskStudent, error) {
	return f.atRisk, f.err
}

type routerFixture struct {
	svc    *fakeAttendanceService
	jwt    jwt.Service
	hub    *sse.Hub
	router *chi.Mux
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	cfg := &config.Config{
		App:  config.AppConfig{Name: "campus-attendance-test", Env: "test", LogLevel: "error"},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	svc := &fakeAttendanceService{summary: attendance.Summary{TotalClasses: 10, PresentClasses: 8, AbsentClasses: 2, AttendancePercentage: 80, Status: attendance.StatusGood}}
	jwtService := jwt.NewJWTService(handlerTestSecret, handlerTestAccessExp)
	hub := sse.NewHub()

	router := NewRouter(cfg, jwtService, NewAttendanceHandler(svc), NewAnalyticsHandler(svc, jwtService, hub, attendance.DefaultThreshold))
	return &routerFixture{svc: svc, jwt: jwtService, hub: hub, router: router}
}

func (f *routerFixture) token(t *testing.T, principal user.Principal) string {
	t.Helper()
	token, _, err := f.jwt.GenerateAccessToken(principal)
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body []byte) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var payload map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func studentPrincipal(id string) user.Principal {
	return user.Principal{UserID: "user-" + id, Role: user.RoleStudent, StudentID: &id}
}

func staffPrincipal() user.Principal {
	return user.Principal{UserID: "staff-1", Role: user.RoleStaff}
}

func summaryPath(id string) string {
	return "/api/v1/students/" + id + "/attendance/summary"
}

// ===== AUTHENTICATION TESTS =====

func TestRouter_MissingToken(t *testing.T) {
	f := newRouterFixture(t)

	rec, payload := f.do(t, http.MethodGet, summaryPath(aliceID), "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, payload["success"])
}

func TestRouter_StreamTokenRejectedAsAccessToken(t *testing.T) {
	f := newRouterFixture(t)
	streamToken, _, err := f.jwt.GenerateStreamToken(staffPrincipal())
	require.NoError(t, err)

	rec, _ := f.do(t, http.MethodGet, summaryPath(aliceID), streamToken, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_Heartbeat(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

// ===== SCOPE TESTS =====

func TestRouter_StudentReadsOwnSummary(t *testing.T) {
	f := newRouterFixture(t)

	rec, payload := f.do(t, http.MethodGet, summaryPath(aliceID), f.token(t, studentPrincipal(aliceID)), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["success"])
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, float64(80), data["attendance_percentage"])
	assert.Equal(t, "good", data["status"])
	assert.Equal(t, aliceID, f.svc.lastID)
}

func TestRouter_StudentCannotReadOtherStudent(t *testing.T) {
	f := newRouterFixture(t)

	rec, _ := f.do(t, http.MethodGet, summaryPath(bobID), f.token(t, studentPrincipal(aliceID)), nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, f.svc.lastID)
}

func TestRouter_StaffReadsAnyStudent(t *testing.T) {
	f := newRouterFixture(t)

	rec, _ := f.do(t, http.MethodGet, summaryPath(bobID), f.token(t, staffPrincipal()), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, bobID, f.svc.lastID)
}

func TestRouter_StudentCannotManageRecords(t *testing.T) {
	f := newRouterFixture(t)
	body := []byte(`{"date":"2024-01-10","subject":"Math","present":true}`)

	rec, _ := f.do(t, http.MethodPost, "/api/v1/students/"+aliceID+"/attendance/records", f.token(t, studentPrincipal(aliceID)), body)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, f.svc.lastCreate.StudentID)
}

func TestRouter_StudentCannotScanAtRisk(t *testing.T) {
	f := newRouterFixture(t)

	rec, _ := f.do(t, http.MethodGet, "/api/v1/analytics/at-risk", f.token(t, studentPrincipal(aliceID)), nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// ===== DASHBOARD TESTS =====

func TestGetMyDashboard_UsesStudentClaim(t *testing.T) {
	f := newRouterFixture(t)

	rec, payload := f.do(t, http.MethodGet, "/api/v1/me/attendance/dashboard?threshold=0.8", f.token(t, studentPrincipal(aliceID)), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, aliceID, f.svc.lastID)
	assert.Equal(t, 0.8, f.svc.lastThresh)
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, aliceID, data["student_id"])
}

func TestGetMyDashboard_StaffWithoutStudentClaim(t *testing.T) {
	f := newRouterFixture(t)

	rec, _ := f.do(t, http.MethodGet, "/api/v1/me/attendance/dashboard", f.token(t, staffPrincipal()), nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetDashboard_DefaultThreshold(t *testing.T) {
	f := newRouterFixture(t)

	rec, _ := f.do(t, http.MethodGet, "/api/v1/students/"+aliceID+"/attendance/dashboard", f.token(t, staffPrincipal()), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), f.svc.lastThresh)
}

func TestGetProjection_ThresholdErrors(t *testing.T) {
	f := newRouterFixture(t)
	token := f.token(t, staffPrincipal())
	base := "/api/v1/students/" + aliceID + "/attendance/projection"

	rec, payload := f.do(t, http.MethodGet, base+"?threshold=abc", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, false, payload["success"])

	rec, _ = f.do(t, http.MethodGet, base+"?threshold=1.5", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, payload = f.do(t, http.MethodGet, base+"?threshold=0.9", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, 0.9, data["threshold"])
}

func TestGetSummary_ServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"student not found", student.ErrStudentNotFound, http.StatusNotFound},
		{"invalid student id", student.ErrInvalidStudentID, http.StatusBadRequest},
		{"invalid argument", attendance.ErrInvalidMonth, http.StatusBadRequest},
		{"projection out of range", attendance.ErrProjectionOverflow, http.StatusBadRequest},
		{"unexpected", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t)
			f.svc.err = tt.err

			rec, _ := f.do(t, http.MethodGet, summaryPath(aliceID), f.token(t, staffPrincipal()), nil)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestTrendAndSubjectRoutes(t *testing.T) {
	f := newRouterFixture(t)
	token := f.token(t, studentPrincipal(aliceID))

	for _, path := range []string{"subjects", "trend/monthly", "trend/daily"} {
		rec, payload := f.do(t, http.MethodGet, "/api/v1/students/"+aliceID+"/attendance/"+path, token, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, true, payload["success"], path)
	}
}

// ===== CALENDAR TESTS =====

func TestGetCalendar_ParsesQuery(t *testing.T) {
	f := newRouterFixture(t)

	rec, _ := f.do(t, http.MethodGet, "/api/v1/students/"+aliceID+"/attendance/calendar?year=2024&month=2", f.token(t, staffPrincipal()), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, attendance.CalendarQuery{Year: 2024, Month: 2}, f.svc.lastQuery)
}

func TestGetCalendar_NonNumericQuery(t *testing.T) {
	f := newRouterFixture(t)

	rec, payload := f.do(t, http.MethodGet, "/api/v1/students/"+aliceID+"/attendance/calendar?year=abc&month=x", f.token(t, staffPrincipal()), nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errDetail := payload["error"].(map[string]interface{})
	details := errDetail["details"].(map[string]interface{})
	assert.Contains(t, details, "year")
	assert.Contains(t, details, "month")
}

// ===== RECORD TESTS =====

func TestListRecords_ParsesFilter(t *testing.T) {
	f := newRouterFixture(t)
	path := "/api/v1/students/" + aliceID + "/attendance/records?subject=Math&status=absent&start_date=2024-01-01&end_date=2024-01-31&search=lab&page=2&limit=5&sort_by=subject&sort_order=desc"

	rec, _ := f.do(t, http.MethodGet, path, f.token(t, staffPrincipal()), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	filter := f.svc.lastFilter
	require.NotNil(t, filter.Subject)
	assert.Equal(t, "Math", *filter.Subject)
	assert.Equal(t, "absent", *filter.Status)
	assert.Equal(t, "2024-01-01", *filter.StartDate)
	assert.Equal(t, "2024-01-31", *filter.EndDate)
	assert.Equal(t, "lab", *filter.Search)
	assert.Equal(t, 2, filter.Page)
	assert.Equal(t, 5, filter.Limit)
	assert.Equal(t, "subject", filter.SortBy)
	assert.Equal(t, "desc", filter.SortOrder)
}

func TestCreateRecord_TakesStudentFromPath(t *testing.T) {
	f := newRouterFixture(t)
	body := []byte(`{"date":"2024-01-10","subject":"Math","present":true,"student_id":"ignored"}`)

	rec, payload := f.do(t, http.MethodPost, "/api/v1/students/"+aliceID+"/attendance/records", f.token(t, staffPrincipal()), body)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, aliceID, f.svc.lastCreate.StudentID)
	assert.Equal(t, "Math", f.svc.lastCreate.Subject)
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, "rec-1", data["id"])
}

func TestCreateRecord_InvalidJSON(t *testing.T) {
	f := newRouterFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/api/v1/students/"+aliceID+"/attendance/records", f.token(t, staffPrincipal()), []byte(`{"date":`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteRecord(t *testing.T) {
	f := newRouterFixture(t)
	path := "/api/v1/students/" + aliceID + "/attendance/records/rec-1"

	rec, _ := f.do(t, http.MethodDelete, path, f.token(t, staffPrincipal()), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{aliceID + "/rec-1"}, f.svc.deleted)

	f.svc.err = attendance.ErrRecordNotFound
	rec, _ = f.do(t, http.MethodDelete, path, f.token(t, staffPrincipal()), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ===== ANALYTICS TESTS =====

func TestCompute_StudentAllowed(t *testing.T) {
	f := newRouterFixture(t)
	body := []byte(`{"records":[{"date":"2024-01-10","subject":"Math","present":true}]}`)

	rec, payload := f.do(t, http.MethodPost, "/api/v1/analytics/compute", f.token(t, studentPrincipal(aliceID)), body)

	require.Equal(t, http.StatusOK, rec.Code)
	data := payload["data"].(map[string]interface{})
	summary := data["summary"].(map[string]interface{})
	assert.Equal(t, float64(10), summary["total_classes"])
}

func TestCompute_BodyTooLarge(t *testing.T) {
	f := newRouterFixture(t)
	var body bytes.Buffer
	body.WriteString(`{"records":[],"padding":"`)
	body.Write(bytes.Repeat([]byte("a"), maxComputeBodyBytes+1))
	body.WriteString(`"}`)

	rec, _ := f.do(t, http.MethodPost, "/api/v1/analytics/compute", f.token(t, staffPrincipal()), body.Bytes())

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAtRisk_StaffListsStudents(t *testing.T) {
	f := newRouterFixture(t)
	f.svc.atRisk = []attendance.AtRiskStudent{
		{StudentID: bobID, FullName: "Bob", RollNumber: "CS-002", ClassesNeeded: 10},
	}

	rec, payload := f.do(t, http.MethodGet, "/api/v1/analytics/at-risk", f.token(t, staffPrincipal()), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["count"])
	assert.Equal(t, attendance.DefaultThreshold, data["threshold"])
	students := data["students"].([]interface{})
	assert.Equal(t, bobID, students[0].(map[string]interface{})["student_id"])
}

// ===== STREAM TESTS =====

func TestGetStreamToken(t *testing.T) {
	f := newRouterFixture(t)

	rec, payload := f.do(t, http.MethodGet, "/api/v1/stream-token", f.token(t, studentPrincipal(aliceID)), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, float64(300), data["expires_in"])

	principal, err := f.jwt.ValidateStreamToken(data["token"].(string))
	require.NoError(t, err)
	require.NotNil(t, principal.StudentID)
	assert.Equal(t, aliceID, *principal.StudentID)
}

func TestStream_RequiresStreamToken(t *testing.T) {
	f := newRouterFixture(t)

	rec, _ := f.do(t, http.MethodGet, "/api/v1/me/attendance/stream", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	accessToken := f.token(t, studentPrincipal(aliceID))
	rec, _ = f.do(t, http.MethodGet, "/api/v1/me/attendance/stream?token="+accessToken, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStreamAtRisk_StudentForbidden(t *testing.T) {
	f := newRouterFixture(t)
	streamToken, _, err := f.jwt.GenerateStreamToken(studentPrincipal(aliceID))
	require.NoError(t, err)

	rec, _ := f.do(t, http.MethodGet, "/api/v1/analytics/at-risk/stream?token="+streamToken, "", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStreamMine_DeliversEvents(t *testing.T) {
	f := newRouterFixture(t)
	handler := NewAnalyticsHandler(f.svc, f.jwt, f.hub, attendance.DefaultThreshold)
	server := httptest.NewServer(http.HandlerFunc(handler.StreamMine))
	defer server.Close()

	streamToken, _, err := f.jwt.GenerateStreamToken(studentPrincipal(aliceID))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"?token="+streamToken, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	require.Eventually(t, func() bool {
		return f.hub.SubscriberCount(sse.StudentTopic(aliceID)) == 1
	}, time.Second, 10*time.Millisecond)

	f.hub.Publish(sse.StudentTopic(aliceID), sse.Event{Event: "attendance.at_risk", Data: map[string]int{"classes_needed": 3}})

	var eventLine, dataLine string
	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: attendance.at_risk") {
			eventLine = line
			dataLine, err = reader.ReadString('\n')
			require.NoError(t, err)
			break
		}
	}
	assert.Equal(t, "event: attendance.at_risk\n", eventLine)
	assert.Equal(t, "data: {\"classes_needed\":3}\n", dataLine)
}
