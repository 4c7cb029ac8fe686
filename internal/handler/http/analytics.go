package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/campus-attendance-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/campus-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/sse"
)

// maxComputeBodyBytes bounds POST /analytics/compute bodies.
const maxComputeBodyBytes = 4 << 20

const streamKeepalive = 30 * time.Second

type AnalyticsHandler interface {
	Compute(w http.ResponseWriter, r *http.Request)
	AtRisk(w http.ResponseWriter, r *http.Request)

	// SSE
	GetStreamToken(w http.ResponseWriter, r *http.Request)
	StreamAtRisk(w http.ResponseWriter, r *http.Request)
	StreamMine(w http.ResponseWriter, r *http.Request)
}

type StreamTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

type AtRiskResponse struct {
	Threshold float64                    `json:"threshold"`
	Count     int                        `json:"count"`
	Students  []attendance.AtRiskStudent `json:"students"`
}

type analyticsHandlerImpl struct {
	attendanceService attendance.AttendanceService
	jwtService        jwt.Service
	hub               *sse.Hub
	threshold         float64
}

func NewAnalyticsHandler(attendanceService attendance.AttendanceService, jwtService jwt.Service, hub *sse.Hub, threshold float64) AnalyticsHandler {
	return &analyticsHandlerImpl{
		attendanceService: attendanceService,
		jwtService:        jwtService,
		hub:               hub,
		threshold:         threshold,
	}
}

// Compute implements AnalyticsHandler.
func (h *analyticsHandlerImpl) Compute(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxComputeBodyBytes)

	var req attendance.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.PayloadTooLarge(w, "Request body too large")
			return
		}
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.Analyze(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// AtRisk implements AnalyticsHandler.
func (h *analyticsHandlerImpl) AtRisk(w http.ResponseWriter, r *http.Request) {
	students, err := h.attendanceService.ScanAtRisk(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, AtRiskResponse{
		Threshold: h.threshold,
		Count:     len(students),
		Students:  students,
	})
}

// GetStreamToken generates a short-lived token for SSE connections
func (h *analyticsHandlerImpl) GetStreamToken(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	token, expiresIn, err := h.jwtService.GenerateStreamToken(principal)
	if err != nil {
		slog.Error("Failed to generate stream token", "user_id", principal.UserID, "error", err)
		response.InternalServerError(w, "Failed to generate stream token")
		return
	}

	response.Success(w, StreamTokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// StreamAtRisk streams at-risk events to staff dashboards
func (h *analyticsHandlerImpl) StreamAtRisk(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.authenticateStream(w, r)
	if !ok {
		return
	}

	if !principal.IsStaff() {
		response.HandleError(w, user.ErrStaffAccessRequired)
		return
	}

	h.stream(w, r, sse.TopicStaff)
}

// StreamMine streams a student's own attendance alerts
func (h *analyticsHandlerImpl) StreamMine(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.authenticateStream(w, r)
	if !ok {
		return
	}

	if principal.StudentID == nil {
		response.HandleError(w, user.ErrStudentIDClaimMissing)
		return
	}

	h.stream(w, r, sse.StudentTopic(*principal.StudentID))
}

// authenticateStream validates the token query parameter (SSE doesn't support custom headers)
func (h *analyticsHandlerImpl) authenticateStream(w http.ResponseWriter, r *http.Request) (user.Principal, bool) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return user.Principal{}, false
	}

	principal, err := h.jwtService.ValidateStreamToken(tokenStr)
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return user.Principal{}, false
	}

	return principal, true
}

func (h *analyticsHandlerImpl) stream(w http.ResponseWriter, r *http.Request, topic string) {
	// Check if streaming is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(topic)
	defer cleanup()
	slog.Debug("Stream client connected", "topic", topic, "open_streams", h.hub.TotalSubscribers())

	// Send initial connection event
	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"topic\":%q}\n\n", topic)
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Warn("Failed to encode stream event", "event", event.Event, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
