package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/student"
	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/campus-attendance-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// ===== ENVELOPE TESTS =====

func TestSuccessResponses(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]int{"total": 3})

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Message)
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]interface{}{"total": float64(3)}, resp.Data)

	rec = httptest.NewRecorder()
	Created(rec, "created", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	resp = decode(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "created", resp.Message)
	assert.Nil(t, resp.Data)
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		code   string
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "bad", nil) }, http.StatusBadRequest, CodeBadRequest},
		{"validation", func(w http.ResponseWriter) { ValidationError(w, map[string]string{"page": "bad"}) }, http.StatusUnprocessableEntity, CodeValidation},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "no") }, http.StatusUnauthorized, CodeUnauthorized},
		{"forbidden", func(w http.ResponseWriter) { Forbidden(w, "no") }, http.StatusForbidden, CodeForbidden},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "gone") }, http.StatusNotFound, CodeNotFound},
		{"too large", func(w http.ResponseWriter) { PayloadTooLarge(w, "big") }, http.StatusRequestEntityTooLarge, CodePayloadTooLarge},
		{"internal", func(w http.ResponseWriter) { InternalServerError(w, "oops") }, http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			assert.Equal(t, tt.status, rec.Code)
			resp := decode(t, rec)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestWriteJSON_EncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, make(chan int))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInternal, resp.Error.Code)
}

// ===== HANDLE ERROR TESTS =====

func TestHandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", validator.ValidationErrors{{Field: "threshold", Message: "bad"}}, http.StatusUnprocessableEntity, CodeValidation},
		{"token type", jwt.ErrInvalidTokenType, http.StatusUnauthorized, CodeUnauthorized},
		{"scope", user.ErrStudentScopeViolation, http.StatusForbidden, CodeForbidden},
		{"student id", student.ErrInvalidStudentID, http.StatusBadRequest, CodeBadRequest},
		{"student missing", fmt.Errorf("load: %w", student.ErrStudentNotFound), http.StatusNotFound, CodeNotFound},
		{"record missing", attendance.ErrRecordNotFound, http.StatusNotFound, CodeNotFound},
		{"projection overflow", attendance.ErrProjectionOverflow, http.StatusBadRequest, CodeBadRequest},
		{"unexpected", assert.AnError, http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			resp := decode(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}
