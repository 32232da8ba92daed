package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/darkkaiser/checkin-server/internal/config"
	apperrors "github.com/darkkaiser/checkin-server/internal/pkg/errors"
	"github.com/darkkaiser/checkin-server/internal/service/api/auth"
	"github.com/darkkaiser/checkin-server/internal/service/api/httputil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExecutor 고정된 응답을 반환하는 테스트용 CommandExecutor입니다.
type stubExecutor struct {
	callers []string
	lines   []string

	message string
	err     error
}

func (e *stubExecutor) Execute(_ context.Context, callerID, commandLine string) (string, error) {
	e.callers = append(e.callers, callerID)
	e.lines = append(e.lines, commandLine)
	return e.message, e.err
}

func newTestAuthenticator() *auth.Authenticator {
	return auth.NewAuthenticator(&config.AppConfig{
		CommandAPI: config.CommandAPIConfig{
			Applications: []config.ApplicationConfig{
				{ID: "admin-console", Title: "관리자 콘솔", AppKey: "test-app-key"},
			},
		},
	})
}

// doRequest 핸들러가 등록된 Echo 서버로 요청을 보내고 응답을 반환합니다.
func doRequest(t *testing.T, executor *stubExecutor, body string, configure func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.HTTPErrorHandler = httputil.ErrorHandler
	e.POST("/api/v1/commands", NewHandler(executor, newTestAuthenticator()).ExecuteCommandHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(headerAppKey, "test-app-key")
	if configure != nil {
		configure(req)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func validBody() string {
	return `{"application_id":"admin-console","user_id":"777","command":"groupsign list_groups"}`
}

func TestExecuteCommandHandler_Success(t *testing.T) {
	executor := &stubExecutor{message: "등록된 출석 그룹이 없습니다"}

	rec := doRequest(t, executor, validBody(), nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CommandResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "등록된 출석 그룹이 없습니다", resp.Message)

	// 요청 본문의 user_id와 command가 그대로 명령어 계층에 전달된다.
	require.Len(t, executor.callers, 1)
	assert.Equal(t, "777", executor.callers[0])
	assert.Equal(t, "groupsign list_groups", executor.lines[0])
}

func TestExecuteCommandHandler_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"MalformedJSON", `{invalid`, "잘못된 요청 형식입니다"},
		{"MissingApplicationID", `{"user_id":"777","command":"groupsign status"}`, "application_id"},
		{"MissingUserID", `{"application_id":"admin-console","command":"groupsign status"}`, "user_id"},
		{"MissingCommand", `{"application_id":"admin-console","user_id":"777"}`, "command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := &stubExecutor{}
			rec := doRequest(t, executor, tt.body, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.Empty(t, executor.callers)
		})
	}
}

func TestExecuteCommandHandler_Authentication(t *testing.T) {
	t.Run("MissingAppKey", func(t *testing.T) {
		executor := &stubExecutor{}
		rec := doRequest(t, executor, validBody(), func(req *http.Request) {
			req.Header.Del(headerAppKey)
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, executor.callers)
	})

	t.Run("WrongAppKey", func(t *testing.T) {
		executor := &stubExecutor{}
		rec := doRequest(t, executor, validBody(), func(req *http.Request) {
			req.Header.Set(headerAppKey, "wrong-key")
		})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, executor.callers)
	})

	t.Run("UnknownApplication", func(t *testing.T) {
		executor := &stubExecutor{}
		body := `{"application_id":"unknown-app","user_id":"777","command":"groupsign status"}`
		rec := doRequest(t, executor, body, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, executor.callers)
	})

	t.Run("QueryParamFallback", func(t *testing.T) {
		executor := &stubExecutor{message: "완료"}

		e := echo.New()
		e.HTTPErrorHandler = httputil.ErrorHandler
		e.POST("/api/v1/commands", NewHandler(executor, newTestAuthenticator()).ExecuteCommandHandler)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/commands?app_key=test-app-key", strings.NewReader(validBody()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestExecuteCommandHandler_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"InvalidInput", apperrors.New(apperrors.InvalidInput, "알 수 없는 명령어입니다"), http.StatusBadRequest},
		{"Unauthorized", apperrors.New(apperrors.Unauthorized, "접근 토큰이 거부되었습니다"), http.StatusUnauthorized},
		{"Forbidden", apperrors.New(apperrors.Forbidden, "사용자(777)는 관리자가 아닙니다"), http.StatusForbidden},
		{"NotFound", apperrors.New(apperrors.NotFound, "그룹(999999)은 등록되어 있지 않습니다"), http.StatusNotFound},
		{"Conflict", apperrors.New(apperrors.Conflict, "그룹(123456)은 이미 등록되어 있습니다"), http.StatusConflict},
		{"ExecutionFailed", apperrors.New(apperrors.ExecutionFailed, "제어 API가 출석 요청을 거부했습니다"), http.StatusBadGateway},
		{"Timeout", apperrors.New(apperrors.Timeout, "제어 API 응답이 지연되었습니다"), http.StatusGatewayTimeout},
		{"Internal", apperrors.New(apperrors.Internal, "명령어 처리 중 패닉이 발생했습니다"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := &stubExecutor{message: "사용자에게 보여줄 메시지", err: tt.err}
			rec := doRequest(t, executor, validBody(), nil)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp httputil.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.ResultCode)
			assert.Equal(t, "사용자에게 보여줄 메시지", resp.Message)
		})
	}
}
