// Package handler 명령어 API v1 버전의 요청 핸들러를 제공합니다.
package handler

import (
	"net/http"
	"strings"

	apperrors "github.com/darkkaiser/checkin-server/internal/pkg/errors"
	"github.com/darkkaiser/checkin-server/internal/service/api/auth"
	"github.com/darkkaiser/checkin-server/internal/service/api/httputil"
	"github.com/darkkaiser/checkin-server/internal/service/contract"
	applog "github.com/darkkaiser/checkin-server/pkg/log"
	"github.com/labstack/echo/v4"
)

// component v1 핸들러의 로깅용 컴포넌트 이름
const component = "api.handler.v1"

// App Key 전달 방식
const (
	headerAppKey     = "X-App-Key"
	queryParamAppKey = "app_key"
)

// CommandRequest 명령어 실행 요청 형식
type CommandRequest struct {
	ApplicationID string `json:"application_id"`
	UserID        string `json:"user_id"`
	Command       string `json:"command"`
}

// CommandResponse 명령어 실행 성공 응답 형식
type CommandResponse struct {
	Message string `json:"message"`
}

// Handler 명령어 API v1 요청을 처리하는 핸들러입니다.
type Handler struct {
	executor      contract.CommandExecutor
	authenticator *auth.Authenticator
}

// NewHandler Handler 인스턴스를 생성합니다.
func NewHandler(executor contract.CommandExecutor, authenticator *auth.Authenticator) *Handler {
	if executor == nil {
		panic("CommandExecutor는 필수입니다")
	}
	if authenticator == nil {
		panic("Authenticator는 필수입니다")
	}

	return &Handler{
		executor:      executor,
		authenticator: authenticator,
	}
}

// ExecuteCommandHandler 관리자 명령어 실행 요청을 처리합니다.
//
// 처리 순서는 요청 바인딩 → 입력 검증 → 애플리케이션 인증 → 명령어 실행이며,
// 명령어 실행 결과의 에러 타입에 따라 HTTP 상태 코드가 결정됩니다.
// 호출자의 관리자 권한 검사는 명령어 계층에서 수행됩니다.
func (h *Handler) ExecuteCommandHandler(c echo.Context) error {
	// 1. 요청 바인딩
	req := new(CommandRequest)
	if err := c.Bind(req); err != nil {
		return httputil.NewBadRequestError("잘못된 요청 형식입니다")
	}

	// 2. 입력 검증
	if strings.TrimSpace(req.ApplicationID) == "" {
		return httputil.NewBadRequestError("application_id는 필수 항목입니다")
	}
	if strings.TrimSpace(req.UserID) == "" {
		return httputil.NewBadRequestError("user_id는 필수 항목입니다")
	}
	if strings.TrimSpace(req.Command) == "" {
		return httputil.NewBadRequestError("command는 필수 항목입니다")
	}

	// 3. App Key 추출 (헤더 우선, 쿼리 파라미터 폴백)
	appKey := c.Request().Header.Get(headerAppKey)
	if appKey == "" {
		appKey = c.QueryParam(queryParamAppKey)
	}
	if appKey == "" {
		return httputil.NewBadRequestError("app_key는 필수 항목입니다")
	}

	// 4. 애플리케이션 인증
	app, err := h.authenticator.Authenticate(req.ApplicationID, appKey)
	if err != nil {
		return err
	}

	// 5. 명령어 실행
	message, err := h.executor.Execute(c.Request().Context(), req.UserID, req.Command)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"application_id": app.ID,
			"user_id":        req.UserID,
			"command":        req.Command,
			"error":          err,
		}).Warn("명령어 실행이 실패로 응답되었습니다")

		return httputil.NewHTTPError(statusFromError(err), message)
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"application_id": app.ID,
		"user_id":        req.UserID,
		"command":        req.Command,
	}).Info("명령어 실행 요청 성공")

	// 6. 성공 응답
	return c.JSON(http.StatusOK, CommandResponse{Message: message})
}

// statusFromError 명령어 실행 에러의 타입을 HTTP 상태 코드로 변환합니다.
func statusFromError(err error) int {
	switch {
	case apperrors.Is(err, apperrors.InvalidInput):
		return http.StatusBadRequest
	case apperrors.Is(err, apperrors.Unauthorized):
		return http.StatusUnauthorized
	case apperrors.Is(err, apperrors.Forbidden):
		return http.StatusForbidden
	case apperrors.Is(err, apperrors.NotFound):
		return http.StatusNotFound
	case apperrors.Is(err, apperrors.Conflict):
		return http.StatusConflict
	case apperrors.Is(err, apperrors.ExecutionFailed):
		return http.StatusBadGateway
	case apperrors.Is(err, apperrors.Timeout):
		return http.StatusGatewayTimeout
	case apperrors.Is(err, apperrors.Unavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
