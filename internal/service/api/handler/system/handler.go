// Package system 시스템 엔드포인트 핸들러를 제공합니다.
//
// 헬스체크, 버전 정보 등 인증이 필요 없는 시스템 수준의 API를 처리합니다.
package system

import (
	"net/http"
	"runtime"
	"time"

	"github.com/darkkaiser/checkin-server/internal/pkg/version"
	"github.com/darkkaiser/checkin-server/internal/service/contract"
	applog "github.com/darkkaiser/checkin-server/pkg/log"
	"github.com/labstack/echo/v4"
)

// component 시스템 핸들러의 로깅용 컴포넌트 이름
const component = "api.handler.system"

// 헬스체크 상태 값
const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
)

// HealthResponse 헬스체크 응답 형식
type HealthResponse struct {
	Status       string                      `json:"status"`
	Uptime       int64                       `json:"uptime"`
	Dependencies map[string]DependencyStatus `json:"dependencies"`
}

// DependencyStatus 개별 의존성의 상태 정보
type DependencyStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// VersionResponse 버전 정보 응답 형식
type VersionResponse struct {
	Version     string `json:"version"`
	BuildDate   string `json:"build_date"`
	BuildNumber string `json:"build_number"`
	GoVersion   string `json:"go_version"`
}

// Handler 시스템 엔드포인트 핸들러 (헬스체크, 버전 정보)
type Handler struct {
	schedule contract.ScheduleStatusProvider

	buildInfo version.Info

	serverStartTime time.Time
}

// NewHandler Handler 인스턴스를 생성합니다.
func NewHandler(schedule contract.ScheduleStatusProvider, buildInfo version.Info) *Handler {
	if schedule == nil {
		panic("ScheduleStatusProvider는 필수입니다")
	}

	return &Handler{
		schedule: schedule,

		buildInfo: buildInfo,

		serverStartTime: time.Now(),
	}
}

// HealthCheckHandler 서버와 정기 출석 스케줄러의 상태를 반환합니다.
// 인증 없이 호출 가능하며, 모니터링 시스템에서 사용됩니다.
func (h *Handler) HealthCheckHandler(c echo.Context) error {
	applog.WithComponentAndFields(component, applog.Fields{
		"endpoint":  "/health",
		"method":    c.Request().Method,
		"remote_ip": c.RealIP(),
	}).Debug("헬스체크 요청")

	uptime := int64(time.Since(h.serverStartTime).Seconds())

	deps := make(map[string]DependencyStatus)

	if running, next := h.schedule.Status(); running {
		deps["scheduler"] = DependencyStatus{
			Status:  healthStatusHealthy,
			Message: "다음 발송 예정: " + next.Format("2006-01-02 15:04"),
		}
	} else {
		deps["scheduler"] = DependencyStatus{
			Status:  healthStatusUnhealthy,
			Message: "정기 출석 스케줄러가 중지되어 있습니다",
		}
	}

	// 하나라도 unhealthy면 전체 상태를 unhealthy로 설정한다.
	serverStatus := healthStatusHealthy
	for _, dep := range deps {
		if dep.Status != healthStatusHealthy {
			serverStatus = healthStatusUnhealthy
			break
		}
	}

	return c.JSON(http.StatusOK, HealthResponse{
		Status:       serverStatus,
		Uptime:       uptime,
		Dependencies: deps,
	})
}

// VersionHandler 서버의 버전, 빌드 정보를 반환합니다.
func (h *Handler) VersionHandler(c echo.Context) error {
	applog.WithComponentAndFields(component, applog.Fields{
		"endpoint":  "/version",
		"method":    c.Request().Method,
		"remote_ip": c.RealIP(),
	}).Debug("버전 정보 요청")

	return c.JSON(http.StatusOK, VersionResponse{
		Version:     h.buildInfo.Version,
		BuildDate:   h.buildInfo.BuildDate,
		BuildNumber: h.buildInfo.BuildNumber,
		GoVersion:   runtime.Version(),
	})
}
