// Package v1 명령어 API의 v1 버전 라우트를 정의하고 설정합니다.
//
// /api/v1 경로 하위의 엔드포인트를 관리하며, 관리자 명령어 실행을 위한
// RESTful API를 제공합니다. 모든 엔드포인트는 애플리케이션 인증(app_key)을
// 요구합니다.
package v1

import (
	"github.com/darkkaiser/checkin-server/internal/service/api/v1/handler"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes Echo 인스턴스에 v1 API 라우트를 설정합니다.
//
// 등록되는 엔드포인트:
//   - POST /api/v1/commands - 관리자 명령어 실행
func RegisterRoutes(e *echo.Echo, h *handler.Handler) {
	v1Group := e.Group("/api/v1")

	v1Group.POST("/commands", h.ExecuteCommandHandler)
}
