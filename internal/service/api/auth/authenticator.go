// Package auth 명령어 API를 호출하는 클라이언트 애플리케이션의 인증을 담당합니다.
package auth

import (
	"fmt"

	"github.com/darkkaiser/checkin-server/internal/config"
	"github.com/darkkaiser/checkin-server/internal/service/api/httputil"
	applog "github.com/darkkaiser/checkin-server/pkg/log"
	"github.com/darkkaiser/checkin-server/pkg/strutil"
)

// component 인증자의 로깅용 컴포넌트 이름
const component = "api.auth"

// Authenticator 애플리케이션 인증을 담당하는 인증자입니다.
//
// 설정 파일에서 등록된 애플리케이션 정보를 메모리에 로드한 후, Application ID와
// App Key의 조합으로 인증을 수행합니다. 초기화 이후 읽기 전용이므로 여러
// 고루틴에서 동시에 Authenticate를 호출해도 안전합니다.
type Authenticator struct {
	applications map[string]config.ApplicationConfig
}

// NewAuthenticator 설정에서 애플리케이션을 로드하여 Authenticator를 생성합니다.
func NewAuthenticator(appConfig *config.AppConfig) *Authenticator {
	applications := make(map[string]config.ApplicationConfig, len(appConfig.CommandAPI.Applications))
	for _, application := range appConfig.CommandAPI.Applications {
		applications[application.ID] = application
	}

	return &Authenticator{
		applications: applications,
	}
}

// Authenticate 애플리케이션을 찾고 인증을 수행합니다.
// 성공 시 Application 설정을 반환하고, 실패 시 401 에러를 반환합니다.
func (a *Authenticator) Authenticate(applicationID, appKey string) (config.ApplicationConfig, error) {
	app, ok := a.applications[applicationID]
	if !ok {
		return config.ApplicationConfig{}, httputil.NewUnauthorizedError(fmt.Sprintf("접근이 허용되지 않은 application_id(%s)입니다", applicationID))
	}

	if app.AppKey != appKey {
		applog.WithComponentAndFields(component, applog.Fields{
			"application_id":   applicationID,
			"received_app_key": strutil.Mask(appKey),
		}).Warn("APP_KEY 불일치")

		return config.ApplicationConfig{}, httputil.NewUnauthorizedError(fmt.Sprintf("app_key가 유효하지 않습니다 (application_id: %s)", applicationID))
	}

	return app, nil
}
