// Package service 애플리케이션을 구성하는 장기 실행 서비스들의 공통 생명주기를 정의합니다.
package service

import (
	"context"
	"sync"
)

// Service 애플리케이션에서 실행되는 장기 실행 서비스의 공통 인터페이스입니다.
//
// 모든 서비스는 Start 호출 시 serviceStopWG.Add(1)이 선행된 상태로 기동되며,
// serviceStopCtx가 취소되면 내부 리소스를 정리한 후 serviceStopWG.Done()을 호출해야 합니다.
type Service interface {
	Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error
}
