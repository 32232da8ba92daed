package contract

import (
	"context"
	"time"
)

// CommandExecutor 관리자 명령어를 해석하고 실행하는 인터페이스입니다.
// 텔레그램 봇, REST API와 같은 프론트는 이 인터페이스를 통해 명령어를 위임합니다.
type CommandExecutor interface {
	// Execute 명령어 문자열을 해석하여 실행하고, 사용자에게 그대로 보여줄 수 있는
	// 응답 메시지를 반환합니다.
	//
	// 실패 시에도 사용자용 응답 메시지는 항상 반환되며, 에러는 실패 원인의
	// 분류(Forbidden, InvalidInput, Conflict, NotFound 등)를 담습니다.
	Execute(ctx context.Context, callerID, commandLine string) (string, error)
}

// ScheduleStatusProvider 정기 출석 스케줄의 현재 상태를 조회하는 인터페이스입니다.
type ScheduleStatusProvider interface {
	// Status 정기 출석의 가동 여부와 다음 발송 예정 시각을 반환합니다.
	// 일시중지된 상태에서는 가동 여부가 false로 보고됩니다.
	Status() (running bool, next time.Time)
}

// ScheduleController 정기 출석 스케줄의 상태 조회와 일시중지/재개를 제어하는 인터페이스입니다.
type ScheduleController interface {
	ScheduleStatusProvider

	// Pause 정기 출석 발송을 일시중지합니다.
	// 이미 중지된 상태면 Conflict, 스케줄러가 실행 중이 아니면 Unavailable 에러를 반환합니다.
	Pause() error

	// Resume 일시중지된 정기 출석 발송을 재개합니다. 일시중지 중에 지나간 발송
	// 시각으로는 보정 발송하지 않습니다.
	// 이미 가동 중이면 Conflict, 스케줄러가 실행 중이 아니면 Unavailable 에러를 반환합니다.
	Resume() error
}
