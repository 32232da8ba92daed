// Package contract 서비스 간의 의존성을 끊기 위한 공용 인터페이스와 값 객체를 정의합니다.
//
// 각 서비스는 다른 서비스의 구현체가 아닌 이 패키지의 인터페이스에 의존하며,
// 이를 통해 순환 참조를 방지하고 테스트 시 Mock 주입을 용이하게 합니다.
package contract

import "context"

// CheckInSender 채팅 클라이언트 제어 API를 통해 단일 그룹에 출석 메시지를 발송하는 인터페이스입니다.
type CheckInSender interface {
	// SendCheckIn 지정된 그룹에 출석 메시지를 발송합니다.
	//
	// 호출 한 번은 정확히 한 번의 원격 API 호출에 대응하며, 재시도하지 않습니다.
	// 실패 시 에러 타입으로 원인을 구분할 수 있습니다.
	// (Unauthorized: 토큰 거부, ExecutionFailed: 원격 거부, Timeout/System: 통신 장애)
	SendCheckIn(ctx context.Context, groupID, message string) error
}

// CheckInRunner 여러 그룹에 대한 출석 발송을 순서대로 수행하는 인터페이스입니다.
type CheckInRunner interface {
	// RunSweep 전달된 모든 그룹에 순서대로 출석 메시지를 발송하고, 입력 순서와
	// 동일한 순서로 그룹별 결과를 반환합니다. 개별 그룹의 실패는 수집될 뿐
	// 전체 수행을 중단시키지 않습니다.
	RunSweep(ctx context.Context, groups []string) []CheckInResult
}

// CheckInResult 단일 그룹에 대한 출석 발송 결과입니다.
type CheckInResult struct {
	GroupID string
	Err     error
}

// Succeeded 출석 발송 성공 여부를 반환합니다.
func (r CheckInResult) Succeeded() bool {
	return r.Err == nil
}

// SweepReporter 정기 출석 수행 결과를 관리자 채널로 보고하는 인터페이스입니다.
type SweepReporter interface {
	// ReportSweep 그룹별 출석 결과 요약을 관리자에게 전달합니다.
	// 보고 실패는 내부에서 로깅으로 처리되며 호출자에게 전파되지 않습니다.
	ReportSweep(ctx context.Context, results []CheckInResult)
}
