package whitelist

import "slices"

// State 화이트리스트 서비스가 영속화하는 전체 상태입니다.
//
// 최초 실행 시 설정 파일의 값으로 초기화되며, 이후에는 상태 파일의 내용이
// 설정 파일보다 우선합니다. 모든 변경은 상태 파일에 반영된 후에야 확정됩니다.
type State struct {
	// Groups 출석 메시지 발송 대상 그룹 ID 목록 (등록 순서 유지)
	Groups []string `json:"groups"`

	// AdminUsers 화이트리스트 변경 권한을 가진 사용자 ID 목록
	AdminUsers []string `json:"admin_users"`

	// ReminderTime 출석 메시지 발송 시각 (24시간제 HH:MM)
	ReminderTime string `json:"reminder_time"`

	// Message 출석 시 그룹에 발송되는 메시지
	Message string `json:"message"`
}

// clone 상태의 깊은 복사본을 반환합니다.
func (s State) clone() State {
	return State{
		Groups:       slices.Clone(s.Groups),
		AdminUsers:   slices.Clone(s.AdminUsers),
		ReminderTime: s.ReminderTime,
		Message:      s.Message,
	}
}
