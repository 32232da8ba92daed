package contract

// WhitelistStore 출석 대상 그룹 화이트리스트와 관리자 권한 정보를 관리하는 인터페이스입니다.
//
// 모든 변경 연산은 반환 전에 상태 파일에 영속화되며, 영속화에 실패한 변경은
// 메모리 상태에서도 롤백됩니다.
type WhitelistStore interface {
	// ListGroups 등록된 그룹 ID 목록의 복사본을 등록 순서대로 반환합니다.
	ListGroups() []string

	// AddGroup 그룹을 화이트리스트에 추가합니다.
	// 이미 등록된 그룹이면 Conflict, 형식이 올바르지 않으면 InvalidInput,
	// 영속화에 실패하면 System 에러를 반환합니다.
	AddGroup(id string) error

	// RemoveGroup 그룹을 화이트리스트에서 제거합니다.
	// 등록되지 않은 그룹이면 NotFound, 영속화에 실패하면 System 에러를 반환합니다.
	RemoveGroup(id string) error

	// ContainsGroup 그룹이 화이트리스트에 등록되어 있는지 확인합니다.
	ContainsGroup(id string) bool

	// IsAdmin 사용자가 관리자 권한을 가지고 있는지 확인합니다.
	IsAdmin(userID string) bool

	// ReminderTime 출석 메시지 발송 시각을 반환합니다. (24시간제)
	ReminderTime() (hour, minute int)

	// Message 출석 시 그룹에 발송되는 메시지를 반환합니다.
	Message() string
}
