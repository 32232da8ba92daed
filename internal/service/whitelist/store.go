// Package whitelist 출석 대상 그룹 화이트리스트와 관리자 권한 정보를 관리합니다.
//
// 화이트리스트는 메모리에 보관되며, 모든 변경은 상태 파일에 영속화된 후에야
// 호출자에게 성공으로 보고됩니다. 영속화에 실패한 변경은 메모리에서도 롤백되어
// 메모리와 파일의 상태가 항상 일치합니다.
package whitelist

import (
	"slices"
	"sync"

	"github.com/darkkaiser/checkin-server/internal/config"
	apperrors "github.com/darkkaiser/checkin-server/internal/pkg/errors"
	"github.com/darkkaiser/checkin-server/internal/service/contract"
	applog "github.com/darkkaiser/checkin-server/pkg/log"
	"github.com/darkkaiser/checkin-server/pkg/validation"
)

// component 화이트리스트 저장소의 로깅용 컴포넌트 이름
const component = "whitelist.store"

// Store 화이트리스트 상태를 관리하는 contract.WhitelistStore 구현체입니다.
//
// 변경 연산은 뮤텍스로 직렬화되며, 조회 연산은 변경 도중의 중간 상태를
// 관찰하지 않습니다.
type Store struct {
	mu      sync.RWMutex
	state   State
	storage *fileStateStore
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ contract.WhitelistStore = (*Store)(nil)

// NewStore 상태 파일을 로드하여 화이트리스트 저장소를 생성합니다.
//
// 상태 파일이 존재하지 않는 최초 실행 시에는 설정 파일의 값으로 상태를 구성하여
// 즉시 영속화합니다. 이후 실행부터는 상태 파일의 내용이 설정 파일보다 우선합니다.
func NewStore(cfg *config.AppConfig) (*Store, error) {
	storage, err := newFileStateStore(cfg.Sign.StateDir, config.AppName)
	if err != nil {
		return nil, err
	}

	state, found, err := storage.Load()
	if err != nil {
		return nil, err
	}

	if !found {
		// 최초 실행: 설정 파일의 값으로 상태를 구성한다.
		state = State{
			Groups:       slices.Clone(cfg.Sign.Groups),
			AdminUsers:   slices.Clone(cfg.Permissions.AdminUsers),
			ReminderTime: cfg.Sign.ReminderTime,
			Message:      cfg.Sign.Message,
		}

		if err := storage.Save(state); err != nil {
			return nil, err
		}

		applog.WithComponentAndFields(component, applog.Fields{
			"groups":        len(state.Groups),
			"admin_users":   len(state.AdminUsers),
			"reminder_time": state.ReminderTime,
		}).Info("상태 파일이 없어 설정 파일의 값으로 초기 상태를 생성했습니다")
	} else {
		if err := validateState(state); err != nil {
			return nil, err
		}

		applog.WithComponentAndFields(component, applog.Fields{
			"groups":        len(state.Groups),
			"admin_users":   len(state.AdminUsers),
			"reminder_time": state.ReminderTime,
		}).Info("상태 파일 로드 완료")
	}

	return &Store{
		state:   state,
		storage: storage,
	}, nil
}

// validateState 상태 파일에서 로드된 상태의 정합성을 검증합니다.
// 외부에서 직접 수정된 상태 파일이 비정상적인 값을 담고 있을 수 있습니다.
func validateState(state State) error {
	if _, _, err := validation.ParseClockTime(state.ReminderTime); err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, "상태 파일의 출석 알림 시각(reminder_time)이 올바르지 않습니다")
	}

	for _, id := range state.Groups {
		if err := validation.ValidateGroupID(id); err != nil {
			return apperrors.Wrap(err, apperrors.InvalidInput, "상태 파일에 올바르지 않은 그룹 ID가 포함되어 있습니다")
		}
	}

	if len(state.AdminUsers) == 0 {
		return apperrors.New(apperrors.InvalidInput, "상태 파일의 관리자 사용자(admin_users) 목록이 비어있습니다")
	}

	return nil
}

// ListGroups 등록된 그룹 ID 목록의 복사본을 등록 순서대로 반환합니다.
func (s *Store) ListGroups() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.state.Groups)
}

// AddGroup 그룹을 화이트리스트에 추가하고 상태를 영속화합니다.
func (s *Store) AddGroup(id string) error {
	if err := validation.ValidateGroupID(id); err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, "그룹 등록 요청이 거부되었습니다")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.state.Groups, id) {
		return apperrors.Newf(apperrors.Conflict, "그룹(%s)은 이미 등록되어 있습니다", id)
	}

	prevGroups := s.state.Groups
	s.state.Groups = append(slices.Clone(s.state.Groups), id)

	if err := s.storage.Save(s.state.clone()); err != nil {
		// 영속화 실패 시 메모리 상태를 되돌려 파일과의 정합성을 유지한다.
		s.state.Groups = prevGroups
		return err
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"group_id": id,
		"groups":   len(s.state.Groups),
	}).Info("그룹 등록 완료")

	return nil
}

// RemoveGroup 그룹을 화이트리스트에서 제거하고 상태를 영속화합니다.
func (s *Store) RemoveGroup(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.Index(s.state.Groups, id)
	if idx == -1 {
		return apperrors.Newf(apperrors.NotFound, "그룹(%s)은 등록되어 있지 않습니다", id)
	}

	prevGroups := s.state.Groups
	s.state.Groups = slices.Delete(slices.Clone(s.state.Groups), idx, idx+1)

	if err := s.storage.Save(s.state.clone()); err != nil {
		// 영속화 실패 시 메모리 상태를 되돌려 파일과의 정합성을 유지한다.
		s.state.Groups = prevGroups
		return err
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"group_id": id,
		"groups":   len(s.state.Groups),
	}).Info("그룹 제거 완료")

	return nil
}

// ContainsGroup 그룹이 화이트리스트에 등록되어 있는지 확인합니다.
func (s *Store) ContainsGroup(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Contains(s.state.Groups, id)
}

// IsAdmin 사용자가 관리자 권한을 가지고 있는지 확인합니다.
func (s *Store) IsAdmin(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Contains(s.state.AdminUsers, userID)
}

// ReminderTime 출석 메시지 발송 시각을 반환합니다. (24시간제)
func (s *Store) ReminderTime() (hour, minute int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// 로드/저장 시점에 검증이 완료된 값이므로 파싱은 실패하지 않는다.
	hour, minute, _ = validation.ParseClockTime(s.state.ReminderTime)
	return hour, minute
}

// Message 출석 시 그룹에 발송되는 메시지를 반환합니다.
func (s *Store) Message() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.Message
}
