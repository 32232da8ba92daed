// Package command 관리자 명령어의 해석, 권한 검사, 실행을 담당합니다.
package command

import (
	"strings"

	apperrors "github.com/darkkaiser/checkin-server/internal/pkg/errors"
)

// Keyword 모든 관리자 명령어가 시작하는 키워드입니다.
const Keyword = "groupsign"

// 지원하는 명령어 동사 목록
const (
	verbListGroups  = "list_groups"
	verbAddGroup    = "add_group"
	verbRemoveGroup = "remove_group"
	verbExecute     = "execute"
	verbStartTask   = "start_task"
	verbStopTask    = "stop_task"
	verbStatus      = "status"
)

// usageText 사용자에게 안내하는 명령어 사용법입니다.
const usageText = `사용법: groupsign <명령어> [인자]

  list_groups           등록된 출석 그룹 목록 조회
  add_group <그룹ID>    출석 그룹 등록
  remove_group <그룹ID> 출석 그룹 제거
  execute <그룹ID>      해당 그룹에 즉시 출석 수행
  start_task            정기 출석 발송 시작
  stop_task             정기 출석 발송 중지
  status                정기 출석 스케줄 상태 조회`

// Usage 명령어 사용법 안내 문자열을 반환합니다.
func Usage() string {
	return usageText
}

// parsedCommand 해석이 완료된 명령어입니다.
type parsedCommand struct {
	verb string
	arg  string
}

// parseCommandLine 명령어 문자열을 해석하여 parsedCommand로 변환합니다.
//
// 명령어는 "groupsign <동사> [인자]" 형식이어야 하며, 알 수 없는 동사,
// 누락된 인자, 불필요한 인자는 모두 InvalidInput 에러로 거부됩니다.
func parseCommandLine(line string) (parsedCommand, error) {
	fields := strings.Fields(strings.TrimSpace(line))

	if len(fields) == 0 || fields[0] != Keyword {
		return parsedCommand{}, apperrors.Newf(apperrors.InvalidInput, "알 수 없는 명령어입니다: '%s'", line)
	}

	if len(fields) < 2 {
		return parsedCommand{}, apperrors.New(apperrors.InvalidInput, "명령어 동사가 누락되었습니다")
	}

	verb := fields[1]
	args := fields[2:]

	switch verb {
	case verbListGroups, verbStartTask, verbStopTask, verbStatus:
		if len(args) != 0 {
			return parsedCommand{}, apperrors.Newf(apperrors.InvalidInput, "%s 명령어는 인자를 받지 않습니다", verb)
		}
		return parsedCommand{verb: verb}, nil

	case verbAddGroup, verbRemoveGroup, verbExecute:
		if len(args) != 1 {
			return parsedCommand{}, apperrors.Newf(apperrors.InvalidInput, "%s 명령어는 그룹 ID 인자가 하나 필요합니다", verb)
		}
		return parsedCommand{verb: verb, arg: args[0]}, nil

	default:
		return parsedCommand{}, apperrors.Newf(apperrors.InvalidInput, "알 수 없는 명령어 동사입니다: '%s'", verb)
	}
}
