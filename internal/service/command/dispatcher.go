package command

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/darkkaiser/checkin-server/internal/pkg/errors"
	"github.com/darkkaiser/checkin-server/internal/service/contract"
	applog "github.com/darkkaiser/checkin-server/pkg/log"
)

// component 명령어 디스패처의 로깅용 컴포넌트 이름
const component = "command.dispatcher"

// Dispatcher 관리자 명령어를 해석하고 실행하는 contract.CommandExecutor 구현체입니다.
//
// 모든 명령어는 권한 검사를 가장 먼저 통과해야 하며, 권한이 없는 호출자는
// 어떠한 상태 변경이나 원격 호출도 유발할 수 없습니다.
type Dispatcher struct {
	store    contract.WhitelistStore
	runner   contract.CheckInRunner
	schedule contract.ScheduleController
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ contract.CommandExecutor = (*Dispatcher)(nil)

// NewDispatcher 명령어 디스패처를 생성합니다.
func NewDispatcher(store contract.WhitelistStore, runner contract.CheckInRunner, schedule contract.ScheduleController) *Dispatcher {
	if store == nil {
		panic("WhitelistStore는 필수입니다")
	}
	if runner == nil {
		panic("CheckInRunner는 필수입니다")
	}
	if schedule == nil {
		panic("ScheduleController는 필수입니다")
	}

	return &Dispatcher{
		store:    store,
		runner:   runner,
		schedule: schedule,
	}
}

// Execute 명령어 문자열을 해석하여 실행하고, 사용자에게 보여줄 응답 메시지를 반환합니다.
//
// 처리 순서는 권한 검사 → 명령어 해석 → 실행이며, 권한이 없는 호출자에게는
// 명령어 해석조차 수행하지 않습니다. 실행 중 발생한 패닉은 복구되어
// Internal 에러로 변환되므로 호출한 프론트를 중단시키지 않습니다.
func (d *Dispatcher) Execute(ctx context.Context, callerID, commandLine string) (message string, err error) {
	defer func() {
		if r := recover(); r != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"caller_id": callerID,
				"command":   commandLine,
				"panic":     r,
			}).Error("명령어 처리 중 패닉이 복구되었습니다")

			message = "명령어 처리 중 내부 오류가 발생했습니다"
			err = apperrors.Newf(apperrors.Internal, "명령어 처리 중 패닉이 발생했습니다: %v", r)
		}
	}()

	// 권한 검사를 가장 먼저 수행한다. 권한이 없는 호출자는 상태 변경도, 원격 호출도 유발할 수 없다.
	if !d.store.IsAdmin(callerID) {
		applog.WithComponentAndFields(component, applog.Fields{
			"caller_id": callerID,
			"command":   commandLine,
		}).Warn("권한 없는 사용자의 명령어 시도가 거부되었습니다")

		return "이 명령어를 사용할 권한이 없습니다", apperrors.Newf(apperrors.Forbidden, "사용자(%s)는 관리자가 아닙니다", callerID)
	}

	cmd, err := parseCommandLine(commandLine)
	if err != nil {
		return userMessage(err) + "\n\n" + usageText, err
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"caller_id": callerID,
		"verb":      cmd.verb,
		"arg":       cmd.arg,
	}).Info("명령어 실행")

	switch cmd.verb {
	case verbListGroups:
		return d.listGroups(), nil
	case verbAddGroup:
		return d.addGroup(cmd.arg)
	case verbRemoveGroup:
		return d.removeGroup(cmd.arg)
	case verbExecute:
		return d.executeCheckIn(ctx, cmd.arg)
	case verbStartTask:
		return d.startTask()
	case verbStopTask:
		return d.stopTask()
	case verbStatus:
		return d.status(), nil
	default:
		// parseCommandLine에서 걸러지므로 도달할 수 없다.
		return "", apperrors.Newf(apperrors.Internal, "처리되지 않은 명령어 동사입니다: '%s'", cmd.verb)
	}
}

func (d *Dispatcher) listGroups() string {
	groups := d.store.ListGroups()
	if len(groups) == 0 {
		return "등록된 출석 그룹이 없습니다"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "등록된 출석 그룹 (%d개)", len(groups))
	for _, id := range groups {
		sb.WriteString("\n- ")
		sb.WriteString(id)
	}
	return sb.String()
}

func (d *Dispatcher) addGroup(id string) (string, error) {
	if err := d.store.AddGroup(id); err != nil {
		return userMessage(err), err
	}
	return fmt.Sprintf("그룹(%s)을 출석 목록에 등록했습니다", id), nil
}

func (d *Dispatcher) removeGroup(id string) (string, error) {
	if err := d.store.RemoveGroup(id); err != nil {
		return userMessage(err), err
	}
	return fmt.Sprintf("그룹(%s)을 출석 목록에서 제거했습니다", id), nil
}

// executeCheckIn 지정된 그룹에 즉시 출석을 수행합니다.
// 화이트리스트에 등록되지 않은 그룹에 대한 출석은 거부됩니다.
func (d *Dispatcher) executeCheckIn(ctx context.Context, id string) (string, error) {
	if !d.store.ContainsGroup(id) {
		err := apperrors.Newf(apperrors.NotFound, "그룹(%s)은 등록되어 있지 않습니다. 먼저 add_group 명령어로 등록하세요", id)
		return userMessage(err), err
	}

	results := d.runner.RunSweep(ctx, []string{id})
	if len(results) == 0 {
		err := apperrors.Newf(apperrors.Internal, "그룹(%s) 출석 수행 결과가 반환되지 않았습니다", id)
		return userMessage(err), err
	}

	result := results[0]
	if !result.Succeeded() {
		return fmt.Sprintf("그룹(%s) 출석에 실패했습니다: %s", id, userMessage(result.Err)), result.Err
	}

	return fmt.Sprintf("그룹(%s) 출석을 완료했습니다", id), nil
}

// startTask 일시중지된 정기 출석 발송을 재개합니다.
func (d *Dispatcher) startTask() (string, error) {
	if err := d.schedule.Resume(); err != nil {
		return userMessage(err), err
	}
	return "정기 출석 발송을 시작했습니다", nil
}

// stopTask 정기 출석 발송을 일시중지합니다. 등록된 그룹 목록은 그대로 유지됩니다.
func (d *Dispatcher) stopTask() (string, error) {
	if err := d.schedule.Pause(); err != nil {
		return userMessage(err), err
	}
	return "정기 출석 발송을 중지했습니다. start_task 명령어로 다시 시작할 수 있습니다", nil
}

func (d *Dispatcher) status() string {
	running, next := d.schedule.Status()

	var sb strings.Builder
	if running {
		sb.WriteString("정기 출석: 가동 중")
		fmt.Fprintf(&sb, "\n다음 발송 예정: %s", next.Format("2006-01-02 15:04"))
	} else {
		sb.WriteString("정기 출석: 중지됨")
	}
	fmt.Fprintf(&sb, "\n등록된 그룹: %d개", len(d.store.ListGroups()))

	return sb.String()
}

// userMessage 에러에서 사용자에게 보여줄 메시지를 추출합니다.
// AppError의 메시지는 사용자 친화적으로 작성되므로 그대로 노출합니다.
func userMessage(err error) string {
	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		return appErr.Message()
	}
	return "명령어 처리 중 오류가 발생했습니다"
}
