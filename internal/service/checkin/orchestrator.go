package checkin

import (
	"context"
	"time"

	apperrors "github.com/darkkaiser/checkin-server/internal/pkg/errors"
	"github.com/darkkaiser/checkin-server/internal/service/contract"
	applog "github.com/darkkaiser/checkin-server/pkg/log"
	"golang.org/x/time/rate"
)

// orchestratorComponent 출석 수행 오케스트레이터의 로깅용 컴포넌트 이름
const orchestratorComponent = "checkin.orchestrator"

// DefaultSendPace 연속된 그룹 출석 발송 사이의 기본 간격입니다.
// 제어 API에 과도한 요청이 몰리는 것을 방지합니다.
const DefaultSendPace = 2 * time.Second

// MessageSource 출석 시 발송할 메시지를 제공하는 인터페이스입니다.
type MessageSource interface {
	Message() string
}

// Orchestrator 여러 그룹에 대한 출석 발송을 순서대로 수행하는 contract.CheckInRunner 구현체입니다.
//
// 그룹들은 전달된 순서 그대로 처리되며, 개별 그룹의 실패는 수집될 뿐 전체 수행을
// 중단시키지 않습니다. 연속된 발송 사이에는 rate.Limiter로 간격을 둡니다.
type Orchestrator struct {
	sender  contract.CheckInSender
	message MessageSource
	limiter *rate.Limiter
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ contract.CheckInRunner = (*Orchestrator)(nil)

// NewOrchestrator 출석 수행 오케스트레이터를 생성합니다.
// pace가 0 이하이면 기본 간격(DefaultSendPace)을 사용합니다.
func NewOrchestrator(sender contract.CheckInSender, message MessageSource, pace time.Duration) *Orchestrator {
	if sender == nil {
		panic("CheckInSender는 필수입니다")
	}
	if message == nil {
		panic("MessageSource는 필수입니다")
	}

	if pace <= 0 {
		pace = DefaultSendPace
	}

	return &Orchestrator{
		sender:  sender,
		message: message,
		limiter: rate.NewLimiter(rate.Every(pace), 1),
	}
}

// RunSweep 전달된 모든 그룹에 순서대로 출석 메시지를 발송합니다.
//
// 반환되는 결과는 입력 그룹과 동일한 순서이며, 그룹마다 정확히 하나의 결과를
// 포함합니다. 컨텍스트가 취소되면 남은 그룹들은 발송 시도 없이 실패로 기록됩니다.
func (o *Orchestrator) RunSweep(ctx context.Context, groups []string) []contract.CheckInResult {
	if len(groups) == 0 {
		applog.WithComponent(orchestratorComponent).Debug("출석 대상 그룹이 없어 수행을 건너뜁니다")
		return nil
	}

	message := o.message.Message()
	results := make([]contract.CheckInResult, 0, len(groups))

	applog.WithComponentAndFields(orchestratorComponent, applog.Fields{
		"groups": len(groups),
	}).Info("출석 발송 시작")

	for _, groupID := range groups {
		if err := o.limiter.Wait(ctx); err != nil {
			results = append(results, contract.CheckInResult{
				GroupID: groupID,
				Err:     apperrors.Wrap(err, apperrors.System, "출석 발송이 중단되었습니다"),
			})
			continue
		}

		err := o.sender.SendCheckIn(ctx, groupID, message)
		if err != nil {
			applog.WithComponentAndFields(orchestratorComponent, applog.Fields{
				"group_id": groupID,
				"error":    err,
			}).Error("그룹 출석 발송 실패")
		} else {
			applog.WithComponentAndFields(orchestratorComponent, applog.Fields{
				"group_id": groupID,
			}).Info("그룹 출석 발송 성공")
		}

		results = append(results, contract.CheckInResult{
			GroupID: groupID,
			Err:     err,
		})
	}

	succeeded := 0
	for _, r := range results {
		if r.Succeeded() {
			succeeded++
		}
	}

	applog.WithComponentAndFields(orchestratorComponent, applog.Fields{
		"groups":    len(groups),
		"succeeded": succeeded,
		"failed":    len(groups) - succeeded,
	}).Info("출석 발송 완료")

	return results
}
