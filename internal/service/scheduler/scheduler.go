// Package scheduler 설정된 시각에 하루 한 번 전체 그룹 출석을 수행하는 서비스를 제공합니다.
package scheduler

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/darkkaiser/checkin-server/internal/pkg/errors"
	"github.com/darkkaiser/checkin-server/internal/service/contract"
	applog "github.com/darkkaiser/checkin-server/pkg/log"
)

// component Scheduler 서비스의 로깅용 컴포넌트 이름
const component = "scheduler.service"

// defaultCheckInterval 발송 시각 도래 여부를 재확인하는 기본 주기입니다.
const defaultCheckInterval = time.Minute

// Scheduler 매일 설정된 시각에 화이트리스트의 모든 그룹에 출석을 수행하는 서비스입니다.
//
// Cron 엔진 대신 벽시계 기준의 명시적 대기 루프를 사용합니다. 대기는 재확인 주기
// 이하의 짧은 구간으로 쪼개어 수행되므로, 시스템 시계가 조정되거나(NTP, DST 등)
// 절전에서 복귀한 경우에도 다음 재확인 시점에 스스로 보정됩니다. 시계가 목표
// 시각을 건너뛴 경우에는 보정 발송을 정확히 한 번만 수행하며, 놓친 여러 날을
// 한꺼번에 몰아서 발송하지 않습니다.
type Scheduler struct {
	store  contract.WhitelistStore
	runner contract.CheckInRunner

	// reporter 정기 출석 결과 보고 대상 (SetReporter로 주입, nil이면 보고 생략)
	reporter   contract.SweepReporter
	reporterMu sync.Mutex

	checkInterval time.Duration

	// nowFunc 현재 시각 조회 함수 (테스트 시 교체)
	nowFunc func() time.Time

	running bool
	// paused 관리자 명령어로 일시중지된 상태 (수신 루프는 유지되며 발송만 건너뜀)
	paused    bool
	runningMu sync.Mutex

	// next 다음 발송 목표 시각 (Status 조회용)
	next   time.Time
	nextMu sync.Mutex
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ contract.ScheduleController = (*Scheduler)(nil)

// NewService 새로운 Scheduler 서비스 인스턴스를 생성합니다.
//
// checkInterval이 0 이하이면 기본 주기(1분)를 사용합니다.
func NewService(store contract.WhitelistStore, runner contract.CheckInRunner, checkInterval time.Duration) *Scheduler {
	if store == nil {
		panic("WhitelistStore는 필수입니다")
	}
	if runner == nil {
		panic("CheckInRunner는 필수입니다")
	}

	if checkInterval <= 0 {
		checkInterval = defaultCheckInterval
	}

	return &Scheduler{
		store:  store,
		runner: runner,

		checkInterval: checkInterval,

		nowFunc: time.Now,
	}
}

// SetReporter 정기 출석 결과를 보고할 대상을 설정합니다.
//
// 보고 대상이 되는 서비스가 명령어 계층을 통해 스케줄러를 역참조하므로,
// 순환 참조를 피하기 위해 생성 시점이 아닌 설정 주입 방식을 사용합니다.
// nil이면 보고를 생략합니다.
func (s *Scheduler) SetReporter(reporter contract.SweepReporter) {
	s.reporterMu.Lock()
	s.reporter = reporter
	s.reporterMu.Unlock()
}

// Start 스케줄러 서비스를 시작합니다.
//
// 매개변수:
//   - serviceStopCtx: 서비스 종료 신호를 받기 위한 Context
//   - serviceStopWG: 서비스 종료 완료를 알리기 위한 WaitGroup
func (s *Scheduler) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("서비스 시작 진입: Scheduler 서비스 초기화 프로세스를 시작합니다")

	if s.store == nil {
		serviceStopWG.Done()
		return ErrWhitelistStoreNotInitialized
	}
	if s.runner == nil {
		serviceStopWG.Done()
		return ErrCheckInRunnerNotInitialized
	}

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("Scheduler 서비스가 이미 실행 중입니다 (중복 호출)")
		return nil
	}

	s.running = true
	s.paused = false

	hour, minute := s.store.ReminderTime()
	applog.WithComponentAndFields(component, applog.Fields{
		"reminder_time":  time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC).Format("15:04"),
		"check_interval": s.checkInterval,
	}).Info("서비스 시작 완료: Scheduler 서비스가 정상적으로 초기화되었습니다")

	// 발송 루프와 종료 신호 처리를 전담하는 고루틴.
	// 종료 시그널 수신 시 루프가 반환된 후 Stop()으로 상태를 정리하고 그 결과를 보장합니다.
	go func() {
		defer serviceStopWG.Done()

		s.run(serviceStopCtx)

		s.Stop()
	}()

	return nil
}

// Stop 실행 중인 스케줄러를 중지 상태로 전환합니다.
func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return
	}

	applog.WithComponent(component).Info("종료 절차 진입: Scheduler 서비스 중지 시그널을 수신했습니다")

	s.running = false

	applog.WithComponent(component).Info("Scheduler 서비스 종료 완료: 모든 리소스가 정리되었습니다")
}

// Pause 정기 출석 발송을 일시중지합니다. 수신 루프는 유지되며 발송만 건너뜁니다.
func (s *Scheduler) Pause() error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return apperrors.New(apperrors.Unavailable, "정기 출석 스케줄러가 실행 중이 아닙니다")
	}
	if s.paused {
		return apperrors.New(apperrors.Conflict, "정기 출석이 이미 중지되어 있습니다")
	}

	s.paused = true

	applog.WithComponent(component).Info("정기 출석 발송이 일시중지되었습니다")

	return nil
}

// Resume 일시중지된 정기 출석 발송을 재개합니다.
// 일시중지 중에 지나간 발송 시각으로는 보정 발송하지 않습니다.
func (s *Scheduler) Resume() error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return apperrors.New(apperrors.Unavailable, "정기 출석 스케줄러가 실행 중이 아닙니다")
	}
	if !s.paused {
		return apperrors.New(apperrors.Conflict, "정기 출석이 이미 가동 중입니다")
	}

	s.paused = false

	applog.WithComponent(component).Info("정기 출석 발송이 재개되었습니다")

	return nil
}

func (s *Scheduler) isPaused() bool {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	return s.paused
}

// Status 정기 출석의 가동 여부와 다음 발송 예정 시각을 반환합니다.
// 일시중지된 상태에서는 가동 여부가 false로 보고됩니다.
func (s *Scheduler) Status() (bool, time.Time) {
	s.runningMu.Lock()
	running := s.running && !s.paused
	s.runningMu.Unlock()

	s.nextMu.Lock()
	next := s.next
	s.nextMu.Unlock()

	return running, next
}

func (s *Scheduler) setNext(next time.Time) {
	s.nextMu.Lock()
	s.next = next
	s.nextMu.Unlock()
}

// run 발송 루프의 본체입니다. serviceStopCtx가 취소될 때까지 반환하지 않습니다.
//
// 매 주기마다 벽시계를 다시 읽어 다음 목표 시각과의 차이를 재계산하므로,
// 장시간 대기 중의 시계 변동이 누적 오차로 이어지지 않습니다.
func (s *Scheduler) run(serviceStopCtx context.Context) {
	hour, minute := s.store.ReminderTime()

	// 기동 시점에 이미 지나간 당일 목표 시각으로는 발송하지 않는다.
	next := nextFireTime(s.nowFunc(), hour, minute)
	s.setNext(next)

	applog.WithComponentAndFields(component, applog.Fields{
		"next": next.Format("2006-01-02 15:04:05"),
	}).Info("다음 출석 발송 시각이 결정되었습니다")

	for {
		hour, minute = s.store.ReminderTime()
		now := s.nowFunc()

		if s.isPaused() {
			// 일시중지 중에는 발송하지 않는다. 목표 시각이 지나가더라도 다음 목표를
			// 계속 현재 시각 이후로 유지하여, 재개 시 보정 발송이 일어나지 않도록 한다.
			if candidate := nextFireTime(now, hour, minute); !candidate.Equal(next) {
				next = candidate
				s.setNext(next)
			}
		} else if !now.Before(next) {
			// 목표 시각 도래. 발송 시각 설정이 그 사이 변경되었다면 지나간 목표는
			// 발송 없이 폐기한다. 시계가 목표를 건너뛴 경우에도 이 경로로 정확히
			// 한 번만 보정 발송되며, 다음 목표는 항상 현재 시각 이후로 재계산된다.
			if next.Hour() == hour && next.Minute() == minute {
				s.fire(serviceStopCtx)
			}

			next = nextFireTime(s.nowFunc(), hour, minute)
			s.setNext(next)

			applog.WithComponentAndFields(component, applog.Fields{
				"next": next.Format("2006-01-02 15:04:05"),
			}).Info("다음 출석 발송 시각이 결정되었습니다")
		} else if candidate := nextFireTime(now, hour, minute); !candidate.Equal(next) {
			// 발송 시각 변경 또는 시계 역행으로 재계산된 목표가 달라지면 교체한다.
			// 목표가 더 늦어진 경우에도 교체하여 지나간 설정으로 발송하지 않는다.
			next = candidate
			s.setNext(next)
		}

		// 목표 시각까지 남은 시간만큼 대기하되, 시계 변동을 주기적으로 감지할 수
		// 있도록 한 번의 대기는 재확인 주기를 넘지 않는다.
		wait := next.Sub(s.nowFunc())
		if wait > s.checkInterval {
			wait = s.checkInterval
		}
		if wait < 0 {
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-serviceStopCtx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// fire 화이트리스트의 모든 그룹에 출석을 수행하고 결과를 보고합니다.
// 출석 수행의 실패는 로깅과 보고로 처리될 뿐 발송 루프를 중단시키지 않습니다.
func (s *Scheduler) fire(serviceStopCtx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"panic": r,
			}).Error("출석 수행 중 패닉이 복구되었습니다")
		}
	}()

	groups := s.store.ListGroups()

	applog.WithComponentAndFields(component, applog.Fields{
		"groups": len(groups),
	}).Info("정기 출석 발송을 시작합니다")

	results := s.runner.RunSweep(serviceStopCtx, groups)

	s.reporterMu.Lock()
	reporter := s.reporter
	s.reporterMu.Unlock()

	if reporter != nil {
		reporter.ReportSweep(serviceStopCtx, results)
	}
}

// nextFireTime now 이후에 도래하는 가장 가까운 발송 목표 시각을 반환합니다.
//
// 오늘의 hour:minute이 now보다 엄격히 이후이면 오늘, 그렇지 않으면 내일입니다.
// 목표 시각이 now와 정확히 일치하는 경우는 이미 지난 것으로 취급합니다.
func nextFireTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
