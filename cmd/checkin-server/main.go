package main

import (
	"context"
	"runtime"

	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/darkkaiser/checkin-server/internal/config"
	"github.com/darkkaiser/checkin-server/internal/pkg/version"
	"github.com/darkkaiser/checkin-server/internal/service"
	"github.com/darkkaiser/checkin-server/internal/service/api"
	"github.com/darkkaiser/checkin-server/internal/service/checkin"
	"github.com/darkkaiser/checkin-server/internal/service/command"
	"github.com/darkkaiser/checkin-server/internal/service/scheduler"
	"github.com/darkkaiser/checkin-server/internal/service/telegram"
	"github.com/darkkaiser/checkin-server/internal/service/whitelist"
	applog "github.com/darkkaiser/checkin-server/pkg/log"
	log "github.com/sirupsen/logrus"
)

// 빌드 정보 변수 (Dockerfile의 ldflags로 주입됨)
var (
	Version     = "dev"     // Git 커밋 해시
	BuildDate   = "unknown" // 빌드 날짜
	BuildNumber = "0"       // 빌드 번호
)

const (
	banner = `
  ____  _                  _     ___           ____
 / ___|| |__    ___   ___ | | __|_ _| _ __    / ___|   ___  _ __ __   __  ___  _ __
| |    | '_ \  / _ \ / __|| |/ / | | | '_ \   \___ \  / _ \| '__|\ \ / / / _ \| '__|
| |___ | | | ||  __/| (__ |   <  | | | | | |   ___) ||  __/| |    \ V / |  __/| |
 \____||_| |_| \___| \___||_|\_\|___||_| |_|  |____/  \___||_|     \_/   \___||_|
                                                              %s
                                                        developed by DarkKaiser
--------------------------------------------------------------------------------
`
)

func main() {
	// 1. 환경설정 로드 (로그 설정에 필요하므로 가장 먼저 수행한다)
	appConfig, err := config.Load()
	if err != nil {
		// 로거 초기화 전이므로 표준 에러에 출력
		fmt.Fprintf(os.Stderr, "[FATAL] 환경설정 로드 실패: %v\n", err)
		os.Exit(1)
	}

	// 2. 로그 시스템 초기화
	var logOpts applog.Options
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentOptions(config.AppName)
	} else {
		logOpts = applog.NewProductionOptions(config.AppName)
	}

	appLogCloser, err := applog.Setup(logOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] 로그 시스템 초기화 실패. 서버 구동을 중단합니다. (Cause: %v)\n", err)
		os.Exit(1)
	}
	defer appLogCloser.Close()

	// 3. 로그 레벨 최종 확정
	applog.SetDebugMode(appConfig.Debug)

	// 아스키아트 출력(https://ko.rakko.tools/tools/68/, 폰트:standard)
	fmt.Printf(banner, Version)

	// 빌드 정보 설정 (전역 싱글톤 등록)
	buildInfo := version.Info{
		Version:     Version,
		BuildDate:   BuildDate,
		BuildNumber: BuildNumber,
		GoVersion:   runtime.Version(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
	}
	version.Set(buildInfo)

	// 빌드 정보 출력
	applog.WithComponentAndFields("main", log.Fields{
		"version": buildInfo.String(),
		"env":     map[bool]string{true: "development", false: "production"}[appConfig.Debug],
	}).Info("서버 초기화 시작")

	// 설정 권고사항 점검 결과를 경고로 남긴다. (구동은 계속한다)
	for _, warning := range appConfig.VerifyRecommendations() {
		applog.WithComponent("main").Warn(warning)
	}

	// 서비스를 생성하고 초기화한다.
	whitelistStore, err := whitelist.NewStore(appConfig)
	if err != nil {
		applog.WithComponentAndFields("main", log.Fields{
			"error": err,
		}).Error("출석 그룹 상태 파일 로드 실패")

		log.Fatal("출석 그룹 상태 파일 로드 실패로 프로그램을 종료합니다")
	}

	checkInClient := checkin.NewClient(appConfig.API)
	orchestrator := checkin.NewOrchestrator(checkInClient, whitelistStore, checkin.DefaultSendPace)
	schedulerService := scheduler.NewService(whitelistStore, orchestrator, appConfig.Sign.CheckInterval)
	dispatcher := command.NewDispatcher(whitelistStore, orchestrator, schedulerService)

	services := []service.Service{schedulerService}

	if appConfig.Telegram.Enabled {
		telegramService, err := telegram.NewService(appConfig, dispatcher)
		if err != nil {
			applog.WithComponentAndFields("main", log.Fields{
				"error": err,
			}).Error("Telegram 서비스 생성 실패")

			log.Fatal("Telegram 서비스 생성 실패로 프로그램을 종료합니다")
		}

		// 정기 출석 결과를 관리자 채팅방으로 보고한다.
		schedulerService.SetReporter(telegramService)

		services = append(services, telegramService)
	} else {
		applog.WithComponent("main").Warn("Telegram 연동이 비활성화되어 있습니다. 관리자 명령어는 REST API로만 처리됩니다")
	}

	apiService := api.NewService(appConfig, dispatcher, schedulerService, buildInfo)
	services = append(services, apiService)

	// Set up cancellation context and waitgroup
	serviceStopCtx, cancel := context.WithCancel(context.Background())
	serviceStopWG := &sync.WaitGroup{}

	// 서비스를 시작한다.
	for _, s := range services {
		serviceStopWG.Add(1)
		if err := s.Start(serviceStopCtx, serviceStopWG); err != nil {
			applog.WithComponentAndFields("main", log.Fields{
				"error": err,
			}).Error("서비스 초기화 실패")

			cancel() // 다른 서비스들도 종료
			serviceStopWG.Wait()

			log.Fatal("서비스 초기화 실패로 프로그램을 종료합니다")
		}
	}

	// Handle sigterm and await termC signal
	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)

	applog.WithComponent("main").Info("서버 가동 완료")

	<-termC // Blocks here until interrupted

	// Handle shutdown
	applog.WithComponent("main").Info("Shutdown signal received")
	cancel()             // Signal cancellation to context.Context
	serviceStopWG.Wait() // Block here until are workers are done
}
