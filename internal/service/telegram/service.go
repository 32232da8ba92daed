package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/darkkaiser/checkin-server/internal/config"
	apperrors "github.com/darkkaiser/checkin-server/internal/pkg/errors"
	"github.com/darkkaiser/checkin-server/internal/service/command"
	"github.com/darkkaiser/checkin-server/internal/service/contract"
	applog "github.com/darkkaiser/checkin-server/pkg/log"
	"github.com/darkkaiser/checkin-server/pkg/strutil"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// Service 관리자 텔레그램 봇 서비스입니다.
//
// Long Polling으로 봇 명령어를 수신하여 CommandExecutor로 전달하고, 실행 결과를
// 같은 채팅방으로 회신합니다. 설정된 채팅방 이외에서 온 메시지는 모두 무시합니다.
// 또한 contract.SweepReporter를 구현하여 정기 출석 수행 결과를 관리자에게 보고합니다.
type Service struct {
	chatID int64

	client   botClient
	executor contract.CommandExecutor

	// summaryHeader 정기 출석 결과 보고 메시지의 머리말입니다.
	summaryHeader string

	// limiter 텔레그램 API 발송 속도를 제어하는 Rate Limiter입니다.
	limiter *rate.Limiter

	// commandSemaphore 명령어 처리 고루틴의 동시 실행 수를 제한하는 세마포어입니다.
	commandSemaphore chan struct{}

	running   bool
	runningMu sync.Mutex
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ contract.SweepReporter = (*Service)(nil)

// NewService 텔레그램 봇 API 클라이언트를 초기화하여 봇 서비스를 생성합니다.
func NewService(cfg *config.AppConfig, executor contract.CommandExecutor) (*Service, error) {
	applog.WithComponentAndFields(component, applog.Fields{
		"bot_token": strutil.Mask(cfg.Telegram.BotToken),
		"chat_id":   cfg.Telegram.ChatID,
	}).Debug("텔레그램 봇 API 클라이언트를 초기화합니다")

	// 기본 http.DefaultClient는 타임아웃이 없어 네트워크 장애 시 요청이 무한히
	// 대기할 수 있으므로, 명시적인 타임아웃을 가진 클라이언트를 주입합니다.
	httpClient := &http.Client{
		Timeout: defaultHTTPClientTimeout,
	}

	botAPI, err := tgbotapi.NewBotAPIWithClient(cfg.Telegram.BotToken, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, "텔레그램 봇 API 클라이언트 초기화에 실패했습니다. BotToken이 올바른지 확인해주세요")
	}

	botAPI.Debug = cfg.Debug

	return newServiceWithBot(&tgClient{BotAPI: botAPI}, cfg.Telegram.ChatID, cfg.Sign.Summary, executor), nil
}

// newServiceWithBot 외부에서 주입된 봇 클라이언트를 사용하여 봇 서비스를 생성합니다.
func newServiceWithBot(client botClient, chatID int64, summaryHeader string, executor contract.CommandExecutor) *Service {
	if summaryHeader == "" {
		summaryHeader = config.DefaultSignSummary
	}

	return &Service{
		chatID: chatID,

		client:   client,
		executor: executor,

		summaryHeader: summaryHeader,

		limiter: rate.NewLimiter(rate.Limit(sendRateLimit), 1),

		commandSemaphore: make(chan struct{}, commandExecutionLimit),
	}
}

// Start 텔레그램 봇 서비스를 시작합니다.
//
// 매개변수:
//   - serviceStopCtx: 서비스 종료 신호를 받기 위한 Context
//   - serviceStopWG: 서비스 종료 완료를 알리기 위한 WaitGroup
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("서비스 시작 진입: Telegram 봇 서비스 초기화 프로세스를 시작합니다")

	if s.client == nil {
		serviceStopWG.Done()
		return ErrBotClientNotInitialized
	}
	if s.executor == nil {
		serviceStopWG.Done()
		return ErrCommandExecutorNotInitialized
	}

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("Telegram 봇 서비스가 이미 실행 중입니다 (중복 호출)")
		return nil
	}

	s.running = true

	applog.WithComponentAndFields(component, applog.Fields{
		"bot_username": s.client.GetSelf().UserName,
		"chat_id":      s.chatID,
	}).Info("서비스 시작 완료: Telegram 봇 서비스가 정상적으로 초기화되었습니다")

	go func() {
		defer serviceStopWG.Done()

		s.run(serviceStopCtx)

		s.Stop()
	}()

	return nil
}

// Stop 실행 중인 텔레그램 봇 서비스를 중지 상태로 전환합니다.
func (s *Service) Stop() {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return
	}

	applog.WithComponent(component).Info("종료 절차 진입: Telegram 봇 서비스 중지 시그널을 수신했습니다")

	s.running = false

	applog.WithComponent(component).Info("Telegram 봇 서비스 종료 완료: 모든 리소스가 정리되었습니다")
}

// run 봇 명령어 수신 루프의 본체입니다. serviceStopCtx가 취소될 때까지 반환하지 않습니다.
//
// 명령어 실행이 오래 걸려도 수신 루프가 차단되지 않도록 메시지마다 별도
// 고루틴으로 처리하며, 세마포어로 동시 실행 수를 제한합니다. 세마포어가 꽉 찬
// 상태에서 도착한 명령어는 드롭하고 경고를 남깁니다.
func (s *Service) run(serviceStopCtx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = longPollTimeoutSeconds

	updateC := s.client.GetUpdatesChan(updateConfig)

	var wg sync.WaitGroup
	defer func() {
		// 신규 수신을 먼저 중단한 후 실행 중인 명령어 처리가 끝나기를 기다린다.
		s.client.StopReceivingUpdates()
		wg.Wait()
	}()

	for {
		select {
		case update, ok := <-updateC:
			if !ok {
				applog.WithComponentAndFields(component, applog.Fields{
					"chat_id": s.chatID,
				}).Error("Long Polling 채널이 종료되어 명령어 수신 루프를 종료합니다")
				return
			}

			// 봇 명령어는 텍스트 메시지로만 전송되므로 그 외 타입은 무시한다.
			if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
				continue
			}

			// 설정된 관리자 채팅방 이외에서 온 메시지는 모두 무시한다.
			if update.Message.Chat.ID != s.chatID {
				applog.WithComponentAndFields(component, applog.Fields{
					"chat_id":         s.chatID,
					"message_chat_id": update.Message.Chat.ID,
				}).Warn("허용되지 않은 채팅방에서 수신한 메시지를 무시합니다")
				continue
			}

			select {
			case s.commandSemaphore <- struct{}{}:
				wg.Add(1)
				go func(message *tgbotapi.Message) {
					defer wg.Done()
					defer func() { <-s.commandSemaphore }()
					s.handleMessage(serviceStopCtx, message)
				}(update.Message)

			case <-serviceStopCtx.Done():
				return

			default:
				applog.WithComponentAndFields(component, applog.Fields{
					"chat_id":         s.chatID,
					"active_commands": len(s.commandSemaphore),
				}).Warn("명령어 처리 용량 초과로 요청을 드롭합니다")
			}

		case <-serviceStopCtx.Done():
			return
		}
	}
}

// handleMessage 수신한 텍스트 메시지 하나를 처리하고 결과를 회신합니다.
func (s *Service) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	defer func() {
		if r := recover(); r != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"chat_id": s.chatID,
				"panic":   r,
			}).Error("명령어 처리 중 패닉이 복구되었습니다")
		}
	}()

	text := strings.TrimSpace(message.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}

	commandLine := normalizeCommandLine(text)
	if commandLine == "" {
		return
	}

	// /help, /start는 명령어 실행 없이 사용법을 안내한다.
	if verb := strings.Fields(commandLine)[0]; verb == "help" || verb == "start" {
		s.reply(ctx, command.Usage())
		return
	}

	callerID := strconv.FormatInt(message.From.ID, 10)

	reply, err := s.executor.Execute(ctx, callerID, commandLine)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"caller_id": callerID,
			"command":   commandLine,
			"error":     err,
		}).Warn("명령어 실행이 실패로 응답되었습니다")
	}
	if reply == "" {
		reply = "명령어 처리 중 오류가 발생했습니다"
	}

	s.reply(ctx, reply)
}

// ReportSweep 정기 출석 수행 결과 요약을 관리자 채팅방으로 보고합니다.
func (s *Service) ReportSweep(ctx context.Context, results []contract.CheckInResult) {
	s.reply(ctx, buildSweepReport(s.summaryHeader, results))
}

// reply 관리자 채팅방으로 텍스트 메시지를 발송합니다. 발송 실패는 로깅으로만 처리합니다.
func (s *Service) reply(ctx context.Context, text string) {
	if err := s.limiter.Wait(ctx); err != nil {
		return
	}

	if _, err := s.client.Send(tgbotapi.NewMessage(s.chatID, text)); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"chat_id": s.chatID,
			"error":   err,
		}).Error("텔레그램 메시지 발송에 실패했습니다")
	}
}

// normalizeCommandLine 봇 명령어 텍스트를 명령어 문자열로 정규화합니다.
//
// 선행 슬래시를 제거하고, 그룹 채팅에서 붙는 봇 멘션(/groupsign@bot_name)을
// 첫 토큰에서 제거하며, 연속 공백을 단일 공백으로 정리합니다.
func normalizeCommandLine(text string) string {
	text = strings.TrimPrefix(text, "/")

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}

	if i := strings.Index(fields[0], "@"); i >= 0 {
		fields[0] = fields[0][:i]
	}
	if fields[0] == "" {
		return ""
	}

	return strings.Join(fields, " ")
}

// buildSweepReport 그룹별 출석 결과를 관리자에게 보여줄 요약 문자열로 변환합니다.
// header는 설정(sign.summary)에서 지정한 보고 메시지의 머리말입니다.
func buildSweepReport(header string, results []contract.CheckInResult) string {
	if len(results) == 0 {
		return header + ": 발송 대상 그룹이 없습니다"
	}

	var failed []contract.CheckInResult
	for _, result := range results {
		if !result.Succeeded() {
			failed = append(failed, result)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: 성공 %d개, 실패 %d개", header, len(results)-len(failed), len(failed))

	if len(failed) != 0 {
		sb.WriteString("\n\n실패 목록:")
		for _, result := range failed {
			fmt.Fprintf(&sb, "\n- %s: %s", result.GroupID, failureMessage(result.Err))
		}
	}

	return sb.String()
}

// failureMessage 에러에서 관리자에게 보여줄 실패 사유를 추출합니다.
func failureMessage(err error) string {
	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		return appErr.Message()
	}
	if err != nil {
		return err.Error()
	}
	return "알 수 없는 오류"
}
