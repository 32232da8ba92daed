// Package telegram 관리자 텔레그램 봇을 통한 명령어 수신과 결과 보고를 담당하는 서비스를 제공합니다.
package telegram

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// component 텔레그램 봇 서비스의 로깅용 컴포넌트 이름
const component = "telegram.service"

const (
	// longPollTimeoutSeconds Long Polling 대기 시간입니다. (Telegram API 권장값)
	longPollTimeoutSeconds = 60

	// defaultHTTPClientTimeout 텔레그램 봇 API 호출에 적용되는 HTTP 타임아웃입니다.
	// Long Polling 대기 시간보다 충분히 길어야 정상 대기가 타임아웃으로 끊기지 않습니다.
	defaultHTTPClientTimeout = 90 * time.Second

	// commandExecutionLimit 동시에 처리할 수 있는 봇 명령어의 최대 개수입니다.
	commandExecutionLimit = 5

	// sendRateLimit 텔레그램 API 정책(채팅방당 초당 1회)을 준수하기 위한 발송 속도입니다.
	sendRateLimit = 1
)

// botClient 텔레그램 봇 API와의 통신을 추상화한 인터페이스입니다.
type botClient interface {
	// 봇 정보 조회
	GetSelf() tgbotapi.User

	// 메시지 송수신
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)

	// 리소스 정리
	StopReceivingUpdates()
}

// tgClient tgbotapi.BotAPI를 래핑하여 botClient 인터페이스를 구현하는 구조체입니다.
type tgClient struct {
	*tgbotapi.BotAPI
}

// GetSelf 현재 봇의 사용자 정보를 반환합니다.
func (c *tgClient) GetSelf() tgbotapi.User {
	return c.Self
}
