// Package config 애플리케이션 설정 파일의 로드와 유효성 검증을 담당합니다.
//
// 설정은 다음 우선순위로 병합됩니다. (뒤로 갈수록 우선순위가 높음)
//
//  1. 애플리케이션 기본값
//  2. JSON 설정 파일 (checkin-server.json)
//  3. 환경 변수 (접두사: CHECKIN_, 계층 구분자: __)
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/checkin-server/internal/pkg/errors"
	"github.com/darkkaiser/checkin-server/pkg/validation"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName 애플리케이션의 전역 고유 식별자입니다.
	AppName string = "checkin-server"

	// DefaultFilename 애플리케이션 초기화 시 참조하는 기본 설정 파일명입니다.
	// 실행 인자를 통해 명시적인 경로가 제공되지 않을 경우, 시스템은 이 파일을 탐색하여 구성을 로드합니다.
	DefaultFilename = AppName + ".json"

	// ------------------------------------------------------------------------------------------------
	// 출석(Sign) 기본값
	// ------------------------------------------------------------------------------------------------

	// DefaultReminderTime 출석 메시지를 발송하는 기본 시각 (24시간제 HH:MM)
	DefaultReminderTime = "09:00"

	// DefaultCheckInterval 스케줄러가 발송 시각 도래 여부를 재확인하는 기본 주기
	DefaultCheckInterval = time.Minute

	// DefaultSignMessage 출석 체크 시 그룹에 발송되는 기본 메시지
	DefaultSignMessage = "오늘도 출석 체크하세요!"

	// DefaultSignSummary 정기 출석 결과 보고 메시지의 머리말
	DefaultSignSummary = "정기 출석 결과"

	// DefaultAPITimeout 제어 API 호출의 기본 타임아웃
	DefaultAPITimeout = 10 * time.Second
)

// AppConfig 애플리케이션의 모든 설정을 관장하는 최상위 루트 구조체
type AppConfig struct {
	Debug       bool              `json:"debug"`
	Sign        SignConfig        `json:"sign"`
	Permissions PermissionsConfig `json:"permissions"`
	API         APIConfig         `json:"api"`
	Telegram    TelegramConfig    `json:"telegram"`
	CommandAPI  CommandAPIConfig  `json:"command_api"`
}

// validate 설정 파일 로드 직후, 각 설정 항목의 정합성과 필수 값의 유효성을 검증합니다.
func (c *AppConfig) validate(v *validator.Validate) error {
	if err := c.Sign.validate(v); err != nil {
		return err
	}

	if err := c.Permissions.validate(v); err != nil {
		return err
	}

	if err := c.API.validate(v); err != nil {
		return err
	}

	if err := c.Telegram.validate(v); err != nil {
		return err
	}

	if err := c.CommandAPI.validate(v); err != nil {
		return err
	}

	return nil
}

// VerifyRecommendations 서비스 운영의 안정성과 보안을 위해 권장되는 설정 준수 여부를 진단합니다.
// 강제적인 에러를 발생시키지는 않으나, 잠재적 위험 요소에 대한 경고 메시지를 반환합니다.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string

	// 시스템 예약 포트(1024 미만) 사용 경고
	if c.CommandAPI.ListenPort < 1024 {
		warnings = append(warnings, fmt.Sprintf("시스템 예약 포트(1-1023)를 사용하도록 설정되었습니다(port: %d). 이 경우 서버 구동 시 관리자 권한이 필요할 수 있습니다", c.CommandAPI.ListenPort))
	}

	// 출석 대상 그룹이 하나도 없는 경우 안내
	if len(c.Sign.Groups) == 0 {
		warnings = append(warnings, "출석 대상 그룹(sign.groups)이 설정되지 않았습니다. 관리자 명령어로 그룹을 등록하기 전까지 출석 메시지는 발송되지 않습니다")
	}

	// 재확인 주기가 지나치게 짧은 경우 안내
	if c.Sign.CheckInterval < time.Second {
		warnings = append(warnings, fmt.Sprintf("발송 시각 재확인 주기(sign.check_interval)가 지나치게 짧게 설정되었습니다(%v). 1초 이상을 권장합니다", c.Sign.CheckInterval))
	}

	return warnings
}

// SignConfig 출석 체크 대상 그룹과 발송 시각, 발송 메시지를 정의하는 설정 구조체
type SignConfig struct {
	Groups        []string      `json:"groups" validate:"unique,dive,group_id"`
	ReminderTime  string        `json:"reminder_time" validate:"required,clock_time"`
	CheckInterval time.Duration `json:"check_interval"`
	Message       string        `json:"message" validate:"required"`
	Summary       string        `json:"summary" validate:"required"`
	StateDir      string        `json:"state_dir"`
}

func (c *SignConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c, "출석(sign)"); err != nil {
		return err
	}

	if c.CheckInterval <= 0 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("발송 시각 재확인 주기(check_interval)는 0보다 커야 합니다: '%v'", c.CheckInterval))
	}

	return nil
}

// ReminderTimeParts 검증이 완료된 발송 시각(reminder_time)을 시와 분으로 분해하여 반환합니다.
func (c *SignConfig) ReminderTimeParts() (hour, minute int) {
	hour, minute, _ = validation.ParseClockTime(c.ReminderTime)
	return hour, minute
}

// PermissionsConfig 화이트리스트 변경 권한을 가진 관리자 사용자 목록을 정의하는 설정 구조체
type PermissionsConfig struct {
	AdminUsers []string `json:"admin_users" validate:"min=1,unique,dive,required"`
}

func (c *PermissionsConfig) validate(v *validator.Validate) error {
	return checkStruct(v, c, "권한(permissions)")
}

// APIConfig 출석 메시지 발송에 사용되는 채팅 클라이언트 제어 API의 접속 정보를 정의하는 설정 구조체
type APIConfig struct {
	Host        string        `json:"host" validate:"required"`
	Port        int           `json:"port" validate:"min=1,max=65535"`
	AccessToken string        `json:"access_token"`
	Timeout     time.Duration `json:"timeout"`
}

func (c *APIConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c, "제어 API(api)"); err != nil {
		return err
	}

	if c.Timeout <= 0 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("제어 API 타임아웃(timeout)은 0보다 커야 합니다: '%v'", c.Timeout))
	}

	return nil
}

// BaseURL 제어 API의 기본 URL을 반환합니다.
func (c *APIConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// TelegramConfig 관리자 텔레그램 봇 토큰 및 채팅 ID 정보를 담는 설정 구조체
type TelegramConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token" validate:"required_if=Enabled true,omitempty,telegram_bot_token"`
	ChatID   int64  `json:"chat_id" validate:"required_if=Enabled true"`
}

func (c *TelegramConfig) validate(v *validator.Validate) error {
	return checkStruct(v, c, "텔레그램(telegram)")
}

// CommandAPIConfig 관리자 명령어 수신을 위한 REST API 서버 설정 구조체
type CommandAPIConfig struct {
	ListenPort   int                 `json:"listen_port" validate:"min=1,max=65535"`
	AllowOrigins []string            `json:"allow_origins" validate:"dive,cors_origin"`
	Applications []ApplicationConfig `json:"applications" validate:"unique=ID"`
}

func (c *CommandAPIConfig) validate(v *validator.Validate) error {
	if len(c.AllowOrigins) == 0 {
		return apperrors.New(apperrors.InvalidInput, "CORS 허용 도메인(allow_origins) 목록이 비어있습니다")
	}

	for _, origin := range c.AllowOrigins {
		if origin == "*" {
			if len(c.AllowOrigins) > 1 {
				return apperrors.New(apperrors.InvalidInput, "와일드카드(*)는 다른 도메인과 함께 사용할 수 없습니다. 모든 도메인을 허용하려면 와일드카드만 설정하세요")
			}

			// 와일드카드만 있는 경우는 유효함 (validator skip)
			return c.validateWithoutOrigins(v)
		}
	}

	return c.validateAll(v)
}

func (c *CommandAPIConfig) validateAll(v *validator.Validate) error {
	if err := checkStruct(v, c, "명령어 API(command_api)"); err != nil {
		return err
	}
	return c.validateApplications(v)
}

func (c *CommandAPIConfig) validateWithoutOrigins(v *validator.Validate) error {
	type portOnly struct {
		ListenPort int `json:"listen_port" validate:"min=1,max=65535"`
	}
	if err := checkStruct(v, portOnly{ListenPort: c.ListenPort}, "명령어 API(command_api)"); err != nil {
		return err
	}
	return c.validateApplications(v)
}

func (c *CommandAPIConfig) validateApplications(v *validator.Validate) error {
	// Applications 중복 ID 검사
	if err := checkUniqueField(v, c.Applications, "ID", "애플리케이션(Application)"); err != nil {
		return err
	}

	for _, app := range c.Applications {
		if strings.TrimSpace(app.ID) == "" {
			return apperrors.New(apperrors.InvalidInput, "애플리케이션(Application)의 ID가 설정되지 않았습니다")
		}

		if strings.TrimSpace(app.AppKey) == "" {
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("Application['%s']의 API 키(app_key)가 설정되지 않았습니다", app.ID))
		}
	}

	return nil
}

// FindApplication 등록된 애플리케이션 목록에서 ID가 일치하는 항목을 찾습니다.
func (c *CommandAPIConfig) FindApplication(id string) (ApplicationConfig, bool) {
	idx := slices.IndexFunc(c.Applications, func(app ApplicationConfig) bool {
		return app.ID == id
	})
	if idx == -1 {
		return ApplicationConfig{}, false
	}
	return c.Applications[idx], true
}

// ApplicationConfig 명령어 API를 사용할 수 있는 클라이언트 어플리케이션의 인증 정보를 정의하는 구조체
type ApplicationConfig struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AppKey      string `json:"app_key"`
}

// defaultConfig 파일이나 환경 변수로 덮어쓰기 전의 애플리케이션 기본 설정을 반환합니다.
func defaultConfig() AppConfig {
	return AppConfig{
		Sign: SignConfig{
			ReminderTime:  DefaultReminderTime,
			CheckInterval: DefaultCheckInterval,
			Message:       DefaultSignMessage,
			Summary:       DefaultSignSummary,
			StateDir:      ".",
		},
		API: APIConfig{
			Timeout: DefaultAPITimeout,
		},
	}
}

// Load 기본 설정 파일을 읽어 애플리케이션 설정을 로드합니다.
func Load() (*AppConfig, error) {
	return LoadWithFile(DefaultFilename)
}

// LoadWithFile 지정된 경로의 설정 파일을 읽어 AppConfig 객체를 생성합니다.
func LoadWithFile(filename string) (*AppConfig, error) {
	k := koanf.New(".")

	// 1. 기본값 로드 (가장 낮은 우선순위)
	if err := k.Load(structs.Provider(defaultConfig(), "json"), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "애플리케이션 기본 설정 로드에 실패했습니다")
	}

	// 2. JSON 설정 파일 로드 (기본값 덮어쓰기)
	if err := k.Load(file.Provider(filename), json.Parser()); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("설정 파일을 찾을 수 없습니다: '%s'", filename))
		}
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일 로드 중 오류가 발생했습니다: '%s'", filename))
	}

	// 3. 환경 변수 로드 (최우선 순위, JSON 설정 덮어쓰기)
	// 접두사: CHECKIN_
	// 구분자: 이중 언더스코어(__)를 점(.)으로 변환 (계층 구조 표현)
	// 예: CHECKIN_SIGN__REMINDER_TIME -> sign.reminder_time
	if err := k.Load(env.Provider("CHECKIN_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "CHECKIN_")
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "환경 변수 로드에 실패했습니다")
	}

	// 4. 구조체 언마샬링 (Strict Validation 적용)
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			ErrorUnused:      true, // 파일에 존재하지만 구조체에 없는 필드가 있을 경우 에러를 발생시킴
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	}
	var appConfig AppConfig
	if err := k.UnmarshalWithConf("", &appConfig, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "설정 데이터를 애플리케이션 구조체로 변환하는데 실패했습니다")
	}

	// 5. 유효성 검사 수행 (정합성 체크)
	if err := appConfig.validate(newValidator()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일('%s')의 유효성 검증에 실패했습니다", filename))
	}

	return &appConfig, nil
}
