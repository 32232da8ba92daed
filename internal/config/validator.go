package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	apperrors "github.com/darkkaiser/checkin-server/internal/pkg/errors"
	"github.com/darkkaiser/checkin-server/pkg/validation"
	"github.com/go-playground/validator/v10"
)

var (
	// 텔레그램 봇 토큰 검증을 위한 정규식 (예: 123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11)
	telegramBotTokenRegex = regexp.MustCompile(`^\d{3,20}:[a-zA-Z0-9_-]{30,50}$`)
)

// newValidator 새로운 Validator 인스턴스를 생성하고 커스텀 유효성 검사 함수를 등록합니다.
func newValidator() *validator.Validate {
	v := validator.New()

	// 검증 에러가 났을 때, 에러 메시지에 Go 구조체 필드명(예: ReminderTime) 대신 JSON 이름(예: reminder_time)을 보여주도록 설정합니다.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// 커스텀 유효성 검사 함수 등록
	if err := v.RegisterValidation("group_id", validateGroupID); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'group_id' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}
	if err := v.RegisterValidation("clock_time", validateClockTime); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'clock_time' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}
	if err := v.RegisterValidation("cors_origin", validateCORSOrigin); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'cors_origin' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}
	if err := v.RegisterValidation("telegram_bot_token", validateTelegramBotToken); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'telegram_bot_token' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}

	return v
}

// validateGroupID `validator` 라이브러리의 검증 인터페이스를 도메인 로직과 연결하는 어댑터(Adapter)입니다.
//
// 실제 검증은 `validation.ValidateGroupID` 함수로 위임하여 외부 라이브러리와
// 내부 비즈니스 로직 간의 결합도를 낮춥니다.
func validateGroupID(fl validator.FieldLevel) bool {
	return validation.ValidateGroupID(fl.Field().String()) == nil
}

// validateClockTime 입력된 문자열이 24시간제 HH:MM 형식인지 검증합니다.
func validateClockTime(fl validator.FieldLevel) bool {
	_, _, err := validation.ParseClockTime(fl.Field().String())
	return err == nil
}

// validateCORSOrigin 입력된 문자열이 유효한 CORS Origin 형식인지 검증합니다.
func validateCORSOrigin(fl validator.FieldLevel) bool {
	return validation.ValidateCORSOrigin(fl.Field().String()) == nil
}

// validateTelegramBotToken 입력된 문자열이 유효한 텔레그램 봇 토큰 형식인지 검증합니다.
//
// 텔레그램 봇 토큰은 식별자(숫자)와 비밀키(문자열)가 콜론(:)으로 구분된 형태여야 합니다.
// 예: "123456789:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"
func validateTelegramBotToken(fl validator.FieldLevel) bool {
	return telegramBotTokenRegex.MatchString(fl.Field().String())
}

// checkStruct 구조체 인스턴스의 유효성을 태그 규칙에 따라 검증하고, 발생한 오류를 사용자 친화적인 도메인 에러로 변환합니다.
func checkStruct(v *validator.Validate, s interface{}, contextName string) error {
	if err := v.Struct(s); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			// 첫 번째 에러만 상세히 보고
			firstErr := validationErrors[0]

			// 필드별(Field) 커스텀 에러 처리
			switch firstErr.StructField() {
			case "ReminderTime":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("출석 알림 시각(reminder_time) 설정이 올바르지 않습니다: '%v' (형식: HH:MM, 예: 09:00)", firstErr.Value()))
			case "Message":
				return apperrors.New(apperrors.InvalidInput, "출석 메시지(message)가 설정되지 않았습니다")
			case "Host":
				return apperrors.New(apperrors.InvalidInput, "제어 API 호스트(host)가 설정되지 않았습니다")
			case "Port":
				return apperrors.New(apperrors.InvalidInput, "제어 API 포트(port)는 1에서 65535 사이의 값이어야 합니다")
			case "ListenPort":
				return apperrors.New(apperrors.InvalidInput, "명령어 API 서버 포트(listen_port)는 1에서 65535 사이의 값이어야 합니다")
			case "AdminUsers":
				return apperrors.New(apperrors.InvalidInput, "관리자 사용자(admin_users) 목록이 비어있습니다")
			case "ChatID":
				return apperrors.New(apperrors.InvalidInput, "텔레그램 활성화 시 채팅 ID(chat_id)는 필수입니다")
			case "AppKey":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 API 키(app_key)가 설정되지 않았습니다", contextName))
			}

			// 태그별(Tag) 커스텀 에러 처리 (범용)
			switch firstErr.Tag() {
			case "group_id":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("그룹 ID 형식이 올바르지 않습니다: '%v' (0으로 시작하지 않는 5~11자리 숫자)", firstErr.Value()))

			case "cors_origin":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("CORS Origin 형식이 올바르지 않습니다: '%v' (형식: Scheme://Host[:Port], 예: https://example.com)", firstErr.Value()))

			case "telegram_bot_token":
				return apperrors.New(apperrors.InvalidInput, "텔레그램 BotToken 형식이 올바르지 않습니다 (올바른 형식: 123456:ABC-DEF...)")

			case "unique":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s 내에 중복된 항목이 존재합니다 (설정 값을 확인해주세요)", contextName))
			}

			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 설정이 올바르지 않습니다: %s (조건: %s)", contextName, firstErr.Field(), firstErr.Tag()))
		}
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s 유효성 검증에 실패했습니다", contextName))
	}
	return nil
}

// checkUniqueField 슬라이스 내의 특정 필드 값이 유일한지 검사합니다.
func checkUniqueField(v *validator.Validate, data interface{}, fieldName, contextName string) error {
	if err := v.Var(data, "unique="+fieldName); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range validationErrors {
				if fieldErr.Tag() == "unique" {
					return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("중복된 %s ID가 존재합니다", contextName))
				}
			}
		}
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s 유일성 검증에 실패했습니다", contextName))
	}
	return nil
}
