// Package validation 설정 값과 사용자 입력에 공통으로 적용되는 형식 검증 로직을 제공합니다.
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	// 그룹 ID는 0으로 시작하지 않는 5~11자리 숫자 문자열입니다.
	groupIDRegex = regexp.MustCompile(`^[1-9][0-9]{4,10}$`)

	// 24시간제 HH:MM 형식 (예: 09:00, 23:59)
	clockTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)
)

// ValidateGroupID 입력된 문자열이 유효한 그룹 ID 형식인지 검증합니다.
func ValidateGroupID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("그룹 ID가 비어있습니다")
	}
	if !groupIDRegex.MatchString(id) {
		return fmt.Errorf("그룹 ID 형식이 올바르지 않습니다: '%s' (0으로 시작하지 않는 5~11자리 숫자)", id)
	}
	return nil
}

// ParseClockTime 24시간제 HH:MM 형식의 문자열을 시와 분으로 분해합니다.
func ParseClockTime(s string) (hour, minute int, err error) {
	m := clockTimeRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("시각 형식이 올바르지 않습니다: '%s' (형식: HH:MM, 예: 09:00)", s)
	}

	// 정규식을 통과한 값이므로 변환은 실패하지 않는다.
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}

// ValidateCORSOrigin 입력된 문자열이 유효한 CORS Origin 형식(Scheme://Host[:Port])인지 검증합니다.
func ValidateCORSOrigin(origin string) error {
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("Origin을 해석할 수 없습니다: '%s'", origin)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("지원하지 않는 Origin 스킴입니다: '%s' (http 또는 https만 허용)", origin)
	}

	if u.Host == "" || u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return fmt.Errorf("Origin은 Scheme://Host[:Port] 형식이어야 합니다: '%s'", origin)
	}

	return nil
}
