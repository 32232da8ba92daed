package strutil

// Mask 토큰, 키 등의 민감한 문자열을 로그에 안전하게 남길 수 있도록 마스킹합니다.
func Mask(s string) string {
	if s == "" {
		return ""
	}

	// 3자 이하는 전체 마스킹
	if len(s) <= 3 {
		return "***"
	}

	// 앞 4자만 표시하고 나머지는 마스킹
	if len(s) <= 12 {
		return s[:4] + "***"
	}

	// 긴 토큰은 앞 4자 + 마스킹 + 뒤 4자
	return s[:4] + "***" + s[len(s)-4:]
}
