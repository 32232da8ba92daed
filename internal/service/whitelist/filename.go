package whitelist

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
)

// filenameReplacer 파일명 생성 시 파일 시스템에서 문제를 일으킬 수 있는 특수문자를 안전한 문자로 치환합니다.
//
// 경로 이탈(.., /, \)과 Windows 예약 문자(< > : " | ? *)를 하이픈으로 치환하여
// 크로스 플랫폼에서 안전한 파일명을 보장합니다.
var filenameReplacer = strings.NewReplacer(
	"..", "--",
	"/", "-",
	"\\", "-",
	"|", "-",
	"<", "-",
	">", "-",
	":", "-",
	"\"", "-",
	"?", "-",
	"*", "-",
)

// generateFilename 애플리케이션 이름을 기반으로 상태 파일의 파일명을 생성합니다.
//
// [파일명 생성 전략: 하이브리드 방식]
// 사람이 읽기 쉬우면서도 시스템적으로 고유한 파일명을 만들기 위해 두 가지 접근을 결합합니다:
//
//  1. 가독성: 이름을 Kebab-Case로 변환하여 파일 탐색기에서 쉽게 식별할 수 있도록 합니다.
//     예: "CheckinServer" → "checkin-server"
//  2. 고유성: 원본 이름의 64비트 해시값을 추가하여, 서로 다른 이름이 정제 후 같은
//     파일명이 되는 충돌과 대소문자를 구분하지 않는 파일 시스템에서의 충돌을 방지합니다.
//
// [생성 패턴]
// "state-{정제된이름}-{16자리해시}.json"
func generateFilename(name string) string {
	sanitized := truncateByBytes(sanitizeName(name), 50)

	hasher := fnv.New64a()
	_, _ = fmt.Fprintf(hasher, "%d:%s", len(name), name)

	return fmt.Sprintf("state-%s-%016x.json", sanitized, hasher.Sum64())
}

// sanitizeName 파일명으로 안전하게 사용할 수 있도록 문자열을 정제합니다.
func sanitizeName(s string) string {
	// 1단계: Kebab-Case 변환으로 기본 정제
	kebab := strcase.ToKebab(s)

	// 2단계: 제어 문자(0x00-0x1F) 및 DEL(0x7F) 치환
	// Windows 등 일부 파일 시스템은 제어 문자를 파일명에 허용하지 않습니다.
	kebab = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7F {
			return '-'
		}
		return r
	}, kebab)

	// 3단계: 파일 시스템 위험 문자 명시적 치환
	return filenameReplacer.Replace(kebab)
}

// truncateByBytes 문자열을 UTF-8 바이트 길이 기준으로 안전하게 자릅니다.
//
// 파일 시스템은 문자 개수가 아닌 바이트 길이로 파일명 제한을 적용하므로,
// Rune 단위로 순회하며 limit 바이트를 초과하지 않는 지점까지만 자릅니다.
// 이를 통해 한글 등 멀티바이트 문자가 중간에 잘려 깨지는 것을 방지합니다.
func truncateByBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	var totalBytes int
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])

		if totalBytes+size > limit {
			return s[:totalBytes]
		}

		totalBytes += size
		i += size
	}

	return s[:totalBytes]
}
