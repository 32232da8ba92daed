// Package version 빌드 시점에 주입되는 애플리케이션 버전 정보를 관리합니다.
package version

import (
	"fmt"
	"sync"
)

// Info 빌드 정보를 담는 구조체입니다. (Dockerfile의 ldflags로 주입됨)
type Info struct {
	Version     string // Git 커밋 해시 또는 태그
	BuildDate   string // 빌드 날짜
	BuildNumber string // 빌드 번호
	GoVersion   string // 빌드에 사용된 Go 버전
	OS          string // 대상 운영체제
	Arch        string // 대상 아키텍처
}

// String 사람이 읽기 좋은 한 줄 버전 문자열을 반환합니다.
func (i Info) String() string {
	return fmt.Sprintf("%s (build #%s, %s, %s/%s)", i.Version, i.BuildNumber, i.BuildDate, i.OS, i.Arch)
}

var (
	mu   sync.RWMutex
	info = Info{
		Version:     "dev",
		BuildDate:   "unknown",
		BuildNumber: "0",
	}
)

// Set 전역 빌드 정보를 등록합니다. main 함수 초기에 한 번 호출합니다.
func Set(i Info) {
	mu.Lock()
	defer mu.Unlock()
	info = i
}

// Get 등록된 전역 빌드 정보를 반환합니다.
func Get() Info {
	mu.RLock()
	defer mu.RUnlock()
	return info
}
