package whitelist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/darkkaiser/checkin-server/internal/pkg/errors"
	applog "github.com/darkkaiser/checkin-server/pkg/log"
)

// storageComponent 상태 파일 저장소의 로깅용 컴포넌트 이름
const storageComponent = "whitelist.storage"

// tempFilePattern 상태 파일 저장 시 사용되는 임시 파일의 이름 패턴입니다.
const tempFilePattern = "whitelist-state-*.tmp"

// fileStateStore 파일 시스템을 기반으로 화이트리스트 상태를 저장하는 저장소입니다.
//
// 저장은 항상 "임시 파일 쓰기 → fsync → 원자적 rename" 순서로 수행되어,
// 저장 도중 프로세스가 중단되어도 기존 상태 파일이 손상되지 않습니다.
type fileStateStore struct {
	path string
}

// newFileStateStore 파일 시스템 기반의 상태 저장소를 생성합니다.
//
// dir이 빈 문자열이면 현재 디렉토리를 사용하며, 상대 경로는 절대 경로로 변환됩니다.
// 초기화 시점에 디렉토리를 생성하여 이후 Save에서 발생할 수 있는 에러를 조기에 발견합니다.
func newFileStateStore(dir, name string) (*fileStateStore, error) {
	if dir == "" {
		dir = "."
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "상태 파일 디렉토리의 절대 경로 변환에 실패했습니다")
	}

	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.System, "상태 파일 디렉토리 생성에 실패했습니다: '%s'", absDir)
	}

	return &fileStateStore{
		path: filepath.Join(absDir, generateFilename(name)),
	}, nil
}

// Load 상태 파일을 읽어 역직렬화합니다.
//
// 반환값의 두 번째 값은 상태 파일의 존재 여부입니다. 파일이 아직 생성되지 않은
// 경우(최초 실행)는 에러가 아니며, (State{}, false, nil)을 반환합니다.
func (s *fileStateStore) Load() (State, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, false, nil
		}
		return State{}, false, apperrors.Wrapf(err, apperrors.System, "상태 파일 읽기에 실패했습니다: '%s'", s.path)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, false, apperrors.Wrapf(err, apperrors.System, "상태 파일 역직렬화에 실패했습니다: '%s'", s.path)
	}

	return state, true, nil
}

// Save 상태를 JSON으로 직렬화하여 파일에 원자적으로 저장합니다.
func (s *fileStateStore) Save(state State) error {
	data, err := json.MarshalIndent(state, "", "\t")
	if err != nil {
		return apperrors.Wrap(err, apperrors.System, "상태 직렬화에 실패했습니다")
	}

	if err := s.writeAtomic(data); err != nil {
		return err
	}

	applog.WithComponentAndFields(storageComponent, applog.Fields{
		"path":   s.path,
		"groups": len(state.Groups),
	}).Debug("상태 파일 저장 완료")

	return nil
}

// writeAtomic 데이터를 상태 파일에 원자적으로 저장합니다.
//
// [원자적 쓰기 전략]
// 저장 중 시스템 장애(전원 차단, 프로세스 종료)가 발생해도 데이터 무결성을 보장하기 위해
// "임시 파일 쓰기 → 동기화 → 원자적 이름 변경" 3단계로 수행합니다:
//
//  1. 같은 디렉토리 내에 임시 파일을 생성하여 데이터를 기록합니다.
//     (다른 파일시스템 간 rename은 원자성이 보장되지 않으므로 반드시 같은 디렉토리여야 합니다)
//  2. fsync로 파일 내용을 물리적 디스크에 강제 기록합니다.
//  3. os.Rename으로 임시 파일을 최종 파일명으로 교체합니다.
//     POSIX 및 현대 Windows에서 원자적 덮어쓰기가 보장됩니다.
func (s *fileStateStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)

	tmpFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return apperrors.Wrap(err, apperrors.System, "임시 파일 생성에 실패했습니다")
	}
	tmpPath := tmpFile.Name()

	// Windows에서는 열려있는 파일을 삭제할 수 없으므로 Close가 Remove보다 먼저 실행되어야 합니다.
	defer os.Remove(tmpPath)
	defer tmpFile.Close()

	if _, err := tmpFile.Write(data); err != nil {
		return apperrors.Wrap(err, apperrors.System, "임시 파일 쓰기에 실패했습니다")
	}

	// 운영체제 버퍼 캐시에만 기록된 상태에서 전원이 차단되는 것을 방지합니다.
	if err := tmpFile.Sync(); err != nil {
		return apperrors.Wrap(err, apperrors.System, "임시 파일 동기화에 실패했습니다")
	}

	// Windows에서는 파일이 열려 있으면 rename이 실패하므로 반드시 닫아야 합니다.
	if err := tmpFile.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.System, "임시 파일 닫기에 실패했습니다")
	}

	if err := s.renameWithRetry(tmpPath, s.path); err != nil {
		return apperrors.Wrapf(err, apperrors.System, "상태 파일 교체에 실패했습니다: '%s'", s.path)
	}

	// 파일명 변경 사항을 디스크에 확실히 기록하기 위해 부모 디렉토리를 fsync합니다.
	// 실패해도 치명적이지 않으므로 에러를 무시합니다.
	if dirFile, err := os.Open(dir); err == nil {
		_ = dirFile.Sync()
		dirFile.Close()
	}

	return nil
}

// renameWithRetry 파일 이름 변경을 재시도 로직과 함께 수행합니다.
//
// Windows 개발 환경에서는 바이러스 백신이나 파일 인덱서가 파일을 일시적으로 잠궈
// os.Rename이 실패할 수 있으므로, 짧은 대기 후 재시도하여 일시적인 잠금 문제를 우회합니다.
// Linux에서는 거의 발생하지 않지만 해가 되지 않으므로 일관성을 위해 유지합니다.
func (s *fileStateStore) renameWithRetry(oldPath, newPath string) error {
	const maxRetries = 5
	const retryDelay = 10 * time.Millisecond

	var lastErr error
	for range maxRetries {
		err := os.Rename(oldPath, newPath)
		if err == nil {
			return nil
		}

		lastErr = err
		time.Sleep(retryDelay)
	}

	return lastErr
}
