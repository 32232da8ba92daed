package scheduler

import apperrors "github.com/darkkaiser/checkin-server/internal/pkg/errors"

// 서비스 초기화 상태 관련 에러
var (
	// ErrWhitelistStoreNotInitialized WhitelistStore가 주입되지 않은 상태에서 서비스를 시작하려 한 경우
	ErrWhitelistStoreNotInitialized = apperrors.New(apperrors.Internal, "WhitelistStore가 초기화되지 않았습니다")

	// ErrCheckInRunnerNotInitialized CheckInRunner가 주입되지 않은 상태에서 서비스를 시작하려 한 경우
	ErrCheckInRunnerNotInitialized = apperrors.New(apperrors.Internal, "CheckInRunner가 초기화되지 않았습니다")
)
