package telegram

import apperrors "github.com/darkkaiser/checkin-server/internal/pkg/errors"

// 서비스 초기화 상태 관련 에러
var (
	// ErrBotClientNotInitialized 텔레그램 봇 클라이언트가 주입되지 않은 상태에서 서비스를 시작하려 한 경우
	ErrBotClientNotInitialized = apperrors.New(apperrors.Internal, "텔레그램 봇 클라이언트가 초기화되지 않았습니다")

	// ErrCommandExecutorNotInitialized CommandExecutor가 주입되지 않은 상태에서 서비스를 시작하려 한 경우
	ErrCommandExecutorNotInitialized = apperrors.New(apperrors.Internal, "CommandExecutor가 초기화되지 않았습니다")
)
