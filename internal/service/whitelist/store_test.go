package whitelist

import (
	"testing"

	"github.com/darkkaiser/checkin-server/internal/config"
	apperrors "github.com/darkkaiser/checkin-server/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestConfig 임시 디렉토리를 상태 저장 위치로 사용하는 테스트용 설정을 생성합니다.
func newTestConfig(t *testing.T) *config.AppConfig {
	t.Helper()

	return &config.AppConfig{
		Sign: config.SignConfig{
			Groups:       []string{"123456", "234567"},
			ReminderTime: "09:00",
			Message:      "출석 체크 시간입니다!",
			StateDir:     t.TempDir(),
		},
		Permissions: config.PermissionsConfig{
			AdminUsers: []string{"admin-1"},
		},
	}
}

func TestNewStore(t *testing.T) {
	t.Run("FirstRun_SeedsFromConfig", func(t *testing.T) {
		cfg := newTestConfig(t)

		store, err := NewStore(cfg)
		require.NoError(t, err)

		assert.Equal(t, []string{"123456", "234567"}, store.ListGroups())
		assert.True(t, store.IsAdmin("admin-1"))
		assert.False(t, store.IsAdmin("stranger"))
		assert.Equal(t, "출석 체크 시간입니다!", store.Message())

		hour, minute := store.ReminderTime()
		assert.Equal(t, 9, hour)
		assert.Equal(t, 0, minute)
	})

	t.Run("SecondRun_StateFileWinsOverConfig", func(t *testing.T) {
		cfg := newTestConfig(t)

		store, err := NewStore(cfg)
		require.NoError(t, err)
		require.NoError(t, store.AddGroup("345678"))

		// 설정 파일의 그룹 목록이 바뀌어도 상태 파일의 내용이 우선한다.
		cfg.Sign.Groups = []string{"999999"}

		reloaded, err := NewStore(cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{"123456", "234567", "345678"}, reloaded.ListGroups())
	})

	t.Run("RoundTrip_IdenticalState", func(t *testing.T) {
		cfg := newTestConfig(t)

		store, err := NewStore(cfg)
		require.NoError(t, err)

		reloaded, err := NewStore(cfg)
		require.NoError(t, err)

		assert.Equal(t, store.state, reloaded.state)
	})
}

func TestStore_AddGroup(t *testing.T) {
	t.Run("Success_AppendsInOrder", func(t *testing.T) {
		store, err := NewStore(newTestConfig(t))
		require.NoError(t, err)

		require.NoError(t, store.AddGroup("345678"))
		assert.Equal(t, []string{"123456", "234567", "345678"}, store.ListGroups())
		assert.True(t, store.ContainsGroup("345678"))
	})

	t.Run("Duplicate_ReturnsConflict", func(t *testing.T) {
		store, err := NewStore(newTestConfig(t))
		require.NoError(t, err)

		err = store.AddGroup("123456")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.Conflict))

		// 중복 등록 시도는 상태를 변경하지 않는다.
		assert.Equal(t, []string{"123456", "234567"}, store.ListGroups())
	})

	t.Run("MalformedID_ReturnsInvalidInput", func(t *testing.T) {
		store, err := NewStore(newTestConfig(t))
		require.NoError(t, err)

		for _, id := range []string{"", "012345", "1234", "abcdef"} {
			err := store.AddGroup(id)
			require.Error(t, err, id)
			assert.True(t, apperrors.Is(err, apperrors.InvalidInput), id)
		}

		assert.Equal(t, []string{"123456", "234567"}, store.ListGroups())
	})

	t.Run("PersistFailure_RollsBack", func(t *testing.T) {
		store, err := NewStore(newTestConfig(t))
		require.NoError(t, err)

		// 상태 파일 경로를 디렉토리로 바꿔 rename이 실패하도록 만든다.
		store.storage.path = t.TempDir()

		err = store.AddGroup("345678")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.System))

		// 영속화에 실패한 변경은 메모리에서도 롤백된다.
		assert.Equal(t, []string{"123456", "234567"}, store.ListGroups())
	})
}

func TestStore_RemoveGroup(t *testing.T) {
	t.Run("Success_PreservesOrder", func(t *testing.T) {
		store, err := NewStore(newTestConfig(t))
		require.NoError(t, err)
		require.NoError(t, store.AddGroup("345678"))

		require.NoError(t, store.RemoveGroup("234567"))
		assert.Equal(t, []string{"123456", "345678"}, store.ListGroups())
		assert.False(t, store.ContainsGroup("234567"))
	})

	t.Run("Unknown_ReturnsNotFound", func(t *testing.T) {
		store, err := NewStore(newTestConfig(t))
		require.NoError(t, err)

		err = store.RemoveGroup("999999")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.NotFound))
		assert.Equal(t, []string{"123456", "234567"}, store.ListGroups())
	})

	t.Run("PersistFailure_RollsBack", func(t *testing.T) {
		store, err := NewStore(newTestConfig(t))
		require.NoError(t, err)

		store.storage.path = t.TempDir()

		err = store.RemoveGroup("123456")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.System))
		assert.Equal(t, []string{"123456", "234567"}, store.ListGroups())
	})
}

func TestStore_ListGroups_ReturnsCopy(t *testing.T) {
	store, err := NewStore(newTestConfig(t))
	require.NoError(t, err)

	groups := store.ListGroups()
	groups[0] = "mutated"

	assert.Equal(t, []string{"123456", "234567"}, store.ListGroups())
}
