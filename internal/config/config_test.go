package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/darkkaiser/checkin-server/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfigFile 임시 디렉토리에 테스트용 설정 파일을 생성하고 경로를 반환합니다.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfigJSON = `{
	"sign": {
		"groups": ["123456", "234567"],
		"reminder_time": "08:30",
		"check_interval": "30s",
		"message": "출석 체크 시간입니다!",
		"summary": "오늘의 출석 현황"
	},
	"permissions": {
		"admin_users": ["admin-1", "admin-2"]
	},
	"api": {
		"host": "127.0.0.1",
		"port": 5700,
		"access_token": "secret-token",
		"timeout": "5s"
	},
	"command_api": {
		"listen_port": 8080,
		"allow_origins": ["*"],
		"applications": [
			{"id": "host-app", "title": "호스트 프레임워크", "app_key": "host-app-key-1234"}
		]
	}
}`

func TestLoadWithFile(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		cfg, err := LoadWithFile(writeConfigFile(t, validConfigJSON))
		require.NoError(t, err)

		assert.Equal(t, []string{"123456", "234567"}, cfg.Sign.Groups)
		assert.Equal(t, "08:30", cfg.Sign.ReminderTime)
		assert.Equal(t, 30*time.Second, cfg.Sign.CheckInterval)
		assert.Equal(t, "오늘의 출석 현황", cfg.Sign.Summary)
		assert.Equal(t, []string{"admin-1", "admin-2"}, cfg.Permissions.AdminUsers)
		assert.Equal(t, "http://127.0.0.1:5700", cfg.API.BaseURL())
		assert.Equal(t, 5*time.Second, cfg.API.Timeout)
		assert.False(t, cfg.Telegram.Enabled)
		assert.Equal(t, 8080, cfg.CommandAPI.ListenPort)

		hour, minute := cfg.Sign.ReminderTimeParts()
		assert.Equal(t, 8, hour)
		assert.Equal(t, 30, minute)
	})

	t.Run("DefaultsApplied", func(t *testing.T) {
		// 생략 가능한 항목을 모두 생략한 최소 설정
		cfg, err := LoadWithFile(writeConfigFile(t, `{
			"permissions": {"admin_users": ["admin-1"]},
			"api": {"host": "127.0.0.1", "port": 5700},
			"command_api": {"listen_port": 8080, "allow_origins": ["*"]}
		}`))
		require.NoError(t, err)

		assert.Equal(t, DefaultReminderTime, cfg.Sign.ReminderTime)
		assert.Equal(t, DefaultCheckInterval, cfg.Sign.CheckInterval)
		assert.Equal(t, DefaultSignMessage, cfg.Sign.Message)
		assert.Equal(t, DefaultSignSummary, cfg.Sign.Summary)
		assert.Equal(t, DefaultAPITimeout, cfg.API.Timeout)
		assert.Empty(t, cfg.Sign.Groups)
	})

	t.Run("EnvOverridesFile", func(t *testing.T) {
		t.Setenv("CHECKIN_SIGN__REMINDER_TIME", "10:15")
		t.Setenv("CHECKIN_DEBUG", "true")

		cfg, err := LoadWithFile(writeConfigFile(t, validConfigJSON))
		require.NoError(t, err)

		assert.Equal(t, "10:15", cfg.Sign.ReminderTime)
		assert.True(t, cfg.Debug)
	})

	t.Run("FileNotFound", func(t *testing.T) {
		_, err := LoadWithFile(filepath.Join(t.TempDir(), "no-such-file.json"))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.System))
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		_, err := LoadWithFile(writeConfigFile(t, `{"sign": `))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
	})

	t.Run("UnknownFieldRejected", func(t *testing.T) {
		// 구조체에 존재하지 않는 설정 키는 오타일 가능성이 높으므로 거부한다.
		_, err := LoadWithFile(writeConfigFile(t, `{
			"sign": {"remider_time": "08:30"},
			"permissions": {"admin_users": ["admin-1"]},
			"api": {"host": "127.0.0.1", "port": 5700},
			"command_api": {"listen_port": 8080, "allow_origins": ["*"]}
		}`))
		require.Error(t, err)
	})
}

func TestLoadWithFile_Validation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   string
		contains string
	}{
		{
			name: "InvalidReminderTime",
			mutate: `{
				"sign": {"reminder_time": "25:00"},
				"permissions": {"admin_users": ["admin-1"]},
				"api": {"host": "127.0.0.1", "port": 5700},
				"command_api": {"listen_port": 8080, "allow_origins": ["*"]}
			}`,
			contains: "reminder_time",
		},
		{
			name: "InvalidGroupID",
			mutate: `{
				"sign": {"groups": ["012345"]},
				"permissions": {"admin_users": ["admin-1"]},
				"api": {"host": "127.0.0.1", "port": 5700},
				"command_api": {"listen_port": 8080, "allow_origins": ["*"]}
			}`,
			contains: "그룹 ID",
		},
		{
			name: "EmptyAdminUsers",
			mutate: `{
				"permissions": {"admin_users": []},
				"api": {"host": "127.0.0.1", "port": 5700},
				"command_api": {"listen_port": 8080, "allow_origins": ["*"]}
			}`,
			contains: "admin_users",
		},
		{
			name: "MissingAPIHost",
			mutate: `{
				"permissions": {"admin_users": ["admin-1"]},
				"api": {"port": 5700},
				"command_api": {"listen_port": 8080, "allow_origins": ["*"]}
			}`,
			contains: "host",
		},
		{
			name: "InvalidListenPort",
			mutate: `{
				"permissions": {"admin_users": ["admin-1"]},
				"api": {"host": "127.0.0.1", "port": 5700},
				"command_api": {"listen_port": 70000, "allow_origins": ["*"]}
			}`,
			contains: "listen_port",
		},
		{
			name: "EmptyAllowOrigins",
			mutate: `{
				"permissions": {"admin_users": ["admin-1"]},
				"api": {"host": "127.0.0.1", "port": 5700},
				"command_api": {"listen_port": 8080, "allow_origins": []}
			}`,
			contains: "allow_origins",
		},
		{
			name: "WildcardMixedWithOrigin",
			mutate: `{
				"permissions": {"admin_users": ["admin-1"]},
				"api": {"host": "127.0.0.1", "port": 5700},
				"command_api": {"listen_port": 8080, "allow_origins": ["*", "https://example.com"]}
			}`,
			contains: "와일드카드",
		},
		{
			name: "InvalidCORSOrigin",
			mutate: `{
				"permissions": {"admin_users": ["admin-1"]},
				"api": {"host": "127.0.0.1", "port": 5700},
				"command_api": {"listen_port": 8080, "allow_origins": ["example.com"]}
			}`,
			contains: "CORS Origin",
		},
		{
			name: "ApplicationWithoutAppKey",
			mutate: `{
				"permissions": {"admin_users": ["admin-1"]},
				"api": {"host": "127.0.0.1", "port": 5700},
				"command_api": {
					"listen_port": 8080,
					"allow_origins": ["*"],
					"applications": [{"id": "host-app", "app_key": ""}]
				}
			}`,
			contains: "app_key",
		},
		{
			name: "DuplicateApplicationID",
			mutate: `{
				"permissions": {"admin_users": ["admin-1"]},
				"api": {"host": "127.0.0.1", "port": 5700},
				"command_api": {
					"listen_port": 8080,
					"allow_origins": ["*"],
					"applications": [
						{"id": "host-app", "app_key": "key-1"},
						{"id": "host-app", "app_key": "key-2"}
					]
				}
			}`,
			contains: "중복",
		},
		{
			name: "TelegramEnabledWithoutToken",
			mutate: `{
				"permissions": {"admin_users": ["admin-1"]},
				"api": {"host": "127.0.0.1", "port": 5700},
				"telegram": {"enabled": true, "chat_id": 123456789},
				"command_api": {"listen_port": 8080, "allow_origins": ["*"]}
			}`,
			contains: "bot_token",
		},
		{
			name: "TelegramInvalidToken",
			mutate: `{
				"permissions": {"admin_users": ["admin-1"]},
				"api": {"host": "127.0.0.1", "port": 5700},
				"telegram": {"enabled": true, "bot_token": "invalid", "chat_id": 123456789},
				"command_api": {"listen_port": 8080, "allow_origins": ["*"]}
			}`,
			contains: "BotToken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWithFile(writeConfigFile(t, tt.mutate))
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestVerifyRecommendations(t *testing.T) {
	t.Run("NoWarnings", func(t *testing.T) {
		cfg, err := LoadWithFile(writeConfigFile(t, validConfigJSON))
		require.NoError(t, err)
		assert.Empty(t, cfg.VerifyRecommendations())
	})

	t.Run("WellKnownPortAndEmptyGroups", func(t *testing.T) {
		cfg, err := LoadWithFile(writeConfigFile(t, `{
			"permissions": {"admin_users": ["admin-1"]},
			"api": {"host": "127.0.0.1", "port": 5700},
			"command_api": {"listen_port": 80, "allow_origins": ["*"]}
		}`))
		require.NoError(t, err)

		warnings := cfg.VerifyRecommendations()
		assert.Len(t, warnings, 2)
	})
}

func TestFindApplication(t *testing.T) {
	cfg, err := LoadWithFile(writeConfigFile(t, validConfigJSON))
	require.NoError(t, err)

	app, found := cfg.CommandAPI.FindApplication("host-app")
	require.True(t, found)
	assert.Equal(t, "host-app-key-1234", app.AppKey)

	_, found = cfg.CommandAPI.FindApplication("unknown-app")
	assert.False(t, found)
}
