package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/checkin-server/internal/service/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNextFireTime(t *testing.T) {
	loc := time.Local

	tests := []struct {
		name   string
		now    time.Time
		hour   int
		minute int
		want   time.Time
	}{
		{
			name: "TargetLaterToday",
			now:  time.Date(2026, 8, 24, 8, 30, 0, 0, loc),
			hour: 9, minute: 0,
			want: time.Date(2026, 8, 24, 9, 0, 0, 0, loc),
		},
		{
			name: "TargetAlreadyPassedToday",
			now:  time.Date(2026, 8, 24, 9, 0, 5, 0, loc),
			hour: 9, minute: 0,
			want: time.Date(2026, 8, 25, 9, 0, 0, 0, loc),
		},
		{
			name: "TargetExactlyNow_TreatedAsPassed",
			now:  time.Date(2026, 8, 24, 9, 0, 0, 0, loc),
			hour: 9, minute: 0,
			want: time.Date(2026, 8, 25, 9, 0, 0, 0, loc),
		},
		{
			name: "MidnightTarget_TenSecondsBefore",
			now:  time.Date(2026, 8, 24, 23, 59, 50, 0, loc),
			hour: 0, minute: 0,
			want: time.Date(2026, 8, 25, 0, 0, 0, 0, loc),
		},
		{
			name: "MidnightTarget_JustAfterMidnight",
			now:  time.Date(2026, 8, 25, 0, 0, 5, 0, loc),
			hour: 0, minute: 0,
			want: time.Date(2026, 8, 26, 0, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextFireTime(tt.now, tt.hour, tt.minute)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
			assert.True(t, got.After(tt.now), "다음 목표 시각은 항상 현재보다 이후여야 합니다")
		})
	}
}

// fakeClock 테스트에서 임의로 조작 가능한 시계입니다.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// schedulerFakeStore 고정된 화이트리스트 상태를 반환하는 테스트용 WhitelistStore입니다.
// 발송 시각은 실행 중에도 변경할 수 있습니다.
type schedulerFakeStore struct {
	groups []string

	mu     sync.Mutex
	hour   int
	minute int
}

func (s *schedulerFakeStore) ListGroups() []string {
	return append([]string(nil), s.groups...)
}

func (s *schedulerFakeStore) AddGroup(string) error    { return nil }
func (s *schedulerFakeStore) RemoveGroup(string) error { return nil }
func (s *schedulerFakeStore) ContainsGroup(string) bool {
	return false
}
func (s *schedulerFakeStore) IsAdmin(string) bool { return false }
func (s *schedulerFakeStore) ReminderTime() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hour, s.minute
}

func (s *schedulerFakeStore) SetReminderTime(hour, minute int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hour, s.minute = hour, minute
}
func (s *schedulerFakeStore) Message() string { return "출석!" }

// channelRunner RunSweep 호출을 채널로 알리는 테스트용 CheckInRunner입니다.
type channelRunner struct {
	fired   chan []string
	results []contract.CheckInResult
}

func newChannelRunner() *channelRunner {
	return &channelRunner{fired: make(chan []string, 16)}
}

func (r *channelRunner) RunSweep(_ context.Context, groups []string) []contract.CheckInResult {
	r.fired <- append([]string(nil), groups...)

	if r.results != nil {
		return r.results
	}

	results := make([]contract.CheckInResult, 0, len(groups))
	for _, g := range groups {
		results = append(results, contract.CheckInResult{GroupID: g})
	}
	return results
}

// channelReporter ReportSweep 호출을 채널로 알리는 테스트용 SweepReporter입니다.
type channelReporter struct {
	reported chan []contract.CheckInResult
}

func newChannelReporter() *channelReporter {
	return &channelReporter{reported: make(chan []contract.CheckInResult, 16)}
}

func (r *channelReporter) ReportSweep(_ context.Context, results []contract.CheckInResult) {
	r.reported <- results
}

func waitForFire(t *testing.T, fired <-chan []string) []string {
	t.Helper()
	select {
	case groups := <-fired:
		return groups
	case <-time.After(2 * time.Second):
		t.Fatal("제한 시간 내에 출석 발송이 수행되지 않았습니다")
		return nil
	}
}

func assertNoFire(t *testing.T, fired <-chan []string, within time.Duration) {
	t.Helper()
	select {
	case groups := <-fired:
		t.Fatalf("출석 발송이 수행되어서는 안 되는데 수행되었습니다: %v", groups)
	case <-time.After(within):
	}
}

func TestScheduler_DailyFireLoop(t *testing.T) {
	loc := time.Local
	clock := newFakeClock(time.Date(2026, 8, 24, 23, 59, 0, 0, loc))

	store := &schedulerFakeStore{groups: []string{"123456", "234567"}, hour: 0, minute: 0}
	runner := newChannelRunner()
	reporter := newChannelReporter()

	s := NewService(store, runner, 5*time.Millisecond)
	s.SetReporter(reporter)
	s.nowFunc = clock.Now

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))
	defer func() {
		cancel()
		wg.Wait()
	}()

	// 목표 시각(자정) 이전에는 발송하지 않는다.
	assertNoFire(t, runner.fired, 50*time.Millisecond)

	running, next := s.Status()
	assert.True(t, running)
	assert.True(t, next.Equal(time.Date(2026, 8, 25, 0, 0, 0, 0, loc)), "next = %s", next)

	// 자정을 넘기면 한 번만 발송된다.
	clock.Set(time.Date(2026, 8, 25, 0, 0, 1, 0, loc))
	groups := waitForFire(t, runner.fired)
	assert.Equal(t, []string{"123456", "234567"}, groups)
	assertNoFire(t, runner.fired, 50*time.Millisecond)

	// 발송 결과는 리포터로 보고된다.
	select {
	case results := <-reporter.reported:
		require.Len(t, results, 2)
		assert.True(t, results[0].Succeeded())
	case <-time.After(2 * time.Second):
		t.Fatal("제한 시간 내에 발송 결과가 보고되지 않았습니다")
	}

	// 다음 목표는 다음 날 자정으로 재계산된다.
	_, next = s.Status()
	assert.True(t, next.Equal(time.Date(2026, 8, 26, 0, 0, 0, 0, loc)), "next = %s", next)
}

func TestScheduler_ClockJumpPastTarget_FiresExactlyOnce(t *testing.T) {
	loc := time.Local
	clock := newFakeClock(time.Date(2026, 8, 24, 10, 0, 0, 0, loc))

	store := &schedulerFakeStore{groups: []string{"123456"}, hour: 9, minute: 0}
	runner := newChannelRunner()

	s := NewService(store, runner, 5*time.Millisecond)
	s.nowFunc = clock.Now

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))
	defer func() {
		cancel()
		wg.Wait()
	}()

	assertNoFire(t, runner.fired, 50*time.Millisecond)

	// 시계가 목표(내일 09:00)를 며칠 건너뛰어도 보정 발송은 정확히 한 번이다.
	clock.Set(time.Date(2026, 8, 28, 14, 0, 0, 0, loc))
	waitForFire(t, runner.fired)
	assertNoFire(t, runner.fired, 50*time.Millisecond)

	// 건너뛴 이후의 다음 목표는 현재 시각 기준으로 재계산된다.
	_, next := s.Status()
	assert.True(t, next.Equal(time.Date(2026, 8, 29, 9, 0, 0, 0, loc)), "next = %s", next)
}

func TestScheduler_PauseResume(t *testing.T) {
	loc := time.Local
	clock := newFakeClock(time.Date(2026, 8, 24, 8, 59, 0, 0, loc))

	store := &schedulerFakeStore{groups: []string{"123456"}, hour: 9, minute: 0}
	runner := newChannelRunner()

	s := NewService(store, runner, 5*time.Millisecond)
	s.nowFunc = clock.Now

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))
	defer func() {
		cancel()
		wg.Wait()
	}()

	require.NoError(t, s.Pause())

	running, _ := s.Status()
	assert.False(t, running)

	// 일시중지 중에는 목표 시각이 지나가도 발송하지 않는다.
	clock.Set(time.Date(2026, 8, 24, 9, 5, 0, 0, loc))
	assertNoFire(t, runner.fired, 50*time.Millisecond)

	// 재개해도 지나간 목표로 보정 발송하지 않으며, 다음 목표는 다음 날로 유지된다.
	require.NoError(t, s.Resume())
	assertNoFire(t, runner.fired, 50*time.Millisecond)

	running, next := s.Status()
	assert.True(t, running)
	assert.True(t, next.Equal(time.Date(2026, 8, 25, 9, 0, 0, 0, loc)), "next = %s", next)

	// 재개 이후의 목표 시각에는 정상적으로 발송된다.
	clock.Set(time.Date(2026, 8, 25, 9, 0, 1, 0, loc))
	waitForFire(t, runner.fired)
}

func TestScheduler_PauseResume_StateTransitions(t *testing.T) {
	store := &schedulerFakeStore{hour: 9, minute: 0}
	runner := newChannelRunner()

	s := NewService(store, runner, 5*time.Millisecond)

	// 시작 전에는 일시중지/재개할 수 없다.
	assert.Error(t, s.Pause())
	assert.Error(t, s.Resume())

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))
	defer func() {
		cancel()
		wg.Wait()
	}()

	// 가동 중의 재개, 중복 일시중지는 모두 거부된다.
	assert.Error(t, s.Resume())

	require.NoError(t, s.Pause())
	assert.Error(t, s.Pause())

	require.NoError(t, s.Resume())
}

func TestScheduler_ReminderTimeChanged(t *testing.T) {
	t.Run("ChangedToLater_StaleTargetNotFired", func(t *testing.T) {
		loc := time.Local
		clock := newFakeClock(time.Date(2026, 8, 24, 8, 0, 0, 0, loc))

		store := &schedulerFakeStore{groups: []string{"123456"}, hour: 9, minute: 0}
		runner := newChannelRunner()

		s := NewService(store, runner, 5*time.Millisecond)
		s.nowFunc = clock.Now

		ctx, cancel := context.WithCancel(context.Background())
		wg := &sync.WaitGroup{}
		wg.Add(1)
		require.NoError(t, s.Start(ctx, wg))
		defer func() {
			cancel()
			wg.Wait()
		}()

		// 발송 시각을 09:00 -> 10:00으로 늦추면 기존 09:00 목표는 폐기된다.
		store.SetReminderTime(10, 0)
		require.Eventually(t, func() bool {
			_, next := s.Status()
			return next.Equal(time.Date(2026, 8, 24, 10, 0, 0, 0, loc))
		}, 2*time.Second, 5*time.Millisecond, "늦춰진 발송 시각이 다음 목표에 반영되어야 합니다")

		clock.Set(time.Date(2026, 8, 24, 9, 30, 0, 0, loc))
		assertNoFire(t, runner.fired, 50*time.Millisecond)

		clock.Set(time.Date(2026, 8, 24, 10, 0, 1, 0, loc))
		waitForFire(t, runner.fired)
		assertNoFire(t, runner.fired, 50*time.Millisecond)
	})

	t.Run("ChangedToEarlier_NewTargetFired", func(t *testing.T) {
		loc := time.Local
		clock := newFakeClock(time.Date(2026, 8, 24, 8, 0, 0, 0, loc))

		store := &schedulerFakeStore{groups: []string{"123456"}, hour: 12, minute: 0}
		runner := newChannelRunner()

		s := NewService(store, runner, 5*time.Millisecond)
		s.nowFunc = clock.Now

		ctx, cancel := context.WithCancel(context.Background())
		wg := &sync.WaitGroup{}
		wg.Add(1)
		require.NoError(t, s.Start(ctx, wg))
		defer func() {
			cancel()
			wg.Wait()
		}()

		store.SetReminderTime(9, 0)
		require.Eventually(t, func() bool {
			_, next := s.Status()
			return next.Equal(time.Date(2026, 8, 24, 9, 0, 0, 0, loc))
		}, 2*time.Second, 5*time.Millisecond, "앞당겨진 발송 시각이 다음 목표에 반영되어야 합니다")

		clock.Set(time.Date(2026, 8, 24, 9, 0, 1, 0, loc))
		waitForFire(t, runner.fired)
		assertNoFire(t, runner.fired, 50*time.Millisecond)
	})
}

func TestScheduler_StopWhileWaiting(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 8, 24, 10, 0, 0, 0, time.Local))

	store := &schedulerFakeStore{groups: []string{"123456"}, hour: 9, minute: 0}
	runner := newChannelRunner()

	s := NewService(store, runner, 5*time.Millisecond)
	s.nowFunc = clock.Now

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))

	running, _ := s.Status()
	assert.True(t, running)

	cancel()
	wg.Wait()

	running, _ = s.Status()
	assert.False(t, running)
	assert.Empty(t, runner.fired)
}

func TestScheduler_StartTwice(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 8, 24, 10, 0, 0, 0, time.Local))

	store := &schedulerFakeStore{groups: []string{"123456"}, hour: 9, minute: 0}
	runner := newChannelRunner()

	s := NewService(store, runner, 5*time.Millisecond)
	s.nowFunc = clock.Now

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}

	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))

	// 중복 시작은 에러 없이 무시된다.
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))

	cancel()
	wg.Wait()
}
