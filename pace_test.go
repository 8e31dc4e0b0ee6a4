package pace

import (
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize_wrapper(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	fn := Serialize(nil, func(arg int) (int, error) { return arg * 2, nil })

	p1, p2, p3 := fn(1), fn(2), fn(3)

	require.NotSame(t, p1, p2)
	require.NotSame(t, p2, p3)
	require.Equal(t, []int{2, 4, 6}, await(t, p1, p2, p3))
}

func TestThrottle_wrapperFirstArgumentWins(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	fn := Throttle(2*unit, nil, func(arg string) (string, error) { return arg, nil })

	p1, p2 := fn(`first`), fn(`second`)

	require.Same(t, p1, p2)
	require.Equal(t, []string{`first`, `first`}, await(t, p1, p2))
}

func TestDebounce_wrapperLastArgumentWins(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	fn := Debounce(2*unit, nil, func(arg string) (string, error) { return arg, nil })

	p1, p2 := fn(`first`), fn(`second`)

	require.Same(t, p1, p2)
	require.Equal(t, []string{`second`, `second`}, await(t, p1, p2))
}

func TestWrappers_nilFunctionPanics(t *testing.T) {
	for _, tc := range [...]struct {
		name string
		fn   func()
	}{
		{`throttle`, func() { Throttle[int, int](unit, nil, nil) }},
		{`debounce`, func() { Debounce[int, int](unit, nil, nil) }},
		{`serialize`, func() { Serialize[int, int](nil, nil) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.PanicsWithValue(t, `pace: nil function`, tc.fn)
		})
	}
}

// logEvent implements a minimal subset of the logiface event interface,
// capturing only the message.
type logEvent struct {
	logiface.UnimplementedEvent
	level logiface.Level
	msg   string
}

func (x *logEvent) Level() logiface.Level { return x.level }

func (x *logEvent) AddField(key string, val any) {}

func (x *logEvent) AddMessage(msg string) bool { x.msg = msg; return true }

func TestThrottler_logsWindowLifecycle(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	var mu sync.Mutex
	var messages []string

	logger := logiface.New[*logEvent](
		logiface.WithEventFactory[*logEvent](logiface.EventFactoryFunc[*logEvent](func(level logiface.Level) *logEvent {
			return &logEvent{level: level}
		})),
		logiface.WithWriter[*logEvent](logiface.NewWriterFunc(func(event *logEvent) error {
			mu.Lock()
			messages = append(messages, event.msg)
			mu.Unlock()
			return nil
		})),
		logiface.WithLevel[*logEvent](logiface.LevelDebug),
	).Logger()

	x := NewThrottler[int](unit, &ThrottleConfig{Logger: logger})
	require.Equal(t, []int{1}, await(t, x.Do(func() (int, error) { return 1, nil })))

	logged := func(msg string) func() bool {
		return func() bool {
			mu.Lock()
			defer mu.Unlock()
			for _, m := range messages {
				if m == msg {
					return true
				}
			}
			return false
		}
	}
	waitFor(t, time.Second, logged(`throttle window opened`), `missing window opened event`)
	waitFor(t, time.Second, logged(`window closed`), `missing window closed event`)
}

func TestRunThunk_panicValue(t *testing.T) {
	_, err := runThunk(func() (int, error) { panic(`some cause`) })
	require.EqualError(t, err, `pace: panic in thunk: some cause`)
	assert.NotPanics(t, func() {
		if _, err := runThunk(func() (int, error) { return 1, nil }); err != nil {
			t.Error(err)
		}
	})
}
