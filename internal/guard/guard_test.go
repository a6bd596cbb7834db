package guard

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProcessMatches(t *testing.T) {
	tests := []struct {
		name string
		proc process
		want bool
	}{
		{"windows exe", process{Exe: "GodForsaken.exe"}, true},
		{"case insensitive", process{Exe: `C:\Games\GODFORSAKEN.EXE`}, true},
		{"unix exe path", process{Exe: "/opt/games/GodForsaken.exe"}, true},
		{"comm exact", process{Comm: "GodForsaken.exe"}, true},
		{"wine command line", process{Comm: "wine64-preload", Exe: "/usr/bin/wine64-preload",
			Args: []string{"Z:\\steam\\common\\GodForsaken\\GodForsaken.exe", "-dx12"}}, true},
		{"other process", process{Comm: "bash", Exe: "/usr/bin/bash", Args: []string{"bash"}}, false},
		{"prefix is not a match", process{Exe: "GodForsaken.exe.bak"}, false},
		{"empty", process{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.proc.matches(GameExecutable))
		})
	}
}

func TestProcessMatches_TruncatedComm(t *testing.T) {
	long := "GodForsakenLauncher.exe"
	assert.True(t, process{Comm: "GodForsakenLaun"}.matches(long))
	assert.False(t, process{Comm: "GodForsakenLa"}.matches(long), "short comm is not truncated")
	assert.False(t, process{Comm: "GodForsaken"}.matches(""))
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"GodForsaken.exe":               "GodForsaken.exe",
		"/usr/bin/wine":                 "wine",
		`C:\Games\GodForsaken.exe`:      "GodForsaken.exe",
		`Z:\mixed/path\GodForsaken.exe`: "GodForsaken.exe",
		"/trailing/":                    "trailing",
	}
	for in, want := range tests {
		assert.Equal(t, want, baseName(in), in)
	}
}

func TestProcessGuard_Running(t *testing.T) {
	g := NewProcessGuard(GameExecutable)

	g.list = func(context.Context) ([]process, error) {
		return []process{{PID: 1, Comm: "init"}, {PID: 77, Exe: "GodForsaken.exe"}}, nil
	}
	running, err := g.Running(context.Background())
	require.NoError(t, err)
	assert.True(t, running)

	g.list = func(context.Context) ([]process, error) {
		return []process{{PID: 1, Comm: "init"}}, nil
	}
	running, err = g.Running(context.Background())
	require.NoError(t, err)
	assert.False(t, running)

	listErr := errors.New("permission denied")
	g.list = func(context.Context) ([]process, error) { return nil, listErr }
	_, err = g.Running(context.Background())
	assert.True(t, errors.Is(err, listErr))
}

// mockGuard is a Guard driven by testify expectations.
type mockGuard struct {
	mock.Mock
}

func (m *mockGuard) Running(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func TestFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("first supported guard decides", func(t *testing.T) {
		unsupported := &mockGuard{}
		unsupported.On("Running", ctx).Return(false, ErrUnsupported)
		first := &mockGuard{}
		first.On("Running", ctx).Return(false, nil)
		second := &mockGuard{}

		running, err := Fallback(unsupported, first, second).Running(ctx)
		require.NoError(t, err)
		assert.False(t, running)
		unsupported.AssertExpectations(t)
		first.AssertExpectations(t)
		second.AssertNotCalled(t, "Running", mock.Anything)
	})

	t.Run("errors propagate", func(t *testing.T) {
		boom := errors.New("boom")
		g := &mockGuard{}
		g.On("Running", ctx).Return(false, boom)

		_, err := Fallback(g).Running(ctx)
		assert.True(t, errors.Is(err, boom))
	})

	t.Run("nothing supported", func(t *testing.T) {
		g := &mockGuard{}
		g.On("Running", ctx).Return(false, ErrUnsupported)

		_, err := Fallback(g).Running(ctx)
		assert.True(t, errors.Is(err, ErrUnsupported))

		_, err = Fallback().Running(ctx)
		assert.True(t, errors.Is(err, ErrUnsupported))
	})
}

func TestEnsureStopped(t *testing.T) {
	ctx := context.Background()

	running := &mockGuard{}
	running.On("Running", ctx).Return(true, nil)
	assert.True(t, errors.Is(EnsureStopped(ctx, running), ErrGameRunning))

	stopped := &mockGuard{}
	stopped.On("Running", ctx).Return(false, nil)
	assert.NoError(t, EnsureStopped(ctx, stopped))

	boom := errors.New("boom")
	failing := &mockGuard{}
	failing.On("Running", ctx).Return(false, boom)
	err := EnsureStopped(ctx, failing)
	assert.True(t, errors.Is(err, boom))
	assert.False(t, errors.Is(err, ErrGameRunning))
}

func TestMutexGuard_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMutexGuard(GameMutex).Running(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
