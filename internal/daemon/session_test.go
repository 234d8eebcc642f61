package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/tanq16/mcscs/internal/aria2"
	"github.com/tanq16/mcscs/internal/aria2/mocks"
)

var errUnreachable = &aria2.TransportError{Method: "aria2.getVersion", Kind: aria2.KindTimeout, Err: errors.New("connection refused")}

func testOptions(t *testing.T, caller aria2.Caller) Options {
	t.Helper()
	dir := t.TempDir()
	exe := filepath.Join(dir, "aria2c-test")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755))
	return Options{
		WorkDir:      filepath.Join(dir, "MCSCS"),
		Executable:   exe,
		ReadyTimeout: time.Second,
		Caller:       caller,
		Now:          func() time.Time { return time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC) },
	}
}

func TestInitAttachesToRunningDaemon(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := mocks.NewMockCaller(ctrl)
	caller.EXPECT().Call(gomock.Any(), "aria2.getVersion", gomock.Any()).
		Return(json.RawMessage(`{"version":"1.37.0","enabledFeatures":[]}`), nil)

	opts := testOptions(t, caller)
	opts.Spawn = func(context.Context, string, []string) error {
		t.Fatal("daemon should not be spawned")
		return nil
	}
	session, err := Init(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "1.37.0", session.Version())
}

func TestInitSpawnsWhenUnreachable(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := mocks.NewMockCaller(ctrl)
	gomock.InOrder(
		caller.EXPECT().Call(gomock.Any(), "aria2.getVersion", gomock.Any()).Return(nil, errUnreachable).Times(2),
		caller.EXPECT().Call(gomock.Any(), "aria2.getVersion", gomock.Any()).
			Return(json.RawMessage(`{"version":"1.36.0"}`), nil),
	)

	opts := testOptions(t, caller)
	var spawnedPath string
	var spawnedArgs []string
	opts.Spawn = func(_ context.Context, path string, args []string) error {
		spawnedPath = path
		spawnedArgs = args
		return nil
	}

	session, err := Init(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "1.36.0", session.Version())
	assert.Equal(t, opts.Executable, spawnedPath)
	assert.Contains(t, spawnedArgs, "--enable-rpc=true")
	assert.Contains(t, spawnedArgs, "--rpc-secret=MCSCS")
	assert.Contains(t, spawnedArgs, "--rpc-listen-port=6800")
	assert.Contains(t, spawnedArgs, "--quiet=true")

	assert.DirExists(t, filepath.Join(opts.WorkDir, "downloads"))
	assert.DirExists(t, filepath.Join(opts.WorkDir, "logs", "202401020304"))
}

func TestInitSpawnFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := mocks.NewMockCaller(ctrl)
	caller.EXPECT().Call(gomock.Any(), "aria2.getVersion", gomock.Any()).Return(nil, errUnreachable)

	opts := testOptions(t, caller)
	opts.Spawn = func(context.Context, string, []string) error { return errors.New("exec format error") }

	_, err := Init(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exec format error")
}

func TestInitNeverReady(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := mocks.NewMockCaller(ctrl)
	caller.EXPECT().Call(gomock.Any(), "aria2.getVersion", gomock.Any()).Return(nil, errUnreachable).AnyTimes()

	opts := testOptions(t, caller)
	opts.ReadyTimeout = 250 * time.Millisecond
	opts.Spawn = func(context.Context, string, []string) error { return nil }

	_, err := Init(context.Background(), opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, err, aria2.ErrTimeout)
}

func TestInitRPCErrorIsNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := mocks.NewMockCaller(ctrl)
	unauthorized := &aria2.TransportError{Method: "aria2.getVersion", Kind: aria2.KindOther, Code: 1, Err: errors.New("Unauthorized")}
	caller.EXPECT().Call(gomock.Any(), "aria2.getVersion", gomock.Any()).Return(nil, unauthorized)

	opts := testOptions(t, caller)
	opts.Spawn = func(context.Context, string, []string) error {
		t.Fatal("daemon should not be spawned")
		return nil
	}
	_, err := Init(context.Background(), opts)
	assert.ErrorIs(t, err, aria2.ErrRPC)
}

func TestGateLatchesFirstSuccess(t *testing.T) {
	calls := 0
	want := Attach(nil, "1.37.0")
	gate := NewGateFunc(func(context.Context) (*Session, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("daemon not ready")
		}
		return want, nil
	})

	_, err := gate.Acquire(context.Background())
	require.Error(t, err)

	first, err := gate.Acquire(context.Background())
	require.NoError(t, err)
	second, err := gate.Acquire(context.Background())
	require.NoError(t, err)

	assert.Same(t, want, first)
	assert.Same(t, first, second)
	assert.Equal(t, 2, calls)
}

func TestEnsureOnAttachedSessionOnlyProbes(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := mocks.NewMockCaller(ctrl)
	caller.EXPECT().Call(gomock.Any(), "aria2.getVersion", gomock.Any()).Return(nil, errUnreachable)

	session := Attach(aria2.NewClient(caller), "1.37.0")
	err := session.Ensure(context.Background())
	assert.ErrorIs(t, err, aria2.ErrTimeout)
}

func TestEnsureRelaunchesManagedDaemon(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := mocks.NewMockCaller(ctrl)
	gomock.InOrder(
		caller.EXPECT().Call(gomock.Any(), "aria2.getVersion", gomock.Any()).
			Return(json.RawMessage(`{"version":"1.37.0"}`), nil),
		caller.EXPECT().Call(gomock.Any(), "aria2.getVersion", gomock.Any()).Return(nil, errUnreachable),
		caller.EXPECT().Call(gomock.Any(), "aria2.getVersion", gomock.Any()).
			Return(json.RawMessage(`{"version":"1.37.0"}`), nil),
	)

	opts := testOptions(t, caller)
	spawns := 0
	opts.Spawn = func(context.Context, string, []string) error {
		spawns++
		return nil
	}
	session, err := Init(context.Background(), opts)
	require.NoError(t, err)
	require.NoError(t, session.Ensure(context.Background()))
	assert.Equal(t, 1, spawns)
}

func TestBuildArgs(t *testing.T) {
	dir := t.TempDir()
	opts := Options{WorkDir: dir, RPCPort: 6801, RPCSecret: "s3cret"}.withDefaults()
	logDir := filepath.Join(dir, "logs", "202401020304")

	args := BuildArgs(opts, logDir, true)
	assert.Contains(t, args, "--dir="+filepath.Join(dir, "downloads"))
	assert.Contains(t, args, "--log="+filepath.Join(logDir, "aria2c.log"))
	assert.Contains(t, args, "--rpc-listen-port=6801")
	assert.Contains(t, args, "--rpc-secret=s3cret")
	assert.Contains(t, args, "--rpc-max-request-size=10M")
	assert.Contains(t, args, "--console-log-level=info")
	for _, arg := range args {
		assert.False(t, strings.HasPrefix(arg, "--conf-path="), "conf path without config file")
	}

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "aria2c"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aria2c", "aria2c.conf"), []byte("max-connection-per-server=8\n"), 0644))
	args = BuildArgs(opts, logDir, false)
	assert.Contains(t, args, "--conf-path="+filepath.Join(dir, "aria2c", "aria2c.conf"))
	assert.Contains(t, args, "--quiet=true")
}

func TestFindExecutablePrefersBundled(t *testing.T) {
	dir := t.TempDir()
	bundled := filepath.Join(dir, "aria2c", ExecutableName())
	require.NoError(t, os.MkdirAll(filepath.Dir(bundled), 0755))
	require.NoError(t, os.WriteFile(bundled, []byte{}, 0755))

	got, err := FindExecutable(Options{WorkDir: dir})
	require.NoError(t, err)
	assert.Equal(t, bundled, got)

	_, err = FindExecutable(Options{WorkDir: dir, Executable: filepath.Join(dir, "missing")})
	assert.ErrorIs(t, err, ErrExecutableNotFound)
}
