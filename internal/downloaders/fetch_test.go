package downloaders

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/tanq16/mcscs/internal/aria2"
	"github.com/tanq16/mcscs/internal/aria2/mocks"
	"github.com/tanq16/mcscs/internal/daemon"
	"github.com/tanq16/mcscs/internal/orchestrator"
)

var errUnreachable = &aria2.TransportError{Method: "aria2.addUri", Kind: aria2.KindTimeout, Err: errors.New("connection refused")}

func newFetcher(caller aria2.Caller) *Fetcher {
	session := daemon.Attach(aria2.NewClient(caller), "test")
	gate := daemon.NewGateFunc(func(context.Context) (*daemon.Session, error) { return session, nil })
	return NewFetcher(gate, orchestrator.Options{Delay: orchestrator.FixedDelay(0)})
}

func TestFetchRetriesOnceAfterTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := mocks.NewMockCaller(ctrl)
	gomock.InOrder(
		caller.EXPECT().Call(gomock.Any(), "aria2.addUri", gomock.Any()).Return(nil, errUnreachable),
		caller.EXPECT().Call(gomock.Any(), "aria2.getVersion", gomock.Any()).Return(json.RawMessage(`{"version":"1.37.0"}`), nil),
		caller.EXPECT().Call(gomock.Any(), "aria2.addUri", gomock.Any()).Return(json.RawMessage(`"g2"`), nil),
		caller.EXPECT().Call(gomock.Any(), "aria2.tellStatus", []any{"g2", aria2.StatusKeys}).
			Return(json.RawMessage(`{"gid":"g2","status":"complete","completedLength":"10","totalLength":"10"}`), nil),
		caller.EXPECT().Call(gomock.Any(), "aria2.tellStatus", []any{"g2", []string{"files"}}).
			Return(json.RawMessage(`{"files":[{"path":"/tmp/paper.jar"}]}`), nil),
	)

	path, err := newFetcher(caller).Fetch(context.Background(), "https://example.test/paper.jar", nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/paper.jar", path)
}

func TestFetchTracksSameTaskAfterPollTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := mocks.NewMockCaller(ctrl)
	slowPoll := &aria2.TransportError{Method: "aria2.tellStatus", Kind: aria2.KindTimeout, Err: errors.New("deadline exceeded")}
	gomock.InOrder(
		caller.EXPECT().Call(gomock.Any(), "aria2.addUri", gomock.Any()).Return(json.RawMessage(`"g1"`), nil),
		caller.EXPECT().Call(gomock.Any(), "aria2.tellStatus", []any{"g1", aria2.StatusKeys}).Return(nil, slowPoll),
		caller.EXPECT().Call(gomock.Any(), "aria2.getVersion", gomock.Any()).Return(json.RawMessage(`{"version":"1.37.0"}`), nil),
		caller.EXPECT().Call(gomock.Any(), "aria2.tellStatus", []any{"g1", aria2.StatusKeys}).
			Return(json.RawMessage(`{"gid":"g1","status":"complete","completedLength":"10","totalLength":"10"}`), nil),
		caller.EXPECT().Call(gomock.Any(), "aria2.tellStatus", []any{"g1", []string{"files"}}).
			Return(json.RawMessage(`{"files":[{"path":"/tmp/paper.jar"}]}`), nil),
	)

	path, err := newFetcher(caller).Fetch(context.Background(), "https://example.test/paper.jar", nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/paper.jar", path)
}

func TestFetchGivesUpWhenDaemonStaysDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := mocks.NewMockCaller(ctrl)
	gomock.InOrder(
		caller.EXPECT().Call(gomock.Any(), "aria2.addUri", gomock.Any()).Return(nil, errUnreachable),
		caller.EXPECT().Call(gomock.Any(), "aria2.getVersion", gomock.Any()).Return(nil, errUnreachable),
	)

	_, err := newFetcher(caller).Fetch(context.Background(), "https://example.test/paper.jar", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, aria2.ErrTimeout)
	assert.Contains(t, err.Error(), "daemon restart failed")
}

func TestFetchDoesNotRetryOtherFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := mocks.NewMockCaller(ctrl)
	caller.EXPECT().Call(gomock.Any(), "aria2.addUri", gomock.Any()).
		Return(nil, &aria2.TransportError{Method: "aria2.addUri", Kind: aria2.KindOther, Code: 1, Err: errors.New("Unauthorized")})

	_, err := newFetcher(caller).Fetch(context.Background(), "https://example.test/paper.jar", nil)
	assert.ErrorIs(t, err, aria2.ErrRPC)
}

func TestFetchGateFailure(t *testing.T) {
	gate := daemon.NewGateFunc(func(context.Context) (*daemon.Session, error) {
		return nil, daemon.ErrExecutableNotFound
	})
	_, err := NewFetcher(gate, orchestrator.Options{}).Fetch(context.Background(), "https://example.test/a", nil)
	assert.ErrorIs(t, err, daemon.ErrExecutableNotFound)
}
