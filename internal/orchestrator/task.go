package orchestrator

import (
	"errors"
	"fmt"

	"github.com/tanq16/mcscs/internal/aria2"
	"github.com/tanq16/mcscs/internal/progress"
)

type State string

const (
	StatePending  State = "Pending"
	StateActive   State = "Active"
	StatePaused   State = "Paused"
	StateComplete State = "Complete"
	StateErrored  State = "Errored"
	StateRemoved  State = "Removed"
)

func (s State) Terminal() bool {
	return s == StateComplete || s == StateErrored || s == StateRemoved
}

var (
	ErrDownloadFailed      = errors.New("download failed")
	ErrMalformedCompletion = errors.New("daemon reported completion without a file")
	ErrResumeRefused       = errors.New("daemon refused to resume task")
	ErrUnexpectedState     = errors.New("unexpected task state")
)

// DownloadFailedError is returned when the daemon ends a task in a failure state.
type DownloadFailedError struct {
	GID     string
	URL     string
	State   State
	Code    string
	Message string
}

func (e *DownloadFailedError) Error() string {
	msg := fmt.Sprintf("download of %s (task %s) ended in state %s", e.URL, e.GID, e.State)
	if e.Code != "" && e.Code != "0" {
		msg += " [code " + e.Code + "]"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *DownloadFailedError) Is(target error) bool { return target == ErrDownloadFailed }

// Task is the latest snapshot of one daemon download. It is replaced on every
// poll and never modified locally.
type Task struct {
	GID             string
	URL             string
	State           State
	CompletedBytes  int64
	TotalBytes      int64
	RateBytesPerSec int64
	Connections     int
	ErrorCode       string
	ErrorMessage    string
	ResultPath      string // only set when State is Complete
}

func (t Task) Snapshot() progress.Snapshot {
	return progress.Snapshot{
		Completed:   t.CompletedBytes,
		Total:       t.TotalBytes,
		Rate:        t.RateBytesPerSec,
		Connections: t.Connections,
	}
}

func taskFromStatus(gid, url string, status *aria2.Status) (Task, error) {
	state, err := mapState(status.State)
	if err != nil {
		return Task{}, fmt.Errorf("task %s (%s): %w", gid, url, err)
	}
	return Task{
		GID:             gid,
		URL:             url,
		State:           state,
		CompletedBytes:  int64(status.CompletedLength),
		TotalBytes:      int64(status.TotalLength),
		RateBytesPerSec: int64(status.DownloadSpeed),
		Connections:     int(status.Connections),
		ErrorCode:       status.ErrorCode,
		ErrorMessage:    status.ErrorMessage,
	}, nil
}

func mapState(s aria2.State) (State, error) {
	switch s {
	case aria2.StateWaiting:
		return StatePending, nil
	case aria2.StateActive:
		return StateActive, nil
	case aria2.StatePaused:
		return StatePaused, nil
	case aria2.StateComplete:
		return StateComplete, nil
	case aria2.StateError:
		return StateErrored, nil
	case aria2.StateRemoved:
		return StateRemoved, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnexpectedState, string(s))
}
