package aria2

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type State string

const (
	StateActive   State = "active"
	StateWaiting  State = "waiting"
	StatePaused   State = "paused"
	StateError    State = "error"
	StateComplete State = "complete"
	StateRemoved  State = "removed"
)

// StatusKeys selects the fields polled on every tick.
var StatusKeys = []string{
	"gid",
	"status",
	"completedLength",
	"totalLength",
	"downloadSpeed",
	"connections",
	"errorCode",
	"errorMessage",
}

// Count is a number that aria2 encodes as a decimal string.
type Count int64

func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" || string(data) == `""` {
		*c = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid counter %q: %w", data, err)
	}
	*c = Count(n)
	return nil
}

func (c Count) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(c), 10))
}

// Status is the typed result of aria2.tellStatus. Fields that were not
// requested stay at their zero value.
type Status struct {
	GID             string `json:"gid,omitempty"`
	State           State  `json:"status,omitempty"`
	TotalLength     Count  `json:"totalLength"`
	CompletedLength Count  `json:"completedLength"`
	DownloadSpeed   Count  `json:"downloadSpeed"`
	Connections     Count  `json:"connections"`
	ErrorCode       string `json:"errorCode,omitempty"`
	ErrorMessage    string `json:"errorMessage,omitempty"`
	Files           []File `json:"files,omitempty"`
}

type File struct {
	Index           string `json:"index,omitempty"`
	Path            string `json:"path"`
	Length          Count  `json:"length"`
	CompletedLength Count  `json:"completedLength"`
	Selected        string `json:"selected,omitempty"`
	URIs            []URI  `json:"uris,omitempty"`
}

type URI struct {
	URI    string `json:"uri"`
	Status string `json:"status"`
}

type Version struct {
	Version         string   `json:"version"`
	EnabledFeatures []string `json:"enabledFeatures"`
}
