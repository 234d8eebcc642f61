package aria2

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindOther covers error responses and malformed payloads.
	KindOther Kind = iota
	// KindTimeout means the daemon did not answer in time or refused the connection.
	KindTimeout
)

var (
	ErrTimeout = errors.New("aria2 daemon unreachable")
	ErrRPC     = errors.New("aria2 rpc failed")
)

type TransportError struct {
	Method string
	Kind   Kind
	Code   int // JSON-RPC error code, when the daemon sent one
	Err    error
}

func (e *TransportError) Error() string {
	if e.Kind == KindTimeout {
		return fmt.Sprintf("%s: daemon unreachable: %v", e.Method, e.Err)
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s: rpc error %d: %v", e.Method, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrRPC:
		return e.Kind == KindOther
	}
	return false
}

func timeoutError(method string, err error) error {
	return &TransportError{Method: method, Kind: KindTimeout, Err: err}
}

func rpcError(method string, code int, err error) error {
	return &TransportError{Method: method, Kind: KindOther, Code: code, Err: err}
}
