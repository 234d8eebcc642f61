//go:generate mockgen -destination=./mocks/caller.go -package=mocks . Caller
package aria2

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultHost    = "127.0.0.1"
	DefaultPort    = 6800
	DefaultSecret  = "MCSCS"
	DefaultTimeout = time.Second
)

// Caller issues one JSON-RPC method call and returns the raw result payload.
type Caller interface {
	Call(ctx context.Context, method string, params []any) (json.RawMessage, error)
}

type TransportConfig struct {
	Host    string
	Port    int
	Secret  string
	Timeout time.Duration
}

// Transport talks to the aria2 control endpoint over HTTP. It never retries.
type Transport struct {
	endpoint string
	secret   string
	timeout  time.Duration
	client   *http.Client
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      string `json:"id"`
	Params  []any  `json:"params"`
}

type response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewTransport(cfg TransportConfig) *Transport {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Transport{
		endpoint: fmt.Sprintf("http://%s/jsonrpc", net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))),
		secret:   cfg.Secret,
		timeout:  cfg.Timeout,
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               nil, // control port is always local
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

// NewTransportWithEndpoint targets an explicit endpoint URL, e.g. a test server.
func NewTransportWithEndpoint(endpoint, secret string, timeout time.Duration) *Transport {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Transport{endpoint: endpoint, secret: secret, timeout: timeout, client: &http.Client{}}
}

func (t *Transport) Endpoint() string { return t.endpoint }

func (t *Transport) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	merged := make([]any, 0, len(params)+1)
	merged = append(merged, "token:"+t.secret)
	merged = append(merged, params...)
	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		Method:  method,
		ID:      uuid.NewString(),
		Params:  merged,
	})
	if err != nil {
		return nil, rpcError(method, 0, fmt.Errorf("error encoding request: %w", err))
	}
	log.Debug().Str("op", "aria2/transport").Str("method", method).Msgf("aria2c <- %s", redact(body, t.secret))

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, rpcError(method, 0, fmt.Errorf("error creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return nil, ctx.Err()
		}
		if isUnreachable(err) {
			return nil, timeoutError(method, err)
		}
		return nil, rpcError(method, 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if isUnreachable(err) {
			return nil, timeoutError(method, err)
		}
		return nil, rpcError(method, 0, fmt.Errorf("error reading response: %w", err))
	}
	log.Debug().Str("op", "aria2/transport").Str("method", method).Msgf("aria2c -> %s", raw)

	var envelope response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, rpcError(method, 0, fmt.Errorf("daemon returned status %d", resp.StatusCode))
		}
		return nil, rpcError(method, 0, fmt.Errorf("malformed response: %w", err))
	}
	if envelope.Error != nil {
		return nil, rpcError(method, envelope.Error.Code, errors.New(envelope.Error.Message))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, rpcError(method, 0, fmt.Errorf("daemon returned status %d", resp.StatusCode))
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil, rpcError(method, 0, errors.New("response has no result"))
	}
	return envelope.Result, nil
}

func isUnreachable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func redact(body []byte, secret string) []byte {
	if secret == "" {
		return body
	}
	return bytes.ReplaceAll(body, []byte("token:"+secret), []byte("token:***"))
}
