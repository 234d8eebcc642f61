package aria2

import (
	"context"
	"encoding/json"
	"fmt"
)

// Client exposes the aria2 methods used by mcscs on top of a Caller.
type Client struct {
	caller Caller
}

func NewClient(caller Caller) *Client {
	return &Client{caller: caller}
}

// AddURI submits one download and returns its GID.
func (c *Client) AddURI(ctx context.Context, uris ...string) (string, error) {
	var gid string
	if err := c.call(ctx, "aria2.addUri", []any{uris}, &gid); err != nil {
		return "", err
	}
	return gid, nil
}

// TellStatus queries a task. With no keys the daemon returns every field.
func (c *Client) TellStatus(ctx context.Context, gid string, keys ...string) (*Status, error) {
	params := []any{gid}
	if len(keys) > 0 {
		params = append(params, keys)
	}
	var status Status
	if err := c.call(ctx, "aria2.tellStatus", params, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Unpause resumes a paused task; the daemon echoes the GID on success.
func (c *Client) Unpause(ctx context.Context, gid string) (string, error) {
	var echoed string
	if err := c.call(ctx, "aria2.unpause", []any{gid}, &echoed); err != nil {
		return "", err
	}
	return echoed, nil
}

func (c *Client) Remove(ctx context.Context, gid string) (string, error) {
	var echoed string
	if err := c.call(ctx, "aria2.remove", []any{gid}, &echoed); err != nil {
		return "", err
	}
	return echoed, nil
}

func (c *Client) GetVersion(ctx context.Context) (*Version, error) {
	var version Version
	if err := c.call(ctx, "aria2.getVersion", []any{}, &version); err != nil {
		return nil, err
	}
	return &version, nil
}

func (c *Client) Shutdown(ctx context.Context) error {
	var ok string
	return c.call(ctx, "aria2.shutdown", []any{}, &ok)
}

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	raw, err := c.caller.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return rpcError(method, 0, fmt.Errorf("unexpected result %s: %w", raw, err))
	}
	return nil
}
