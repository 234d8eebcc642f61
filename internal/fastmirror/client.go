package fastmirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/mcscs/internal/utils"
)

const (
	DefaultBaseURL  = "https://download.fastmirror.net"
	DefaultPageSize = 25
)

var (
	ErrAPI           = errors.New("fastmirror api error")
	ErrCoreNotFound  = errors.New("core not found")
	ErrBuildNotFound = errors.New("build not found")
)

// Client reads the FastMirror catalog. Nothing is cached between calls.
type Client struct {
	baseURL  string
	http     utils.HTTPDoer
	pageSize int
}

func NewClient(baseURL string, client utils.HTTPDoer, pageSize int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		http:     client,
		pageSize: pageSize,
	}
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Code    json.RawMessage `json:"code"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
}

// ListCores returns the catalog keyed by core name.
func (c *Client) ListCores(ctx context.Context) (map[string]Core, error) {
	var list []Core
	if err := c.get(ctx, c.baseURL+"/api/v3", &list); err != nil {
		return nil, err
	}
	cores := make(map[string]Core, len(list))
	for _, core := range list {
		if core.Name == "" {
			continue
		}
		cores[core.Name] = core
	}
	return cores, nil
}

// ListBuilds returns the first page of builds for core and Minecraft
// version, keyed by build id (core_version).
func (c *Client) ListBuilds(ctx context.Context, core, version string) (map[string]Build, error) {
	endpoint := fmt.Sprintf("%s/api/v3/%s/%s?offset=0&limit=%d",
		c.baseURL, url.PathEscape(core), url.PathEscape(version), c.pageSize)
	var page buildPage
	if err := c.get(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	builds := make(map[string]Build, len(page.Builds))
	for _, build := range page.Builds {
		if build.CoreVersion == "" {
			continue
		}
		builds[build.CoreVersion] = build
	}
	return builds, nil
}

// ResolveDownloadURL fills the download template for one build.
func (c *Client) ResolveDownloadURL(core, version, build string) string {
	return fmt.Sprintf("%s/download/%s/%s/%s",
		c.baseURL, url.PathEscape(core), url.PathEscape(version), url.PathEscape(build))
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("error creating API request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	log.Debug().Str("op", "fastmirror/client").Msgf("GET %s", endpoint)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error making API request: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && env.Message != "" {
			return fmt.Errorf("%w: %s returned %d: %s", ErrAPI, endpoint, resp.StatusCode, env.Message)
		}
		return fmt.Errorf("%w: %s returned %d", ErrAPI, endpoint, resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: error decoding response from %s: %w", ErrAPI, endpoint, decodeErr)
	}
	if !env.Success {
		return fmt.Errorf("%w: %s: %s", ErrAPI, endpoint, env.Message)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: unexpected data from %s: %w", ErrAPI, endpoint, err)
	}
	return nil
}
