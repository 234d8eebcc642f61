package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/mcscs/internal/aria2"
	"github.com/tanq16/mcscs/internal/utils"
)

const (
	DefaultReadyTimeout = 5 * time.Second
	readyPollInterval   = 100 * time.Millisecond
)

var ErrNotReady = errors.New("aria2 daemon did not become ready")

type Options struct {
	WorkDir      string // root of downloads/, logs/ and aria2c/
	Executable   string // explicit aria2c path; discovered when empty
	Host         string
	RPCPort      int
	RPCSecret    string
	RPCTimeout   time.Duration
	ReadyTimeout time.Duration

	// Caller replaces the HTTP transport, e.g. with a test double.
	Caller aria2.Caller
	// Spawn starts the daemon process. Defaults to a detached exec.Cmd.
	Spawn func(ctx context.Context, path string, args []string) error
	// Now stamps the per-run log directory.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.WorkDir == "" {
		o.WorkDir = utils.WorkDirName
	}
	if o.Host == "" {
		o.Host = aria2.DefaultHost
	}
	if o.RPCPort == 0 {
		o.RPCPort = aria2.DefaultPort
	}
	if o.RPCSecret == "" {
		o.RPCSecret = aria2.DefaultSecret
	}
	if o.RPCTimeout == 0 {
		o.RPCTimeout = aria2.DefaultTimeout
	}
	if o.ReadyTimeout == 0 {
		o.ReadyTimeout = DefaultReadyTimeout
	}
	if o.Spawn == nil {
		o.Spawn = spawnDetached
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Session proves that the daemon was initialized. Orchestrators can only be
// built from one, so no download is submitted before the daemon answered.
type Session struct {
	client  *aria2.Client
	opts    Options
	managed bool

	mu      sync.Mutex
	version string
}

// Attach wraps a client for a daemon that is managed elsewhere. Ensure on an
// attached session only probes and never spawns a process.
func Attach(client *aria2.Client, version string) *Session {
	return &Session{client: client, version: version}
}

func (s *Session) Client() *aria2.Client { return s.client }

func (s *Session) Version() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Ensure checks that the daemon still answers and relaunches it when it is
// unreachable. Callers use it once before retrying an operation that failed
// with aria2.ErrTimeout.
func (s *Session) Ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	version, err := s.client.GetVersion(ctx)
	if err == nil {
		s.version = version.Version
		return nil
	}
	if !s.managed || !errors.Is(err, aria2.ErrTimeout) {
		return err
	}
	log.Warn().Str("op", "daemon/session").Msg("aria2c unreachable, relaunching")
	if err := launch(ctx, s.opts); err != nil {
		return err
	}
	v, err := waitReady(ctx, s.client, s.opts.ReadyTimeout)
	if err != nil {
		return err
	}
	s.version = v
	return nil
}

// Init probes the daemon and starts it when nothing answers on the RPC port.
func Init(ctx context.Context, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	caller := opts.Caller
	if caller == nil {
		caller = aria2.NewTransport(aria2.TransportConfig{
			Host:    opts.Host,
			Port:    opts.RPCPort,
			Secret:  opts.RPCSecret,
			Timeout: opts.RPCTimeout,
		})
	}
	client := aria2.NewClient(caller)
	session := &Session{client: client, opts: opts, managed: true}

	version, err := client.GetVersion(ctx)
	if err == nil {
		log.Debug().Str("op", "daemon/session").Msgf("attached to running aria2c %s", version.Version)
		session.version = version.Version
		return session, nil
	}
	if !errors.Is(err, aria2.ErrTimeout) {
		return nil, fmt.Errorf("error probing aria2 daemon: %w", err)
	}

	if err := launch(ctx, opts); err != nil {
		return nil, err
	}
	v, err := waitReady(ctx, client, opts.ReadyTimeout)
	if err != nil {
		return nil, err
	}
	log.Info().Str("op", "daemon/session").Msgf("aria2c %s started on port %d", v, opts.RPCPort)
	session.version = v
	return session, nil
}

func waitReady(ctx context.Context, client *aria2.Client, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()
	for {
		version, err := client.GetVersion(ctx)
		if err == nil {
			return version.Version, nil
		}
		if !errors.Is(err, aria2.ErrTimeout) {
			return "", fmt.Errorf("error probing aria2 daemon: %w", err)
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w after %s: %w", ErrNotReady, timeout, err)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// Gate performs daemon initialization at most once per process. A failed
// attempt is not remembered, so the next Acquire tries again. A session is
// never reset once handed out.
type Gate struct {
	mu      sync.Mutex
	session *Session
	init    func(ctx context.Context) (*Session, error)
}

func NewGate(opts Options) *Gate {
	return &Gate{init: func(ctx context.Context) (*Session, error) {
		return Init(ctx, opts)
	}}
}

// NewGateFunc builds a gate around a custom initializer.
func NewGateFunc(init func(ctx context.Context) (*Session, error)) *Gate {
	return &Gate{init: init}
}

func (g *Gate) Acquire(ctx context.Context) (*Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session != nil {
		return g.session, nil
	}
	session, err := g.init(ctx)
	if err != nil {
		return nil, err
	}
	g.session = session
	return session, nil
}
