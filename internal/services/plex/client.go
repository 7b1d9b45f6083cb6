package plex

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"sync"
	"time"

	"reelsync/internal/config"
	"reelsync/internal/library"
	"reelsync/internal/logging"
	"reelsync/internal/services"
)

const (
	productName      = "reelsync"
	productVersion   = "0.1.0"
	clientIdentifier = "reelsync-cli"
	userAgent        = "reelsync/0.1.0"
)

// Options configures a Client.
type Options struct {
	BaseURL       string
	Token         string
	DiscoverURL   string
	MoviesLibrary string
	TVLibrary     string
	Timeout       time.Duration
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

// Client talks to a Plex Media Server and the Plex discover provider.
type Client struct {
	baseURL       string
	token         string
	discoverURL   string
	moviesLibrary string
	tvLibrary     string
	client        *http.Client
	logger        *slog.Logger

	mu        sync.Mutex
	sections  map[string]section
	machineID string
	guidIndex map[string]library.Item
}

var _ library.Library = (*Client)(nil)

// New constructs a Plex client.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, services.Wrap(services.ErrConfiguration, "plex", "init", "plex url is required", nil)
	}
	if strings.TrimSpace(opts.Token) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "plex", "init", "plex token is required", nil)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		baseURL:       base,
		token:         strings.TrimSpace(opts.Token),
		discoverURL:   strings.TrimRight(strings.TrimSpace(opts.DiscoverURL), "/"),
		moviesLibrary: opts.MoviesLibrary,
		tvLibrary:     opts.TVLibrary,
		client:        httpClient,
		logger:        logging.NewComponentLogger(logger, "plex"),
	}, nil
}

// NewFromConfig builds a client from the [plex] section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "plex", "init", "config is nil", nil)
	}
	if err := cfg.RequirePlex(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "plex", "init", "", err)
	}
	return New(Options{
		BaseURL:       cfg.Plex.URL,
		Token:         cfg.Plex.Token,
		DiscoverURL:   cfg.Plex.DiscoverURL,
		MoviesLibrary: cfg.Plex.MoviesLibrary,
		TVLibrary:     cfg.Plex.TVLibrary,
		Timeout:       cfg.PlexTimeout(),
		Logger:        logger,
	})
}

// Ping verifies the server is reachable and the token is accepted. Failures
// are configuration errors: nothing useful can happen without the server.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.ensureMachineID(ctx); err != nil {
		return services.Wrap(services.ErrConfiguration, "plex", "ping", c.baseURL, err)
	}
	if _, err := c.sectionKey(ctx, c.moviesLibrary, sectionTypeMovie); err != nil {
		return services.Wrap(services.ErrConfiguration, "plex", "ping", "", err)
	}
	return nil
}

func (c *Client) ensureMachineID(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.machineID
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	var container mediaContainer
	if err := c.get(ctx, "/identity", nil, &container); err != nil {
		return "", err
	}
	if container.MachineIdentifier == "" {
		return "", services.Wrap(services.ErrTransient, "plex", "identity", "missing machine identifier", nil)
	}
	c.mu.Lock()
	c.machineID = container.MachineIdentifier
	c.mu.Unlock()
	return container.MachineIdentifier, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, c.baseURL+path, params, nil, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, headers map[string]string, out any) error {
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build plex request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/xml")
	req.Header.Set("User-Agent", userAgent)
	applyStandardHeaders(req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return services.Wrap(services.ErrTimeout, "plex", method, redact(endpoint)+" timed out", nil)
		}
		return services.Wrap(services.ErrTransient, "plex", method, redact(endpoint), err)
	}
	defer resp.Body.Close()

	c.logger.Debug("plex request",
		logging.String("method", method),
		logging.String("path", req.URL.Path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", time.Since(start)))

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		statusErr := &StatusError{Code: resp.StatusCode, Path: req.URL.Path, Body: strings.TrimSpace(string(body))}
		switch resp.StatusCode {
		case http.StatusNotFound:
			return services.Wrap(services.ErrNotFound, "plex", method, "", statusErr)
		case http.StatusUnauthorized, http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, "plex", method, "token rejected", statusErr)
		default:
			return services.Wrap(services.ErrTransient, "plex", method, "", statusErr)
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrTransient, "plex", method, "decode "+req.URL.Path, err)
	}
	return nil
}

// StatusError carries a non-success HTTP status from Plex.
type StatusError struct {
	Code int
	Path string
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned %d", e.Path, e.Code)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Path, e.Code, e.Body)
}

func statusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	return 0
}

func applyStandardHeaders(req *http.Request) {
	req.Header.Set("X-Plex-Client-Identifier", clientIdentifier)
	req.Header.Set("X-Plex-Product", productName)
	req.Header.Set("X-Plex-Version", productVersion)
	req.Header.Set("X-Plex-Device-Name", productName)
	req.Header.Set("X-Plex-Platform", runtime.GOOS)
}

func redact(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}
