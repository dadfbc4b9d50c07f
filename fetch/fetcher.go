package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent with every request; many recipe sites reject
// requests without a browser-like agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Config holds WebFetcher settings.
type Config struct {
	// UserAgent is sent on every request. Default: DefaultUserAgent.
	UserAgent string

	// Timeout bounds a single attempt, including reading the body. Default: 30s.
	Timeout time.Duration

	// MaxRetries is how many additional attempts follow a timed-out attempt. Default: 2.
	MaxRetries int

	// BackoffUnit scales the wait before retry n, which is 2^n units. Default: 1s.
	BackoffUnit time.Duration

	// MaxContentSize caps how many body bytes are read. Default: 10 MiB.
	MaxContentSize int64

	// HostRate limits requests per second to any single host. Zero disables limiting.
	HostRate rate.Limit

	// HostBurst is the burst size for HostRate. Default: 1.
	HostBurst int
}

// DefaultConfig returns the fetcher defaults.
func DefaultConfig() *Config {
	return &Config{
		UserAgent:      DefaultUserAgent,
		Timeout:        30 * time.Second,
		MaxRetries:     2,
		BackoffUnit:    time.Second,
		MaxContentSize: 10 << 20,
		HostBurst:      1,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: Timeout must be positive", ErrInvalidConfig)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: MaxRetries cannot be negative", ErrInvalidConfig)
	}
	if c.BackoffUnit < 0 {
		return fmt.Errorf("%w: BackoffUnit cannot be negative", ErrInvalidConfig)
	}
	if c.MaxContentSize <= 0 {
		return fmt.Errorf("%w: MaxContentSize must be positive", ErrInvalidConfig)
	}
	if c.HostRate < 0 {
		return fmt.Errorf("%w: HostRate cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// WebFetcher retrieves raw page content over HTTP.
// It is safe for concurrent use.
type WebFetcher struct {
	client   *http.Client
	config   Config
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *slog.Logger
}

// Option configures a WebFetcher.
type Option func(*WebFetcher) error

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *WebFetcher) error {
		if client == nil {
			return fmt.Errorf("%w: nil http client", ErrInvalidConfig)
		}
		f.client = client
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *WebFetcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		f.logger = logger.With("component", "fetcher")
		return nil
	}
}

// NewWebFetcher creates a fetcher. A nil config uses DefaultConfig.
func NewWebFetcher(config *Config, opts ...Option) (*WebFetcher, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	cfg := *config
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.HostBurst < 1 {
		cfg.HostBurst = 1
	}

	f := &WebFetcher{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		config:   cfg,
		limiters: make(map[string]*rate.Limiter),
		sleep:    sleepContext,
		logger:   slog.Default().With("component", "fetcher"),
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Fetch GETs rawURL and returns its body decoded to UTF-8.
//
// Error statuses and transport failures are returned immediately. Timed out
// attempts are retried up to MaxRetries times, waiting 2^attempt BackoffUnits
// between them. All failures are *Error values; cancellation of ctx is
// returned as ctx.Err().
func (f *WebFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &Error{Kind: KindTransport, URL: rawURL, Attempts: 0, Err: err}
	}

	var lastErr error
	for attempt := 0; attempt <= f.config.MaxRetries; attempt++ {
		if err := f.wait(ctx, u.Host); err != nil {
			return "", err
		}

		body, err := f.attempt(ctx, rawURL)
		if err == nil {
			if attempt > 0 {
				f.logger.Debug("fetch succeeded after retry", "url", rawURL, "attempt", attempt+1)
			}
			return body, nil
		}

		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		var fe *Error
		if errors.As(err, &fe) {
			fe.Attempts = attempt + 1
			return "", fe
		}

		// Only timeouts reach this point.
		lastErr = err
		if attempt == f.config.MaxRetries {
			break
		}
		delay := f.config.BackoffUnit * time.Duration(1<<attempt)
		f.logger.Warn("fetch timed out, retrying",
			"url", rawURL,
			"attempt", attempt+1,
			"delay", delay)
		if err := f.sleep(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", &Error{
		Kind:     KindTimeout,
		URL:      rawURL,
		Attempts: f.config.MaxRetries + 1,
		Err:      lastErr,
	}
}

// attempt performs one bounded request. It returns a bare timeout error for
// retryable failures and an *Error for terminal ones.
func (f *WebFetcher) attempt(ctx context.Context, rawURL string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &Error{Kind: KindTransport, URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", f.classify(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return "", &Error{Kind: KindHTTPStatus, StatusCode: resp.StatusCode, URL: rawURL}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxContentSize+1))
	if err != nil {
		return "", f.classify(rawURL, err)
	}
	if int64(len(raw)) > f.config.MaxContentSize {
		f.logger.Warn("response body truncated", "url", rawURL, "limit", f.config.MaxContentSize)
		raw = raw[:f.config.MaxContentSize]
	}

	decoded, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		// Unknown charset; fall back to the raw bytes.
		f.logger.Debug("charset detection failed", "url", rawURL, "err", err)
		return string(raw), nil
	}
	text, err := io.ReadAll(decoded)
	if err != nil {
		return string(raw), nil
	}
	return string(text), nil
}

// classify turns a client error into a retryable timeout or a terminal *Error.
func (f *WebFetcher) classify(rawURL string, err error) error {
	if isTimeout(err) {
		return err
	}
	return &Error{Kind: KindTransport, URL: rawURL, Err: err}
}

func (f *WebFetcher) wait(ctx context.Context, host string) error {
	if f.config.HostRate <= 0 {
		return nil
	}
	f.mu.Lock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(f.config.HostRate, f.config.HostBurst)
		f.limiters[host] = lim
	}
	f.mu.Unlock()
	return lim.Wait(ctx)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
