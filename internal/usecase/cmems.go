package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"go.ngs.io/medenv/internal/adapter/auth"
	"go.ngs.io/medenv/internal/adapter/connector"
	"go.ngs.io/medenv/internal/adapter/httpclient"
	"go.ngs.io/medenv/internal/adapter/store"
	"go.ngs.io/medenv/internal/adapter/store/opendap"
	"go.ngs.io/medenv/internal/config"
	"go.ngs.io/medenv/internal/domain"
	"go.ngs.io/medenv/internal/metrics"
	"go.ngs.io/medenv/internal/registry"
	"go.ngs.io/medenv/internal/slicer"
)

// DefaultHostPrefix selects the multi-year (reanalysis) CMEMS server.
const DefaultHostPrefix = "my"

// Authenticator logs in to Copernicus Marine.
type Authenticator interface {
	Login(ctx context.Context, c auth.Credentials) (*oauth2.Token, error)
}

// CMEMSOptions configures NewCMEMS.
type CMEMSOptions struct {
	Credentials   auth.Credentials
	Prompter      auth.Prompter // Asked for missing credentials; nil disables prompting.
	Authenticator Authenticator // Nil skips the login, for local OPeNDAP mirrors.
	Opener        store.Opener
	HostPrefix    string
	DatasetURL    string // Location template with {prefix} and {dataset} placeholders.
	MaxAttempts   int
	Registry      *registry.Registry
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
}

// CMEMS answers feature queries against the Copernicus Marine reanalyses.
// Calls are serialized so one accessor can back concurrent HTTP requests.
type CMEMS struct {
	registry *registry.Registry
	conn     *connector.Connector
	prefix   string
	log      zerolog.Logger
	metrics  *metrics.Metrics

	mu sync.Mutex
}

// NewCMEMS resolves credentials, logs in, and prepares the dataset connector.
// No accessor is returned when the login fails.
func NewCMEMS(ctx context.Context, opts CMEMSOptions) (*CMEMS, error) {
	if opts.Opener == nil {
		return nil, errors.New("a dataset opener is required")
	}
	if opts.Registry == nil {
		opts.Registry = registry.CMEMS()
	}
	if opts.HostPrefix == "" {
		opts.HostPrefix = DefaultHostPrefix
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = connector.DefaultMaxAttempts
	}

	creds, err := auth.Resolve(opts.Credentials, opts.Prompter, opts.Logger)
	if err != nil {
		return nil, err
	}
	if opts.Authenticator != nil {
		if _, err := opts.Authenticator.Login(ctx, creds); err != nil {
			return nil, err
		}
		opts.Logger.Info().Str("username", creds.Username).Msg("logged in to Copernicus Marine")
	}

	conn := connector.New(connector.Options{
		Opener:      opts.Opener,
		Locate:      connector.URLLocator(opts.DatasetURL, creds.Userinfo()),
		MaxAttempts: opts.MaxAttempts,
		Logger:      opts.Logger,
		Metrics:     opts.Metrics,
	})
	return &CMEMS{
		registry: opts.Registry,
		conn:     conn,
		prefix:   opts.HostPrefix,
		log:      opts.Logger,
		metrics:  opts.Metrics,
	}, nil
}

// OptionsFromConfig builds the accessor options shared by the server and the
// CLI: libnetcdf opener, configured endpoints and, unless login is skipped, an
// OAuth2 authenticator on a tuned outbound client.
func OptionsFromConfig(cfg config.Config, prompter auth.Prompter, log zerolog.Logger, m *metrics.Metrics) (CMEMSOptions, error) {
	opts := CMEMSOptions{
		Credentials: auth.Credentials{Username: cfg.Username, Password: cfg.Password},
		Prompter:    prompter,
		Opener:      opendap.NewOpener(),
		HostPrefix:  cfg.HostPrefix,
		DatasetURL:  cfg.DatasetURL,
		MaxAttempts: cfg.NumRetries,
		Logger:      log,
		Metrics:     m,
	}
	if cfg.SkipLogin {
		return opts, nil
	}
	client, err := httpclient.NewOutbound(httpclient.DefaultTimeout)
	if err != nil {
		return opts, fmt.Errorf("failed to build outbound client: %w", err)
	}
	opts.Authenticator = auth.NewAuthenticator(cfg.AuthURL, cfg.AuthClientID, client)
	return opts, nil
}

// NewCMEMSFromConfig is NewCMEMS with OptionsFromConfig.
func NewCMEMSFromConfig(ctx context.Context, cfg config.Config, prompter auth.Prompter, log zerolog.Logger, m *metrics.Metrics) (*CMEMS, error) {
	opts, err := OptionsFromConfig(cfg, prompter, log, m)
	if err != nil {
		return nil, err
	}
	return NewCMEMS(ctx, opts)
}

// Features lists the feature names, sorted.
func (c *CMEMS) Features() []string {
	return c.registry.Names()
}

// Lookup returns a feature descriptor.
func (c *CMEMS) Lookup(name string) (domain.Feature, error) {
	return c.registry.Lookup(name)
}

// GetValue answers a query. The feature and its validity window are checked
// before any dataset is opened.
func (c *CMEMS) GetValue(ctx context.Context, q domain.Query) (*domain.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	res, err := c.getValue(ctx, q)
	c.metrics.ObserveQuery("cmems", q.Feature, outcome(err), time.Since(start))
	if err != nil {
		c.log.Debug().Err(err).Str("feature", q.Feature).Msg("query failed")
		return nil, err
	}

	c.log.Info().
		Str("feature", q.Feature).
		Stringer("time", q.Time).
		Stringer("lon", q.Longitude).
		Stringer("lat", q.Latitude).
		Stringer("depth", q.Depth).
		Int("rows", len(res.Rows)).
		Dur("elapsed", time.Since(start)).
		Msg("query")
	return res, nil
}

func (c *CMEMS) getValue(ctx context.Context, q domain.Query) (*domain.Result, error) {
	f, err := c.registry.Lookup(q.Feature)
	if err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.Time.IsAny() {
		return nil, fmt.Errorf("%w: a date is required for %s", domain.ErrInvalidQuery, f.Name)
	}
	if err := f.CheckDate(q.Time.Start); err != nil {
		return nil, err
	}

	ds, err := c.conn.Fetch(ctx, c.prefix, f.DatasetID)
	if err != nil {
		return nil, err
	}
	res, err := slicer.Slice(ds, f, q)
	if err != nil {
		return nil, fmt.Errorf("failed to slice %s: %w", f.Name, err)
	}
	return res, nil
}

// Close closes every opened dataset.
func (c *CMEMS) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

// outcome classifies an error for metrics labels.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUnknownFeature):
		return "unknown_feature"
	case errors.Is(err, domain.ErrMeasureUndefined):
		return "undefined"
	case errors.Is(err, domain.ErrInvalidQuery):
		return "invalid"
	case errors.Is(err, domain.ErrDatasetUnreachable):
		return "unreachable"
	default:
		return "error"
	}
}
