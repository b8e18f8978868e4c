// Package connector opens remote datasets with a bounded retry and keeps them
// open for the lifetime of the process.
package connector

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"go.ngs.io/medenv/internal/adapter/store"
	"go.ngs.io/medenv/internal/domain"
	"go.ngs.io/medenv/internal/metrics"
)

// DefaultMaxAttempts bounds the open attempts per dataset.
const DefaultMaxAttempts = 10

// DefaultCMEMSURL is the OPeNDAP location template of the CMEMS THREDDS server.
const DefaultCMEMSURL = "https://{prefix}.cmems-du.eu/thredds/dodsC/{dataset}"

// Locator builds a dataset location from a host prefix and a dataset identifier.
type Locator func(prefix, datasetID string) string

// URLLocator expands {prefix} and {dataset} in template. When user is set the
// credentials are embedded in the URL, which is how OPeNDAP clients authenticate.
func URLLocator(template string, user *url.Userinfo) Locator {
	if template == "" {
		template = DefaultCMEMSURL
	}
	return func(prefix, datasetID string) string {
		loc := strings.NewReplacer("{prefix}", prefix, "{dataset}", datasetID).Replace(template)
		if user == nil {
			return loc
		}
		u, err := url.Parse(loc)
		if err != nil {
			return loc
		}
		u.User = user
		return u.String()
	}
}

// DirLocator resolves dataset identifiers as file names under dir. The prefix is ignored.
func DirLocator(dir string) Locator {
	return func(_, datasetID string) string {
		return filepath.Join(dir, datasetID)
	}
}

type Options struct {
	Opener      store.Opener
	Locate      Locator
	MaxAttempts int
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

// Connector caches open datasets by identifier. Entries are never evicted.
type Connector struct {
	opener      store.Opener
	locate      Locator
	maxAttempts int
	log         zerolog.Logger
	metrics     *metrics.Metrics

	mu    sync.Mutex
	cache map[string]store.Dataset
}

func New(opts Options) *Connector {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.Locate == nil {
		opts.Locate = URLLocator(DefaultCMEMSURL, nil)
	}
	return &Connector{
		opener:      opts.Opener,
		locate:      opts.Locate,
		maxAttempts: opts.MaxAttempts,
		log:         opts.Logger,
		metrics:     opts.Metrics,
		cache:       make(map[string]store.Dataset),
	}
}

// Fetch returns the cached dataset, or opens and caches it. Failed opens are
// retried immediately until MaxAttempts is reached, after which the error
// wraps domain.ErrDatasetUnreachable.
func (c *Connector) Fetch(ctx context.Context, prefix, datasetID string) (store.Dataset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ds, ok := c.cache[datasetID]; ok {
		return ds, nil
	}

	location := c.locate(prefix, datasetID)
	start := time.Now()
	attempt := 0

	var ds store.Dataset
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempt++
		c.metrics.OpenAttempt(datasetID)
		opened, err := c.opener.Open(ctx, location)
		if err != nil {
			return err
		}
		ds = opened
		return nil
	}
	notify := func(err error, _ time.Duration) {
		c.log.Warn().
			Err(err).
			Str("dataset", datasetID).
			Int("attempt", attempt).
			Int("remaining", c.maxAttempts-attempt).
			Msg("dataset open failed, retrying")
	}

	policy := backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(c.maxAttempts-1))
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		c.metrics.OpenOutcome(false)
		if ctx.Err() != nil {
			return nil, fmt.Errorf("failed to open dataset %s: %w", datasetID, err)
		}
		c.log.Error().
			Err(err).
			Str("dataset", datasetID).
			Int("attempts", attempt).
			Msg("dataset unreachable")
		return nil, fmt.Errorf("failed to open dataset %s after %d attempts: %w: %w",
			datasetID, attempt, domain.ErrDatasetUnreachable, err)
	}

	c.metrics.OpenOutcome(true)
	c.log.Info().
		Str("dataset", datasetID).
		Int("attempts", attempt).
		Dur("elapsed", time.Since(start)).
		Msg("dataset opened")

	c.cache[datasetID] = ds
	return ds, nil
}

// Cached reports whether a dataset is already open.
func (c *Connector) Cached(datasetID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.cache[datasetID]
	return ok
}

// Len returns the number of open datasets.
func (c *Connector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Close closes every cached dataset and empties the cache.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for id, ds := range c.cache {
		if err := ds.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", id, err))
		}
		delete(c.cache, id)
	}
	return errors.Join(errs...)
}
