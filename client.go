package hydrofetch

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hydrofetch/hydrofetch/adapter"
	"github.com/hydrofetch/hydrofetch/adapter/aorc"
	"github.com/hydrofetch/hydrofetch/adapter/hrrr"
	"github.com/hydrofetch/hydrofetch/adapter/mrms"
	"github.com/hydrofetch/hydrofetch/adapter/prism"
	"github.com/hydrofetch/hydrofetch/config"
	"github.com/hydrofetch/hydrofetch/internal/cache"
	"github.com/hydrofetch/hydrofetch/internal/fetch"
	"github.com/hydrofetch/hydrofetch/internal/httputil"
)

// DefaultParallelism bounds the fan-out of MultiPoint/TimeSeries
// sub-requests when a caller doesn't specify one (§5).
const DefaultParallelism = 4

// ClientOptions configures a Client's collaborators.
type ClientOptions struct {
	// Config supplies the SourceDescriptor/VariableDescriptor tables; a
	// nil Config uses config.DefaultSources()/DefaultProxyList().
	Config config.Provider
	// CacheDir is the badger-backed Chunk Cache directory.
	CacheDir string
	// CacheOptions overrides the eviction policy; zero value uses
	// cache.DefaultOptions().
	CacheOptions cache.Options
	// HTTPClient overrides the transport's *http.Client.
	HTTPClient *http.Client
	// Parallelism bounds MultiPoint/TimeSeries fan-out; zero uses
	// DefaultParallelism.
	Parallelism int
}

// Client is the top-level entry point (§1): Request -> Source Adapter ->
// Fetch Orchestrator -> Transport -> Cache -> Decompress -> Decoder ->
// Grid Engine -> Result.
type Client struct {
	config      config.Provider
	registry    *adapter.Registry
	base        *adapter.GenericBase
	store       *cache.Store
	parallelism int

	logger zerolog.Logger
}

// NewClient wires the full pipeline: opens the Chunk Cache, builds the
// Fetch Orchestrator over it, and registers the shipped adapters
// (mrms, hrrr, aorc, prism) against the configured SourceDescriptors.
func NewClient(opts ClientOptions) (*Client, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.New(config.DefaultSources(), config.DefaultProxyList())
	}
	cacheOpts := opts.CacheOptions
	if (cacheOpts == cache.Options{}) {
		cacheOpts = cache.DefaultOptions()
	}
	store, err := cache.Open(opts.CacheDir, cacheOpts)
	if err != nil {
		return nil, err
	}

	transport := httputil.New(opts.HTTPClient)
	orch := fetch.New(transport, store)
	base := adapter.NewGenericBase(orch)
	base.ProxyOrder = proxyOrderFrom(cfg.ProxyList())

	registry := adapter.NewRegistry()
	for _, id := range cfg.Sources() {
		sd, err := cfg.Source(id)
		if err != nil {
			store.Close()
			return nil, err
		}
		a, err := buildAdapter(sd)
		if err != nil {
			store.Close()
			return nil, err
		}
		registry.Register(a)
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}

	c := &Client{
		config:      cfg,
		registry:    registry,
		base:        base,
		store:       store,
		parallelism: parallelism,
		logger:      log.With().Str("component", "client").Logger(),
	}
	c.logger.Info().Strs("sources", cfg.Sources()).Msg("client ready")
	return c, nil
}

// proxyOrderFrom converts the configuration provider's ordered proxy
// prefixes (§6) into the Fetch Orchestrator's ProxyPrefix chain. All
// configured prefixes are treated as the `?url=`-escaped convention (the
// shipped defaults and every common public CORS relay expect it); a
// caller needing bare concatenation should set ProxyOrder on the
// GenericBase directly instead of going through configuration.
func proxyOrderFrom(prefixes []string) []httputil.ProxyPrefix {
	if len(prefixes) == 0 {
		return nil
	}
	out := make([]httputil.ProxyPrefix, len(prefixes))
	for i, p := range prefixes {
		out[i] = httputil.ProxyPrefix{Name: proxyName(i), Prefix: p, Escaped: true}
	}
	return out
}

func proxyName(i int) string {
	const letters = "0123456789"
	if i < len(letters) {
		return "configured-proxy[" + string(letters[i]) + "]"
	}
	return "configured-proxy[n]"
}

// buildAdapter maps a SourceDescriptor's ID to the concrete Adapter
// implementation that understands it; the sealed set mirrors §4.8's
// closed adapter registry.
func buildAdapter(sd SourceDescriptor) (adapter.Adapter, error) {
	switch sd.ID {
	case "mrms":
		return mrms.New(sd), nil
	case "hrrr":
		return hrrr.New(sd), nil
	case "aorc":
		return aorc.New(sd), nil
	case "prism":
		return prism.New(sd), nil
	default:
		return nil, &Error{Op: "hydrofetch.buildAdapter", Kind: ErrUnknownSource, Source: sd.ID, Message: "no adapter implementation for source"}
	}
}

// Close releases the Chunk Cache's underlying storage handle.
func (c *Client) Close() error {
	return c.store.Close()
}

func (c *Client) adapterFor(sourceID string) (adapter.Adapter, error) {
	return c.registry.Get(sourceID)
}

// Point implements scenario S1 of §8: a single-variable, single-location,
// single-timestamp lookup.
func (c *Client) Point(ctx context.Context, req *Request) (*PointResult, error) {
	a, err := c.adapterFor(req.SourceID)
	if err != nil {
		return nil, err
	}
	return c.base.Point(ctx, a, req)
}

// MultiPoint implements scenario S5: the same variable/timestamp
// evaluated over an ordered list of locations.
func (c *Client) MultiPoint(ctx context.Context, req *Request) ([]PointResult, error) {
	a, err := c.adapterFor(req.SourceID)
	if err != nil {
		return nil, err
	}
	return c.base.MultiPoint(ctx, a, req, c.parallelism)
}

// Grid implements scenario S2: a bounding-box window, optionally reduced
// by a spatial aggregation.
func (c *Client) Grid(ctx context.Context, req *Request) (*GridWindow, error) {
	a, err := c.adapterFor(req.SourceID)
	if err != nil {
		return nil, err
	}
	return c.base.Grid(ctx, a, req)
}

// TimeSeries implements scenario S3: a fixed point evaluated over a time
// range at a fixed or source-native step.
func (c *Client) TimeSeries(ctx context.Context, req *Request) (*TimeSeries, error) {
	a, err := c.adapterFor(req.SourceID)
	if err != nil {
		return nil, err
	}
	return c.base.TimeSeries(ctx, a, req, c.parallelism)
}

// GridTimeSeries implements scenario S6: one GridWindow per timestamp in
// a time range.
func (c *Client) GridTimeSeries(ctx context.Context, req *Request) ([]GridWindow, error) {
	a, err := c.adapterFor(req.SourceID)
	if err != nil {
		return nil, err
	}
	return c.base.GridTimeSeries(ctx, a, req)
}

// Sources lists the source ids this Client has a registered adapter for.
func (c *Client) Sources() []string {
	return c.config.Sources()
}
