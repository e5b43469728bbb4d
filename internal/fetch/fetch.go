// Package fetch implements the Fetch Orchestrator (§4.2): a cache-first,
// strategy-selecting front end over the HTTP Transport, Chunked Range
// Downloader, and Chunk Cache.
package fetch

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hydrofetch/hydrofetch"
	"github.com/hydrofetch/hydrofetch/internal/cache"
	"github.com/hydrofetch/hydrofetch/internal/httputil"
)

// ChunkThreshold is the content-length above which a direct download is
// promoted to chunked, per §4.2 step 2.
const ChunkThreshold = 100 << 20 // 100 MiB

// RetryDelay is how long a single 429 is retried after, per proxy, before
// moving on (§4.2 "Failure semantics").
const RetryDelay = 2 * time.Second

// Options configures a single fetch, mirroring the request-level context
// fields §4.2 reads from (needs_proxy, force_chunked, skip_size_probe, ...).
type Options struct {
	CacheKey       string
	NeedsProxy     bool
	IsKnownLarge   bool
	ForceChunked   bool
	SkipSizeProbe  bool
	ExcludeChunk   bool // JSON/XML/OGC responses and Zarr metadata/chunk files (§4.2 step 2)
	CacheFlag      bool
	SourceID       string
	FormatKind     string
	DatasetID      string
	ProxyOrder     []httputil.ProxyPrefix
	ContentLength  int64 // known length, 0 means unknown (probed if needed)
}

// Orchestrator is the Fetch Orchestrator of §4.2.
type Orchestrator struct {
	Transport *httputil.Transport
	Cache     *cache.Store
	Chunked   *ChunkedDownloader

	logger zerolog.Logger
}

// New builds an Orchestrator over the given Transport and Cache.
func New(t *httputil.Transport, c *cache.Store) *Orchestrator {
	return &Orchestrator{
		Transport: t,
		Cache:     c,
		Chunked:   &ChunkedDownloader{Transport: t, Cache: c},
		logger:    log.With().Str("component", "fetch").Logger(),
	}
}

// Fetch implements the §4.2 contract: fetch(request_ctx, url) -> bytes.
func (o *Orchestrator) Fetch(ctx context.Context, url string, opt Options) ([]byte, error) {
	if opt.CacheFlag {
		if e, err := o.Cache.Get(ctx, opt.CacheKey); err == nil && e != nil {
			return e.Bytes, nil
		} else if err != nil {
			o.logger.Warn().Err(err).Str("key", opt.CacheKey).Msg("cache get failed, treating as miss")
		}
	}

	chunked := opt.ForceChunked || opt.IsKnownLarge ||
		(!opt.ExcludeChunk && opt.ContentLength > ChunkThreshold)

	meta := cache.Meta{URL: url, SourceID: opt.SourceID, DatasetID: opt.DatasetID, FormatKind: opt.FormatKind}

	var data []byte
	var err error
	if chunked {
		data, err = o.Chunked.Download(ctx, url, opt, meta)
	} else {
		data, err = o.fetchDirectWithProxies(ctx, url, opt)
	}
	if err != nil {
		return nil, err
	}

	if opt.CacheFlag && !chunked {
		if perr := o.Cache.Put(ctx, opt.CacheKey, data, meta); perr != nil {
			o.logger.Warn().Err(perr).Str("key", opt.CacheKey).Msg("cache put failed")
		}
	}
	return data, nil
}

// fetchDirectWithProxies implements §4.2 step 3: direct first (unless the
// source demands proxying), falling through local-proxy[*] ->
// researchverse -> corsproxy on any transport error or non-OK response.
// All attempts are tried before surfacing failure; the surfaced error is
// the last observed one.
func (o *Orchestrator) fetchDirectWithProxies(ctx context.Context, url string, opt Options) ([]byte, error) {
	order := opt.ProxyOrder
	if order == nil {
		order = httputil.DefaultProxyOrder(nil)
	}

	var lastErr error
	if !opt.NeedsProxy {
		data, err := o.fetchOnce(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}

	for _, p := range order {
		proxied := p.Rewrite(url)
		data, err := o.fetchOnceWithRetry(ctx, proxied)
		if err == nil {
			return data, nil
		}
		o.logger.Warn().Err(err).Str("proxy", p.Name).Str("url", url).Msg("proxy attempt failed")
		lastErr = err
	}

	return nil, &hydrofetch.Error{
		Op: "fetch.Orchestrator.Fetch", Kind: hydrofetch.ErrAllProxiesFailed, URL: url,
		Message: "direct and all configured proxies failed", Inner: lastErr,
	}
}

// fetchOnceWithRetry retries a single 429 once after RetryDelay, per §4.2's
// "Transient HTTP 429 is retried once per proxy after a short delay".
func (o *Orchestrator) fetchOnceWithRetry(ctx context.Context, url string) ([]byte, error) {
	data, err := o.fetchOnce(ctx, url)
	if err == nil {
		return data, nil
	}
	if hydrofetch.ErrRateLimited.Is(err) {
		select {
		case <-time.After(RetryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return o.fetchOnce(ctx, url)
	}
	return nil, err
}

func (o *Orchestrator) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	resp, err := o.Transport.Get(ctx, url, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return readAll(resp)
}
