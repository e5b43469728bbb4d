package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hydrofetch/hydrofetch"
	"github.com/hydrofetch/hydrofetch/internal/cache"
	"github.com/hydrofetch/hydrofetch/internal/httputil"
)

// DefaultChunkSize is the §4.3 default chunk size.
const DefaultChunkSize = 100 << 20 // 100 MiB

// MaxChunks is the §4.3 safety cap on open-ended downloads.
const MaxChunks = 1000

// ChunkedDownloader implements the Chunked Range Downloader (§4.3).
type ChunkedDownloader struct {
	Transport *httputil.Transport
	Cache     *cache.Store
	ChunkSize int // 0 => DefaultChunkSize
}

// Download implements download_chunked(url, options, chunk_size) -> bytes.
func (d *ChunkedDownloader) Download(ctx context.Context, url string, opt Options, meta cache.Meta) ([]byte, error) {
	chunkSize := d.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	baseKey := opt.CacheKey

	present, err := d.Cache.ChunkIndicesPresent(baseKey)
	if err != nil {
		return nil, fmt.Errorf("fetch: resume check for %q: %w", baseKey, err)
	}

	total, openEnded, err := d.probeSize(ctx, url, opt, int64(chunkSize))
	if err != nil {
		return nil, err
	}

	var totalChunks int
	if !openEnded {
		totalChunks = int((total + int64(chunkSize) - 1) / int64(chunkSize))
		if totalChunks == 0 {
			totalChunks = 1
		}
	}

	for i := 0; ; i++ {
		if i >= MaxChunks {
			return nil, &hydrofetch.Error{
				Op: "fetch.ChunkedDownloader.Download", Kind: hydrofetch.ErrTransportError, URL: url,
				Message: fmt.Sprintf("exceeded MAX_CHUNKS (%d) in open-ended mode", MaxChunks),
			}
		}
		if !openEnded && i >= totalChunks {
			break
		}
		if present[i] {
			continue
		}

		start := int64(i) * int64(chunkSize)
		end := start + int64(chunkSize) - 1
		resp, err := d.Transport.Get(ctx, url, nil, &httputil.Range{Start: start, End: end})
		if errors.Is(err, hydrofetch.EndOfResource) {
			break
		}
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, &hydrofetch.Error{Op: "fetch.ChunkedDownloader.Download", Kind: hydrofetch.ErrTransportError, URL: url, Inner: err}
		}

		chunkMeta := meta
		chunkMeta.ChunkRange = cache.ByteRange{Start: start, End: start + int64(len(data)) - 1}
		if perr := d.Cache.PutChunk(ctx, baseKey, i, data, chunkMeta); perr != nil {
			return nil, fmt.Errorf("fetch: storing chunk %d for %q: %w", i, baseKey, perr)
		}

		if openEnded && len(data) < chunkSize {
			break
		}
	}

	entry, err := d.Cache.Get(ctx, baseKey)
	if err != nil {
		return nil, fmt.Errorf("fetch: assembling %q: %w", baseKey, err)
	}
	if entry == nil {
		return nil, &hydrofetch.Error{Op: "fetch.ChunkedDownloader.Download", Kind: hydrofetch.ErrDataIntegrityError, URL: url, Message: "no chunks assembled"}
	}

	if err := d.Cache.Put(ctx, baseKey, entry.Bytes, meta); err != nil {
		return nil, fmt.Errorf("fetch: writing assembled entry for %q: %w", baseKey, err)
	}
	return entry.Bytes, nil
}

// probeSize implements §4.3 step 2: HEAD unless skip_size_probe, else a
// bytes=0-0 range request parsing Content-Range, else open-ended mode.
func (d *ChunkedDownloader) probeSize(ctx context.Context, url string, opt Options, chunkSize int64) (total int64, openEnded bool, err error) {
	if opt.ContentLength > 0 {
		return opt.ContentLength, false, nil
	}
	if !opt.SkipSizeProbe {
		resp, err := d.Transport.Head(ctx, url, nil)
		if err == nil {
			defer resp.Body.Close()
			if n, ok := contentLength(resp.Headers); ok {
				return n, false, nil
			}
		}
	}

	resp, err := d.Transport.Get(ctx, url, nil, &httputil.Range{Start: 0, End: 0})
	if err != nil {
		if errors.Is(err, hydrofetch.EndOfResource) {
			return 0, false, nil
		}
		return 0, true, nil // HEAD and probe both failed/disallowed: open-ended
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if n, ok := contentRangeTotal(resp.Headers.Get("Content-Range")); ok {
		return n, false, nil
	}
	return 0, true, nil
}

func contentLength(h map[string][]string) (int64, bool) {
	v := firstHeader(h, "Content-Length")
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func firstHeader(h map[string][]string, key string) string {
	for k, vs := range h {
		if strings.EqualFold(k, key) && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

// contentRangeTotal parses "bytes 0-0/12345" -> 12345.
func contentRangeTotal(v string) (int64, bool) {
	i := strings.LastIndex(v, "/")
	if i < 0 || i == len(v)-1 {
		return 0, false
	}
	sizeStr := v[i+1:]
	if sizeStr == "*" {
		return 0, false
	}
	n, err := strconv.ParseInt(sizeStr, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func readAll(resp *httputil.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, &hydrofetch.Error{Op: "fetch.readAll", Kind: hydrofetch.ErrTransportError, Inner: err}
	}
	return buf.Bytes(), nil
}
