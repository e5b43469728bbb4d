package cache

import (
	"context"
	"sort"
	"time"
)

// CleanupIfDue runs at most once per CleanupInterval (§4.4); a zero or
// negative CleanupInterval runs it on every call. It removes
// entries older than MaxAge, then — if the store is still over
// MaxTotalBytes — evicts in ascending last_accessed_at order until back
// within budget. This is the only place size-based eviction happens;
// Put/PutChunked call it proactively so growth never races ahead of
// eviction by more than one CleanupInterval.
func (s *Store) CleanupIfDue(ctx context.Context) error {
	s.cleanupMu.Lock()
	interval := s.opts.CleanupInterval
	if interval > 0 && time.Since(s.lastCleanup) < interval {
		s.cleanupMu.Unlock()
		return nil
	}
	s.lastCleanup = time.Now()
	s.cleanupMu.Unlock()

	return s.cleanup(ctx)
}

func (s *Store) cleanup(ctx context.Context) error {
	var all []Meta
	if err := s.forEachEntry(func(m Meta) error {
		all = append(all, m)
		return nil
	}); err != nil {
		return err
	}

	now := time.Now()
	var kept []Meta
	for _, m := range all {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.opts.MaxAge > 0 && now.Sub(m.CreatedAt) > s.opts.MaxAge {
			if err := s.Delete(m.Key); err != nil {
				s.logger.Warn().Err(err).Str("key", m.Key).Msg("failed to evict aged-out entry")
				continue
			}
			continue
		}
		kept = append(kept, m)
	}

	if s.opts.MaxTotalBytes <= 0 {
		return nil
	}
	var total int64
	for _, m := range kept {
		total += m.SizeBytes
	}
	if total <= s.opts.MaxTotalBytes {
		return nil
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].LastAccessedAt.Before(kept[j].LastAccessedAt) })
	for _, m := range kept {
		if total <= s.opts.MaxTotalBytes {
			break
		}
		if err := s.Delete(m.Key); err != nil {
			s.logger.Warn().Err(err).Str("key", m.Key).Msg("failed to evict entry over size budget")
			continue
		}
		total -= m.SizeBytes
	}
	return nil
}
