// Package config implements the external configuration provider (§6):
// the static SourceDescriptor/VariableDescriptor tables the core reads
// at init and never writes to.
package config

import (
	"github.com/hydrofetch/hydrofetch"
)

// Provider supplies the static tables a Client needs to resolve a
// request's source and variable. The core treats it as read-only.
type Provider interface {
	// Source returns the descriptor for sourceID.
	Source(sourceID string) (hydrofetch.SourceDescriptor, error)
	// Sources lists every registered source id, for discovery endpoints.
	Sources() []string
	// ProxyList returns the ordered proxy-prefix chain the Fetch
	// Orchestrator falls through on direct-fetch failure.
	ProxyList() []string
}

// Static is an in-memory Provider backed by maps built at construction
// time; it never mutates after New returns.
type Static struct {
	sources   map[string]hydrofetch.SourceDescriptor
	proxyList []string
}

// New builds a Static provider from the given source table and proxy
// chain. Callers typically pass DefaultSources().
func New(sources map[string]hydrofetch.SourceDescriptor, proxyList []string) *Static {
	cp := make(map[string]hydrofetch.SourceDescriptor, len(sources))
	for k, v := range sources {
		cp[k] = v
	}
	return &Static{sources: cp, proxyList: append([]string(nil), proxyList...)}
}

func (s *Static) Source(sourceID string) (hydrofetch.SourceDescriptor, error) {
	sd, ok := s.sources[sourceID]
	if !ok {
		return hydrofetch.SourceDescriptor{}, &hydrofetch.Error{
			Op: "config.Static.Source", Kind: hydrofetch.ErrUnknownSource, Source: sourceID,
			Message: "no source descriptor registered for " + sourceID,
		}
	}
	return sd, nil
}

func (s *Static) Sources() []string {
	out := make([]string, 0, len(s.sources))
	for k := range s.sources {
		out = append(out, k)
	}
	return out
}

func (s *Static) ProxyList() []string {
	return append([]string(nil), s.proxyList...)
}
