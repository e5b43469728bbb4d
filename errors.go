package hydrofetch

import (
	"errors"
	"strings"
)

// Error is the hydrofetch error domain type.
//
// Errors returned from any hydrofetch component should be inspectable as
// (errors.As) an *Error at some point in the chain. Components create an
// Error at the system boundary (an HTTP response, a cache read, a format
// parse) and intermediate layers wrap with fmt.Errorf("%w", ...) rather
// than constructing a new Error, except to reclassify the Kind.
type Error struct {
	Inner   error
	Kind    ErrorKind
	Source  string // source_id, when known
	URL     string // URL or cache key that triggered the error, when known
	Message string
	Op      string
}

var (
	_ error                       = (*Error)(nil)
	_ interface{ Is(error) bool } = (*Error)(nil)
	_ interface{ Unwrap() error } = (*Error)(nil)
)

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" ")
	}
	b.WriteString("[")
	b.WriteString(string(e.Kind))
	b.WriteString("]")
	if e.Source != "" {
		b.WriteString(" source=")
		b.WriteString(e.Source)
	}
	if e.URL != "" {
		b.WriteString(" url=")
		b.WriteString(e.URL)
	}
	b.WriteString(": ")
	if e.Message != "" {
		b.WriteString(e.Message)
	}
	if e.Message != "" && e.Inner != nil {
		b.WriteString(": ")
	}
	if e.Inner != nil {
		b.WriteString(e.Inner.Error())
	}
	return b.String()
}

// Is enables errors.Is against an ErrorKind.
func (e *Error) Is(target error) bool {
	if k, ok := target.(ErrorKind); ok {
		return e.Kind == k
	}
	return errors.Is(e.Kind, target)
}

// Unwrap enables errors.Unwrap / errors.As on the wrapped cause.
func (e *Error) Unwrap() error { return e.Inner }

// ErrorKind is a closed enumeration of the §7 error taxonomy.
type ErrorKind string

func (k ErrorKind) Error() string { return string(k) }

// Is lets an ErrorKind be compared directly with errors.Is against an
// *Error wrapping it, mirroring (*Error).Is's reverse direction.
func (k ErrorKind) Is(target error) bool {
	var e *Error
	if errors.As(target, &e) {
		return e.Kind == k
	}
	return false
}

const (
	// Configuration
	ErrUnknownSource                  ErrorKind = "unknown_source"
	ErrUnknownDataset                 ErrorKind = "unknown_dataset"
	ErrUnknownVariable                ErrorKind = "unknown_variable"
	ErrUnknownProduct                 ErrorKind = "unknown_product"
	ErrVariableNotAvailableForDataType ErrorKind = "variable_not_available_for_data_type"

	// Request
	ErrOutOfDomainPoint   ErrorKind = "out_of_domain_point"
	ErrOutOfDomainBbox    ErrorKind = "out_of_domain_bbox"
	ErrOutOfTemporalRange ErrorKind = "out_of_temporal_range"
	ErrInvalidDateRange   ErrorKind = "invalid_date_range"
	ErrInvalidBbox        ErrorKind = "invalid_bbox"

	// Transport
	ErrNotFound         ErrorKind = "not_found"
	ErrForbidden        ErrorKind = "forbidden"
	ErrRateLimited      ErrorKind = "rate_limited"
	ErrTimeout          ErrorKind = "timeout"
	ErrTransportError   ErrorKind = "transport_error"
	ErrAllProxiesFailed ErrorKind = "all_proxies_failed"

	// Decode
	ErrDecompressionError ErrorKind = "decompression_error"
	ErrFormatParseError   ErrorKind = "format_parse_error"
	ErrMessageNotFound    ErrorKind = "message_not_found"
	ErrDataIntegrityError ErrorKind = "data_integrity_error"

	// Cache
	ErrCacheFull    ErrorKind = "cache_full"
	ErrCacheCorrupt ErrorKind = "cache_corrupt"

	// Lifecycle
	ErrCancelled ErrorKind = "cancelled"
)

// EndOfResource is the typed terminal condition for an HTTP 416 response
// to a range request (§4.1): not an error, but a signal that there is no
// more data to fetch.
var EndOfResource = errors.New("hydrofetch: end of resource (416)")
