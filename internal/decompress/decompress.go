// Package decompress implements the Decompression Layer (§4.5): a
// magic-byte sniff table dispatching to the right inflate implementation.
package decompress

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/hydrofetch/hydrofetch"
)

// Codec identifies the detected compression scheme.
type Codec string

const (
	CodecGzip    Codec = "gzip"
	CodecZstd    Codec = "zstd"
	CodecZlib    Codec = "zlib"
	CodecBlosc   Codec = "blosc"
	CodecGRIB2   Codec = "grib2" // pass-through: payload is GRIB2, not compressed
	CodecUnknown Codec = "unknown"
)

// Sniff inspects the leading bytes and reports the detected codec without
// decompressing, per the §4.5 magic-byte table.
func Sniff(b []byte) Codec {
	switch {
	case hasPrefix(b, 0x1F, 0x8B):
		return CodecGzip
	case hasPrefix(b, 0x28, 0xB5, 0x2F, 0xFD):
		return CodecZstd
	case hasPrefix(b, 0x78, 0x01), hasPrefix(b, 0x78, 0x9C), hasPrefix(b, 0x78, 0xDA):
		return CodecZlib
	case hasPrefix(b, 0xFE, 0xED, 0xFA, 0xCE):
		return CodecBlosc
	case hasPrefix(b, 'G', 'R', 'I', 'B'):
		return CodecGRIB2
	default:
		return CodecUnknown
	}
}

func hasPrefix(b []byte, magic ...byte) bool {
	if len(b) < len(magic) {
		return false
	}
	for i, m := range magic {
		if b[i] != m {
			return false
		}
	}
	return true
}

// Decompress dispatches on the detected (or hinted) codec and returns the
// decompressed bytes. Pass-through codecs (GRIB2, unknown) return the
// input unchanged: the caller's format decoder is responsible for the
// payload from there.
func Decompress(data []byte, hint Codec) ([]byte, error) {
	codec := hint
	if codec == "" {
		codec = Sniff(data)
	}
	switch codec {
	case CodecGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, decompressErr(CodecGzip, err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, decompressErr(CodecGzip, err)
		}
		return out, nil
	case CodecZstd:
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, decompressErr(CodecZstd, err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, decompressErr(CodecZstd, err)
		}
		return out, nil
	case CodecZlib:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, decompressErr(CodecZlib, err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, decompressErr(CodecZlib, err)
		}
		return out, nil
	case CodecBlosc:
		return decompressBlosc(data)
	case CodecGRIB2, CodecUnknown, "":
		return data, nil
	default:
		return nil, decompressErr(codec, fmt.Errorf("no decoder registered"))
	}
}

func decompressErr(codec Codec, cause error) error {
	return &hydrofetch.Error{
		Op:      "decompress.Decompress",
		Kind:    hydrofetch.ErrDecompressionError,
		Message: "codec " + string(codec),
		Inner:   cause,
	}
}
