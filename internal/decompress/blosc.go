package decompress

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// bloscCompressor is the sub-codec id packed into the Blosc header's
// flags byte (upper 3 bits, flags>>5), per the c-blosc2 on-disk format.
type bloscCompressor byte

const (
	bloscLZ  bloscCompressor = 0
	bloscLZ4 bloscCompressor = 1
	bloscLZ4HC bloscCompressor = 2
	bloscSnappy bloscCompressor = 3
	bloscZlib bloscCompressor = 4
	bloscZstd bloscCompressor = 5
)

// decompressBlosc parses the 16-byte Blosc header and dispatches to the
// sub-codec it names. blosclz and snappy frames are not supported (no
// grounded library in the pack provides them); everything else — the
// sub-codecs Zarr stores actually configure in practice — is.
func decompressBlosc(data []byte) ([]byte, error) {
	const headerLen = 16
	if len(data) < headerLen {
		return nil, decompressErr(CodecBlosc, fmt.Errorf("header truncated: %d bytes", len(data)))
	}
	flags := data[2]
	compressor := bloscCompressor(flags >> 5)
	nbytes := binary.LittleEndian.Uint32(data[4:8])
	payload := data[headerLen:]

	var (
		out []byte
		err error
	)
	switch compressor {
	case bloscZlib:
		out, err = decompressRaw(payload, func(r io.Reader) (io.ReadCloser, error) { return zlib.NewReader(r) })
	case bloscZstd:
		out, err = decompressRaw(payload, func(r io.Reader) (io.ReadCloser, error) {
			zr, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return zr.IOReadCloser(), nil
		})
	case bloscLZ4, bloscLZ4HC:
		out, err = decompressLZ4(payload, int(nbytes))
	default:
		return nil, decompressErr(CodecBlosc, fmt.Errorf("unsupported blosc sub-codec %d", compressor))
	}
	if err != nil {
		return nil, decompressErr(CodecBlosc, err)
	}
	if nbytes > 0 && uint32(len(out)) != nbytes {
		return nil, decompressErr(CodecBlosc, fmt.Errorf("decompressed %d bytes, header declares %d", len(out), nbytes))
	}
	return out, nil
}

func decompressRaw(payload []byte, newReader func(io.Reader) (io.ReadCloser, error)) ([]byte, error) {
	r, err := newReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func decompressLZ4(payload []byte, uncompressedSize int) ([]byte, error) {
	if uncompressedSize <= 0 {
		// Fall back to the streaming reader when the header didn't give a
		// usable size hint.
		zr := lz4.NewReader(bytes.NewReader(payload))
		return io.ReadAll(zr)
	}
	dst := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(payload, dst)
	if err != nil {
		// Some encoders frame LZ4 with a stream header rather than a bare
		// block; retry with the streaming reader before giving up.
		zr := lz4.NewReader(bytes.NewReader(payload))
		out, rerr := io.ReadAll(zr)
		if rerr != nil {
			return nil, err
		}
		return out, nil
	}
	return dst[:n], nil
}
