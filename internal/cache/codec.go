package cache

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// encode serializes an Entry as [4-byte meta length][meta JSON][bytes].
// A bespoke format (rather than gob) keeps the on-disk shape easy to
// inspect while debugging a schema mismatch.
func encode(e Entry) ([]byte, error) {
	meta, err := json.Marshal(e.Meta)
	if err != nil {
		return nil, fmt.Errorf("cache: encode meta: %w", err)
	}
	out := make([]byte, 4+len(meta)+len(e.Bytes))
	binary.BigEndian.PutUint32(out[:4], uint32(len(meta)))
	copy(out[4:], meta)
	copy(out[4+len(meta):], e.Bytes)
	return out, nil
}

func decode(raw []byte) (Entry, error) {
	if len(raw) < 4 {
		return Entry{}, fmt.Errorf("cache: corrupt record: too short")
	}
	n := binary.BigEndian.Uint32(raw[:4])
	if int(n) > len(raw)-4 {
		return Entry{}, fmt.Errorf("cache: corrupt record: meta length %d exceeds record", n)
	}
	var meta Meta
	if err := json.Unmarshal(raw[4:4+n], &meta); err != nil {
		return Entry{}, fmt.Errorf("cache: corrupt record: %w", err)
	}
	bytesStart := 4 + int(n)
	body := make([]byte, len(raw)-bytesStart)
	copy(body, raw[bytesStart:])
	return Entry{Meta: meta, Bytes: body}, nil
}
