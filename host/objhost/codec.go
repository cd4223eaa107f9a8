package objhost

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec selects how object bodies are stored.
type Codec uint8

const (
	// CodecNone stores raw bytes.
	CodecNone Codec = 0
	// CodecLZ4 stores LZ4 block compressed bodies.
	CodecLZ4 Codec = 1
	// CodecZstd stores Zstandard compressed bodies.
	CodecZstd Codec = 2
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// ErrCorrupt is returned when a compressed body cannot be decoded.
var ErrCorrupt = errors.New("objhost: corrupt object body")

// Header: magic[3] codec[1] uncompressed[4] compressed[4].
// compressed == 0 means the payload is stored uncompressed.
var headerMagic = []byte("CSZ")

const headerSize = 12

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// encode frames data for storage with the given codec.
func encode(c Codec, data []byte) ([]byte, error) {
	if c == CodecNone {
		return data, nil
	}

	var compressed []byte
	switch c {
	case CodecLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n] // n == 0: incompressible
	case CodecZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, err
		}
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("objhost: unknown codec %d", c)
	}

	out := make([]byte, headerSize, headerSize+len(data))
	copy(out, headerMagic)
	out[3] = byte(c)
	binary.LittleEndian.PutUint32(out[4:], uint32(len(data)))
	if len(compressed) == 0 || len(compressed) >= len(data) {
		return append(out, data...), nil
	}
	binary.LittleEndian.PutUint32(out[8:], uint32(len(compressed)))
	return append(out, compressed...), nil
}

// decode reverses encode. Bodies without the header are returned unchanged.
func decode(body []byte) ([]byte, error) {
	if len(body) < headerSize || !bytes.Equal(body[:3], headerMagic) {
		return body, nil
	}
	c := Codec(body[3])
	size := binary.LittleEndian.Uint32(body[4:])
	csize := binary.LittleEndian.Uint32(body[8:])
	payload := body[headerSize:]

	if csize == 0 {
		if uint32(len(payload)) != size {
			return nil, ErrCorrupt
		}
		return payload, nil
	}
	if uint32(len(payload)) != csize {
		return nil, ErrCorrupt
	}

	result := make([]byte, size)
	switch c {
	case CodecLZ4:
		n, err := lz4.UncompressBlock(payload, result)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(n) != size {
			return nil, ErrCorrupt
		}
		return result, nil
	case CodecZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)
		decoded, err := dec.DecodeAll(payload, result[:0])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(len(decoded)) != size {
			return nil, ErrCorrupt
		}
		return decoded, nil
	default:
		return nil, ErrCorrupt
	}
}
