package stampede

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType defines the compression algorithm used for stored values.
type CompressionType uint8

const (
	// CompressionNone stores values uncompressed (header only).
	CompressionNone CompressionType = 0
	// CompressionLZ4 uses LZ4 block compression (fast, good for hot data).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD uses ZSTD block compression (better ratio, good for cold data).
	CompressionZSTD CompressionType = 2
)

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Stored value format: [UncompressedSize uint32][CompressedSize uint32][Data...]
// If CompressedSize == 0, the data is stored uncompressed.
const valueHeaderSize = 8

// CompressedCache is a decorator that transparently compresses byte
// values before handing them to the wrapped cache and decompresses them
// on the way back.
//
// Values that do not compress well (ratio > 0.9) are stored raw behind
// the same header, so decoding never needs to guess. Keys are not
// touched.
type CompressedCache[K comparable] struct {
	delegate    Cache[K, []byte]
	compression CompressionType
}

// NewCompressedCache wraps delegate with value compression.
func NewCompressedCache[K comparable](delegate Cache[K, []byte], compression CompressionType) *CompressedCache[K] {
	return &CompressedCache[K]{
		delegate:    delegate,
		compression: compression,
	}
}

// ID returns the identifier of the wrapped cache.
func (c *CompressedCache[K]) ID() string {
	return c.delegate.ID()
}

// Size returns the entry count of the wrapped cache.
func (c *CompressedCache[K]) Size(ctx context.Context) (int, error) {
	return c.delegate.Size(ctx)
}

// Get returns the decompressed value stored for key.
func (c *CompressedCache[K]) Get(ctx context.Context, key K) ([]byte, bool, error) {
	stored, ok, err := c.delegate.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}

	value, err := c.decode(stored)
	if err != nil {
		return nil, false, fmt.Errorf("decompress value for key %v: %w", key, err)
	}
	return value, true, nil
}

// Put compresses value and stores it under key.
func (c *CompressedCache[K]) Put(ctx context.Context, key K, value []byte) error {
	encoded, err := c.encode(value)
	if err != nil {
		return fmt.Errorf("compress value for key %v: %w", key, err)
	}
	return c.delegate.Put(ctx, key, encoded)
}

// Remove deletes the entry for key and returns the decompressed removed
// value when the wrapped cache reports one.
func (c *CompressedCache[K]) Remove(ctx context.Context, key K) ([]byte, bool, error) {
	stored, ok, err := c.delegate.Remove(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}

	value, err := c.decode(stored)
	if err != nil {
		return nil, false, fmt.Errorf("decompress removed value for key %v: %w", key, err)
	}
	return value, true, nil
}

// Clear removes all entries from the wrapped cache.
func (c *CompressedCache[K]) Clear(ctx context.Context) error {
	return c.delegate.Clear(ctx)
}

// encode compresses data and prepends the value header.
// Incompressible data is stored raw with CompressedSize == 0.
func (c *CompressedCache[K]) encode(data []byte) ([]byte, error) {
	var compressed []byte
	var err error

	switch c.compression {
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	case CompressionZSTD:
		compressed, err = compressZSTD(data)
	case CompressionNone:
		// Header only, so decode stays uniform across compression types.
	default:
		return nil, fmt.Errorf("unknown compression type: %d", c.compression)
	}
	if err != nil {
		return nil, err
	}

	// If compression doesn't help (ratio > 0.9), store raw.
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		result := make([]byte, valueHeaderSize+len(data))
		binary.LittleEndian.PutUint32(result[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(result[4:], 0) // 0 = uncompressed
		copy(result[valueHeaderSize:], data)
		return result, nil
	}

	result := make([]byte, valueHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(result[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(result[4:], uint32(len(compressed)))
	copy(result[valueHeaderSize:], compressed)
	return result, nil
}

// decode strips the value header and decompresses the payload.
func (c *CompressedCache[K]) decode(stored []byte) ([]byte, error) {
	if len(stored) < valueHeaderSize {
		return nil, errors.New("stored value too small for header")
	}

	uncompressedSize := binary.LittleEndian.Uint32(stored[0:])
	compressedSize := binary.LittleEndian.Uint32(stored[4:])

	if compressedSize == 0 {
		if uint32(len(stored)) < valueHeaderSize+uncompressedSize {
			return nil, errors.New("stored value shorter than header declares")
		}
		raw := make([]byte, uncompressedSize)
		copy(raw, stored[valueHeaderSize:valueHeaderSize+uncompressedSize])
		return raw, nil
	}

	if uint32(len(stored)) < valueHeaderSize+compressedSize {
		return nil, errors.New("compressed value shorter than header declares")
	}

	payload := stored[valueHeaderSize : valueHeaderSize+compressedSize]
	result := make([]byte, uncompressedSize)

	switch c.compression {
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		decoded, err := dec.DecodeAll(payload, result[:0])
		if err != nil {
			return nil, err
		}
		if uint32(len(decoded)) != uncompressedSize {
			return nil, errors.New("decompressed size mismatch")
		}
		return decoded, nil

	default: // LZ4 or fallback
		n, err := lz4.UncompressBlock(payload, result)
		if err != nil {
			return nil, err
		}
		if uint32(n) != uncompressedSize {
			return nil, errors.New("decompressed size mismatch")
		}
		return result, nil
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	maxCompressedSize := lz4.CompressBlockBound(len(data))
	compressed := make([]byte, maxCompressedSize)

	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // Incompressible
	}
	return compressed[:n], nil
}

func compressZSTD(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	enc := getZstdEncoder()
	defer putZstdEncoder(enc)

	return enc.EncodeAll(data, nil), nil
}
