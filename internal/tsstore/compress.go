package tsstore

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/oriys/probe/internal/element"
	"github.com/oriys/probe/internal/perr"
)

// compressed holds a Seq's contents after the raw->compressed transition:
// a variant tag, a zstd-compressed byte buffer, and, for text columns, a
// per-slice codebook mapping small integer codes back to strings. The
// codebook is never shared across slices.
type compressed struct {
	kind     element.Kind
	count    int
	buf      []byte
	codebook []string // only populated for KindText
}

// compressSeq delta/zigzag/varint pre-encodes numeric columns (so runs of
// slowly-changing values collapse to small varints), bitpacks booleans,
// and code-books text, then entropy-codes the result with zstd at level.
// This two-stage pipeline mirrors the columnar codecs used by time-series
// databases: a domain-specific pre-pass makes the generic compressor's
// job easier than compressing raw fixed-width values would.
func compressSeq(s *Seq, level int) (*compressed, error) {
	var pre []byte
	var codebook []string

	switch s.kind {
	case element.KindBool:
		pre = packBools(s.bools)
	case element.KindI32:
		widened := make([]int64, len(s.i32s))
		for i, v := range s.i32s {
			widened[i] = int64(v)
		}
		pre = deltaZigzagVarint(widened)
	case element.KindI64:
		pre = deltaZigzagVarint(s.i64s)
	case element.KindDateTime:
		pre = deltaZigzagVarint(s.dts)
	case element.KindF32:
		buf := make([]byte, 4*len(s.f32s))
		for i, v := range s.f32s {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
		}
		pre = buf
	case element.KindF64:
		buf := make([]byte, 8*len(s.f64s))
		for i, v := range s.f64s {
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
		}
		pre = buf
	case element.KindText, element.KindURL:
		vals := s.texts
		if s.kind == element.KindURL {
			vals = s.urls
		}
		codes := make([]int64, len(vals))
		index := make(map[string]int, len(vals))
		for i, v := range vals {
			code, ok := index[v]
			if !ok {
				code = len(codebook)
				index[v] = code
				codebook = append(codebook, v)
			}
			codes[i] = int64(code)
		}
		pre = deltaZigzagVarint(codes)
	default:
		return nil, perr.New(perr.CodeCompressError, "tsstore.compress", "unsupported kind "+s.kind.String())
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstdLevel(level)))
	if err != nil {
		return nil, perr.Wrap(perr.CodeCompressError, "tsstore.compress", "open zstd encoder", err)
	}
	defer enc.Close()
	buf := enc.EncodeAll(pre, nil)

	return &compressed{kind: s.kind, count: s.Len(), buf: buf, codebook: codebook}, nil
}

// decompressSeq inverts compressSeq, rebuilding a raw Seq.
func decompressSeq(c *compressed) (*Seq, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, perr.Wrap(perr.CodeDecompressError, "tsstore.decompress", "open zstd decoder", err)
	}
	defer dec.Close()
	pre, err := dec.DecodeAll(c.buf, nil)
	if err != nil {
		return nil, perr.Wrap(perr.CodeDecompressError, "tsstore.decompress", "zstd decode", err)
	}

	seq := NewSeq(c.kind, c.count)
	switch c.kind {
	case element.KindBool:
		bools := unpackBools(pre, c.count)
		seq.bools = bools
	case element.KindI32:
		widened := undeltaZigzagVarint(pre, c.count)
		seq.i32s = make([]int32, c.count)
		for i, v := range widened {
			seq.i32s[i] = int32(v)
		}
	case element.KindI64:
		seq.i64s = undeltaZigzagVarint(pre, c.count)
	case element.KindDateTime:
		seq.dts = undeltaZigzagVarint(pre, c.count)
	case element.KindF32:
		seq.f32s = make([]float32, c.count)
		for i := 0; i < c.count; i++ {
			seq.f32s[i] = math.Float32frombits(binary.LittleEndian.Uint32(pre[i*4:]))
		}
	case element.KindF64:
		seq.f64s = make([]float64, c.count)
		for i := 0; i < c.count; i++ {
			seq.f64s[i] = math.Float64frombits(binary.LittleEndian.Uint64(pre[i*8:]))
		}
	case element.KindText, element.KindURL:
		codes := undeltaZigzagVarint(pre, c.count)
		if c.kind == element.KindText {
			seq.texts = make([]string, c.count)
			for i, code := range codes {
				seq.texts[i] = c.codebook[code]
			}
		} else {
			seq.urls = make([]string, c.count)
			for i, code := range codes {
				seq.urls[i] = c.codebook[code]
			}
		}
	default:
		return nil, perr.New(perr.CodeDecompressError, "tsstore.decompress", "unsupported kind "+c.kind.String())
	}
	return seq, nil
}

func zstdLevel(level int) zstd.EncoderLevel {
	switch {
	case level <= 1:
		return zstd.SpeedFastest
	case level == 2:
		return zstd.SpeedDefault
	case level == 3:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

func zigzag(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func unzigzag(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

func deltaZigzagVarint(vals []int64) []byte {
	var buf bytes.Buffer
	var prev int64
	var tmp [binary.MaxVarintLen64]byte
	for _, v := range vals {
		delta := v - prev
		prev = v
		n := binary.PutUvarint(tmp[:], zigzag(delta))
		buf.Write(tmp[:n])
	}
	return buf.Bytes()
}

func undeltaZigzagVarint(buf []byte, count int) []int64 {
	out := make([]int64, count)
	r := bytes.NewReader(buf)
	var prev int64
	for i := 0; i < count; i++ {
		u, err := binary.ReadUvarint(r)
		if err != nil {
			break
		}
		prev += unzigzag(u)
		out[i] = prev
	}
	return out
}

func packBools(vals []bool) []byte {
	out := make([]byte, (len(vals)+7)/8)
	for i, v := range vals {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func unpackBools(buf []byte, count int) []bool {
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		out[i] = buf[i/8]&(1<<uint(i%8)) != 0
	}
	return out
}
