package storage

import (
	"sort"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/retriever/core"
)

// Hand-written mus-go serializers for the artifact payload types. Field
// order is part of the on-disk contract; never reorder.

// HeaderMUS serializes artifact headers.
var HeaderMUS = headerMUS{}

type headerMUS struct{}

func (headerMUS) Marshal(h Header, bs []byte) (n int) {
	n = varint.Int.Marshal(int(h.Kind), bs)
	n += varint.Int.Marshal(h.ChunkCount, bs[n:])
	n += varint.Int.Marshal(h.Dimension, bs[n:])
	n += ord.String.Marshal(h.BuildId, bs[n:])
	n += varint.Uint64.Marshal(h.Fingerprint, bs[n:])
	return
}

func (headerMUS) Unmarshal(bs []byte) (h Header, n int, err error) {
	kind, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	h.Kind = ArtifactKind(kind)
	var n1 int
	h.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	h.Dimension, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	h.BuildId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	h.Fingerprint, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	return
}

func (headerMUS) Size(h Header) (size int) {
	size = varint.Int.Size(int(h.Kind))
	size += varint.Int.Size(h.ChunkCount)
	size += varint.Int.Size(h.Dimension)
	size += ord.String.Size(h.BuildId)
	size += varint.Uint64.Size(h.Fingerprint)
	return
}

// StringMapMUS serializes string-to-string maps in sorted key order, so
// identical inputs always encode to identical bytes.
var StringMapMUS = stringMapMUS{}

type stringMapMUS struct{}

func (stringMapMUS) Marshal(m map[string]string, bs []byte) (n int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	n = varint.Int.Marshal(len(keys), bs)
	for _, k := range keys {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(m[k], bs[n:])
	}
	return
}

func (stringMapMUS) Unmarshal(bs []byte) (m map[string]string, n int, err error) {
	count, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if count < 0 {
		err = ErrTruncatedData
		return
	}
	if count == 0 {
		return
	}
	m = make(map[string]string, count)
	var n1 int
	for i := 0; i < count; i++ {
		var k, v string
		k, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		v, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		m[k] = v
	}
	return
}

func (stringMapMUS) Size(m map[string]string) (size int) {
	size = varint.Int.Size(len(m))
	for k, v := range m {
		size += ord.String.Size(k)
		size += ord.String.Size(v)
	}
	return
}

// TermFreqMUS serializes per-chunk term frequencies (term -> occurrence
// count) in sorted term order.
var TermFreqMUS = termFreqMUS{}

type termFreqMUS struct{}

func (termFreqMUS) Marshal(m map[string]int, bs []byte) (n int) {
	terms := make([]string, 0, len(m))
	for t := range m {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	n = varint.Int.Marshal(len(terms), bs)
	for _, t := range terms {
		n += ord.String.Marshal(t, bs[n:])
		n += varint.Int.Marshal(m[t], bs[n:])
	}
	return
}

func (termFreqMUS) Unmarshal(bs []byte) (m map[string]int, n int, err error) {
	count, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if count < 0 {
		err = ErrTruncatedData
		return
	}
	m = make(map[string]int, count)
	var n1 int
	for i := 0; i < count; i++ {
		var t string
		var f int
		t, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		f, n1, err = varint.Int.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		m[t] = f
	}
	return
}

func (termFreqMUS) Size(m map[string]int) (size int) {
	size = varint.Int.Size(len(m))
	for t, f := range m {
		size += ord.String.Size(t)
		size += varint.Int.Size(f)
	}
	return
}

// ChunkMUS serializes a single chunk with its metadata.
var ChunkMUS = chunkMUS{}

type chunkMUS struct{}

func (chunkMUS) Marshal(c core.Chunk, bs []byte) (n int) {
	n = varint.Int.Marshal(c.Id, bs)
	n += ord.String.Marshal(c.Content, bs[n:])
	n += StringMapMUS.Marshal(c.Metadata, bs[n:])
	return
}

func (chunkMUS) Unmarshal(bs []byte) (c core.Chunk, n int, err error) {
	c.Id, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	c.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Metadata, n1, err = StringMapMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (chunkMUS) Size(c core.Chunk) (size int) {
	size = varint.Int.Size(c.Id)
	size += ord.String.Size(c.Content)
	size += StringMapMUS.Size(c.Metadata)
	return
}

// ChunksMUS serializes a chunk slice with a leading count.
var ChunksMUS = chunksMUS{}

type chunksMUS struct{}

func (chunksMUS) Marshal(chunks []core.Chunk, bs []byte) (n int) {
	n = varint.Int.Marshal(len(chunks), bs)
	for i := range chunks {
		n += ChunkMUS.Marshal(chunks[i], bs[n:])
	}
	return
}

func (chunksMUS) Unmarshal(bs []byte) (chunks []core.Chunk, n int, err error) {
	count, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if count < 0 {
		err = ErrTruncatedData
		return
	}
	chunks = make([]core.Chunk, count)
	var n1 int
	for i := 0; i < count; i++ {
		chunks[i], n1, err = ChunkMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (chunksMUS) Size(chunks []core.Chunk) (size int) {
	size = varint.Int.Size(len(chunks))
	for i := range chunks {
		size += ChunkMUS.Size(chunks[i])
	}
	return
}

// VectorMUS serializes one embedding vector as a length-prefixed run of
// raw float32 values.
var VectorMUS = vectorMUS{}

type vectorMUS struct{}

func (vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return
}

func (vectorMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	count, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if count < 0 {
		err = ErrTruncatedData
		return
	}
	v = make([]float32, count)
	var n1 int
	for i := 0; i < count; i++ {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (vectorMUS) Size(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return
}
