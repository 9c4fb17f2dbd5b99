package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mus-format/mus-go/varint"
)

// FormatVersion is the current artifact format generation. Readers refuse
// artifacts written by any other generation.
const FormatVersion = 1

// artifact files open with this magic so foreign files are rejected before
// any payload decoding is attempted.
var magic = [4]byte{'P', 'R', 'I', 'X'}

// ArtifactKind identifies what an artifact file contains.
type ArtifactKind int

const (
	// KindVectorIndex is the similarity-index structure: the normalized
	// embedding matrix.
	KindVectorIndex ArtifactKind = iota + 1
	// KindVectorChunks is the vector index companion: chunk text and
	// metadata, parallel to the embedding matrix.
	KindVectorChunks
	// KindLexicalIndex is the term-statistics index together with its own
	// parallel chunk array.
	KindLexicalIndex
)

// String returns the kind name used in error messages.
func (k ArtifactKind) String() string {
	switch k {
	case KindVectorIndex:
		return "vector-index"
	case KindVectorChunks:
		return "vector-chunks"
	case KindLexicalIndex:
		return "lexical-index"
	default:
		return "unknown"
	}
}

// Header describes an artifact's identity and shape. The two artifact sets
// of one corpus build carry the same ChunkCount, BuildId, and Fingerprint;
// loaders cross-check all three before marking a corpus loadable.
type Header struct {
	Kind        ArtifactKind
	ChunkCount  int
	Dimension   int    // embedding dimension; 0 for lexical artifacts
	BuildId     string // pairs the artifact files of one build
	Fingerprint uint64 // corpus content fingerprint
}

// EncodeArtifact frames a header and payload into a complete artifact
// image. marshalPayload must write exactly payloadSize bytes.
func EncodeArtifact(h Header, payloadSize int, marshalPayload func(bs []byte) int) []byte {
	size := len(magic) + varint.Int.Size(FormatVersion) + HeaderMUS.Size(h) + payloadSize
	bs := make([]byte, size)
	n := copy(bs, magic[:])
	n += varint.Int.Marshal(FormatVersion, bs[n:])
	n += HeaderMUS.Marshal(h, bs[n:])
	n += marshalPayload(bs[n:])
	return bs[:n]
}

// DecodeArtifact verifies the framing of an artifact image and returns its
// header and payload bytes. wantKind guards against loading one artifact
// kind where another is expected.
func DecodeArtifact(bs []byte, wantKind ArtifactKind) (Header, []byte, error) {
	if len(bs) < len(magic) || !bytes.Equal(bs[:len(magic)], magic[:]) {
		return Header{}, nil, fmt.Errorf("%w: bad magic", ErrArtifactIncompatible)
	}
	n := len(magic)

	version, vn, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return Header{}, nil, fmt.Errorf("%w: %w", ErrArtifactIncompatible, err)
	}
	n += vn
	if version != FormatVersion {
		return Header{}, nil, fmt.Errorf("%w: version %d, want %d",
			ErrUnsupportedVersion, version, FormatVersion)
	}

	h, hn, err := HeaderMUS.Unmarshal(bs[n:])
	if err != nil {
		return Header{}, nil, fmt.Errorf("%w: header: %w", ErrArtifactIncompatible, err)
	}
	n += hn

	if h.Kind != wantKind {
		return Header{}, nil, fmt.Errorf("%w: kind %s, want %s",
			ErrArtifactIncompatible, h.Kind, wantKind)
	}

	payload := bs[n:]
	if h.ChunkCount < 0 || h.Dimension < 0 {
		return Header{}, nil, fmt.Errorf("%w: header reports %d chunks, dimension %d",
			ErrArtifactIncompatible, h.ChunkCount, h.Dimension)
	}
	// Every serialized chunk occupies at least one payload byte. A count
	// beyond that bound cannot decode, so reject it before loaders size
	// allocations from it.
	if h.ChunkCount > len(payload) {
		return Header{}, nil, fmt.Errorf("%w: header reports %d chunks, payload holds %d bytes",
			ErrArtifactIncompatible, h.ChunkCount, len(payload))
	}

	return h, payload, nil
}

// ReadArtifactFile reads and decodes an artifact file.
func ReadArtifactFile(path string, wantKind ArtifactKind) (Header, []byte, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Header{}, nil, fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return Header{}, nil, err
	}
	h, payload, err := DecodeArtifact(bs, wantKind)
	if err != nil {
		return Header{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, payload, nil
}

// WriteFileAtomic writes bs to path via a temporary file and rename, so a
// crash mid-write never leaves a half-written artifact at path.
func WriteFileAtomic(path string, bs []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(bs); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// CheckCompatible verifies that two artifact headers describe the same
// corpus build. It fails fast on any disagreement, which keeps partially
// rebuilt corpora unloadable.
func CheckCompatible(a, b Header) error {
	if a.ChunkCount != b.ChunkCount {
		return fmt.Errorf("%w: %s reports %d chunks, %s reports %d",
			ErrChunkCountMismatch, a.Kind, a.ChunkCount, b.Kind, b.ChunkCount)
	}
	if a.BuildId != b.BuildId {
		return fmt.Errorf("%w: %s from build %s, %s from build %s",
			ErrBuildMismatch, a.Kind, a.BuildId, b.Kind, b.BuildId)
	}
	if a.Fingerprint != b.Fingerprint {
		return fmt.Errorf("%w: corpus fingerprints disagree", ErrBuildMismatch)
	}
	return nil
}
