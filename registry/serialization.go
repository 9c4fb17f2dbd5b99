package registry

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// BatchInfoMUS serializes batch records. Field order is part of the
// stored contract; never reorder.
var BatchInfoMUS = batchInfoMUS{}

type batchInfoMUS struct{}

func (batchInfoMUS) Marshal(info BatchInfo, bs []byte) (n int) {
	n = ord.String.Marshal(info.Id, bs)
	n += ord.String.Marshal(info.Name, bs[n:])
	n += ord.String.Marshal(info.Description, bs[n:])
	n += varint.Int.Marshal(info.DocCount, bs[n:])
	n += varint.Int.Marshal(info.ChunkCount, bs[n:])
	n += varint.Int64.Marshal(info.CreatedAt.UnixMicro(), bs[n:])
	n += ord.String.Marshal(info.VectorDir, bs[n:])
	n += ord.String.Marshal(info.LexicalPath, bs[n:])
	return
}

func (batchInfoMUS) Unmarshal(bs []byte) (info BatchInfo, n int, err error) {
	info.Id, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	info.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	info.Description, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	info.DocCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	info.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var createdAt int64
	createdAt, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	info.CreatedAt = time.UnixMicro(createdAt).UTC()
	info.VectorDir, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	info.LexicalPath, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (batchInfoMUS) Size(info BatchInfo) (size int) {
	size = ord.String.Size(info.Id)
	size += ord.String.Size(info.Name)
	size += ord.String.Size(info.Description)
	size += varint.Int.Size(info.DocCount)
	size += varint.Int.Size(info.ChunkCount)
	size += varint.Int64.Size(info.CreatedAt.UnixMicro())
	size += ord.String.Size(info.VectorDir)
	size += ord.String.Size(info.LexicalPath)
	return
}
