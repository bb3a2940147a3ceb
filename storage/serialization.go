// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/inkwell/core"
)

// vectorSer serializes embedding vectors as length-prefixed raw float32s.
var vectorSer = ord.NewSliceSer[float32](raw.Float32)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

// MarshalDocument serializes a StoredDocument to bytes.
//
// Field order is fixed; adding fields requires appending to the end so older
// values keep decoding.
func MarshalDocument(doc *core.StoredDocument) []byte {
	buf := make([]byte, sizeDocument(doc))
	n := varint.Uint64.Marshal(uint64(doc.Id), buf)
	n += ord.String.Marshal(doc.CourseId, buf[n:])
	n += ord.String.Marshal(doc.Title, buf[n:])
	n += ord.String.Marshal(doc.Excerpt, buf[n:])
	n += ord.String.Marshal(doc.Contents, buf[n:])
	n += varint.Int.Marshal(int(doc.Status), buf[n:])
	n += vectorSer.Marshal(doc.Vector, buf[n:])
	n += varint.Int64.Marshal(timeToMicro(doc.CreatedAt), buf[n:])
	varint.Int64.Marshal(timeToMicro(doc.UpdatedAt), buf[n:])
	return buf
}

// UnmarshalDocument deserializes a StoredDocument from bytes.
func UnmarshalDocument(data []byte) (*core.StoredDocument, error) {
	doc := &core.StoredDocument{}
	n := 0

	id, sz, err := varint.Uint64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	doc.Id = core.ID(id)
	n += sz

	for _, field := range []struct {
		name string
		dst  *string
	}{
		{"course id", &doc.CourseId},
		{"title", &doc.Title},
		{"excerpt", &doc.Excerpt},
		{"contents", &doc.Contents},
	} {
		s, sz, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrSerializationFailed, field.name, err)
		}
		*field.dst = s
		n += sz
	}

	status, sz, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: status: %w", ErrSerializationFailed, err)
	}
	doc.Status = core.DocumentStatus(status)
	n += sz

	vector, sz, err := vectorSer.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: vector: %w", ErrSerializationFailed, err)
	}
	doc.Vector = vector
	n += sz

	created, sz, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: created at: %w", ErrSerializationFailed, err)
	}
	doc.CreatedAt = microToTime(created)
	n += sz

	updated, _, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: updated at: %w", ErrSerializationFailed, err)
	}
	doc.UpdatedAt = microToTime(updated)

	return doc, nil
}

func sizeDocument(doc *core.StoredDocument) int {
	return varint.Uint64.Size(uint64(doc.Id)) +
		ord.String.Size(doc.CourseId) +
		ord.String.Size(doc.Title) +
		ord.String.Size(doc.Excerpt) +
		ord.String.Size(doc.Contents) +
		varint.Int.Size(int(doc.Status)) +
		vectorSer.Size(doc.Vector) +
		varint.Int64.Size(timeToMicro(doc.CreatedAt)) +
		varint.Int64.Size(timeToMicro(doc.UpdatedAt))
}

// Zero times are stored as 0 so they round-trip as time.Time{} rather than
// a huge negative Unix offset.
func timeToMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func microToTime(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}
