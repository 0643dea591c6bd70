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

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/docqa/core"
)

// float32Size is the encoded size of one vector component.
const float32Size = 4

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := varint.Uint64.Unmarshal(data)
	return core.ID(id), err
}

// MarshalIndexRecord serializes an IndexRecord to bytes.
// Layout: id, text, source, index, vector length, then fixed-width components.
func MarshalIndexRecord(record *core.IndexRecord) []byte {
	buf := make([]byte, indexRecordSize(record))
	n := varint.Uint64.Marshal(uint64(record.Id), buf)
	n += ord.String.Marshal(record.Text, buf[n:])
	n += ord.String.Marshal(record.SourceURL, buf[n:])
	n += varint.Int.Marshal(record.Index, buf[n:])
	n += varint.Int.Marshal(len(record.Vector), buf[n:])
	for _, v := range record.Vector {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	return buf
}

func indexRecordSize(record *core.IndexRecord) int {
	size := varint.Uint64.Size(uint64(record.Id))
	size += ord.String.Size(record.Text)
	size += ord.String.Size(record.SourceURL)
	size += varint.Int.Size(record.Index)
	size += varint.Int.Size(len(record.Vector))
	return size + len(record.Vector)*float32Size
}

// UnmarshalIndexRecord deserializes an IndexRecord from bytes.
func UnmarshalIndexRecord(data []byte) (*core.IndexRecord, error) {
	var (
		record core.IndexRecord
		n      int
	)

	id, m, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %v", ErrSerializationFailed, err)
	}
	record.Id = core.ID(id)
	n += m

	record.Text, m, err = ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: text: %v", ErrSerializationFailed, err)
	}
	n += m

	record.SourceURL, m, err = ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: source: %v", ErrSerializationFailed, err)
	}
	n += m

	record.Index, m, err = varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: index: %v", ErrSerializationFailed, err)
	}
	n += m

	length, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: vector length: %v", ErrSerializationFailed, err)
	}
	n += m
	if length < 0 || length*float32Size > len(data)-n {
		return nil, fmt.Errorf("%w: vector of %d components", ErrTruncatedData, length)
	}

	if length > 0 {
		record.Vector = make([]float32, length)
		for i := range record.Vector {
			record.Vector[i], m, err = raw.Float32.Unmarshal(data[n:])
			if err != nil {
				return nil, fmt.Errorf("%w: vector: %v", ErrSerializationFailed, err)
			}
			n += m
		}
	}

	return &record, nil
}
