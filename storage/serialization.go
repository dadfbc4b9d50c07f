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
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/poiesic/cookbook/core"
)

// Checkpoint records how far a maintenance job has progressed.
type Checkpoint struct {
	Name      string    `json:"name"`
	LastID    core.ID   `json:"last_id"`
	Processed int       `json:"processed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Every encoded value starts with a version byte so the layout can evolve.
const codecVersion byte = 1

// MarshalID serializes an ID to bytes (BigEndian so keys sort by ID).
func MarshalID(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	if len(data) < 8 {
		return 0, ErrTruncatedData
	}
	return core.ID(binary.BigEndian.Uint64(data)), nil
}

// MarshalRecipe serializes a RecipeRecord to bytes.
func MarshalRecipe(record *core.RecipeRecord) ([]byte, error) {
	return marshal(record)
}

// UnmarshalRecipe deserializes a RecipeRecord from bytes.
func UnmarshalRecipe(data []byte) (*core.RecipeRecord, error) {
	var record core.RecipeRecord
	if err := unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalChunk serializes an IndexChunk to bytes.
func MarshalChunk(chunk *core.IndexChunk) ([]byte, error) {
	return marshal(chunk)
}

// UnmarshalChunk deserializes an IndexChunk from bytes.
func UnmarshalChunk(data []byte) (*core.IndexChunk, error) {
	var chunk core.IndexChunk
	if err := unmarshal(data, &chunk); err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *Checkpoint) ([]byte, error) {
	return marshal(checkpoint)
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*Checkpoint, error) {
	var checkpoint Checkpoint
	if err := unmarshal(data, &checkpoint); err != nil {
		return nil, err
	}
	return &checkpoint, nil
}

func marshal(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return append([]byte{codecVersion}, body...), nil
}

func unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return ErrTruncatedData
	}
	if data[0] != codecVersion {
		return fmt.Errorf("%w: unknown codec version %d", ErrSerializationFailed, data[0])
	}
	if err := json.Unmarshal(data[1:], v); err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return nil
}
