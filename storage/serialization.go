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

	"github.com/poiesic/docqa/core"
)

// MarshalSession serializes a ChatSession to bytes.
func MarshalSession(session *core.ChatSession) []byte {
	buf := make([]byte, core.ChatSessionMUS.Size(*session))
	core.ChatSessionMUS.Marshal(*session, buf)
	return buf
}

// UnmarshalSession deserializes a ChatSession from bytes.
func UnmarshalSession(data []byte) (*core.ChatSession, error) {
	session, _, err := core.ChatSessionMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: session: %w", ErrSerializationFailed, err)
	}
	// Decoded times are local
	session.CreatedAt = session.CreatedAt.UTC()
	session.UpdatedAt = session.UpdatedAt.UTC()
	if session.Document != nil {
		session.Document.IngestedAt = session.Document.IngestedAt.UTC()
	}
	for i := range session.Messages {
		session.Messages[i].Timestamp = session.Messages[i].Timestamp.UTC()
	}
	return &session, nil
}

// MarshalChunk serializes a StoredChunk to bytes.
func MarshalChunk(chunk *core.StoredChunk) []byte {
	buf := make([]byte, core.StoredChunkMUS.Size(*chunk))
	core.StoredChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a StoredChunk from bytes.
func UnmarshalChunk(data []byte) (*core.StoredChunk, error) {
	chunk, _, err := core.StoredChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk: %w", ErrSerializationFailed, err)
	}
	chunk.InsertedAt = chunk.InsertedAt.UTC()
	return &chunk, nil
}
