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

package core

import (
	"fmt"
	"strings"
)

// ValidateSessionID checks that a session id is present.
func ValidateSessionID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, ErrEmptySessionID)
	}
	return nil
}

// ValidateRole checks that a role is one a transcript may hold.
// Alternate labels are normalized before checking.
func ValidateRole(r Role) error {
	switch NormalizeRole(r) {
	case RoleUser, RoleModel:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidRole, r)
}

// ValidateMessage validates a transcript entry.
//
// Validation rules:
//   - Role must be user or model (after normalization)
//
// Text is NOT validated: a model reply may legitimately be empty.
func ValidateMessage(msg Message) error {
	if err := ValidateRole(msg.Role); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return nil
}

// ValidateChunk validates a vector store record before it is written.
//
// Validation rules:
//   - ID and Namespace must not be empty
//   - Text must not be empty
//   - Vector must not be empty
func ValidateChunk(chunk *StoredChunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidArgument)
	}
	if chunk.ID == "" {
		return fmt.Errorf("%w: chunk id cannot be empty", ErrInvalidArgument)
	}
	if chunk.Namespace == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, ErrEmptySessionID)
	}
	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, ErrEmptyText)
	}
	if len(chunk.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, ErrEmptyVector)
	}
	return nil
}
