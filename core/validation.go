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

import "fmt"

// ValidateContentRecord validates a ContentRecord according to domain rules.
//
// Validation rules:
//   - RawText must not be empty
//   - SourceURL must not be empty
func ValidateContentRecord(record *ContentRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidContentRecord)
	}

	if record.RawText == "" {
		return fmt.Errorf("%w: %w", ErrInvalidContentRecord, ErrEmptyContent)
	}

	if record.SourceURL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidContentRecord, ErrEmptySource)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - SourceURL must not be empty
//
// NOT validated:
//   - ID (0 is a legal hash value)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.SourceURL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptySource)
	}

	return nil
}

// ValidateTurn validates a conversation turn.
func ValidateTurn(turn Turn) error {
	if turn.Role != RoleHuman && turn.Role != RoleAI {
		return fmt.Errorf("%w: %q", ErrInvalidRole, turn.Role)
	}
	return nil
}
