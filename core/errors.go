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

import "errors"

// Domain validation errors
var (
	// ErrInvalidArgument indicates a caller supplied an unusable parameter,
	// such as a non-positive batch or chunk size.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidContentRecord indicates a ContentRecord failed validation.
	ErrInvalidContentRecord = errors.New("invalid content record")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyContent indicates the text of a record or chunk is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptySource indicates the source URL is empty.
	ErrEmptySource = errors.New("source url cannot be empty")

	// ErrInvalidRole indicates a conversation turn carries an unknown role.
	ErrInvalidRole = errors.New("invalid role")
)
