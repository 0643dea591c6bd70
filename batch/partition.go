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


package batch

import (
	"fmt"

	"github.com/poiesic/docqa/core"
)

// Partition splits items into consecutive batches of size elements.
// Every batch holds exactly size elements except the last, which holds the
// remainder. Order is preserved and no element is duplicated or dropped.
// An empty input yields no batches.
func Partition[T any](items []T, size int) ([][]T, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", core.ErrInvalidArgument, size)
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		// Cap the capacity so appending to one batch never clobbers the next.
		batches = append(batches, items[i:end:end])
	}
	return batches, nil
}

// Count returns the number of batches Partition would produce.
func Count(n, size int) int {
	if size <= 0 || n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}
