// Copyright 2025 The transitlake authors
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

package positions

import (
	"slices"
	"strings"
)

// SortByGeohash sorts rows by geohash ascending, nulls first. The sort
// is stable so repeated compactions of the same inputs produce identical
// output files.
func SortByGeohash(rows []Record) {
	slices.SortStableFunc(rows, func(a, b Record) int {
		switch {
		case a.Geohash == nil && b.Geohash == nil:
			return 0
		case a.Geohash == nil:
			return -1
		case b.Geohash == nil:
			return 1
		default:
			return strings.Compare(*a.Geohash, *b.Geohash)
		}
	})
}
