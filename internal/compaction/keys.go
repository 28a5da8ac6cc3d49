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

package compaction

import (
	"fmt"
	"strings"
	"time"

	"github.com/transitlake/transitlake/internal/geoparquet"
)

// Object key layout. These must stay bit-exact; downstream readers
// address the data by these prefixes.
//
//	raw:             [scope/]positions_raw/YYYY/MM/DD/HHMMSS.parquet
//	day-compacted:   [scope/]positions/YYYY/MM/DD/positions_{n}.parquet
//	month-compacted: [scope/]positions/YYYY/MM/positions_{n}.parquet
const (
	rawRoot       = "positions_raw"
	compactedRoot = "positions"
)

func scoped(scope, key string) string {
	if scope == "" {
		return key
	}
	return scope + "/" + key
}

// RawObjectKey is the key of one raw feed snapshot, timestamped at
// write time in the feed's zone so keys within a day are monotonic.
func RawObjectKey(scope string, t time.Time) string {
	return scoped(scope, fmt.Sprintf("%s/%04d/%02d/%02d/%02d%02d%02d.parquet",
		rawRoot, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second()))
}

// SourcePrefix is the prefix this partition's inputs are listed under:
// raw snapshots for a day partition, day-compacted files for a month
// partition.
func (k PartitionKey) SourcePrefix(scope string) string {
	if k.Granularity == GranularityMonth {
		return scoped(scope, fmt.Sprintf("%s/%04d/%02d/", compactedRoot, k.Year, int(k.Month)))
	}
	return scoped(scope, fmt.Sprintf("%s/%04d/%02d/%02d/", rawRoot, k.Year, int(k.Month), k.Day))
}

// DestPrefix is the prefix this partition's compacted output replaces.
func (k PartitionKey) DestPrefix(scope string) string {
	if k.Granularity == GranularityMonth {
		return scoped(scope, fmt.Sprintf("%s/%04d/%02d/", compactedRoot, k.Year, int(k.Month)))
	}
	return scoped(scope, fmt.Sprintf("%s/%04d/%02d/%02d/", compactedRoot, k.Year, int(k.Month), k.Day))
}

// OutputKey is the key of the n-th compacted output file.
func (k PartitionKey) OutputKey(scope string, n int) string {
	return k.DestPrefix(scope) + geoparquet.DatasetFileName(n)
}

// IsInput reports whether a listed key is an input to this partition's
// merge. Non-parquet keys are never inputs. For month partitions, keys
// directly in the month directory are this compactor's own previous
// output and are excluded, so re-rolling a month never double-counts.
func (k PartitionKey) IsInput(scope, key string) bool {
	if !strings.HasSuffix(key, ".parquet") {
		return false
	}
	rel := strings.TrimPrefix(key, k.SourcePrefix(scope))
	if k.Granularity == GranularityMonth && !strings.Contains(rel, "/") {
		return false
	}
	return true
}
