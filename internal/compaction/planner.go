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
	"time"
)

// PartitionKey addresses one calendar-aligned subset of the data. Keys
// are constructed per invocation and never persisted.
type PartitionKey struct {
	Granularity Granularity
	Year        int
	Month       time.Month
	Day         int
}

// String renders the key the way it appears in storage paths:
// "YYYY/MM/DD" for days, "YYYY/MM" for months.
func (k PartitionKey) String() string {
	if k.Granularity == GranularityMonth {
		return fmt.Sprintf("%04d/%02d", k.Year, int(k.Month))
	}
	return fmt.Sprintf("%04d/%02d/%02d", k.Year, int(k.Month), k.Day)
}

// PlanRange produces the ordered, oldest-first partitions to compact.
// For days the range starts at now−duration days; for months at
// now−duration months. compactToNow extends the range by exactly one
// unit so the current (possibly partial) period is re-rolled too. The
// function is pure: the same now always yields the same list.
func PlanRange(now time.Time, duration int, g Granularity, compactToNow bool) []PartitionKey {
	count := duration
	if compactToNow {
		count++
	}

	keys := make([]PartitionKey, 0, count)
	switch g {
	case GranularityMonth:
		// Normalize to the first of the month so stepping is calendar
		// arithmetic, not day-of-month clamping.
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -duration, 0)
		for n := 0; n < count; n++ {
			t := start.AddDate(0, n, 0)
			keys = append(keys, PartitionKey{
				Granularity: GranularityMonth,
				Year:        t.Year(),
				Month:       t.Month(),
			})
		}
	default:
		start := now.AddDate(0, 0, -duration)
		for n := 0; n < count; n++ {
			t := start.AddDate(0, 0, n)
			keys = append(keys, PartitionKey{
				Granularity: GranularityDay,
				Year:        t.Year(),
				Month:       t.Month(),
				Day:         t.Day(),
			})
		}
	}
	return keys
}

// Plan resolves the job's time zone and produces its partition list
// from the current wall clock.
func (j Job) Plan(now time.Time) ([]PartitionKey, error) {
	loc, err := j.Location()
	if err != nil {
		return nil, err
	}
	return PlanRange(now.In(loc), j.Duration, j.Granularity, j.CompactToNow), nil
}
