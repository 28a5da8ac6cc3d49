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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanRangeDays(t *testing.T) {
	now := time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC)

	keys := PlanRange(now, 5, GranularityDay, false)
	require.Len(t, keys, 5)
	assert.Equal(t, "2025/03/10", keys[0].String())
	assert.Equal(t, "2025/03/11", keys[1].String())
	assert.Equal(t, "2025/03/12", keys[2].String())
	assert.Equal(t, "2025/03/13", keys[3].String())
	assert.Equal(t, "2025/03/14", keys[4].String())
}

func TestPlanRangeDaysCompactToNow(t *testing.T) {
	now := time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC)

	keys := PlanRange(now, 5, GranularityDay, true)
	require.Len(t, keys, 6)
	assert.Equal(t, "2025/03/10", keys[0].String())
	assert.Equal(t, "2025/03/15", keys[5].String(), "extra unit is now's own day")
}

func TestPlanRangeDaysCrossMonthBoundary(t *testing.T) {
	now := time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)

	keys := PlanRange(now, 3, GranularityDay, false)
	require.Len(t, keys, 3)
	assert.Equal(t, "2025/02/27", keys[0].String())
	assert.Equal(t, "2025/02/28", keys[1].String())
	assert.Equal(t, "2025/03/01", keys[2].String())
}

func TestPlanRangeMonths(t *testing.T) {
	now := time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC)

	keys := PlanRange(now, 2, GranularityMonth, false)
	require.Len(t, keys, 2)
	assert.Equal(t, "2025/01", keys[0].String())
	assert.Equal(t, "2025/02", keys[1].String())

	keys = PlanRange(now, 2, GranularityMonth, true)
	require.Len(t, keys, 3)
	assert.Equal(t, "2025/03", keys[2].String(), "extra unit is the in-progress month")
}

func TestPlanRangeMonthsCrossYearBoundary(t *testing.T) {
	now := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)

	keys := PlanRange(now, 2, GranularityMonth, false)
	require.Len(t, keys, 2)
	assert.Equal(t, "2024/11", keys[0].String())
	assert.Equal(t, "2024/12", keys[1].String())
}

func TestPlanRangeMonthsIgnoresDayOfMonthClamping(t *testing.T) {
	// Mar 31 minus one month must land in February, not March.
	now := time.Date(2025, time.March, 31, 12, 0, 0, 0, time.UTC)

	keys := PlanRange(now, 1, GranularityMonth, false)
	require.Len(t, keys, 1)
	assert.Equal(t, "2025/02", keys[0].String())
}

func TestPlanRangeIsPure(t *testing.T) {
	now := time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t,
		PlanRange(now, 7, GranularityDay, true),
		PlanRange(now, 7, GranularityDay, true))
}

func TestJobPlanUsesJobZone(t *testing.T) {
	job := Job{
		Bucket:      "b",
		Timezone:    "America/Edmonton",
		Duration:    1,
		Granularity: GranularityDay,
	}
	// 02:00 UTC on Mar 15 is still Mar 14 in Edmonton, so the single
	// planned day is Mar 13 local.
	now := time.Date(2025, time.March, 15, 2, 0, 0, 0, time.UTC)
	keys, err := job.Plan(now)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "2025/03/13", keys[0].String())
}
