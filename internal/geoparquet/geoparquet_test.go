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

package geoparquet

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitlake/transitlake/internal/positions"
)

func ptr[T any](v T) *T { return &v }

func makeRows(t *testing.T, n int) []positions.Record {
	t.Helper()
	rows := make([]positions.Record, 0, n)
	for i := 0; i < n; i++ {
		rec := positions.Record{
			TripID:    ptr(fmt.Sprintf("trip-%05d", i)),
			VehicleID: ptr(fmt.Sprintf("veh-%d", i%7)),
			Latitude:  ptr(51.0 + float64(i)*0.001),
			Longitude: ptr(-114.0 - float64(i)*0.001),
		}
		rec.SetTime(time.Date(2025, 3, 9, 7, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Second))
		require.NoError(t, positions.Enrich(&rec))
		rows = append(rows, rec)
	}
	return rows
}

func TestWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roundtrip.parquet")
	rows := makeRows(t, 25)

	md, err := positions.FileMetadata("America/Edmonton")
	require.NoError(t, err)

	require.NoError(t, WriteFile(path, rows, WriteOptions{Metadata: md, Policy: SnapshotPolicy}))

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got, len(rows))
	for i := range rows {
		assert.Equal(t, rows[i].TripID, got[i].TripID)
		assert.Equal(t, rows[i].Timestamp, got[i].Timestamp)
		assert.Equal(t, rows[i].Geohash, got[i].Geohash)
		assert.Equal(t, rows[i].Geometry, got[i].Geometry)
	}

	gotMD, err := FileMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, md[positions.GeoMetadataKey], gotMD[positions.GeoMetadataKey])
	assert.Equal(t, "America/Edmonton", gotMD["timezone"])
}

// Files longer than one read batch must come back row for row; the
// reader assembles them batch by batch and any aliasing between batches
// shows up here.
func TestReadFileBeyondOneBatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "large.parquet")
	rows := makeRows(t, 3000)

	require.NoError(t, WriteFile(path, rows, WriteOptions{Policy: DayPolicy}))

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got, len(rows))

	// Spot-check both ends and every batch seam.
	for _, i := range []int{0, 1, 1023, 1024, 2047, 2048, 2999} {
		require.NotNil(t, got[i].TripID, "row %d", i)
		assert.Equal(t, fmt.Sprintf("trip-%05d", i), *got[i].TripID, "row %d", i)
		assert.Equal(t, rows[i].Timestamp, got[i].Timestamp, "row %d", i)
		require.NotNil(t, got[i].Latitude, "row %d", i)
		assert.InDelta(t, *rows[i].Latitude, *got[i].Latitude, 1e-9, "row %d", i)
	}
}

func TestWriteFileEmptyRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.parquet")

	require.NoError(t, WriteFile(path, nil, WriteOptions{Policy: SnapshotPolicy}))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRowGroupBounds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "groups.parquet")
	rows := makeRows(t, 10)

	policy := RowGroupPolicy{MinRows: 2, MaxRows: 4}
	require.NoError(t, WriteFile(path, rows, WriteOptions{Policy: policy}))

	sizes, err := RowGroupSizes(path)
	require.NoError(t, err)
	require.NotEmpty(t, sizes)

	var total int64
	for i, size := range sizes {
		assert.LessOrEqual(t, size, policy.MaxRows)
		if i < len(sizes)-1 {
			// Non-final groups flush at exactly MaxRows, which is what
			// keeps the MinRows floor intact.
			assert.Equal(t, policy.MaxRows, size)
		}
		total += size
	}
	assert.Equal(t, int64(10), total)
}

func TestReadDatasetMetadataTieBreak(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.parquet")
	second := filepath.Join(dir, "b.parquet")

	require.NoError(t, WriteFile(first, makeRows(t, 3), WriteOptions{
		Metadata: map[string]string{"source": "first", "shared": "one"},
		Policy:   SnapshotPolicy,
	}))
	require.NoError(t, WriteFile(second, makeRows(t, 2), WriteOptions{
		Metadata: map[string]string{"source": "second", "extra": "ignored"},
		Policy:   SnapshotPolicy,
	}))

	rows, md, err := ReadDataset([]string{first, second})
	require.NoError(t, err)
	assert.Len(t, rows, 5)
	assert.Equal(t, "first", md["source"])
	assert.Equal(t, "one", md["shared"])
	assert.NotContains(t, md, "extra")
}

func TestReadDatasetSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.parquet")
	require.NoError(t, WriteFile(good, makeRows(t, 2), WriteOptions{Policy: SnapshotPolicy}))

	// A file with a different column set must abort the merge.
	type Record struct {
		TripID   *string `parquet:"trip_id,optional"`
		Odometer *int64  `parquet:"odometer,optional"`
	}
	bad := filepath.Join(dir, "bad.parquet")
	f, err := os.Create(bad)
	require.NoError(t, err)
	pw := parquet.NewGenericWriter[Record](f)
	_, err = pw.Write([]Record{{TripID: ptr("t")}})
	require.NoError(t, err)
	require.NoError(t, pw.Close())
	require.NoError(t, f.Close())

	_, _, err = ReadDataset([]string{good, bad})
	require.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestReadDatasetEmpty(t *testing.T) {
	rows, md, err := ReadDataset(nil)
	require.NoError(t, err)
	assert.Nil(t, rows)
	assert.Nil(t, md)
}

func TestDatasetFileName(t *testing.T) {
	assert.Equal(t, "positions_0.parquet", DatasetFileName(0))
	assert.Equal(t, "positions_3.parquet", DatasetFileName(3))
}
