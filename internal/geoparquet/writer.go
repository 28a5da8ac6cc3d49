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

// Package geoparquet reads and writes the positions parquet files. Row
// groups are bounded per granularity and output is zstd compressed at a
// fixed level, so that re-encoding the same sorted row set is
// byte-stable across runs.
package geoparquet

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/transitlake/transitlake/internal/positions"
)

// RowGroupPolicy bounds the row count of emitted row groups. Only
// MaxRows is handed to the writer; every non-final group is flushed at
// exactly MaxRows, so MinRows holds as a derived bound as long as
// MinRows <= MaxRows. Only the final group of a file may fall below it.
type RowGroupPolicy struct {
	MinRows int64
	MaxRows int64
}

var (
	// DayPolicy applies when merging raw snapshots into one day file.
	DayPolicy = RowGroupPolicy{MinRows: 61_440, MaxRows: 122_880}

	// MonthPolicy applies when merging day files into one month file.
	// The lower bound is looser since day-compacted inputs are already
	// dense.
	MonthPolicy = RowGroupPolicy{MinRows: 15_360, MaxRows: 122_880}

	// SnapshotPolicy applies to single raw feed snapshots, which are a
	// few thousand rows at most.
	SnapshotPolicy = RowGroupPolicy{MinRows: 1, MaxRows: 122_880}
)

// WriteOptions configures one WriteFile call.
type WriteOptions struct {
	// Metadata is attached as file-level key/value metadata.
	Metadata map[string]string
	// Policy bounds row group sizes.
	Policy RowGroupPolicy
}

func writerOptions(opts WriteOptions) []parquet.WriterOption {
	wopts := []parquet.WriterOption{
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedDefault}),
		parquet.MaxRowsPerRowGroup(opts.Policy.MaxRows),
	}
	for _, k := range sortedKeys(opts.Metadata) {
		wopts = append(wopts, parquet.KeyValueMetadata(k, opts.Metadata[k]))
	}
	return wopts
}

// WriteFile writes rows to path. A zero-row slice still produces a
// valid, empty parquet file carrying the schema and metadata.
func WriteFile(path string, rows []positions.Record, opts WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	pw := parquet.NewGenericWriter[positions.Record](f, writerOptions(opts)...)
	for len(rows) > 0 {
		n, err := pw.Write(rows)
		if err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return fmt.Errorf("write rows to %s: %w", path, err)
		}
		rows = rows[n:]
	}
	if err := pw.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("close parquet writer for %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// WriteDataset writes rows into dir as positions_{n}.parquet files and
// returns the file names in index order. The current policy emits a
// single file; the name sequence exists so a future size-based split
// keeps the key layout stable.
func WriteDataset(dir string, rows []positions.Record, opts WriteOptions) ([]string, error) {
	name := DatasetFileName(0)
	if err := WriteFile(filepath.Join(dir, name), rows, opts); err != nil {
		return nil, err
	}
	return []string{name}, nil
}

// DatasetFileName returns the n-th output file name of a compacted
// partition.
func DatasetFileName(n int) string {
	return fmt.Sprintf("positions_%d.parquet", n)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
