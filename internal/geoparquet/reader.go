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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/transitlake/transitlake/internal/positions"
)

// ErrSchemaMismatch is returned when the files of one partition do not
// share a column-for-column compatible schema.
var ErrSchemaMismatch = errors.New("geoparquet: input schema mismatch")

const readBatchSize = 1024

// ReadFile loads every row of one positions parquet file.
func ReadFile(path string) ([]positions.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	pr := parquet.NewGenericReader[positions.Record](f)
	defer func() { _ = pr.Close() }()

	rows := make([]positions.Record, 0, pr.NumRows())
	for {
		// The reader deserializes into memory the destination records
		// already point at, so the batch slice cannot be reused across
		// iterations without aliasing rows appended earlier.
		buf := make([]positions.Record, readBatchSize)
		n, err := pr.Read(buf)
		rows = append(rows, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rows from %s: %w", path, err)
		}
	}
	return rows, nil
}

// FileMetadata returns the file-level key/value metadata of path.
func FileMetadata(path string) (map[string]string, error) {
	pf, f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	md := make(map[string]string)
	for _, kv := range pf.Metadata().KeyValueMetadata {
		md[kv.Key] = kv.Value
	}
	return md, nil
}

// RowGroupSizes returns the row count of each row group in path, in file
// order.
func RowGroupSizes(path string) ([]int64, error) {
	pf, f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sizes := make([]int64, 0, len(pf.RowGroups()))
	for _, rg := range pf.RowGroups() {
		sizes = append(sizes, rg.NumRows())
	}
	return sizes, nil
}

// ReadDataset loads all files of one partition as a single logical row
// set. The returned metadata is taken from the first file alone; later
// files' metadata is discarded even when it differs. Schemas must match
// column for column across all inputs or ErrSchemaMismatch is returned.
func ReadDataset(paths []string) ([]positions.Record, map[string]string, error) {
	if len(paths) == 0 {
		return nil, nil, nil
	}

	metadata, err := FileMetadata(paths[0])
	if err != nil {
		return nil, nil, err
	}

	var refSchema string
	var rows []positions.Record
	for i, path := range paths {
		schema, err := schemaString(path)
		if err != nil {
			return nil, nil, err
		}
		if i == 0 {
			refSchema = schema
		} else if schema != refSchema {
			return nil, nil, fmt.Errorf("%w: %s does not match %s", ErrSchemaMismatch, path, paths[0])
		}

		fileRows, err := ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, fileRows...)
	}
	return rows, metadata, nil
}

func schemaString(path string) (string, error) {
	pf, f, err := openFile(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	return pf.Schema().String(), nil
}

func openFile(path string) (*parquet.File, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("stat %s: %w", path, err)
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("open parquet file %s: %w", path, err)
	}
	return pf, f, nil
}
