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
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/transitlake/transitlake/internal/geoparquet"
	"github.com/transitlake/transitlake/internal/logctx"
	"github.com/transitlake/transitlake/internal/objstore"
	"github.com/transitlake/transitlake/internal/positions"
)

// Compactor merges the files of calendar partitions. The store client
// is injected; the compactor holds no ambient state and only transient
// per-partition buffers.
type Compactor struct {
	store objstore.Client
}

func NewCompactor(store objstore.Client) *Compactor {
	return &Compactor{store: store}
}

// Run compacts every partition the job plans, oldest first, strictly
// sequentially. The first failing partition aborts the run and
// propagates; retry policy belongs to the scheduler.
func (c *Compactor) Run(ctx context.Context, job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	parts, err := job.Plan(time.Now())
	if err != nil {
		return err
	}

	ll := logctx.FromContext(ctx)
	for i, pk := range parts {
		pctx := logctx.With(ctx, slog.String("partition", pk.String()))
		if err := c.CompactPartition(pctx, job.Bucket, job.Scope, pk); err != nil {
			return fmt.Errorf("compact partition %s: %w", pk, err)
		}
		ll.Info("compacted partition",
			slog.String("partition", pk.String()),
			slog.Int("completed", i+1),
			slog.Int("total", len(parts)))
	}
	ll.Info("compaction complete", slog.Int("partitions", len(parts)))
	return nil
}

// CompactPartition merges every object visible under one partition into
// geohash-sorted replacement file(s) at the next granularity. An empty
// partition is a logged no-op. Source objects are retained afterwards
// as an archival fallback.
func (c *Compactor) CompactPartition(ctx context.Context, bucket, scope string, pk PartitionKey) error {
	ll := logctx.FromContext(ctx)

	prefix := pk.SourcePrefix(scope)
	listed, err := c.store.ListObjects(ctx, bucket, prefix)
	if err != nil {
		return err
	}

	var inputs []objstore.ObjectInfo
	for _, obj := range listed {
		if pk.IsInput(scope, obj.Key) {
			inputs = append(inputs, obj)
		}
	}
	if len(inputs) == 0 {
		ll.Info("no objects found", slog.String("prefix", prefix))
		return nil
	}
	ll.Info("found objects", slog.Int("count", len(inputs)), slog.String("prefix", prefix))

	tmpdir, err := os.MkdirTemp("", "transitlake-compact-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpdir) }()

	// Listed order is lexicographic, so "first" is deterministic; the
	// first file's metadata wins the tie-break inside ReadDataset.
	paths := make([]string, 0, len(inputs))
	for _, obj := range inputs {
		filename, _, notFound, err := c.store.DownloadObject(ctx, tmpdir, bucket, obj.Key)
		if err != nil {
			return err
		}
		if notFound {
			return fmt.Errorf("object %s/%s vanished between list and read", bucket, obj.Key)
		}
		paths = append(paths, filename)
	}

	rows, metadata, err := geoparquet.ReadDataset(paths)
	if err != nil {
		return err
	}

	positions.SortByGeohash(rows)

	outdir := filepath.Join(tmpdir, "out")
	if err := os.Mkdir(outdir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	names, err := geoparquet.WriteDataset(outdir, rows, geoparquet.WriteOptions{
		Metadata: metadata,
		Policy:   policyFor(pk.Granularity),
	})
	if err != nil {
		return err
	}

	for n, name := range names {
		key := pk.OutputKey(scope, n)
		if err := c.store.UploadObject(ctx, bucket, key, filepath.Join(outdir, name)); err != nil {
			return err
		}
		ll.Info("uploaded object",
			slog.String("key", key),
			slog.String("bucket", bucket),
			slog.Int64("rows", int64(len(rows))))
	}
	return nil
}

func policyFor(g Granularity) geoparquet.RowGroupPolicy {
	if g == GranularityMonth {
		return geoparquet.MonthPolicy
	}
	return geoparquet.DayPolicy
}
