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

// Package ingest turns one feed snapshot into one raw parquet object.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/transitlake/transitlake/internal/compaction"
	"github.com/transitlake/transitlake/internal/geoparquet"
	"github.com/transitlake/transitlake/internal/gtfsrt"
	"github.com/transitlake/transitlake/internal/logctx"
	"github.com/transitlake/transitlake/internal/objstore"
	"github.com/transitlake/transitlake/internal/positions"
)

// Params configures one ingest invocation, from the scheduler's trigger
// record.
type Params struct {
	FeedURL    string
	Timezone   string
	Bucket     string
	Scope      string
	AuthHeader *gtfsrt.AuthHeader
}

// Ingestor fetches feed snapshots and appends raw objects for the
// compactor to pick up later. Both clients are injected; the ingestor
// holds no ambient state.
type Ingestor struct {
	store objstore.Client
	httpc *http.Client

	// now is the write-time clock, replaceable in tests.
	now func() time.Time
}

func NewIngestor(store objstore.Client, httpc *http.Client) *Ingestor {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Ingestor{store: store, httpc: httpc, now: time.Now}
}

// Run fetches one snapshot and writes exactly one raw object, keyed at
// write time in the configured zone. An empty feed still produces a
// valid, empty object. Returns the written key and the record count.
func (i *Ingestor) Run(ctx context.Context, p Params) (string, int, error) {
	ll := logctx.FromContext(ctx)

	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return "", 0, fmt.Errorf("ingest: load time zone %q: %w", p.Timezone, err)
	}

	feed, err := gtfsrt.FetchFeed(ctx, i.httpc, p.FeedURL, p.AuthHeader)
	if err != nil {
		return "", 0, fmt.Errorf("ingest: %w", err)
	}

	records := gtfsrt.DecodeVehiclePositions(feed, loc)
	if err := positions.EnrichAll(records); err != nil {
		return "", 0, fmt.Errorf("ingest: %w", err)
	}
	ll.Info("discovered vehicle position records", slog.Int("count", len(records)))

	metadata, err := positions.FileMetadata(p.Timezone)
	if err != nil {
		return "", 0, fmt.Errorf("ingest: %w", err)
	}

	tmpdir, err := os.MkdirTemp("", "transitlake-ingest-*")
	if err != nil {
		return "", 0, fmt.Errorf("ingest: create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpdir) }()

	path := filepath.Join(tmpdir, "positions.parquet")
	if err := geoparquet.WriteFile(path, records, geoparquet.WriteOptions{
		Metadata: metadata,
		Policy:   geoparquet.SnapshotPolicy,
	}); err != nil {
		return "", 0, fmt.Errorf("ingest: %w", err)
	}

	key := compaction.RawObjectKey(p.Scope, i.now().In(loc))
	ll.Info("uploading object", slog.String("key", key), slog.String("bucket", p.Bucket))
	if err := i.store.UploadObject(ctx, p.Bucket, key, path); err != nil {
		return "", 0, fmt.Errorf("ingest: %w", err)
	}

	return key, len(records), nil
}
