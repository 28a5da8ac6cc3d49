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

package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/transitlake/transitlake/internal/geoparquet"
	"github.com/transitlake/transitlake/internal/gtfsrt"
	"github.com/transitlake/transitlake/internal/objstore"
	"github.com/transitlake/transitlake/internal/positions"
)

func feedBytes(t *testing.T, entities ...*gtfs.FeedEntity) []byte {
	t.Helper()
	data, err := proto.Marshal(&gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{GtfsRealtimeVersion: proto.String("2.0")},
		Entity: entities,
	})
	require.NoError(t, err)
	return data
}

func vehicleEntity(id string, lat, lon float32) *gtfs.FeedEntity {
	return &gtfs.FeedEntity{
		Id: proto.String(id),
		Vehicle: &gtfs.VehiclePosition{
			Vehicle: &gtfs.VehicleDescriptor{Id: proto.String("bus-" + id)},
			Position: &gtfs.Position{
				Latitude:  proto.Float32(lat),
				Longitude: proto.Float32(lon),
			},
			Timestamp: proto.Uint64(1741600000),
		},
	}
}

func feedServer(t *testing.T, body []byte, wantHeader *gtfsrt.AuthHeader) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wantHeader != nil && r.Header.Get(wantHeader.Name) != wantHeader.Value {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testIngestor(base string, fixed time.Time) (*Ingestor, objstore.Client) {
	client := objstore.NewFileClient(base)
	ing := NewIngestor(client, nil)
	ing.now = func() time.Time { return fixed }
	return ing, client
}

func TestRunWritesOneRawObject(t *testing.T) {
	body := feedBytes(t,
		vehicleEntity("1", 51.05, -114.07),
		vehicleEntity("2", 51.06, -114.08),
	)
	srv := feedServer(t, body, nil)

	base := t.TempDir()
	fixed := time.Date(2025, time.March, 9, 7, 4, 2, 0, time.UTC)
	ing, _ := testIngestor(base, fixed)

	key, count, err := ing.Run(context.Background(), Params{
		FeedURL:  srv.URL,
		Timezone: "UTC",
		Bucket:   "transit-data",
	})
	require.NoError(t, err)
	assert.Equal(t, "positions_raw/2025/03/09/070402.parquet", key)
	assert.Equal(t, 2, count)

	rows, err := geoparquet.ReadFile(filepath.Join(base, "transit-data", filepath.FromSlash(key)))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].Geohash)
	assert.Len(t, *rows[0].Geohash, positions.GeohashPrecision)
	assert.NotNil(t, rows[0].Geometry)

	md, err := geoparquet.FileMetadata(filepath.Join(base, "transit-data", filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Contains(t, md, positions.GeoMetadataKey)
}

func TestRunKeyUsesConfiguredZone(t *testing.T) {
	srv := feedServer(t, feedBytes(t), nil)

	base := t.TempDir()
	// 02:30 UTC on Mar 9 is 19:30 Mar 8 in Edmonton.
	fixed := time.Date(2025, time.March, 9, 2, 30, 0, 0, time.UTC)
	ing, _ := testIngestor(base, fixed)

	key, _, err := ing.Run(context.Background(), Params{
		FeedURL:  srv.URL,
		Timezone: "America/Edmonton",
		Bucket:   "transit-data",
		Scope:    "calgary",
	})
	require.NoError(t, err)
	assert.Equal(t, "calgary/positions_raw/2025/03/08/193000.parquet", key)
}

func TestRunEmptyFeedStillWrites(t *testing.T) {
	srv := feedServer(t, feedBytes(t), nil)

	base := t.TempDir()
	ing, client := testIngestor(base, time.Date(2025, time.March, 9, 12, 0, 0, 0, time.UTC))

	key, count, err := ing.Run(context.Background(), Params{
		FeedURL:  srv.URL,
		Timezone: "UTC",
		Bucket:   "transit-data",
	})
	require.NoError(t, err)
	assert.Zero(t, count)

	objs, err := client.ListObjects(context.Background(), "transit-data", "positions_raw/")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, key, objs[0].Key)

	rows, err := geoparquet.ReadFile(filepath.Join(base, "transit-data", filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRunSendsAuthHeader(t *testing.T) {
	auth := &gtfsrt.AuthHeader{Name: "X-Api-Key", Value: "sekrit"}
	srv := feedServer(t, feedBytes(t, vehicleEntity("1", 51.0, -114.0)), auth)

	base := t.TempDir()
	ing, _ := testIngestor(base, time.Date(2025, time.March, 9, 12, 0, 0, 0, time.UTC))

	_, count, err := ing.Run(context.Background(), Params{
		FeedURL:    srv.URL,
		Timezone:   "UTC",
		Bucket:     "transit-data",
		AuthHeader: auth,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunFetchFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	base := t.TempDir()
	ing, client := testIngestor(base, time.Now())

	_, _, err := ing.Run(context.Background(), Params{
		FeedURL:  srv.URL,
		Timezone: "UTC",
		Bucket:   "transit-data",
	})
	require.Error(t, err)

	objs, err := client.ListObjects(context.Background(), "transit-data", "positions_raw/")
	require.NoError(t, err)
	assert.Empty(t, objs, "failed fetch must not write")
}

func TestRunRejectsBadTimezone(t *testing.T) {
	ing, _ := testIngestor(t.TempDir(), time.Now())
	_, _, err := ing.Run(context.Background(), Params{
		FeedURL:  "http://localhost:0",
		Timezone: "Nowhere/Nope",
		Bucket:   "transit-data",
	})
	require.Error(t, err)
}
