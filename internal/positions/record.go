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

// Package positions defines the vehicle position record shared by the
// ingest and compaction paths, along with its spatial enrichment and the
// geo metadata block attached to every emitted parquet file.
package positions

import (
	"encoding/json"
	"fmt"
	"time"
)

// GeohashPrecision is the fixed number of geohash characters computed for
// every record that carries a position.
const GeohashPrecision = 7

// GeoMetadataKey is the parquet file-level metadata key holding the geo
// column declaration.
const GeoMetadataKey = "geo"

// SchemaName is the root group name of the positions parquet schema.
const SchemaName = "positions"

// Record is one vehicle telemetry sample. All upstream fields are
// nullable; geohash and geometry are derived, never taken from the feed.
// Timestamp is epoch milliseconds; the IANA zone the sample was observed
// in travels in file-level metadata, not per row. The timestamp logical
// type requires a plain int64 field, so the zero value stands for null
// here, which matches the decode layer scrubbing absent feed timestamps
// to zero.
type Record struct {
	TripID      *string  `parquet:"trip_id,optional"`
	RouteID     *string  `parquet:"route_id,optional"`
	DirectionID *string  `parquet:"direction_id,optional"`
	VehicleID   *string  `parquet:"vehicle_id,optional"`
	Latitude    *float64 `parquet:"latitude,optional"`
	Longitude   *float64 `parquet:"longitude,optional"`
	Bearing     *float64 `parquet:"bearing,optional"`
	Speed       *float64 `parquet:"speed,optional"`
	Timestamp   int64    `parquet:"timestamp,optional,timestamp(millisecond)"`
	Geohash     *string  `parquet:"geohash,optional"`
	Geometry    []byte   `parquet:"geometry,optional"`
}

// SetTime stores t as epoch milliseconds.
func (r *Record) SetTime(t time.Time) {
	r.Timestamp = t.UnixMilli()
}

// Time returns the sample time in loc, or nil when the feed carried none.
func (r *Record) Time(loc *time.Location) *time.Time {
	if r.Timestamp == 0 {
		return nil
	}
	t := time.UnixMilli(r.Timestamp).In(loc)
	return &t
}

type geoColumn struct {
	Encoding      string   `json:"encoding"`
	GeometryTypes []string `json:"geometry_types"`
	CRS           string   `json:"crs"`
}

type geoMetadata struct {
	Version       string               `json:"version"`
	PrimaryColumn string               `json:"primary_column"`
	Columns       map[string]geoColumn `json:"columns"`
}

// FileMetadata returns the file-level metadata block written on every
// positions parquet file: the geo declaration plus the IANA zone name.
func FileMetadata(timezone string) (map[string]string, error) {
	geo := geoMetadata{
		Version:       "1.1.0",
		PrimaryColumn: "geometry",
		Columns: map[string]geoColumn{
			"geometry": {
				Encoding:      "WKB",
				GeometryTypes: []string{"Point"},
				CRS:           "EPSG:4326",
			},
		},
	}
	data, err := json.Marshal(geo)
	if err != nil {
		return nil, fmt.Errorf("marshal geo metadata: %w", err)
	}
	return map[string]string{
		GeoMetadataKey: string(data),
		"timezone":     timezone,
	}, nil
}
