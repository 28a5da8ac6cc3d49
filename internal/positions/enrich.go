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

package positions

import (
	"fmt"

	"github.com/mmcloughlin/geohash"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// Enrich recomputes geohash and geometry from the record's latitude and
// longitude, replacing whatever was there. Records without a position get
// both fields cleared. The geometry is a WKB point in CRS84, so longitude
// comes first.
func Enrich(r *Record) error {
	r.Geohash = nil
	r.Geometry = nil
	if r.Latitude == nil || r.Longitude == nil {
		return nil
	}

	gh := geohash.EncodeWithPrecision(*r.Latitude, *r.Longitude, GeohashPrecision)
	r.Geohash = &gh

	point := geom.NewPointFlat(geom.XY, []float64{*r.Longitude, *r.Latitude})
	data, err := wkb.Marshal(point, wkb.NDR)
	if err != nil {
		return fmt.Errorf("encode point geometry: %w", err)
	}
	r.Geometry = data
	return nil
}

// EnrichAll applies Enrich to every record in place.
func EnrichAll(records []Record) error {
	for i := range records {
		if err := Enrich(&records[i]); err != nil {
			return err
		}
	}
	return nil
}
