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

package gtfsrt

import (
	"strconv"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"

	"github.com/transitlake/transitlake/internal/positions"
)

// DecodeVehiclePositions extracts one record per feed entity that
// carries a vehicle sub-message; entities without one are skipped.
// Upstream protobuf defaults (0.0 floats, empty strings) are treated as
// missing values rather than observations.
func DecodeVehiclePositions(feed *gtfs.FeedMessage, loc *time.Location) []positions.Record {
	records := make([]positions.Record, 0, len(feed.GetEntity()))
	for _, entity := range feed.GetEntity() {
		v := entity.GetVehicle()
		if v == nil {
			continue
		}

		var rec positions.Record
		if trip := v.GetTrip(); trip != nil {
			rec.TripID = scrubString(trip.GetTripId())
			rec.RouteID = scrubString(trip.GetRouteId())
			if trip.DirectionId != nil {
				rec.DirectionID = scrubString(strconv.FormatUint(uint64(trip.GetDirectionId()), 10))
			}
		}
		if desc := v.GetVehicle(); desc != nil {
			rec.VehicleID = scrubString(desc.GetId())
		}
		if pos := v.GetPosition(); pos != nil {
			rec.Latitude = scrubFloat(float64(pos.GetLatitude()))
			rec.Longitude = scrubFloat(float64(pos.GetLongitude()))
			rec.Bearing = scrubFloat(float64(pos.GetBearing()))
			rec.Speed = scrubFloat(float64(pos.GetSpeed()))
		}
		if v.Timestamp != nil {
			rec.SetTime(time.Unix(int64(v.GetTimestamp()), 0).In(loc))
		}

		records = append(records, rec)
	}
	return records
}

func scrubString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func scrubFloat(f float64) *float64 {
	if f == 0.0 {
		return nil
	}
	return &f
}
