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

// Package gtfsrt fetches and decodes GTFS-realtime VehiclePositions
// feeds into position records.
package gtfsrt

import (
	"context"
	"fmt"
	"io"
	"net/http"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// AuthHeader is an optional header attached to feed requests, for feeds
// behind an API key.
type AuthHeader struct {
	Name  string
	Value string
}

// FetchFeed downloads and decodes one feed snapshot. Any transport
// error or non-2xx status is fatal to the invocation; the scheduler's
// dead-letter routing is the recovery path, so there is no retry here.
func FetchFeed(ctx context.Context, client *http.Client, url string, auth *AuthHeader) (*gtfs.FeedMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	if auth != nil && auth.Name != "" {
		req.Header.Set(auth.Name, auth.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch feed %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return nil, fmt.Errorf("decode feed message: %w", err)
	}
	return feed, nil
}
