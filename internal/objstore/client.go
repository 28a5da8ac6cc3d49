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

// Package objstore abstracts the object storage the pipeline reads and
// writes. The store exclusively owns all durable data; callers hold
// downloaded objects only as process-local temp files.
package objstore

import (
	"context"
)

// ObjectInfo describes one stored object returned by a listing.
type ObjectInfo struct {
	Key  string
	Size int64
}

// Client is the object storage surface the pipeline needs. Failed calls
// are fatal to the current unit of work; retry policy belongs to the
// external scheduler, not here.
type Client interface {
	// ListObjects returns every object under prefix, following
	// continuation tokens until none remains. Keys come back in
	// lexicographic order.
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)

	// DownloadObject downloads an object to a temp file in tmpdir.
	// Returns the temp filename, size, and whether the object was not found.
	DownloadObject(ctx context.Context, tmpdir, bucket, key string) (filename string, size int64, notFound bool, err error)

	// UploadObject uploads a local file to bucket/key, overwriting any
	// existing object at that key.
	UploadObject(ctx context.Context, bucket, key, sourceFilename string) error

	// DeleteObject deletes an object. Deleting a missing object is not
	// an error.
	DeleteObject(ctx context.Context, bucket, key string) error
}
