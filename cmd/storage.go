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

package cmd

import (
	"context"
	"fmt"

	"github.com/transitlake/transitlake/config"
	"github.com/transitlake/transitlake/internal/awsclient"
	"github.com/transitlake/transitlake/internal/objstore"
)

// newObjectStore builds the object store client the commands share. When
// TRANSITLAKE_S3_ENDPOINT points at a local S3 stand-in such as MinIO,
// path style addressing is usually required as well.
func newObjectStore(ctx context.Context, cfg config.S3Config) (objstore.Client, error) {
	mgr, err := awsclient.NewManager(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating AWS client manager: %w", err)
	}

	var opts []awsclient.S3Option
	if cfg.Region != "" {
		opts = append(opts, awsclient.WithRegion(cfg.Region))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, awsclient.WithEndpoint(cfg.Endpoint))
	}
	if cfg.PathStyle {
		opts = append(opts, awsclient.WithPathStyle())
	}

	s3client, err := mgr.GetS3(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating S3 client: %w", err)
	}
	return objstore.NewS3Client(s3client), nil
}
