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
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "transitlake",
	Short: "Ingest and compact GTFS-realtime vehicle positions in object storage",
	Long: `transitlake polls a GTFS-realtime VehiclePositions feed into raw parquet
snapshots in an S3 bucket, and compacts those snapshots into larger,
geohash-sorted files at day and month granularity.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// setupLogging installs the default logger every job log line flows
// through. Each invocation gets its own run id so overlapping manual
// and scheduled runs can be told apart in the log stream.
func setupLogging(servicename string) *slog.Logger {
	var opts *slog.HandlerOptions
	if os.Getenv("DEBUG") != "" || os.Getenv("TRANSITLAKE_DEBUG") != "" {
		opts = &slog.HandlerOptions{Level: slog.LevelDebug}
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, opts)).With(
		slog.String("service", servicename),
		slog.String("runID", uuid.NewString()),
	)
	slog.SetDefault(logger)
	return logger
}
