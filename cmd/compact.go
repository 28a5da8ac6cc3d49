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
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/transitlake/transitlake/config"
	"github.com/transitlake/transitlake/internal/compaction"
	"github.com/transitlake/transitlake/internal/logctx"
)

func init() {
	cmd := &cobra.Command{
		Use:   "compact",
		Short: "Merge raw snapshots into day or month partitions",
		Long: `compact rewrites the raw snapshot objects of recent calendar
partitions into a small number of larger, geohash-sorted parquet files.
The job is described either by a JSON payload (--payload, the scheduler
trigger format) or by config and flags.`,
		RunE: func(c *cobra.Command, _ []string) error {
			logger := setupLogging("compact")

			job, err := resolveJob(c)
			if err != nil {
				return err
			}

			ctx, cancel := handleSignals(c.Context())
			defer cancel()
			ctx = logctx.WithLogger(ctx, logger)

			store, err := newObjectStore(ctx, jobS3Config(c))
			if err != nil {
				return err
			}

			start := time.Now()
			if err := compaction.NewCompactor(store).Run(ctx, job); err != nil {
				return fmt.Errorf("compaction failed: %w", err)
			}

			logger.Info("compaction finished",
				slog.String("granularity", string(job.Granularity)),
				slog.Int("duration", job.Duration),
				slog.Duration("elapsed", time.Since(start)))
			return nil
		},
	}

	cmd.Flags().String("payload", "", "JSON job payload in the scheduler trigger format")
	cmd.Flags().String("bucket", "", "S3 bucket holding the dataset")
	cmd.Flags().String("timezone", "", "IANA timezone the partitions are keyed in")
	cmd.Flags().String("scope", "", "optional key prefix within the bucket")
	cmd.Flags().Int("previous-days", 0, "compact the N days before today")
	cmd.Flags().Int("previous-months", 0, "compact the N months before this month")
	cmd.Flags().Bool("compact-to-now", false, "also compact the current, still-filling partition")

	rootCmd.AddCommand(cmd)
}

// resolveJob builds a fully validated compaction job for the compact
// path. plan assembles the same job but skips the bucket requirement.
func resolveJob(c *cobra.Command) (compaction.Job, error) {
	job, err := assembleJob(c)
	if err != nil {
		return compaction.Job{}, err
	}
	if err := job.Validate(); err != nil {
		return compaction.Job{}, err
	}
	return job, nil
}

// assembleJob builds the job either from an explicit payload or from
// config plus flags. The payload path bypasses config entirely so
// scheduler triggers behave the same everywhere.
func assembleJob(c *cobra.Command) (compaction.Job, error) {
	if payload, _ := c.Flags().GetString("payload"); payload != "" {
		return compaction.ParseJobPayload([]byte(payload))
	}

	cfg, err := config.Load()
	if err != nil {
		return compaction.Job{}, fmt.Errorf("loading config: %w", err)
	}
	applyCompactFlags(c, &cfg.Compact)

	job := compaction.Job{
		Bucket:       cfg.Compact.Bucket,
		Timezone:     cfg.Compact.Timezone,
		Scope:        cfg.Compact.Scope,
		CompactToNow: cfg.Compact.CompactToNow,
	}
	switch {
	case cfg.Compact.PreviousDays > 0 && cfg.Compact.PreviousMonths > 0:
		return compaction.Job{}, compaction.ErrBadDuration
	case cfg.Compact.PreviousDays > 0:
		job.Duration = cfg.Compact.PreviousDays
		job.Granularity = compaction.GranularityDay
	case cfg.Compact.PreviousMonths > 0:
		job.Duration = cfg.Compact.PreviousMonths
		job.Granularity = compaction.GranularityMonth
	default:
		return compaction.Job{}, compaction.ErrBadDuration
	}
	return job, nil
}

func applyCompactFlags(c *cobra.Command, cfg *config.CompactConfig) {
	if c.Flags().Changed("bucket") {
		cfg.Bucket, _ = c.Flags().GetString("bucket")
	}
	if c.Flags().Changed("timezone") {
		cfg.Timezone, _ = c.Flags().GetString("timezone")
	}
	if c.Flags().Changed("scope") {
		cfg.Scope, _ = c.Flags().GetString("scope")
	}
	if c.Flags().Changed("previous-days") {
		cfg.PreviousDays, _ = c.Flags().GetInt("previous-days")
	}
	if c.Flags().Changed("previous-months") {
		cfg.PreviousMonths, _ = c.Flags().GetInt("previous-months")
	}
	if c.Flags().Changed("compact-to-now") {
		cfg.CompactToNow, _ = c.Flags().GetBool("compact-to-now")
	}
}

// jobS3Config loads just the S3 section. Config load errors are
// deliberately ignored here since resolveJob already surfaced them on
// the config path, and the payload path must work without any config.
func jobS3Config(_ *cobra.Command) config.S3Config {
	cfg, err := config.Load()
	if err != nil {
		return config.S3Config{}
	}
	return cfg.S3
}
