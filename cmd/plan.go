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
	"time"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the partitions a compact run would touch, without touching them",
		RunE: func(c *cobra.Command, _ []string) error {
			job, err := assembleJob(c)
			if err != nil {
				return err
			}
			// Planning only reads the calendar; no bucket needed.
			if err := job.ValidateRange(); err != nil {
				return err
			}

			partitions, err := job.Plan(time.Now())
			if err != nil {
				return err
			}
			for _, pk := range partitions {
				fmt.Println(pk.SourcePrefix(job.Scope))
			}
			return nil
		},
	}

	cmd.Flags().String("payload", "", "JSON job payload in the scheduler trigger format")
	cmd.Flags().String("bucket", "", "S3 bucket holding the dataset")
	cmd.Flags().String("timezone", "", "IANA timezone the partitions are keyed in")
	cmd.Flags().String("scope", "", "optional key prefix within the bucket")
	cmd.Flags().Int("previous-days", 0, "plan the N days before today")
	cmd.Flags().Int("previous-months", 0, "plan the N months before this month")
	cmd.Flags().Bool("compact-to-now", false, "include the current, still-filling partition")

	rootCmd.AddCommand(cmd)
}
