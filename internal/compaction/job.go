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

// Package compaction merges the many small raw snapshot files of one
// calendar partition into a small number of larger, geohash-sorted
// files at the next granularity.
package compaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Granularity is the calendar unit a partition represents.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

// Job is one compaction invocation, decided once at the boundary from
// the scheduler's flat payload. It has no identity beyond the
// invocation and is never persisted.
type Job struct {
	Bucket       string
	Timezone     string
	Scope        string
	Duration     int
	Granularity  Granularity
	CompactToNow bool
}

var (
	ErrMissingBucket   = errors.New("compaction: job payload missing bucket")
	ErrMissingTimezone = errors.New("compaction: job payload missing timezone")
	ErrBadDuration     = errors.New("compaction: job payload must set exactly one of previous_days or previous_months")
)

// jobPayload is the scheduler's trigger record. The previous_days /
// previous_months pair is the only place the day-or-month choice is
// stringly typed; ParseJobPayload resolves it into Job.Granularity and
// nothing downstream branches on payload keys again.
type jobPayload struct {
	Bucket         string `json:"bucket"`
	S3Bucket       string `json:"s3_bucket"` // legacy alias for bucket
	Timezone       string `json:"timezone"`
	Scope          string `json:"scope"`
	Stage          string `json:"stage"` // legacy alias for scope
	PreviousDays   int    `json:"previous_days"`
	PreviousMonths int    `json:"previous_months"`
	CompactToNow   bool   `json:"compact_to_now"`
}

// ParseJobPayload decodes one trigger payload and validates its range
// fields. Bucket presence is checked by Validate, which the compact
// path calls before touching storage; planning needs no bucket.
func ParseJobPayload(data []byte) (Job, error) {
	var p jobPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return Job{}, fmt.Errorf("compaction: decode job payload: %w", err)
	}

	job := Job{
		Bucket:       p.Bucket,
		Timezone:     p.Timezone,
		Scope:        p.Scope,
		CompactToNow: p.CompactToNow,
	}
	if job.Bucket == "" {
		job.Bucket = p.S3Bucket
	}
	if job.Scope == "" {
		job.Scope = p.Stage
	}

	switch {
	case p.PreviousDays > 0 && p.PreviousMonths > 0:
		return Job{}, ErrBadDuration
	case p.PreviousDays > 0:
		job.Duration = p.PreviousDays
		job.Granularity = GranularityDay
	case p.PreviousMonths > 0:
		job.Duration = p.PreviousMonths
		job.Granularity = GranularityMonth
	default:
		return Job{}, ErrBadDuration
	}

	if err := job.ValidateRange(); err != nil {
		return Job{}, err
	}
	return job, nil
}

// Validate checks every field a compact run needs, including that the
// time zone resolves.
func (j Job) Validate() error {
	if j.Bucket == "" {
		return ErrMissingBucket
	}
	return j.ValidateRange()
}

// ValidateRange checks only the fields the partition planner consumes.
func (j Job) ValidateRange() error {
	if j.Timezone == "" {
		return ErrMissingTimezone
	}
	if j.Duration <= 0 {
		return ErrBadDuration
	}
	if j.Granularity != GranularityDay && j.Granularity != GranularityMonth {
		return fmt.Errorf("compaction: unknown granularity %q", j.Granularity)
	}
	if _, err := j.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the job's IANA time zone.
func (j Job) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(j.Timezone)
	if err != nil {
		return nil, fmt.Errorf("compaction: load time zone %q: %w", j.Timezone, err)
	}
	return loc, nil
}
